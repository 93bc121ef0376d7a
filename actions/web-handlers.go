package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/relloyd/bronze/logger"
	"github.com/relloyd/bronze/transform"
)

type WebServerResponse uint32

const (
	Okay WebServerResponse = iota + 1
	Error
)

func (w WebServerResponse) MarshalJSON() ([]byte, error) {
	var retval string
	switch w {
	case Okay:
		retval = "ok"
	case Error:
		retval = "error"
	default:
		err := fmt.Errorf("unhandled WebServerResponse value in MarshalJSON() conversion")
		return nil, err
	}
	return json.Marshal(retval)
}

type ResponseSimple struct {
	ServerStatus WebServerResponse `json:"status"`
}

type ResponseLoad struct {
	Status  WebServerResponse `json:"status"`
	Message string            `json:"message"`
	Result  *LoadResult       `json:"result,omitempty"`
}

type ResponseLoadList struct {
	Status WebServerResponse   `json:"status"`
	Loads  []transform.RunInfo `json:"loads"`
}

type ResponseLoadStatus struct {
	Status  WebServerResponse  `json:"status"`
	Message string             `json:"message"`
	Load    *transform.RunInfo `json:"load,omitempty"`
}

type ResponseLoadStats struct {
	Status       WebServerResponse `json:"status"`
	Message      string            `json:"message"`
	StatsSummary interface{}       `json:"stats"`
}

func GetHandlerHealth(log logger.Logger) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		respond(log, w, ResponseSimple{ServerStatus: Okay})
	}
}

func GetHandlerStopServer(log logger.Logger, chanStop chan string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case chanStop <- "stop":
			log.Info("Stop signal sent")
		default: // a stop is already pending.
		}
		w.WriteHeader(http.StatusOK)
		respond(log, w, ResponseSimple{ServerStatus: Okay})
	}
}

// GetHandlerLoad runs the load described by the JSON request body and responds with its result.
func GetHandlerLoad(ctx context.Context, log logger.Logger, loader *Loader) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := ioutil.ReadAll(r.Body)
		if err != nil {
			logAndRespond(log, err, w, http.StatusBadRequest, ResponseLoad{Status: Error, Message: fmt.Sprintf("error reading request: %v", err)})
			return
		}
		cfg := LoadConfig{}
		if err = json.Unmarshal(b, &cfg); err != nil {
			logAndRespond(log, err, w, http.StatusBadRequest, ResponseLoad{Status: Error, Message: fmt.Sprintf("error unmarshalling JSON: %v", err)})
			return
		}
		result, err := loader.Load(ctx, &cfg)
		if err != nil {
			status := http.StatusBadRequest
			if result.RunID != "" { // if the load got as far as running...
				status = http.StatusInternalServerError
			}
			logAndRespond(log, err, w, status, ResponseLoad{Status: Error, Message: err.Error(), Result: &result})
			return
		}
		w.WriteHeader(http.StatusOK)
		respond(log, w, ResponseLoad{Status: Okay, Message: "load complete", Result: &result})
	}
}

func GetHandlerLoadList(log logger.Logger, history *transform.SafeMapRunInfo) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		respond(log, w, ResponseLoadList{Status: Okay, Loads: history.List()})
	}
}

func GetHandlerLoadStatus(log logger.Logger, history *transform.SafeMapRunInfo) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["runId"]
		ri, ok := history.Load(id)
		if !ok { // if the load doesn't exist...
			w.WriteHeader(http.StatusNotFound)
			log.Info("HTTP request for status of load ", id, " that doesn't exist.")
			respond(log, w, ResponseLoadStatus{Status: Error, Message: fmt.Sprintf("load %v does not exist", id)})
			return
		}
		w.WriteHeader(http.StatusOK)
		respond(log, w, ResponseLoadStatus{Status: Okay, Load: &ri})
	}
}

func GetHandlerLoadStats(log logger.Logger, history *transform.SafeMapRunInfo) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["runId"]
		ri, ok := history.Load(id)
		if !ok || ri.Stats == nil { // if the load doesn't exist...
			w.WriteHeader(http.StatusNotFound)
			log.Info("HTTP request to fetch stats for load ", id, " that doesn't exist.")
			respond(log, w, ResponseLoadStats{Status: Error, Message: fmt.Sprintf("load %v does not exist", id)})
			return
		}
		w.WriteHeader(http.StatusOK)
		respond(log, w, ResponseLoadStats{Status: Okay, StatsSummary: ri.Stats.GetStats()})
	}
}

// logAndRespond will log the error, write status and r to w.
func logAndRespond(log logger.Logger, err error, w http.ResponseWriter, status int, r interface{}) {
	log.Error(err)
	w.WriteHeader(status)
	respond(log, w, r)
}

// respond will marshal i to a string and write it to w.
func respond(log logger.Logger, w http.ResponseWriter, i interface{}) {
	j, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		log.Panic(err)
	}
	if _, err = fmt.Fprint(w, string(j)); err != nil {
		log.Error(err)
	}
}
