package actions

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	c "github.com/relloyd/bronze/constants"
	"github.com/relloyd/bronze/helper"
	"github.com/relloyd/bronze/logger"
	"github.com/relloyd/bronze/transform"
)

const (
	urlContext4Loads = "/loads"
)

type WebServerConfig struct {
	LogLevel                  string `errorTxt:"log level" mandatory:"yes"`
	Scheme                    string `errorTxt:"scheme" mandatory:"no"`
	Addr                      net.IP `errorTxt:"address" mandatory:"no"`
	Port                      int    `errorTxt:"port" mandatory:"no"`
	StatsDumpFrequencySeconds int
	StackDumpOnPanic          bool
}

func RunWebServer(web *WebServerConfig) error {
	if web == nil {
		return errors.New("nil pointer to web server config supplied")
	}
	if err := helper.ValidateStructIsPopulated(web); err != nil {
		return err
	}
	log := logger.NewJsonLogger(c.BronzeFilePrefix, web.LogLevel, web.StackDumpOnPanic)
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()
	loader := &Loader{
		Log:                       log,
		History:                   transform.NewSafeMapRunInfo(),
		Metrics:                   NewMetrics(),
		StatsDumpFrequencySeconds: web.StatsDumpFrequencySeconds,
	}
	// Start the web server.
	srv, chanStopServer := runServer(ctx, log, web, loader)
	// Block & wait for completion.
	return waitForServer(log, srv, chanStopServer, cancelFunc)
}

// newRouter creates the routes served by the web service.
// Loads run with ctx so they stop when the server does.
func newRouter(ctx context.Context, log logger.Logger, loader *Loader, chanStopServer chan string) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/stop", GetHandlerStopServer(log, chanStopServer)).Methods(http.MethodPost)
	r.Path("/health").HandlerFunc(GetHandlerHealth(log))
	r.Path("/metrics").Handler(loader.Metrics.Handler())
	r.Path(urlContext4Loads).Methods(http.MethodGet).HandlerFunc(GetHandlerLoadList(log, loader.History))
	r.Path(urlContext4Loads).Methods(http.MethodPost).Headers("Content-Type", "application/json").HandlerFunc(
		GetHandlerLoad(ctx, log, loader))
	r.Path(urlContext4Loads + "/{runId}").Methods(http.MethodGet).HandlerFunc(GetHandlerLoadStatus(log, loader.History))
	r.Path(urlContext4Loads + "/{runId}/stats").Methods(http.MethodGet).HandlerFunc(GetHandlerLoadStats(log, loader.History))
	return r
}

// runServer starts a web server and returns:
// 1) the server; and
// 2) a channel that can be used to stop the web server
func runServer(ctx context.Context, log logger.Logger, web *WebServerConfig, loader *Loader) (*http.Server, chan string) {
	chanStopServer := make(chan string, 1)
	srv := &http.Server{ // Good practice to set timeouts to avoid Slowloris attacks.
		Addr:         fmt.Sprintf("%v:%v", web.Addr, web.Port),
		WriteTimeout: time.Minute * 5, // loads run synchronously.
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      newRouter(ctx, log, loader, chanStopServer),
	}
	// Run HTTP server non-blocking.
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			if err == http.ErrServerClosed {
				log.Info(err)
			} else {
				log.Panic(err)
			}
		}
	}()
	log.Info(fmt.Sprintf("Listening on %v://%v:%v", strings.ToLower(web.Scheme), web.Addr, web.Port))
	return srv, chanStopServer
}

func waitForServer(log logger.Logger, srv *http.Server, chanStopServer chan string, cancelLoads context.CancelFunc) error {
	// Accept graceful shutdowns when quit via SIGINT (Ctrl+C).
	chanOS := make(chan os.Signal, 1)
	signal.Notify(chanOS, os.Interrupt)
	defer signal.Stop(chanOS)
	select {
	case <-chanStopServer:
	case <-chanOS:
	}
	fmt.Println() // print new line char for clean looking CLI.
	log.Info("Shutting down web server...")
	cancelLoads() // shutdown running loads first.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	return srv.Shutdown(ctx) // Doesn't block if no connections, but will otherwise wait until the timeout deadline.
}
