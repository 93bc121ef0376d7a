package components

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/diegoholiveira/jsonlogic"
	c "github.com/relloyd/bronze/constants"
	"github.com/relloyd/bronze/helper"
	log "github.com/relloyd/bronze/logger"
	"github.com/relloyd/bronze/stats"
	"github.com/relloyd/bronze/stream"
	"github.com/relloyd/bronze/table"
)

type FilterType string
type FilterMetadata string

type mapFilterFuncs map[FilterType]filterSetupFunc
type filterSetupFunc func(log log.Logger, metadata FilterMetadata) (filterFunc, error)
type filterFunc func(data stream.Record) (stream.Record, error)

const (
	FilterRowsSnapshotDate FilterType = "SnapshotDate"
	FilterRowsJsonLogic    FilterType = "JsonLogic"
	FilterRowsAbortAfter   FilterType = "AbortAfter"
)

var filterTypes = mapFilterFuncs{
	FilterRowsSnapshotDate: setupSnapshotDateFilter, // FilterMetadata is <field>:<YYYY-MM-DD>
	FilterRowsJsonLogic:    setupJsonLogicFilter,    // FilterMetadata is the JSON Logic rule
	FilterRowsAbortAfter:   setupAbortAfterFilter,   // FilterMetadata is the max number of rows
}

var (
	errFilterAbortAfterExceededCount = errors.New("record count exceeded")
)

type FilterRowsConfig struct {
	Log            log.Logger
	Name           string
	InputChan      chan stream.Record
	FilterType     FilterType     // one of the keys in the filterTypes map.
	FilterMetadata FilterMetadata // filter specific settings, see filterTypes.
	StepWatcher    *stats.StepWatcher
	WaitCounter    ComponentWaiter
	PanicHandlerFn PanicHandlerFunc
}

// SnapshotDateFilterMetadata builds the FilterMetadata for a FilterRowsSnapshotDate filter.
func SnapshotDateFilterMetadata(field string, date string) FilterMetadata {
	return FilterMetadata(fmt.Sprintf("%v:%v", field, date))
}

// NewFilterRows accepts a FilterRowsConfig{} and outputs rows if they match the given filter.
func NewFilterRows(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*FilterRowsConfig)
	if cfg.InputChan == nil {
		cfg.Log.Panic(cfg.Name, " error - missing input channel.")
	}
	fnGetFilter, ok := filterTypes[cfg.FilterType]
	if !ok {
		cfg.Log.Panic("unable to find filter function using name ", cfg.FilterType)
	}
	// Set up the filter by supplying the metadata.
	fnFilter, err := fnGetFilter(cfg.Log, cfg.FilterMetadata)
	if err != nil {
		cfg.Log.Panic("unable to setup filter ", cfg.FilterType, ": ", err)
	}
	outputChan = make(chan stream.Record, c.ChanSize)
	controlChan = make(chan ControlAction, 1)
	go func() {
		if cfg.PanicHandlerFn != nil {
			defer cfg.PanicHandlerFn()
		}
		if cfg.WaitCounter != nil {
			cfg.WaitCounter.Add()
			defer cfg.WaitCounter.Done()
		}
		rowCount := int64(0)
		if cfg.StepWatcher != nil {
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		cfg.Log.Info(cfg.Name, " is running")
		// Call the filter and output data if needed.
		// Return false if we were asked to shutdown while sending.
		fnFilterAndSend := func(rec stream.Record) bool {
			data, err := fnFilter(rec)
			if err != nil { // if the filter function failed (which may be deliberate)...
				cfg.Log.Panic(cfg.Name, " aborting due to error: ", err)
			}
			if !data.RecordIsNil() { // if the filter returned a record...
				return safeSend(data, outputChan, controlChan, sendNilControlResponse)
			}
			return true
		}
		var controlAction ControlAction
		for { // for each row of input...
			select {
			case rec, ok := <-cfg.InputChan:
				if !ok { // if the input channel was closed...
					cfg.InputChan = nil // disable this case.
				} else {
					atomic.AddInt64(&rowCount, 1)
					if sentOK := fnFilterAndSend(rec); !sentOK {
						cfg.Log.Info(cfg.Name, " shutdown")
						return
					}
				}
			case controlAction = <-controlChan: // if we were asked to shutdown...
			}
			if cfg.InputChan == nil || controlAction.Action == Shutdown {
				break
			}
		}
		if controlAction.Action == Shutdown {
			controlAction.ResponseChan <- nil // respond that we're done with a nil error.
			cfg.Log.Info(cfg.Name, " shutdown")
			return
		}
		close(outputChan)
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return
}

// setupSnapshotDateFilter returns a filterFunc that keeps records whose snapshot date field falls on the date
// supplied in metadata, which is of the form <field>:<YYYY-MM-DD>.
// Field values are parsed with table.ParseSnapshotDate and replaced by the parsed date in the output.
// Records with null or unparsable values are dropped.
func setupSnapshotDateFilter(log log.Logger, metadata FilterMetadata) (filterFunc, error) {
	field, dateStr := helper.SplitRight(string(metadata), ":")
	if field == "" || dateStr == "" {
		return nil, fmt.Errorf("expected %v metadata of the form <field>:<YYYY-MM-DD> but got %q", FilterRowsSnapshotDate, metadata)
	}
	want, err := table.ParseRequestedDate(dateStr)
	if err != nil {
		return nil, err
	}
	unparsable := 0
	return func(data stream.Record) (stream.Record, error) {
		if data.RecordIsNil() {
			return data, nil
		}
		got, err := table.ParseSnapshotDate(data.GetData(field))
		if err != nil {
			unparsable++
			if unparsable == 1 { // log the first only.
				log.Warn("dropping row with bad ", field, " value: ", err)
			}
			return stream.NewNilRecord(), nil
		}
		if !table.SameDate(got, want) {
			return stream.NewNilRecord(), nil
		}
		data.SetData(field, got)
		return data, nil
	}, nil
}

// setupJsonLogicFilter returns a filterFunc, which can be used to filter records using JSON Logic.
// Supply the JSON Logic rule as metadata input parameter.
// The filterFunc returns the data if the JSON Logic rule returns true, else it returns a nil record.
// In order to apply the JSON Logic, the filterFunc marshals the supplied data to JSON.
func setupJsonLogicFilter(log log.Logger, metadata FilterMetadata) (filterFunc, error) {
	var result bytes.Buffer
	rule := string(metadata)
	if !jsonlogic.IsValid(strings.NewReader(rule)) {
		return nil, fmt.Errorf("invalid %v rule: %v", FilterRowsJsonLogic, metadata)
	}
	return func(data stream.Record) (stream.Record, error) {
		if !data.RecordIsNil() {
			result.Reset()
			if err := applyJsonLogic(data, rule, &result); err != nil {
				return stream.NewNilRecord(), err
			}
			if strings.TrimSpace(result.String()) == "true" {
				return data, nil
			}
		}
		return stream.NewNilRecord(), nil
	}, nil
}

// applyJsonLogic will apply json logic supplied in rule to data.
// It assumes the caller has validated the logic already!
func applyJsonLogic(data stream.Record, rule string, result *bytes.Buffer) error {
	jsonData, err := json.Marshal(data.GetDataMap())
	if err != nil {
		return fmt.Errorf("error marshalling data before applying JSON logic: %v", err)
	}
	err = jsonlogic.Apply(strings.NewReader(rule), bytes.NewReader(jsonData), result)
	if err != nil {
		return fmt.Errorf("error applying JSON logic: %v", err)
	}
	return nil
}

// setupAbortAfterFilter returns a filterFunc, which can be used to count records and cause an error if the count
// exceeds the (max) integer supplied in the metadata.
// If max == 0 then the filter is essentially disabled.
func setupAbortAfterFilter(log log.Logger, metadata FilterMetadata) (filterFunc, error) {
	count := 0
	max, err := strconv.Atoi(strings.TrimSpace(string(metadata)))
	if err != nil {
		return nil, fmt.Errorf("error converting filter metadata value '%v' to an integer: %w", metadata, err)
	}
	if max < 0 {
		return nil, fmt.Errorf("%v metadata must not be negative: %v", FilterRowsAbortAfter, max)
	}
	return func(data stream.Record) (stream.Record, error) {
		if !data.RecordIsNil() {
			count++
			if max != 0 && count > max {
				return stream.NewNilRecord(), errFilterAbortAfterExceededCount
			}
		}
		return data, nil
	}, nil
}
