package components

import (
	"errors"
	"testing"
	"time"

	"github.com/relloyd/bronze/logger"
	"github.com/relloyd/bronze/stream"
)

func newTestLogger() logger.Logger {
	return logger.NewLogger("bronze", "error", true)
}

// feed returns a closed channel containing recs.
func feed(recs ...stream.Record) chan stream.Record {
	ch := make(chan stream.Record, len(recs))
	for _, r := range recs {
		ch <- r
	}
	close(ch)
	return ch
}

// collect reads dataChan until it is closed or timeoutSec passes.
func collect(t *testing.T, dataChan chan stream.Record, timeoutSec int) []stream.Record {
	results := make([]stream.Record, 0)
	timeout := time.After(time.Duration(timeoutSec) * time.Second)
	for {
		select {
		case rec, ok := <-dataChan:
			if !ok {
				return results
			}
			results = append(results, rec)
		case <-timeout:
			t.Fatal("timeout waiting for output channel to close")
		}
	}
}

func waitForRows(t *testing.T, dataChan chan stream.Record, waitForNumRows int, timeoutSec int) error {
	idx := 0
	expectedRowsChan := make(chan struct{}, 1)
	go func() { // consume rows
		for range dataChan {
			idx++
			if idx >= waitForNumRows { // if we counted enough rows...
				expectedRowsChan <- struct{}{} // send completion message.
				break
			}
		}
	}()
	select {
	case <-expectedRowsChan:
	case <-time.After(time.Duration(timeoutSec) * time.Second):
		return errors.New("timeout waiting for expected number of rows")
	}
	return nil
}

// panicCatcher returns a PanicHandlerFunc that forwards recovered values to the returned channel.
func panicCatcher() (PanicHandlerFunc, chan interface{}) {
	ch := make(chan interface{}, 1)
	return func() {
		if r := recover(); r != nil {
			ch <- r
		}
	}, ch
}

func shutdownAndWait(t *testing.T, controlChan chan ControlAction, timeoutSec int) {
	responseChan := make(chan error, 1)
	controlChan <- ControlAction{ResponseChan: responseChan, Action: Shutdown}
	select {
	case <-time.After(time.Duration(timeoutSec) * time.Second):
		t.Fatal("timeout waiting for shutdown")
	case <-responseChan:
	}
}
