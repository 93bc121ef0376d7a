package components

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	c "github.com/relloyd/bronze/constants"
	"github.com/relloyd/bronze/logger"
	"github.com/relloyd/bronze/stats"
	"github.com/relloyd/bronze/stream"
	"github.com/relloyd/bronze/table"
)

type TablePreviewConfig struct {
	Log            logger.Logger
	Name           string
	InputChan      chan stream.Record
	Writer         io.Writer // the writer to output records to, usually STDOUT
	TableName      string    // printed as a title when the preview is enabled, even if no records arrive.
	OutputFields   []string  // the fields to write in order (leave empty for all fields sorted by name)
	NumRows        int       // number of records to print; 0 disables the preview.
	StepWatcher    *stats.StepWatcher
	WaitCounter    ComponentWaiter
	PanicHandlerFn PanicHandlerFunc
}

// NewTablePreview prints the first cfg.NumRows records found on the InputChan to cfg.Writer as JSON lines
// and passes every record on to outputChan.
// The title "\n<TABLE>:" is printed when the step starts so an empty table still shows its heading.
func NewTablePreview(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*TablePreviewConfig)
	if cfg.InputChan == nil {
		cfg.Log.Panic(cfg.Name, " error - missing input channel.")
	}
	if cfg.Writer == nil && cfg.NumRows > 0 {
		cfg.Log.Panic(cfg.Name, " bad config supplied: missing io.Writer")
	}
	outputChan = make(chan stream.Record, c.ChanSize)
	controlChan = make(chan ControlAction, 1)
	go func() {
		if cfg.PanicHandlerFn != nil {
			defer cfg.PanicHandlerFn()
		}
		cfg.Log.Info(cfg.Name, " is running")
		if cfg.WaitCounter != nil {
			cfg.WaitCounter.Add()
			defer cfg.WaitCounter.Done()
		}
		rowCount := int64(0)
		if cfg.StepWatcher != nil {
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		if cfg.NumRows > 0 {
			if _, err := fmt.Fprintf(cfg.Writer, "\n%v:\n", strings.ToUpper(cfg.TableName)); err != nil {
				cfg.Log.Panic(cfg.Name, " failed to output preview title: ", err)
			}
		}
		fields := cfg.OutputFields
		for { // loop until break...
			select {
			case rec, ok := <-cfg.InputChan:
				if !ok { // if there is no more input data...
					cfg.InputChan = nil
				} else {
					count := atomic.AddInt64(&rowCount, 1)
					if count <= int64(cfg.NumRows) { // if we should print this record...
						fields = printPreviewRecord(cfg, rec, fields)
					}
					if recSentOK := safeSend(rec, outputChan, controlChan, sendNilControlResponse); !recSentOK {
						cfg.Log.Info(cfg.Name, " shutdown")
						return
					}
				}
			case controlAction := <-controlChan: // if we are told to shutdown...
				controlAction.ResponseChan <- nil
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			}
			if cfg.InputChan == nil {
				break
			}
		}
		close(outputChan)
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return outputChan, controlChan
}

// printPreviewRecord writes rec to cfg.Writer.
// It returns the fields used, which default to all fields sorted by name.
func printPreviewRecord(cfg *TablePreviewConfig, rec stream.Record, fields []string) []string {
	if len(fields) == 0 {
		fields = rec.GetSortedDataMapKeys()
	}
	if _, err := fmt.Fprintf(cfg.Writer, "%v\n", rec.GetJson(cfg.Log, fields, table.FormatValue)); err != nil {
		cfg.Log.Panic(cfg.Name, " failed to output record: ", err)
	}
	return fields
}
