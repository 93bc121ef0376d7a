package components

import (
	"sync/atomic"

	c "github.com/relloyd/bronze/constants"
	f "github.com/relloyd/bronze/file"
	"github.com/relloyd/bronze/logger"
	"github.com/relloyd/bronze/stats"
	"github.com/relloyd/bronze/stream"
	"github.com/relloyd/bronze/table"
)

type ParquetFileWriterConfig struct {
	Log            logger.Logger
	Name           string
	InputChan      chan stream.Record
	OutputDir      string       // the directory that receives the part file; it is replaced if it exists.
	Schema         table.Schema // the columns to write, in order.
	StepWatcher    *stats.StepWatcher
	WaitCounter    ComponentWaiter
	PanicHandlerFn PanicHandlerFunc
}

// NewParquetFileWriter writes cfg.InputChan to a snappy-compressed parquet part file inside cfg.OutputDir
// and marks the directory complete with a _SUCCESS file.
// outputChan contains one record per file produced, holding the file name and its row count.
func NewParquetFileWriter(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*ParquetFileWriterConfig)
	if cfg.InputChan == nil {
		cfg.Log.Panic(cfg.Name, " error - missing input channel.")
	}
	if cfg.OutputDir == "" {
		cfg.Log.Panic(cfg.Name, " error - missing output directory.")
	}
	if len(cfg.Schema) == 0 {
		cfg.Log.Panic(cfg.Name, " error - missing schema.")
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
		cfg.Log.Info(cfg.Name, " is running")
		rowCount := int64(0)
		if cfg.StepWatcher != nil {
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		out, err := f.NewParquetDirOutput(cfg.Log, cfg.OutputDir, cfg.Schema)
		if err != nil {
			cfg.Log.Panic(cfg.Name, " ", err)
		}
		names := cfg.Schema.Names()
		values := make([]interface{}, len(names))
		var controlAction ControlAction
		for {
			select {
			case rec, ok := <-cfg.InputChan:
				if !ok {
					cfg.InputChan = nil
				} else {
					for idx, name := range names {
						values[idx] = rec.GetDataMap()[name]
					}
					if err := out.Write(values); err != nil {
						cfg.Log.Panic(cfg.Name, " ", err)
					}
					atomic.AddInt64(&rowCount, 1)
				}
			case controlAction = <-controlChan:
				controlChan = nil
			}
			if controlChan == nil || cfg.InputChan == nil {
				break
			}
		}
		if controlAction.Action == Shutdown { // if we were asked to shutdown leave the directory without a _SUCCESS marker...
			out.Abort()
			controlAction.ResponseChan <- nil
			cfg.Log.Info(cfg.Name, " shutdown")
			return
		}
		files, err := out.Close()
		if err != nil {
			cfg.Log.Panic(cfg.Name, " ", err)
		}
		for idx, fileName := range files {
			rows := int64(0)
			if idx == 0 { // the part file holds every row; the marker holds none.
				rows = atomic.AddInt64(&rowCount, 0)
			}
			if rowSentOK := safeSend(newFileRecord(fileName, rows), outputChan, controlChan, sendNilControlResponse); !rowSentOK {
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			}
		}
		close(outputChan)
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return
}
