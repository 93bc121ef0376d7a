package components

import (
	"sync/atomic"

	c "github.com/relloyd/bronze/constants"
	"github.com/relloyd/bronze/file"
	"github.com/relloyd/bronze/logger"
	"github.com/relloyd/bronze/stats"
	"github.com/relloyd/bronze/stream"
)

type CsvFileReaderConfig struct {
	Log            logger.Logger
	Name           string
	Table          *file.CSVTable // rows already read and typed by file.ReadCSVFile.
	StepWatcher    *stats.StepWatcher
	WaitCounter    ComponentWaiter
	PanicHandlerFn PanicHandlerFunc
}

// NewCsvFileReader produces one record per row of cfg.Table onto outputChan.
// Each record contains every column of the table schema; empty cells are nil.
func NewCsvFileReader(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*CsvFileReaderConfig)
	if cfg.Table == nil {
		cfg.Log.Panic(cfg.Name, " error - missing CSV table.")
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
		names := cfg.Table.Schema.Names()
		for _, row := range cfg.Table.Rows { // for each row of the CSV...
			rec := stream.NewRecord()
			for idx, name := range names {
				rec.SetData(name, row[idx])
			}
			if recSentOK := safeSend(rec, outputChan, controlChan, sendNilControlResponse); !recSentOK {
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			}
			atomic.AddInt64(&rowCount, 1)
		}
		close(outputChan)
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return
}
