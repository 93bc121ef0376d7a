package components

import (
	"sync/atomic"

	c "github.com/relloyd/bronze/constants"
	f "github.com/relloyd/bronze/file"
	"github.com/relloyd/bronze/logger"
	s "github.com/relloyd/bronze/stats"
	"github.com/relloyd/bronze/stream"
	"github.com/relloyd/bronze/table"
)

type CsvFileWriterConfig struct {
	Log               logger.Logger
	Name              string
	InputChan         chan stream.Record // the input channel of rows to write to an output CSV file.
	OutputDir         string             // set to empty string to use a system generated sub directory in OS temp space.
	FileNamePrefix    string             // the file is named <prefix>.<extension>
	FileNameExtension string
	UseGzip           bool
	Schema            table.Schema // the columns written as the CSV header, in order, and used to format values.
	StepWatcher       *s.StepWatcher
	WaitCounter       ComponentWaiter
	PanicHandlerFn    PanicHandlerFunc
}

// NewCsvFileWriter will dump cfg.InputChan to the CSV file described by cfg.
// The header is always written, so an empty input still produces a file.
// outputChan contains one record for the CSV file produced, holding the file name and its row count.
func NewCsvFileWriter(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*CsvFileWriterConfig)
	if cfg.InputChan == nil {
		cfg.Log.Panic(cfg.Name, " error - missing input channel.")
	}
	if len(cfg.Schema) == 0 {
		cfg.Log.Panic(cfg.Name, " error - missing schema for the CSV header.")
	}
	if cfg.FileNameExtension == "" {
		cfg.FileNameExtension = c.OutputFormatCSV
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
		cfg.Log.Debug(cfg.Name, " starting NewCSVFileOutput with config: outputDir=", cfg.OutputDir, "; filePrefix=", cfg.FileNamePrefix, "; extension=", cfg.FileNameExtension)
		fi := f.NewCSVFileOutput(cfg.Log, cfg.OutputDir, cfg.FileNamePrefix, cfg.FileNameExtension, cfg.UseGzip)
		fi.SetHeader(cfg.Schema.Names())
		defer fi.Cleanup()
		rowCount := int64(0)
		if cfg.StepWatcher != nil {
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		names := cfg.Schema.Names()
		values := make([]string, len(cfg.Schema))
		var controlAction ControlAction
		for { // for each row of input...
			select {
			case rec, ok := <-cfg.InputChan:
				if !ok { // if the input channel was closed...
					cfg.InputChan = nil
				} else {
					atomic.AddInt64(&rowCount, 1)
					for idx, col := range cfg.Schema {
						values[idx] = table.FormatColumnValue(col.Type, rec.GetDataMap()[names[idx]])
					}
					fi.MustWriteToCSV(values)
				}
			case controlAction = <-controlChan:
				controlChan = nil
			}
			if controlChan == nil || cfg.InputChan == nil { // if we should quit due to a shutdown request or the end or input...
				break
			}
		}
		if controlAction.Action == Shutdown {
			controlAction.ResponseChan <- nil
			cfg.Log.Info(cfg.Name, " shutdown")
			return
		}
		fi.MustEnsureFile() // an empty input still gets a file with its header.
		fi.Cleanup()        // force closure of the CSV file before it is handed on.
		fileName := fi.ListOfOutputFiles[0]
		cfg.Log.Debug(cfg.Name, " producing filename as a row onto the output channel: ", fileName)
		if rowSentOK := safeSend(newFileRecord(fileName, int64(fi.TotalRows())), outputChan, controlChan, sendNilControlResponse); !rowSentOK {
			cfg.Log.Info(cfg.Name, " shutdown")
			return
		}
		close(outputChan)
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return
}
