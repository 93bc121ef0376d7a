package actions

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/relloyd/bronze/aws/s3"
	"github.com/relloyd/bronze/components"
	c "github.com/relloyd/bronze/constants"
	"github.com/relloyd/bronze/file"
	"github.com/relloyd/bronze/helper"
	"github.com/relloyd/bronze/logger"
	"github.com/relloyd/bronze/paths"
	"github.com/relloyd/bronze/stats"
	"github.com/relloyd/bronze/stream"
	"github.com/relloyd/bronze/table"
	"github.com/relloyd/bronze/transform"
	"github.com/rs/xid"
	"golang.org/x/net/context"
)

// LoadConfig describes a single bronze table load.
// It is the definition printed by the "output" flag and accepted by the "file" flag and the web service.
type LoadConfig struct {
	SnapshotDate string          `json:"snapshotDate" errorTxt:"snapshot-date" mandatory:"yes"`
	OutputDir    string          `json:"outputDir" errorTxt:"output-dir" mandatory:"yes"`
	Source       string          `json:"source,omitempty"`     // file name under the data directory, or an explicit path
	ProjectDir   string          `json:"projectDir,omitempty"` // directory to start the project root search from
	TableName    string          `json:"table,omitempty"`
	Format       string          `json:"format,omitempty"` // csv or parquet
	UseGzip      bool            `json:"gzip,omitempty"`
	PreviewRows  int             `json:"previewRows,omitempty"`
	FilterRule   string          `json:"filterRule,omitempty"` // JsonLogic rule applied after the snapshot filter
	AbortAfter   int             `json:"abortAfter,omitempty"` // fail when more rows than this are written; 0 for no limit
	S3           *s3.AwsS3Bucket `json:"s3,omitempty"`
}

// LoadResult summarises a completed load.
type LoadResult struct {
	RunID        string   `json:"runId"`
	Table        string   `json:"table"`
	SnapshotDate string   `json:"snapshotDate"`
	SourcePath   string   `json:"sourcePath"`
	OutputPath   string   `json:"outputPath"`
	Format       string   `json:"format"`
	RowsRead     int64    `json:"rowsRead"`
	RowsWritten  int64    `json:"rowsWritten"`
	Filtered     bool     `json:"filtered"`
	Files        []string `json:"files"`
	Message      string   `json:"message,omitempty"`
}

// Loader runs loads with shared settings.
type Loader struct {
	Log                       logger.Logger
	Output                    io.Writer // receives the table preview and messages; nil to discard them
	History                   *transform.SafeMapRunInfo
	Metrics                   *Metrics
	StatsDumpFrequencySeconds int
	s3Client                  s3.BasicClient // optional client used in place of one built from LoadConfig.S3
}

// LoadBronzeTable loads the snapshot of the source CSV into a bronze table artifact, printing the
// preview to STDOUT.
func LoadBronzeTable(ctx context.Context, log logger.Logger, cfg *LoadConfig) (LoadResult, error) {
	l := &Loader{Log: log, Output: os.Stdout}
	return l.Load(ctx, cfg)
}

// Load resolves and reads the source CSV, keeps rows whose snapshot_date matches cfg.SnapshotDate
// (when the column exists) and writes them to <OutputDir>/bronze_<table>_<YYYY_MM_DD>.<csv|parquet>.
func (l *Loader) Load(ctx context.Context, cfg *LoadConfig) (result LoadResult, err error) {
	start := time.Now()
	defer func() {
		l.Metrics.observe(result, err, time.Since(start))
	}()
	if cfg == nil {
		return result, errors.New("nil pointer to load config supplied")
	}
	if err = helper.ValidateStructIsPopulated(cfg); err != nil {
		return result, err
	}
	applyLoadDefaults(cfg)
	snapshotDate, err := table.ParseRequestedDate(cfg.SnapshotDate)
	if err != nil { // if the date is bad we fail before any I/O...
		return result, err
	}
	if err = validateLoadConfig(cfg); err != nil {
		return result, err
	}
	result = LoadResult{
		RunID:        xid.New().String(),
		Table:        cfg.TableName,
		SnapshotDate: snapshotDate.Format(c.TimeFormatDate),
		Format:       cfg.Format,
	}
	// Find and read the source.
	resolver := &paths.Resolver{StartDir: cfg.ProjectDir}
	if result.SourcePath, err = resolver.ResolveSource(cfg.Source); err != nil {
		return result, err
	}
	l.Log.Info("Reading source file ", result.SourcePath)
	t, err := file.ReadCSVFile(l.Log, result.SourcePath)
	if err != nil {
		return result, err
	}
	result.RowsRead = int64(len(t.Rows))
	result.Filtered = t.Schema.Has(c.SnapshotDateFieldName)
	schema := t.Schema
	if result.Filtered { // if the snapshot filter will normalise the column to dates...
		schema = schema.WithType(c.SnapshotDateFieldName, table.TypeDate)
	} else {
		result.Message = fmt.Sprintf("%v - no %v column, loaded %v rows", cfg.TableName, c.SnapshotDateFieldName, result.RowsRead)
		l.Log.Info(result.Message)
		l.printf("%v\n", result.Message)
	}
	outputName := table.OutputName(cfg.TableName, snapshotDate)
	if cfg.Format == c.OutputFormatParquet {
		result.OutputPath = filepath.Join(cfg.OutputDir, outputName+"."+c.OutputFormatParquet)
	} else {
		result.OutputPath = filepath.Join(cfg.OutputDir, outputName+"."+c.OutputFormatCSV)
		if cfg.UseGzip {
			result.OutputPath += ".gz"
		}
	}
	if cfg.S3 != nil {
		l.Log.Info("Output files will be copied to ", cfg.S3.URL())
	}
	// Run the steps.
	steps := l.buildSteps(cfg, t, schema, snapshotDate, outputName, result.Filtered)
	s := stats.NewTransformStats(l.Log, stats.SetStatsDumpFrequency(l.StatsDumpFrequencySeconds))
	files, err := transform.Launch(ctx, l.Log, result.RunID, steps, s, l.History)
	if err != nil {
		return result, errors.Wrapf(err, "load of %v failed", cfg.TableName)
	}
	result.Files, result.RowsWritten = summariseFiles(files)
	if l.History != nil {
		l.History.SetDetail(result.RunID, result)
	}
	l.Log.Info("Wrote ", result.RowsWritten, " rows to ", result.OutputPath)
	return result, nil
}

func applyLoadDefaults(cfg *LoadConfig) {
	if cfg.Source == "" {
		cfg.Source = c.DefaultSourceFileName
	}
	if cfg.TableName == "" {
		cfg.TableName = c.DefaultTableName
	}
	cfg.Format = strings.ToLower(strings.TrimSpace(cfg.Format))
	if cfg.Format == "" {
		cfg.Format = c.OutputFormatCSV
	}
}

func validateLoadConfig(cfg *LoadConfig) error {
	if cfg.Format != c.OutputFormatCSV && cfg.Format != c.OutputFormatParquet {
		return fmt.Errorf("unsupported output format %q, use %v or %v", cfg.Format, c.OutputFormatCSV, c.OutputFormatParquet)
	}
	if cfg.UseGzip && cfg.Format != c.OutputFormatCSV {
		return errors.New("gzip is only supported for csv output")
	}
	if cfg.PreviewRows < 0 {
		return errors.New("preview rows must not be negative")
	}
	if cfg.AbortAfter < 0 {
		return errors.New("abort after must not be negative")
	}
	if cfg.S3 != nil {
		if err := helper.ValidateStructIsPopulated(cfg.S3); err != nil {
			return errors.Wrap(err, "invalid S3 bucket")
		}
	}
	return nil
}

// buildSteps returns the chain: reader -> [snapshot filter] -> [rule filter] -> [abort after] -> preview -> writer -> [s3].
func (l *Loader) buildSteps(cfg *LoadConfig, t *file.CSVTable, schema table.Schema, snapshotDate time.Time, outputName string, filtered bool) []transform.Step {
	steps := []transform.Step{{
		Name: "read " + filepath.Base(t.Path),
		Fn: func(_ chan stream.Record, env transform.StepEnv) (chan stream.Record, chan components.ControlAction) {
			return components.NewCsvFileReader(&components.CsvFileReaderConfig{
				Log: env.Log, Name: "read " + filepath.Base(t.Path), Table: t,
				StepWatcher: env.StepWatcher, WaitCounter: env.WaitCounter, PanicHandlerFn: env.PanicHandlerFn,
			})
		},
	}}
	if filtered {
		steps = append(steps, filterStep("filter snapshot date", components.FilterRowsSnapshotDate,
			components.SnapshotDateFilterMetadata(c.SnapshotDateFieldName, snapshotDate.Format(c.TimeFormatDate))))
	}
	if cfg.FilterRule != "" {
		steps = append(steps, filterStep("filter rule", components.FilterRowsJsonLogic, components.FilterMetadata(cfg.FilterRule)))
	}
	if cfg.AbortAfter > 0 {
		steps = append(steps, filterStep("abort after", components.FilterRowsAbortAfter, components.FilterMetadata(strconv.Itoa(cfg.AbortAfter))))
	}
	out := l.Output
	if out == nil {
		out = ioutil.Discard
	}
	steps = append(steps, transform.Step{
		Name: "preview",
		Fn: func(input chan stream.Record, env transform.StepEnv) (chan stream.Record, chan components.ControlAction) {
			return components.NewTablePreview(&components.TablePreviewConfig{
				Log: env.Log, Name: "preview", InputChan: input, Writer: out, TableName: cfg.TableName,
				OutputFields: schema.Names(), NumRows: cfg.PreviewRows,
				StepWatcher: env.StepWatcher, WaitCounter: env.WaitCounter, PanicHandlerFn: env.PanicHandlerFn,
			})
		},
	})
	if cfg.Format == c.OutputFormatParquet {
		steps = append(steps, transform.Step{
			Name: "write parquet",
			Fn: func(input chan stream.Record, env transform.StepEnv) (chan stream.Record, chan components.ControlAction) {
				return components.NewParquetFileWriter(&components.ParquetFileWriterConfig{
					Log: env.Log, Name: "write parquet", InputChan: input,
					OutputDir: filepath.Join(cfg.OutputDir, outputName+"."+c.OutputFormatParquet), Schema: schema,
					StepWatcher: env.StepWatcher, WaitCounter: env.WaitCounter, PanicHandlerFn: env.PanicHandlerFn,
				})
			},
		})
	} else {
		steps = append(steps, transform.Step{
			Name: "write csv",
			Fn: func(input chan stream.Record, env transform.StepEnv) (chan stream.Record, chan components.ControlAction) {
				return components.NewCsvFileWriter(&components.CsvFileWriterConfig{
					Log: env.Log, Name: "write csv", InputChan: input,
					OutputDir: cfg.OutputDir, FileNamePrefix: outputName, FileNameExtension: c.OutputFormatCSV,
					UseGzip: cfg.UseGzip, Schema: schema,
					StepWatcher: env.StepWatcher, WaitCounter: env.WaitCounter, PanicHandlerFn: env.PanicHandlerFn,
				})
			},
		})
	}
	if cfg.S3 != nil {
		bucket := *cfg.S3
		steps = append(steps, transform.Step{
			Name: "copy to s3",
			Fn: func(input chan stream.Record, env transform.StepEnv) (chan stream.Record, chan components.ControlAction) {
				return components.NewCopyFilesToS3(&components.CopyFilesToS3Config{
					Log: env.Log, Name: "copy to s3", InputChan: input, BaseDir: cfg.OutputDir,
					BucketName: bucket.Name, BucketPrefix: bucket.Prefix, Region: bucket.Region, Client: l.s3Client,
					ReplaceDirs: cfg.Format == c.OutputFormatParquet,
					StepWatcher: env.StepWatcher, WaitCounter: env.WaitCounter, PanicHandlerFn: env.PanicHandlerFn,
				})
			},
		})
	}
	return steps
}

func filterStep(name string, filterType components.FilterType, metadata components.FilterMetadata) transform.Step {
	return transform.Step{
		Name: name,
		Fn: func(input chan stream.Record, env transform.StepEnv) (chan stream.Record, chan components.ControlAction) {
			return components.NewFilterRows(&components.FilterRowsConfig{
				Log: env.Log, Name: name, InputChan: input, FilterType: filterType, FilterMetadata: metadata,
				StepWatcher: env.StepWatcher, WaitCounter: env.WaitCounter, PanicHandlerFn: env.PanicHandlerFn,
			})
		},
	}
}

// summariseFiles extracts the file names and total row count from the writer output.
func summariseFiles(recs []stream.Record) (files []string, rows int64) {
	files = make([]string, 0, len(recs))
	for _, rec := range recs {
		if fileName, ok := rec.GetDataMap()[components.Defaults.ChanField4FileName].(string); ok && fileName != "" {
			files = append(files, fileName)
		}
		if n, ok := rec.GetDataMap()[components.Defaults.ChanField4RowCount].(int64); ok {
			rows += n
		}
	}
	return
}

func (l *Loader) printf(format string, a ...interface{}) {
	if l.Output != nil {
		if _, err := fmt.Fprintf(l.Output, format, a...); err != nil {
			l.Log.Warn("unable to write output: ", err)
		}
	}
}
