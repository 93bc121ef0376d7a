package file

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/relloyd/bronze/constants"
	"github.com/relloyd/bronze/logger"
	"github.com/relloyd/bronze/table"
	"github.com/rs/xid"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

const parquetWriterParallelism = 4

const secondsPerDay = 24 * 60 * 60

// ParquetDirOutput writes rows to a single snappy-compressed part file inside a directory,
// followed by an empty _SUCCESS marker on Close.
type ParquetDirOutput struct {
	log       logger.Logger
	directory string
	schema    table.Schema
	partName  string
	fw        io.Closer
	pw        *writer.CSVWriter
	rowCount  int
	closed    bool
}

// ParquetMetadata converts the schema to parquet-go CSV writer metadata. Every column is OPTIONAL.
func ParquetMetadata(schema table.Schema) ([]string, error) {
	md := make([]string, len(schema))
	for idx, col := range schema {
		var t string
		switch col.Type {
		case table.TypeInteger:
			t = "type=INT64"
		case table.TypeDouble:
			t = "type=DOUBLE"
		case table.TypeBoolean:
			t = "type=BOOLEAN"
		case table.TypeDate:
			t = "type=INT32, convertedtype=DATE"
		case table.TypeTimestamp:
			t = "type=INT64, convertedtype=TIMESTAMP_MILLIS"
		case table.TypeString:
			t = "type=BYTE_ARRAY, convertedtype=UTF8"
		default:
			return nil, fmt.Errorf("unsupported column type %q for column %v", col.Type, col.Name)
		}
		md[idx] = fmt.Sprintf("name=%v, %v, repetitiontype=OPTIONAL", col.Name, t)
	}
	return md, nil
}

// NewParquetDirOutput replaces any existing directory with a new one and opens a part file for writing.
func NewParquetDirOutput(log logger.Logger, directory string, schema table.Schema) (*ParquetDirOutput, error) {
	md, err := ParquetMetadata(schema)
	if err != nil {
		return nil, err
	}
	if err := os.RemoveAll(directory); err != nil {
		return nil, errors.Wrapf(err, "unable to remove existing output directory %v", directory)
	}
	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, errors.Wrapf(err, "unable to create output directory %v", directory)
	}
	p := &ParquetDirOutput{
		log:       log,
		directory: directory,
		schema:    schema,
		partName:  fmt.Sprintf("part-00000-%v.snappy.parquet", xid.New().String()),
	}
	fw, err := local.NewLocalFileWriter(p.PartPath())
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create parquet file %v", p.PartPath())
	}
	p.fw = fw
	p.pw, err = writer.NewCSVWriter(md, fw, parquetWriterParallelism)
	if err != nil {
		_ = fw.Close()
		return nil, errors.Wrap(err, "unable to create parquet writer")
	}
	p.pw.CompressionType = parquet.CompressionCodec_SNAPPY
	log.Info("Creating new parquet file '", p.PartPath(), "'")
	return p, nil
}

// PartPath returns the full path of the part file.
func (p *ParquetDirOutput) PartPath() string {
	return filepath.Join(p.directory, p.partName)
}

// SuccessPath returns the full path of the _SUCCESS marker.
func (p *ParquetDirOutput) SuccessPath() string {
	return filepath.Join(p.directory, constants.ParquetSuccessFileName)
}

// Write adds one row. Values must be in schema order.
func (p *ParquetDirOutput) Write(values []interface{}) error {
	if len(values) != len(p.schema) {
		return fmt.Errorf("expected %v values but got %v", len(p.schema), len(values))
	}
	row := make([]interface{}, len(values))
	for idx, v := range values {
		pv, err := toParquetValue(p.schema[idx].Type, v)
		if err != nil {
			return errors.Wrapf(err, "column %v", p.schema[idx].Name)
		}
		row[idx] = pv
	}
	if err := p.pw.Write(row); err != nil {
		return errors.Wrap(err, "unable to write parquet row")
	}
	p.rowCount++
	return nil
}

// RowCount returns the number of rows written so far.
func (p *ParquetDirOutput) RowCount() int {
	return p.rowCount
}

// Close finalises the part file and writes the _SUCCESS marker.
// It returns the files that were produced.
func (p *ParquetDirOutput) Close() ([]string, error) {
	if p.closed {
		return nil, errors.New("parquet output is already closed")
	}
	p.closed = true
	if err := p.pw.WriteStop(); err != nil {
		_ = p.fw.Close()
		return nil, errors.Wrap(err, "error finalising parquet file")
	}
	if err := p.fw.Close(); err != nil {
		return nil, errors.Wrap(err, "error closing parquet file")
	}
	if err := ioutil.WriteFile(p.SuccessPath(), []byte{}, 0644); err != nil {
		return nil, errors.Wrap(err, "unable to write success marker")
	}
	p.log.Debug("wrote ", p.rowCount, " rows to ", p.PartPath())
	return []string{p.PartPath(), p.SuccessPath()}, nil
}

// Abort closes the part file without finalising it or writing the _SUCCESS marker.
func (p *ParquetDirOutput) Abort() {
	if p.closed {
		return
	}
	p.closed = true
	if err := p.fw.Close(); err != nil {
		p.log.Warn("error closing aborted parquet file ", p.PartPath(), ": ", err)
	}
}

func toParquetValue(t table.Type, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch t {
	case table.TypeInteger:
		if i, ok := v.(int64); ok {
			return i, nil
		}
	case table.TypeDouble:
		if f, ok := v.(float64); ok {
			return f, nil
		}
	case table.TypeBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case table.TypeDate:
		if d, ok := v.(time.Time); ok {
			return DaysSinceEpoch(d), nil
		}
	case table.TypeTimestamp:
		if ts, ok := v.(time.Time); ok {
			return ts.UnixMilli(), nil
		}
	case table.TypeString:
		return table.FormatValue(v), nil
	}
	return nil, fmt.Errorf("value %v of type %T does not match column type %v", v, v, t)
}

// DaysSinceEpoch converts the calendar date of d into the parquet DATE representation.
// Days are floored so dates before 1970 are negative.
func DaysSinceEpoch(d time.Time) int32 {
	secs := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC).Unix()
	days := secs / secondsPerDay
	if secs%secondsPerDay < 0 {
		days--
	}
	return int32(days)
}
