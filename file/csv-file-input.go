package file

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/relloyd/bronze/logger"
	"github.com/relloyd/bronze/table"
)

const utf8BOM = "\ufeff"

// CSVTable is a CSV file read into memory with typed values.
type CSVTable struct {
	Path   string
	Schema table.Schema
	Rows   [][]interface{} // values in schema order; empty cells are nil.
}

// ReadCSVFile reads the whole CSV file at path, using the first line as the header, and types each column
// using table.InferSchema. Short rows are padded with nil values.
// Column names are trimmed; string values keep their spaces.
func ReadCSVFile(log logger.Logger, path string) (*CSVTable, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open CSV file %v", path)
	}
	defer fh.Close()
	header, raw, err := readCSV(fh)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read CSV file %v", path)
	}
	schema := table.InferSchema(header, raw)
	log.Debug("inferred schema for ", path, ": ", schema)
	rows := make([][]interface{}, len(raw))
	for rowIdx, rec := range raw {
		row := make([]interface{}, len(schema))
		for colIdx, col := range schema {
			if colIdx >= len(rec) {
				continue
			}
			v, err := table.ParseValue(col.Type, rec[colIdx])
			if err != nil { // inference guarantees every cell parses.
				return nil, errors.Wrapf(err, "row %v column %v", rowIdx+2, col.Name)
			}
			row[colIdx] = v
		}
		rows[rowIdx] = row
	}
	log.Info("read ", len(rows), " rows from ", path)
	return &CSVTable{Path: path, Schema: schema, Rows: rows}, nil
}

func readCSV(r io.Reader) (header []string, rows [][]string, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err = cr.Read()
	if err == io.EOF {
		return nil, nil, errors.New("missing header row")
	}
	if err != nil {
		return nil, nil, err
	}
	for idx := range header {
		header[idx] = strings.TrimSpace(header[idx])
	}
	header[0] = strings.TrimPrefix(header[0], utf8BOM)
	seen := make(map[string]bool, len(header))
	for _, h := range header {
		if h == "" {
			return nil, nil, errors.New("empty column name in header row")
		}
		if seen[h] {
			return nil, nil, errors.Errorf("duplicate column name %q in header row", h)
		}
		seen[h] = true
	}
	rows = make([][]string, 0)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if len(rec) > len(header) {
			return nil, nil, errors.Errorf("line %v has %v fields but the header has %v", len(rows)+2, len(rec), len(header))
		}
		rows = append(rows, rec)
	}
	return header, rows, nil
}
