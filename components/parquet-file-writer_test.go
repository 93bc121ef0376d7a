package components

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/relloyd/bronze/stream"
)

func TestNewParquetFileWriter(t *testing.T) {
	log := newTestLogger()
	dir, _ := ioutil.TempDir("", "bronze-parquet-writer-")
	defer os.RemoveAll(dir)
	outDir := filepath.Join(dir, "bronze_loan_daily_2023_01_01.parquet")
	cfg := &ParquetFileWriterConfig{
		Log:       log,
		Name:      "test parquet writer",
		InputChan: feed(writerRecords(3)...),
		OutputDir: outDir,
		Schema:    writerSchema,
	}
	outputChan, _ := NewParquetFileWriter(cfg)
	results := collect(t, outputChan, 10)
	if len(results) != 2 {
		t.Fatalf("expected part file and _SUCCESS records; got %v", len(results))
	}
	part := results[0].GetData(Defaults.ChanField4FileName).(string)
	if !strings.HasSuffix(part, ".snappy.parquet") || results[0].GetData(Defaults.ChanField4RowCount) != int64(3) {
		t.Fatalf("unexpected part record %v", results[0].GetDataMap())
	}
	if results[1].GetData(Defaults.ChanField4FileName) != filepath.Join(outDir, "_SUCCESS") {
		t.Fatalf("unexpected marker record %v", results[1].GetDataMap())
	}
}

func TestNewParquetFileWriter_ShutdownLeavesNoMarker(t *testing.T) {
	log := newTestLogger()
	dir, _ := ioutil.TempDir("", "bronze-parquet-writer-")
	defer os.RemoveAll(dir)
	inputChan := make(chan stream.Record, 1)
	cfg := &ParquetFileWriterConfig{Log: log, Name: "test parquet shutdown", InputChan: inputChan, OutputDir: dir, Schema: writerSchema}
	_, controlChan := NewParquetFileWriter(cfg)
	shutdownAndWait(t, controlChan, 5)
	if _, err := os.Stat(filepath.Join(dir, "_SUCCESS")); !os.IsNotExist(err) {
		t.Fatalf("expected no _SUCCESS marker after shutdown; got %v", err)
	}
}
