package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/relloyd/bronze/aws/s3"
	"github.com/relloyd/bronze/config"
	"github.com/spf13/cobra"
)

func TestGetCliFlag(t *testing.T) {
	defer func() { twelveFactorMode = false }()
	fnGetConfig := func(key string, out interface{}) error {
		return nil
	}
	flagName := "mock"
	mockEnvVar := flagNameToEnvVar(flagName)
	if mockEnvVar != "BRONZE_MOCK" {
		t.Fatalf("expected env var BRONZE_MOCK; got %v", mockEnvVar)
	}
	expected := "envTest"
	d := "myDefault"
	// Test 1 - test default value applied to mock CLI flag.
	got := switches.getCliFlag(flagName, d, fnGetConfig)
	if got.val != d { // if no default was applied...
		t.Fatalf("test 1 failed: expected default value %v to be applied to mock CLI flag; got %v", d, got.val)
	}
	// Test 2 - fetch flag value from environment when it is not set - expect default value to be applied.
	twelveFactorMode = true // enable twelveFactorMode so that env variables are read.
	got = switches.getCliFlag(flagName, d, fnGetConfig)
	if got.val != d {
		t.Fatalf("test 2 failed: expected default value (%v) to be applied to mock CLI flag fetched via environment variable (%v)", got.val, mockEnvVar)
	}
	// Test 3 - fetch flag value from environment after setting it explicitly (requires twelveFactorMode).
	t.Setenv(mockEnvVar, expected)
	got = switches.getCliFlag(flagName, d, fnGetConfig)
	if got.val != expected {
		t.Fatalf("test 3 failed: expected value (%v) to be applied to mock CLI flag (%v) fetched from environment variable (%v); got: %v", expected, flagName, mockEnvVar, got.val)
	}
}

func TestGetCliFlag_ConfigDefaults(t *testing.T) {
	twelveFactorMode = false
	fnGetConfig := func(key string, out interface{}) error {
		if key == "table" {
			*out.(*string) = "loans"
			return nil
		}
		return config.KeyNotFoundError{}
	}
	if got := switches.getCliFlag("table", "loan_daily", fnGetConfig); got.val != "loans" {
		t.Fatalf("expected the config value to be used; got %v", got.val)
	}
	if got := switches.getCliFlag("format", "csv", fnGetConfig); got.val != "csv" {
		t.Fatalf("expected the default value to be used; got %v", got.val)
	}
}

func TestAddFlag(t *testing.T) {
	defer func() { twelveFactorMode = false }()
	// Flags from the environment populate the target in twelveFactorMode.
	twelveFactorMode = true
	t.Setenv(flagNameToEnvVar("preview-rows"), "12")
	t.Setenv(flagNameToEnvVar("gzip"), "true")
	t.Setenv(flagNameToEnvVar("snapshot-date"), "2023-01-31")
	var rows int
	var gzip bool
	var date string
	c := &cobra.Command{Use: "test"}
	switches.addFlag(c, &rows, "preview-rows", "5", false, "")
	switches.addFlag(c, &gzip, "gzip", "", false, "")
	switches.addFlag(c, &date, "snapshot-date", "", false, "")
	if rows != 12 || !gzip || date != "2023-01-31" {
		t.Fatalf("unexpected values from the environment: rows=%v gzip=%v date=%v", rows, gzip, date)
	}
	if c.Flags().Lookup("preview-rows") != nil {
		t.Fatal("expected no cobra flags to be registered in twelveFactorMode")
	}
}

func TestAddFlag_Cobra(t *testing.T) {
	twelveFactorMode = false
	var rows int
	c := &cobra.Command{Use: "test"}
	switches.addFlag(c, &rows, "preview-rows", "5", false, "")
	f := c.Flags().Lookup("preview-rows")
	if f == nil {
		t.Fatal("expected flag preview-rows to be registered")
	}
	if f.Shorthand != "n" || f.DefValue != "5" {
		t.Fatalf("unexpected flag registration: shorthand=%v default=%v", f.Shorthand, f.DefValue)
	}
	if err := c.Flags().Set("preview-rows", "7"); err != nil {
		t.Fatal(err)
	}
	if rows != 7 {
		t.Fatalf("expected 7 rows; got %v", rows)
	}
}

func TestGetLoadConfig(t *testing.T) {
	defer func() {
		loadDefinitionFile = ""
		loadS3Bucket.Name = ""
	}()
	loadCfg.SnapshotDate = "2023-01-31"
	loadS3Bucket.Name = "lake"
	loadS3Bucket.Region = "eu-west-2"
	cfg, err := getLoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.S3 == nil || cfg.S3.Name != "lake" || cfg.SnapshotDate != "2023-01-31" {
		t.Fatalf("unexpected load config from flags: %+v", cfg)
	}
	// Definition files take priority.
	dir := t.TempDir()
	loadDefinitionFile = filepath.Join(dir, "def.yaml")
	if err := os.WriteFile(loadDefinitionFile, []byte("snapshotDate: \"2020-02-02\"\noutputDir: out\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = getLoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SnapshotDate != "2020-02-02" || cfg.OutputDir != "out" || cfg.S3 != nil {
		t.Fatalf("unexpected load config from file: %+v", cfg)
	}
	loadDefinitionFile = filepath.Join(dir, "missing.yaml")
	if _, err = getLoadConfig(); err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected a not exist error; got %v", err)
	}
}

func TestGetLoadConfig_BucketURL(t *testing.T) {
	defer func() {
		loadS3Bucket = s3.AwsS3Bucket{}
	}()
	loadS3Bucket = s3.AwsS3Bucket{Name: "s3://lake/bronze/loans", Region: "eu-west-2"}
	cfg, err := getLoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.S3.Name != "lake" || cfg.S3.Prefix != "bronze/loans" || cfg.S3.Region != "eu-west-2" {
		t.Fatalf("unexpected bucket parsed from URL: %+v", cfg.S3)
	}
	loadS3Bucket.Prefix = "other"
	if cfg, err = getLoadConfig(); err != nil || cfg.S3.Prefix != "other" {
		t.Fatalf("expected the prefix flag to win; got %+v, %v", cfg.S3, err)
	}
	loadS3Bucket = s3.AwsS3Bucket{Name: "s3://lake"}
	if _, err = getLoadConfig(); err == nil {
		t.Fatal("expected an error for a bucket URL without a region")
	}
}
