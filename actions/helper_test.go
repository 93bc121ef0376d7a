package actions

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/relloyd/bronze/aws/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefinitionRoundTrip(t *testing.T) {
	dir, err := ioutil.TempDir("", "bronze-def-")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	cfg := &LoadConfig{
		SnapshotDate: "2023-01-31",
		OutputDir:    "/tmp/bronze",
		TableName:    "loan_daily",
		Format:       "parquet",
		PreviewRows:  10,
		S3:           &s3.AwsS3Bucket{Name: "lake", Prefix: "bronze", Region: "eu-west-2"},
	}
	for _, format := range []string{"yaml", "json"} {
		buf := &bytes.Buffer{}
		require.NoError(t, OutputLoadDefinition(cfg, format, buf))
		fileName := filepath.Join(dir, "def."+format)
		require.NoError(t, ioutil.WriteFile(fileName, buf.Bytes(), 0644))
		got, err := LoadDefinitionFromFile(fileName)
		require.NoError(t, err, format)
		assert.Equal(t, cfg, got, format)
	}
}

func TestOutputLoadDefinition_YamlKeys(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, OutputLoadDefinition(&LoadConfig{SnapshotDate: "2023-01-31", OutputDir: "out"}, "YAML", buf))
	assert.True(t, strings.HasPrefix(buf.String(), "outputDir: out\nsnapshotDate: "))
	assert.NotContains(t, buf.String(), "gzip")
}

func TestLoadDefinitionErrors(t *testing.T) {
	err := OutputLoadDefinition(&LoadConfig{}, "xml", &bytes.Buffer{})
	assert.Error(t, err)
	dir, err := ioutil.TempDir("", "bronze-def-")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	fileName := filepath.Join(dir, "def.txt")
	require.NoError(t, ioutil.WriteFile(fileName, []byte("{}"), 0644))
	_, err = LoadDefinitionFromFile(fileName)
	assert.Error(t, err)
	_, err = LoadDefinitionFromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, ioutil.WriteFile(bad, []byte("{"), 0644))
	_, err = LoadDefinitionFromFile(bad)
	assert.Error(t, err)
}
