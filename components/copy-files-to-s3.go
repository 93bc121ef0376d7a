package components

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/relloyd/bronze/aws/s3"
	c "github.com/relloyd/bronze/constants"
	"github.com/relloyd/bronze/logger"
	"github.com/relloyd/bronze/stats"
	"github.com/relloyd/bronze/stream"
)

type CopyFilesToS3Config struct {
	Log               logger.Logger
	Name              string
	InputChan         chan stream.Record // the input channel of rows containing files (with full paths) to copy to S3.
	FileNameChanField string             // name of the field in InputChan that contains the files to copy.
	BaseDir           string             // object keys are file paths relative to this directory; empty to use the file base name.
	BucketName        string             // target bucket
	BucketPrefix      string
	Region            string
	Client            s3.BasicClient // optional client; one is created from the bucket details when nil.
	ReplaceDirs       bool           // delete existing keys below each directory of BaseDir before its first file is copied.
	StepWatcher       *stats.StepWatcher
	WaitCounter       ComponentWaiter
	PanicHandlerFn    PanicHandlerFunc
}

// NewCopyFilesToS3 copies OS files to S3 under s3://<bucket>/<prefix>/<path relative to BaseDir>.
// This passes InputChan rows to outputChan.
func NewCopyFilesToS3(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*CopyFilesToS3Config)
	if cfg.InputChan == nil {
		cfg.Log.Panic(cfg.Name, " error - missing input channel.")
	}
	if cfg.FileNameChanField == "" {
		cfg.FileNameChanField = Defaults.ChanField4FileName
	}
	cfg.BucketName = strings.TrimPrefix(cfg.BucketName, "s3://")
	if cfg.Client == nil {
		if cfg.BucketName == "" {
			cfg.Log.Panic(cfg.Name, " error - missing target bucket name.")
		}
		if cfg.Region == "" {
			cfg.Log.Panic(cfg.Name, " error - missing AWS region.")
		}
		client, err := s3.NewBasicClient(cfg.BucketName, cfg.Region, cfg.BucketPrefix)
		if err != nil {
			cfg.Log.Panic(cfg.Name, " error - unable to create S3 client: ", err)
		}
		cfg.Client = client
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
		replaced := make(map[string]bool)
		if cfg.StepWatcher != nil {
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		for {
			select {
			case rec, ok := <-cfg.InputChan: // for each row of input...
				if !ok {
					cfg.InputChan = nil
				} else {
					atomic.AddInt64(&rowCount, 1)
					fileFullPathName := rec.GetDataAsStringPreserveTimeZone(cfg.Log, cfg.FileNameChanField)
					if fileFullPathName != "" {
						key := objectKey(cfg.BaseDir, fileFullPathName)
						if dir := keyDir(key); cfg.ReplaceDirs && dir != "" && !replaced[dir] {
							removeKeys(cfg, dir)
							replaced[dir] = true
						}
						cfg.Log.Info(cfg.Name, " copying file '", fileFullPathName, "' to S3 bucket '", cfg.BucketName, "' key '", key, "'")
						copyFileToS3(cfg, fileFullPathName, key)
					} else {
						cfg.Log.Debug(cfg.Name, " no file found in input channel - skipping.")
					}
					if recSentOK := safeSend(rec, outputChan, controlChan, sendNilControlResponse); !recSentOK {
						cfg.Log.Info(cfg.Name, " shutdown")
						return
					}
				}
			case controlAction := <-controlChan: // if we received a shutdown request...
				controlAction.ResponseChan <- nil
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			}
			if cfg.InputChan == nil { // if all input rows were consumed...
				break
			}
		}
		close(outputChan)
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return
}

func copyFileToS3(cfg *CopyFilesToS3Config, fileName string, key string) {
	fh, err := os.Open(fileName) // File implements io.ReadSeeker
	if err != nil {
		cfg.Log.Panic(cfg.Name, " error - unable to open file ", fileName, ": ", err)
	}
	defer fh.Close()
	if err = cfg.Client.BufferPut(key, fh); err != nil {
		cfg.Log.Panic(cfg.Name, " error - unable to copy file ", fileName, " to S3: ", err)
	}
}

// removeKeys deletes every object below dir so a directory artifact is replaced rather than merged.
func removeKeys(cfg *CopyFilesToS3Config, dir string) {
	keys, err := cfg.Client.List(dir)
	if err != nil {
		cfg.Log.Panic(cfg.Name, " error - unable to list S3 keys under ", dir, ": ", err)
	}
	for _, k := range keys {
		cfg.Log.Debug(cfg.Name, " removing stale S3 key '", k, "'")
		if err := cfg.Client.Delete(k); err != nil {
			cfg.Log.Panic(cfg.Name, " error - unable to delete S3 key ", k, ": ", err)
		}
	}
}

// keyDir returns the top-level directory of key with a trailing slash, or "" for a key without one.
func keyDir(key string) string {
	if idx := strings.Index(key, "/"); idx > 0 {
		return key[:idx+1]
	}
	return ""
}

// objectKey returns the slash separated path of fileName relative to baseDir.
// The file base name is used when baseDir is empty or fileName lies outside it.
func objectKey(baseDir string, fileName string) string {
	if baseDir != "" {
		if rel, err := filepath.Rel(baseDir, fileName); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.Base(fileName)
}
