package file

import (
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"regexp"

	"github.com/relloyd/bronze/logger"
)

// CSVFileOutput is a Writer that outputs a single CSV file named <prefix>.<extension> to an OS file.
type CSVFileOutput struct {
	csvWriter         *csv.Writer
	log               logger.Logger
	directory         string
	prefix            string
	extension         string
	headerRecord      []string
	currentName       string
	file              *os.File
	gzWriter          *gzip.Writer
	fWriter           *bufio.Writer
	useGzip           bool
	totalRowCount     int
	needFileCleanup   bool
	needCSVCleanup    bool
	ListOfOutputFiles []string
}

// NewCSVFileOutput creates a new CSV file struct. Supply a directory or empty string to use a new temp directory.
// The directory is created if it does not exist and any existing file of the same name is truncated.
// Setting useGzip will make the extension end with '.gz'.
func NewCSVFileOutput(log logger.Logger, outputDirectory string, fileNamePrefix string, fileNameExtension string, useGzip bool) *CSVFileOutput {
	f := &CSVFileOutput{log: log}
	if outputDirectory == "" {
		var err error
		f.directory, err = ioutil.TempDir("", "bronze-csv-")
		if err != nil {
			log.Panic("error creating temp directory for CSV files: ", err)
		}
	} else {
		f.directory = outputDirectory
	}
	f.prefix = fileNamePrefix
	f.extension = fileNameExtension
	f.useGzip = useGzip
	if useGzip {
		r := regexp.MustCompile(`^(.*?)(\.*)(?i)(gzip|gz){0,}$`) // remove trailing '.' and (case insensitive) "gz|gzip"
		f.extension = r.ReplaceAllString(f.extension, "$1.gz")
	}
	log.Debug("CSVFileOutput file prefix=", f.prefix, "; extension=", f.extension, "; useGzip=", f.useGzip)
	return f
}

// Write uses os.File.Write to write to the file so this struct still implements the core io.Writer interface.
func (f *CSVFileOutput) Write(p []byte) (n int, err error) {
	if f.useGzip {
		return f.fWriter.Write(p)
	}
	return f.file.Write(p)
}

// SetHeader will store the supplied record for output as the first line of the CSV file.
func (f *CSVFileOutput) SetHeader(record []string) {
	f.headerRecord = record
}

// MustWriteToCSV writes record to the CSV file.
// Return fileName if the file is created by this call else empty string "".
func (f *CSVFileOutput) MustWriteToCSV(record []string) (fileName string) {
	fileName = f.MustEnsureFile()
	if err := f.csvWriter.Write(record); err != nil {
		f.log.Panic("unable to write to CSV file ", f.currentName, ": ", err)
	}
	f.totalRowCount++
	return
}

// MustEnsureFile creates the output file with its header when nothing has been written yet,
// so an empty input still produces a file.
// Return the file name if a file is created else empty string "".
func (f *CSVFileOutput) MustEnsureFile() (fileName string) {
	if f.currentName == "" {
		f.createNewCSVWriter()
		if f.headerRecord != nil {
			if err := f.csvWriter.Write(f.headerRecord); err != nil {
				f.log.Panic("unable to write header to CSV file ", f.currentName, ": ", err)
			}
		}
		fileName = f.currentName
	}
	return
}

// TotalRows returns the number of data rows written.
func (f *CSVFileOutput) TotalRows() int {
	return f.totalRowCount
}

// Cleanup can be deferred by the caller to flush the CSV Writer and close the OS file.
func (f *CSVFileOutput) Cleanup() {
	if f.needCSVCleanup {
		f.fileFlush()
		f.needCSVCleanup = false
	}
	if f.needFileCleanup {
		f.fileCleanup()
		f.needFileCleanup = false
	}
}

func (f *CSVFileOutput) fileFlush() {
	f.csvWriter.Flush()
	if err := f.csvWriter.Error(); err != nil {
		f.log.Panic("unable to flush CSV file ", f.currentName, ": ", err)
	}
	if f.useGzip {
		if err := f.fWriter.Flush(); err != nil {
			f.log.Panic(err)
		}
		if err := f.gzWriter.Flush(); err != nil {
			f.log.Panic(err)
		}
	}
}

func (f *CSVFileOutput) fileCleanup() {
	if f.useGzip {
		if err := f.gzWriter.Close(); err != nil {
			f.log.Panic(err)
		}
	}
	if err := f.file.Close(); err != nil {
		f.log.Panic("unable to close OS file: ", f.currentName, "; ", err)
	}
}

func (f *CSVFileOutput) createNewCSVWriter() {
	f.currentName = filepath.Join(f.directory, fmt.Sprintf("%v.%v", f.prefix, f.extension))
	f.ListOfOutputFiles = append(f.ListOfOutputFiles, f.currentName)
	if err := os.MkdirAll(f.directory, 0755); err != nil {
		f.log.Panic("unable to create output directory ", f.directory, ": ", err)
	}
	f.log.Info("Creating new CSV file '", f.currentName, "'")
	var err error
	f.file, err = os.Create(f.currentName) // truncates any existing file.
	if err != nil {
		f.log.Panic("unable to create OS file with name: ", f.currentName, ": ", err)
	}
	if f.useGzip {
		f.gzWriter = gzip.NewWriter(f.file)
		f.fWriter = bufio.NewWriter(f.gzWriter) // now we must Write() to this instead of the os file.
	}
	f.needFileCleanup = true
	f.csvWriter = csv.NewWriter(f)
	f.needCSVCleanup = true
}
