package constants

// Component

const (
	ChanSize                     = 20000
	StatsCaptureFrequencySeconds = 5
	TimeFormatYearSecondsTZ      = "20060102T150405-0700"
	TimeFormatDate               = "2006-01-02" // ISO date; the only accepted format for a requested snapshot date.
	TimeFormatTimestamp          = "2006-01-02 15:04:05"
	SnapshotDateFieldName        = "snapshot_date"
	BronzeFilePrefix             = "bronze"
	DefaultTableName             = "loan_daily"
	DefaultSourceFileName        = "lms_loan_daily.csv"
	DefaultDataSubPath           = "data"
	DefaultPreviewRows           = 5
	OutputFormatCSV              = "csv"
	OutputFormatParquet          = "parquet"
	ParquetSuccessFileName       = "_SUCCESS"
	EnvVarPrefix                 = "BRONZE" // prefixed for environment variables in twelveFactorMode
	EnvVarAssignmentDir          = "MLE_ASSIGNMENT_DIR"
	ActionFuncsCommandLoad       = "load"
	ConnectionTypeS3             = "s3"
)

// ProjectRootMarkers are the directory names that identify the project root when resolving source files.
var ProjectRootMarkers = []string{"Assignment", "MLE_Assignment"}
