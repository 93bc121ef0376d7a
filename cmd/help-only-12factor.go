package cmd

import (
	"fmt"

	"github.com/relloyd/bronze/constants"
	"github.com/spf13/cobra"
)

var twelveFactorCmd = &cobra.Command{
	Use:   "12f",
	Short: `View help notes for running in Twelve-Factor mode`,
	Long: fmt.Sprintf(`
Bronze can be controlled by environment variables and is a good fit to run 
in containers and serverless environments.

To enable Twelve-Factor mode, set environment variable %[1]s_12FACTOR_MODE=1
(or %[1]s_12FACTOR_MODE=lambda to run as an AWS Lambda function).
To supply flags documented by the regular command-line usage, set an 
equivalent environment variable using the following convention: 

%[1]s_<flag long-name in upper case with dashes replaced by underscores>

For example, this will load the 31st January 2023 snapshot of lms_loan_daily.csv
into a Parquet bronze table and copy it to S3:

export %[1]s_12FACTOR_MODE=1
export %[1]s_LOG_LEVEL=info
export %[1]s_COMMAND=load
export %[1]s_SNAPSHOT_DATE=2023-01-31
export %[1]s_OUTPUT_DIR=/data/bronze
export %[1]s_FORMAT=parquet
export %[1]s_S3_BUCKET=my-bucket
export %[1]s_S3_PREFIX=bronze
export %[1]s_S3_REGION=eu-west-2
export %[2]s=/data/MLE_Assignment

Then execute the CLI tool without any arguments or flags to kick off the load.

`, constants.EnvVarPrefix, constants.EnvVarAssignmentDir),
}

func init() {
	rootCmd.AddCommand(twelveFactorCmd)
}
