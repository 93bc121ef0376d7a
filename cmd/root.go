package cmd

import (
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"
)

var (
	// Default values may be set at compile time.
	version          = "0.1.0"
	buildDate        = "2023-01-31T00:00+0000"
	stackDumpOnPanic bool
)

var rootCmd = &cobra.Command{
	Use: "bronze",
	Long: `
 ____                              
| __ ) _ __ ___  _ __  _______ 
|  _ \| '__/ _ \| '_ \|_  / _ \
| |_) | | | (_) | | | |/ /  __/
|____/|_|  \___/|_| |_/___\___|

Bronze loads a single day's snapshot of a CSV file into the bronze layer of a data lake.
Rows are filtered by their snapshot_date and written to a dated CSV file or Parquet directory,
optionally copied to S3. Start an HTTP server to run loads via a RESTful API.`,
}

func init() {
	// General setup.
	cobra.EnableCommandSorting = false
	// Global flags.
	rootCmd.PersistentFlags().BoolVar(&stackDumpOnPanic, "print-stack", false, "Print a stack dump if there is a panic")
	_ = rootCmd.PersistentFlags().MarkHidden("print-stack")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if twelveFactorMode { // if we are running based on environment variables...
		if lambdaMode { // if we should handle lambda execution...
			lambda.Start(func() error { return execute12FactorMode(twelveFactorActions) })
		} else {
			if err := execute12FactorMode(twelveFactorActions); err != nil {
				// execute12FactorMode prints the error.
				os.Exit(1)
			}
		}
	} else { // else we're using CLI args and flags via Cobra...
		if err := rootCmd.Execute(); err != nil {
			// Execute() prints the error.
			os.Exit(1)
		}
	}
}
