package cmd

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/relloyd/bronze/actions"
	"github.com/relloyd/bronze/aws/s3"
	c "github.com/relloyd/bronze/constants"
	"github.com/relloyd/bronze/logger"
	"github.com/relloyd/bronze/transform"
	"github.com/spf13/cobra"
)

var loadCmd = &cobra.Command{
	Use:   c.ActionFuncsCommandLoad,
	Short: "Load a snapshot of a CSV file into a bronze table",
	Long: `Load a snapshot of a CSV file into a bronze table.

The source file is found in the data directory of the project root, which is the first
directory named Assignment or MLE_Assignment found at or above the search directory.
Rows whose snapshot_date matches the snapshot date are written to
<output-dir>/bronze_<table>_<YYYY_MM_DD>.csv (or a .parquet directory) and a preview
of the first rows is printed.`,
	Example: `  bronze load -d 2023-01-31 -O datamart/bronze
  bronze load -d 2023-01-31 -O datamart/bronze -F parquet -b my-bucket -P bronze -R eu-west-2
  bronze load -d 2023-01-31 -O datamart/bronze -o yaml > loan_daily.yaml
  bronze load -f loan_daily.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoad()
	},
}

var (
	loadCfg            = actions.LoadConfig{}
	loadS3Bucket       = s3.AwsS3Bucket{}
	loadLogLevel       string
	loadStatsFrequency int
	loadOutputFormat   string
	loadDefinitionFile string
)

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().SortFlags = false
	switches.addFlag(loadCmd, &loadCfg.SnapshotDate, "snapshot-date", "", false, "")
	switches.addFlag(loadCmd, &loadCfg.OutputDir, "output-dir", "", false, "")
	switches.addFlag(loadCmd, &loadCfg.Source, "source", c.DefaultSourceFileName, false, "")
	switches.addFlag(loadCmd, &loadCfg.ProjectDir, "project-dir", "", false, " (default: the working directory)")
	switches.addFlag(loadCmd, &loadCfg.TableName, "table", c.DefaultTableName, false, "")
	switches.addFlag(loadCmd, &loadCfg.Format, "format", c.OutputFormatCSV, false, "")
	switches.addFlag(loadCmd, &loadCfg.UseGzip, "gzip", "", false, "")
	switches.addFlag(loadCmd, &loadCfg.PreviewRows, "preview-rows", strconv.Itoa(c.DefaultPreviewRows), false, "")
	switches.addFlag(loadCmd, &loadCfg.FilterRule, "filter-rule", "", false, "")
	switches.addFlag(loadCmd, &loadCfg.AbortAfter, "abort-after", "0", false, "")
	switches.addFlag(loadCmd, &loadS3Bucket.Name, "s3-bucket", "", false, "")
	switches.addFlag(loadCmd, &loadS3Bucket.Prefix, "s3-prefix", "", false, "")
	switches.addFlag(loadCmd, &loadS3Bucket.Region, "s3-region", "", false, "")
	switches.addFlag(loadCmd, &loadOutputFormat, "output", "", false, "")
	switches.addFlag(loadCmd, &loadDefinitionFile, "file", "", false, "")
	if !twelveFactorMode {
		_ = loadCmd.MarkFlagFilename("file", "json", "yaml", "yml")
	}
	switches.addFlag(loadCmd, &loadLogLevel, "log-level", "warn", false, "")
	switches.addFlag(loadCmd, &loadStatsFrequency, "stats", "0", false, "")
	loadCmd.SilenceUsage = true
}

// runLoad builds the load definition from flags or the definition file and either prints it or runs it.
func runLoad() error {
	cfg, err := getLoadConfig()
	if err != nil {
		return err
	}
	if loadOutputFormat != "" { // if the user wants the definition only...
		return actions.OutputLoadDefinition(cfg, loadOutputFormat, os.Stdout)
	}
	log := logger.NewLogger(c.BronzeFilePrefix, loadLogLevel, stackDumpOnPanic)
	ctx, cancel := transform.WithSignalCancel(context.Background(), log)
	defer cancel()
	l := &actions.Loader{Log: log, Output: os.Stdout, StatsDumpFrequencySeconds: loadStatsFrequency}
	_, err = l.Load(ctx, cfg)
	return err
}

// getLoadConfig returns a copy of the flag values, or the definition found in the file flag when it is set.
func getLoadConfig() (*actions.LoadConfig, error) {
	if loadDefinitionFile != "" {
		return actions.LoadDefinitionFromFile(loadDefinitionFile)
	}
	cfg := loadCfg
	if loadS3Bucket.Name != "" { // if the output should be copied to S3...
		b := loadS3Bucket
		if strings.Contains(b.Name, "://") { // if the bucket was supplied as a URL...
			parsed, err := s3.ParseDSN(b.Name, b.Region)
			if err != nil {
				return nil, err
			}
			if b.Prefix != "" { // if the prefix flag was also supplied it wins...
				parsed.Prefix = b.Prefix
			}
			b = parsed
		}
		cfg.S3 = &b
	}
	return &cfg, nil
}
