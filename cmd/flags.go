package cmd

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"

	"github.com/relloyd/bronze/config"
	c "github.com/relloyd/bronze/constants"
	"github.com/relloyd/bronze/helper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type cliFlag struct {
	name      string // name of flag
	val       string // default value
	shortHand string // single character name for the flag
	desc      string // description of the flag; the long text
}

type cliFlags map[string]cliFlag

var switches = cliFlags{
	"mock": cliFlag{name: "mock", shortHand: "m", desc: "mock switch for testing"},
	"snapshot-date": cliFlag{name: "snapshot-date", shortHand: "d",
		desc: "* The snapshot date to load using format YYYY-MM-DD. Rows whose snapshot_date \n" +
			"column matches this date are kept; all rows are kept if the column does not exist"},
	"output-dir": cliFlag{name: "output-dir", shortHand: "O",
		desc: "* The directory in which to write the bronze table. It is created if it does not exist"},
	"source": cliFlag{name: "source", shortHand: "s",
		desc: "The source CSV file name found in the data directory of the project root, \n" +
			"or an explicit path to the file"},
	"project-dir": cliFlag{name: "project-dir", shortHand: "p",
		desc: "The directory from which to search for the project root \n" +
			"(set " + c.EnvVarAssignmentDir + " to search another directory first)"},
	"table": cliFlag{name: "table", shortHand: "t",
		desc: "The bronze table name used to build the output file name"},
	"format": cliFlag{name: "format", shortHand: "F",
		desc: "The output format: \"csv | parquet\""},
	"gzip": cliFlag{name: "gzip", shortHand: "z",
		desc: "Compress CSV output using gzip"},
	"preview-rows": cliFlag{name: "preview-rows", shortHand: "n",
		desc: "The number of rows to print in the table preview (use 0 to disable)"},
	"filter-rule": cliFlag{name: "filter-rule", shortHand: "r",
		desc: "Optional JsonLogic rule; only rows for which it is true are written, \n" +
			"e.g. '{\">\": [{\"var\": \"loan_amt\"}, 1000]}'"},
	"abort-after": cliFlag{name: "abort-after", shortHand: "A",
		desc: "Fail when more than this number of rows would be written (use 0 to write all rows)"},
	"s3-bucket": cliFlag{name: "s3-bucket", shortHand: "b",
		desc: "AWS S3 bucket name, or URL of the form s3://<bucket>/<prefix>, to copy the output files to \n" +
			"(set AWS environment variables for access)"},
	"s3-prefix": cliFlag{name: "s3-prefix", shortHand: "P",
		desc: "AWS S3 bucket prefix"},
	"s3-region": cliFlag{name: "s3-region", shortHand: "R",
		desc: "AWS S3 bucket region"},
	"output": cliFlag{name: "output", shortHand: "o",
		desc: "Specify \"yaml\" or \"json\" to print the load definition instead of running it. \n" +
			"Optionally redirect this output to a file for use with the \"file\" flag"},
	"file": cliFlag{name: "file", shortHand: "f",
		desc: "File containing the load definition (.yaml or .json); it takes priority over other load flags"},
	"log-level": cliFlag{name: "log-level", shortHand: "l",
		desc: "Log level: \"error | warn | info | debug\" where only step stats are \n" +
			"output at using \"info\""},
	"port": cliFlag{name: "port", shortHand: "p",
		desc: "Port to listen on"},
	"stats": cliFlag{name: "stats", shortHand: "L",
		desc: "Number of seconds between dumping step statistics (use 0 to disable)"},
}

// addFlag adds a flag to cobra.Command cmd, based on the type of targetVar (which must be a pointer).
// The name of the flag is looked up in map switches.
// In twelveFactorMode, targetVar is populated from the environment variable for name, or defaultValue if unset,
// and no flag is registered with cobra.
// Otherwise the default value is fetched from config if it exists else defaultValue is applied.
// Supply a value for desc2 to append to the description found in switches.
func (f *cliFlags) addFlag(cmd *cobra.Command, targetVar interface{}, name string, defaultValue string, required bool, desc2 string) {
	v := reflect.ValueOf(targetVar)
	if v.Kind() != reflect.Ptr {
		fmt.Println("error adding flag: targetVar must be a pointer")
		os.Exit(1)
	}
	sw := f.getCliFlag(name, defaultValue, config.Main.Get) // get the cliFlag details, with defaults taken from config or the supplied defaultValue
	desc := sw.desc + desc2                                 // create the full flag description for use below
	// Apply the flag.
	switch p := targetVar.(type) {
	case *string:
		if twelveFactorMode {
			*p = sw.val
		} else {
			cmd.Flags().StringVarP(p, sw.name, sw.shortHand, sw.val, desc)
			// Signal that the flag was set so defaults take effect.
			if sw.val != "" { // if there is a value via config or default...
				mustSetFlag(cmd.Flags(), sw.name, sw.val)
			}
		}
	case *bool:
		defaultBool := helper.GetTrueFalseStringAsBool(sw.val)
		if twelveFactorMode {
			*p = defaultBool
		} else {
			cmd.Flags().BoolVarP(p, sw.name, sw.shortHand, defaultBool, desc)
			// Signal that the flag was set so defaults take effect.
			if defaultBool {
				mustSetFlag(cmd.Flags(), sw.name, "true")
			} else {
				mustSetFlag(cmd.Flags(), sw.name, "false")
			}
		}
	case *int:
		defaultInt, err := strconv.Atoi(sw.val)
		if err != nil {
			fmt.Printf("the value for flag %q must be an integer: %v\n", sw.name, err)
			os.Exit(1)
		}
		if twelveFactorMode {
			*p = defaultInt
		} else {
			cmd.Flags().IntVarP(p, sw.name, sw.shortHand, defaultInt, desc)
			// Signal that the flag was set so defaults take effect.
			if sw.val != "" { // if there is a value via config or default...
				mustSetFlag(cmd.Flags(), sw.name, sw.val)
			}
		}
	default:
		panic("Error: unhandled CLI flag target value type")
	}
	// Optionally mark the flag as mandatory.
	if required && !twelveFactorMode { // if the flag is required...
		_ = cmd.MarkFlagRequired(sw.name)
	}
}

// getCliFlag fetches the value of name from the environment, when running in twelveFactorMode,
// else read the Main config file to find it.
// If a value cannot be found then use the supplied defaultValue in its place.
func (f *cliFlags) getCliFlag(name string, defaultValue string, fnGetConfig func(key string, out interface{}) error) cliFlag {
	s, ok := switches[name]
	if !ok {
		panic(fmt.Sprintf("unregistered CLI flag, %q", name))
	}
	if twelveFactorMode { // if we should read env vars...
		if err := helper.ReadValueFromEnv(flagNameToEnvVar(name), &s.val); err != nil { // if there's no value for the env var read into the switch val...
			// Apply the default.
			s.val = defaultValue
		}
	} else { // else check the config file or apply default...
		err := fnGetConfig(s.name, &s.val)
		if errors.As(err, &config.KeyNotFoundError{}) || s.val == "" { // if there was no key found...
			// Apply the default.
			s.val = defaultValue
		}
	}
	return s
}

// flagNameToEnvVar converts a flag name into its twelveFactorMode environment variable, e.g. BRONZE_SNAPSHOT_DATE.
func flagNameToEnvVar(name string) string {
	return helper.GetPrefixedEnvVarName(name)
}

func mustSetFlag(f *pflag.FlagSet, name string, val string) {
	if err := f.Set(name, val); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
