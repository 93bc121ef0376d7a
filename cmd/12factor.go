package cmd

import (
	"fmt"
	"os"

	c "github.com/relloyd/bronze/constants"
	"github.com/relloyd/bronze/helper"
	"github.com/relloyd/bronze/logger"
)

// init will be called first due to the lexical order in which these functions are executed.
// This ensures the value of twelveFactorMode is set such that other init() functions that configure
// Cobra can read the environment variables that stand in for the CLI flags.
func init() {
	setupTwelveFactorMode()
}

// setupTwelveFactorMode will enable or disable 12 factor mode based on environment variable.
func setupTwelveFactorMode() {
	mode := os.Getenv(envVarTwelveFactorMode)
	if mode != "" { // if variable for 12factor mode is set and we should read env vars to determine actions...
		twelveFactorMode = true
		lambdaMode = mode == "lambda" || mode == "LAMBDA"
	} else { // else 12factor mode should be off...
		twelveFactorMode = false // explicitly turn off this mode since tests may have turned it on while others require it off.
		lambdaMode = false
	}
}

const (
	envVarTwelveFactorMode = c.EnvVarPrefix + "_" + "12FACTOR_MODE"
	envVarCommand          = c.EnvVarPrefix + "_" + "COMMAND"
	envVarLogLevel         = c.EnvVarPrefix + "_" + "LOG_LEVEL"
	envVarStackDump        = c.EnvVarPrefix + "_" + "STACK_DUMP"
	envVarAwsSecretKey     = "AWS_SECRET_ACCESS_KEY"
)

var (
	twelveFactorMode bool // true if os env var envVarTwelveFactorMode is set
	lambdaMode       bool // true if os env var envVarTwelveFactorMode is "lambda"
	twelveFactorVars = map[string]string{
		envVarCommand:         "",
		envVarLogLevel:        "",
		envVarStackDump:       "",
		c.EnvVarAssignmentDir: "",
		envVarAwsSecretKey:    "",
	}
	twelveFactorVarsSensitive = map[string]string{ // used to flag some of the above variables as being sensitive.
		envVarAwsSecretKey: "",
	}
)

type twelveFactorAction struct {
	runnerFunc func() error
}

var twelveFactorActions = map[string]twelveFactorAction{
	c.ActionFuncsCommandLoad: {runnerFunc: runLoad},
}

func execute12FactorMode(acts map[string]twelveFactorAction) (err error) {
	logLevel := helper.ReadValueFromEnvWithDefault(envVarLogLevel, "warn") // fetch logLevel from env as this is not a persistent flag.
	if helper.GetTrueFalseStringAsBool(os.Getenv(envVarStackDump)) {
		stackDumpOnPanic = true
	}
	log := logger.NewLogger(c.BronzeFilePrefix, logLevel, stackDumpOnPanic)
	log.Info("Bronze is running in 12 Factor mode...")
	for k := range twelveFactorVars { // for each env variable that we need...
		// Save it and log it.
		twelveFactorVars[k] = os.Getenv(k)
		_, sensitive := twelveFactorVarsSensitive[k]
		if !sensitive { // if the env variable does not contain sensitive values...
			log.Debug(k, "=", twelveFactorVars[k])
		} else { // else output obfuscated value...
			log.Debug(k, "=", "<obfuscated>")
		}
	}
	a, ok := acts[twelveFactorVars[envVarCommand]]
	if !ok {
		err = fmt.Errorf("invalid command %q, set %v to one of: %v", twelveFactorVars[envVarCommand], envVarCommand, c.ActionFuncsCommandLoad)
		log.Error(err.Error())
		return
	}
	if err = a.runnerFunc(); err != nil {
		log.Error("Error: ", err)
	}
	return err
}
