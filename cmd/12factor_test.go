package cmd

import (
	"os"
	"testing"

	c "github.com/relloyd/bronze/constants"
)

var results = map[string]int{
	c.ActionFuncsCommandLoad: 0,
}

var mockTwelveFactorActions = map[string]twelveFactorAction{
	c.ActionFuncsCommandLoad: {runnerFunc: getMock12FactorExecutor(c.ActionFuncsCommandLoad)},
}

func getMock12FactorExecutor(action string) func() error {
	return func() error {
		results[action] = 1
		return nil
	}
}

func TestSetupTwelveFactorMode(t *testing.T) {
	t.Cleanup(setupTwelveFactorMode) // runs after the environment is restored.
	t.Setenv(envVarTwelveFactorMode, "")
	setupTwelveFactorMode()
	if twelveFactorMode || lambdaMode {
		t.Fatal("expected twelveFactorMode and lambdaMode to be false")
	}
	t.Setenv(envVarTwelveFactorMode, "1")
	setupTwelveFactorMode()
	if !twelveFactorMode {
		t.Fatal("expected twelveFactorMode to be true; got false")
	}
	if lambdaMode {
		t.Fatal("expected lambdaMode to be false; got true")
	}
	t.Setenv(envVarTwelveFactorMode, "lambda")
	setupTwelveFactorMode()
	if !twelveFactorMode || !lambdaMode {
		t.Fatal("expected twelveFactorMode and lambdaMode to be true")
	}
}

func TestExecute12FactorMode(t *testing.T) {
	var osVars = map[string]string{
		"BRONZE_LOG_LEVEL":      "error",
		"BRONZE_STACK_DUMP":     "false",
		"MLE_ASSIGNMENT_DIR":    "/tmp/MLE_Assignment",
		"AWS_SECRET_ACCESS_KEY": "123xyz456",
	}
	for k, v := range osVars {
		t.Setenv(k, v)
	}

	// Test 1 - action runner function is called.
	t.Setenv(envVarCommand, "load")
	if err := execute12FactorMode(mockTwelveFactorActions); err != nil {
		t.Fatalf("test 1 failed: expected nil error got error: %v", err)
	}
	if results[c.ActionFuncsCommandLoad] == 0 {
		t.Fatal("test 1 failed: expected the load runner to be called")
	}

	// Test 2 - invalid command.
	t.Setenv(envVarCommand, "invalidCommand")
	if err := execute12FactorMode(mockTwelveFactorActions); err == nil {
		t.Fatal("test 2 failed, expected: error; got: nil")
	}

	// Test 3 - all twelveFactorVars are fetched from the environment.
	for k, expected := range osVars {
		if got := twelveFactorVars[k]; got != expected {
			t.Fatalf("test 3 failed: expected %v = %v; got: %v", k, expected, got)
		}
	}

	// Test 4 - sensitive vars are set up.
	if _, sensitive := twelveFactorVarsSensitive[envVarAwsSecretKey]; !sensitive {
		t.Fatal("test 4 failed: expected envVarAwsSecretKey to be registered in map twelveFactorVarsSensitive")
	}
}

func TestTwelveFactorActions(t *testing.T) {
	// Every Cobra command that runs an action must be runnable in twelveFactorMode.
	for _, cmd := range rootCmd.Commands() {
		if cmd.RunE == nil || cmd == versionCmd || cmd == serveCmd || cmd == twelveFactorCmd {
			continue
		}
		if _, ok := twelveFactorActions[cmd.Name()]; !ok {
			t.Fatalf("twelveFactorActions does not handle Cobra command %v", cmd.Name())
		}
	}
	if _, ok := twelveFactorActions[loadCmd.Name()]; !ok {
		t.Fatal("twelveFactorActions does not handle the load command")
	}
}

func TestMain(m *testing.M) {
	// Tests toggle twelveFactorMode; start from the environment's view of it.
	_ = os.Unsetenv(envVarTwelveFactorMode)
	setupTwelveFactorMode()
	os.Exit(m.Run())
}
