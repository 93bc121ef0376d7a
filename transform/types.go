package transform

import (
	"github.com/relloyd/bronze/components"
	"github.com/relloyd/bronze/logger"
	"github.com/relloyd/bronze/stats"
	"github.com/relloyd/bronze/stream"
)

// StepEnv holds the shared plumbing that Launch hands to each step so it can be
// copied into a component config.
type StepEnv struct {
	Log            logger.Logger
	StepWatcher    *stats.StepWatcher
	WaitCounter    components.ComponentWaiter
	PanicHandlerFn components.PanicHandlerFunc
}

// StepFunc starts a component that consumes input and returns its output and control channels.
// The first step in a chain receives a nil input channel.
type StepFunc func(input chan stream.Record, env StepEnv) (chan stream.Record, chan components.ControlAction)

// Step is a named component in a chain.
type Step struct {
	Name string
	Fn   StepFunc
}
