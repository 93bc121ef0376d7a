package transform

import (
	"time"

	"github.com/relloyd/bronze/components"
	"github.com/relloyd/bronze/logger"
)

var shutdownResponseTimeout = 2 * time.Second

// stepManager keeps the control channels of launched steps so they can be shutdown together.
type stepManager struct {
	log          logger.Logger
	waiter       *groupWaiter
	names        []string
	controlChans map[string]chan components.ControlAction
}

func newStepManager(log logger.Logger, waiter *groupWaiter) *stepManager {
	return &stepManager{log: log, waiter: waiter, controlChans: make(map[string]chan components.ControlAction)}
}

func (sm *stepManager) register(stepName string, controlChan chan components.ControlAction) {
	sm.names = append(sm.names, stepName)
	sm.controlChans[stepName] = controlChan
}

// shutdown sends a Shutdown action to every step that is not yet done, in launch order.
// Steps that do not respond in time are abandoned.
func (sm *stepManager) shutdown() {
	for _, k := range sm.names {
		c := sm.controlChans[k]
		if c == nil {
			continue
		}
		if s, ok := sm.waiter.LoadStatus(k); ok && s == StepStatusDone {
			sm.log.Debug("Shutdown skipped for complete step ", k)
			continue
		}
		sm.log.Debug("Shutting down ", k)
		a := components.ControlAction{Action: components.Shutdown, ResponseChan: make(chan error, 1)}
		select {
		case c <- a:
		default: // the step already has a pending control action.
			sm.log.Debug("Step ", k, " already has a pending control action")
			continue
		}
		select {
		case <-a.ResponseChan:
		case <-time.After(shutdownResponseTimeout):
			sm.log.Info("Step ", k, " abandoned after timeout waiting for shutdown response")
		}
	}
}
