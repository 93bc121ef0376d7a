package transform

import (
	"time"

	"github.com/pkg/errors"
	"github.com/relloyd/bronze/logger"
	"github.com/relloyd/bronze/stats"
	"github.com/relloyd/bronze/stream"
	"golang.org/x/net/context"
)

// Launch starts steps as a chain, each step consuming the output of the one before,
// and blocks until the last step closes its output channel.
// The records produced by the last step are returned.
// If a step fails, or ctx is cancelled, all running steps are shutdown and an error is returned.
// When history is not nil the run status is saved against runID.
func Launch(ctx context.Context, log logger.Logger, runID string, steps []Step, s stats.StatsManager, history *SafeMapRunInfo) (results []stream.Record, err error) {
	if len(steps) == 0 {
		return nil, errors.New("no steps to launch")
	}
	if s == nil {
		s = stats.NewMockStatsManager()
	}
	chanStatus := make(chan RunStatus, 4)
	chanShutdown := make(chan error, 1)
	rc := NewRunCloser(chanStatus, chanShutdown)
	if history != nil {
		history.Store(runID, RunInfo{RunID: runID, Stats: s, Status: RunStatus{Status: StatusStarting, StartTime: time.Now()}})
	}
	consumed := make(chan struct{})
	go func() {
		history.ConsumeRunStatusChanges(runID, chanStatus)
		close(consumed)
	}()
	closeRun := func(rs *RunStatus) { // history is up to date once this returns.
		rc.CloseChannels(rs)
		<-consumed
	}
	gw := newGroupWaiter()
	sm := newStepManager(log, gw)
	stop := func(status Status, e error) error {
		sm.shutdown()
		s.StopDumping()
		rs := &RunStatus{Status: status}
		if e != nil {
			rs.Error = e.Error()
		}
		closeRun(rs)
		return e
	}
	defer func() {
		if r := recover(); r != nil { // if a step rejected its config...
			results = nil
			err = stop(StatusCompleteWithError, errors.Wrapf(panicToError(r), "unable to launch run %v", runID))
		}
	}()
	log.Info("Launching run ", runID)
	rc.SendStatus(RunStatus{Status: StatusRunning})
	s.StartDumping()
	var input chan stream.Record
	panicHandler := NewPanicHandler(log, rc)
	for _, step := range steps {
		env := StepEnv{
			Log:            log,
			StepWatcher:    s.AddStepWatcher(step.Name),
			WaitCounter:    gw.newStepComponentWaiter(step.Name),
			PanicHandlerFn: panicHandler,
		}
		output, controlChan := step.Fn(input, env)
		sm.register(step.Name, controlChan)
		input = output
	}
	results = make([]stream.Record, 0)
	for input != nil { // drain the final step...
		select {
		case rec, ok := <-input:
			if !ok {
				input = nil
			} else {
				results = append(results, rec)
			}
		case e := <-chanShutdown: // if a step failed...
			log.Error("Run ", runID, " failed: ", e)
			return nil, stop(StatusCompleteWithError, e)
		case <-ctx.Done():
			log.Info("Shutting down run ", runID, "...")
			return nil, stop(StatusShutdown, errors.Wrapf(ctx.Err(), "run %v was shutdown", runID))
		}
	}
	gw.Wait()
	select {
	case e := <-chanShutdown: // if a step failed after the final output closed...
		return nil, stop(StatusCompleteWithError, e)
	default:
	}
	s.StopDumping()
	closeRun(&RunStatus{Status: StatusComplete})
	log.Info("Run ", runID, " complete")
	return results, nil
}
