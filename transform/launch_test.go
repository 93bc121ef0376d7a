package transform

import (
	"strings"
	"testing"
	"time"

	"github.com/relloyd/bronze/components"
	"github.com/relloyd/bronze/logger"
	"github.com/relloyd/bronze/stats"
	"github.com/relloyd/bronze/stream"
	"golang.org/x/net/context"
)

func newTestLogger() logger.Logger {
	return logger.NewLogger("bronze", "error", false)
}

// generator produces n records with field "n" before closing its output.
func generator(n int) StepFunc {
	return func(input chan stream.Record, env StepEnv) (chan stream.Record, chan components.ControlAction) {
		output := make(chan stream.Record, 10)
		controlChan := make(chan components.ControlAction, 1)
		go func() {
			defer env.PanicHandlerFn()
			env.WaitCounter.Add()
			defer env.WaitCounter.Done()
			for i := 0; i < n; i++ {
				rec := stream.NewRecord()
				rec.SetData("n", i)
				select {
				case output <- rec:
				case a := <-controlChan:
					a.ResponseChan <- nil
					return
				}
			}
			close(output)
		}()
		return output, controlChan
	}
}

// passThrough copies input to output and panics via the logger when it sees failOn.
func passThrough(failOn int) StepFunc {
	return func(input chan stream.Record, env StepEnv) (chan stream.Record, chan components.ControlAction) {
		output := make(chan stream.Record, 10)
		controlChan := make(chan components.ControlAction, 1)
		go func() {
			defer env.PanicHandlerFn()
			env.WaitCounter.Add()
			defer env.WaitCounter.Done()
			for {
				select {
				case rec, ok := <-input:
					if !ok {
						close(output)
						return
					}
					if rec.GetData("n") == failOn {
						env.Log.Panic("bad record ", failOn)
					}
					output <- rec
				case a := <-controlChan:
					a.ResponseChan <- nil
					return
				}
			}
		}()
		return output, controlChan
	}
}

// blocker never produces output until it is shutdown.
func blocker(input chan stream.Record, env StepEnv) (chan stream.Record, chan components.ControlAction) {
	output := make(chan stream.Record)
	controlChan := make(chan components.ControlAction, 1)
	go func() {
		defer env.PanicHandlerFn()
		env.WaitCounter.Add()
		defer env.WaitCounter.Done()
		a := <-controlChan
		a.ResponseChan <- nil
	}()
	return output, controlChan
}

func TestLaunch(t *testing.T) {
	log := newTestLogger()
	s := stats.NewMockStatsManager()
	history := NewSafeMapRunInfo()
	steps := []Step{{Name: "gen", Fn: generator(3)}, {Name: "pass", Fn: passThrough(-1)}}
	results, err := Launch(context.Background(), log, "run1", steps, s, history)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results; got %v", len(results))
	}
	if !s.Started || !s.Stopped {
		t.Fatal("expected stats dumping to be started and stopped")
	}
	waitForStatus(t, history, "run1", StatusComplete)
}

func TestLaunch_StepFailure(t *testing.T) {
	log := newTestLogger()
	history := NewSafeMapRunInfo()
	steps := []Step{{Name: "gen", Fn: generator(5)}, {Name: "pass", Fn: passThrough(2)}}
	results, err := Launch(context.Background(), log, "run2", steps, nil, history)
	if err == nil || err.Error() != "bad record 2" {
		t.Fatalf("expected error 'bad record 2'; got %v", err)
	}
	if results != nil {
		t.Fatalf("expected no results on failure; got %v", results)
	}
	ri := waitForStatus(t, history, "run2", StatusCompleteWithError)
	if ri.Status.Error != "bad record 2" {
		t.Fatalf("expected the failure to be saved; got %v", ri.Status.Error)
	}
}

func TestLaunch_ConstructorPanic(t *testing.T) {
	log := newTestLogger()
	badStep := func(input chan stream.Record, env StepEnv) (chan stream.Record, chan components.ControlAction) {
		env.Log.Panic("missing input channel")
		return nil, nil
	}
	steps := []Step{{Name: "gen", Fn: blocker}, {Name: "bad", Fn: badStep}}
	_, err := Launch(context.Background(), log, "run3", steps, nil, nil)
	if err == nil || !strings.Contains(err.Error(), "missing input channel") {
		t.Fatalf("expected launch error; got %v", err)
	}
}

func TestLaunch_Cancel(t *testing.T) {
	log := newTestLogger()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	history := NewSafeMapRunInfo()
	_, err := Launch(ctx, log, "run4", []Step{{Name: "block", Fn: blocker}}, nil, history)
	if err == nil || !strings.Contains(err.Error(), "was shutdown") {
		t.Fatalf("expected shutdown error; got %v", err)
	}
	waitForStatus(t, history, "run4", StatusShutdown)
}

func TestLaunch_NoSteps(t *testing.T) {
	if _, err := Launch(context.Background(), newTestLogger(), "run5", nil, nil, nil); err == nil {
		t.Fatal("expected error for empty steps")
	}
}

func TestPanicToError(t *testing.T) {
	cases := []struct {
		in       interface{}
		expected string
	}{
		{"text", "text"},
		{42, "42"},
	}
	for _, c := range cases {
		if got := panicToError(c.in).Error(); got != c.expected {
			t.Fatalf("expected %q; got %q", c.expected, got)
		}
	}
}

func waitForStatus(t *testing.T, history *SafeMapRunInfo, runID string, expected Status) RunInfo {
	timeout := time.After(3 * time.Second)
	for {
		ri, _ := history.Load(runID)
		if ri.Status.Status == expected {
			return ri
		}
		select {
		case <-timeout:
			t.Fatalf("timeout waiting for run %v status %v; got %v", runID, expected, ri.Status.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}
}
