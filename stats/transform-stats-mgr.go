package stats

import (
	"sync"
	"time"

	"github.com/cevaris/ordered_map"
	"github.com/relloyd/bronze/logger"
)

type StatsFetcher interface {
	GetStats() []Stats
}

// StatsManager is used by the launcher to register steps and dump their stats while a load runs.
type StatsManager interface {
	StatsFetcher
	AddStepWatcher(stepName string) *StepWatcher
	StartDumping()
	StopDumping()
}

const DefaultStatsDumpFrequencySeconds = 5

// TransformStatsManager implements StatsManager.
// It logs the stats of each step added via AddStepWatcher, in the order they were added, every tickerFrequency seconds.
type TransformStatsManager struct {
	log             logger.Logger
	tickerFrequency int
	mu              sync.Mutex
	ticker          *time.Ticker
	tickerDone      chan struct{}
	dumping         bool
	steps           *ordered_map.OrderedMap // step name => *StepWatcher
}

// SetStatsDumpFrequency returns an option for NewTransformStats. Use 0 to disable periodic dumps.
func SetStatsDumpFrequency(seconds int) func(t *TransformStatsManager) {
	return func(t *TransformStatsManager) {
		t.tickerFrequency = seconds
	}
}

// NewTransformStats creates a TransformStatsManager that dumps stats every DefaultStatsDumpFrequencySeconds
// unless an option such as SetStatsDumpFrequency() says otherwise.
func NewTransformStats(log logger.Logger, options ...func(t *TransformStatsManager)) *TransformStatsManager {
	t := &TransformStatsManager{log: log, tickerFrequency: DefaultStatsDumpFrequencySeconds}
	for _, option := range options {
		option(t)
	}
	t.tickerDone = make(chan struct{})
	t.steps = ordered_map.NewOrderedMap()
	return t
}

// AddStepWatcher creates a new StepWatcher and saves it against stepName.
func (t *TransformStatsManager) AddStepWatcher(stepName string) *StepWatcher {
	t.mu.Lock()
	defer t.mu.Unlock()
	sw := NewStepWatcher(t.log, stepName)
	t.steps.Set(stepName, sw)
	return sw
}

// StartDumping starts logging stats periodically. Calls after the first are ignored.
func (t *TransformStatsManager) StartDumping() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dumping {
		t.log.Debug("stats dumper ticker already running")
		return
	}
	if t.tickerFrequency <= 0 {
		t.log.Debug("stats dumper disabled")
		return
	}
	t.ticker = time.NewTicker(time.Second * time.Duration(t.tickerFrequency))
	t.dumping = true
	go func() {
		t.log.Debug("stats dumper ticker started")
		for {
			select {
			case <-t.tickerDone:
				t.log.Debug("stats dumper ticker stopped")
				return
			case <-t.ticker.C:
				t.mu.Lock()
				t.logStats()
				t.mu.Unlock()
			}
		}
	}()
}

// StopDumping stops the ticker and logs the final stats of every step.
// It does nothing unless StartDumping() started the ticker.
func (t *TransformStatsManager) StopDumping() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.dumping {
		return
	}
	t.dumping = false
	t.ticker.Stop()
	t.mu.Unlock()
	t.tickerDone <- struct{}{} // the goroutine may be waiting for the lock.
	t.mu.Lock()
	for _, sw := range t.watchers() {
		sw.CalculateStats()
	}
	t.logStats()
}

func (t *TransformStatsManager) isDumping() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dumping
}

// watchers returns the step watchers in the order they were added. The caller holds t.mu.
func (t *TransformStatsManager) watchers() []*StepWatcher {
	retval := make([]*StepWatcher, 0, t.steps.Len())
	iter := t.steps.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		retval = append(retval, kv.Value.(*StepWatcher))
	}
	return retval
}

// logStats logs the current stats of each step. The caller holds t.mu.
func (t *TransformStatsManager) logStats() {
	for _, sw := range t.watchers() {
		t.log.Info(sw.RenderStats().String())
	}
}

// GetStats implements StatsFetcher.
func (t *TransformStatsManager) GetStats() []Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	ws := t.watchers()
	statsList := make([]Stats, 0, len(ws))
	for _, sw := range ws {
		statsList = append(statsList, sw.RenderStats())
	}
	return statsList
}
