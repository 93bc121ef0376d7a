package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	c "github.com/relloyd/bronze/constants"
	h "github.com/relloyd/bronze/helper"
	"github.com/relloyd/bronze/logger"
	"github.com/relloyd/bronze/stream"
)

const (
	StepStatusWaiting  = "waiting"
	StepStatusRunning  = "running"
	StepStatusComplete = "complete"
)

// StepWatcher samples the row count and output channel depth of a single load step.
// The step calls StartWatching() when it starts and StopWatching() when it ends.
type StepWatcher struct {
	log         logger.Logger
	stepName    string
	rowCountPtr *int64 // row count held by the step being watched.
	chanPtr     *chan stream.Record
	chanLen     int64
	rowsPerSec  int64 // rows per second since the prior sample.
	totalRows   int64
	priorRows   int64
	mu          sync.Mutex // guards the times below.
	startTime   time.Time
	stopTime    time.Time
	priorTime   time.Time
	ticker      *time.Ticker
	tickerDone  chan struct{}
	isRunning   h.AtomBool
}

// Stats is a point in time view of a step.
type Stats struct {
	StepName       string     `json:"stepName"`
	Status         string     `json:"status"`
	StartedAt      *time.Time `json:"startedAt,omitempty"`
	StoppedAt      *time.Time `json:"stoppedAt,omitempty"`
	ElapsedTimeSec int        `json:"elapsedTimeSec"`
	TotalRows      int64      `json:"totalRows"`
	RowsPerSecond  int64      `json:"rowsPerSecond"`
	RowsPerSecAvg  int64      `json:"rowsPerSecondAvg"`
	OutputChanLen  int64      `json:"outputChanLen"`
}

func NewStepWatcher(log logger.Logger, stepName string) *StepWatcher {
	return &StepWatcher{log: log, stepName: stepName, tickerDone: make(chan struct{})}
}

// StartWatching samples *rowCountPtr and len(*chanPtr) every StatsCaptureFrequencySeconds until StopWatching.
func (n *StepWatcher) StartWatching(rowCountPtr *int64, chanPtr *chan stream.Record) {
	n.mu.Lock()
	n.rowCountPtr = rowCountPtr
	n.chanPtr = chanPtr
	n.startTime = time.Now()
	n.stopTime = time.Time{}
	n.priorTime = n.startTime
	n.mu.Unlock()
	atomic.StoreInt64(&n.priorRows, 0)
	atomic.StoreInt64(&n.totalRows, 0)
	n.isRunning.Set(true)
	n.CalculateStats()
	n.ticker = time.NewTicker(time.Second * c.StatsCaptureFrequencySeconds)
	go func() {
		for {
			select {
			case <-n.ticker.C:
				n.CalculateStats()
			case <-n.tickerDone:
				return
			}
		}
	}()
}

func (n *StepWatcher) StopWatching() {
	n.ticker.Stop()
	n.tickerDone <- struct{}{}
	n.CalculateStats() // final sample.
	n.mu.Lock()
	n.stopTime = time.Now()
	n.mu.Unlock()
	n.isRunning.Set(false)
	atomic.StoreInt64(&n.chanLen, 0)
}

// CalculateStats takes a sample. It does nothing until StartWatching is called.
func (n *StepWatcher) CalculateStats() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.rowCountPtr == nil {
		return
	}
	now := time.Now()
	rows := atomic.LoadInt64(n.rowCountPtr)
	delta := rows - atomic.LoadInt64(&n.priorRows)
	atomic.StoreInt64(&n.rowsPerSec, delta/secondsOrOne(now.Sub(n.priorTime)))
	atomic.StoreInt64(&n.chanLen, int64(len(*n.chanPtr)))
	atomic.StoreInt64(&n.priorRows, rows)
	atomic.StoreInt64(&n.totalRows, rows)
	n.priorTime = now
	n.log.Debug("STATS: ", n.stepName, " processing ", atomic.LoadInt64(&n.rowsPerSec), " rows per sec. Output channel length ", atomic.LoadInt64(&n.chanLen))
}

// TotalRows returns the number of rows counted by the step so far.
func (n *StepWatcher) TotalRows() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.rowCountPtr == nil {
		return 0
	}
	return atomic.LoadInt64(n.rowCountPtr)
}

// RenderStats gets a struct filled with stats at the point of time it is called.
// Elapsed time stops growing once the step has stopped.
func (n *StepWatcher) RenderStats() Stats {
	s := Stats{
		StepName:      n.stepName,
		Status:        StepStatusWaiting,
		TotalRows:     atomic.LoadInt64(&n.totalRows),
		RowsPerSecond: atomic.LoadInt64(&n.rowsPerSec),
		OutputChanLen: atomic.LoadInt64(&n.chanLen),
	}
	n.mu.Lock()
	start, stop := n.startTime, n.stopTime
	n.mu.Unlock()
	if start.IsZero() { // if the step has not started...
		return s
	}
	s.StartedAt = &start
	end := time.Now()
	if n.isRunning.Get() {
		s.Status = StepStatusRunning
	} else {
		s.Status = StepStatusComplete
		if !stop.IsZero() {
			s.StoppedAt = &stop
			end = stop
		}
	}
	elapsed := end.Sub(start)
	s.ElapsedTimeSec = int(elapsed.Seconds())
	s.RowsPerSecAvg = s.TotalRows / secondsOrOne(elapsed)
	return s
}

// String formats the stats as key=value pairs for logging.
func (s Stats) String() string {
	return fmt.Sprintf("Stats for %q status=%v elapsedTimeSec=%v totalRows=%v rowsPerSecond=%v rowsPerSecondAvg=%v outputChanLen=%v",
		s.StepName, s.Status, s.ElapsedTimeSec, s.TotalRows, s.RowsPerSecond, s.RowsPerSecAvg, s.OutputChanLen)
}

func secondsOrOne(d time.Duration) int64 {
	if s := int64(d.Seconds()); s > 1 {
		return s
	}
	return 1
}
