package transform

import (
	"sort"
	"sync"
	"time"

	"github.com/relloyd/bronze/stats"
)

type RunInfo struct {
	RunID  string             `json:"runId"`
	Status RunStatus          `json:"runStatus"`
	Stats  stats.StatsFetcher `json:"-"`
	Detail interface{}        `json:"detail,omitempty"`
}

// SafeMapRunInfo wraps a map[string]RunInfo with locking, via Load() and Store() methods.
type SafeMapRunInfo struct {
	sync.RWMutex
	Internal map[string]RunInfo
}

func NewSafeMapRunInfo() *SafeMapRunInfo {
	ri := SafeMapRunInfo{}
	ri.Internal = make(map[string]RunInfo)
	return &ri
}

func (t *SafeMapRunInfo) Load(key string) (ri RunInfo, ok bool) {
	t.RLock()
	ri, ok = t.Internal[key]
	t.RUnlock()
	return
}

func (t *SafeMapRunInfo) Store(key string, value RunInfo) {
	t.Lock()
	t.Internal[key] = value
	t.Unlock()
}

func (t *SafeMapRunInfo) Delete(key string) {
	t.Lock()
	delete(t.Internal, key)
	t.Unlock()
}

// SetDetail saves detail against an existing run.
func (t *SafeMapRunInfo) SetDetail(key string, detail interface{}) {
	t.Lock()
	defer t.Unlock()
	if ri, ok := t.Internal[key]; ok {
		ri.Detail = detail
		t.Internal[key] = ri
	}
}

// List returns all runs ordered by start time.
func (t *SafeMapRunInfo) List() []RunInfo {
	t.RLock()
	retval := make([]RunInfo, 0, len(t.Internal))
	for _, v := range t.Internal {
		retval = append(retval, v)
	}
	t.RUnlock()
	sort.Slice(retval, func(i, j int) bool {
		if retval[i].Status.StartTime.Equal(retval[j].Status.StartTime) {
			return retval[i].RunID < retval[j].RunID
		}
		return retval[i].Status.StartTime.Before(retval[j].Status.StartTime)
	})
	return retval
}

// ConsumeRunStatusChanges loops until chanStatus is closed
// and updates t.Internal[runID] with any statuses received.
// A nil map discards the statuses.
func (t *SafeMapRunInfo) ConsumeRunStatusChanges(runID string, chanStatus chan RunStatus) {
	for status := range chanStatus {
		if t == nil {
			continue
		}
		t.Lock()
		ri := t.Internal[runID]
		switch status.Status {
		case StatusRunning:
			ri.Status.Status = status.Status
			ri.Status.StartTime = time.Now()
		case StatusComplete, StatusShutdown:
			ri.Status.Status = status.Status
			ri.Status.EndTime = time.Now()
		case StatusCompleteWithError:
			ri.Status.Status = status.Status
			ri.Status.EndTime = time.Now()
			ri.Status.Error = status.Error
		}
		t.Internal[runID] = ri
		t.Unlock()
	}
}
