package stats

import (
	"strings"
	"sync/atomic"
	"testing"

	"github.com/relloyd/bronze/logger"
	"github.com/relloyd/bronze/stream"
)

func TestStepWatcher_RenderStats(t *testing.T) {
	log := logger.NewLogger("bronze", "error", true)
	mgr := NewTransformStats(log, SetStatsDumpFrequency(0))
	sw := mgr.AddStepWatcher("filter snapshot_date")
	rowCount := int64(0)
	ch := make(chan stream.Record, 10)
	sw.StartWatching(&rowCount, &ch)
	atomic.AddInt64(&rowCount, 3)
	ch <- stream.NewRecord()
	sw.StopWatching()
	if sw.TotalRows() != 3 {
		t.Fatalf("expected 3 rows; got %v", sw.TotalRows())
	}
	st := mgr.GetStats()
	if len(st) != 1 {
		t.Fatalf("expected stats for 1 step; got %v", len(st))
	}
	if st[0].TotalRows != 3 || st[0].Status != StepStatusComplete || st[0].OutputChanLen != 0 {
		t.Fatalf("unexpected stats: %+v", st[0])
	}
	if st[0].StartedAt == nil || st[0].StoppedAt == nil || st[0].StoppedAt.Before(*st[0].StartedAt) {
		t.Fatalf("unexpected start and stop times: %+v", st[0])
	}
	if !strings.Contains(st[0].String(), `"filter snapshot_date" status=complete`) {
		t.Fatalf("unexpected stats string: %v", st[0].String())
	}
}

func TestStepWatcher_Waiting(t *testing.T) {
	sw := NewStepWatcher(logger.NewLogger("bronze", "error", true), "writer")
	st := sw.RenderStats()
	if st.Status != StepStatusWaiting || st.StartedAt != nil || sw.TotalRows() != 0 {
		t.Fatalf("unexpected stats before the step starts: %+v", st)
	}
}

func TestTransformStatsManager_DumpingDisabled(t *testing.T) {
	log := logger.NewLogger("bronze", "error", true)
	mgr := NewTransformStats(log, SetStatsDumpFrequency(0))
	mgr.StartDumping()
	if mgr.isDumping() {
		t.Fatal("expected stats dumping to be disabled with frequency 0")
	}
	mgr.StopDumping()
}

func TestTransformStatsManager_StartStop(t *testing.T) {
	log := logger.NewLogger("bronze", "error", true)
	mgr := NewTransformStats(log, SetStatsDumpFrequency(1))
	sw := mgr.AddStepWatcher("reader")
	rowCount := int64(1)
	ch := make(chan stream.Record, 1)
	sw.StartWatching(&rowCount, &ch)
	mgr.StartDumping()
	mgr.StartDumping() // second call is a no-op.
	sw.StopWatching()
	mgr.StopDumping()
	if mgr.isDumping() {
		t.Fatal("expected ticker to be stopped")
	}
}
