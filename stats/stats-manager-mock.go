package stats

// MockStatsManager satisfies StatsManager without watching anything.
type MockStatsManager struct {
	Started bool
	Stopped bool
}

func (s *MockStatsManager) StartDumping() {
	s.Started = true
}

func (s *MockStatsManager) StopDumping() {
	s.Stopped = true
}

func (s *MockStatsManager) AddStepWatcher(stepName string) *StepWatcher {
	return nil
}

func (s *MockStatsManager) GetStats() []Stats {
	return nil
}

func NewMockStatsManager() *MockStatsManager {
	return &MockStatsManager{}
}
