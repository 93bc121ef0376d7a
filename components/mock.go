package components

import "sync"

type MockComponentWaiter struct {
	mu    sync.Mutex
	count int
}

func (cw *MockComponentWaiter) Add() {
	cw.mu.Lock()
	cw.count++
	cw.mu.Unlock()
}

func (cw *MockComponentWaiter) Done() {
	cw.mu.Lock()
	cw.count--
	cw.mu.Unlock()
}

func (cw *MockComponentWaiter) Count() int {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.count
}
