package transform

import (
	"sync"
)

// RunCloser tracks the channels used to report run status and failures, and whether they are closed.
type RunCloser struct {
	closed       bool
	failed       bool
	mu           sync.Mutex
	chanStatus   chan RunStatus
	chanShutdown chan error
}

func NewRunCloser(chanStatus chan RunStatus, chanShutdown chan error) *RunCloser {
	return &RunCloser{chanStatus: chanStatus, chanShutdown: chanShutdown}
}

// SendStatus sends s on chanStatus unless the channels are closed.
func (c *RunCloser) SendStatus(s RunStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.chanStatus <- s
	}
}

// Fail reports err on chanStatus and chanShutdown.
// Only the first failure is sent and nothing is sent once the channels are closed.
func (c *RunCloser) Fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.failed {
		return
	}
	c.failed = true
	c.chanStatus <- RunStatus{Status: StatusCompleteWithError, Error: err.Error()}
	c.chanShutdown <- err
}

// CloseChannels sends the final statusToSend, if any, and closes chanStatus and chanShutdown.
// It is safe to call more than once.
func (c *RunCloser) CloseChannels(statusToSend *RunStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if statusToSend != nil && !c.failed {
		c.chanStatus <- *statusToSend
	}
	close(c.chanStatus)
	close(c.chanShutdown)
	c.closed = true
}

// ChannelsAreOpen returns true until CloseChannels is called.
func (c *RunCloser) ChannelsAreOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}
