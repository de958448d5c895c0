package testutil

import (
	"sync"
	"time"
)

// Epoch is the default start time of a SteppingClock.
var Epoch = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

// SteppingClock is a deterministic wall clock for tests.
//
// Every call to Now returns the previous value plus Step, starting at Start.
// Timestamps written by the store and the sync engine therefore differ per
// write but are identical across test runs, which keeps golden output stable.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SteppingClock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	calls int64
}

// NewSteppingClock creates a clock whose first Now() returns start.
// A zero start uses Epoch; a zero step uses one second.
func NewSteppingClock(start time.Time, step time.Duration) *SteppingClock {
	if start.IsZero() {
		start = Epoch
	}
	if step == 0 {
		step = time.Second
	}
	return &SteppingClock{start: start.UTC(), step: step}
}

// Now returns the next timestamp and advances the clock.
func (c *SteppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.start.Add(time.Duration(c.calls) * c.step)
	c.calls++
	return t
}

// Calls returns how many times Now has been called.
func (c *SteppingClock) Calls() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Reset rewinds the clock so the next Now returns the start time again.
func (c *SteppingClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = 0
}
