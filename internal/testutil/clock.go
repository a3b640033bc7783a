// Package testutil provides shared helpers for deterministic tests.
package testutil

import (
	"sync"
	"time"
)

// Clock is a thread-safe deterministic time source for tests.
//
// Each call to Now returns the current instant and advances it by one
// second, so consecutive timestamps are distinct, ordered, and reproducible
// across runs.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

// NewClock creates a clock starting at the given instant.
func NewClock(start time.Time) *Clock {
	return &Clock{t: start}
}

// Now returns the current instant and steps the clock forward one second.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(time.Second)
	return now
}

// Peek returns the current instant without advancing.
func (c *Clock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
