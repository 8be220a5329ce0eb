// Package testutil provides shared helpers for tests.
package testutil

import (
	"sync"
	"time"
)

// Clock is a manually advanced clock for tests that exercise
// staleness deadlines and vote validity windows.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

// NewClock creates a Clock frozen at t.
func NewClock(t time.Time) *Clock {
	return &Clock{t: t}
}

// Now returns the clock's current instant. Pass the method value as a
// now func.
func (c *Clock) Now() time.Time {
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

// Set jumps the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}
