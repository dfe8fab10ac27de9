// Package testutil provides shared test helpers.
package testutil

import (
	"sync"
	"time"
)

// FixedClock is a thread-safe deterministic clock for tests.
//
// Unlike engine.SystemClock it returns a preset instant, optionally advancing
// by a fixed step per reading so successive audit entries stay distinct but
// reproducible.
type FixedClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewFixedClock creates a clock pinned to the given instant.
func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: now}
}

// NewSteppingClock creates a clock that advances by step on every reading.
func NewSteppingClock(now time.Time, step time.Duration) *FixedClock {
	return &FixedClock{now: now, step: step}
}

// Now returns the current instant, advancing the clock by the configured
// step afterwards.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

// Set pins the clock to a new instant.
func (c *FixedClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
