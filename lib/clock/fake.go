// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"time"
)

// Fake returns a FakeClock set to initial. It is safe for concurrent
// use.
func Fake(initial time.Time) *FakeClock {
	return &FakeClock{current: initial}
}

// FakeClock is a deterministic Clock. Time moves only through Set,
// Advance, or the automatic step configured with StepEachRead.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	step    time.Duration
}

// Now returns the fake time. When a step is configured, the clock then
// moves forward by that step, so consecutive readings are distinct.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.current
	c.current = c.current.Add(c.step)
	return now
}

// Set moves the clock to t, which may be earlier than the current
// time.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d. Panics if d is negative.
func (c *FakeClock) Advance(d time.Duration) {
	if d < 0 {
		panic("clock: Advance called with negative duration")
	}
	c.mu.Lock()
	c.current = c.current.Add(d)
	c.mu.Unlock()
}

// StepEachRead makes every Now call advance the clock by d after
// returning. Zero disables stepping.
func (c *FakeClock) StepEachRead(d time.Duration) {
	if d < 0 {
		panic("clock: StepEachRead called with negative duration")
	}
	c.mu.Lock()
	c.step = d
	c.mu.Unlock()
}
