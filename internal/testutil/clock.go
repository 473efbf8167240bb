// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"sync"
	"time"
)

type (
	// FakeClock hands out After channels that fire only when the test moves
	// time forward with Advance.
	FakeClock struct {
		mu      sync.Mutex
		current time.Time
		timers  []fakeTimer
	}

	fakeTimer struct {
		due time.Time
		ch  chan time.Time
	}
)

// NewFakeClock returns a FakeClock starting at start, or at 2020-01-01 UTC
// when start is zero.
func NewFakeClock(start time.Time) *FakeClock {
	if start.IsZero() {
		start = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return &FakeClock{current: start}
}

// After returns a channel that fires once Advance reaches now+d. A
// non-positive d fires immediately.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.current
		return ch
	}
	c.timers = append(c.timers, fakeTimer{due: c.current.Add(d), ch: ch})
	return ch
}

// Advance moves time forward by d and fires every timer that is now due.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = c.current.Add(d)
	pending := c.timers[:0]
	for _, tm := range c.timers {
		if c.current.Before(tm.due) {
			pending = append(pending, tm)
			continue
		}
		tm.ch <- c.current
	}
	c.timers = pending
}

// BlockUntilWaiters returns once at least n After channels are pending, so a
// test only advances after the code under test has started waiting.
func (c *FakeClock) BlockUntilWaiters(n int) {
	for {
		c.mu.Lock()
		pending := len(c.timers)
		c.mu.Unlock()
		if pending >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
}
