package poller

import (
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced Clock. It records every wait the loop
// asks for.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
	waits  []time.Duration
}

type fakeTimer struct {
	clock   *fakeClock
	when    time.Time
	ch      chan time.Time
	pending bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTimer(d time.Duration) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{
		clock:   c,
		when:    c.now.Add(d),
		ch:      make(chan time.Time, 1),
		pending: true,
	}
	c.timers = append(c.timers, t)
	c.waits = append(c.waits, d)
	return t
}

// Advance moves the clock forward and fires every timer that is due.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
	remaining := c.timers[:0]
	for _, t := range c.timers {
		if t.pending && !t.when.After(c.now) {
			t.pending = false
			t.ch <- c.now
			continue
		}
		if t.pending {
			remaining = append(remaining, t)
		}
	}
	c.timers = remaining
}

func (c *fakeClock) pendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, t := range c.timers {
		if t.pending {
			n++
		}
	}
	return n
}

// Waits returns the durations requested so far.
func (c *fakeClock) Waits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.waits...)
}

// BlockUntilWaiting waits until the loop has n pending timers.
func (c *fakeClock) BlockUntilWaiting(t *testing.T, n int) {
	t.Helper()
	waitFor(t, "pending timers", func() bool { return c.pendingTimers() >= n })
}

func (t *fakeTimer) C() <-chan time.Time { return t.ch }

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	was := t.pending
	t.pending = false
	return was
}

// waitFor polls cond for up to two seconds.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop goroutine did not exit")
	}
}
