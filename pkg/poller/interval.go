package poller

import (
	"sync/atomic"
	"time"
)

// DefaultInterval is used when an IntervalProvider reports a non-positive
// period.
const DefaultInterval = 10 * time.Second

// IntervalProvider supplies the polling period. It is consulted after every
// cycle, so implementations may change their answer at any time.
type IntervalProvider interface {
	CurrentInterval() time.Duration
}

// FixedInterval is a constant period.
type FixedInterval time.Duration

// CurrentInterval returns the fixed period.
func (f FixedInterval) CurrentInterval() time.Duration {
	return time.Duration(f)
}

// IntervalFunc adapts a function to IntervalProvider.
type IntervalFunc func() time.Duration

// CurrentInterval calls f.
func (f IntervalFunc) CurrentInterval() time.Duration {
	return f()
}

// AdjustableInterval is a period that can be changed concurrently, for
// example from a settings handler.
type AdjustableInterval struct {
	d atomic.Int64
}

// NewAdjustableInterval returns an AdjustableInterval starting at d.
func NewAdjustableInterval(d time.Duration) *AdjustableInterval {
	a := &AdjustableInterval{}
	a.Set(d)
	return a
}

// Set changes the period. The running loop picks it up on its next wait.
func (a *AdjustableInterval) Set(d time.Duration) {
	a.d.Store(int64(d))
}

// CurrentInterval returns the current period.
func (a *AdjustableInterval) CurrentInterval() time.Duration {
	return time.Duration(a.d.Load())
}
