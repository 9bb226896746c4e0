package poller

import "time"

// Clock abstracts time for the scheduler loop.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) Timer
}

// Timer is the subset of *time.Timer the loop uses.
type Timer interface {
	C() <-chan time.Time
	Stop() bool
}

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) NewTimer(d time.Duration) Timer {
	return systemTimer{time.NewTimer(d)}
}

type systemTimer struct {
	t *time.Timer
}

func (t systemTimer) C() <-chan time.Time { return t.t.C }
func (t systemTimer) Stop() bool         { return t.t.Stop() }
