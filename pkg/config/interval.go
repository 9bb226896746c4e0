package config

import (
	"sync/atomic"
	"time"
)

// IntervalSource publishes dashboard.update_interval to running pollers.
// It satisfies poller.IntervalProvider, so a reload that changes the
// interval takes effect on the next wait without restarting any loop.
type IntervalSource struct {
	d atomic.Int64
}

// NewIntervalSource returns a source seeded from cfg.
func NewIntervalSource(cfg *Config) *IntervalSource {
	s := &IntervalSource{}
	s.Update(cfg)
	return s
}

// Update adopts the interval of cfg. A nil cfg is ignored.
func (s *IntervalSource) Update(cfg *Config) {
	if cfg == nil {
		return
	}
	s.d.Store(int64(cfg.Dashboard.UpdateInterval))
}

// CurrentInterval returns the most recently published interval.
func (s *IntervalSource) CurrentInterval() time.Duration {
	return time.Duration(s.d.Load())
}
