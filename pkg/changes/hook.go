package changes

import (
	"log/slog"

	"reservoir-hq/livesync/pkg/poller"
)

// Sink receives every cycle result together with the change it produced.
// The change is nil for failed, cancelled, and unchanged cycles.
type Sink func(result poller.CycleResult, change *Change)

// Viewer reads a scheduler's state under its read lock. It matches
// (*poller.Scheduler[T]).View.
type Viewer[T any] func(fn func(data T)) bool

// Hook returns a CycleHook that diffs the state after each changing cycle and
// hands the result to sink.
func Hook[T any](t *Tracker, view Viewer[T], sink Sink, logger *slog.Logger) poller.CycleHook {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "changes")

	return func(r poller.CycleResult) {
		var change *Change
		if r.Err == nil && !r.Cancelled && r.Changed {
			var err error
			view(func(data T) {
				change, err = t.Observe(r.Name, r.Started, data)
			})
			if err != nil {
				logger.Warn("failed to describe snapshot change",
					"scheduler", r.Name,
					"error", err,
				)
			}
		}
		sink(r, change)
	}
}

// Fanout combines sinks into one, called in order.
func Fanout(sinks ...Sink) Sink {
	return func(r poller.CycleResult, c *Change) {
		for _, s := range sinks {
			if s != nil {
				s(r, c)
			}
		}
	}
}
