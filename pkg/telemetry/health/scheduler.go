package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reservoir-hq/livesync/pkg/poller"
)

// StatusSource is anything that reports a scheduler status.
// *poller.Scheduler satisfies it for every snapshot type.
type StatusSource interface {
	Status() poller.Status
}

// SchedulerCheck returns a check for one live view. The view is unhealthy
// when its loop is not running, its last cycle failed, or its data has not
// been refreshed for staleAfter poll intervals. now defaults to time.Now.
func SchedulerCheck(src StatusSource, staleAfter int, now func() time.Time) CheckFunc {
	if staleAfter < 1 {
		staleAfter = 1
	}
	if now == nil {
		now = time.Now
	}

	return func(context.Context) error {
		st := src.Status()

		if !st.Running {
			return errors.New("scheduler not running")
		}
		if st.Err != nil {
			if st.HasData {
				return fmt.Errorf("last cycle failed, showing stale data: %w", st.Err)
			}
			return fmt.Errorf("no data yet: %w", st.Err)
		}
		if !st.HasData {
			// Still waiting for the first cycle.
			return nil
		}

		limit := time.Duration(staleAfter) * st.Interval
		if age := now().Sub(st.LastUpdated); st.Interval > 0 && age > limit {
			return fmt.Errorf("data is stale: last updated %s ago, limit %s",
				age.Truncate(time.Millisecond), limit)
		}
		return nil
	}
}

// UpstreamCheck returns a check that asks the proxy for its version. A
// proxy that answers is reachable and accepts the session.
func UpstreamCheck(version func(ctx context.Context) (string, error)) CheckFunc {
	return func(ctx context.Context) error {
		v, err := version(ctx)
		if err != nil {
			return fmt.Errorf("upstream unreachable: %w", err)
		}
		if v == "" {
			return errors.New("upstream reported an empty version")
		}
		return nil
	}
}
