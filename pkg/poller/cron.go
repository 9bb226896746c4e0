package poller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Refresher runs one out-of-band cycle. *Scheduler implements it.
type Refresher interface {
	Name() string
	RefreshOnce(ctx context.Context) error
}

// CronTrigger refreshes slow-moving views, such as the proxy config, on a
// cron schedule instead of the adaptive poll loop.
type CronTrigger struct {
	schedule string
	target   Refresher
	timeout  time.Duration
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool

	// stop releases the context watcher; released is closed once it exits.
	stop     chan struct{}
	released chan struct{}
}

// NewCronTrigger creates a trigger that calls target.RefreshOnce on the
// standard five-field cron schedule. Each run is bounded by timeout when it
// is positive. A nil logger uses slog.Default().
func NewCronTrigger(schedule string, target Refresher, timeout time.Duration, logger *slog.Logger) *CronTrigger {
	if logger == nil {
		logger = slog.Default()
	}
	return &CronTrigger{
		schedule: schedule,
		target:   target,
		timeout:  timeout,
		cron:     cron.New(),
		logger:   logger.With("component", "poller.cron", "scheduler", target.Name()),
	}
}

// Start schedules the refresh. An empty schedule leaves the trigger idle.
// The trigger stops itself when ctx is cancelled.
//
// Common cron expressions:
//   - "*/5 * * * *" - Every 5 minutes
//   - "0 * * * *"   - Hourly
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}
	if c.schedule == "" {
		c.logger.Info("refresh schedule not configured, skipping cron trigger")
		return nil
	}

	if _, err := cron.ParseStandard(c.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", c.schedule, err)
	}

	c.cron = cron.New()
	if _, err := c.cron.AddFunc(c.schedule, func() {
		c.run(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}

	c.cron.Start()
	c.running = true
	c.stop = make(chan struct{})
	c.released = make(chan struct{})
	stop, released := c.stop, c.released

	c.logger.Info("cron trigger started", "schedule", c.schedule)

	go func() {
		defer close(released)
		select {
		case <-ctx.Done():
			c.Stop()
		case <-stop:
		}
	}()

	return nil
}

func (c *CronTrigger) run(ctx context.Context) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.target.RefreshOnce(ctx); err != nil {
		c.logger.Warn("scheduled refresh failed", "error", err)
		return
	}
	c.logger.Debug("scheduled refresh completed")
}

// Stop stops the trigger and waits for a running refresh to finish.
func (c *CronTrigger) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return
	}
	stopped := c.cron.Stop()
	<-stopped.Done()
	close(c.stop)
	c.running = false
	c.logger.Info("cron trigger stopped")
}

// IsRunning reports whether the trigger is scheduled.
func (c *CronTrigger) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// NextRun returns the next scheduled refresh, or nil when idle.
func (c *CronTrigger) NextRun() *time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.cron.Entries()
	if !c.running || len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
