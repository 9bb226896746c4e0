package history

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"reservoir-hq/livesync/pkg/config"
)

// RetentionConfig controls what the Pruner deletes.
type RetentionConfig struct {
	// RetentionDays is how long records are kept. 0 keeps them forever.
	RetentionDays int

	// MaxRecords caps the number of stored records. 0 means unlimited.
	MaxRecords int64

	// PruneSchedule is the cron expression the Pruner runs on.
	// Example: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string
}

// RetentionFromConfig extracts the retention settings from cfg.
func RetentionFromConfig(cfg config.HistoryConfig) *RetentionConfig {
	return &RetentionConfig{
		RetentionDays: cfg.RetentionDays,
		MaxRecords:    cfg.MaxRecords,
		PruneSchedule: cfg.PruneSchedule,
	}
}

// Pruner enforces retention on a Storage, on demand or on a cron schedule.
type Pruner struct {
	storage Storage
	config  *RetentionConfig
	now     func() time.Time
	logger  *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool

	// stop releases the context watcher; released is closed once it exits.
	stop     chan struct{}
	released chan struct{}
}

// NewPruner creates a Pruner. A nil logger uses slog.Default().
func NewPruner(storage Storage, config *RetentionConfig, logger *slog.Logger) *Pruner {
	if config == nil {
		config = &RetentionConfig{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		storage: storage,
		config:  config,
		now:     time.Now,
		logger:  logger.With("component", "history.retention"),
	}
}

// Prune deletes records older than the retention period, then the oldest
// records beyond MaxRecords. It returns the total number deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.RetentionDays > 0 {
		cutoff := p.now().AddDate(0, 0, -p.config.RetentionDays)
		deleted, err := p.storage.DeleteBefore(ctx, cutoff)
		if err != nil {
			return total, fmt.Errorf("prune by age: %w", err)
		}
		total += deleted
	}

	if p.config.MaxRecords > 0 {
		count, err := p.storage.Count(ctx, &Query{})
		if err != nil {
			return total, fmt.Errorf("count records: %w", err)
		}
		if excess := count - p.config.MaxRecords; excess > 0 {
			deleted, err := p.storage.DeleteOldest(ctx, excess)
			if err != nil {
				return total, fmt.Errorf("prune by count: %w", err)
			}
			total += deleted
		}
	}

	if total > 0 {
		p.logger.Info("history pruned",
			"deleted_count", total,
			"retention_days", p.config.RetentionDays,
			"max_records", p.config.MaxRecords,
		)
	} else {
		p.logger.Debug("history pruning found nothing to delete")
	}
	return total, nil
}

// Start runs Prune on the configured schedule until ctx is done or Stop is
// called. An empty schedule does nothing.
func (p *Pruner) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}
	if p.config.PruneSchedule == "" {
		p.logger.Info("prune schedule not configured, skipping scheduler")
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(p.config.PruneSchedule, func() {
		if _, err := p.Prune(ctx); err != nil {
			p.logger.Error("scheduled pruning failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", p.config.PruneSchedule, err)
	}

	c.Start()
	p.cron = c
	p.running = true
	p.stop = make(chan struct{})
	p.released = make(chan struct{})

	p.logger.Info("retention scheduler started",
		"schedule", p.config.PruneSchedule,
		"retention_days", p.config.RetentionDays,
		"max_records", p.config.MaxRecords,
	)

	go watchContext(ctx, p.stop, p.released, p.Stop)
	return nil
}

// watchContext calls stop when ctx is done, and returns early when the stop
// channel closes first.
func watchContext(ctx context.Context, stopped <-chan struct{}, released chan<- struct{}, stop func()) {
	defer close(released)
	select {
	case <-ctx.Done():
		stop()
	case <-stopped:
	}
}

// Stop stops the schedule and waits for a running prune to finish.
func (p *Pruner) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	<-p.cron.Stop().Done()
	close(p.stop)
	p.running = false
	p.logger.Info("retention scheduler stopped")
}

// IsRunning reports whether the schedule is active.
func (p *Pruner) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// NextRun returns the next scheduled prune, or nil when not running.
func (p *Pruner) NextRun() *time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return nil
	}
	entries := p.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
