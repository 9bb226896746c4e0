package history

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"reservoir-hq/livesync/pkg/changes"
	"reservoir-hq/livesync/pkg/poller"
)

// RecorderConfig contains configuration for the Recorder.
type RecorderConfig struct {
	// AsyncBuffer is the size of the write queue. Records arriving while the
	// queue is full are dropped.
	// Default: 256
	AsyncBuffer int

	// WriteTimeout bounds a single Store call.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultRecorderConfig returns the default recorder configuration.
func DefaultRecorderConfig() *RecorderConfig {
	return &RecorderConfig{
		AsyncBuffer:  256,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder writes cycle records to a Storage from a background goroutine.
// Its Record method is a changes.Sink.
type Recorder struct {
	storage Storage
	config  *RecorderConfig
	logger  *slog.Logger

	mu      sync.RWMutex
	closed  bool
	records chan *Record
	wg      sync.WaitGroup

	written atomic.Int64
	dropped atomic.Int64
}

// NewRecorder starts a Recorder writing to storage.
func NewRecorder(storage Storage, config *RecorderConfig, logger *slog.Logger) *Recorder {
	if config == nil {
		config = DefaultRecorderConfig()
	}
	if config.AsyncBuffer <= 0 {
		config.AsyncBuffer = DefaultRecorderConfig().AsyncBuffer
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultRecorderConfig().WriteTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		storage: storage,
		config:  config,
		logger:  logger.With("component", "history.recorder"),
		records: make(chan *Record, config.AsyncBuffer),
	}
	r.wg.Go(r.worker)
	return r
}

// Record enqueues a record for result. Cancelled cycles are not recorded.
// It never blocks.
func (r *Recorder) Record(result poller.CycleResult, change *changes.Change) {
	if result.Cancelled {
		return
	}
	rec := NewRecord(result, change)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}

	select {
	case r.records <- rec:
	default:
		r.dropped.Add(1)
		r.logger.Warn("history queue full, dropping cycle record",
			"scheduler", rec.Scheduler,
			"buffer", r.config.AsyncBuffer,
		)
	}
}

// Hook adapts Record to a poller.CycleHook for schedulers that do not track
// changes.
func (r *Recorder) Hook() poller.CycleHook {
	return func(result poller.CycleResult) { r.Record(result, nil) }
}

// Written returns the number of records stored so far.
func (r *Recorder) Written() int64 { return r.written.Load() }

// Dropped returns the number of records dropped on a full queue.
func (r *Recorder) Dropped() int64 { return r.dropped.Load() }

// Close stops accepting records and waits until the queue is drained. It
// does not close the storage.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.records)
	r.mu.Unlock()

	r.wg.Wait()
	r.logger.Debug("history recorder closed",
		"written", r.written.Load(),
		"dropped", r.dropped.Load(),
	)
	return nil
}

func (r *Recorder) worker() {
	for rec := range r.records {
		r.write(rec)
	}
}

func (r *Recorder) write(rec *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	if err := r.storage.Store(ctx, rec); err != nil {
		r.logger.Error("failed to store cycle record",
			"record_id", rec.ID,
			"scheduler", rec.Scheduler,
			"error", err,
		)
		return
	}
	r.written.Add(1)
}
