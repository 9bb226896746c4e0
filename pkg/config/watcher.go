package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceInterval is the quiet period before a changed file is
// reloaded.
const DefaultDebounceInterval = 100 * time.Millisecond

// Watcher reloads a configuration file when it changes on disk.
//
// The containing directory is watched rather than the file itself, so
// editors that save through a rename still produce events.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce *Debouncer
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewWatcher creates a watcher for the configuration file at path.
func NewWatcher(path string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if path == "" {
		return nil, errors.New("config watcher: path is required")
	}
	if debounce <= 0 {
		debounce = DefaultDebounceInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config watcher: resolve %q: %w", path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		path:     abs,
		watcher:  fw,
		debounce: NewDebouncer(debounce),
		logger:   logger.With("component", "config-watcher"),
	}, nil
}

// Watch blocks until ctx is cancelled, calling onReload with each freshly
// loaded configuration. A file that fails to load or validate is logged
// and the previous configuration stays in effect.
func (w *Watcher) Watch(ctx context.Context, onReload func(*Config)) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.debounce.Stop()
		_ = w.watcher.Close()
	}()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %q: %w", filepath.Dir(w.path), err)
	}

	w.logger.Info("Config watcher started", "path", w.path)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Config watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}

			w.logger.Debug("Config file event", "op", event.Op.String())

			w.debounce.Trigger(func() {
				cfg, err := LoadConfigWithEnvOverrides(w.path)
				if err != nil {
					w.logger.Error("Config reload failed, keeping previous configuration", "error", err)
					return
				}
				SetConfig(cfg)
				w.logger.Info("Configuration reloaded",
					"update_interval", cfg.Dashboard.UpdateInterval,
				)
				if onReload != nil {
					onReload(cfg)
				}
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.logger.Error("Config watcher error", "error", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	return filepath.Clean(event.Name) == w.path
}

// Debouncer collects rapid events and runs the latest callback only after
// a quiet period.
type Debouncer struct {
	interval time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	callback func()
	stopped  bool
}

// NewDebouncer creates a new debouncer.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Trigger schedules callback, replacing any pending one.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.callback = callback
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	cb := d.callback
	d.callback = nil
	stopped := d.stopped
	d.mu.Unlock()

	if cb != nil && !stopped {
		cb()
	}
}

// Stop cancels any pending callback. It is safe to call more than once.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.callback = nil
}
