package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestIntervalSource(t *testing.T) {
	cfg := Default()
	src := NewIntervalSource(cfg)

	if got := src.CurrentInterval(); got != DefaultUpdateInterval {
		t.Errorf("CurrentInterval() = %v, want %v", got, DefaultUpdateInterval)
	}

	next := Default()
	next.Dashboard.UpdateInterval = 3 * time.Second
	src.Update(next)
	src.Update(nil)

	if got := src.CurrentInterval(); got != 3*time.Second {
		t.Errorf("CurrentInterval() = %v, want 3s", got)
	}
}

func TestDebouncer_CoalescesTriggers(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	var calls, last atomic.Int32
	for i := int32(1); i <= 5; i++ {
		d.Trigger(func() {
			calls.Add(1)
			last.Store(i)
		})
	}

	time.Sleep(100 * time.Millisecond)

	if got := calls.Load(); got != 1 {
		t.Errorf("callback ran %d times, want 1", got)
	}
	if got := last.Load(); got != 5 {
		t.Errorf("ran callback %d, want the latest (5)", got)
	}
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })
	d.Stop()
	d.Stop()
	d.Trigger(func() { calls.Add(1) })

	time.Sleep(60 * time.Millisecond)

	if got := calls.Load(); got != 0 {
		t.Errorf("callback ran %d times after Stop", got)
	}
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	resetGlobal(t)
	path := writeConfig(t, t.TempDir(), "dashboard:\n  update_interval: 5s\n")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	w, err := NewWatcher(path, 10*time.Millisecond, logger)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	src := NewIntervalSource(Default())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx, src.Update) }()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher a moment to register the directory.
	time.Sleep(50 * time.Millisecond)

	// An invalid file must not be adopted.
	if err := os.WriteFile(path, []byte("dashboard:\n  update_interval: 1ms\n"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if got := src.CurrentInterval(); got != DefaultUpdateInterval {
		t.Fatalf("invalid config was applied: interval %v", got)
	}

	// Write through a rename, the way most editors save.
	tmp := filepath.Join(filepath.Dir(path), "livesync.yaml.tmp")
	if err := os.WriteFile(tmp, []byte("dashboard:\n  update_interval: 2s\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for src.CurrentInterval() != 2*time.Second {
		if time.Now().After(deadline) {
			t.Fatalf("interval not reloaded, still %v", src.CurrentInterval())
		}
		time.Sleep(10 * time.Millisecond)
	}

	if cfg := GetConfig(); cfg == nil || cfg.Dashboard.UpdateInterval != 2*time.Second {
		t.Error("global configuration was not updated")
	}
}

func TestWatcher_StopsOnContextCancel(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "")
	w, err := NewWatcher(path, 0, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx, nil) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancellation")
	}
}

func TestNewWatcher_RequiresPath(t *testing.T) {
	if _, err := NewWatcher("", 0, nil); err == nil {
		t.Error("expected error for empty path")
	}
}
