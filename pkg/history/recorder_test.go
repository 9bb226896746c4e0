package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"reservoir-hq/livesync/pkg/changes"
	"reservoir-hq/livesync/pkg/poller"
)

func TestRecorder_WritesOnClose(t *testing.T) {
	store := NewMemoryStorage()
	rec := NewRecorder(store, nil, nil)

	for i := range 10 {
		rec.Record(poller.CycleResult{
			Name:    "metrics",
			Started: base.Add(time.Duration(i) * time.Second),
			Changed: i%2 == 0,
		}, nil)
	}
	rec.Record(poller.CycleResult{Name: "metrics", Cancelled: true}, nil)

	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	n, _ := store.Count(context.Background(), nil)
	if n != 10 {
		t.Errorf("stored %d records, want 10", n)
	}
	if rec.Written() != 10 {
		t.Errorf("Written() = %d, want 10", rec.Written())
	}

	// Records after Close are ignored.
	rec.Record(poller.CycleResult{Name: "metrics"}, nil)
	if err := rec.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestRecorder_KeepsPatch(t *testing.T) {
	store := NewMemoryStorage()
	rec := NewRecorder(store, nil, nil)

	rec.Record(poller.CycleResult{Name: "metrics", Started: base, Changed: true}, &changes.Change{
		Patch: []byte(`{"a":1}`),
		Paths: []string{"a"},
	})
	rec.Hook()(poller.CycleResult{Name: "config", Started: base.Add(time.Second)})
	rec.Close()

	got, _ := store.Query(context.Background(), &Query{Ascending: true})
	if len(got) != 2 {
		t.Fatalf("stored %d records, want 2", len(got))
	}
	if string(got[0].Patch) != `{"a":1}` || len(got[0].Paths) != 1 {
		t.Errorf("first record patch = %s paths = %v", got[0].Patch, got[0].Paths)
	}
	if got[1].Patch != nil {
		t.Errorf("hook record has a patch: %s", got[1].Patch)
	}
}

// blockingStorage holds every Store until released.
type blockingStorage struct {
	*MemoryStorage
	release chan struct{}
}

func (b *blockingStorage) Store(ctx context.Context, r *Record) error {
	select {
	case <-b.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return b.MemoryStorage.Store(ctx, r)
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	store := &blockingStorage{MemoryStorage: NewMemoryStorage(), release: make(chan struct{})}
	rec := NewRecorder(store, &RecorderConfig{AsyncBuffer: 1, WriteTimeout: time.Minute}, nil)

	// One record is taken by the worker, one sits in the queue, the rest
	// overflow. The worker may not have dequeued yet, so at least
	// total-2 are dropped.
	const total = 10
	for range total {
		rec.Record(poller.CycleResult{Name: "metrics"}, nil)
	}
	if rec.Dropped() < total-2 {
		t.Errorf("Dropped() = %d, want at least %d", rec.Dropped(), total-2)
	}

	close(store.release)
	rec.Close()

	if got := rec.Written() + rec.Dropped(); got != total {
		t.Errorf("written + dropped = %d, want %d", got, total)
	}
}

type failingStorage struct{ *MemoryStorage }

func (failingStorage) Store(context.Context, *Record) error { return errors.New("disk full") }

func TestRecorder_StoreErrorIsLogged(t *testing.T) {
	rec := NewRecorder(failingStorage{NewMemoryStorage()}, nil, nil)
	rec.Record(poller.CycleResult{Name: "metrics"}, nil)
	rec.Close()

	if rec.Written() != 0 {
		t.Errorf("Written() = %d, want 0", rec.Written())
	}
}
