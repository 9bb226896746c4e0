package history

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"
)

// MemoryStorage keeps records in a slice. It is used by tests and when the
// history path is empty.
type MemoryStorage struct {
	mu      sync.RWMutex
	records []*Record
	closed  bool
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

var errClosed = errors.New("storage is closed")

// Store appends a copy of record.
func (s *MemoryStorage) Store(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storageError("memory", "store", errClosed)
	}
	cp := *record
	cp.Paths = slices.Clone(record.Paths)
	s.records = append(s.records, &cp)
	return nil
}

// Query returns copies of the matching records.
func (s *MemoryStorage) Query(_ context.Context, q *Query) ([]*Record, error) {
	if q == nil {
		q = &Query{}
	}
	s.mu.RLock()
	matched := s.match(q)
	s.mu.RUnlock()

	slices.SortStableFunc(matched, func(a, b *Record) int {
		if c := a.Started.Compare(b.Started); c != 0 {
			if q.Ascending {
				return c
			}
			return -c
		}
		return 0
	})

	if q.Offset >= len(matched) {
		return []*Record{}, nil
	}
	matched = matched[q.Offset:]
	if n := q.limit(); len(matched) > n {
		matched = matched[:n]
	}

	out := make([]*Record, len(matched))
	for i, r := range matched {
		cp := *r
		out[i] = &cp
	}
	return out, nil
}

// Count returns the number of matching records.
func (s *MemoryStorage) Count(_ context.Context, q *Query) (int64, error) {
	if q == nil {
		q = &Query{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.match(q))), nil
}

// DeleteBefore removes records that started before cutoff.
func (s *MemoryStorage) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.records)
	s.records = slices.DeleteFunc(s.records, func(r *Record) bool {
		return r.Started.Before(cutoff)
	})
	return int64(before - len(s.records)), nil
}

// DeleteOldest removes the n oldest records.
func (s *MemoryStorage) DeleteOldest(_ context.Context, n int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 {
		return 0, nil
	}
	slices.SortStableFunc(s.records, func(a, b *Record) int {
		return a.Started.Compare(b.Started)
	})
	n = min(n, int64(len(s.records)))
	s.records = slices.Delete(s.records, 0, int(n))
	return n, nil
}

// Close marks the storage closed.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) match(q *Query) []*Record {
	var out []*Record
	for _, r := range s.records {
		switch {
		case q.Scheduler != "" && r.Scheduler != q.Scheduler:
		case !q.Since.IsZero() && r.Started.Before(q.Since):
		case !q.Until.IsZero() && r.Started.After(q.Until):
		case q.ChangedOnly && !r.Changed:
		case q.FailedOnly && !r.Failed():
		default:
			out = append(out, r)
		}
	}
	return out
}
