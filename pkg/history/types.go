package history

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"reservoir-hq/livesync/pkg/changes"
	"reservoir-hq/livesync/pkg/fetch"
	"reservoir-hq/livesync/pkg/poller"
)

// ResultOK marks a cycle that completed without error. Failed cycles carry
// their fetch.Kind instead.
const ResultOK = "ok"

// Record is one stored poll cycle.
type Record struct {
	ID        string        `json:"id"`
	HandleID  string        `json:"handle_id"`
	Scheduler string        `json:"scheduler"`
	Trigger   string        `json:"trigger"`
	Started   time.Time     `json:"started"`
	Duration  time.Duration `json:"duration_ns"`
	Changed   bool          `json:"changed"`
	First     bool          `json:"first"`
	Result    string        `json:"result"`
	Error     string        `json:"error,omitempty"`

	// Patch is the RFC 6902 patch the cycle applied, or the whole document
	// for the first change.
	Patch json.RawMessage `json:"patch,omitempty"`

	// Paths lists the fields the patch touched.
	Paths []string `json:"paths,omitempty"`
}

// Failed reports whether the cycle ended in an error.
func (r *Record) Failed() bool {
	return r.Result != ResultOK
}

// NewRecord builds a Record from a cycle result and the change it produced.
// change may be nil.
func NewRecord(result poller.CycleResult, change *changes.Change) *Record {
	rec := &Record{
		ID:        uuid.NewString(),
		HandleID:  result.HandleID,
		Scheduler: result.Name,
		Trigger:   string(result.Trigger),
		Started:   result.Started,
		Duration:  result.Duration,
		Changed:   result.Changed,
		First:     result.First,
		Result:    ResultOK,
	}
	if result.Err != nil {
		rec.Result = string(fetch.Classify(result.Err))
		rec.Error = result.Err.Error()
	}
	if change != nil {
		rec.Patch = change.Patch
		rec.Paths = change.Paths
	}
	return rec
}

// Query filters stored records. Zero values match everything.
type Query struct {
	Scheduler string

	// Since and Until bound Started, inclusive.
	Since time.Time
	Until time.Time

	ChangedOnly bool
	FailedOnly  bool

	// Limit defaults to 100. Records come back newest first.
	Limit  int
	Offset int

	// Ascending returns the oldest records first.
	Ascending bool
}

// DefaultLimit is the page size when Query.Limit is zero.
const DefaultLimit = 100

func (q *Query) limit() int {
	if q.Limit > 0 {
		return q.Limit
	}
	return DefaultLimit
}

// Storage persists cycle records.
type Storage interface {
	// Store persists one record.
	Store(ctx context.Context, record *Record) error

	// Query returns the records matching q.
	Query(ctx context.Context, q *Query) ([]*Record, error)

	// Count returns how many records match q, ignoring Limit and Offset.
	Count(ctx context.Context, q *Query) (int64, error)

	// DeleteBefore removes records that started before cutoff.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// DeleteOldest removes the n oldest records.
	DeleteOldest(ctx context.Context, n int64) (int64, error)

	// Close releases the backend.
	Close() error
}
