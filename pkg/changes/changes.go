// Package changes describes how a live snapshot moved between two successful
// poll cycles.
//
// A Tracker keeps the last JSON rendering of every scheduler's state and
// diffs each new rendering against it as an RFC 6902 patch. The first
// observation carries the whole document instead. The patch is what the CLI
// prints and what the history store keeps, so a snapshot at any recorded
// point can be rebuilt with Replay, null leaves included.
package changes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	jsonpatch "github.com/evanphx/json-patch"
)

// Change is the difference between two renderings of one scheduler's state.
type Change struct {
	// Scheduler is the name of the scheduler whose state changed.
	Scheduler string

	// At is when the cycle that produced the change started.
	At time.Time

	// First is set for the first observation; Patch then holds the whole
	// document.
	First bool

	// Patch is an RFC 6902 patch from the previous document to the current
	// one, or the whole document when First is set.
	Patch json.RawMessage

	// Paths lists the dotted leaf paths the patch touches, sorted.
	Paths []string
}

// Tracker remembers the last document seen per scheduler.
type Tracker struct {
	mu   sync.Mutex
	last map[string][]byte
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{last: make(map[string][]byte)}
}

// Observe renders v and diffs it against the previous rendering for
// scheduler. It returns nil when the rendering is unchanged.
func (t *Tracker) Observe(scheduler string, at time.Time, v any) (*Change, error) {
	doc, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("render %s snapshot: %w", scheduler, err)
	}

	if len(doc) == 0 || doc[0] != '{' {
		return nil, fmt.Errorf("render %s snapshot: not a JSON object", scheduler)
	}

	t.mu.Lock()
	prev, seen := t.last[scheduler]
	t.last[scheduler] = doc
	t.mu.Unlock()

	if !seen {
		paths, err := Paths(doc)
		if err != nil {
			return nil, err
		}
		return &Change{Scheduler: scheduler, At: at, First: true, Patch: doc, Paths: paths}, nil
	}
	if bytes.Equal(prev, doc) {
		return nil, nil
	}

	p, err := Diff(prev, doc)
	if err != nil {
		return nil, fmt.Errorf("diff %s snapshot: %w", scheduler, err)
	}
	paths, err := Paths(p)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, nil
	}
	return &Change{Scheduler: scheduler, At: at, Patch: p, Paths: paths}, nil
}

// Last returns the last rendering seen for scheduler.
func (t *Tracker) Last(scheduler string) ([]byte, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	doc, ok := t.last[scheduler]
	return doc, ok
}

// Forget drops the remembered rendering so the next observation is a first.
func (t *Tracker) Forget(scheduler string) {
	t.mu.Lock()
	delete(t.last, scheduler)
	t.mu.Unlock()
}

// Replay rebuilds a document from base, a whole document, by applying
// patches in order. A nil base starts from an empty object. A patch that is
// a JSON array is applied as an RFC 6902 patch; an object is applied as an
// RFC 7386 merge patch.
func Replay(base []byte, patches ...[]byte) ([]byte, error) {
	doc := bytes.TrimSpace(base)
	if len(doc) == 0 {
		doc = []byte("{}")
	}
	for i, p := range patches {
		var (
			next []byte
			err  error
		)
		if isOperations(p) {
			var ops jsonpatch.Patch
			if ops, err = jsonpatch.DecodePatch(p); err == nil {
				next, err = ops.Apply(doc)
			}
		} else {
			next, err = jsonpatch.MergePatch(doc, p)
		}
		if err != nil {
			return nil, fmt.Errorf("apply patch %d: %w", i, err)
		}
		doc = next
	}
	return doc, nil
}

// Paths lists the dotted leaf paths a patch touches, sorted. For an RFC 6902
// patch these are the operation paths. For a document or merge patch they
// are the paths of its leaves; arrays and empty objects are leaves.
func Paths(patch []byte) ([]string, error) {
	var root any
	if err := json.Unmarshal(patch, &root); err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}

	var out []string
	switch v := root.(type) {
	case map[string]any:
		collect(v, "", &out)
	case []any:
		for _, item := range v {
			op, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("decode patch: operation is not an object")
			}
			ptr, _ := op["path"].(string)
			out = append(out, dotted(ptr))
		}
	default:
		return []string{""}, nil
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

func collect(obj map[string]any, prefix string, out *[]string) {
	for k, v := range obj {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if child, ok := v.(map[string]any); ok && len(child) > 0 {
			collect(child, path, out)
			continue
		}
		*out = append(*out, path)
	}
}

// dotted turns a JSON pointer such as "/cache/cache_hits" into
// "cache.cache_hits".
func dotted(ptr string) string {
	parts := strings.Split(strings.TrimPrefix(ptr, "/"), "/")
	for i, p := range parts {
		parts[i] = pointerUnescaper.Replace(p)
	}
	return strings.Join(parts, ".")
}

func isOperations(p []byte) bool {
	p = bytes.TrimSpace(p)
	return len(p) > 0 && p[0] == '['
}

// Summary is a one-line rendering of c for logs.
func (c *Change) Summary() string {
	if c.First {
		return fmt.Sprintf("%s: initial snapshot (%d fields)", c.Scheduler, len(c.Paths))
	}
	const max = 5
	shown := c.Paths
	suffix := ""
	if len(shown) > max {
		suffix = fmt.Sprintf(" and %d more", len(shown)-max)
		shown = shown[:max]
	}
	return fmt.Sprintf("%s: %s%s", c.Scheduler, strings.Join(shown, ", "), suffix)
}
