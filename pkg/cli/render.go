package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"reservoir-hq/livesync/pkg/changes"
	"reservoir-hq/livesync/pkg/history"
	"reservoir-hq/livesync/pkg/patch"
	"reservoir-hq/livesync/pkg/poller"
	"reservoir-hq/livesync/pkg/snapshot"
)

// Renderer prints live state for humans.
type Renderer struct {
	w   io.Writer
	now func() time.Time
}

// NewRenderer returns a Renderer writing to w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w, now: time.Now}
}

// Metrics prints every group present in m.
func (r *Renderer) Metrics(m *snapshot.Metrics) error {
	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)

	if c := m.Cache; c != nil {
		fmt.Fprintln(tw, "CACHE")
		fmt.Fprintf(tw, "  hits\t%s\thit ratio\t%.1f%%\n", humanize.Comma(c.CacheHits), c.HitRatio()*100)
		fmt.Fprintf(tw, "  misses\t%s\terrors\t%s\n", humanize.Comma(c.CacheMisses), humanize.Comma(c.CacheErrors))
		fmt.Fprintf(tw, "  entries\t%s\tsize\t%s\n", humanize.Comma(c.CacheEntries), byteSize(c.BytesCached))
		fmt.Fprintf(tw, "  evictions\t%s\tcleaned\t%s in %s runs\n",
			humanize.Comma(c.CacheEvictions), byteSize(c.BytesCleaned), humanize.Comma(c.CleanupRuns))
		fmt.Fprintf(tw, "  avg hit latency\t%s\tavg miss latency\t%s\n",
			average(c.CacheHitLatency, c.CacheHits), average(c.CacheMissLatency, c.CacheMisses))
	}

	if q := m.Requests; q != nil {
		fmt.Fprintln(tw, "REQUESTS")
		fmt.Fprintf(tw, "  total\t%s\thttp / https\t%s / %s\n",
			humanize.Comma(q.TotalRequests()), humanize.Comma(q.HTTPProxyRequests), humanize.Comma(q.HTTPSProxyRequests))
		fmt.Fprintf(tw, "  served\t%s\tfetched\t%s\n", byteSize(q.BytesServed), byteSize(q.BytesFetched))
		fmt.Fprintf(tw, "  upstream\t%s\tcoalesced\t%s\n",
			humanize.Comma(q.UpstreamRequests), humanize.Comma(q.CoalescedRequests))
		fmt.Fprintf(tw, "  2xx / 4xx / 5xx\t%s / %s / %s\t\t\n",
			humanize.Comma(q.StatusOKResponses),
			humanize.Comma(q.StatusClientErrorResponses),
			humanize.Comma(q.StatusServerErrorResponses))
		fmt.Fprintf(tw, "  avg client latency\t%s\tavg upstream latency\t%s\n",
			average(q.ClientRequestLatency, q.TotalRequests()), average(q.UpstreamRequestLatency, q.UpstreamRequests))
	}

	if s := m.System; s != nil {
		fmt.Fprintln(tw, "SYSTEM")
		fmt.Fprintf(tw, "  goroutines\t%s\tmemory\t%s (sys %s)\n",
			humanize.Comma(s.NumGoroutines), humanize.IBytes(s.MemAllocBytes), humanize.IBytes(s.MemSysBytes))
		if !s.StartTime.IsZero() {
			now := r.now()
			fmt.Fprintf(tw, "  started\t%s\tuptime\t%s\n",
				humanize.RelTime(s.StartTime, now, "ago", "from now"), s.Uptime(now).Truncate(time.Second))
		}
	}

	return tw.Flush()
}

// Document prints an opaque key/value snapshot, keys sorted.
func (r *Renderer) Document(doc patch.Document) error {
	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	writeDocument(tw, doc, "")
	return tw.Flush()
}

func writeDocument(w io.Writer, doc patch.Document, indent string) {
	for _, k := range slices.Sorted(maps.Keys(doc)) {
		switch v := doc[k].(type) {
		case map[string]any:
			fmt.Fprintf(w, "%s%s\t\n", indent, k)
			writeDocument(w, v, indent+"  ")
		case []any:
			parts := make([]string, len(v))
			for i, e := range v {
				parts[i] = fmt.Sprint(e)
			}
			fmt.Fprintf(w, "%s%s\t[%s]\n", indent, k, strings.Join(parts, ", "))
		case nil:
			fmt.Fprintf(w, "%s%s\t-\n", indent, k)
		default:
			fmt.Fprintf(w, "%s%s\t%v\n", indent, k, v)
		}
	}
}

// Cycle prints one line per cycle: the change summary, "no change", or the
// error.
func (r *Renderer) Cycle(res poller.CycleResult, change *changes.Change) {
	ts := res.Started.Format(time.TimeOnly)
	took := res.Duration.Round(time.Millisecond)
	switch {
	case res.Cancelled:
		return
	case res.Err != nil:
		fmt.Fprintf(r.w, "%s  %-8s  error after %s: %v\n", ts, res.Name, took, res.Err)
	case change != nil:
		fmt.Fprintf(r.w, "%s  %-8s  %s\n", ts, res.Name, change.Summary())
	default:
		fmt.Fprintf(r.w, "%s  %-8s  no change (%s)\n", ts, res.Name, took)
	}
}

// Status prints one line for a scheduler.
func (r *Renderer) Status(s poller.Status) {
	state := "stopped"
	if s.Running {
		state = "running"
	}
	updated := "never"
	if !s.LastUpdated.IsZero() {
		updated = humanize.RelTime(s.LastUpdated, r.now(), "ago", "from now")
	}
	line := fmt.Sprintf("%-8s  %s every %s, updated %s", s.Name, state, s.Interval, updated)
	if s.Err != nil {
		line += fmt.Sprintf(", last error: %v", s.Err)
	}
	fmt.Fprintln(r.w, line)
}

// History prints stored cycle records as a table.
func (r *Renderer) History(records []*history.Record) error {
	tw := tabwriter.NewWriter(r.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSCHEDULER\tTRIGGER\tDURATION\tRESULT\tCHANGES")
	now := r.now()
	for _, rec := range records {
		changed := "-"
		switch {
		case rec.First:
			changed = "initial"
		case len(rec.Paths) > 0:
			changed = humanize.Comma(int64(len(rec.Paths))) + " fields"
		case rec.Changed:
			changed = "yes"
		}
		result := rec.Result
		if rec.Failed() && rec.Error != "" {
			result += ": " + truncate(rec.Error, 60)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			humanize.RelTime(rec.Started, now, "ago", "from now"),
			rec.Scheduler, rec.Trigger,
			rec.Duration.Round(time.Millisecond), result, changed)
	}
	return tw.Flush()
}

func byteSize(n int64) string {
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return humanize.IBytes(uint64(n))
}

// average turns a cumulative nanosecond total into a per-item duration.
func average(totalNs, count int64) time.Duration {
	if count <= 0 {
		return 0
	}
	return (time.Duration(totalNs / count)).Round(time.Microsecond)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
