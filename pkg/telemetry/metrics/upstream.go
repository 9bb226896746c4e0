package metrics

import (
	"time"

	"reservoir-hq/livesync/pkg/snapshot"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsView reads the live metrics snapshot under the owner's lock. The
// View method of a *poller.Scheduler[*snapshot.Metrics] satisfies it.
type MetricsView func(fn func(*snapshot.Metrics)) bool

type upstreamMetric struct {
	desc      *prometheus.Desc
	valueType prometheus.ValueType
	value     func(m *snapshot.Metrics, now time.Time) (float64, bool)
}

// UpstreamCollector is a prometheus.Collector over the most recent
// reconciled snapshot. It emits nothing until the first snapshot arrives.
type UpstreamCollector struct {
	view    MetricsView
	now     func() time.Time
	metrics []upstreamMetric
}

// NewUpstreamCollector returns a collector reading from view. now defaults
// to time.Now and is used for the uptime gauge.
func NewUpstreamCollector(namespace string, view MetricsView, now func() time.Time) *UpstreamCollector {
	if now == nil {
		now = time.Now
	}

	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "upstream", name), help, nil, nil)
	}
	cache := func(f func(c *snapshot.CacheMetrics) float64) func(*snapshot.Metrics, time.Time) (float64, bool) {
		return func(m *snapshot.Metrics, _ time.Time) (float64, bool) {
			if m.Cache == nil {
				return 0, false
			}
			return f(m.Cache), true
		}
	}
	requests := func(f func(r *snapshot.RequestMetrics) float64) func(*snapshot.Metrics, time.Time) (float64, bool) {
		return func(m *snapshot.Metrics, _ time.Time) (float64, bool) {
			if m.Requests == nil {
				return 0, false
			}
			return f(m.Requests), true
		}
	}
	system := func(f func(s *snapshot.SystemMetrics, now time.Time) float64) func(*snapshot.Metrics, time.Time) (float64, bool) {
		return func(m *snapshot.Metrics, now time.Time) (float64, bool) {
			if m.System == nil {
				return 0, false
			}
			return f(m.System, now), true
		}
	}

	return &UpstreamCollector{
		view: view,
		now:  now,
		metrics: []upstreamMetric{
			{desc("cache_hits_total", "Cache hits reported by the proxy"), prometheus.CounterValue,
				cache(func(c *snapshot.CacheMetrics) float64 { return float64(c.CacheHits) })},
			{desc("cache_misses_total", "Cache misses reported by the proxy"), prometheus.CounterValue,
				cache(func(c *snapshot.CacheMetrics) float64 { return float64(c.CacheMisses) })},
			{desc("cache_evictions_total", "Cache evictions reported by the proxy"), prometheus.CounterValue,
				cache(func(c *snapshot.CacheMetrics) float64 { return float64(c.CacheEvictions) })},
			{desc("cache_entries", "Entries currently cached"), prometheus.GaugeValue,
				cache(func(c *snapshot.CacheMetrics) float64 { return float64(c.CacheEntries) })},
			{desc("cache_bytes", "Bytes currently cached"), prometheus.GaugeValue,
				cache(func(c *snapshot.CacheMetrics) float64 { return float64(c.BytesCached) })},
			{desc("cache_hit_ratio", "Hits over hits plus misses"), prometheus.GaugeValue,
				cache(func(c *snapshot.CacheMetrics) float64 { return c.HitRatio() })},
			{desc("requests_total", "Proxied HTTP and HTTPS requests"), prometheus.CounterValue,
				requests(func(r *snapshot.RequestMetrics) float64 { return float64(r.TotalRequests()) })},
			{desc("upstream_requests_total", "Requests the proxy sent upstream"), prometheus.CounterValue,
				requests(func(r *snapshot.RequestMetrics) float64 { return float64(r.UpstreamRequests) })},
			{desc("bytes_served_total", "Bytes served to clients"), prometheus.CounterValue,
				requests(func(r *snapshot.RequestMetrics) float64 { return float64(r.BytesServed) })},
			{desc("goroutines", "Goroutines in the proxy process"), prometheus.GaugeValue,
				system(func(s *snapshot.SystemMetrics, _ time.Time) float64 { return float64(s.NumGoroutines) })},
			{desc("memory_alloc_bytes", "Heap bytes allocated by the proxy"), prometheus.GaugeValue,
				system(func(s *snapshot.SystemMetrics, _ time.Time) float64 { return float64(s.MemAllocBytes) })},
			{desc("uptime_seconds", "Seconds since the proxy started"), prometheus.GaugeValue,
				system(func(s *snapshot.SystemMetrics, now time.Time) float64 { return s.Uptime(now).Seconds() })},
		},
	}
}

// Describe implements prometheus.Collector.
func (u *UpstreamCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range u.metrics {
		ch <- m.desc
	}
}

// Collect implements prometheus.Collector.
func (u *UpstreamCollector) Collect(ch chan<- prometheus.Metric) {
	now := u.now()
	var out []prometheus.Metric

	u.view(func(snap *snapshot.Metrics) {
		if snap == nil {
			return
		}
		for _, m := range u.metrics {
			if v, ok := m.value(snap, now); ok {
				out = append(out, prometheus.MustNewConstMetric(m.desc, m.valueType, v))
			}
		}
	})

	// Send outside the view so a slow scrape never holds the state lock.
	for _, metric := range out {
		ch <- metric
	}
}
