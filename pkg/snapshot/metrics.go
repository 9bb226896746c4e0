// Package snapshot holds the shapes of the snapshots served by the proxy's
// dashboard API and knows how to reconcile each of them into live state.
//
// Metrics are closed typed records: every group reconciles itself field by
// field with the patch primitives, so an unchanged group keeps its pointer
// and a changed one is mutated in place. The config endpoint is an opaque
// key/value document and goes through the dynamic patch.Document path.
package snapshot

import (
	"time"

	"reservoir-hq/livesync/pkg/patch"
)

// Metrics is the full snapshot served by /api/metrics.
type Metrics struct {
	Cache    *CacheMetrics   `json:"cache,omitempty"`
	Requests *RequestMetrics `json:"requests,omitempty"`
	System   *SystemMetrics  `json:"system,omitempty"`
}

// CacheMetrics is the "cache" group, also served alone by /api/metrics/cache.
// Latencies are cumulative nanoseconds.
type CacheMetrics struct {
	CacheHits        int64 `json:"cache_hits"`
	CacheMisses      int64 `json:"cache_misses"`
	CacheErrors      int64 `json:"cache_errors"`
	CacheEntries     int64 `json:"cache_entries"`
	BytesCached      int64 `json:"bytes_cached"`
	CleanupRuns      int64 `json:"cleanup_runs"`
	BytesCleaned     int64 `json:"bytes_cleaned"`
	CacheEvictions   int64 `json:"cache_evictions"`
	CacheHitLatency  int64 `json:"cache_hit_latency"`
	CacheMissLatency int64 `json:"cache_miss_latency"`
}

// RequestMetrics is the "requests" group, also served alone by
// /api/metrics/requests.
type RequestMetrics struct {
	HTTPProxyRequests           int64 `json:"http_proxy_requests"`
	HTTPSProxyRequests          int64 `json:"https_proxy_requests"`
	BytesServed                 int64 `json:"bytes_served"`
	BytesFetched                int64 `json:"bytes_fetched"`
	UpstreamRequests            int64 `json:"upstream_requests"`
	ClientRequestLatency        int64 `json:"client_request_latency"`
	UpstreamRequestLatency      int64 `json:"upstream_request_latency"`
	CoalescedRequests           int64 `json:"coalesced_requests"`
	NonCoalescedRequests        int64 `json:"non_coalesced_requests"`
	CoalescedCacheHits          int64 `json:"coalesced_cache_hits"`
	CoalescedCacheRevalidations int64 `json:"coalesced_cache_revalidations"`
	CoalescedCacheMisses        int64 `json:"coalesced_cache_misses"`
	StatusOKResponses           int64 `json:"status_ok_responses"`
	StatusClientErrorResponses  int64 `json:"status_client_error_responses"`
	StatusServerErrorResponses  int64 `json:"status_server_error_responses"`
}

// SystemMetrics is the "system" group, also served alone by
// /api/metrics/system.
type SystemMetrics struct {
	NumGoroutines      int64     `json:"num_goroutines"`
	MemAllocBytes      uint64    `json:"mem_alloc_bytes"`
	MemTotalAllocBytes uint64    `json:"mem_total_alloc_bytes"`
	MemSysBytes        uint64    `json:"mem_sys_bytes"`
	StartTime          time.Time `json:"start_time"`
}

// Reconcile patches src into m in place and reports whether anything
// changed. A group missing from src is left untouched; a group missing from
// m is adopted as a copy.
func (m *Metrics) Reconcile(src *Metrics, o patch.Options) bool {
	mustTarget(m == nil, "metrics")
	if src == nil {
		return false
	}
	changed := reconcileGroup(&m.Cache, src.Cache, o)
	changed = reconcileGroup(&m.Requests, src.Requests, o) || changed
	changed = reconcileGroup(&m.System, src.System, o) || changed
	return changed
}

// Clone returns a deep copy of m.
func (m *Metrics) Clone() *Metrics {
	if m == nil {
		return nil
	}
	return &Metrics{
		Cache:    m.Cache.Clone(),
		Requests: m.Requests.Clone(),
		System:   m.System.Clone(),
	}
}

// Reconcile patches src into c field by field.
func (c *CacheMetrics) Reconcile(src *CacheMetrics, o patch.Options) bool {
	mustTarget(c == nil, "cache metrics")
	if src == nil {
		return false
	}
	changed := patch.Scalar(&c.CacheHits, src.CacheHits, o)
	changed = patch.Scalar(&c.CacheMisses, src.CacheMisses, o) || changed
	changed = patch.Scalar(&c.CacheErrors, src.CacheErrors, o) || changed
	changed = patch.Scalar(&c.CacheEntries, src.CacheEntries, o) || changed
	changed = patch.Scalar(&c.BytesCached, src.BytesCached, o) || changed
	changed = patch.Scalar(&c.CleanupRuns, src.CleanupRuns, o) || changed
	changed = patch.Scalar(&c.BytesCleaned, src.BytesCleaned, o) || changed
	changed = patch.Scalar(&c.CacheEvictions, src.CacheEvictions, o) || changed
	changed = patch.Scalar(&c.CacheHitLatency, src.CacheHitLatency, o) || changed
	changed = patch.Scalar(&c.CacheMissLatency, src.CacheMissLatency, o) || changed
	return changed
}

// Clone returns a copy of c.
func (c *CacheMetrics) Clone() *CacheMetrics {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// HitRatio returns hits / (hits + misses), or 0 before any lookup.
func (c *CacheMetrics) HitRatio() float64 {
	total := c.CacheHits + c.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(c.CacheHits) / float64(total)
}

// Reconcile patches src into r field by field.
func (r *RequestMetrics) Reconcile(src *RequestMetrics, o patch.Options) bool {
	mustTarget(r == nil, "request metrics")
	if src == nil {
		return false
	}
	changed := patch.Scalar(&r.HTTPProxyRequests, src.HTTPProxyRequests, o)
	changed = patch.Scalar(&r.HTTPSProxyRequests, src.HTTPSProxyRequests, o) || changed
	changed = patch.Scalar(&r.BytesServed, src.BytesServed, o) || changed
	changed = patch.Scalar(&r.BytesFetched, src.BytesFetched, o) || changed
	changed = patch.Scalar(&r.UpstreamRequests, src.UpstreamRequests, o) || changed
	changed = patch.Scalar(&r.ClientRequestLatency, src.ClientRequestLatency, o) || changed
	changed = patch.Scalar(&r.UpstreamRequestLatency, src.UpstreamRequestLatency, o) || changed
	changed = patch.Scalar(&r.CoalescedRequests, src.CoalescedRequests, o) || changed
	changed = patch.Scalar(&r.NonCoalescedRequests, src.NonCoalescedRequests, o) || changed
	changed = patch.Scalar(&r.CoalescedCacheHits, src.CoalescedCacheHits, o) || changed
	changed = patch.Scalar(&r.CoalescedCacheRevalidations, src.CoalescedCacheRevalidations, o) || changed
	changed = patch.Scalar(&r.CoalescedCacheMisses, src.CoalescedCacheMisses, o) || changed
	changed = patch.Scalar(&r.StatusOKResponses, src.StatusOKResponses, o) || changed
	changed = patch.Scalar(&r.StatusClientErrorResponses, src.StatusClientErrorResponses, o) || changed
	changed = patch.Scalar(&r.StatusServerErrorResponses, src.StatusServerErrorResponses, o) || changed
	return changed
}

// Clone returns a copy of r.
func (r *RequestMetrics) Clone() *RequestMetrics {
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}

// TotalRequests is the number of proxied requests over both schemes.
func (r *RequestMetrics) TotalRequests() int64 {
	return r.HTTPProxyRequests + r.HTTPSProxyRequests
}

// Reconcile patches src into s field by field. StartTime compares by instant.
func (s *SystemMetrics) Reconcile(src *SystemMetrics, o patch.Options) bool {
	mustTarget(s == nil, "system metrics")
	if src == nil {
		return false
	}
	changed := patch.Scalar(&s.NumGoroutines, src.NumGoroutines, o)
	changed = patch.Scalar(&s.MemAllocBytes, src.MemAllocBytes, o) || changed
	changed = patch.Scalar(&s.MemTotalAllocBytes, src.MemTotalAllocBytes, o) || changed
	changed = patch.Scalar(&s.MemSysBytes, src.MemSysBytes, o) || changed
	changed = patch.ScalarFunc(&s.StartTime, src.StartTime, time.Time.Equal) || changed
	return changed
}

// Clone returns a copy of s.
func (s *SystemMetrics) Clone() *SystemMetrics {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

// Uptime is the time elapsed between StartTime and now.
func (s *SystemMetrics) Uptime(now time.Time) time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}
	return now.Sub(s.StartTime)
}

type group[G any] interface {
	*G
	Reconcile(src *G, o patch.Options) bool
}

// reconcileGroup patches one optional group. An absent source group is a
// no-op; an absent destination group is filled with a copy of the source.
func reconcileGroup[G any, P group[G]](dst **G, src *G, o patch.Options) bool {
	if src == nil {
		return false
	}
	if *dst == nil {
		cp := *src
		*dst = &cp
		return true
	}
	return P(*dst).Reconcile(src, o)
}

func mustTarget(isNil bool, what string) {
	if isNil {
		panic(&patch.ProgrammingError{Op: "reconcile", Message: what + " target is nil"})
	}
}
