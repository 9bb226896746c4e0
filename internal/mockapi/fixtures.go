package mockapi

import (
	"net/http"
	"time"
)

// StartTime is the proxy start time reported by MetricsBody.
var StartTime = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

// MetricsBody builds a /api/metrics payload with the given cache hit count.
func MetricsBody(hits int64) map[string]any {
	return map[string]any{
		"cache":    CacheBody(hits),
		"requests": RequestsBody(hits * 2),
		"system":   SystemBody(),
	}
}

// CacheBody builds a /api/metrics/cache payload.
func CacheBody(hits int64) map[string]any {
	return map[string]any{
		"cache_hits":         hits,
		"cache_misses":       5,
		"cache_errors":       0,
		"cache_entries":      42,
		"bytes_cached":       1 << 20,
		"cleanup_runs":       1,
		"bytes_cleaned":      0,
		"cache_evictions":    0,
		"cache_hit_latency":  1500000,
		"cache_miss_latency": 9000000,
	}
}

// RequestsBody builds a /api/metrics/requests payload.
func RequestsBody(requests int64) map[string]any {
	return map[string]any{
		"http_proxy_requests":           requests,
		"https_proxy_requests":          0,
		"bytes_served":                  4096,
		"bytes_fetched":                 2048,
		"upstream_requests":             3,
		"client_request_latency":        2000000,
		"upstream_request_latency":      8000000,
		"coalesced_requests":            0,
		"non_coalesced_requests":        requests,
		"coalesced_cache_hits":          0,
		"coalesced_cache_revalidations": 0,
		"coalesced_cache_misses":        0,
		"status_ok_responses":           requests,
		"status_client_error_responses": 0,
		"status_server_error_responses": 0,
	}
}

// SystemBody builds a /api/metrics/system payload.
func SystemBody() map[string]any {
	return map[string]any{
		"num_goroutines":        12,
		"mem_alloc_bytes":       8 << 20,
		"mem_total_alloc_bytes": 64 << 20,
		"mem_sys_bytes":         32 << 20,
		"start_time":            StartTime.Format(time.RFC3339),
	}
}

// ConfigBody builds a /api/config payload.
func ConfigBody(logLevel string) map[string]any {
	return map[string]any{
		"config_version":   1,
		"proxy_listen":     ":9999",
		"webserver_listen": ":8080",
		"cache_dir":        "/var/cache/reservoir",
		"max_cache_size":   10 << 30,
		"log_level":        logLevel,
		"log_to_stdout":    true,
	}
}

// OK wraps body in a 200 response.
func OK(body any) Response {
	return Response{StatusCode: http.StatusOK, Body: body}
}

// Error returns a plain-text error response.
func Error(status int) Response {
	return Response{StatusCode: status, Body: http.StatusText(status)}
}

// Slow returns a 200 response delivered after delay.
func Slow(body any, delay time.Duration) Response {
	return Response{StatusCode: http.StatusOK, Body: body, Delay: delay}
}
