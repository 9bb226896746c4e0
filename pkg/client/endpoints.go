package client

import (
	"context"

	"reservoir-hq/livesync/pkg/fetch"
	"reservoir-hq/livesync/pkg/patch"
	"reservoir-hq/livesync/pkg/snapshot"
)

// Dashboard API endpoints, relative to /api.
const (
	EndpointMetrics         = "/metrics"
	EndpointCacheMetrics    = "/metrics/cache"
	EndpointRequestMetrics  = "/metrics/requests"
	EndpointSystemMetrics   = "/metrics/system"
	EndpointConfig          = "/config"
	EndpointRestartRequired = "/config/restart-required"
	EndpointVersion         = "/version"
)

// Get fetches endpoint and decodes it as T.
func Get[T any](ctx context.Context, c *Client, endpoint string) (T, error) {
	var out T
	if err := c.GetJSON(ctx, endpoint, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Endpoint returns a Fetcher that GETs endpoint on every call.
func Endpoint[T any](c *Client, endpoint string) fetch.Fetcher[T] {
	return fetch.Func[T](func(ctx context.Context) (T, error) {
		return Get[T](ctx, c, endpoint)
	})
}

// Metrics fetches the full metrics snapshot.
func (c *Client) Metrics() fetch.Fetcher[*snapshot.Metrics] {
	return Endpoint[*snapshot.Metrics](c, EndpointMetrics)
}

// CacheMetrics fetches only the cache group.
func (c *Client) CacheMetrics() fetch.Fetcher[*snapshot.CacheMetrics] {
	return Endpoint[*snapshot.CacheMetrics](c, EndpointCacheMetrics)
}

// RequestMetrics fetches only the requests group.
func (c *Client) RequestMetrics() fetch.Fetcher[*snapshot.RequestMetrics] {
	return Endpoint[*snapshot.RequestMetrics](c, EndpointRequestMetrics)
}

// SystemMetrics fetches only the system group.
func (c *Client) SystemMetrics() fetch.Fetcher[*snapshot.SystemMetrics] {
	return Endpoint[*snapshot.SystemMetrics](c, EndpointSystemMetrics)
}

// Config fetches the proxy configuration as a raw document.
func (c *Client) Config() fetch.Fetcher[patch.Document] {
	return Endpoint[patch.Document](c, EndpointConfig)
}

// RestartRequired reports whether the proxy has pending config changes that
// need a restart.
func (c *Client) RestartRequired(ctx context.Context) (bool, error) {
	resp, err := Get[struct {
		RestartRequired bool `json:"restart_required"`
	}](ctx, c, EndpointRestartRequired)
	if err != nil {
		return false, err
	}
	return resp.RestartRequired, nil
}

// Version returns the proxy's version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	resp, err := Get[struct {
		Version string `json:"version"`
	}](ctx, c, EndpointVersion)
	if err != nil {
		return "", err
	}
	return resp.Version, nil
}
