// Package client is the HTTP side of the snapshot fetchers: a small client
// for the proxy's dashboard API that maps every response onto the fetch
// error taxonomy.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"reservoir-hq/livesync/pkg/fetch"
)

// SessionCookieName is the cookie the dashboard API authenticates with.
const SessionCookieName = "reservoir.sid"

const (
	apiPrefix       = "/api"
	maxBodySize     = 8 << 20
	maxRawResponse  = 256
	defaultTimeout  = 10 * time.Second
	defaultIdleConn = 90 * time.Second
)

// Config configures a Client.
type Config struct {
	// BaseURL is the origin of the proxy's web server, e.g. http://localhost:8080
	BaseURL string

	// Timeout bounds each HTTP request
	// Default: 10s
	Timeout time.Duration

	// MaxRetries is the number of extra attempts on network errors and 5xx
	// responses. The poll loop already retries on its next cycle, so the
	// default is no retry.
	MaxRetries int

	// MaxIdleConns caps the idle connection pool
	MaxIdleConns int

	// IdleConnTimeout is how long idle connections are kept
	// Default: 90s
	IdleConnTimeout time.Duration

	// SessionCookie is a pre-established session ID (optional)
	SessionCookie string

	// WrapTransport decorates the pooled transport, e.g. to inject trace
	// headers (optional)
	WrapTransport func(http.RoundTripper) http.RoundTripper
}

// Client talks to the dashboard API. It is safe for concurrent use.
type Client struct {
	config Config
	base   *url.URL
	http   *http.Client
	logger *slog.Logger
}

// New creates a Client. A nil logger uses slog.Default().
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.IdleConnTimeout <= 0 {
		cfg.IdleConnTimeout = defaultIdleConn
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	if cfg.SessionCookie != "" {
		jar.SetCookies(base, []*http.Cookie{{
			Name:  SessionCookieName,
			Value: cfg.SessionCookie,
			Path:  "/",
		}})
	}

	var transport http.RoundTripper = &http.Transport{
		MaxIdleConns:      cfg.MaxIdleConns,
		IdleConnTimeout:   cfg.IdleConnTimeout,
		ForceAttemptHTTP2: true,
	}
	if cfg.WrapTransport != nil {
		transport = cfg.WrapTransport(transport)
	}

	return &Client{
		config: cfg,
		base:   base,
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
			Jar:       jar,
		},
		logger: logger.With("component", "client"),
	}, nil
}

// BaseURL returns the configured origin.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// URL returns the absolute URL of an API endpoint such as "/metrics".
func (c *Client) URL(endpoint string) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + apiPrefix + endpoint
	return u.String()
}

// Login authenticates with username and password and keeps the returned
// session cookie for subsequent requests.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/auth/login", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	c.logger.Info("logged in to dashboard API", "base_url", c.BaseURL(), "username", username)
	return nil
}

// GetJSON performs GET /api<endpoint> and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, endpoint string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if cerr := cancelled(ctx, endpoint); cerr != nil {
			return cerr
		}
		return &fetch.TransportError{
			Endpoint: endpoint,
			URL:      c.URL(endpoint),
			Cause:    fmt.Errorf("failed to read response: %w", err),
		}
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return &fetch.ParseError{
			Endpoint:    endpoint,
			RawResponse: truncate(raw),
			Cause:       errors.New("empty snapshot"),
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &fetch.ParseError{
			Endpoint:    endpoint,
			RawResponse: truncate(raw),
			Cause:       fmt.Errorf("failed to unmarshal response: %w", err),
		}
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// do sends one request with retries on network errors and 5xx responses.
// The returned response always has a 2xx status.
func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) (*http.Response, error) {
	target := c.URL(endpoint)
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			c.logger.Debug("retrying request",
				"endpoint", endpoint,
				"attempt", attempt,
				"max_retries", c.config.MaxRetries,
				"backoff", backoff,
			)
			t := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				t.Stop()
				if cerr := cancelled(ctx, endpoint); cerr != nil {
					return nil, cerr
				}
				return nil, &fetch.TransportError{Endpoint: endpoint, URL: target, Cause: ctx.Err()}
			case <-t.C:
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		c.logger.Debug("sending request", "method", method, "url", target)

		resp, err := c.http.Do(req)
		if err != nil {
			if cerr := cancelled(ctx, endpoint); cerr != nil {
				return nil, cerr
			}
			lastErr = &fetch.TransportError{Endpoint: endpoint, URL: target, Cause: err}
			if ctx.Err() != nil {
				return nil, lastErr
			}
			c.logger.Warn("request failed", "endpoint", endpoint, "attempt", attempt+1, "error", err)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxRawResponse))
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return nil, &fetch.AuthError{
				Endpoint: endpoint,
				Message:  strings.TrimSpace(string(errorBody)),
			}
		case resp.StatusCode >= 500:
			lastErr = statusError(endpoint, target, resp)
			c.logger.Warn("request returned error status",
				"endpoint", endpoint,
				"status", resp.StatusCode,
				"attempt", attempt+1,
			)
		default:
			return nil, statusError(endpoint, target, resp)
		}
	}

	return nil, lastErr
}

func statusError(endpoint, target string, resp *http.Response) *fetch.TransportError {
	return &fetch.TransportError{
		Endpoint:   endpoint,
		URL:        target,
		StatusCode: resp.StatusCode,
		Status:     statusText(resp),
	}
}

// statusText strips the numeric code from resp.Status ("404 Not Found").
func statusText(resp *http.Response) string {
	if text, ok := strings.CutPrefix(resp.Status, fmt.Sprintf("%d ", resp.StatusCode)); ok {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

// cancelled returns a *fetch.CancelledError when ctx was cancelled. A
// deadline is not a cancellation.
func cancelled(ctx context.Context, endpoint string) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return &fetch.CancelledError{Endpoint: endpoint, Cause: ctx.Err()}
	}
	return nil
}

func truncate(raw []byte) string {
	if len(raw) > maxRawResponse {
		return string(raw[:maxRawResponse])
	}
	return string(raw)
}
