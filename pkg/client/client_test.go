package client

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"reservoir-hq/livesync/internal/mockapi"
	"reservoir-hq/livesync/pkg/fetch"
	"reservoir-hq/livesync/pkg/patch"
)

func newClient(t *testing.T, srv *mockapi.Server, mutate func(*Config)) *Client {
	t.Helper()
	cfg := Config{BaseURL: srv.URL(), Timeout: 5 * time.Second}
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{"valid http", "http://localhost:8080", false},
		{"valid https with slash", "https://proxy.example/", false},
		{"empty", "", true},
		{"bad scheme", "ftp://proxy", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Config{BaseURL: tt.baseURL}, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestClient_URL(t *testing.T) {
	c, err := New(Config{BaseURL: "http://proxy:8080/"}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := c.URL(EndpointMetrics); got != "http://proxy:8080/api/metrics" {
		t.Errorf("URL() = %q", got)
	}
}

func TestClient_Metrics(t *testing.T) {
	srv := mockapi.New()
	defer srv.Close()
	srv.SetResponse("/api/metrics", mockapi.OK(mockapi.MetricsBody(10)))

	c := newClient(t, srv, nil)
	m, err := c.Metrics().Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if m.Cache == nil || m.Cache.CacheHits != 10 {
		t.Errorf("Cache = %+v, want 10 hits", m.Cache)
	}
	if m.Requests == nil || m.Requests.HTTPProxyRequests != 20 {
		t.Errorf("Requests = %+v, want 20 HTTP requests", m.Requests)
	}
	if m.System == nil || !m.System.StartTime.Equal(mockapi.StartTime) {
		t.Errorf("System = %+v", m.System)
	}
}

func TestClient_GroupEndpoints(t *testing.T) {
	srv := mockapi.New()
	defer srv.Close()
	srv.SetResponse("/api/metrics/cache", mockapi.OK(mockapi.CacheBody(3)))
	srv.SetResponse("/api/metrics/requests", mockapi.OK(mockapi.RequestsBody(4)))
	srv.SetResponse("/api/metrics/system", mockapi.OK(mockapi.SystemBody()))

	c := newClient(t, srv, nil)
	ctx := context.Background()

	cache, err := c.CacheMetrics().Fetch(ctx)
	if err != nil || cache.CacheHits != 3 {
		t.Errorf("CacheMetrics() = %+v, %v", cache, err)
	}
	requests, err := c.RequestMetrics().Fetch(ctx)
	if err != nil || requests.HTTPProxyRequests != 4 {
		t.Errorf("RequestMetrics() = %+v, %v", requests, err)
	}
	system, err := c.SystemMetrics().Fetch(ctx)
	if err != nil || system.NumGoroutines != 12 {
		t.Errorf("SystemMetrics() = %+v, %v", system, err)
	}
}

func TestClient_Config(t *testing.T) {
	srv := mockapi.New()
	defer srv.Close()
	srv.SetResponse("/api/config", mockapi.OK(mockapi.ConfigBody("info")))

	c := newClient(t, srv, nil)
	doc, err := c.Config().Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if doc["log_level"] != "info" {
		t.Errorf("log_level = %v, want info", doc["log_level"])
	}
	var _ patch.Document = doc
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name     string
		response mockapi.Response
		check    func(t *testing.T, err error)
	}{
		{
			name:     "unauthorized",
			response: mockapi.Error(http.StatusUnauthorized),
			check: func(t *testing.T, err error) {
				if !fetch.IsAuth(err) {
					t.Errorf("error = %v, want *fetch.AuthError", err)
				}
			},
		},
		{
			name:     "server error",
			response: mockapi.Error(http.StatusServiceUnavailable),
			check: func(t *testing.T, err error) {
				var te *fetch.TransportError
				if !errors.As(err, &te) {
					t.Fatalf("error = %v, want *fetch.TransportError", err)
				}
				if te.StatusCode != http.StatusServiceUnavailable {
					t.Errorf("StatusCode = %d", te.StatusCode)
				}
				if !strings.HasPrefix(te.Error(), "Failed to fetch from '") ||
					!strings.HasSuffix(te.Error(), "': 503 Service Unavailable") {
					t.Errorf("Error() = %q", te.Error())
				}
			},
		},
		{
			name:     "not found",
			response: mockapi.Error(http.StatusNotFound),
			check: func(t *testing.T, err error) {
				if fetch.Classify(err) != fetch.KindTransport {
					t.Errorf("Classify() = %q, want transport", fetch.Classify(err))
				}
			},
		},
		{
			name:     "malformed body",
			response: mockapi.OK("{not json"),
			check: func(t *testing.T, err error) {
				var pe *fetch.ParseError
				if !errors.As(err, &pe) {
					t.Fatalf("error = %v, want *fetch.ParseError", err)
				}
				if pe.RawResponse != "{not json" {
					t.Errorf("RawResponse = %q", pe.RawResponse)
				}
			},
		},
		{
			name:     "null body",
			response: mockapi.OK("null"),
			check: func(t *testing.T, err error) {
				if fetch.Classify(err) != fetch.KindParse {
					t.Errorf("Classify() = %q, want parse", fetch.Classify(err))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := mockapi.New()
			defer srv.Close()
			srv.SetResponse("/api/metrics", tt.response)

			c := newClient(t, srv, nil)
			_, err := c.Metrics().Fetch(context.Background())
			if err == nil {
				t.Fatal("Fetch() error = nil")
			}
			tt.check(t, err)
		})
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	srv := mockapi.New()
	defer srv.Close()
	srv.SetSequence("/api/metrics",
		mockapi.Error(http.StatusBadGateway),
		mockapi.OK(mockapi.MetricsBody(1)),
	)

	c := newClient(t, srv, func(cfg *Config) { cfg.MaxRetries = 1 })
	if _, err := c.Metrics().Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got := srv.PathCount("/api/metrics"); got != 2 {
		t.Errorf("requests = %d, want 2", got)
	}
}

func TestClient_Cancellation(t *testing.T) {
	srv := mockapi.New()
	defer srv.Close()
	srv.SetResponse("/api/metrics", mockapi.Slow(mockapi.MetricsBody(1), 5*time.Second))

	c := newClient(t, srv, nil)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := c.Metrics().Fetch(ctx)
	if !fetch.IsCancelled(err) {
		t.Errorf("error = %v, want cancellation", err)
	}
	var ce *fetch.CancelledError
	if !errors.As(err, &ce) || ce.Endpoint != EndpointMetrics {
		t.Errorf("error = %#v, want *fetch.CancelledError for %s", err, EndpointMetrics)
	}
}

func TestClient_DeadlineIsTransportError(t *testing.T) {
	srv := mockapi.New()
	defer srv.Close()
	srv.SetResponse("/api/metrics", mockapi.Slow(mockapi.MetricsBody(1), 5*time.Second))

	c := newClient(t, srv, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Metrics().Fetch(ctx)
	if fetch.IsCancelled(err) {
		t.Errorf("deadline reported as cancellation: %v", err)
	}
	if fetch.Classify(err) != fetch.KindTransport {
		t.Errorf("Classify() = %q, want transport", fetch.Classify(err))
	}
}

func TestClient_SessionCookie(t *testing.T) {
	srv := mockapi.New()
	defer srv.Close()
	srv.RequireSession("sid-123", "admin", "secret")
	srv.SetResponse("/api/version", mockapi.OK(map[string]string{"version": "1.4.0"}))

	anonymous := newClient(t, srv, nil)
	if _, err := anonymous.Version(context.Background()); !fetch.IsAuth(err) {
		t.Errorf("anonymous Version() error = %v, want auth error", err)
	}

	withCookie := newClient(t, srv, func(cfg *Config) { cfg.SessionCookie = "sid-123" })
	v, err := withCookie.Version(context.Background())
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if v != "1.4.0" {
		t.Errorf("Version() = %q, want 1.4.0", v)
	}
}

func TestClient_Login(t *testing.T) {
	srv := mockapi.New()
	defer srv.Close()
	srv.RequireSession("sid-456", "admin", "secret")
	srv.SetResponse("/api/config/restart-required", mockapi.OK(map[string]bool{"restart_required": true}))

	c := newClient(t, srv, nil)
	ctx := context.Background()

	if err := c.Login(ctx, "admin", "wrong"); !fetch.IsAuth(err) {
		t.Errorf("Login(wrong) error = %v, want auth error", err)
	}
	if err := c.Login(ctx, "admin", "secret"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	restart, err := c.RestartRequired(ctx)
	if err != nil {
		t.Fatalf("RestartRequired() error = %v", err)
	}
	if !restart {
		t.Error("RestartRequired() = false, want true")
	}
}
