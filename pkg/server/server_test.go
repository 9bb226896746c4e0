package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reservoir-hq/livesync/pkg/config"
	"reservoir-hq/livesync/pkg/poller"
	"reservoir-hq/livesync/pkg/telemetry/health"
	"reservoir-hq/livesync/pkg/telemetry/metrics"
)

func testTelemetry() config.TelemetryConfig {
	cfg := config.Default().Telemetry
	cfg.ListenAddress = "127.0.0.1:0"
	cfg.Metrics.Enabled = true
	cfg.Health.Enabled = true
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServer_Handler(t *testing.T) {
	cfg := testTelemetry()
	collector := metrics.NewCollector(&cfg.Metrics, nil)
	collector.ObserveCycle(poller.CycleResult{Name: "metrics", Trigger: poller.TriggerLoop})
	checker := health.New(time.Second)

	s := NewServer(cfg, collector, checker, health.VersionInfo{Version: "1.0.0"}, quietLogger())
	h := s.Handler()

	tests := []struct {
		path     string
		wantCode int
		wantBody string
	}{
		{"/metrics", http.StatusOK, "livesync_cycles_total"},
		{"/health", http.StatusOK, `"status":"ok"`},
		{"/ready", http.StatusOK, `"status":"ready"`},
		{"/version", http.StatusOK, `"version":"1.0.0"`},
		{"/other", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body does not contain %q", tt.wantBody)
			}
		})
	}
}

func TestServer_DisabledEndpoints(t *testing.T) {
	cfg := testTelemetry()
	cfg.Metrics.Enabled = false
	s := NewServer(cfg, nil, health.New(0), health.VersionInfo{}, quietLogger())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("disabled metrics endpoint returned %d", rec.Code)
	}

	cfg.Health.Enabled = false
	if NewServer(cfg, nil, nil, health.VersionInfo{}, nil).Enabled() {
		t.Error("server with no endpoints reported enabled")
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	cfg := testTelemetry()
	s := NewServer(cfg, nil, health.New(time.Second), health.VersionInfo{}, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for s.Addr() == "" {
		if time.Now().After(deadline) {
			t.Fatal("server did not start")
		}
		time.Sleep(5 * time.Millisecond)
	}

	resp, err := http.Get("http://" + s.Addr() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	if err := s.Start(ctx); err == nil {
		t.Error("second Start should fail while running")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned %v after cancellation", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
	if s.IsRunning() {
		t.Error("server still reports running")
	}
}

func TestServer_ListenError(t *testing.T) {
	cfg := testTelemetry()
	cfg.ListenAddress = "256.0.0.1:bad"
	s := NewServer(cfg, nil, nil, health.VersionInfo{}, quietLogger())

	if err := s.Start(context.Background()); err == nil {
		t.Error("expected listen error")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := RecoveryMiddleware(logger, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(errors.New("boom"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("code = %d, want 500", rec.Code)
	}
	if !strings.Contains(buf.String(), "panic in handler") {
		t.Error("panic was not logged")
	}
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := LoggingMiddleware(logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ready", nil))

	if !strings.Contains(buf.String(), "status=503") || !strings.Contains(buf.String(), "path=/ready") {
		t.Errorf("unexpected log line: %s", buf.String())
	}
}
