// Package server serves the telemetry endpoints (Prometheus metrics and
// health probes) of a livesync process on telemetry.listen_address.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"reservoir-hq/livesync/pkg/config"
	"reservoir-hq/livesync/pkg/telemetry/health"
	"reservoir-hq/livesync/pkg/telemetry/metrics"
)

// DefaultShutdownTimeout bounds graceful shutdown.
const DefaultShutdownTimeout = 5 * time.Second

// Server is the telemetry HTTP server.
type Server struct {
	config    config.TelemetryConfig
	collector *metrics.Collector
	checker   *health.Checker
	version   health.VersionInfo
	logger    *slog.Logger

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	running    bool
}

// NewServer creates a telemetry server. collector and checker may be nil
// when the corresponding endpoint is disabled.
func NewServer(cfg config.TelemetryConfig, collector *metrics.Collector, checker *health.Checker, version health.VersionInfo, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:    cfg,
		collector: collector,
		checker:   checker,
		version:   version,
		logger:    logger.With("component", "telemetry-server"),
	}
}

// Enabled reports whether any endpoint would be served.
func (s *Server) Enabled() bool {
	return (s.config.Metrics.Enabled && s.collector != nil) || (s.config.Health.Enabled && s.checker != nil)
}

// Handler returns the routed handler with recovery and access logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	if s.config.Metrics.Enabled && s.collector != nil {
		mux.Handle(s.config.Metrics.Path, s.collector.Handler())
	}
	if s.config.Health.Enabled && s.checker != nil {
		health.Register(mux, s.checker, s.config.Health, s.version)
	}

	return RecoveryMiddleware(s.logger, LoggingMiddleware(s.logger, mux))
}

// Start listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully. It returns nil after a clean
// shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server is already running")
	}

	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.running = true
	srv := s.httpServer
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting telemetry server",
			"address", ln.Addr().String(),
			"metrics", s.config.Metrics.Enabled,
			"health", s.config.Health.Enabled,
		)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err, ok := <-errCh:
		s.setStopped()
		if ok {
			return err
		}
		return nil
	}
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	running := s.running
	s.mu.Unlock()

	if !running || srv == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, DefaultShutdownTimeout)
	defer cancel()

	var shutdownErr error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("error during server shutdown", "error", err)
		shutdownErr = fmt.Errorf("server shutdown error: %w", err)
	}
	s.setStopped()
	s.logger.Info("telemetry server stopped")
	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Server) setStopped() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}
