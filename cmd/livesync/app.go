package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"sync"
	"time"

	"reservoir-hq/livesync/pkg/changes"
	"reservoir-hq/livesync/pkg/cli"
	"reservoir-hq/livesync/pkg/client"
	"reservoir-hq/livesync/pkg/config"
	"reservoir-hq/livesync/pkg/fetch"
	"reservoir-hq/livesync/pkg/history"
	"reservoir-hq/livesync/pkg/poller"
	"reservoir-hq/livesync/pkg/server"
	"reservoir-hq/livesync/pkg/telemetry/health"
	"reservoir-hq/livesync/pkg/telemetry/logging"
	"reservoir-hq/livesync/pkg/telemetry/metrics"
	"reservoir-hq/livesync/pkg/telemetry/tracing"
)

// appOptions selects the optional parts a command needs.
type appOptions struct {
	// views builds the configured schedulers.
	views bool

	// telemetry builds the metrics collector, health checker, and server.
	telemetry bool

	// sink receives every cycle with its change, after history.
	sink changes.Sink
}

// app is the wired object graph shared by the commands.
type app struct {
	cfg      *config.Config
	logger   *logging.Logger
	client   *client.Client
	tracer   *tracing.Tracer
	interval *config.IntervalSource
	tracker  *changes.Tracker

	views []liveView

	store    history.Storage
	recorder *history.Recorder
	pruner   *history.Pruner

	collector *metrics.Collector
	checker   *health.Checker
	server    *server.Server

	closeOnce sync.Once
}

// loadConfig returns the global configuration, loading it from --config on
// first use.
func loadConfig() (*config.Config, error) {
	if cfg := config.GetConfig(); cfg != nil {
		return cfg, nil
	}
	if err := config.Initialize(cfgFile); err != nil {
		var ve config.ValidationError
		if errors.As(err, &ve) {
			return nil, err
		}
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()
	if cfg == nil {
		return nil, cli.NewConfigError("", "configuration not loaded")
	}
	return cfg, nil
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logCfg := logging.FromConfig(cfg.Telemetry.Logging)
	if verbose {
		logCfg.Level = "debug"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger.Logger)

	a := &app{
		cfg:      cfg,
		logger:   logger,
		interval: config.NewIntervalSource(cfg),
		tracker:  changes.NewTracker(),
	}

	a.tracer, err = tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.tracing", err.Error())
	}

	clientCfg := client.Config{
		BaseURL:       cfg.API.BaseURL,
		Timeout:       cfg.API.Timeout,
		MaxRetries:    cfg.API.MaxRetries,
		SessionCookie: cfg.API.SessionCookie,
	}
	if a.tracer.Enabled() {
		clientCfg.WrapTransport = func(rt http.RoundTripper) http.RoundTripper {
			return tracing.WrapTransport(rt)
		}
	}
	a.client, err = client.New(clientCfg, logger.Logger)
	if err != nil {
		a.Close()
		return nil, cli.NewConfigError("api.base_url", err.Error())
	}

	if cfg.API.Username != "" && cfg.API.SessionCookie == "" {
		if err := a.login(ctx); err != nil {
			a.Close()
			return nil, cli.NewCommandError("login", err)
		}
	}

	if opts.views {
		if err := a.buildViews(opts); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

func (a *app) login(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.API.Timeout)
	defer cancel()
	return a.client.Login(ctx, a.cfg.API.Username, a.cfg.API.Password)
}

// onAuthError re-establishes the session when credentials are configured.
// The failed cycle stays recorded; the next one uses the new session.
func (a *app) onAuthError(err *fetch.AuthError) {
	if a.cfg.API.Username == "" {
		a.logger.Warn("dashboard session rejected and no credentials configured", "endpoint", err.Endpoint)
		return
	}
	if lerr := a.login(context.Background()); lerr != nil {
		a.logger.Error("re-login failed", "error", lerr)
		return
	}
	a.logger.Info("re-established dashboard session")
}

func (a *app) buildViews(opts appOptions) error {
	if a.cfg.History.Enabled {
		store, err := history.Open(a.cfg.History, a.logger.Logger)
		if err != nil {
			return cli.NewCommandError("history", err)
		}
		a.store = store
		a.recorder = history.NewRecorder(store, nil, a.logger.Logger)
		a.pruner = history.NewPruner(store, history.RetentionFromConfig(a.cfg.History), a.logger.Logger)
	}

	var hooks []poller.CycleHook
	if opts.telemetry {
		a.collector = metrics.NewCollector(&a.cfg.Telemetry.Metrics, nil)
		a.checker = health.New(a.cfg.Telemetry.Health.CheckTimeout)
		a.server = server.NewServer(a.cfg.Telemetry, a.collector, a.checker, versionInfo(), a.logger.Logger)
		hooks = append(hooks, a.collector.Hook())

		a.checker.RegisterCheck("upstream", health.UpstreamCheck(a.client.Version))
	}
	if a.tracer.Enabled() {
		hooks = append(hooks, a.tracer.Hook())
	}

	var sink changes.Sink
	if a.recorder != nil {
		sink = changes.Fanout(a.recorder.Record, opts.sink)
	} else {
		sink = changes.Fanout(opts.sink)
	}

	for _, name := range a.cfg.Dashboard.Views {
		v, err := a.newView(name, hooks, sink)
		if err != nil {
			return err
		}
		a.views = append(a.views, v)
	}
	return nil
}

// applyConfig pushes a reloaded configuration into the running parts.
func (a *app) applyConfig(cfg *config.Config) {
	a.interval.Update(cfg)
	if err := a.logger.SetLevel(cfg.Telemetry.Logging.Level); err != nil {
		a.logger.Warn("ignoring reloaded log level", "error", err)
	}
	if !slices.Equal(cfg.Dashboard.Views, a.cfg.Dashboard.Views) {
		a.logger.Warn("dashboard.views changed; restart to apply",
			"running", a.cfg.Dashboard.Views,
			"configured", cfg.Dashboard.Views,
		)
	}
}

// Close stops every view and releases resources. It is safe to call more
// than once.
func (a *app) Close() {
	a.closeOnce.Do(func() {
		for _, v := range a.views {
			v.Stop()
		}
		for _, v := range a.views {
			select {
			case <-v.Done():
			case <-time.After(a.cfg.API.Timeout):
				a.logger.Warn("view did not stop in time", "view", v.Name())
			}
		}
		if a.pruner != nil {
			a.pruner.Stop()
		}
		if a.recorder != nil {
			a.recorder.Close()
		}
		if a.store != nil {
			a.store.Close()
		}
		if a.client != nil {
			a.client.Close()
		}
		if a.tracer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := a.tracer.Shutdown(ctx); err != nil {
				fmt.Fprintln(os.Stderr, "tracer shutdown:", err)
			}
		}
	})
}
