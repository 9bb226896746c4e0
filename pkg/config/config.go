package config

import "time"

// Config is the root configuration structure for livesync.
type Config struct {
	// API configures the connection to the proxy's dashboard API.
	API APIConfig `yaml:"api"`

	// Dashboard configures the live views and their polling.
	Dashboard DashboardConfig `yaml:"dashboard"`

	// History configures the optional cycle history store.
	History HistoryConfig `yaml:"history"`

	// Telemetry configures logging, metrics and health endpoints.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// APIConfig contains the dashboard API connection settings.
type APIConfig struct {
	// BaseURL is the origin of the proxy's web server.
	// Default: "http://127.0.0.1:8080"
	BaseURL string `yaml:"base_url"`

	// Timeout bounds a single HTTP request.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the number of immediate retries on 5xx and network
	// errors. The poll loop retries on its own next cycle regardless.
	// Default: 0
	MaxRetries int `yaml:"max_retries"`

	// SessionCookie is an existing session ID to authenticate with.
	SessionCookie string `yaml:"session_cookie"`

	// Username and Password are used to log in when set. Prefer the
	// LIVESYNC_API_PASSWORD environment variable over the file.
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// DashboardConfig contains live view settings.
type DashboardConfig struct {
	// UpdateInterval is the polling period of the live views. It can be
	// changed while running.
	// Default: 10s
	UpdateInterval time.Duration `yaml:"update_interval"`

	// Views lists the live views to run.
	// Options: "metrics", "cache", "requests", "system", "config"
	// Default: ["metrics"]
	Views []string `yaml:"views"`

	// ConfigRefreshSchedule is a cron expression for refreshing the
	// "config" view, which changes rarely. "off" polls it like the others.
	// Default: "*/5 * * * *"
	ConfigRefreshSchedule string `yaml:"config_refresh_schedule"`

	// ReplaceArrays swaps whole arrays on change instead of patching them
	// element by element.
	// Default: false
	ReplaceArrays bool `yaml:"replace_arrays"`

	// StaleAfter is the number of update intervals without a successful
	// cycle after which a view reports not ready.
	// Default: 3
	StaleAfter int `yaml:"stale_after"`
}

// ConfigSchedule returns the cron spec for the "config" view, or "" when it
// is polled on the update interval.
func (d *DashboardConfig) ConfigSchedule() string {
	if d.ConfigRefreshSchedule == ScheduleOff {
		return ""
	}
	return d.ConfigRefreshSchedule
}

// HistoryConfig contains cycle history settings.
type HistoryConfig struct {
	// Enabled turns on recording of every cycle to SQLite.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database file.
	// Default: "data/livesync.db"
	Path string `yaml:"path"`

	// RetentionDays is how long cycle records are kept (0 keeps forever).
	// Default: 7
	RetentionDays int `yaml:"retention_days"`

	// MaxRecords caps the number of stored cycles; the oldest go first.
	// Default: 0 (unlimited)
	MaxRecords int64 `yaml:"max_records"`

	// PruneSchedule is the cron expression for retention pruning.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`

	// BusyTimeout is how long SQLite waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// TelemetryConfig covers what livesync reports about itself.
type TelemetryConfig struct {
	// ListenAddress serves the metrics and health endpoints when either is
	// enabled.
	// Default: "127.0.0.1:9464"
	ListenAddress string `yaml:"listen_address"`

	Logging LoggingConfig `yaml:"logging"`

	Metrics MetricsConfig `yaml:"metrics"`

	Health HealthConfig `yaml:"health"`

	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	// Level can be changed by a reload.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format selects the slog handler.
	// Options: "json", "text"
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource adds the caller's file:line to every entry.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled exposes cycle metrics.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Path serves the Prometheus exposition format.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes every metric name.
	// Default: "livesync"
	Namespace string `yaml:"namespace"`
}

// HealthConfig contains health check configuration.
type HealthConfig struct {
	// Enabled exposes the health endpoints.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// LivenessPath answers 200 while the process is up.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath answers 200 when every view is fresh and the proxy is reachable.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// VersionPath reports build information as JSON.
	// Default: "/version"
	VersionPath string `yaml:"version_path"`

	// CheckTimeout is the timeout for individual health checks.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}

// TracingConfig contains OpenTelemetry tracing configuration.
type TracingConfig struct {
	// Enabled turns on span export. When false a no-op tracer is used.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS towards the collector.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// Sampler is the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is used by the "ratio" sampler.
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// ServiceName is reported as the service.name resource attribute.
	// Default: "livesync"
	ServiceName string `yaml:"service_name"`
}
