package config

import "time"

// Default values for configuration fields.
const (
	// API defaults
	DefaultAPIBaseURL = "http://127.0.0.1:8080"
	DefaultAPITimeout = 10 * time.Second

	// Dashboard defaults
	DefaultUpdateInterval        = 10 * time.Second
	DefaultConfigRefreshSchedule = "*/5 * * * *"
	ScheduleOff                  = "off"
	DefaultStaleAfter            = 3

	// History defaults
	DefaultHistoryPath          = "data/livesync.db"
	DefaultHistoryRetentionDays = 7
	DefaultHistoryPruneSchedule = "0 3 * * *"
	DefaultHistoryBusyTimeout   = 5 * time.Second

	// Telemetry defaults
	DefaultTelemetryListenAddress = "127.0.0.1:9464"
	DefaultLoggingLevel           = "info"
	DefaultLoggingFormat          = "text"
	DefaultMetricsPath            = "/metrics"
	DefaultMetricsNamespace       = "livesync"
	DefaultLivenessPath           = "/health"
	DefaultReadinessPath          = "/ready"
	DefaultVersionPath            = "/version"
	DefaultHealthCheckTimeout     = 5 * time.Second
	DefaultTracingEndpoint        = "localhost:4317"
	DefaultTracingTimeout         = 10 * time.Second
	DefaultTracingSampler         = "ratio"
	DefaultTracingSampleRatio     = 0.1
	DefaultTracingServiceName     = "livesync"

	// MinUpdateInterval is the shortest accepted poll period.
	MinUpdateInterval = 250 * time.Millisecond
)

// Live view names.
const (
	ViewMetrics  = "metrics"
	ViewCache    = "cache"
	ViewRequests = "requests"
	ViewSystem   = "system"
	ViewConfig   = "config"
)

// DefaultViews is used when dashboard.views is empty.
var DefaultViews = []string{ViewMetrics}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// API defaults
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultAPIBaseURL
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = DefaultAPITimeout
	}

	// Dashboard defaults
	if cfg.Dashboard.UpdateInterval == 0 {
		cfg.Dashboard.UpdateInterval = DefaultUpdateInterval
	}
	if len(cfg.Dashboard.Views) == 0 {
		cfg.Dashboard.Views = append([]string(nil), DefaultViews...)
	}
	if cfg.Dashboard.ConfigRefreshSchedule == "" {
		cfg.Dashboard.ConfigRefreshSchedule = DefaultConfigRefreshSchedule
	}
	if cfg.Dashboard.StaleAfter == 0 {
		cfg.Dashboard.StaleAfter = DefaultStaleAfter
	}

	// History defaults
	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath
	}
	if cfg.History.RetentionDays == 0 {
		cfg.History.RetentionDays = DefaultHistoryRetentionDays
	}
	if cfg.History.PruneSchedule == "" {
		cfg.History.PruneSchedule = DefaultHistoryPruneSchedule
	}
	if cfg.History.BusyTimeout == 0 {
		cfg.History.BusyTimeout = DefaultHistoryBusyTimeout
	}

	// Telemetry defaults
	if cfg.Telemetry.ListenAddress == "" {
		cfg.Telemetry.ListenAddress = DefaultTelemetryListenAddress
	}
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Health.LivenessPath == "" {
		cfg.Telemetry.Health.LivenessPath = DefaultLivenessPath
	}
	if cfg.Telemetry.Health.ReadinessPath == "" {
		cfg.Telemetry.Health.ReadinessPath = DefaultReadinessPath
	}
	if cfg.Telemetry.Health.VersionPath == "" {
		cfg.Telemetry.Health.VersionPath = DefaultVersionPath
	}
	if cfg.Telemetry.Health.CheckTimeout == 0 {
		cfg.Telemetry.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.Sampler == DefaultTracingSampler && cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
}

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
