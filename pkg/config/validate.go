package config

import (
	"fmt"
	"net"
	"net/url"
	"slices"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "api.base_url").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateAPI(&cfg.API)...)
	errs = append(errs, validateDashboard(&cfg.Dashboard)...)
	errs = append(errs, validateHistory(&cfg.History)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateAPI(cfg *APIConfig) []FieldError {
	var errs []FieldError

	if cfg.BaseURL == "" {
		errs = append(errs, FieldError{Field: "api.base_url", Message: "base URL is required"})
	} else if u, err := url.Parse(cfg.BaseURL); err != nil {
		errs = append(errs, FieldError{Field: "api.base_url", Message: fmt.Sprintf("invalid URL: %v", err)})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, FieldError{Field: "api.base_url", Message: "URL scheme must be http or https"})
	} else if u.Host == "" {
		errs = append(errs, FieldError{Field: "api.base_url", Message: "URL must include a host"})
	}

	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{Field: "api.timeout", Message: "timeout must not be negative"})
	}
	if cfg.MaxRetries < 0 {
		errs = append(errs, FieldError{Field: "api.max_retries", Message: "max retries must not be negative"})
	}
	if (cfg.Username == "") != (cfg.Password == "") {
		errs = append(errs, FieldError{Field: "api.username", Message: "username and password must be set together"})
	}

	return errs
}

func validateDashboard(cfg *DashboardConfig) []FieldError {
	var errs []FieldError

	if cfg.UpdateInterval < MinUpdateInterval {
		errs = append(errs, FieldError{
			Field:   "dashboard.update_interval",
			Message: fmt.Sprintf("update interval must be at least %s", MinUpdateInterval),
		})
	}

	known := []string{ViewMetrics, ViewCache, ViewRequests, ViewSystem, ViewConfig}
	seen := make(map[string]bool)
	for i, view := range cfg.Views {
		field := fmt.Sprintf("dashboard.views[%d]", i)
		if !slices.Contains(known, view) {
			errs = append(errs, FieldError{
				Field:   field,
				Message: fmt.Sprintf("unknown view %q (must be one of: %s)", view, strings.Join(known, ", ")),
			})
			continue
		}
		if seen[view] {
			errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("duplicate view %q", view)})
		}
		seen[view] = true
	}

	if s := cfg.ConfigSchedule(); s != "" {
		if _, err := cron.ParseStandard(s); err != nil {
			errs = append(errs, FieldError{
				Field:   "dashboard.config_refresh_schedule",
				Message: fmt.Sprintf("invalid cron schedule: %v", err),
			})
		}
	}

	if cfg.StaleAfter < 1 {
		errs = append(errs, FieldError{Field: "dashboard.stale_after", Message: "stale_after must be at least 1"})
	}

	return errs
}

func validateHistory(cfg *HistoryConfig) []FieldError {
	if !cfg.Enabled {
		return nil
	}

	var errs []FieldError
	if cfg.Path == "" {
		errs = append(errs, FieldError{Field: "history.path", Message: "path is required when history is enabled"})
	}
	if cfg.RetentionDays < 0 {
		errs = append(errs, FieldError{Field: "history.retention_days", Message: "retention days must not be negative"})
	}
	if cfg.MaxRecords < 0 {
		errs = append(errs, FieldError{Field: "history.max_records", Message: "max records must not be negative"})
	}
	if _, err := cron.ParseStandard(cfg.PruneSchedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "history.prune_schedule",
			Message: fmt.Sprintf("invalid cron schedule: %v", err),
		})
	}
	if cfg.BusyTimeout < 0 {
		errs = append(errs, FieldError{Field: "history.busy_timeout", Message: "busy timeout must not be negative"})
	}
	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	if cfg.Metrics.Enabled || cfg.Health.Enabled {
		if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
			errs = append(errs, FieldError{
				Field:   "telemetry.listen_address",
				Message: fmt.Sprintf("invalid listen address: %v", err),
			})
		}
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, strings.ToLower(cfg.Logging.Level)) {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be one of: %s)", cfg.Logging.Level, strings.Join(validLevels, ", ")),
		})
	}

	validFormats := []string{"json", "text"}
	if !slices.Contains(validFormats, strings.ToLower(cfg.Logging.Format)) {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be one of: %s)", cfg.Logging.Format, strings.Join(validFormats, ", ")),
		})
	}

	paths := map[string]string{
		"telemetry.metrics.path":          cfg.Metrics.Path,
		"telemetry.health.liveness_path":  cfg.Health.LivenessPath,
		"telemetry.health.readiness_path": cfg.Health.ReadinessPath,
		"telemetry.health.version_path":   cfg.Health.VersionPath,
	}
	for _, field := range []string{
		"telemetry.metrics.path",
		"telemetry.health.liveness_path",
		"telemetry.health.readiness_path",
		"telemetry.health.version_path",
	} {
		if !strings.HasPrefix(paths[field], "/") {
			errs = append(errs, FieldError{Field: field, Message: "path must start with /"})
		}
	}

	if cfg.Health.CheckTimeout < 0 {
		errs = append(errs, FieldError{Field: "telemetry.health.check_timeout", Message: "check timeout must not be negative"})
	}

	errs = append(errs, validateTracing(&cfg.Tracing)...)

	return errs
}

func validateTracing(cfg *TracingConfig) []FieldError {
	if !cfg.Enabled {
		return nil
	}

	var errs []FieldError
	if cfg.Endpoint == "" {
		errs = append(errs, FieldError{Field: "telemetry.tracing.endpoint", Message: "endpoint is required when tracing is enabled"})
	}

	validSamplers := []string{"always", "never", "ratio"}
	if !slices.Contains(validSamplers, cfg.Sampler) {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q (must be one of: %s)", cfg.Sampler, strings.Join(validSamplers, ", ")),
		})
	}
	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
		errs = append(errs, FieldError{Field: "telemetry.tracing.sample_ratio", Message: "sample ratio must be between 0.0 and 1.0"})
	}
	return errs
}
