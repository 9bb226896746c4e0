package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LIVESYNC_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values and validates the result. Environment variables
// are not consulted; use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML and applies defaults without validating. Unknown keys
// are rejected so typos do not silently fall back to defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. An empty path starts from defaults only.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		if cfg, err = Parse(data); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies LIVESYNC_SECTION_FIELD variables. A variable
// that is set but malformed is an error rather than being ignored.
func applyEnvOverrides(cfg *Config) error {
	var errs []FieldError

	str := func(name string, dst *string) {
		if val, ok := os.LookupEnv(EnvPrefix + name); ok && val != "" {
			*dst = val
		}
	}
	dur := func(name, field string, dst *time.Duration) {
		if val, ok := os.LookupEnv(EnvPrefix + name); ok && val != "" {
			d, err := time.ParseDuration(val)
			if err != nil {
				errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("invalid duration %q in %s%s", val, EnvPrefix, name)})
				return
			}
			*dst = d
		}
	}
	integer := func(name, field string, dst *int) {
		if val, ok := os.LookupEnv(EnvPrefix + name); ok && val != "" {
			i, err := strconv.Atoi(val)
			if err != nil {
				errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("invalid integer %q in %s%s", val, EnvPrefix, name)})
				return
			}
			*dst = i
		}
	}
	boolean := func(name, field string, dst *bool) {
		if val, ok := os.LookupEnv(EnvPrefix + name); ok && val != "" {
			b, err := strconv.ParseBool(val)
			if err != nil {
				errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("invalid boolean %q in %s%s", val, EnvPrefix, name)})
				return
			}
			*dst = b
		}
	}

	// API overrides
	str("API_BASE_URL", &cfg.API.BaseURL)
	dur("API_TIMEOUT", "api.timeout", &cfg.API.Timeout)
	integer("API_MAX_RETRIES", "api.max_retries", &cfg.API.MaxRetries)
	str("API_SESSION_COOKIE", &cfg.API.SessionCookie)
	str("API_USERNAME", &cfg.API.Username)
	str("API_PASSWORD", &cfg.API.Password)

	// Dashboard overrides
	dur("DASHBOARD_UPDATE_INTERVAL", "dashboard.update_interval", &cfg.Dashboard.UpdateInterval)
	if val := os.Getenv(EnvPrefix + "DASHBOARD_VIEWS"); val != "" {
		cfg.Dashboard.Views = splitList(val)
	}
	str("DASHBOARD_CONFIG_REFRESH_SCHEDULE", &cfg.Dashboard.ConfigRefreshSchedule)
	boolean("DASHBOARD_REPLACE_ARRAYS", "dashboard.replace_arrays", &cfg.Dashboard.ReplaceArrays)
	integer("DASHBOARD_STALE_AFTER", "dashboard.stale_after", &cfg.Dashboard.StaleAfter)

	// History overrides
	boolean("HISTORY_ENABLED", "history.enabled", &cfg.History.Enabled)
	str("HISTORY_PATH", &cfg.History.Path)
	integer("HISTORY_RETENTION_DAYS", "history.retention_days", &cfg.History.RetentionDays)
	str("HISTORY_PRUNE_SCHEDULE", &cfg.History.PruneSchedule)

	// Telemetry overrides
	str("TELEMETRY_LISTEN_ADDRESS", &cfg.Telemetry.ListenAddress)
	str("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	str("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	boolean("TELEMETRY_METRICS_ENABLED", "telemetry.metrics.enabled", &cfg.Telemetry.Metrics.Enabled)
	str("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	boolean("TELEMETRY_HEALTH_ENABLED", "telemetry.health.enabled", &cfg.Telemetry.Health.Enabled)
	boolean("TELEMETRY_TRACING_ENABLED", "telemetry.tracing.enabled", &cfg.Telemetry.Tracing.Enabled)
	str("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
