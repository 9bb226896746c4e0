package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidate_Defaults(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "empty base url",
			mutate:    func(c *Config) { c.API.BaseURL = "" },
			wantField: "api.base_url",
		},
		{
			name:      "unsupported scheme",
			mutate:    func(c *Config) { c.API.BaseURL = "ftp://reservoir" },
			wantField: "api.base_url",
		},
		{
			name:      "missing host",
			mutate:    func(c *Config) { c.API.BaseURL = "http://" },
			wantField: "api.base_url",
		},
		{
			name:      "negative retries",
			mutate:    func(c *Config) { c.API.MaxRetries = -1 },
			wantField: "api.max_retries",
		},
		{
			name:      "username without password",
			mutate:    func(c *Config) { c.API.Username = "admin" },
			wantField: "api.username",
		},
		{
			name:      "interval too short",
			mutate:    func(c *Config) { c.Dashboard.UpdateInterval = 100 * time.Millisecond },
			wantField: "dashboard.update_interval",
		},
		{
			name:      "unknown view",
			mutate:    func(c *Config) { c.Dashboard.Views = []string{"metrics", "graphs"} },
			wantField: "dashboard.views[1]",
		},
		{
			name:      "duplicate view",
			mutate:    func(c *Config) { c.Dashboard.Views = []string{"cache", "cache"} },
			wantField: "dashboard.views[1]",
		},
		{
			name:      "bad refresh schedule",
			mutate:    func(c *Config) { c.Dashboard.ConfigRefreshSchedule = "every minute" },
			wantField: "dashboard.config_refresh_schedule",
		},
		{
			name:      "stale after zero",
			mutate:    func(c *Config) { c.Dashboard.StaleAfter = -1 },
			wantField: "dashboard.stale_after",
		},
		{
			name: "bad prune schedule",
			mutate: func(c *Config) {
				c.History.Enabled = true
				c.History.PruneSchedule = "* *"
			},
			wantField: "history.prune_schedule",
		},
		{
			name: "bad listen address",
			mutate: func(c *Config) {
				c.Telemetry.Metrics.Enabled = true
				c.Telemetry.ListenAddress = "nohostport"
			},
			wantField: "telemetry.listen_address",
		},
		{
			name:      "bad log level",
			mutate:    func(c *Config) { c.Telemetry.Logging.Level = "verbose" },
			wantField: "telemetry.logging.level",
		},
		{
			name:      "bad log format",
			mutate:    func(c *Config) { c.Telemetry.Logging.Format = "xml" },
			wantField: "telemetry.logging.format",
		},
		{
			name: "bad tracing sampler",
			mutate: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.Sampler = "sometimes"
			},
			wantField: "telemetry.tracing.sampler",
		},
		{
			name: "tracing ratio out of range",
			mutate: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.SampleRatio = 1.5
			},
			wantField: "telemetry.tracing.sample_ratio",
		},
		{
			name:      "relative metrics path",
			mutate:    func(c *Config) { c.Telemetry.Metrics.Path = "metrics" },
			wantField: "telemetry.metrics.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error for field %q, got %v", tt.wantField, verr.Errors)
			}
		})
	}
}

func TestValidate_HistoryDisabledSkipsChecks(t *testing.T) {
	cfg := Default()
	cfg.History.PruneSchedule = "not a schedule"

	if err := Validate(cfg); err != nil {
		t.Errorf("disabled history should not be validated: %v", err)
	}
}

func TestValidationError_Error(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "api.base_url", Message: "required"}}}
	if got := single.Error(); got != "configuration validation failed: api.base_url: required" {
		t.Errorf("unexpected message: %q", got)
	}

	multi := ValidationError{Errors: []FieldError{
		{Field: "a", Message: "x"},
		{Field: "b", Message: "y"},
	}}
	if got := multi.Error(); !strings.Contains(got, "2 errors") || !strings.Contains(got, "  - b: y") {
		t.Errorf("unexpected message: %q", got)
	}
}

func TestConfigSchedule(t *testing.T) {
	tests := []struct {
		schedule string
		want     string
	}{
		{DefaultConfigRefreshSchedule, DefaultConfigRefreshSchedule},
		{"0 * * * *", "0 * * * *"},
		{ScheduleOff, ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.schedule, func(t *testing.T) {
			d := DashboardConfig{ConfigRefreshSchedule: tt.schedule}
			if got := d.ConfigSchedule(); got != tt.want {
				t.Errorf("ConfigSchedule() = %q, want %q", got, tt.want)
			}

			cfg := Default()
			cfg.Dashboard.ConfigRefreshSchedule = tt.schedule
			if err := Validate(cfg); err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}
