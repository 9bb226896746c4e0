package cli

import (
	"errors"
	"fmt"
	"testing"

	"reservoir-hq/livesync/pkg/config"
	"reservoir-hq/livesync/pkg/fetch"
)

func TestConfigError(t *testing.T) {
	err := &ConfigError{
		Field:   "dashboard.update_interval",
		Message: "must be at least 1s",
	}

	expected := "invalid dashboard.update_interval: must be at least 1s"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}

	bare := NewConfigError("", "no config file")
	if got := bare.Error(); got != "invalid configuration: no config file" {
		t.Errorf("Error() = %q", got)
	}
}

func TestCommandErrorUnwrap(t *testing.T) {
	underlyingErr := errors.New("underlying error")
	err := NewCommandError("watch", underlyingErr)

	expected := "watch: underlying error"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, underlyingErr) {
		t.Error("errors.Is() should work with CommandError.Unwrap()")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain", errors.New("boom"), ExitFailure},
		{"config error", NewConfigError("output", "bad"), ExitConfig},
		{"validation error", config.ValidationError{Errors: []config.FieldError{{Field: "api.base_url", Message: "required"}}}, ExitConfig},
		{"wrapped validation", fmt.Errorf("load: %w", config.ValidationError{}), ExitConfig},
		{"auth", NewCommandError("once", &fetch.AuthError{Endpoint: "/metrics"}), ExitAuth},
		{"transport", &fetch.TransportError{URL: "http://x/api/metrics"}, ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
