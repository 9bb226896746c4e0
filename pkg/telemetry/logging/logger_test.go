package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"reservoir-hq/livesync/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "valid JSON config", config: Config{Level: "info", Format: "json", RedactSecrets: true}},
		{name: "valid text config", config: Config{Level: "debug", Format: "text"}},
		{name: "empty config uses defaults", config: Config{}},
		{name: "upper case level", config: Config{Level: "WARN"}},
		{name: "invalid log level", config: Config{Level: "invalid"}, wantErr: true},
		{name: "invalid format", config: Config{Format: "console"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Writer = &bytes.Buffer{}
			logger, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && logger == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}

	logger.Info("dropped")
	logger.Warn("kept")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["msg"] != "kept" {
		t.Errorf("unexpected output: %v", lines)
	}
}

func TestLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	child := logger.With("component", "scheduler")

	child.Debug("before")
	if err := logger.SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel() error = %v", err)
	}
	child.Debug("after")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["msg"] != "after" {
		t.Errorf("derived logger did not follow the level change: %v", lines)
	}
	if logger.Level() != slog.LevelDebug {
		t.Errorf("Level() = %v, want debug", logger.Level())
	}
	if err := logger.SetLevel("loud"); err == nil {
		t.Error("SetLevel accepted an unknown level")
	}
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Format: "text", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}

	logger.Info("cycle finished", "changed", true)

	if !strings.Contains(buf.String(), "msg=\"cycle finished\" changed=true") {
		t.Errorf("unexpected text output: %q", buf.String())
	}
}

func TestLogger_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Format: "json", Writer: &buf, RedactSecrets: true})
	if err != nil {
		t.Fatal(err)
	}

	ctx := WithHandleID(context.Background(), "h-1")
	ctx = WithScheduler(ctx, "metrics")
	ctx = WithEndpoint(ctx, "/metrics")

	logger.InfoContext(ctx, "fetched")
	logger.WithContext(ctx).Info("detached")

	for _, line := range decodeLines(t, &buf) {
		if line["handle_id"] != "h-1" || line["scheduler"] != "metrics" || line["endpoint"] != "/metrics" {
			t.Errorf("context fields missing from %v", line)
		}
	}
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.LoggingConfig{Level: "debug", Format: "text", AddSource: true})

	if cfg.Level != "debug" || cfg.Format != "text" || !cfg.AddSource {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if !cfg.RedactSecrets {
		t.Error("configured loggers must redact secrets")
	}
}

func TestLogger_RedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Format: "json", Writer: &buf, RedactSecrets: true})
	if err != nil {
		t.Fatal(err)
	}

	logger.With("password", "hunter2").Info("login",
		"username", "admin",
		"header", "Cookie: reservoir.sid=abc123; theme=dark",
		"err", errors.New("upstream said: Bearer eyJhbGciOi.payload"),
		slog.Group("request", "authorization", "Basic Zm9vOmJhcg=="),
	)

	out := buf.String()
	for _, secret := range []string{"hunter2", "abc123", "eyJhbGciOi", "Zm9vOmJhcg"} {
		if strings.Contains(out, secret) {
			t.Errorf("secret %q leaked: %s", secret, out)
		}
	}
	for _, kept := range []string{"admin", "theme=dark", "reservoir.sid=***"} {
		if !strings.Contains(out, kept) {
			t.Errorf("expected %q in output: %s", kept, out)
		}
	}
}

func TestLogger_NoRedactionWhenDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}

	logger.Info("login", "password", "hunter2")

	if !strings.Contains(buf.String(), "hunter2") {
		t.Error("value was redacted with RedactSecrets disabled")
	}
}
