package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"reservoir-hq/livesync/pkg/config"
)

// LogFormat represents the output format for logs.
type LogFormat string

const (
	// FormatJSON outputs logs in JSON format.
	FormatJSON LogFormat = "json"
	// FormatText outputs logs in logfmt-style text.
	FormatText LogFormat = "text"
)

// Config contains configuration for the Logger.
type Config struct {
	// Level is the minimum log level ("debug", "info", "warn", "error")
	Level string

	// Format is the output format ("json", "text")
	Format string

	// AddSource includes file and line number in logs
	AddSource bool

	// RedactSecrets masks credentials in attributes and messages
	RedactSecrets bool

	// Writer is the output writer (defaults to os.Stderr)
	Writer io.Writer
}

// FromConfig maps the telemetry.logging section onto a Config. Redaction is
// always on for configured loggers.
func FromConfig(cfg config.LoggingConfig) Config {
	return Config{
		Level:         cfg.Level,
		Format:        cfg.Format,
		AddSource:     cfg.AddSource,
		RedactSecrets: true,
	}
}

// Logger is a *slog.Logger whose minimum level can be changed after
// construction, for example when the configuration file is reloaded.
type Logger struct {
	*slog.Logger

	level *slog.LevelVar
}

// New creates a new Logger with the given configuration.
func New(cfg Config) (*Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	format, err := parseFormat(cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("invalid log format: %w", err)
	}

	writer := cfg.Writer
	if writer == nil {
		writer = os.Stderr
	}

	levelVar := new(slog.LevelVar)
	levelVar.Set(level)

	opts := &slog.HandlerOptions{
		Level:     levelVar,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch format {
	case FormatText:
		handler = slog.NewTextHandler(writer, opts)
	default:
		handler = slog.NewJSONHandler(writer, opts)
	}

	handler = &contextHandler{next: handler}
	if cfg.RedactSecrets {
		handler = &redactHandler{next: handler, redactor: NewRedactor()}
	}

	return &Logger{Logger: slog.New(handler), level: levelVar}, nil
}

// SetLevel changes the minimum level of l and every logger derived from it.
func (l *Logger) SetLevel(level string) error {
	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}
	l.level.Set(lvl)
	return nil
}

// Level returns the current minimum level.
func (l *Logger) Level() slog.Level {
	return l.level.Level()
}

// WithContext returns a logger carrying the context fields of ctx as
// attributes, for code that logs without passing a context.
func (l *Logger) WithContext(ctx context.Context) *slog.Logger {
	args := extractContextFields(ctx)
	if len(args) == 0 {
		return l.Logger
	}
	return l.Logger.With(args...)
}

// parseLevel parses a log level string into slog.Level.
func parseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", levelStr)
	}
}

// parseFormat parses a log format string into LogFormat.
func parseFormat(formatStr string) (LogFormat, error) {
	switch strings.ToLower(formatStr) {
	case "json", "":
		return FormatJSON, nil
	case "text":
		return FormatText, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format: %s", formatStr)
	}
}
