package cli

import (
	"errors"
	"fmt"

	"reservoir-hq/livesync/pkg/config"
	"reservoir-hq/livesync/pkg/fetch"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitConfig  = 2 // invalid flags or configuration
	ExitAuth    = 3 // the dashboard API rejected the session
)

// ConfigError reports a bad flag or configuration value. Field is the
// dotted config path or flag name, and may be empty.
type ConfigError struct {
	Field   string
	Message string
}

func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "invalid configuration: " + e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// CommandError wraps a failure of a subcommand's work.
type CommandError struct {
	Command string
	Err     error
}

func NewCommandError(command string, err error) *CommandError {
	return &CommandError{Command: command, Err: err}
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// ExitCode maps err onto the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var (
		ce *ConfigError
		ve config.ValidationError
	)
	switch {
	case errors.As(err, &ce), errors.As(err, &ve):
		return ExitConfig
	case fetch.IsAuth(err):
		return ExitAuth
	default:
		return ExitFailure
	}
}
