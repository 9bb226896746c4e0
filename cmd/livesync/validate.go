package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"reservoir-hq/livesync/pkg/cli"
	"reservoir-hq/livesync/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a configuration file",
	Long: `Load a configuration file with defaults and LIVESYNC_* environment overrides
applied, and report every invalid field.

Examples:
  # Validate the file given with --config
  livesync validate --config livesync.yaml

  # Validate another file
  livesync validate /etc/livesync/livesync.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return cli.NewConfigError("", "no configuration file given (use --config or an argument)")
	}

	format, err := cli.ParseFormat(output)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfigWithEnvOverrides(path)
	w := cmd.OutOrStdout()

	var ve config.ValidationError
	if errors.As(err, &ve) {
		if format == cli.FormatJSON {
			if ferr := cli.WriteJSON(w, map[string]any{"valid": false, "errors": ve.Errors}); ferr != nil {
				return ferr
			}
			return err
		}
		fmt.Fprintf(w, "✗ %s is invalid:\n", path)
		for _, fe := range ve.Errors {
			fmt.Fprintf(w, "  - %s: %s\n", fe.Field, fe.Message)
		}
		return err
	}
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}

	if format == cli.FormatJSON {
		return cli.WriteJSON(w, map[string]any{"valid": true})
	}
	fmt.Fprintf(w, "✓ %s is valid\n", path)
	fmt.Fprintf(w, "  api:       %s (timeout %s)\n", cfg.API.BaseURL, cfg.API.Timeout)
	fmt.Fprintf(w, "  views:     %v every %s\n", cfg.Dashboard.Views, cfg.Dashboard.UpdateInterval)
	if cfg.History.Enabled {
		fmt.Fprintf(w, "  history:   %s (%d days)\n", cfg.History.Path, cfg.History.RetentionDays)
	}
	if cfg.Telemetry.Metrics.Enabled || cfg.Telemetry.Health.Enabled {
		fmt.Fprintf(w, "  telemetry: %s\n", cfg.Telemetry.ListenAddress)
	}
	return nil
}
