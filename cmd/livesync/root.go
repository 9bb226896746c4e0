package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"reservoir-hq/livesync/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
	output  string
)

var rootCmd = &cobra.Command{
	Use:   "livesync",
	Short: "Live dashboard data sync for the Reservoir caching proxy",
	Long: `livesync polls a Reservoir caching proxy's dashboard API and keeps a live,
in-place reconciled copy of its metrics and configuration.

Every poll cycle reports whether anything changed and what. The poll period
adapts to configuration reloads without restarting, and cycles can be
recorded to SQLite for later inspection.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with a code derived from the error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults plus LIVESYNC_* environment when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "text", "output format (text, json)")
}
