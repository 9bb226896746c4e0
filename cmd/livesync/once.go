package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"reservoir-hq/livesync/pkg/cli"
	"reservoir-hq/livesync/pkg/config"
)

var onceFlags struct {
	views []string
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Fetch every view once and print it",
	Long: `Run a single cycle of every configured view and print the resulting state.

Examples:
  # Print the metrics view
  livesync once

  # Print metrics and config as JSON
  livesync once --view metrics --view config --output json`,
	RunE: runOnce,
}

func init() {
	rootCmd.AddCommand(onceCmd)

	onceCmd.Flags().StringSliceVar(&onceFlags.views, "view", nil, "views to fetch (overrides dashboard.views)")
}

func runOnce(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(output)
	if err != nil {
		return err
	}

	if len(onceFlags.views) > 0 {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.Dashboard.Views = onceFlags.views
		if err := config.Validate(cfg); err != nil {
			return err
		}
	}

	a, err := newApp(cmd.Context(), appOptions{views: true})
	if err != nil {
		return err
	}
	defer a.Close()

	g, gctx := errgroup.WithContext(cmd.Context())
	for _, v := range a.views {
		g.Go(func() error {
			if err := v.RefreshOnce(gctx); err != nil {
				return fmt.Errorf("%s: %w", v.Name(), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return cli.NewCommandError("once", err)
	}

	w := cmd.OutOrStdout()
	if format == cli.FormatJSON {
		out := make(map[string]json.RawMessage, len(a.views))
		for _, v := range a.views {
			raw, err := v.Snapshot()
			if err != nil {
				return cli.NewCommandError("once", fmt.Errorf("%s: %w", v.Name(), err))
			}
			out[v.Name()] = raw
		}
		return cli.WriteJSON(w, out)
	}

	r := cli.NewRenderer(w)
	for i, v := range a.views {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "== %s ==\n", v.Name())
		if err := v.Render(r); err != nil {
			return cli.NewCommandError("once", fmt.Errorf("%s: %w", v.Name(), err))
		}
	}
	return nil
}
