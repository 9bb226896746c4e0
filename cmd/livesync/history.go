package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"reservoir-hq/livesync/pkg/changes"
	"reservoir-hq/livesync/pkg/cli"
	"reservoir-hq/livesync/pkg/history"
)

var historyFlags struct {
	scheduler string
	since     time.Duration
	limit     int
	changed   bool
	failed    bool
	prune     bool
	replay    bool
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded poll cycles",
	Long: `Query the cycle history recorded by "livesync watch" when history is enabled.

Examples:
  # Last 100 cycles
  livesync history

  # Failed metrics cycles in the last hour
  livesync history --view metrics --since 1h --failed

  # Rebuild the config view as of the newest recorded change
  livesync history --view config --replay

  # Apply the retention policy now
  livesync history --prune`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyFlags.scheduler, "view", "", "only cycles of this view")
	historyCmd.Flags().DurationVar(&historyFlags.since, "since", 0, "only cycles started within this duration")
	historyCmd.Flags().IntVarP(&historyFlags.limit, "limit", "n", history.DefaultLimit, "maximum number of cycles")
	historyCmd.Flags().BoolVar(&historyFlags.changed, "changed", false, "only cycles that changed the state")
	historyCmd.Flags().BoolVar(&historyFlags.failed, "failed", false, "only failed cycles")
	historyCmd.Flags().BoolVar(&historyFlags.prune, "prune", false, "delete cycles outside the retention policy and exit")
	historyCmd.Flags().BoolVar(&historyFlags.replay, "replay", false, "print the view's state rebuilt from recorded changes")
}

func runHistory(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(output)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return cli.NewConfigError("history.enabled", "history is disabled")
	}

	store, err := history.Open(cfg.History, nil)
	if err != nil {
		return cli.NewCommandError("history", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	if historyFlags.prune {
		deleted, err := history.NewPruner(store, history.RetentionFromConfig(cfg.History), nil).Prune(ctx)
		if err != nil {
			return cli.NewCommandError("history", err)
		}
		fmt.Fprintf(w, "✓ Deleted %d cycles\n", deleted)
		return nil
	}

	if historyFlags.replay {
		return replay(ctx, store, format, cmd)
	}

	q := &history.Query{
		Scheduler:   historyFlags.scheduler,
		Limit:       historyFlags.limit,
		ChangedOnly: historyFlags.changed,
		FailedOnly:  historyFlags.failed,
	}
	if historyFlags.since > 0 {
		q.Since = time.Now().Add(-historyFlags.since)
	}

	records, err := store.Query(ctx, q)
	if err != nil {
		return cli.NewCommandError("history", err)
	}
	if format == cli.FormatJSON {
		return cli.WriteJSON(w, records)
	}
	if len(records) == 0 {
		fmt.Fprintln(w, "No cycles recorded")
		return nil
	}
	return cli.NewRenderer(w).History(records)
}

// replay rebuilds a view's state from its last initial snapshot and the
// patches recorded after it, oldest first.
func replay(ctx context.Context, store history.Storage, format cli.OutputFormat, cmd *cobra.Command) error {
	if historyFlags.scheduler == "" {
		return cli.NewConfigError("view", "--replay needs --view")
	}

	q := &history.Query{
		Scheduler:   historyFlags.scheduler,
		ChangedOnly: true,
		Ascending:   true,
	}
	n, err := store.Count(ctx, q)
	if err != nil {
		return cli.NewCommandError("history", err)
	}
	if n == 0 {
		return cli.NewCommandError("history", fmt.Errorf("no recorded changes for view %q", historyFlags.scheduler))
	}
	q.Limit = int(n)

	records, err := store.Query(ctx, q)
	if err != nil {
		return cli.NewCommandError("history", err)
	}

	var (
		base    []byte
		patches [][]byte
	)
	for _, rec := range records {
		if len(rec.Patch) == 0 {
			continue
		}
		if rec.First {
			base = rec.Patch
			patches = patches[:0]
			continue
		}
		patches = append(patches, rec.Patch)
	}
	if base == nil && len(patches) == 0 {
		return cli.NewCommandError("history", fmt.Errorf("no recorded changes for view %q", historyFlags.scheduler))
	}
	applied := len(patches)
	if base != nil {
		applied++
	}

	doc, err := changes.Replay(base, patches...)
	if err != nil {
		return cli.NewCommandError("history", err)
	}

	w := cmd.OutOrStdout()
	if format == cli.FormatJSON {
		_, err := fmt.Fprintf(w, "%s\n", doc)
		return err
	}
	fmt.Fprintf(w, "%s as rebuilt from %d recorded changes:\n%s\n", historyFlags.scheduler, applied, doc)
	return nil
}
