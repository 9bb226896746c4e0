package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"reservoir-hq/livesync/pkg/changes"
	"reservoir-hq/livesync/pkg/cli"
	"reservoir-hq/livesync/pkg/config"
	"reservoir-hq/livesync/pkg/poller"
	"reservoir-hq/livesync/pkg/telemetry/health"
)

var watchFlags struct {
	full  bool
	quiet bool
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the dashboard API and print what changes",
	Long: `Poll every configured view until interrupted, reconciling each snapshot into
the live state and printing one line per cycle.

The poll period follows dashboard.update_interval: when --config is given the
file is watched and reloaded on change (or on SIGHUP), and the new period
applies from the next wait. The config view is refreshed on
dashboard.config_refresh_schedule instead of the poll loop unless it is "off".

Examples:
  # Poll with defaults
  livesync watch

  # Print the full state after every change
  livesync watch --full

  # Serve metrics and health probes, no console output
  livesync watch --config livesync.yaml --quiet`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&watchFlags.full, "full", false, "print the full state after every change")
	watchCmd.Flags().BoolVarP(&watchFlags.quiet, "quiet", "q", false, "do not print cycles")
}

// cronView reports a cron-driven view as running while its trigger is, and
// without a poll interval so readiness does not judge it stale.
type cronView struct {
	liveView
	trigger *poller.CronTrigger
}

func (c cronView) Status() poller.Status {
	st := c.liveView.Status()
	st.Running = c.trigger.IsRunning()
	st.Interval = 0
	return st
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	renderer := cli.NewRenderer(cmd.OutOrStdout())
	var printMu sync.Mutex
	var a *app

	sink := func(res poller.CycleResult, change *changes.Change) {
		if watchFlags.quiet {
			return
		}
		printMu.Lock()
		defer printMu.Unlock()
		renderer.Cycle(res, change)
		if watchFlags.full && change != nil {
			for _, v := range a.views {
				if v.Name() == res.Name {
					if err := v.Render(renderer); err != nil {
						a.logger.Warn("render failed", "view", v.Name(), "error", err)
					}
				}
			}
		}
	}

	a, err := newApp(ctx, appOptions{views: true, telemetry: true, sink: sink})
	if err != nil {
		return err
	}
	defer a.Close()

	g, gctx := errgroup.WithContext(ctx)

	if cfgFile != "" {
		w, err := config.NewWatcher(cfgFile, config.DefaultDebounceInterval, a.logger.Logger)
		if err != nil {
			return cli.NewCommandError("watch", err)
		}
		g.Go(func() error { return w.Watch(gctx, a.applyConfig) })

		config.OnReload(a.applyConfig)
		g.Go(func() error { return reloadOnHangup(gctx, a) })
	}

	if a.server.Enabled() {
		g.Go(func() error { return a.server.Start(gctx) })
	}

	if a.cfg.History.Enabled {
		if err := a.pruner.Start(gctx); err != nil {
			return cli.NewCommandError("watch", err)
		}
	}

	schedule := a.cfg.Dashboard.ConfigSchedule()
	for _, v := range a.views {
		var src health.StatusSource = v

		if v.Name() == config.ViewConfig && schedule != "" {
			trigger := poller.NewCronTrigger(schedule, v, a.cfg.API.Timeout, a.logger.Logger)
			if err := trigger.Start(gctx); err != nil {
				return cli.NewCommandError("watch", err)
			}
			// Populate the view now instead of waiting for the first tick.
			g.Go(func() error {
				if err := v.RefreshOnce(gctx); err != nil && !errors.Is(err, context.Canceled) {
					a.logger.Warn("initial config refresh failed", "error", err)
				}
				return nil
			})
			src = cronView{liveView: v, trigger: trigger}
		} else {
			v.Start()
		}

		a.checker.RegisterCheck("view:"+v.Name(), health.SchedulerCheck(src, a.cfg.Dashboard.StaleAfter, nil))
	}

	a.logger.Info("watching dashboard",
		"api", a.cfg.API.BaseURL,
		"views", a.cfg.Dashboard.Views,
		"interval", a.interval.CurrentInterval(),
	)

	<-gctx.Done()
	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return cli.NewCommandError("watch", err)
	}
	if !watchFlags.quiet {
		fmt.Fprintln(cmd.ErrOrStderr(), "stopped")
	}
	return nil
}

// reloadOnHangup reloads the configuration file on SIGHUP until ctx ends.
func reloadOnHangup(ctx context.Context, a *app) error {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			if err := config.ReloadConfig(cfgFile); err != nil {
				a.logger.Error("reload on SIGHUP failed, keeping previous configuration", "error", err)
				continue
			}
			a.logger.Info("configuration reloaded on SIGHUP")
		}
	}
}
