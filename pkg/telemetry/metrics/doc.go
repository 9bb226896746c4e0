// Package metrics exposes scheduler and upstream metrics to Prometheus.
//
// # Metrics
//
// Cycle metrics are fed by a poller.CycleHook:
//   - livesync_cycles_total{scheduler,trigger,result}
//   - livesync_cycle_duration_seconds{scheduler}
//   - livesync_snapshot_changes_total{scheduler}
//   - livesync_last_success_timestamp_seconds{scheduler}
//   - livesync_consecutive_failures{scheduler}
//
// Upstream metrics mirror the latest reconciled /api/metrics snapshot at
// scrape time under the livesync_upstream_ prefix, so the proxy's own
// counters can be scraped through the dashboard's session.
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	sched, _ := poller.New(poller.Config[*snapshot.Metrics]{
//	    ...
//	    Hooks: []poller.CycleHook{collector.Hook()},
//	})
//	collector.WatchUpstream(sched.View)
//	http.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
package metrics
