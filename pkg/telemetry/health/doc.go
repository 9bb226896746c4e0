// Package health serves liveness, readiness, and version endpoints for a
// livesync process.
//
// Readiness aggregates named checks. Each live view registers a scheduler
// check that fails when the loop is not running, when its last cycle
// failed, or when its data is older than stale_after poll intervals. The
// upstream check asks the proxy for its version.
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.RegisterCheck("metrics", health.SchedulerCheck(sched, cfg.Dashboard.StaleAfter, nil))
//	health.Register(mux, checker, cfg.Telemetry.Health, health.VersionInfo{Version: version})
package health
