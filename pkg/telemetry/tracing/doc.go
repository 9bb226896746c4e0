// Package tracing records OpenTelemetry spans for poll cycles.
//
// Each fetch runs inside a "livesync.fetch" span carrying the scheduler
// name and endpoint, and the dashboard API client propagates the W3C
// traceparent header so a proxy that traces its own handlers joins the
// same trace. A poller.CycleHook adds a "livesync.cycle" span per cycle
// with the outcome.
//
// When telemetry.tracing.enabled is false the tracer is a no-op and the
// wrappers cost a function call.
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	defer tracer.Shutdown(ctx)
//
//	fetcher := tracing.WrapFetcher(tracer, "metrics", client.EndpointMetrics, api.Metrics())
package tracing
