// Package telemetry groups the observability packages of livesync.
//
//   - logging: slog setup with secret redaction and context fields
//   - metrics: Prometheus cycle metrics and the upstream snapshot mirror
//   - tracing: OpenTelemetry spans for fetches and cycles
//   - health: liveness, readiness, and version probes
//
// The metrics and health endpoints are served by pkg/server on
// telemetry.listen_address.
package telemetry
