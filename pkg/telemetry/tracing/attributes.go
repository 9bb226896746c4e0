package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"reservoir-hq/livesync/pkg/fetch"
	"reservoir-hq/livesync/pkg/poller"
)

// Span names.
const (
	SpanFetch = "livesync.fetch"
	SpanCycle = "livesync.cycle"
)

// Attribute keys.
const (
	AttrScheduler = "livesync.scheduler"
	AttrHandleID  = "livesync.handle_id"
	AttrEndpoint  = "livesync.endpoint"
	AttrTrigger   = "livesync.trigger"
	AttrChanged   = "livesync.changed"
	AttrFirst     = "livesync.first"
	AttrErrorKind = "livesync.error.kind"
)

// SetErrorAttributes records the error class of err on span.
func SetErrorAttributes(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.SetAttributes(attribute.String(AttrErrorKind, string(fetch.Classify(err))))
	SetStatus(span, err)
}

func cycleAttributes(r poller.CycleResult) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrScheduler, r.Name),
		attribute.String(AttrHandleID, r.HandleID),
		attribute.String(AttrTrigger, string(r.Trigger)),
		attribute.Bool(AttrChanged, r.Changed),
		attribute.Bool(AttrFirst, r.First),
	}
}
