package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"reservoir-hq/livesync/pkg/fetch"
	"reservoir-hq/livesync/pkg/poller"
)

type tracedFetcher[T any] struct {
	tracer    *Tracer
	scheduler string
	endpoint  string
	inner     fetch.Fetcher[T]
}

// WrapFetcher runs every Fetch of inner inside a client span. A disabled
// tracer returns inner unchanged.
func WrapFetcher[T any](t *Tracer, scheduler, endpoint string, inner fetch.Fetcher[T]) fetch.Fetcher[T] {
	if t == nil || !t.Enabled() {
		return inner
	}
	return &tracedFetcher[T]{tracer: t, scheduler: scheduler, endpoint: endpoint, inner: inner}
}

func (f *tracedFetcher[T]) Fetch(ctx context.Context) (T, error) {
	ctx, span := f.tracer.Start(ctx, SpanFetch,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(AttrScheduler, f.scheduler),
			attribute.String(AttrEndpoint, f.endpoint),
		),
	)
	defer span.End()

	snap, err := f.inner.Fetch(ctx)
	if err != nil {
		SetErrorAttributes(span, err)
		return snap, err
	}
	SetStatus(span, nil)
	return snap, nil
}

// Hook returns a CycleHook that records a span for every finished cycle
// using the cycle's own start time and duration.
func (t *Tracer) Hook() poller.CycleHook {
	return func(r poller.CycleResult) {
		if !t.enabled {
			return
		}
		_, span := t.Start(context.Background(), SpanCycle,
			trace.WithTimestamp(r.Started),
			trace.WithAttributes(cycleAttributes(r)...),
		)
		switch {
		case r.Cancelled:
			span.SetAttributes(attribute.String(AttrErrorKind, string(fetch.KindCancelled)))
		case r.Err != nil:
			SetErrorAttributes(span, r.Err)
		default:
			SetStatus(span, nil)
		}
		span.End(trace.WithTimestamp(r.Started.Add(r.Duration)))
	}
}
