package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reservoir-hq/livesync/pkg/config"
	"reservoir-hq/livesync/pkg/fetch"
	"reservoir-hq/livesync/pkg/poller"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer(t *testing.T) (*Tracer, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return NewWithProvider(provider), recorder
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestNew_Disabled(t *testing.T) {
	tracer, err := New(&config.TracingConfig{Enabled: false}, "dev")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if tracer.Enabled() {
		t.Error("disabled config produced an enabled tracer")
	}
	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(nil, "dev"); err == nil {
		t.Error("expected error for nil config")
	}
	cfg := &config.TracingConfig{Enabled: true, Endpoint: "localhost:4317", Sampler: "sometimes"}
	if _, err := New(cfg, "dev"); err == nil {
		t.Error("expected error for unknown sampler")
	}
}

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		strategy string
		ratio    float64
		wantErr  bool
	}{
		{SamplerAlways, 0, false},
		{SamplerNever, 0, false},
		{SamplerRatio, 0.5, false},
		{SamplerRatio, 1.5, true},
		{"sometimes", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			_, err := createSampler(tt.strategy, tt.ratio)
			if (err != nil) != tt.wantErr {
				t.Errorf("createSampler(%q, %v) error = %v, wantErr %v", tt.strategy, tt.ratio, err, tt.wantErr)
			}
		})
	}
}

func TestWrapFetcher(t *testing.T) {
	tracer, recorder := newRecordingTracer(t)

	var sawTrace string
	ok := WrapFetcher(tracer, "metrics", "/metrics", fetch.Func[int](func(ctx context.Context) (int, error) {
		sawTrace = TraceID(ctx)
		return 1, nil
	}))
	failing := WrapFetcher(tracer, "metrics", "/metrics", fetch.Func[int](func(context.Context) (int, error) {
		return 0, &fetch.AuthError{Endpoint: "/metrics"}
	}))

	if v, err := ok.Fetch(context.Background()); err != nil || v != 1 {
		t.Fatalf("Fetch() = %v, %v", v, err)
	}
	if _, err := failing.Fetch(context.Background()); !fetch.IsAuth(err) {
		t.Fatalf("error was not passed through: %v", err)
	}

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("recorded %d spans, want 2", len(spans))
	}
	if sawTrace == "" || sawTrace != spans[0].SpanContext().TraceID().String() {
		t.Error("inner fetch did not run inside the span")
	}
	if spans[0].Name() != SpanFetch || spans[0].Status().Code != codes.Ok {
		t.Errorf("unexpected success span: %s %v", spans[0].Name(), spans[0].Status())
	}
	if v, _ := attrValue(spans[0].Attributes(), AttrEndpoint); v.AsString() != "/metrics" {
		t.Errorf("endpoint attribute = %q", v.AsString())
	}
	if spans[1].Status().Code != codes.Error {
		t.Errorf("failed fetch status = %v, want Error", spans[1].Status())
	}
	if v, _ := attrValue(spans[1].Attributes(), AttrErrorKind); v.AsString() != string(fetch.KindAuth) {
		t.Errorf("error kind = %q, want auth", v.AsString())
	}
}

func TestWrapFetcher_DisabledReturnsInner(t *testing.T) {
	inner := fetch.Func[int](func(context.Context) (int, error) { return 0, nil })

	if got := WrapFetcher[int](Noop(), "m", "/metrics", inner); got == nil {
		t.Fatal("WrapFetcher returned nil")
	} else if _, wrapped := got.(*tracedFetcher[int]); wrapped {
		t.Error("disabled tracer should not wrap the fetcher")
	}
}

func TestHook(t *testing.T) {
	tracer, recorder := newRecordingTracer(t)
	hook := tracer.Hook()
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	hook(poller.CycleResult{Name: "cache", HandleID: "h1", Trigger: poller.TriggerLoop, Started: start, Duration: 40 * time.Millisecond, Changed: true})
	hook(poller.CycleResult{Name: "cache", Trigger: poller.TriggerManual, Started: start, Err: errors.New("boom")})
	hook(poller.CycleResult{Name: "cache", Trigger: poller.TriggerLoop, Started: start, Cancelled: true})

	spans := recorder.Ended()
	if len(spans) != 3 {
		t.Fatalf("recorded %d spans, want 3", len(spans))
	}

	first := spans[0]
	if !first.StartTime().Equal(start) || first.EndTime().Sub(first.StartTime()) != 40*time.Millisecond {
		t.Errorf("span timing = %v..%v", first.StartTime(), first.EndTime())
	}
	if v, _ := attrValue(first.Attributes(), AttrChanged); !v.AsBool() {
		t.Error("changed attribute not set")
	}
	if spans[1].Status().Code != codes.Error {
		t.Errorf("failed cycle status = %v", spans[1].Status())
	}
	if v, _ := attrValue(spans[2].Attributes(), AttrErrorKind); v.AsString() != string(fetch.KindCancelled) {
		t.Errorf("cancelled cycle kind = %q", v.AsString())
	}
}

func TestTransport_InjectsTraceParent(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	var header string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("traceparent")
	}))
	defer srv.Close()

	tracer, _ := newRecordingTracer(t)
	ctx, span := tracer.Start(context.Background(), "test")
	defer span.End()

	client := &http.Client{Transport: WrapTransport(http.DefaultTransport)}
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if header == "" {
		t.Fatal("traceparent header was not sent")
	}
	if want := span.SpanContext().TraceID().String(); len(header) < 35 || header[3:35] != want {
		t.Errorf("traceparent = %q, want trace ID %s", header, want)
	}
	if req.Header.Get("traceparent") != "" {
		t.Error("transport modified the caller's request")
	}
}
