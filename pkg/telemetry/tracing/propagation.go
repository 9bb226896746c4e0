package tracing

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Inject writes the trace context of the request's context into its
// headers using the global propagator.
func Inject(req *http.Request) {
	otel.GetTextMapPropagator().Inject(req.Context(), propagation.HeaderCarrier(req.Header))
}

// Transport is an http.RoundTripper that propagates trace context to the
// dashboard API.
type Transport struct {
	Base http.RoundTripper
}

// WrapTransport wraps base in a Transport. It has the signature of
// client.Config.WrapTransport.
func WrapTransport(base http.RoundTripper) http.RoundTripper {
	return &Transport{Base: base}
}

// RoundTrip implements http.RoundTripper. The request is cloned before
// headers are added, as RoundTrippers must not modify their input.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	out := req.Clone(req.Context())
	Inject(out)
	return base.RoundTrip(out)
}

// CloseIdleConnections forwards to the base transport so http.Client can
// release pooled connections.
func (t *Transport) CloseIdleConnections() {
	type closeIdler interface{ CloseIdleConnections() }
	if c, ok := t.Base.(closeIdler); ok {
		c.CloseIdleConnections()
	}
}
