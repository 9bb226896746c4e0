package logging

import (
	"context"
	"log/slog"
)

// Context keys for common log fields.
type contextKey string

const (
	// HandleIDKey is the context key for scheduler handle IDs.
	HandleIDKey contextKey = "handle_id"

	// SchedulerKey is the context key for scheduler names.
	SchedulerKey contextKey = "scheduler"

	// EndpointKey is the context key for API endpoint paths.
	EndpointKey contextKey = "endpoint"
)

// WithHandleID adds a scheduler handle ID to the context.
func WithHandleID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, HandleIDKey, id)
}

// GetHandleID retrieves the scheduler handle ID from the context.
func GetHandleID(ctx context.Context) string {
	if id, ok := ctx.Value(HandleIDKey).(string); ok {
		return id
	}
	return ""
}

// WithScheduler adds a scheduler name to the context.
func WithScheduler(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, SchedulerKey, name)
}

// GetScheduler retrieves the scheduler name from the context.
func GetScheduler(ctx context.Context) string {
	if name, ok := ctx.Value(SchedulerKey).(string); ok {
		return name
	}
	return ""
}

// WithEndpoint adds an API endpoint path to the context.
func WithEndpoint(ctx context.Context, endpoint string) context.Context {
	return context.WithValue(ctx, EndpointKey, endpoint)
}

// GetEndpoint retrieves the API endpoint path from the context.
func GetEndpoint(ctx context.Context) string {
	if endpoint, ok := ctx.Value(EndpointKey).(string); ok {
		return endpoint
	}
	return ""
}

// extractContextFields extracts log fields from context as key-value pairs.
func extractContextFields(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}

	var fields []any
	if id := GetHandleID(ctx); id != "" {
		fields = append(fields, string(HandleIDKey), id)
	}
	if name := GetScheduler(ctx); name != "" {
		fields = append(fields, string(SchedulerKey), name)
	}
	if endpoint := GetEndpoint(ctx); endpoint != "" {
		fields = append(fields, string(EndpointKey), endpoint)
	}
	return fields
}

// contextHandler adds context fields to every record logged with a context.
type contextHandler struct {
	next slog.Handler
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if fields := extractContextFields(ctx); len(fields) > 0 {
		r = r.Clone()
		r.Add(fields...)
	}
	return h.next.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name)}
}
