package logging

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// Redacted replaces the value of a sensitive attribute.
const Redacted = "***"

// Redactor masks credentials in log attributes.
type Redactor struct {
	patterns []*redactPattern
}

type redactPattern struct {
	regex       *regexp.Regexp
	replacement string
}

var defaultPatterns = []struct {
	regex       string
	replacement string
}{
	// Session cookies in Cookie / Set-Cookie headers or raw strings
	{`(reservoir\.sid=)[^;\s"]+`, "${1}" + Redacted},
	// Bearer tokens
	{`(?i)(bearer\s+)[a-zA-Z0-9\-._~+/]+=*`, "${1}" + Redacted},
	// password=..., "password":"..."
	{`(?i)("?(?:password|passwd|pwd)"?\s*[:=]\s*"?)[^\s",}]+`, "${1}" + Redacted},
}

var sensitiveKeys = []string{
	"password", "passwd", "pwd",
	"secret", "token",
	"cookie", "session",
	"authorization",
}

// NewRedactor creates a Redactor with the built-in patterns.
func NewRedactor() *Redactor {
	r := &Redactor{}
	for _, p := range defaultPatterns {
		r.patterns = append(r.patterns, &redactPattern{
			regex:       regexp.MustCompile(p.regex),
			replacement: p.replacement,
		})
	}
	return r
}

// RedactString masks credential patterns inside value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// IsSensitiveKey reports whether an attribute key names a credential.
func (r *Redactor) IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// RedactAttr returns a with sensitive content masked. Groups are walked.
func (r *Redactor) RedactAttr(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()

	if v.Kind() == slog.KindGroup {
		group := v.Group()
		out := make([]slog.Attr, len(group))
		for i, ga := range group {
			out[i] = r.RedactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}

	if r.IsSensitiveKey(a.Key) {
		if v.Kind() == slog.KindString && v.String() == "" {
			return a
		}
		return slog.String(a.Key, Redacted)
	}

	switch v.Kind() {
	case slog.KindString:
		return slog.String(a.Key, r.RedactString(v.String()))
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
	}
	return slog.Attr{Key: a.Key, Value: v}
}

// redactHandler applies a Redactor to messages and attributes.
type redactHandler struct {
	next     slog.Handler
	redactor *Redactor
}

func (h *redactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *redactHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, h.redactor.RedactString(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redactor.RedactAttr(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *redactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redactor.RedactAttr(a)
	}
	return &redactHandler{next: h.next.WithAttrs(redacted), redactor: h.redactor}
}

func (h *redactHandler) WithGroup(name string) slog.Handler {
	return &redactHandler{next: h.next.WithGroup(name), redactor: h.redactor}
}
