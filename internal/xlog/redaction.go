// Package xlog provides the slog plumbing shared by the protocol packages:
// a redacting handler so session keys and secure-string plaintext never
// reach a configured sink, and small helpers for attaching (pool-id,
// pipeline-id) context to a logger.
package xlog

import (
	"context"
	"log/slog"
	"strings"
)

// sensitiveKeys defines attribute key substrings whose values are redacted
// before reaching the next handler. Matching is case-insensitive.
var sensitiveKeys = map[string]struct{}{
	"password":     {},
	"pass":         {},
	"secret":       {},
	"token":        {},
	"key":          {},
	"hash":         {},
	"auth":         {},
	"cred":         {},
	"sessionkey":   {},
	"rsakey":       {},
	"securestring": {},
}

// RedactingHandler is a slog.Handler that redacts sensitive attributes.
type RedactingHandler struct {
	next slog.Handler
}

// NewRedactingHandler wraps next with redaction.
func NewRedactingHandler(next slog.Handler) *RedactingHandler {
	return &RedactingHandler{next: next}
}

// Enabled implements slog.Handler.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	var attrs []slog.Attr
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, redactAttr(a))
		return true
	})

	newRecord := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	newRecord.AddAttrs(attrs...)
	return h.next.Handle(ctx, newRecord)
}

// WithAttrs implements slog.Handler.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = redactAttr(a)
	}
	return &RedactingHandler{next: h.next.WithAttrs(redacted)}
}

// WithGroup implements slog.Handler.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{next: h.next.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		redacted := make([]any, len(group))
		for i, attr := range group {
			redacted[i] = redactAttr(attr)
		}
		return slog.Group(a.Key, redacted...)
	}

	lowerKey := strings.ToLower(a.Key)
	for sens := range sensitiveKeys {
		if strings.Contains(lowerKey, sens) {
			return slog.String(a.Key, "[REDACTED]")
		}
	}
	return a
}
