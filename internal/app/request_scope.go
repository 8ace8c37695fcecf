package app

import (
	"context"
	"strings"
)

// correlationIDContextKey stores context keys for request correlation ids.
type correlationIDContextKey struct{}

// WithCorrelationID attaches a trimmed correlation id to context. Blank ids are ignored.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	id = strings.TrimSpace(id)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationIDContextKey{}, id)
}

// CorrelationIDFromContext returns the correlation id when present.
func CorrelationIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(correlationIDContextKey{}).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
