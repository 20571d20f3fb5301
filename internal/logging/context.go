package logging

import (
	"context"

	"go.uber.org/zap"
)

type contextKey int

const queryIDKey contextKey = iota

// WithQueryID attaches a query identifier to the context. Every log line
// emitted with this context carries the identifier, so a failing request
// can be reconstructed offline.
func WithQueryID(ctx context.Context, queryID string) context.Context {
	return context.WithValue(ctx, queryIDKey, queryID)
}

// QueryID returns the query identifier from the context, or "" if absent.
func QueryID(ctx context.Context) string {
	if id, ok := ctx.Value(queryIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextFields extracts log fields from the context.
func ContextFields(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	if id := QueryID(ctx); id != "" {
		return []zap.Field{zap.String("query_id", id)}
	}
	return nil
}
