package logger

import (
	"context"
	"log/slog"
)

// contextKey keeps the logger entry private to this package.
type contextKey struct{}

// WithContext returns a copy of ctx carrying logger.
// The Data API middleware stores a request-scoped logger (with request_id) this way.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger stored by WithContext, or slog.Default().
// It never returns nil, so callers can log unconditionally.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}
