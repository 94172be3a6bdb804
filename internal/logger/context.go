package logger

import (
	"context"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const loggerContextKey contextKey = "logger"

// WithLogger stores a Logger in the context.
func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, l)
}

// FromContext retrieves the Logger from the context, falling back to the
// default logger when none is stored.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerContextKey).(*Logger); ok {
		return l
	}
	return Default()
}
