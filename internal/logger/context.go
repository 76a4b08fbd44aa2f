package logger

import (
	"context"

	"go.uber.org/zap"
)

type contextKey struct{}

// FromContext returns the logger carried by ctx, or the global one.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if ctx == nil {
		return global
	}

	if l, ok := ctx.Value(contextKey{}).(*zap.SugaredLogger); ok && l != nil {
		return l
	}

	return global
}

// WithName returns a context whose logger has name appended, e.g. "daemon.engine".
func WithName(ctx context.Context, name string) context.Context {
	return withLogger(ctx, FromContext(ctx).Named(name))
}

// WithKV returns a context whose logger adds key=value to every entry.
func WithKV(ctx context.Context, key string, value any) context.Context {
	return withLogger(ctx, FromContext(ctx).With(key, value))
}

func withLogger(ctx context.Context, l *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}
