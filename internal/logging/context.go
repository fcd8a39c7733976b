package logging

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	requestIDKey
	spanKey
)

// spanContext identifies the active span within a trace.
type spanContext struct {
	traceID string
	spanID  string
}

// WithLogger stores the provided logger on the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the request-scoped logger or falls back to slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// WithRequestID stores a request identifier on the context. Spans started
// beneath it reuse the request id as their trace id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil || requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext retrieves a previously stored request identifier.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// TraceIDFromContext returns the trace of the active span, or "" outside any span.
func TraceIDFromContext(ctx context.Context) string {
	return currentSpan(ctx).traceID
}

// SpanIDFromContext returns the active span identifier, or "" outside any span.
func SpanIDFromContext(ctx context.Context) string {
	return currentSpan(ctx).spanID
}

func currentSpan(ctx context.Context) spanContext {
	if ctx == nil {
		return spanContext{}
	}
	sc, _ := ctx.Value(spanKey).(spanContext)
	return sc
}

func withSpan(ctx context.Context, sc spanContext) context.Context {
	return context.WithValue(ctx, spanKey, sc)
}
