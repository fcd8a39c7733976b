package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span times one unit of work inside a request trace.
type Span struct {
	name   string
	logger *slog.Logger
	start  time.Time
	err    error
}

// StartSpan derives a child span from ctx. The returned context carries a
// logger tagged with the trace, span and parent span identifiers, so anything
// logged through FromContext inside the span is correlated with it.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	parent := currentSpan(ctx)
	logger := FromContext(ctx)

	sc := spanContext{traceID: parent.traceID, spanID: uuid.NewString()}
	if sc.traceID == "" {
		sc.traceID = RequestIDFromContext(ctx)
		if sc.traceID == "" {
			sc.traceID = uuid.NewString()
		}
		logger = logger.With(slog.String("trace_id", sc.traceID))
	}

	attrs := []any{slog.String("span_id", sc.spanID), slog.String("span_name", name)}
	if parent.spanID != "" {
		attrs = append(attrs, slog.String("parent_span_id", parent.spanID))
	}
	logger = logger.With(attrs...)

	ctx = withSpan(WithLogger(ctx, logger), sc)
	return ctx, &Span{name: name, logger: logger, start: time.Now()}
}

// Fail marks the span as failed. The last error wins.
func (s *Span) Fail(err error) {
	if s == nil || err == nil {
		return
	}
	s.err = err
}

// End emits the completion record: debug for success, warn when Fail was called.
func (s *Span) End() {
	if s == nil {
		return
	}
	elapsed := slog.Duration("duration", time.Since(s.start))
	if s.err != nil {
		s.logger.Warn("span failed", elapsed, slog.Any("error", s.err))
		return
	}
	s.logger.Debug("span completed", elapsed)
}
