package observe

import (
	"context"
	"time"
)

// OpFunc performs one cache operation and reports its outcome.
type OpFunc func(ctx context.Context) (outcome string, err error)

// Middleware wraps cache operations with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Context: the span context is passed to the wrapped function.
//   - Errors: errors from the wrapped function are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NoopTracer()
	}
	if metrics == nil {
		metrics = NoopMetrics()
	}
	if logger == nil {
		logger = NoopLogger()
	}
	return &Middleware{tracer: tracer, metrics: metrics, logger: logger}
}

// NoopMiddleware returns a Middleware that records nothing.
func NoopMiddleware() *Middleware {
	return NewMiddleware(nil, nil, nil)
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Logger returns the logger used by the middleware.
func (m *Middleware) Logger() Logger {
	return m.logger
}

// Observe runs fn inside a span and records its duration, outcome and error.
//
// Failures are logged at warn: the orchestrator decides whether a failure is
// surfaced or degraded, so the middleware does not escalate.
func (m *Middleware) Observe(ctx context.Context, meta OpMeta, fn OpFunc) error {
	ctx, span := m.tracer.StartSpan(ctx, meta)
	start := time.Now()

	outcome, err := fn(ctx)

	duration := time.Since(start)
	m.tracer.EndSpan(span, outcome, err)
	m.metrics.RecordOp(ctx, meta, outcome, duration, err)

	logger := m.logger.WithOp(meta)
	fields := []Field{
		{Key: "outcome", Value: outcome},
		{Key: "duration_ms", Value: float64(duration) / float64(time.Millisecond)},
	}
	if err != nil {
		fields = append(fields, Field{Key: "error", Value: err.Error()})
		logger.Warn(ctx, "cache operation failed", fields...)
	} else {
		logger.Debug(ctx, "cache operation completed", fields...)
	}

	return err
}
