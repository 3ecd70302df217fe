package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records cache operation metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordOp records one finished operation.
	RecordOp(ctx context.Context, meta OpMeta, outcome string, duration time.Duration, err error)
}

type metricsImpl struct {
	total    metric.Int64Counter
	errors   metric.Int64Counter
	duration metric.Float64Histogram
}

// NewMetrics creates the cache instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	total, err := meter.Int64Counter(
		"cache.ops.total",
		metric.WithDescription("Cache operations by operation and outcome"),
		metric.WithUnit("{op}"),
	)
	if err != nil {
		return nil, err
	}

	errCount, err := meter.Int64Counter(
		"cache.ops.errors",
		metric.WithDescription("Cache operations that hit a tier failure"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"cache.ops.duration_ms",
		metric.WithDescription("Cache operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{total: total, errors: errCount, duration: duration}, nil
}

func (m *metricsImpl) RecordOp(ctx context.Context, meta OpMeta, outcome string, duration time.Duration, err error) {
	op := attribute.String("cache.op", meta.Op)

	m.total.Add(ctx, 1, metric.WithAttributes(
		op,
		attribute.String("cache.outcome", outcome),
		attribute.Bool("cache.key_classified", meta.Classified),
	))

	if err != nil {
		m.errors.Add(ctx, 1, metric.WithAttributes(op))
	}

	m.duration.Record(ctx, float64(duration)/float64(time.Millisecond), metric.WithAttributes(op))
}

// NoopMetrics returns a Metrics that records nothing.
func NoopMetrics() Metrics {
	return noopMetrics{}
}

type noopMetrics struct{}

func (noopMetrics) RecordOp(context.Context, OpMeta, string, time.Duration, error) {}
