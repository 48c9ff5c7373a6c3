package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records rule engine metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordParse records a parse. kind is the error kind, empty on success.
	RecordParse(ctx context.Context, kind string, duration time.Duration)

	// RecordEvaluation records an evaluation and the nature of its result.
	RecordEvaluation(ctx context.Context, nature string, success bool, duration time.Duration)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	parseCount  metric.Int64Counter
	parseErrors metric.Int64Counter
	evalCount   metric.Int64Counter
	evalLatency metric.Float64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("rulexpr")

	parseCount, err := meter.Int64Counter("rulexpr.parse.count",
		metric.WithDescription("Number of expressions parsed"),
	)
	if err != nil {
		return nil, err
	}

	parseErrors, err := meter.Int64Counter("rulexpr.parse.errors",
		metric.WithDescription("Number of rejected expressions"),
	)
	if err != nil {
		return nil, err
	}

	evalCount, err := meter.Int64Counter("rulexpr.eval.count",
		metric.WithDescription("Number of evaluations"),
	)
	if err != nil {
		return nil, err
	}

	evalLatency, err := meter.Float64Histogram("rulexpr.eval.latency_ms",
		metric.WithDescription("Evaluation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		parseCount:  parseCount,
		parseErrors: parseErrors,
		evalCount:   evalCount,
		evalLatency: evalLatency,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordParse records a parse.
func (m *otelMetrics) RecordParse(ctx context.Context, kind string, _ time.Duration) {
	m.parseCount.Add(ctx, 1)
	if kind != "" {
		m.parseErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	}
}

// RecordEvaluation records an evaluation.
func (m *otelMetrics) RecordEvaluation(ctx context.Context, nature string, success bool, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("nature", nature),
		attribute.Bool("success", success),
	}
	m.evalCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.evalLatency.Record(ctx, float64(duration.Microseconds())/1000, metric.WithAttributes(attrs...))
}
