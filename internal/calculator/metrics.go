package calculator

import (
	"context"
	"fmt"
	"time"

	"scicalc/internal/expression"
	"scicalc/internal/observability"
	"scicalc/internal/session"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metric instruments, no-ops until InitMetrics runs.
var (
	evalCounter   metric.Int64Counter     = noop.Int64Counter{}
	evalHistogram metric.Float64Histogram = noop.Float64Histogram{}
	errorCounter  metric.Int64Counter     = noop.Int64Counter{}
	resultGauge   metric.Float64Gauge     = noop.Float64Gauge{}
	keyCounter    metric.Int64Counter     = noop.Int64Counter{}
)

// InitMetrics registers custom OTel metric instruments for the calculator domain.
// Call this once at startup (after observability.InitMetrics).
func InitMetrics() error {
	meter := otel.Meter("calculator")

	var err error

	evalCounter, err = meter.Int64Counter("calculator.evaluations.total",
		metric.WithDescription("Total number of expression evaluations by outcome"),
		metric.WithUnit("{evaluation}"),
	)
	if err != nil {
		return fmt.Errorf("creating evaluation counter: %w", err)
	}

	evalHistogram, err = meter.Float64Histogram("calculator.evaluation.duration",
		metric.WithDescription("Duration of expression evaluations in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 5, 10),
	)
	if err != nil {
		return fmt.Errorf("creating evaluation histogram: %w", err)
	}

	errorCounter, err = meter.Int64Counter("calculator.errors.total",
		metric.WithDescription("Total number of calculator request errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return fmt.Errorf("creating error counter: %w", err)
	}

	resultGauge, err = meter.Float64Gauge("calculator.last_result",
		metric.WithDescription("The value of the last successful evaluation"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("creating result gauge: %w", err)
	}

	keyCounter, err = meter.Int64Counter("calculator.keys.total",
		metric.WithDescription("Total number of keypad presses applied to sessions"),
		metric.WithUnit("{key}"),
	)
	if err != nil {
		return fmt.Errorf("creating key counter: %w", err)
	}

	return nil
}

// RegisterSessionGauge exposes the live session count on /metrics.
func RegisterSessionGauge(m *session.Manager) error {
	return observability.RegisterCollector(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "calculator",
		Name:      "active_sessions",
		Help:      "Number of live calculator sessions.",
	}, func() float64 { return float64(m.Count()) }))
}

// RecordEvaluation records the outcome of one pipeline run. It is the
// session.EvaluateHook used by the session manager.
func RecordEvaluation(ctx context.Context, res expression.Result, err error) {
	recordEvaluation(ctx, "session", res, err, 0)
}

func recordEvaluation(ctx context.Context, source string, res expression.Result, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if kind, ok := expression.KindOf(err); ok {
			outcome = string(kind)
		}
	}

	attrs := metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("outcome", outcome),
	)
	evalCounter.Add(ctx, 1, attrs)
	if elapsed > 0 {
		evalHistogram.Record(ctx, float64(elapsed.Microseconds())/1000.0, attrs)
	}
	if err == nil {
		resultGauge.Record(ctx, res.Value, metric.WithAttributes(attribute.String("source", source)))
	}
}

var _ session.EvaluateHook = RecordEvaluation
