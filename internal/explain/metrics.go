package explain

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Instruments default to no-ops so the package works before InitMetrics.
var (
	requestCounter   metric.Int64Counter     = noop.Int64Counter{}
	latencyHistogram metric.Float64Histogram = noop.Float64Histogram{}
	fallbackCounter  metric.Int64Counter     = noop.Int64Counter{}
)

// InitMetrics creates the explanation instruments on the global meter
// provider. Call once at startup, after observability.InitMetrics.
func InitMetrics() error {
	meter := otel.Meter("explain")

	var err error

	requestCounter, err = meter.Int64Counter("explain.requests.total",
		metric.WithDescription("Total number of explanation requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return fmt.Errorf("creating request counter: %w", err)
	}

	latencyHistogram, err = meter.Float64Histogram("explain.request.duration",
		metric.WithDescription("Duration of explanation requests in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(10, 50, 100, 500, 1000, 2500, 5000, 10000),
	)
	if err != nil {
		return fmt.Errorf("creating latency histogram: %w", err)
	}

	fallbackCounter, err = meter.Int64Counter("explain.fallbacks.total",
		metric.WithDescription("Explanations replaced by the fallback result"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return fmt.Errorf("creating fallback counter: %w", err)
	}

	return nil
}
