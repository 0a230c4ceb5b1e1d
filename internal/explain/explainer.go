package explain

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("explain")

const DefaultTimeout = 8 * time.Second

// Explainer bounds a Provider with a timeout and turns every failure into
// the Fallback result.
type Explainer struct {
	provider Provider
	timeout  time.Duration
	logger   *zap.Logger
}

func NewExplainer(provider Provider, timeout time.Duration, logger *zap.Logger) *Explainer {
	if provider == nil {
		provider = NewOfflineProvider()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Explainer{provider: provider, timeout: timeout, logger: logger}
}

func (e *Explainer) Provider() string { return e.provider.Name() }

// Explain never fails. Provider errors are logged and replaced by Fallback.
func (e *Explainer) Explain(ctx context.Context, expression, result string) Result {
	ctx, span := tracer.Start(ctx, "explain.request",
		trace.WithAttributes(
			attribute.String("explain.provider", e.provider.Name()),
			attribute.String("calculator.expression", expression),
		),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	res, err := e.provider.Explain(ctx, expression, result)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0

	attrs := metric.WithAttributes(attribute.String("provider", e.provider.Name()))
	requestCounter.Add(ctx, 1, attrs)
	latencyHistogram.Record(ctx, elapsed, attrs)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "explanation failed")
		fallbackCounter.Add(ctx, 1, attrs)
		e.logger.Warn("explanation failed, using fallback",
			zap.String("provider", e.provider.Name()),
			zap.String("expression", expression),
			zap.Float64("duration_ms", elapsed),
			zap.Error(err),
		)
		return Fallback()
	}

	span.SetAttributes(attribute.Int("explain.steps", len(res.Steps)))
	e.logger.Debug("explanation received",
		zap.String("provider", e.provider.Name()),
		zap.Float64("duration_ms", elapsed),
	)
	return res
}
