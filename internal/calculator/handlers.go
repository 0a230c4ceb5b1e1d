package calculator

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"scicalc/internal/expression"
	"scicalc/internal/handlers"
	"scicalc/internal/observability"
	"scicalc/internal/session"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// tracer is the calculator's dedicated OpenTelemetry tracer.
var tracer = otel.Tracer("calculator")

const maxBodyBytes = 64 << 10

// Handler serves the calculator endpoints.
type Handler struct {
	sessions *session.Manager
}

func NewHandler(sessions *session.Manager) *Handler {
	return &Handler{sessions: sessions}
}

// ---------------------------------------------------------------------------
// Stateless evaluation
// ---------------------------------------------------------------------------

// Evaluate handles POST /calculator/evaluate. Each pipeline stage gets its own
// child span; failures answer 422 with the generic "Error" display value.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)

	ctx, span := tracer.Start(ctx, "calculator.evaluate",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	var req EvaluateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "evaluate", "invalid request body", err, http.StatusBadRequest, w)
		return
	}
	if strings.TrimSpace(req.Expression) == "" {
		observability.RecordError(ctx, span, logger, errorCounter, "evaluate", "expression is required", errEmptyExpression, http.StatusBadRequest, w)
		return
	}
	span.SetAttributes(attribute.String("calculator.expression", req.Expression))

	start := time.Now()
	res, err := runPipeline(ctx, req.Expression)
	elapsed := time.Since(start)
	recordEvaluation(ctx, "http", res, err, elapsed)

	if err != nil {
		kind, _ := expression.KindOf(err)
		span.SetAttributes(attribute.String("calculator.error.kind", string(kind)))
		observability.RecordError(ctx, span, logger, errorCounter, "evaluate", expression.DisplayError, err, http.StatusUnprocessableEntity, w)
		return
	}

	span.AddEvent("evaluation.complete", trace.WithAttributes(
		attribute.String("result", res.Formatted),
		attribute.Float64("duration_ms", float64(elapsed.Microseconds())/1000.0),
	))
	span.SetAttributes(attribute.String("calculator.result", res.Formatted))
	span.SetStatus(codes.Ok, "")

	logger.Info("expression evaluated",
		zap.String("expression", req.Expression),
		zap.String("normalized", res.Expanded),
		zap.String("result", res.Formatted),
		zap.String("request_id", requestID),
		zap.Duration("duration", elapsed),
	)

	handlers.WriteJSON(w, http.StatusOK, EvaluateResponse{
		Expression: req.Expression,
		Normalized: res.Expanded,
		Result:     res.Formatted,
	})
}

// runPipeline is expression.Compute with one span per stage.
func runPipeline(ctx context.Context, raw string) (expression.Result, error) {
	res := expression.Result{Raw: raw}

	stage(ctx, "normalize", func(span trace.Span) error {
		res.Normalized = expression.Normalize(raw)
		span.SetAttributes(attribute.String("calculator.normalized", res.Normalized))
		return nil
	})
	stage(ctx, "expand_factorials", func(span trace.Span) error {
		res.Expanded = expression.ExpandFactorials(res.Normalized)
		span.SetAttributes(attribute.Int("calculator.expanded.length", len(res.Expanded)))
		return nil
	})

	var v float64
	err := stage(ctx, "evaluate", func(span trace.Span) error {
		var err error
		v, err = expression.Evaluate(res.Expanded)
		if err != nil {
			kind, _ := expression.KindOf(err)
			span.SetAttributes(attribute.String("calculator.error.kind", string(kind)))
		}
		return err
	})
	if err != nil {
		return res, err
	}
	res.Value = v

	stage(ctx, "format", func(span trace.Span) error {
		res.Formatted = expression.Format(v)
		return nil
	})
	return res, nil
}

func stage(ctx context.Context, name string, fn func(trace.Span) error) error {
	_, span := tracer.Start(ctx, "calculator.pipeline."+name)
	defer span.End()

	if err := fn(span); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}
