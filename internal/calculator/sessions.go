package calculator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"scicalc/internal/handlers"
	"scicalc/internal/history"
	"scicalc/internal/observability"
	"scicalc/internal/session"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	errEmptyExpression = errors.New("empty expression")
	errNoKeys          = errors.New("no keys provided")
)

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, history.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrInvalidID), errors.Is(err, session.ErrUnknownKey):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrTooManySessions):
		return http.StatusServiceUnavailable
	case errors.Is(err, session.ErrNoHistory):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrExplainInFlight):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// sessionOp starts the span and logger for a session endpoint.
func sessionOp(r *http.Request, op string) (context.Context, trace.Span, *zap.Logger) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)

	ctx, span := tracer.Start(ctx, "calculator.session."+op,
		trace.WithAttributes(
			attribute.String("request.id", observability.RequestIDFromContext(ctx)),
			attribute.String("session.id", chi.URLParam(r, "id")),
		),
	)
	return ctx, span, logger
}

func (h *Handler) fail(ctx context.Context, span trace.Span, logger *zap.Logger, op string, err error, w http.ResponseWriter) {
	observability.RecordError(ctx, span, logger, errorCounter, op, err.Error(), err, statusFor(err), w)
}

func (h *Handler) lookup(ctx context.Context, span trace.Span, logger *zap.Logger, op string, w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(ctx, span, logger, op, err, w)
		return nil, false
	}
	return s, true
}

// CreateSession handles POST /calculator/sessions
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger := sessionOp(r, "create")
	defer span.End()

	s, err := h.sessions.Create(ctx)
	if err != nil {
		h.fail(ctx, span, logger, "create_session", err, w)
		return
	}
	span.SetAttributes(attribute.String("session.id", s.ID()))
	span.SetStatus(codes.Ok, "")

	w.Header().Set("Location", "/calculator/sessions/"+s.ID())
	handlers.WriteJSON(w, http.StatusCreated, s.Snapshot())
}

// OpenSession handles PUT /calculator/sessions/{id}: it resumes a session and
// its persisted history under a caller-chosen id.
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger := sessionOp(r, "open")
	defer span.End()

	s, err := h.sessions.Open(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(ctx, span, logger, "open_session", err, w)
		return
	}
	span.SetStatus(codes.Ok, "")

	handlers.WriteJSON(w, http.StatusOK, s.Snapshot())
}

// GetSession handles GET /calculator/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger := sessionOp(r, "get")
	defer span.End()

	s, ok := h.lookup(ctx, span, logger, "get_session", w, r)
	if !ok {
		return
	}
	handlers.WriteJSON(w, http.StatusOK, s.Snapshot())
}

// CloseSession handles DELETE /calculator/sessions/{id}
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger := sessionOp(r, "close")
	defer span.End()

	if err := h.sessions.Remove(chi.URLParam(r, "id")); err != nil {
		h.fail(ctx, span, logger, "close_session", err, w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PressKeys handles POST /calculator/sessions/{id}/keys
func (h *Handler) PressKeys(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger := sessionOp(r, "keys")
	defer span.End()

	var req KeysRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "press_keys", "invalid request body", err, http.StatusBadRequest, w)
		return
	}
	if len(req.Keys) == 0 {
		observability.RecordError(ctx, span, logger, errorCounter, "press_keys", errNoKeys.Error(), errNoKeys, http.StatusBadRequest, w)
		return
	}

	s, ok := h.lookup(ctx, span, logger, "press_keys", w, r)
	if !ok {
		return
	}

	span.SetAttributes(attribute.Int("session.keys", len(req.Keys)))
	for i, key := range req.Keys {
		if err := s.Press(ctx, key); err != nil {
			span.SetAttributes(attribute.Int("session.keys.applied", i))
			h.fail(ctx, span, logger, "press_keys", err, w)
			return
		}
		keyCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("key", key)))
	}

	snap := s.Snapshot()
	span.SetAttributes(
		attribute.String("session.display", snap.Display),
		attribute.Bool("session.error", snap.Error),
	)
	span.SetStatus(codes.Ok, "")

	handlers.WriteJSON(w, http.StatusOK, snap)
}

// GetHistory handles GET /calculator/sessions/{id}/history
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger := sessionOp(r, "history")
	defer span.End()

	s, ok := h.lookup(ctx, span, logger, "get_history", w, r)
	if !ok {
		return
	}
	items := s.History()
	span.SetAttributes(attribute.Int("history.items", len(items)))

	handlers.WriteJSON(w, http.StatusOK, HistoryResponse{Items: items})
}

// ClearHistory handles DELETE /calculator/sessions/{id}/history
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger := sessionOp(r, "clear_history")
	defer span.End()

	s, ok := h.lookup(ctx, span, logger, "clear_history", w, r)
	if !ok {
		return
	}
	if err := s.ClearHistory(ctx); err != nil {
		h.fail(ctx, span, logger, "clear_history", err, w)
		return
	}

	logger.Info("history cleared", zap.String("session_id", s.ID()))
	handlers.WriteJSON(w, http.StatusOK, s.Snapshot())
}

// SelectHistory handles POST /calculator/sessions/{id}/history/{itemID}/select
func (h *Handler) SelectHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger := sessionOp(r, "select_history")
	defer span.End()

	s, ok := h.lookup(ctx, span, logger, "select_history", w, r)
	if !ok {
		return
	}
	if err := s.SelectHistory(chi.URLParam(r, "itemID")); err != nil {
		h.fail(ctx, span, logger, "select_history", err, w)
		return
	}
	handlers.WriteJSON(w, http.StatusOK, s.Snapshot())
}

// Explain handles POST /calculator/sessions/{id}/explain. The call blocks
// until the explanation arrives; provider failures still answer 200 with
// the fallback explanation.
func (h *Handler) Explain(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger := sessionOp(r, "explain")
	defer span.End()

	s, ok := h.lookup(ctx, span, logger, "explain", w, r)
	if !ok {
		return
	}

	item, res, err := s.Explain(ctx)
	if err != nil {
		h.fail(ctx, span, logger, "explain", err, w)
		return
	}

	span.SetAttributes(attribute.String("history.item", item.ID))
	span.SetStatus(codes.Ok, "")
	handlers.WriteJSON(w, http.StatusOK, ExplainResponse{
		Expression:  item.Expression,
		Result:      item.Result,
		Explanation: res.Explanation,
		Steps:       res.Steps,
		Context:     res.Context,
	})
}
