// Package session implements the calculator session: the display state
// machine driven by keypad presses, the session's history, and the single
// in-flight explanation request.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"scicalc/internal/explain"
	"scicalc/internal/expression"
	"scicalc/internal/history"

	"go.uber.org/zap"
)

var (
	ErrUnknownKey      = errors.New("unknown key")
	ErrNoHistory       = errors.New("no calculation to explain")
	ErrExplainInFlight = errors.New("explanation already in progress")
)

// Explainer produces an explanation for one calculation and never fails.
type Explainer interface {
	Explain(ctx context.Context, expression, result string) explain.Result
}

// EvaluateHook observes every "=" that ran the pipeline.
type EvaluateHook func(ctx context.Context, res expression.Result, err error)

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	ID          string          `json:"id"`
	Display     string          `json:"display"`
	SubDisplay  string          `json:"sub_display"`
	Error       bool            `json:"error"`
	History     []history.Item  `json:"history"`
	Explanation *explain.Result `json:"explanation,omitempty"`
	Explaining  bool            `json:"explaining"`
}

type Option func(*Session)

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithExplainer(e Explainer) Option {
	return func(s *Session) { s.explainer = e }
}

func WithEvaluateHook(h EvaluateHook) Option {
	return func(s *Session) { s.onEvaluate = h }
}

// Session is safe for concurrent use.
type Session struct {
	id         string
	logger     *zap.Logger
	explainer  Explainer
	onEvaluate EvaluateHook

	mu          sync.Mutex
	display     string
	subDisplay  string
	failed      bool
	lastErr     error
	history     *history.Store
	explanation *explain.Result
	clears      uint64 // bumped by AC; a pending explanation older than this is dropped
	lastUsed    time.Time

	explaining atomic.Bool
}

// New creates a session whose history is persisted in storage. Previously
// persisted history is restored.
func New(ctx context.Context, id string, storage history.Storage, opts ...Option) *Session {
	s := &Session{
		id:       id,
		logger:   zap.NewNop(),
		lastUsed: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("session_id", id))
	if s.explainer == nil {
		s.explainer = explain.NewExplainer(explain.NewOfflineProvider(), 0, s.logger)
	}

	s.history = history.NewStore(storage, s.logger)
	s.history.LoadPersisted(ctx)
	return s
}

func (s *Session) ID() string { return s.id }

// Press applies one keypad key. Keys may be given as button values or labels.
func (s *Session) Press(ctx context.Context, key string) error {
	b, ok := Lookup(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()

	switch b.Value {
	case KeyClear:
		s.display = ""
		s.subDisplay = ""
		s.failed = false
		s.lastErr = nil
		s.explanation = nil
		s.clears++
	case KeyDelete:
		if s.failed {
			s.display = ""
			s.failed = false
			return nil
		}
		if s.display != "" {
			_, n := utf8.DecodeLastRuneInString(s.display)
			s.display = s.display[:len(s.display)-n]
		}
	case KeyEquals:
		if s.display == "" || s.failed {
			return nil
		}
		s.evaluate(ctx)
	default:
		if s.failed {
			s.display = ""
			s.failed = false
		}
		if b.Value == KeyPoint && currentRunHasPoint(s.display) {
			return nil
		}
		s.display += b.Value
	}
	return nil
}

// PressAll applies keys in order and stops at the first unknown key.
func (s *Session) PressAll(ctx context.Context, keys []string) error {
	for _, k := range keys {
		if err := s.Press(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

// evaluate runs the pipeline on the display. Callers hold s.mu.
func (s *Session) evaluate(ctx context.Context) {
	expr := s.display
	res, err := expression.Compute(expr)
	if s.onEvaluate != nil {
		s.onEvaluate(ctx, res, err)
	}

	s.subDisplay = expr + " ="
	if err != nil {
		kind, _ := expression.KindOf(err)
		s.logger.Info("evaluation failed",
			zap.String("expression", expr),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		s.display = expression.DisplayError
		s.failed = true
		s.lastErr = err
		return
	}

	if _, err := s.history.Record(ctx, expr, res.Formatted); err != nil {
		s.logger.Warn("history not persisted", zap.Error(err))
	}
	s.display = res.Formatted
	s.lastErr = nil
}

// SelectHistory restores a past calculation onto the display.
func (s *Session) SelectHistory(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()

	item, err := s.history.Get(id)
	if err != nil {
		return err
	}
	s.display = item.Expression
	s.subDisplay = item.Expression + " = " + item.Result
	s.failed = false
	s.lastErr = nil
	return nil
}

// ClearHistory empties the history and its persisted copy.
func (s *Session) ClearHistory(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()

	return s.history.Clear(ctx)
}

func (s *Session) History() []history.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.history.Items()
}

// Explain requests an explanation of the most recent calculation and returns
// it with the item it explains. Only one
// request runs at a time; a second call while one is pending returns
// ErrExplainInFlight. The session stays usable while the request runs, and an
// AC pressed meanwhile keeps the result out of the snapshot.
func (s *Session) Explain(ctx context.Context) (history.Item, explain.Result, error) {
	s.mu.Lock()
	item, ok := s.history.Latest()
	s.lastUsed = time.Now()
	s.mu.Unlock()
	if !ok {
		return history.Item{}, explain.Result{}, ErrNoHistory
	}

	if !s.explaining.CompareAndSwap(false, true) {
		return history.Item{}, explain.Result{}, ErrExplainInFlight
	}
	defer s.explaining.Store(false)

	s.mu.Lock()
	s.explanation = nil
	gen := s.clears
	s.mu.Unlock()

	res := s.explainer.Explain(ctx, item.Expression, item.Result)

	s.mu.Lock()
	if s.clears == gen {
		s.explanation = &res
	}
	s.mu.Unlock()
	return item, res, nil
}

func (s *Session) Explaining() bool { return s.explaining.Load() }

// LastError returns the evaluation error behind the current Error display,
// or nil.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastErr
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:         s.id,
		Display:    s.display,
		SubDisplay: s.subDisplay,
		Error:      s.failed,
		History:    s.history.Items(),
		Explaining: s.explaining.Load(),
	}
	if s.explanation != nil {
		e := *s.explanation
		snap.Explanation = &e
	}
	return snap
}

func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastUsed
}

// currentRunHasPoint reports whether the text after the last operator or
// parenthesis already contains a decimal point.
func currentRunHasPoint(display string) bool {
	i := strings.LastIndexAny(display, "-+*/^()")
	return strings.Contains(display[i+1:], KeyPoint)
}
