package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"scicalc/internal/history"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotFound        = errors.New("session not found")
	ErrInvalidID       = errors.New("session id must be a UUID")
	ErrTooManySessions = errors.New("maximum number of sessions reached")
)

const (
	DefaultMaxSessions = 1000
	DefaultIdleTimeout = 30 * time.Minute
)

// StorageProvider hands out history storage scoped to one session.
type StorageProvider interface {
	Scope(scope string) history.Storage
}

// ManagerConfig configures a Manager. Zero values take the defaults.
type ManagerConfig struct {
	MaxSessions int
	IdleTimeout time.Duration
	Storage     StorageProvider
	Explainer   Explainer
	OnEvaluate  EvaluateHook
	Logger      *zap.Logger
}

// Manager owns the live sessions and evicts idle ones.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	cfg    ManagerConfig
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewManager(cfg ManagerConfig) *Manager {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Storage == nil {
		cfg.Storage = history.NewMemoryBackend()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		logger:   cfg.Logger,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go m.cleanupLoop()

	return m
}

func (m *Manager) cleanupLoop() {
	defer close(m.done)

	interval := m.cfg.IdleTimeout / 4
	if interval > time.Minute {
		interval = time.Minute
	}
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.evictIdle(time.Now())
		}
	}
}

// evictIdle drops sessions unused since before now minus the idle timeout.
// Their persisted history stays in storage and is restored by Open.
func (m *Manager) evictIdle(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, s := range m.sessions {
		if now.Sub(s.LastUsed()) > m.cfg.IdleTimeout && !s.Explaining() {
			delete(m.sessions, id)
			evicted++
			m.logger.Debug("session evicted", zap.String("session_id", id))
		}
	}
	return evicted
}

// Create starts a session with a fresh id.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	return m.Open(ctx, uuid.NewString())
}

// Open returns the live session with id, or starts one that restores the
// history persisted under id.
func (m *Manager) Open(ctx context.Context, id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	if len(m.sessions) >= m.cfg.MaxSessions {
		return nil, fmt.Errorf("%w (%d)", ErrTooManySessions, m.cfg.MaxSessions)
	}

	opts := []Option{WithLogger(m.logger), WithEvaluateHook(m.cfg.OnEvaluate)}
	if m.cfg.Explainer != nil {
		opts = append(opts, WithExplainer(m.cfg.Explainer))
	}
	s := New(ctx, id, m.cfg.Storage.Scope(id), opts...)
	m.sessions[id] = s

	m.logger.Info("session opened",
		zap.String("session_id", id),
		zap.Int("history_items", len(s.History())),
	)
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Remove forgets a live session. Its persisted history is kept.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.sessions, id)
	m.logger.Info("session closed", zap.String("session_id", id))
	return nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}

// Close stops the cleanup loop and drops every session.
func (m *Manager) Close() {
	m.cancel()
	<-m.done

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[string]*Session)
}
