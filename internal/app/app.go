// Package app assembles the calculator's runtime from configuration: history
// storage, the explanation provider and the session manager.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"scicalc/internal/calculator"
	"scicalc/internal/config"
	"scicalc/internal/explain"
	"scicalc/internal/history"
	"scicalc/internal/session"
	"scicalc/internal/storage"

	"go.uber.org/zap"
)

type App struct {
	Sessions  *session.Manager
	Explainer *explain.Explainer

	db *sql.DB
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{}

	var backend session.StorageProvider
	switch cfg.Storage.Driver {
	case "sqlite":
		path := cfg.Storage.SQLitePath
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		db, err := storage.Open(path)
		if err != nil {
			return nil, err
		}
		a.db = db
		backend = storage.NewBackend(db)
	default:
		backend = history.NewMemoryBackend()
	}

	provider := explain.NewProvider(cfg.LLM.Explain())
	a.Explainer = explain.NewExplainer(provider, cfg.LLM.Timeout, logger)

	a.Sessions = session.NewManager(session.ManagerConfig{
		MaxSessions: cfg.Session.MaxSessions,
		IdleTimeout: cfg.Session.IdleTimeout,
		Storage:     backend,
		Explainer:   a.Explainer,
		OnEvaluate:  calculator.RecordEvaluation,
		Logger:      logger,
	})

	logger.Info("calculator runtime ready",
		zap.String("storage", cfg.Storage.Driver),
		zap.String("explain_provider", provider.Name()),
	)
	return a, nil
}

func (a *App) Close() error {
	a.Sessions.Close()
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
