package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"scicalc/internal/history"
)

// Backend stores history blobs in SQLite, partitioned by scope.
type Backend struct {
	db *sql.DB
}

func NewBackend(db *sql.DB) *Backend { return &Backend{db: db} }

// Scope returns the history.Storage view for one scope.
func (b *Backend) Scope(scope string) history.Storage {
	return &BlobStore{db: b.db, scope: scope}
}

// BlobStore implements history.Storage for a single scope.
type BlobStore struct {
	db    *sql.DB
	scope string
}

func (s *BlobStore) Get(ctx context.Context, key string) (string, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM blobs WHERE scope = ? AND key = ?`, s.scope, key)

	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get blob %q: %w", key, err)
	}
	return value, true, nil
}

func (s *BlobStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO blobs(scope, key, value, updated_at) VALUES (?, ?, ?, datetime('now'))
	ON CONFLICT(scope, key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at;
	`, s.scope, key, value)
	if err != nil {
		return fmt.Errorf("set blob %q: %w", key, err)
	}
	return nil
}

func (s *BlobStore) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM blobs WHERE scope = ? AND key = ?`, s.scope, key); err != nil {
		return fmt.Errorf("remove blob %q: %w", key, err)
	}
	return nil
}
