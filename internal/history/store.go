// Package history keeps the bounded, newest-first log of successful
// calculations and persists it through an injected Storage.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// StorageKey is the key the serialized history is stored under.
	StorageKey = "calc_history"
	// MaxItems is the number of items retained.
	MaxItems = 50
)

var ErrItemNotFound = errors.New("history item not found")

// Item is one successful calculation. Items are never modified after creation.
type Item struct {
	ID         string `json:"id"`
	Expression string `json:"expression"`
	Result     string `json:"result"`
	Timestamp  int64  `json:"timestamp"` // epoch milliseconds
}

// Store is not safe for concurrent use; callers serialise access.
type Store struct {
	storage Storage
	logger  *zap.Logger
	items   []Item

	now   func() time.Time
	newID func() string
}

func NewStore(storage Storage, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		storage: storage,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// LoadPersisted replaces the in-memory list with the persisted one. A missing
// blob, a storage failure, or a blob that does not decode all yield an empty
// history.
func (s *Store) LoadPersisted(ctx context.Context) []Item {
	s.items = nil

	blob, ok, err := s.storage.Get(ctx, StorageKey)
	if err != nil {
		s.logger.Warn("history load failed", zap.Error(err))
		return s.Items()
	}
	if !ok || blob == "" {
		return s.Items()
	}

	var items []Item
	if err := json.Unmarshal([]byte(blob), &items); err != nil {
		s.logger.Warn("persisted history is corrupt, starting empty",
			zap.String("key", StorageKey),
			zap.Error(err),
		)
		return s.Items()
	}

	if len(items) > MaxItems {
		items = items[:MaxItems]
	}
	s.items = items
	return s.Items()
}

// Record prepends a new item and persists the truncated list. The item is
// kept in memory even when persisting fails; the error is returned so the
// caller can report it.
func (s *Store) Record(ctx context.Context, expression, result string) (Item, error) {
	item := Item{
		ID:         s.newID(),
		Expression: expression,
		Result:     result,
		Timestamp:  s.now().UnixMilli(),
	}

	items := make([]Item, 0, min(len(s.items)+1, MaxItems))
	items = append(items, item)
	items = append(items, s.items...)
	if len(items) > MaxItems {
		items = items[:MaxItems]
	}
	s.items = items

	if err := s.persist(ctx); err != nil {
		return item, err
	}
	return item, nil
}

// Clear empties the history and removes the persisted blob.
func (s *Store) Clear(ctx context.Context) error {
	s.items = nil
	if err := s.storage.Remove(ctx, StorageKey); err != nil {
		return fmt.Errorf("remove history: %w", err)
	}
	return nil
}

// Items returns a copy of the history, newest first.
func (s *Store) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Len() int { return len(s.items) }

// Latest returns the most recent item.
func (s *Store) Latest() (Item, bool) {
	if len(s.items) == 0 {
		return Item{}, false
	}
	return s.items[0], true
}

func (s *Store) Get(id string) (Item, error) {
	for _, item := range s.items {
		if item.ID == id {
			return item, nil
		}
	}
	return Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
}

func (s *Store) persist(ctx context.Context) error {
	blob, err := json.Marshal(s.items)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := s.storage.Set(ctx, StorageKey, string(blob)); err != nil {
		return fmt.Errorf("persist history: %w", err)
	}
	return nil
}
