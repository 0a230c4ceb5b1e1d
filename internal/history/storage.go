package history

import (
	"context"
	"sync"
)

// Storage persists a single serialized blob per key.
type Storage interface {
	// Get returns the blob stored under key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// MemoryBackend keeps blobs in process memory, partitioned by scope.
type MemoryBackend struct {
	mu    sync.RWMutex
	blobs map[string]map[string]string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{blobs: make(map[string]map[string]string)}
}

// Scope returns the storage view for one scope, typically a session id.
func (b *MemoryBackend) Scope(scope string) Storage {
	return &memoryStorage{backend: b, scope: scope}
}

// NewMemoryStorage returns a standalone in-memory Storage.
func NewMemoryStorage() Storage {
	return NewMemoryBackend().Scope("")
}

type memoryStorage struct {
	backend *MemoryBackend
	scope   string
}

func (s *memoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.backend.mu.RLock()
	defer s.backend.mu.RUnlock()

	v, ok := s.backend.blobs[s.scope][key]
	return v, ok, nil
}

func (s *memoryStorage) Set(_ context.Context, key, value string) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	scoped, ok := s.backend.blobs[s.scope]
	if !ok {
		scoped = make(map[string]string)
		s.backend.blobs[s.scope] = scoped
	}
	scoped[key] = value
	return nil
}

func (s *memoryStorage) Remove(_ context.Context, key string) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	delete(s.backend.blobs[s.scope], key)
	return nil
}
