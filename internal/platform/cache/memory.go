package cache

import (
	"context"
	"sort"
	"sync"
)

// MemoryLikeStore is the in-process liked set. Used when Redis is not
// configured; likes then last only for the lifetime of the process.
type MemoryLikeStore struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewMemoryLikeStore returns an empty in-memory liked set.
func NewMemoryLikeStore() *MemoryLikeStore {
	return &MemoryLikeStore{ids: make(map[string]struct{})}
}

// Contains reports whether the id is in the liked set.
func (s *MemoryLikeStore) Contains(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok, nil
}

// Add inserts the id into the liked set.
func (s *MemoryLikeStore) Add(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = struct{}{}
	return nil
}

// Remove deletes the id from the liked set.
func (s *MemoryLikeStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
	return nil
}

// All returns every liked id, sorted for deterministic iteration.
func (s *MemoryLikeStore) All(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
