package leaderboard

import (
	"context"
	"sync"
)

// MemoryStore keeps scores for the life of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = insertRanked(s.entries, e)
	return nil
}

func (s *MemoryStore) Top(_ context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return head(s.entries, limit), nil
}

func (s *MemoryStore) TopForName(_ context.Context, name string, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterName(s.entries, name, limit), nil
}

func (s *MemoryStore) Close() error { return nil }
