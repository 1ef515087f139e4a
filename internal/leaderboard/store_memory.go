package leaderboard

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[uuid.UUID]Entry)}
}

func (s *MemoryStore) RecordScore(ctx context.Context, entry Entry) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.entries[entry.PlayerID]
	if ok && current.BestFlips <= entry.BestFlips {
		return current.BestFlips, false, nil
	}
	s.entries[entry.PlayerID] = entry
	return entry.BestFlips, true, nil
}

func (s *MemoryStore) PersonalBest(ctx context.Context, playerID uuid.UUID) (*int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[playerID]
	if !ok {
		return nil, nil
	}
	best := entry.BestFlips
	return &best, nil
}

func (s *MemoryStore) TopScores(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	entries := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].BestFlips != entries[j].BestFlips {
			return entries[i].BestFlips < entries[j].BestFlips
		}
		return entries[i].UpdatedAt.Before(entries[j].UpdatedAt)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
