package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/panelstate/pkg/domain"
)

// Store implements ports.SnapshotStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Tree
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Tree),
	}
}

// Save keeps a deep copy of state, isolating it like serialization would.
func (s *Store) Save(ctx context.Context, id string, state *domain.Tree) error {
	if id == "" {
		return domain.ErrEmptyIdentifier
	}
	copied := state.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = copied
	return nil
}

// Load returns a copy so callers can't mutate the stored tree by pointer.
func (s *Store) Load(ctx context.Context, id string) (*domain.Tree, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[id]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	return state.Clone(), nil
}

// RemoveEntry removes the state.
func (s *Store) RemoveEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns stored ids, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// GetStateSnapshot returns a copy of every stored tree.
func (s *Store) GetStateSnapshot(ctx context.Context) (map[string]*domain.Tree, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*domain.Tree, len(s.data))
	for id, state := range s.data {
		out[id] = state.Clone()
	}
	return out, nil
}
