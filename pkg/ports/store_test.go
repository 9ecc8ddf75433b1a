package ports_test

import (
	"context"
	"sort"
	"testing"

	"github.com/aretw0/panelstate/pkg/domain"
	"github.com/aretw0/panelstate/pkg/ports"
)

// mapStore is the smallest SnapshotStore that satisfies the contract.
type mapStore map[string]*domain.Tree

func (m mapStore) Save(_ context.Context, id string, state *domain.Tree) error {
	m[id] = state.Clone()
	return nil
}

func (m mapStore) Load(_ context.Context, id string) (*domain.Tree, error) {
	state, ok := m[id]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	return state.Clone(), nil
}

func (m mapStore) RemoveEntry(_ context.Context, id string) error {
	delete(m, id)
	return nil
}

func (m mapStore) List(context.Context) ([]string, error) {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m mapStore) GetStateSnapshot(context.Context) (map[string]*domain.Tree, error) {
	out := make(map[string]*domain.Tree, len(m))
	for id, state := range m {
		out[id] = state.Clone()
	}
	return out, nil
}

func TestSnapshotStore_Contract(t *testing.T) {
	ports.RunSnapshotStoreContract(t, mapStore{})
}
