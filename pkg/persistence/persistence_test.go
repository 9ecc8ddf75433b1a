package persistence_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/panelstate/internal/logging"
	"github.com/aretw0/panelstate/pkg/adapters/memory"
	"github.com/aretw0/panelstate/pkg/domain"
	"github.com/aretw0/panelstate/pkg/persistence"
	"github.com/aretw0/panelstate/pkg/ports"
	"github.com/aretw0/panelstate/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noop = ports.NotifierFunc(func(context.Context, domain.Message) error { return nil })

func TestHooks_SaveAndReset(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	reg := registry.New(registry.WithHooks(persistence.Hooks(store, logging.NewNop())))

	e := reg.GetOrCreate(noop, "p", nil, domain.NewMap().Set("x", domain.FromInt(1)))
	e.Set(domain.NewMap().Set("y", domain.FromInt(2)))

	_, err := store.Load(ctx, "p")
	assert.ErrorIs(t, err, domain.ErrEntryNotFound, "Set alone must not persist")

	require.NoError(t, e.Save(ctx, "persist"))
	stored, err := store.Load(ctx, "p")
	require.NoError(t, err)
	assert.True(t, domain.Equal(e.State(), stored))

	e.Reset()
	_, err = store.Load(ctx, "p")
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
}

func TestCheckpoint(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	reg := registry.New()
	reg.GetOrCreate(nil, "a", nil, domain.NewMap().Set("n", domain.FromInt(1)))
	reg.GetOrCreate(nil, "b", nil, domain.NewMap().Set("n", domain.FromInt(2)))

	n, err := persistence.Checkpoint(ctx, reg.Snapshot(), store)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

type failingStore struct{ ports.SnapshotStore }

func (failingStore) Save(context.Context, string, *domain.Tree) error { return errors.New("disk full") }

func TestCheckpoint_StopsOnError(t *testing.T) {
	snapshot := map[string]*domain.Tree{"a": domain.NewMap()}
	n, err := persistence.Checkpoint(context.Background(), snapshot, failingStore{memory.NewStore()})
	assert.Error(t, err)
	assert.Equal(t, 0, n)
}

func TestHydrate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	fallback := domain.NewMap().Set("x", domain.FromInt(0)).Set("y", domain.FromInt(0))

	got, err := persistence.Hydrate(ctx, store, "p", fallback)
	require.NoError(t, err)
	assert.Same(t, fallback, got)

	require.NoError(t, store.Save(ctx, "p", domain.NewMap().Set("x", domain.FromInt(5))))

	got, err = persistence.Hydrate(ctx, store, "p", fallback)
	require.NoError(t, err)
	assert.True(t, domain.Equal(domain.NewMap().Set("x", domain.FromInt(5)).Set("y", domain.FromInt(0)), got))
	assert.Equal(t, 0.0, fallback.Get("x").Number)

	got, err = persistence.Hydrate(ctx, store, "p", nil)
	require.NoError(t, err)
	assert.Equal(t, 5.0, got.Get("x").Number)
}
