package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/panelstate/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore
// implementation adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	id := "contract-test-entry-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewMap().
			Set("title", domain.FromString("bar")).
			Set("count", domain.FromInt(42)).
			Set("tabs", domain.NewList(domain.FromBool(true), domain.Null()))

		require.NoError(t, store.Save(ctx, id, state), "Save should not return error")

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err, "Load should not return error")
		assert.True(t, domain.Equal(state, loaded), "loaded state differs: %v", loaded.Value())
		assert.Equal(t, state.Keys, loaded.Keys, "key order should survive a round trip")
		assert.NotSame(t, state, loaded, "stores must not hand back the caller's tree")
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, id, domain.NewMap().Set("v", domain.FromInt(1))))
		require.NoError(t, store.Save(ctx, id, domain.NewMap().Set("v", domain.FromInt(2))))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 2.0, loaded.Get("v").Number)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+id)
		assert.ErrorIs(t, err, domain.ErrEntryNotFound)
	})

	t.Run("RemoveEntry", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, id, domain.NewMap()))

		require.NoError(t, store.RemoveEntry(ctx, id), "RemoveEntry should not return error")

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrEntryNotFound, "Load after RemoveEntry should return ErrEntryNotFound")

		assert.NoError(t, store.RemoveEntry(ctx, "non-existent-"+id), "removing an unknown entry is not an error")
	})

	t.Run("List and Snapshot", func(t *testing.T) {
		id1 := id + "-1"
		id2 := id + "-2"
		require.NoError(t, store.Save(ctx, id1, domain.NewMap().Set("n", domain.FromInt(1))))
		require.NoError(t, store.Save(ctx, id2, domain.NewMap().Set("n", domain.FromInt(2))))

		defer func() {
			_ = store.RemoveEntry(ctx, id1)
			_ = store.RemoveEntry(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)

		snapshot, err := store.GetStateSnapshot(ctx)
		require.NoError(t, err)
		require.Contains(t, snapshot, id1)
		require.Contains(t, snapshot, id2)
		assert.Equal(t, 1.0, snapshot[id1].Get("n").Number)
		assert.Equal(t, 2.0, snapshot[id2].Get("n").Number)
	})
}
