package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/panelstate/pkg/domain"
	"github.com/aretw0/panelstate/pkg/ports"
	"github.com/aretw0/panelstate/pkg/registry"
)

// Hooks returns registry hooks that save an entry to store whenever it is
// saved with an action, and remove it when it is reset. Storage errors are
// logged; registry operations never fail because of them.
func Hooks(store ports.SnapshotStore, logger *slog.Logger) registry.Hooks {
	return registry.Hooks{
		OnSave: func(ctx context.Context, ev *registry.Event) {
			if err := store.Save(ctx, ev.ID, ev.State); err != nil {
				logger.Error("failed to persist entry", "id", ev.ID, "action", ev.Action, "err", err)
			}
		},
		OnReset: func(ctx context.Context, ev *registry.Event) {
			if err := store.RemoveEntry(ctx, ev.ID); err != nil {
				logger.Error("failed to remove entry", "id", ev.ID, "err", err)
			}
		},
	}
}

// Checkpoint writes the state of every live entry in snapshot to store and
// returns how many were written. It stops at the first error.
func Checkpoint(ctx context.Context, snapshot map[string]*domain.Tree, store ports.SnapshotStore) (int, error) {
	n := 0
	for id, state := range snapshot {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if err := store.Save(ctx, id, state); err != nil {
			return n, fmt.Errorf("checkpoint %s: %w", id, err)
		}
		n++
	}
	return n, nil
}

// Hydrate returns the stored state of id, merged over fallback, for use as the
// initial value of a new entry. Without a stored state it returns fallback.
func Hydrate(ctx context.Context, store ports.SnapshotStore, id string, fallback *domain.Tree) (*domain.Tree, error) {
	stored, err := store.Load(ctx, id)
	if errors.Is(err, domain.ErrEntryNotFound) {
		return fallback, nil
	}
	if err != nil {
		return nil, fmt.Errorf("hydrate %s: %w", id, err)
	}
	if fallback == nil {
		return stored, nil
	}
	return domain.MergeCopy(fallback, stored), nil
}
