package ports

import (
	"context"

	"github.com/aretw0/panelstate/pkg/domain"
)

// SnapshotStore persists entry state outside the process.
// The registry never calls it on its own; see the persistence package for the
// hooks that do.
type SnapshotStore interface {
	// Save persists the state for a given entry ID.
	Save(ctx context.Context, id string, state *domain.Tree) error

	// Load retrieves the state for a given entry ID.
	// Returns domain.ErrEntryNotFound if nothing is stored.
	Load(ctx context.Context, id string) (*domain.Tree, error)

	// RemoveEntry deletes the stored state for an entry. Removing an unknown
	// entry is not an error.
	RemoveEntry(ctx context.Context, id string) error

	// List returns the IDs of every stored entry.
	List(ctx context.Context) ([]string, error)

	// GetStateSnapshot returns every stored entry keyed by ID.
	GetStateSnapshot(ctx context.Context) (map[string]*domain.Tree, error)
}
