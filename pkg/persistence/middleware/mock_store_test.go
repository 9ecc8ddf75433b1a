package middleware_test

import (
	"github.com/aretw0/panelstate/pkg/adapters/memory"
	"github.com/aretw0/panelstate/pkg/ports"
)

// NewMockStore returns the in-memory store the middleware tests wrap.
func NewMockStore() *memory.Store {
	return memory.NewStore()
}

var _ ports.SnapshotStore = (*memory.Store)(nil)
