package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/panelstate/internal/logging"
	"github.com/aretw0/panelstate/internal/validator"
	"github.com/aretw0/panelstate/pkg/domain"
	"github.com/aretw0/panelstate/pkg/ports"
	"github.com/aretw0/panelstate/pkg/registry"
)

// Manager orchestrates registry access, ensuring operations never overlap.
type Manager struct {
	mu       sync.Mutex
	registry *registry.Registry
	notifier ports.Notifier
	logger   *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithNotifier sets the notifier bound to the entries the Manager creates.
func WithNotifier(n ports.Notifier) Option {
	return func(m *Manager) {
		m.notifier = n
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager wraps reg. A nil reg gets a fresh registry.
func NewManager(reg *registry.Registry, opts ...Option) *Manager {
	if reg == nil {
		reg = registry.New()
	}
	m := &Manager{
		registry: reg,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Do runs fn with exclusive access to the registry.
func (m *Manager) Do(fn func(*registry.Registry) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.registry)
}

// WithEntry runs fn with exclusive access to the live entry for id.
// Returns domain.ErrEntryNotFound when id has no entry.
func (m *Manager) WithEntry(id string, fn func(*registry.Entry) error) error {
	return m.Do(func(reg *registry.Registry) error {
		e, ok := reg.Lookup(id)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrEntryNotFound, id)
		}
		return fn(e)
	})
}

// GetOrCreate returns a copy of the state of id, creating the entry first if
// needed. created reports whether this call built it. Ids failing
// validator.CheckID are rejected.
func (m *Manager) GetOrCreate(id string, defaults, initial *domain.Tree) (state *domain.Tree, created bool, err error) {
	if err := validator.CheckID(id); err != nil {
		return nil, false, err
	}
	err = m.Do(func(reg *registry.Registry) error {
		_, exists := reg.Lookup(id)
		created = !exists
		state = reg.GetOrCreate(m.notifier, id, defaults.Clone(), initial).State().Clone()
		return nil
	})
	if created {
		m.logger.Info("entry created", "id", id)
	}
	return state, created, err
}

// Get resolves shape against the entry of id.
func (m *Manager) Get(id string, shape *domain.Tree) (*domain.Tree, error) {
	var value *domain.Tree
	err := m.WithEntry(id, func(e *registry.Entry) error {
		value = e.Get(shape).Clone()
		return nil
	})
	return value, err
}

// State returns a copy of the whole state of id.
func (m *Manager) State(id string) (*domain.Tree, error) {
	var state *domain.Tree
	err := m.WithEntry(id, func(e *registry.Entry) error {
		state = e.State().Clone()
		return nil
	})
	return state, err
}

// Set merges partial into the state of id and returns the new state.
func (m *Manager) Set(id string, partial *domain.Tree) (*domain.Tree, error) {
	var state *domain.Tree
	err := m.WithEntry(id, func(e *registry.Entry) error {
		e.Set(partial)
		state = e.State().Clone()
		return nil
	})
	return state, err
}

// Reset drops the entry of id.
func (m *Manager) Reset(id string) error {
	err := m.WithEntry(id, func(e *registry.Entry) error {
		e.Reset()
		return nil
	})
	if err == nil {
		m.logger.Info("entry reset", "id", id)
	}
	return err
}

// Save notifies the host with the state of id under action.
func (m *Manager) Save(ctx context.Context, id, action string) error {
	return m.WithEntry(id, func(e *registry.Entry) error {
		return e.Save(ctx, action)
	})
}

// IDs lists the live identifiers, sorted.
func (m *Manager) IDs() []string {
	var ids []string
	_ = m.Do(func(reg *registry.Registry) error {
		ids = reg.IDs()
		return nil
	})
	return ids
}

// Snapshot returns a copy of every live state.
func (m *Manager) Snapshot() map[string]*domain.Tree {
	var snap map[string]*domain.Tree
	_ = m.Do(func(reg *registry.Registry) error {
		snap = reg.Snapshot()
		return nil
	})
	return snap
}
