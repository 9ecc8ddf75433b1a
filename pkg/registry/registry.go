package registry

import (
	"context"
	"log/slog"
	"sort"

	"github.com/aretw0/panelstate/internal/logging"
	"github.com/aretw0/panelstate/pkg/domain"
	"github.com/aretw0/panelstate/pkg/ports"
)

// Registry maps identifiers to their live entry.
type Registry struct {
	entries map[string]*Entry
	hooks   Hooks
	logger  *slog.Logger
	ctx     context.Context
}

// Option configures the Registry.
type Option func(*Registry)

// WithLogger configures a logger for the Registry.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithHooks installs lifecycle hooks. Calling it again replaces earlier hooks;
// use ComposeHooks to install several.
func WithHooks(h Hooks) Option {
	return func(r *Registry) {
		r.hooks = h
	}
}

// WithContext sets the context handed to hooks fired by operations that take
// none (GetOrCreate, Set, Reset).
func WithContext(ctx context.Context) Option {
	return func(r *Registry) {
		r.ctx = ctx
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]*Entry),
		logger:  logging.NewNop(),
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetOrCreate returns the live entry for id, creating it when there is none.
//
// Creation is memoized on id alone: once an entry exists, notifier, defaults
// and initial are ignored until the entry is reset. A new entry starts with a
// copy of initial as its state (an empty map when initial is not a map) and
// keeps defaults as given. Neither argument is mutated later on.
func (r *Registry) GetOrCreate(notifier ports.Notifier, id string, defaults, initial *domain.Tree) *Entry {
	if e, ok := r.entries[id]; ok {
		return e
	}

	state := domain.NewMap()
	if initial != nil && initial.Kind == domain.MapKind {
		state = initial.Clone()
	}

	e := &Entry{
		id:       id,
		registry: r,
		notifier: notifier,
		defaults: defaults,
		state:    state,
	}
	r.entries[id] = e

	r.logger.Debug("entry created", "id", id)
	fire(r.ctx, r.hooks.OnCreate, &Event{ID: id, State: state})
	return e
}

// Lookup returns the live entry for id without creating one.
func (r *Registry) Lookup(id string) (*Entry, bool) {
	e, ok := r.entries[id]
	return e, ok
}

// IDs returns the identifiers of every live entry, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Snapshot returns a deep copy of every live state keyed by identifier.
func (r *Registry) Snapshot() map[string]*domain.Tree {
	out := make(map[string]*domain.Tree, len(r.entries))
	for id, e := range r.entries {
		out[id] = e.state.Clone()
	}
	return out
}

func (r *Registry) remove(e *Entry) {
	if current, ok := r.entries[e.id]; ok && current == e {
		delete(r.entries, e.id)
	}
}
