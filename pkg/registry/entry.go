package registry

import (
	"context"
	"fmt"

	"github.com/aretw0/panelstate/pkg/domain"
	"github.com/aretw0/panelstate/pkg/ports"
)

// Entry is the live state of one identifier.
//
// Once reset an Entry is detached: Get returns nil, Set and Reset do
// nothing and Save sends nothing. Ask the registry for a fresh entry instead.
type Entry struct {
	id       string
	registry *Registry
	notifier ports.Notifier
	defaults *domain.Tree
	state    *domain.Tree
	detached bool
}

func (e *Entry) ID() string {
	return e.id
}

// State returns the current state tree. It is replaced, never modified, by
// Set; callers must not mutate it.
func (e *Entry) State() *domain.Tree {
	return e.state
}

// Defaults returns the defaults recorded at creation.
func (e *Entry) Defaults() *domain.Tree {
	return e.defaults
}

// Active reports whether e is still the registry's entry for its identifier.
func (e *Entry) Active() bool {
	return !e.detached
}

// Get reads the value shape describes, falling back to defaults.
func (e *Entry) Get(shape *domain.Tree) *domain.Tree {
	if e.detached {
		return nil
	}
	return domain.Load(shape, e.state, e.defaults)
}

// Set merges partial into the state. Leaves outside partial's paths keep
// their values. partial is copied, so the caller may reuse it.
func (e *Entry) Set(partial *domain.Tree) {
	if e.detached {
		return
	}
	e.state = domain.Save(e.state, partial)

	r := e.registry
	r.logger.Debug("entry updated", "id", e.id)
	fire(r.ctx, r.hooks.OnSet, &Event{ID: e.id, State: e.state, Partial: partial})
}

// Reset removes the entry from its registry. The next GetOrCreate for the same
// identifier builds a new entry from the arguments given then.
func (e *Entry) Reset() {
	if e.detached {
		return
	}
	e.detached = true

	r := e.registry
	r.remove(e)
	r.logger.Debug("entry reset", "id", e.id)
	fire(r.ctx, r.hooks.OnReset, &Event{ID: e.id, State: e.state})
}

// Save sends the state to the host under action. An empty action, or an entry
// created without notifier, makes Save a no-op. Delivery is not awaited: the
// returned error only reports that the notifier refused the message.
func (e *Entry) Save(ctx context.Context, action string) error {
	if e.detached || action == "" || e.notifier == nil {
		return nil
	}

	msg := domain.NewMessage(action, e.id, e.state.Clone())
	err := e.notifier.Notify(ctx, msg)
	if err != nil {
		err = fmt.Errorf("notify %q for %s: %w", action, e.id, err)
	}

	r := e.registry
	if err != nil {
		r.logger.Warn("notify failed", "id", e.id, "action", action, "err", err)
	} else {
		r.logger.Debug("entry saved", "id", e.id, "action", action)
	}
	fire(ctx, r.hooks.OnSave, &Event{ID: e.id, State: e.state, Action: action, Err: err})
	return err
}
