package registry

import (
	"context"

	"github.com/aretw0/panelstate/pkg/domain"
)

// Event describes a lifecycle change of an entry.
type Event struct {
	ID string

	// State is the entry state after the change. Hooks must not mutate it.
	State *domain.Tree

	// Partial is the tree passed to Set. Only set for OnSet.
	Partial *domain.Tree

	// Action is the notify tag passed to Save. Only set for OnSave.
	Action string

	// Err is the error returned by the notifier. Only set for OnSave.
	Err error
}

// Hooks observe entry lifecycles. Any field may be nil. Hooks run
// synchronously inside the registry operation that triggered them.
type Hooks struct {
	OnCreate func(ctx context.Context, ev *Event)
	OnSet    func(ctx context.Context, ev *Event)
	OnReset  func(ctx context.Context, ev *Event)
	OnSave   func(ctx context.Context, ev *Event)
}

// ComposeHooks runs the hooks of every argument in order.
func ComposeHooks(all ...Hooks) Hooks {
	fan := func(pick func(Hooks) func(context.Context, *Event)) func(context.Context, *Event) {
		var fns []func(context.Context, *Event)
		for _, h := range all {
			if fn := pick(h); fn != nil {
				fns = append(fns, fn)
			}
		}
		if len(fns) == 0 {
			return nil
		}
		return func(ctx context.Context, ev *Event) {
			for _, fn := range fns {
				fn(ctx, ev)
			}
		}
	}

	return Hooks{
		OnCreate: fan(func(h Hooks) func(context.Context, *Event) { return h.OnCreate }),
		OnSet:    fan(func(h Hooks) func(context.Context, *Event) { return h.OnSet }),
		OnReset:  fan(func(h Hooks) func(context.Context, *Event) { return h.OnReset }),
		OnSave:   fan(func(h Hooks) func(context.Context, *Event) { return h.OnSave }),
	}
}

func fire(ctx context.Context, fn func(context.Context, *Event), ev *Event) {
	if fn != nil {
		fn(ctx, ev)
	}
}
