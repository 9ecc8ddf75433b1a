package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/panelstate/pkg/registry"
)

// LogHooks returns registry hooks that log every lifecycle event to logger.
func LogHooks(logger *slog.Logger) registry.Hooks {
	return registry.Hooks{
		OnCreate: func(ctx context.Context, ev *registry.Event) {
			logger.InfoContext(ctx, "entry_create", "id", ev.ID)
		},
		OnSet: func(ctx context.Context, ev *registry.Event) {
			logger.DebugContext(ctx, "entry_set", "id", ev.ID, "keys", ev.Partial.Len())
		},
		OnReset: func(ctx context.Context, ev *registry.Event) {
			logger.InfoContext(ctx, "entry_reset", "id", ev.ID)
		},
		OnSave: func(ctx context.Context, ev *registry.Event) {
			if ev.Err != nil {
				logger.WarnContext(ctx, "entry_save", "id", ev.ID, "action", ev.Action, "err", ev.Err)
				return
			}
			logger.InfoContext(ctx, "entry_save", "id", ev.ID, "action", ev.Action)
		},
	}
}
