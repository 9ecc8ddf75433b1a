package ports

import (
	"context"
	"errors"

	"github.com/aretw0/panelstate/pkg/domain"
)

// Notifier is the outbound channel to the host. Notify must not wait for the
// message to be consumed; an error only reports that it could not be queued.
type Notifier interface {
	Notify(ctx context.Context, msg domain.Message) error
}

// NotifierFunc adapts a plain function to the Notifier interface.
type NotifierFunc func(ctx context.Context, msg domain.Message) error

func (f NotifierFunc) Notify(ctx context.Context, msg domain.Message) error {
	return f(ctx, msg)
}

// MultiNotifier fans a message out to every notifier, in order. All of them
// are tried; their errors are joined.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, msg domain.Message) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
