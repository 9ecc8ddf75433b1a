package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aretw0/panelstate/internal/logging"
	"github.com/aretw0/panelstate/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel messages are published on.
const DefaultChannel = DefaultPrefix + "messages"

// Notifier implements ports.Notifier by publishing each message as JSON on a
// Redis channel. PUBLISH returns as soon as the server has queued the message
// for its subscribers; no consumer is waited for.
type Notifier struct {
	client  *backend.Client
	channel string
	logger  *slog.Logger
}

type NotifierOption func(*Notifier)

// WithChannel overrides DefaultChannel.
func WithChannel(channel string) NotifierOption {
	return func(n *Notifier) {
		n.channel = channel
	}
}

// WithLogger configures a logger for the Notifier.
func WithLogger(logger *slog.Logger) NotifierOption {
	return func(n *Notifier) {
		n.logger = logger
	}
}

// NewNotifier publishes through client.
func NewNotifier(client *backend.Client, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		client:  client,
		channel: DefaultChannel,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Channel returns the channel messages go to.
func (n *Notifier) Channel() string {
	return n.channel
}

func (n *Notifier) Notify(ctx context.Context, msg domain.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	receivers, err := n.client.Publish(ctx, n.channel, data).Result()
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	n.logger.Debug("message published", "id", msg.Content.Key, "action", msg.Action, "receivers", receivers)
	return nil
}

// Subscribe calls handle for every message published on the channel until ctx
// is done. Payloads that do not decode are logged and skipped.
func (n *Notifier) Subscribe(ctx context.Context, handle func(domain.Message)) error {
	sub := n.client.Subscribe(ctx, n.channel)
	defer sub.Close()

	// Wait for the subscription to be confirmed so no message is missed.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-ch:
			if !ok {
				return nil
			}
			var msg domain.Message
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				n.logger.Warn("dropping undecodable message", "channel", raw.Channel, "err", err)
				continue
			}
			handle(msg)
		}
	}
}
