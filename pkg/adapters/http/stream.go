package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/panelstate/internal/logging"
	"github.com/aretw0/panelstate/pkg/domain"
	"github.com/google/uuid"
)

// Event is one Server-Sent Event.
type Event struct {
	ID   string
	Name string
	Data string
}

// allKeys subscribes to the events of every entry.
const allKeys = ""

// StreamManager handles active SSE connections. It implements ports.Notifier,
// so binding it to a registry streams every saved entry to the subscribers of
// its key.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- Event]struct{} // entry key -> set of channels
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- Event]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a channel for key; the empty key receives every event.
// The returned function unregisters and closes the channel.
func (sm *StreamManager) Subscribe(key string) (<-chan Event, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Event, 10)
	if _, ok := sm.subscribers[key]; !ok {
		sm.subscribers[key] = make(map[chan<- Event]struct{})
	}
	sm.subscribers[key][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[key]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, key)
				}
			}
		})
	}
}

// Subscribers returns how many channels listen on key.
func (sm *StreamManager) Subscribers(key string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[key])
}

// Broadcast sends ev to the subscribers of key and to those of every key.
// Slow clients with a full buffer miss the event.
func (sm *StreamManager) Broadcast(key string, ev Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sm.logger.Debug("StreamManager: Broadcasting", "id", key, "event", ev.Name, "payload_size", len(ev.Data))

	targets := []string{key}
	if key != allKeys {
		targets = append(targets, allKeys)
	}
	for _, k := range targets {
		for ch := range sm.subscribers[k] {
			select {
			case ch <- ev:
			default:
				sm.logger.Warn("SSE: Client buffer full, dropping message", "id", key, "event", ev.Name)
			}
		}
	}
}

// Notify streams msg as an event named after its action.
func (sm *StreamManager) Notify(_ context.Context, msg domain.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	sm.Broadcast(msg.Content.Key, Event{Name: msg.Action, Data: string(data)})
	return nil
}
