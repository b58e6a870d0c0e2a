package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mcoot/teambalancer/internal/boundary"
	"github.com/mcoot/teambalancer/internal/model"
	"github.com/mcoot/teambalancer/internal/pubsub"
)

// Bus is an in-process Bus with one hub per room
type Bus struct {
	hubs   map[model.RoomID]*Hub
	mu     sync.RWMutex
	logger *slog.Logger
}

// New creates a new in-memory Bus
func New(logger *slog.Logger) *Bus {
	return &Bus{
		hubs:   make(map[model.RoomID]*Hub),
		logger: logger.With(slog.String("component", "bus")),
	}
}

// Ensure Bus implements the interface
var _ pubsub.Bus = (*Bus)(nil)

// getOrCreateHub returns the hub for a room; callers hold mu
func (b *Bus) getOrCreateHub(roomID model.RoomID) *Hub {
	if hub, ok := b.hubs[roomID]; ok {
		return hub
	}
	hub := NewHub(roomID, b.logger)
	b.hubs[roomID] = hub
	go hub.Run()
	return hub
}

// Publish delivers the update to the room's current subscribers
func (b *Bus) Publish(ctx context.Context, update model.Update) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	hub, ok := b.hubs[update.RoomID]
	if !ok {
		return nil
	}
	hub.Broadcast(update)
	return nil
}

// Subscribe registers handler for a room's updates
func (b *Bus) Subscribe(ctx context.Context, roomID model.RoomID, handler boundary.UpdateHandler) (boundary.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &subscriber{dispatcher: pubsub.NewDispatcher(handler)}
	hub := b.getOrCreateHub(roomID)
	hub.Register(sub)

	var once sync.Once
	return boundary.SubscriptionFunc(func() {
		once.Do(func() {
			sub.dispatcher.Close()
			hub.Unregister(sub)
		})
	}), nil
}

// CleanupEmptyHubs stops and removes hubs with no subscribers
func (b *Bus) CleanupEmptyHubs() {
	b.mu.Lock()
	defer b.mu.Unlock()

	removedCount := 0
	for roomID, hub := range b.hubs {
		if hub.SubscriberCount() == 0 {
			hub.Close()
			delete(b.hubs, roomID)
			removedCount++
		}
	}
	if removedCount > 0 {
		b.logger.Info("empty hubs cleaned up", slog.Int("removed", removedCount))
	}
}

// HubCount returns the number of live hubs
func (b *Bus) HubCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.hubs)
}

// Close stops every hub. Existing subscriptions receive nothing further.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for roomID, hub := range b.hubs {
		hub.Close()
		delete(b.hubs, roomID)
	}
	return nil
}
