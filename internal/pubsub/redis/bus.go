package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/teambalancer/internal/boundary"
	"github.com/mcoot/teambalancer/internal/model"
	"github.com/mcoot/teambalancer/internal/pubsub"
)

// Channel prefix shared with the storage key space
const keyPrefix = "tbal"

// channelName returns the pub/sub channel for a room's updates
func channelName(roomID model.RoomID) string {
	return fmt.Sprintf("%s:room:%s:updates", keyPrefix, roomID)
}

// Bus is a Bus over Redis pub/sub, letting several server instances share rooms
type Bus struct {
	client *redis.Client
	logger *slog.Logger

	mu   sync.Mutex
	subs map[*subscription]struct{}
}

// New creates a Bus using an existing client
func New(client *redis.Client, logger *slog.Logger) *Bus {
	return &Bus{
		client: client,
		logger: logger.With(slog.String("component", "redis-bus")),
		subs:   make(map[*subscription]struct{}),
	}
}

// Ensure Bus implements the interface
var _ pubsub.Bus = (*Bus)(nil)

// Publish sends the update to every subscriber of the room on any instance
func (b *Bus) Publish(ctx context.Context, update model.Update) error {
	data, err := json.Marshal(update)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, channelName(update.RoomID), data).Err()
}

type subscription struct {
	bus        *Bus
	ps         *redis.PubSub
	dispatcher *pubsub.Dispatcher
	once       sync.Once
	stopped    chan struct{}
}

// Subscribe registers handler for a room. Returns once Redis has confirmed the subscription.
func (b *Bus) Subscribe(ctx context.Context, roomID model.RoomID, handler boundary.UpdateHandler) (boundary.Subscription, error) {
	ps := b.client.Subscribe(ctx, channelName(roomID))

	// Wait for the subscribe confirmation so no later publish is missed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	sub := &subscription{
		bus:        b,
		ps:         ps,
		dispatcher: pubsub.NewDispatcher(handler),
		stopped:    make(chan struct{}),
	}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	go sub.receive(roomID)

	return sub, nil
}

func (s *subscription) receive(roomID model.RoomID) {
	defer close(s.stopped)
	for msg := range s.ps.Channel() {
		var update model.Update
		if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
			s.bus.logger.Warn("discarding malformed update",
				slog.String("room", string(roomID)),
				slog.String("error", err.Error()),
			)
			continue
		}
		s.dispatcher.Enqueue(update)
	}
}

// Unsubscribe stops delivery and closes the Redis subscription
func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.dispatcher.Close()
		_ = s.ps.Close()
		<-s.stopped

		s.bus.mu.Lock()
		delete(s.bus.subs, s)
		s.bus.mu.Unlock()
	})
}

// Close ends every subscription made through this bus. The client is left open.
func (b *Bus) Close() error {
	b.mu.Lock()
	subs := make([]*subscription, 0, len(b.subs))
	for sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
	return nil
}
