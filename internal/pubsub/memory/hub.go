package memory

import (
	"log/slog"
	"sync"

	"github.com/mcoot/teambalancer/internal/model"
	"github.com/mcoot/teambalancer/internal/pubsub"
)

// subscriber is one registration on a hub
type subscriber struct {
	dispatcher *pubsub.Dispatcher
}

type registration struct {
	sub  *subscriber
	done chan struct{}
}

// Hub fans updates out to the subscribers of a single room
type Hub struct {
	roomID      model.RoomID
	subscribers map[*subscriber]bool
	mu          sync.RWMutex
	logger      *slog.Logger

	// Channels for managing subscribers
	register   chan registration
	unregister chan *subscriber
	broadcast  chan model.Update
	done       chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a new Hub for a room
func NewHub(roomID model.RoomID, logger *slog.Logger) *Hub {
	return &Hub{
		roomID:      roomID,
		subscribers: make(map[*subscriber]bool),
		logger:      logger.With(slog.String("room", string(roomID))),
		register:    make(chan registration),
		unregister:  make(chan *subscriber),
		broadcast:   make(chan model.Update),
		done:        make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Debug("hub started")
	for {
		select {
		case reg := <-h.register:
			h.mu.Lock()
			h.subscribers[reg.sub] = true
			count := len(h.subscribers)
			h.mu.Unlock()
			close(reg.done)
			h.logger.Debug("subscriber registered", slog.Int("total_subscribers", count))

		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.subscribers[sub]; ok {
				delete(h.subscribers, sub)
			}
			count := len(h.subscribers)
			h.mu.Unlock()
			h.logger.Debug("subscriber unregistered", slog.Int("total_subscribers", count))

		case update := <-h.broadcast:
			h.mu.RLock()
			for sub := range h.subscribers {
				sub.dispatcher.Enqueue(update)
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			count := len(h.subscribers)
			for sub := range h.subscribers {
				sub.dispatcher.Close()
				delete(h.subscribers, sub)
			}
			h.mu.Unlock()
			h.logger.Debug("hub stopped", slog.Int("disconnected_subscribers", count))
			return
		}
	}
}

// Register adds a subscriber and returns once it will receive later broadcasts.
// Returns false if the hub has been closed.
func (h *Hub) Register(sub *subscriber) bool {
	reg := registration{sub: sub, done: make(chan struct{})}
	select {
	case h.register <- reg:
		<-reg.done
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a subscriber from the hub
func (h *Hub) Unregister(sub *subscriber) {
	select {
	case h.unregister <- sub:
	case <-h.done:
	}
}

// Broadcast hands an update to the hub loop. Returns false if the hub has been closed.
func (h *Hub) Broadcast(update model.Update) bool {
	select {
	case h.broadcast <- update:
		return true
	case <-h.done:
		return false
	}
}

// Close shuts down the hub
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// SubscriberCount returns the number of registered subscribers
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
