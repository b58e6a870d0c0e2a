package sse

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mcoot/teambalancer/internal/boundary"
	"github.com/mcoot/teambalancer/internal/model"
)

const (
	// Time between keepalive pings
	pingPeriod = 30 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// Source is where a stream's updates come from
type Source interface {
	Subscribe(ctx context.Context, roomID model.RoomID, handler boundary.UpdateHandler) (boundary.Subscription, error)
}

// Formatter turns an accepted update into zero or more framed SSE messages
type Formatter func(ctx context.Context, update model.Update) ([][]byte, error)

// Client is one connected stream. Messages are buffered so a slow reader
// never holds up delivery to the rest of the room; a reader that falls a
// full buffer behind is disconnected and resyncs on reconnect.
type Client struct {
	roomID model.RoomID
	send   chan []byte

	mu      sync.Mutex
	lagging chan struct{}
	closed  bool
}

// NewClient creates a new SSE client
func NewClient(roomID model.RoomID) *Client {
	return &Client{
		roomID:  roomID,
		send:    make(chan []byte, sendBufferSize),
		lagging: make(chan struct{}),
	}
}

// enqueue queues a message without blocking
func (c *Client) enqueue(message []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- message:
	default:
		c.closed = true
		close(c.lagging)
	}
}

// handler adapts the client to a subscription callback
func (c *Client) handler(ctx context.Context, format Formatter, logger *slog.Logger) boundary.UpdateHandler {
	return func(update model.Update) {
		messages, err := format(ctx, update)
		if err != nil {
			logger.Error("sse failed to format update",
				slog.String("room", string(c.roomID)),
				slog.String("type", string(update.Type)),
				slog.Any("error", err))
			return
		}
		for _, m := range messages {
			c.enqueue(m)
		}
	}
}

// ServeSSE streams a room's updates to the response until the client
// disconnects. A subscription error is returned before anything is written
// so the caller can still send a normal error response.
func ServeSSE(w http.ResponseWriter, r *http.Request, source Source, roomID model.RoomID, format Formatter, logger *slog.Logger) error {
	// Check if SSE is supported
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return nil
	}

	client := NewClient(roomID)
	sub, err := source.Subscribe(r.Context(), roomID, client.handler(r.Context(), format, logger))
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	// Send initial connection event
	_, _ = w.Write(FormatMessage("connected", "", `{"status":"connected"}`))
	flusher.Flush()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message := <-client.send:
			if _, err := w.Write(message); err != nil {
				return nil
			}
			flusher.Flush()

		case <-client.lagging:
			logger.Warn("sse client fell behind, disconnecting",
				slog.String("room", string(roomID)))
			return nil

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return nil
			}
			flusher.Flush()

		case <-r.Context().Done():
			return nil
		}
	}
}
