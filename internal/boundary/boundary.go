// Package boundary defines the synchronization contract between a room session
// and whatever keeps rooms consistent across participants.
package boundary

//go:generate mockgen -package=mocks -destination=mocks/mock_boundary.go github.com/mcoot/teambalancer/internal/boundary Boundary

import (
	"context"
	"fmt"

	"github.com/mcoot/teambalancer/internal/model"
)

// UpdateHandler receives accepted updates for a room, one at a time, in order
type UpdateHandler func(model.Update)

// Subscription is a live registration for a room's updates
type Subscription interface {
	// Unsubscribe stops delivery. Once it returns the handler is not invoked again.
	// It must not be called from inside the handler.
	Unsubscribe()
}

// SubscriptionFunc adapts a function to Subscription
type SubscriptionFunc func()

// Unsubscribe calls f
func (f SubscriptionFunc) Unsubscribe() { f() }

// Boundary carries a session's submissions to the authority for a room and
// delivers every accepted change back as an Update.
// Submissions return once the change is accepted; the resulting update is
// delivered to every subscriber of the room, including the submitter.
type Boundary interface {
	Subscribe(ctx context.Context, roomID model.RoomID, handler UpdateHandler) (Subscription, error)
	Snapshot(ctx context.Context, roomID model.RoomID) (*model.RoomSnapshot, error)

	SubmitPlayerJoin(ctx context.Context, roomID model.RoomID, name string) (*model.Player, error)
	SubmitPlayerChange(ctx context.Context, roomID model.RoomID, playerID model.PlayerID, change model.PlayerChange) (*model.Player, error)
	SubmitPlayerRemove(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) error
	SubmitPartition(ctx context.Context, roomID model.RoomID, partition model.Partition) error
	SubmitMessage(ctx context.Context, roomID model.RoomID, author, content string) (*model.ChatMessage, error)
}

// TransportError marks a failure to reach the authority, as opposed to a rejected submission
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError wraps err as a TransportError for op
func NewTransportError(op string, err error) error {
	return &TransportError{Op: op, Err: err}
}
