// Package pubsub fans accepted room updates out to subscribers.
package pubsub

import (
	"context"

	"github.com/mcoot/teambalancer/internal/boundary"
	"github.com/mcoot/teambalancer/internal/model"
)

// Bus delivers every published update to every current subscriber of the
// update's room, in publish order, without dropping any.
type Bus interface {
	Publish(ctx context.Context, update model.Update) error
	// Subscribe registers handler for the room. The subscription is live when it returns.
	Subscribe(ctx context.Context, roomID model.RoomID, handler boundary.UpdateHandler) (boundary.Subscription, error)
	Close() error
}
