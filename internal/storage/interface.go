package storage

import (
	"context"

	"github.com/mcoot/teambalancer/internal/model"
)

// Storage defines the interface for data persistence.
// Everything other than rooms is scoped to a room.
type Storage interface {
	// Room operations
	SaveRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)
	RoomExists(ctx context.Context, id model.RoomID) (bool, error)
	// NextSeq atomically increments and returns the room's update sequence number
	NextSeq(ctx context.Context, id model.RoomID) (uint64, error)
	// CurrentSeq returns the last sequence number issued for the room, or 0
	CurrentSeq(ctx context.Context, id model.RoomID) (uint64, error)

	// Player operations. SavePlayer inserts or overwrites; the join order of
	// an existing player is kept.
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, roomID model.RoomID, id model.PlayerID) (*model.Player, error)
	// DeletePlayer is a no-op when the player does not exist
	DeletePlayer(ctx context.Context, roomID model.RoomID, id model.PlayerID) error
	// ListPlayers returns players in join order
	ListPlayers(ctx context.Context, roomID model.RoomID) ([]model.Player, error)

	// Partition operations. A room holds at most one partition.
	SavePartition(ctx context.Context, partition *model.Partition) error
	GetPartition(ctx context.Context, roomID model.RoomID) (*model.Partition, error)

	// Chat operations
	AppendMessage(ctx context.Context, msg *model.ChatMessage) error
	// ListMessages returns messages in the order they were appended
	ListMessages(ctx context.Context, roomID model.RoomID) ([]model.ChatMessage, error)
	// LastMessage returns the most recently appended message, or nil when the log is empty
	LastMessage(ctx context.Context, roomID model.RoomID) (*model.ChatMessage, error)

	Close() error
}
