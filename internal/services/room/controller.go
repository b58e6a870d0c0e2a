package room

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/teambalancer/internal/dependencies/clock"
	"github.com/mcoot/teambalancer/internal/dependencies/random"
	"github.com/mcoot/teambalancer/internal/model"
	"github.com/mcoot/teambalancer/internal/storage"
)

const (
	// RoomIDLength is the length of generated room ids
	RoomIDLength = 8
	// HostKeyLength is the length of generated host keys
	HostKeyLength = 24
)

// Controller manages room lifecycle and host authorization
type Controller struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// NewController creates a new room Controller
func NewController(
	storage storage.Storage,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage: storage,
		clock:   clock,
		random:  random,
		logger:  logger,
	}
}

// CreateRoom creates a room. An empty id generates one. For host rooms the
// plaintext host key is returned; only its hash is stored.
func (c *Controller) CreateRoom(ctx context.Context, id model.RoomID, mode model.RoomMode) (*model.Room, string, error) {
	if mode == "" {
		mode = model.RoomModeOpen
	}
	if !mode.IsValid() {
		return nil, "", model.ErrInvalidRoomMode
	}

	if id == "" {
		generated, err := c.generateID(ctx)
		if err != nil {
			return nil, "", err
		}
		id = generated
	} else {
		if err := model.ValidateRoomID(id); err != nil {
			return nil, "", err
		}
		exists, err := c.storage.RoomExists(ctx, id)
		if err != nil {
			return nil, "", err
		}
		if exists {
			return nil, "", model.ErrRoomExists
		}
	}

	now := c.clock.Now()
	room := &model.Room{
		ID:        id,
		Mode:      mode,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var hostKey string
	if mode == model.RoomModeHost {
		hostKey = c.random.String(HostKeyLength, random.KeyAlphabet)
		hash, err := bcrypt.GenerateFromPassword([]byte(hostKey), bcrypt.DefaultCost)
		if err != nil {
			return nil, "", err
		}
		room.HostKeyHash = string(hash)
	}

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		c.logger.Error("failed to save room",
			slog.String("room", string(id)),
			slog.String("error", err.Error()),
		)
		return nil, "", err
	}

	c.logger.Info("room created",
		slog.String("room", string(id)),
		slog.String("mode", string(mode)),
	)

	return room, hostKey, nil
}

// EnsureRoom returns the room, creating an open room if the id is unused.
// Following an invite link to an unknown id opens a fresh room.
func (c *Controller) EnsureRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	room, err := c.storage.GetRoom(ctx, id)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, model.ErrRoomNotFound) {
		return nil, err
	}

	room, _, err = c.CreateRoom(ctx, id, model.RoomModeOpen)
	if errors.Is(err, model.ErrRoomExists) {
		// Lost a race with another creator
		return c.storage.GetRoom(ctx, id)
	}
	return room, err
}

// GetRoom retrieves a room by id
func (c *Controller) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	return c.storage.GetRoom(ctx, id)
}

func (c *Controller) generateID(ctx context.Context) (model.RoomID, error) {
	for {
		id := model.RoomID(c.random.String(RoomIDLength, random.RoomAlphabet))
		exists, err := c.storage.RoomExists(ctx, id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
	}
}

// AuthorizeHost checks the host key for privileged actions. Open rooms allow everyone.
func (c *Controller) AuthorizeHost(ctx context.Context, id model.RoomID, hostKey string) error {
	room, err := c.storage.GetRoom(ctx, id)
	if err != nil {
		return err
	}
	if !room.HostOnly() {
		return nil
	}
	if hostKey == "" {
		return model.ErrNotHost
	}
	if err := bcrypt.CompareHashAndPassword([]byte(room.HostKeyHash), []byte(hostKey)); err != nil {
		return model.ErrNotHost
	}
	return nil
}

// Snapshot reads the full room state. Callers that need the sequence number
// to line up with the data must hold off writers while this runs.
func (c *Controller) Snapshot(ctx context.Context, id model.RoomID) (*model.RoomSnapshot, error) {
	room, err := c.storage.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}

	seq, err := c.storage.CurrentSeq(ctx, id)
	if err != nil {
		return nil, err
	}

	players, err := c.storage.ListPlayers(ctx, id)
	if err != nil {
		return nil, err
	}

	partition, err := c.storage.GetPartition(ctx, id)
	if err != nil {
		if !errors.Is(err, model.ErrPartitionNotFound) {
			return nil, err
		}
		partition = nil
	}

	messages, err := c.storage.ListMessages(ctx, id)
	if err != nil {
		return nil, err
	}

	return &model.RoomSnapshot{
		Room:      *room,
		Players:   players,
		Partition: partition,
		Messages:  messages,
		Seq:       seq,
	}, nil
}

// Partition returns the room's current teams
func (c *Controller) Partition(ctx context.Context, id model.RoomID) (*model.Partition, error) {
	return c.storage.GetPartition(ctx, id)
}
