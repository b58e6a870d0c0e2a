// Package relay is the authoritative side of the sync boundary. Every
// accepted mutation is persisted, stamped with the room's next sequence
// number and published to the room's subscribers.
package relay

import (
	"context"
	"log/slog"

	"github.com/mcoot/teambalancer/internal/boundary"
	"github.com/mcoot/teambalancer/internal/dependencies/clock"
	"github.com/mcoot/teambalancer/internal/model"
	"github.com/mcoot/teambalancer/internal/pubsub"
	"github.com/mcoot/teambalancer/internal/services/balancer"
	"github.com/mcoot/teambalancer/internal/services/chat"
	"github.com/mcoot/teambalancer/internal/services/registry"
	"github.com/mcoot/teambalancer/internal/services/room"
	"github.com/mcoot/teambalancer/internal/storage"
)

// Service implements boundary.Boundary on the server
type Service struct {
	rooms    *room.Controller
	registry *registry.Service
	chat     *chat.Service
	storage  storage.Storage
	bus      pubsub.Bus
	clock    clock.Clock
	locker   Locker
	logger   *slog.Logger
}

// Ensure Service implements the interface
var _ boundary.Boundary = (*Service)(nil)

// New creates a new relay Service. A nil locker serializes rooms within this process only.
func New(
	rooms *room.Controller,
	registry *registry.Service,
	chat *chat.Service,
	storage storage.Storage,
	bus pubsub.Bus,
	clock clock.Clock,
	locker Locker,
	logger *slog.Logger,
) *Service {
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &Service{
		rooms:    rooms,
		registry: registry,
		chat:     chat,
		storage:  storage,
		bus:      bus,
		clock:    clock,
		locker:   locker,
		logger:   logger.With(slog.String("component", "relay")),
	}
}

// publish stamps the update with the next sequence number and fans it out.
// The change is already persisted when the bus fails; the error is returned as
// a transport failure and subscribers catch up when they next see a gap.
func (s *Service) publish(ctx context.Context, update model.Update) error {
	seq, err := s.storage.NextSeq(ctx, update.RoomID)
	if err != nil {
		return err
	}
	update.Seq = seq
	update.Timestamp = s.clock.Now()

	if err := s.bus.Publish(ctx, update); err != nil {
		s.logger.Error("failed to publish update",
			slog.String("room", string(update.RoomID)),
			slog.String("type", string(update.Type)),
			slog.Uint64("seq", seq),
			slog.String("error", err.Error()),
		)
		return boundary.NewTransportError("publish "+string(update.Type), err)
	}
	return nil
}

// Subscribe registers handler for updates to an existing room
func (s *Service) Subscribe(ctx context.Context, roomID model.RoomID, handler boundary.UpdateHandler) (boundary.Subscription, error) {
	if _, err := s.rooms.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}
	return s.bus.Subscribe(ctx, roomID, handler)
}

// Snapshot returns the room state consistent with its sequence number
func (s *Service) Snapshot(ctx context.Context, roomID model.RoomID) (*model.RoomSnapshot, error) {
	unlock, err := s.locker.Lock(ctx, roomID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.rooms.Snapshot(ctx, roomID)
}

// SubmitPlayerJoin adds a player and announces it
func (s *Service) SubmitPlayerJoin(ctx context.Context, roomID model.RoomID, name string) (*model.Player, error) {
	unlock, err := s.locker.Lock(ctx, roomID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	player, err := s.registry.Join(ctx, roomID, name)
	if err != nil {
		return nil, err
	}
	if err := s.publish(ctx, model.NewPlayerAdded(*player)); err != nil {
		return nil, err
	}
	return player, nil
}

// SubmitPlayerChange overwrites fields of a player and announces the full record.
// An empty change returns the current record without an update.
func (s *Service) SubmitPlayerChange(ctx context.Context, roomID model.RoomID, playerID model.PlayerID, change model.PlayerChange) (*model.Player, error) {
	unlock, err := s.locker.Lock(ctx, roomID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if change.IsEmpty() {
		return s.registry.Get(ctx, roomID, playerID)
	}

	player, err := s.registry.Update(ctx, roomID, playerID, change)
	if err != nil {
		return nil, err
	}
	if err := s.publish(ctx, model.NewPlayerChanged(*player)); err != nil {
		return nil, err
	}
	return player, nil
}

// SubmitPlayerRemove removes a player. Removing an absent player is a no-op and publishes nothing.
func (s *Service) SubmitPlayerRemove(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) error {
	unlock, err := s.locker.Lock(ctx, roomID)
	if err != nil {
		return err
	}
	defer unlock()

	removed, err := s.registry.Remove(ctx, roomID, playerID)
	if err != nil {
		return err
	}
	if !removed {
		return nil
	}
	return s.publish(ctx, model.NewPlayerRemoved(roomID, playerID))
}

// SubmitPartition replaces the room's partition wholesale
func (s *Service) SubmitPartition(ctx context.Context, roomID model.RoomID, partition model.Partition) error {
	if err := partition.Validate(); err != nil {
		return err
	}

	unlock, err := s.locker.Lock(ctx, roomID)
	if err != nil {
		return err
	}
	defer unlock()

	_, err = s.replacePartition(ctx, roomID, partition)
	return err
}

// replacePartition stores and announces a partition; callers hold the room lock
func (s *Service) replacePartition(ctx context.Context, roomID model.RoomID, partition model.Partition) (*model.Partition, error) {
	partition.RoomID = roomID
	if partition.CreatedAt.IsZero() {
		partition.CreatedAt = s.clock.Now()
	}

	if err := s.storage.SavePartition(ctx, &partition); err != nil {
		return nil, err
	}
	if err := s.publish(ctx, model.NewPartitionReplaced(partition)); err != nil {
		return nil, err
	}

	s.logger.Info("teams replaced",
		slog.String("room", string(roomID)),
		slog.Int("team_count", partition.TeamCount),
		slog.Int("player_count", partition.PlayerCount()),
	)
	return &partition, nil
}

// BalanceRoom balances the room's current players into teamCount teams on the
// server and publishes the result
func (s *Service) BalanceRoom(ctx context.Context, roomID model.RoomID, teamCount int) (*model.Partition, error) {
	unlock, err := s.locker.Lock(ctx, roomID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	players, err := s.registry.List(ctx, roomID)
	if err != nil {
		return nil, err
	}

	teams, err := balancer.Balance(players, teamCount)
	if err != nil {
		return nil, err
	}

	return s.replacePartition(ctx, roomID, model.Partition{
		TeamCount: teamCount,
		Teams:     teams,
	})
}

// SubmitMessage appends a chat message and announces it
func (s *Service) SubmitMessage(ctx context.Context, roomID model.RoomID, author, content string) (*model.ChatMessage, error) {
	unlock, err := s.locker.Lock(ctx, roomID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	msg, err := s.chat.Append(ctx, roomID, author, content)
	if err != nil {
		return nil, err
	}
	if err := s.publish(ctx, model.NewMessageAppended(*msg)); err != nil {
		return nil, err
	}
	return msg, nil
}
