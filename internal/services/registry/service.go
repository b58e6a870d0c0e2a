package registry

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/teambalancer/internal/dependencies/clock"
	"github.com/mcoot/teambalancer/internal/dependencies/ids"
	"github.com/mcoot/teambalancer/internal/model"
	"github.com/mcoot/teambalancer/internal/storage"
)

// Service is the authoritative player registry of every room
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	ids     ids.Generator
	logger  *slog.Logger
}

// New creates a new registry Service
func New(storage storage.Storage, clock clock.Clock, ids ids.Generator, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		ids:     ids,
		logger:  logger,
	}
}

// Join adds a new player with the default skill and a fresh id
func (s *Service) Join(ctx context.Context, roomID model.RoomID, name string) (*model.Player, error) {
	name, err := model.ValidateName(name)
	if err != nil {
		return nil, err
	}

	player := &model.Player{
		ID:       model.PlayerID(s.ids.NewID()),
		RoomID:   roomID,
		Name:     name,
		Skill:    model.DefaultSkill,
		JoinedAt: s.clock.Now(),
	}

	if err := s.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}

	s.logger.Info("player joined",
		slog.String("room", string(roomID)),
		slog.String("player_id", string(player.ID)),
	)

	return player, nil
}

// Update overwrites the fields set in change. Names are validated and skills clamped.
func (s *Service) Update(ctx context.Context, roomID model.RoomID, playerID model.PlayerID, change model.PlayerChange) (*model.Player, error) {
	if change.Name != nil {
		name, err := model.ValidateName(*change.Name)
		if err != nil {
			return nil, err
		}
		change.Name = &name
	}

	player, err := s.storage.GetPlayer(ctx, roomID, playerID)
	if err != nil {
		return nil, err
	}

	updated := change.Apply(*player)
	if err := s.storage.SavePlayer(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Rename changes a player's display name
func (s *Service) Rename(ctx context.Context, roomID model.RoomID, playerID model.PlayerID, name string) (*model.Player, error) {
	return s.Update(ctx, roomID, playerID, model.PlayerChange{Name: &name})
}

// SetSkill changes a player's skill, clamping it to [MinSkill, MaxSkill]
func (s *Service) SetSkill(ctx context.Context, roomID model.RoomID, playerID model.PlayerID, skill int) (*model.Player, error) {
	return s.Update(ctx, roomID, playerID, model.PlayerChange{Skill: &skill})
}

// Remove deletes a player. Returns false if the player was not present.
func (s *Service) Remove(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) (bool, error) {
	if _, err := s.storage.GetPlayer(ctx, roomID, playerID); err != nil {
		if errors.Is(err, model.ErrPlayerNotFound) {
			return false, nil
		}
		return false, err
	}

	if err := s.storage.DeletePlayer(ctx, roomID, playerID); err != nil {
		return false, err
	}

	s.logger.Info("player removed",
		slog.String("room", string(roomID)),
		slog.String("player_id", string(playerID)),
	)
	return true, nil
}

// Get returns a single player
func (s *Service) Get(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) (*model.Player, error) {
	return s.storage.GetPlayer(ctx, roomID, playerID)
}

// List returns all players in join order
func (s *Service) List(ctx context.Context, roomID model.RoomID) ([]model.Player, error) {
	return s.storage.ListPlayers(ctx, roomID)
}
