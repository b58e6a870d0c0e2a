package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/teambalancer/internal/dependencies/clock"
	"github.com/mcoot/teambalancer/internal/dependencies/ids"
	"github.com/mcoot/teambalancer/internal/model"
	"github.com/mcoot/teambalancer/internal/storage"
)

// tick is the smallest step used to keep created_at strictly increasing.
// Storage backends keep at least microsecond precision.
const tick = time.Microsecond

// Service is the authoritative chat log of every room
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	ids     ids.Generator
	logger  *slog.Logger

	mu sync.Mutex
}

// New creates a new chat Service
func New(storage storage.Storage, clock clock.Clock, ids ids.Generator, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		ids:     ids,
		logger:  logger,
	}
}

// Append adds a message to the room's log. Blank authors become AnonymousAuthor.
// created_at is strictly greater than every earlier message in the room as
// recorded in storage. Appends from several processes must be serialized by
// the caller, as the relay does with its room lock.
func (s *Service) Append(ctx context.Context, roomID model.RoomID, author, content string) (*model.ChatMessage, error) {
	content, err := model.ValidateContent(content)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	last, err := s.lastCreatedAt(ctx, roomID)
	if err != nil {
		return nil, err
	}

	createdAt := s.clock.Now().Truncate(tick)
	if !createdAt.After(last) {
		createdAt = last.Add(tick)
	}

	msg := &model.ChatMessage{
		ID:         model.MessageID(s.ids.NewID()),
		RoomID:     roomID,
		AuthorName: model.NormalizeAuthor(author),
		Content:    content,
		CreatedAt:  createdAt,
	}

	if err := s.storage.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.logger.Debug("message appended",
		slog.String("room", string(roomID)),
		slog.String("message_id", string(msg.ID)),
	)

	return msg, nil
}

// lastCreatedAt returns the newest created_at in the room's stored log
func (s *Service) lastCreatedAt(ctx context.Context, roomID model.RoomID) (time.Time, error) {
	last, err := s.storage.LastMessage(ctx, roomID)
	if err != nil || last == nil {
		return time.Time{}, err
	}
	return last.CreatedAt, nil
}

// List returns messages created strictly after since (all when since is zero),
// ascending by created_at
func (s *Service) List(ctx context.Context, roomID model.RoomID, since time.Time) ([]model.ChatMessage, error) {
	messages, err := s.storage.ListMessages(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return model.MessagesSince(messages, since), nil
}
