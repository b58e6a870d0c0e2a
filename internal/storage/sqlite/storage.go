package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/uptrace/bun"

	"github.com/mcoot/teambalancer/internal/model"
	"github.com/mcoot/teambalancer/internal/storage"
)

// Storage is a SQLite-backed implementation of the storage interface
type Storage struct {
	db *bun.DB
}

// New connects to the database and applies migrations
func New(ctx context.Context, databaseURL string) (*Storage, error) {
	db, err := Connect(databaseURL)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Storage{db: db}, nil
}

// NewWithDB creates a storage over an already migrated database
func NewWithDB(db *bun.DB) *Storage {
	return &Storage{db: db}
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) requireRoom(ctx context.Context, id model.RoomID) error {
	exists, err := s.RoomExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return model.ErrRoomNotFound
	}
	return nil
}

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	row := &roomRow{
		ID:          string(room.ID),
		Mode:        string(room.Mode),
		HostKeyHash: room.HostKeyHash,
		CreatedAt:   room.CreatedAt,
		UpdatedAt:   room.UpdatedAt,
	}
	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (id) DO UPDATE").
		Set("mode = EXCLUDED.mode").
		Set("host_key_hash = EXCLUDED.host_key_hash").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	row := new(roomRow)
	err := s.db.NewSelect().
		Model(row).
		Where("id = ?", string(id)).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}
	return row.toModel(), nil
}

func (s *Storage) RoomExists(ctx context.Context, id model.RoomID) (bool, error) {
	return s.db.NewSelect().
		Model((*roomRow)(nil)).
		Where("id = ?", string(id)).
		Exists(ctx)
}

func (s *Storage) NextSeq(ctx context.Context, id model.RoomID) (uint64, error) {
	if err := s.requireRoom(ctx, id); err != nil {
		return 0, err
	}

	var seq uint64
	_, err := s.db.NewUpdate().
		Model((*roomRow)(nil)).
		Set("seq = seq + 1").
		Where("id = ?", string(id)).
		Returning("seq").
		Exec(ctx, &seq)
	if err != nil {
		return 0, err
	}
	return seq, nil
}

func (s *Storage) CurrentSeq(ctx context.Context, id model.RoomID) (uint64, error) {
	var seq uint64
	err := s.db.NewSelect().
		Model((*roomRow)(nil)).
		Column("seq").
		Where("id = ?", string(id)).
		Scan(ctx, &seq)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, model.ErrRoomNotFound
		}
		return 0, err
	}
	return seq, nil
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	if err := s.requireRoom(ctx, player.RoomID); err != nil {
		return err
	}

	row := &playerRow{
		RoomID:   string(player.RoomID),
		ID:       string(player.ID),
		Name:     player.Name,
		Skill:    player.Skill,
		JoinedAt: player.JoinedAt,
	}
	_, err := s.db.NewInsert().
		Model(row).
		Value("position", "(SELECT COALESCE(MAX(position), 0) + 1 FROM players WHERE room_id = ?)", row.RoomID).
		On("CONFLICT (room_id, id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("skill = EXCLUDED.skill").
		Exec(ctx)
	return err
}

func (s *Storage) GetPlayer(ctx context.Context, roomID model.RoomID, id model.PlayerID) (*model.Player, error) {
	row := new(playerRow)
	err := s.db.NewSelect().
		Model(row).
		Where("room_id = ?", string(roomID)).
		Where("id = ?", string(id)).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}
	p := row.toModel()
	return &p, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, roomID model.RoomID, id model.PlayerID) error {
	_, err := s.db.NewDelete().
		Model((*playerRow)(nil)).
		Where("room_id = ?", string(roomID)).
		Where("id = ?", string(id)).
		Exec(ctx)
	return err
}

func (s *Storage) ListPlayers(ctx context.Context, roomID model.RoomID) ([]model.Player, error) {
	var rows []playerRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("room_id = ?", string(roomID)).
		Order("position ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	players := make([]model.Player, 0, len(rows))
	for i := range rows {
		players = append(players, rows[i].toModel())
	}
	return players, nil
}

// Partition operations

func (s *Storage) SavePartition(ctx context.Context, partition *model.Partition) error {
	if err := s.requireRoom(ctx, partition.RoomID); err != nil {
		return err
	}

	teams, err := json.Marshal(partition.Teams)
	if err != nil {
		return err
	}

	row := &partitionRow{
		RoomID:    string(partition.RoomID),
		TeamCount: partition.TeamCount,
		TeamsJSON: string(teams),
		CreatedAt: partition.CreatedAt,
	}
	_, err = s.db.NewInsert().
		Model(row).
		On("CONFLICT (room_id) DO UPDATE").
		Set("team_count = EXCLUDED.team_count").
		Set("teams = EXCLUDED.teams").
		Set("created_at = EXCLUDED.created_at").
		Exec(ctx)
	return err
}

func (s *Storage) GetPartition(ctx context.Context, roomID model.RoomID) (*model.Partition, error) {
	row := new(partitionRow)
	err := s.db.NewSelect().
		Model(row).
		Where("room_id = ?", string(roomID)).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPartitionNotFound
		}
		return nil, err
	}

	var teams []model.Team
	if err := json.Unmarshal([]byte(row.TeamsJSON), &teams); err != nil {
		return nil, err
	}
	return &model.Partition{
		RoomID:    model.RoomID(row.RoomID),
		TeamCount: row.TeamCount,
		Teams:     teams,
		CreatedAt: row.CreatedAt.UTC(),
	}, nil
}

// Chat operations

func (s *Storage) AppendMessage(ctx context.Context, msg *model.ChatMessage) error {
	if err := s.requireRoom(ctx, msg.RoomID); err != nil {
		return err
	}

	row := &messageRow{
		ID:         string(msg.ID),
		RoomID:     string(msg.RoomID),
		AuthorName: msg.AuthorName,
		Content:    msg.Content,
		CreatedAt:  msg.CreatedAt,
	}
	_, err := s.db.NewInsert().Model(row).Exec(ctx)
	return err
}

func (s *Storage) ListMessages(ctx context.Context, roomID model.RoomID) ([]model.ChatMessage, error) {
	var rows []messageRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("room_id = ?", string(roomID)).
		Order("position ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	messages := make([]model.ChatMessage, 0, len(rows))
	for i := range rows {
		messages = append(messages, rows[i].toModel())
	}
	return messages, nil
}

func (s *Storage) LastMessage(ctx context.Context, roomID model.RoomID) (*model.ChatMessage, error) {
	row := new(messageRow)
	err := s.db.NewSelect().
		Model(row).
		Where("room_id = ?", string(roomID)).
		Order("position DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	msg := row.toModel()
	return &msg, nil
}
