package sqlite

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/mcoot/teambalancer/internal/model"
)

type roomRow struct {
	bun.BaseModel `bun:"table:rooms,alias:r"`

	ID          string    `bun:"id,pk,type:text"`
	Mode        string    `bun:"mode,notnull"`
	HostKeyHash string    `bun:"host_key_hash,notnull"`
	Seq         uint64    `bun:"seq,notnull,default:0"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
}

func (r *roomRow) toModel() *model.Room {
	return &model.Room{
		ID:          model.RoomID(r.ID),
		Mode:        model.RoomMode(r.Mode),
		HostKeyHash: r.HostKeyHash,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

type playerRow struct {
	bun.BaseModel `bun:"table:players,alias:p"`

	RoomID   string    `bun:"room_id,pk,type:text"`
	ID       string    `bun:"id,pk,type:text"`
	Name     string    `bun:"name,notnull"`
	Skill    int       `bun:"skill,notnull"`
	Position int64     `bun:"position,notnull"`
	JoinedAt time.Time `bun:"joined_at,notnull"`
}

func (r *playerRow) toModel() model.Player {
	return model.Player{
		ID:       model.PlayerID(r.ID),
		RoomID:   model.RoomID(r.RoomID),
		Name:     r.Name,
		Skill:    r.Skill,
		JoinedAt: r.JoinedAt.UTC(),
	}
}

type partitionRow struct {
	bun.BaseModel `bun:"table:partitions,alias:pt"`

	RoomID    string    `bun:"room_id,pk,type:text"`
	TeamCount int       `bun:"team_count,notnull"`
	TeamsJSON string    `bun:"teams,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

type messageRow struct {
	bun.BaseModel `bun:"table:messages,alias:m"`

	Position   int64     `bun:"position,pk,autoincrement"`
	ID         string    `bun:"id,notnull,unique,type:text"`
	RoomID     string    `bun:"room_id,notnull,type:text"`
	AuthorName string    `bun:"author_name,notnull"`
	Content    string    `bun:"content,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
}

func (r *messageRow) toModel() model.ChatMessage {
	return model.ChatMessage{
		ID:         model.MessageID(r.ID),
		RoomID:     model.RoomID(r.RoomID),
		AuthorName: r.AuthorName,
		Content:    r.Content,
		CreatedAt:  r.CreatedAt.UTC(),
	}
}
