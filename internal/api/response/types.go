package response

import (
	"time"

	"github.com/mcoot/teambalancer/internal/model"
)

// Room represents a room in API responses
type Room struct {
	ID         string    `json:"id"`
	Mode       string    `json:"mode"`
	HostOnly   bool      `json:"host_only"`
	InvitePath string    `json:"invite_path"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RoomFromModel converts a model.Room to a response Room
func RoomFromModel(r *model.Room) Room {
	return Room{
		ID:         string(r.ID),
		Mode:       string(r.Mode),
		HostOnly:   r.HostOnly(),
		InvitePath: r.InvitePath(),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// ToModel converts back to a model.Room. The host key hash never leaves the server.
func (r Room) ToModel() model.Room {
	return model.Room{
		ID:        model.RoomID(r.ID),
		Mode:      model.RoomMode(r.Mode),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// CreateRoomResponse is the response for room creation
type CreateRoomResponse struct {
	Room       Room   `json:"room"`
	InvitePath string `json:"invite_path"`
	HostKey    string `json:"host_key,omitempty"`
}

// Player represents a player in API responses
type Player struct {
	ID       string    `json:"id"`
	RoomID   string    `json:"room_id"`
	Name     string    `json:"name"`
	Skill    int       `json:"skill"`
	JoinedAt time.Time `json:"joined_at"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:       string(p.ID),
		RoomID:   string(p.RoomID),
		Name:     p.Name,
		Skill:    p.Skill,
		JoinedAt: p.JoinedAt,
	}
}

// ToModel converts back to a model.Player
func (p Player) ToModel() model.Player {
	return model.Player{
		ID:       model.PlayerID(p.ID),
		RoomID:   model.RoomID(p.RoomID),
		Name:     p.Name,
		Skill:    p.Skill,
		JoinedAt: p.JoinedAt,
	}
}

// PlayersFromModel converts a slice of players
func PlayersFromModel(players []model.Player) []Player {
	result := make([]Player, len(players))
	for i := range players {
		result[i] = PlayerFromModel(&players[i])
	}
	return result
}

// PlayerListResponse is the response for listing a room's players
type PlayerListResponse struct {
	Players []Player `json:"players"`
}

// Team represents one balanced team
type Team struct {
	Members    []Player `json:"members"`
	TotalSkill int      `json:"total_skill"`
}

// Partition represents a room's teams in API responses
type Partition struct {
	RoomID    string    `json:"room_id"`
	TeamCount int       `json:"team_count"`
	Teams     []Team    `json:"teams"`
	CreatedAt time.Time `json:"created_at"`
}

// PartitionFromModel converts a model.Partition to a response Partition
func PartitionFromModel(p *model.Partition) Partition {
	teams := make([]Team, len(p.Teams))
	for i, t := range p.Teams {
		teams[i] = Team{
			Members:    PlayersFromModel(t.Members),
			TotalSkill: t.TotalSkill(),
		}
	}
	return Partition{
		RoomID:    string(p.RoomID),
		TeamCount: p.TeamCount,
		Teams:     teams,
		CreatedAt: p.CreatedAt,
	}
}

// ToModel converts back to a model.Partition
func (p Partition) ToModel() model.Partition {
	teams := make([]model.Team, len(p.Teams))
	for i, t := range p.Teams {
		members := make([]model.Player, len(t.Members))
		for j, m := range t.Members {
			members[j] = m.ToModel()
		}
		teams[i] = model.Team{Members: members}
	}
	return model.Partition{
		RoomID:    model.RoomID(p.RoomID),
		TeamCount: p.TeamCount,
		Teams:     teams,
		CreatedAt: p.CreatedAt,
	}
}

// Message represents a chat message in API responses
type Message struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"room_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// MessageFromModel converts a model.ChatMessage to a response Message
func MessageFromModel(m *model.ChatMessage) Message {
	return Message{
		ID:         string(m.ID),
		RoomID:     string(m.RoomID),
		AuthorName: m.AuthorName,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt,
	}
}

// ToModel converts back to a model.ChatMessage
func (m Message) ToModel() model.ChatMessage {
	return model.ChatMessage{
		ID:         model.MessageID(m.ID),
		RoomID:     model.RoomID(m.RoomID),
		AuthorName: m.AuthorName,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt,
	}
}

// MessagesFromModel converts a slice of messages
func MessagesFromModel(messages []model.ChatMessage) []Message {
	result := make([]Message, len(messages))
	for i := range messages {
		result[i] = MessageFromModel(&messages[i])
	}
	return result
}

// MessageListResponse is the response for listing chat messages
type MessageListResponse struct {
	Messages []Message `json:"messages"`
}

// SnapshotResponse is the full state of a room
type SnapshotResponse struct {
	Room     Room       `json:"room"`
	Players  []Player   `json:"players"`
	Teams    *Partition `json:"teams,omitempty"`
	Messages []Message  `json:"messages"`
	Seq      uint64     `json:"seq"`
}

// SnapshotFromModel converts a model.RoomSnapshot
func SnapshotFromModel(s *model.RoomSnapshot) SnapshotResponse {
	resp := SnapshotResponse{
		Room:     RoomFromModel(&s.Room),
		Players:  PlayersFromModel(s.Players),
		Messages: MessagesFromModel(s.Messages),
		Seq:      s.Seq,
	}
	if s.Partition != nil {
		p := PartitionFromModel(s.Partition)
		resp.Teams = &p
	}
	return resp
}

// ToModel converts back to a model.RoomSnapshot
func (s SnapshotResponse) ToModel() model.RoomSnapshot {
	snap := model.RoomSnapshot{
		Room:     s.Room.ToModel(),
		Players:  make([]model.Player, len(s.Players)),
		Messages: make([]model.ChatMessage, len(s.Messages)),
		Seq:      s.Seq,
	}
	for i, p := range s.Players {
		snap.Players[i] = p.ToModel()
	}
	for i, m := range s.Messages {
		snap.Messages[i] = m.ToModel()
	}
	if s.Teams != nil {
		p := s.Teams.ToModel()
		snap.Partition = &p
	}
	return snap
}

// Update is a single accepted change as streamed to subscribers
type Update struct {
	Seq       uint64     `json:"seq"`
	Type      string     `json:"type"`
	RoomID    string     `json:"room_id"`
	Timestamp time.Time  `json:"timestamp"`
	Player    *Player    `json:"player,omitempty"`
	PlayerID  string     `json:"player_id,omitempty"`
	Teams     *Partition `json:"teams,omitempty"`
	Message   *Message   `json:"message,omitempty"`
}

// UpdateFromModel converts a model.Update
func UpdateFromModel(u *model.Update) Update {
	resp := Update{
		Seq:       u.Seq,
		Type:      string(u.Type),
		RoomID:    string(u.RoomID),
		Timestamp: u.Timestamp,
		PlayerID:  string(u.PlayerID),
	}
	if u.Player != nil {
		p := PlayerFromModel(u.Player)
		resp.Player = &p
	}
	if u.Partition != nil {
		p := PartitionFromModel(u.Partition)
		resp.Teams = &p
	}
	if u.Message != nil {
		m := MessageFromModel(u.Message)
		resp.Message = &m
	}
	return resp
}

// ToModel converts back to a model.Update
func (u Update) ToModel() model.Update {
	update := model.Update{
		Seq:       u.Seq,
		Type:      model.UpdateType(u.Type),
		RoomID:    model.RoomID(u.RoomID),
		Timestamp: u.Timestamp,
		PlayerID:  model.PlayerID(u.PlayerID),
	}
	if u.Player != nil {
		p := u.Player.ToModel()
		update.Player = &p
	}
	if u.Teams != nil {
		p := u.Teams.ToModel()
		update.Partition = &p
	}
	if u.Message != nil {
		m := u.Message.ToModel()
		update.Message = &m
	}
	return update
}

// HealthResponse is the response for the health endpoint
type HealthResponse struct {
	Status string `json:"status"`
}
