package request

import "time"

// CreateRoomRequest is the request body for creating a room
type CreateRoomRequest struct {
	RoomID string `json:"room_id,omitempty"`
	Mode   string `json:"mode,omitempty"`
}

// JoinRequest is the request body for adding a player to a room
type JoinRequest struct {
	Name string `json:"name"`
}

// UpdatePlayerRequest is the request body for editing a player. Omitted fields are left alone.
type UpdatePlayerRequest struct {
	Name  *string `json:"name,omitempty"`
	Skill *int    `json:"skill,omitempty"`
}

// BalanceRequest is the request body for balancing a room into teams
type BalanceRequest struct {
	TeamCount int `json:"team_count"`
}

// TeamMember identifies a player inside a submitted partition
type TeamMember struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Skill int    `json:"skill"`
}

// Team is one team of a submitted partition
type Team struct {
	Members []TeamMember `json:"members"`
}

// ReplaceTeamsRequest is the request body for submitting a partition computed elsewhere
type ReplaceTeamsRequest struct {
	TeamCount int       `json:"team_count"`
	Teams     []Team    `json:"teams"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// SendMessageRequest is the request body for posting a chat message
type SendMessageRequest struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}
