package model

import "time"

// MaxRoomIDLength bounds caller-chosen room ids
const MaxRoomIDLength = 64

// ValidateRoomID checks a caller-chosen room id is safe to embed in paths and keys
func ValidateRoomID(id RoomID) error {
	if len(id) == 0 || len(id) > MaxRoomIDLength {
		return ErrInvalidRoomID
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return ErrInvalidRoomID
		}
	}
	return nil
}

// RoomID is the opaque identifier shared through invite links
type RoomID string

// RoomMode decides who may edit skills, kick players and balance teams
type RoomMode string

const (
	RoomModeOpen RoomMode = "open" // Anyone in the room may edit
	RoomModeHost RoomMode = "host" // Skill edits, kicks and balancing need the host key
)

// IsValid returns true for known modes
func (m RoomMode) IsValid() bool {
	return m == RoomModeOpen || m == RoomModeHost
}

// Room is an isolated session holding players, a chat log and at most one partition
type Room struct {
	ID          RoomID
	Mode        RoomMode
	HostKeyHash string // bcrypt hash, empty for open rooms
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HostOnly returns true if privileged actions require the host key
func (r *Room) HostOnly() bool {
	return r.Mode == RoomModeHost
}

// InvitePath returns the shareable path for the room
func (r *Room) InvitePath() string {
	return "/rooms/" + string(r.ID)
}

// RoomSnapshot is the full state of a room at a point in the update sequence
type RoomSnapshot struct {
	Room      Room
	Players   []Player
	Partition *Partition // nil until the first balance
	Messages  []ChatMessage
	Seq       uint64 // Sequence number of the last update reflected here
}
