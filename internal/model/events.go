package model

import "time"

// UpdateType identifies the kind of change carried by an Update
type UpdateType string

const (
	UpdatePlayerAdded       UpdateType = "player_added"
	UpdatePlayerRemoved     UpdateType = "player_removed"
	UpdatePlayerChanged     UpdateType = "player_changed"
	UpdatePartitionReplaced UpdateType = "partition_replaced"
	UpdateMessageAppended   UpdateType = "message_appended"
)

// Update is an accepted change fanned out to every subscriber of a room
type Update struct {
	Seq       uint64 // Per-room sequence number assigned when the change was accepted
	Type      UpdateType
	RoomID    RoomID
	Timestamp time.Time

	// Exactly one of the following is set, depending on Type
	Player    *Player      // player_added, player_changed
	PlayerID  PlayerID     // player_removed
	Partition *Partition   // partition_replaced
	Message   *ChatMessage // message_appended
}

// NewPlayerAdded builds a player_added update
func NewPlayerAdded(p Player) Update {
	return Update{Type: UpdatePlayerAdded, RoomID: p.RoomID, Player: &p}
}

// NewPlayerChanged builds a player_changed update carrying the full player record
func NewPlayerChanged(p Player) Update {
	return Update{Type: UpdatePlayerChanged, RoomID: p.RoomID, Player: &p}
}

// NewPlayerRemoved builds a player_removed update
func NewPlayerRemoved(roomID RoomID, playerID PlayerID) Update {
	return Update{Type: UpdatePlayerRemoved, RoomID: roomID, PlayerID: playerID}
}

// NewPartitionReplaced builds a partition_replaced update
func NewPartitionReplaced(p Partition) Update {
	return Update{Type: UpdatePartitionReplaced, RoomID: p.RoomID, Partition: &p}
}

// NewMessageAppended builds a message_appended update
func NewMessageAppended(m ChatMessage) Update {
	return Update{Type: UpdateMessageAppended, RoomID: m.RoomID, Message: &m}
}
