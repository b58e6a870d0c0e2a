package redis

import (
	"fmt"

	"github.com/mcoot/teambalancer/internal/model"
)

// Key prefix for all team balancer data
const keyPrefix = "tbal"

// roomKey returns the Redis key for a Room record
func roomKey(id model.RoomID) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, id)
}

// seqKey returns the Redis key for the room's update counter
func seqKey(id model.RoomID) string {
	return fmt.Sprintf("%s:room:%s:seq", keyPrefix, id)
}

// playersKey returns the Redis key for the HASH of player id -> player
func playersKey(id model.RoomID) string {
	return fmt.Sprintf("%s:room:%s:players", keyPrefix, id)
}

// playerOrderKey returns the Redis key for the LIST of player ids in join order
func playerOrderKey(id model.RoomID) string {
	return fmt.Sprintf("%s:room:%s:player_order", keyPrefix, id)
}

// partitionKey returns the Redis key for the room's current partition
func partitionKey(id model.RoomID) string {
	return fmt.Sprintf("%s:room:%s:partition", keyPrefix, id)
}

// messagesKey returns the Redis key for the LIST of chat messages
func messagesKey(id model.RoomID) string {
	return fmt.Sprintf("%s:room:%s:messages", keyPrefix, id)
}

// roomKeys returns every key belonging to a room
func roomKeys(id model.RoomID) []string {
	return []string{
		roomKey(id),
		seqKey(id),
		playersKey(id),
		playerOrderKey(id),
		partitionKey(id),
		messagesKey(id),
	}
}

// lockKey returns the Redis key for the room's mutation lock
func lockKey(id model.RoomID) string {
	return fmt.Sprintf("%s:room:%s:lock", keyPrefix, id)
}
