package session

import (
	"time"

	"github.com/mcoot/teambalancer/internal/model"
)

// ChatLog is a session's local replica of a room's chat.
// Redelivered messages are recognised by id and ignored.
type ChatLog struct {
	messages []model.ChatMessage
	seen     map[model.MessageID]bool
}

// NewChatLog creates an empty ChatLog
func NewChatLog() *ChatLog {
	return &ChatLog{seen: make(map[model.MessageID]bool)}
}

// Insert records a message in arrival order. Returns false for a duplicate.
func (c *ChatLog) Insert(msg model.ChatMessage) bool {
	if c.seen[msg.ID] {
		return false
	}
	c.seen[msg.ID] = true
	c.messages = append(c.messages, msg)
	return true
}

// List returns messages created strictly after since (all when zero),
// ascending by created_at, ties in arrival order
func (c *ChatLog) List(since time.Time) []model.ChatMessage {
	return model.MessagesSince(c.messages, since)
}

// Len returns the number of messages
func (c *ChatLog) Len() int {
	return len(c.messages)
}

// Reset replaces the contents with messages
func (c *ChatLog) Reset(messages []model.ChatMessage) {
	c.messages = nil
	c.seen = make(map[model.MessageID]bool, len(messages))
	for _, m := range messages {
		c.Insert(m)
	}
}
