package model

import (
	"sort"
	"strings"
	"time"
)

// AnonymousAuthor is used when a message is sent without an author name
const AnonymousAuthor = "Anonymous"

// MessageID uniquely identifies a chat message
type MessageID string

// ChatMessage is an immutable entry in a room's chat log
type ChatMessage struct {
	ID         MessageID
	RoomID     RoomID
	AuthorName string
	Content    string
	CreatedAt  time.Time
}

// ValidateContent trims whitespace and rejects empty message content
func ValidateContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", ErrInvalidContent
	}
	return trimmed, nil
}

// NormalizeAuthor trims the author name, falling back to AnonymousAuthor
func NormalizeAuthor(author string) string {
	trimmed := strings.TrimSpace(author)
	if trimmed == "" {
		return AnonymousAuthor
	}
	return trimmed
}

// MessagesSince returns the messages created strictly after since, ordered by
// CreatedAt with ties kept in their input order. A zero since returns all messages.
func MessagesSince(messages []ChatMessage, since time.Time) []ChatMessage {
	out := make([]ChatMessage, 0, len(messages))
	for _, m := range messages {
		if since.IsZero() || m.CreatedAt.After(since) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
