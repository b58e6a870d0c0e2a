package model

import (
	"strings"
	"time"
)

// Skill bounds
const (
	MinSkill     = 1
	MaxSkill     = 5
	DefaultSkill = MinSkill
)

// PlayerID uniquely identifies a player within a room. IDs are never reused.
type PlayerID string

// Player is a member of a room's registry
type Player struct {
	ID       PlayerID
	RoomID   RoomID
	Name     string
	Skill    int
	JoinedAt time.Time
}

// PlayerChange carries the fields of a player to overwrite. Nil fields are left alone.
type PlayerChange struct {
	Name  *string
	Skill *int
}

// IsEmpty returns true if the change would not modify anything
func (c PlayerChange) IsEmpty() bool {
	return c.Name == nil && c.Skill == nil
}

// Apply returns a copy of p with the change applied. Skill is clamped, name is trimmed.
func (c PlayerChange) Apply(p Player) Player {
	if c.Name != nil {
		p.Name = strings.TrimSpace(*c.Name)
	}
	if c.Skill != nil {
		p.Skill = ClampSkill(*c.Skill)
	}
	return p
}

// ClampSkill restricts a skill rating to [MinSkill, MaxSkill]
func ClampSkill(skill int) int {
	if skill < MinSkill {
		return MinSkill
	}
	if skill > MaxSkill {
		return MaxSkill
	}
	return skill
}

// ValidateName trims whitespace and rejects empty display names
func ValidateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", ErrInvalidName
	}
	return trimmed, nil
}
