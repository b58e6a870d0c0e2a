// Package components renders the fragments of a room page. Each fragment
// has a stable element id so server-sent updates can swap it in place.
package components

import (
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/mcoot/teambalancer/internal/model"
)

// Element ids, also used as the SSE event names that replace them
const (
	PlayerListID = "player-list"
	TeamsID      = "teams"
	ChatLogID    = "chat-log"
)

// RoomView is what a viewer can see and do in a room
type RoomView struct {
	Room      model.Room
	Players   []model.Player
	Partition *model.Partition
	Messages  []model.ChatMessage
	Self      model.PlayerID
	CanManage bool // Skill edits, kicks and balancing are allowed
}

func roomURL(id model.RoomID, suffix string) templ.SafeURL {
	return templ.URL("/rooms/" + string(id) + suffix)
}

func playerURL(id model.RoomID, playerID model.PlayerID, action string) templ.SafeURL {
	return roomURL(id, "/players/"+string(playerID)+"/"+action)
}

// skillLevels lists every selectable rating
func skillLevels() []int {
	levels := make([]int, 0, model.MaxSkill-model.MinSkill+1)
	for s := model.MinSkill; s <= model.MaxSkill; s++ {
		levels = append(levels, s)
	}
	return levels
}

// balanceDefault is the team count the balance form starts with
func balanceDefault(p *model.Partition) string {
	if p == nil {
		return "2"
	}
	return strconv.Itoa(p.TeamCount)
}

func timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000Z")
}

func clockTime(t time.Time) string {
	return t.UTC().Format("15:04")
}
