package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mcoot/teambalancer/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w, or stdout if w is nil
func NewOutput(format string, w io.Writer) *Output {
	if w == nil {
		w = os.Stdout
	}
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case CreatedRoom:
		o.printCreatedRoom(v)
	case response.SnapshotResponse:
		o.printSnapshot(v)
	case response.Player:
		o.printPlayer(v)
	case response.PlayerListResponse:
		o.printPlayers(v.Players)
	case response.Partition:
		o.printPartition(&v)
	case response.Message:
		o.printMessages([]response.Message{v})
	case response.MessageListResponse:
		o.printMessages(v.Messages)
	case response.HealthResponse:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// CreatedRoom is a room creation result with its absolute invite link
type CreatedRoom struct {
	response.CreateRoomResponse
	InviteURL string `json:"invite_url"`
}

func (o *Output) printCreatedRoom(r CreatedRoom) {
	fmt.Fprintf(o.w, "Room: %s (%s)\n", r.Room.ID, r.Room.Mode)
	fmt.Fprintf(o.w, "Invite: %s\n", r.InviteURL)
	if r.HostKey != "" {
		fmt.Fprintf(o.w, "Host key: %s\n", r.HostKey)
		fmt.Fprintln(o.w, "Keep the host key; it is needed to rate, kick and balance, and is not shown again.")
	}
}

func (o *Output) printSnapshot(s response.SnapshotResponse) {
	fmt.Fprintf(o.w, "Room: %s (%s)\n", s.Room.ID, s.Room.Mode)
	fmt.Fprintf(o.w, "Seq: %d\n", s.Seq)
	fmt.Fprintln(o.w)
	o.printPlayers(s.Players)
	fmt.Fprintln(o.w)
	if s.Teams == nil {
		fmt.Fprintln(o.w, "Teams: not balanced yet")
	} else {
		o.printPartition(s.Teams)
	}
	fmt.Fprintln(o.w)
	o.printMessages(s.Messages)
}

func (o *Output) printPlayer(p response.Player) {
	fmt.Fprintf(o.w, "Player: %s (%s)\n", p.Name, p.ID)
	fmt.Fprintf(o.w, "Skill: %d\n", p.Skill)
}

func (o *Output) printPlayers(players []response.Player) {
	fmt.Fprintf(o.w, "Players (%d):\n", len(players))
	for _, p := range players {
		fmt.Fprintf(o.w, "  - %s (%s) skill %d\n", p.Name, p.ID, p.Skill)
	}
}

func (o *Output) printPartition(p *response.Partition) {
	fmt.Fprintf(o.w, "Teams (%d):\n", p.TeamCount)
	for i, t := range p.Teams {
		names := make([]string, len(t.Members))
		for j, m := range t.Members {
			names[j] = fmt.Sprintf("%s (%d)", m.Name, m.Skill)
		}
		fmt.Fprintf(o.w, "  Team %d [total %d]: %s\n", i+1, t.TotalSkill, strings.Join(names, ", "))
	}
}

func (o *Output) printMessages(messages []response.Message) {
	fmt.Fprintf(o.w, "Chat (%d):\n", len(messages))
	for _, m := range messages {
		fmt.Fprintf(o.w, "  [%s] %s: %s\n", m.CreatedAt.Local().Format("15:04:05"), m.AuthorName, m.Content)
	}
}
