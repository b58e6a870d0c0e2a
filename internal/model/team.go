package model

import "time"

// Team is an ordered group of player snapshots taken at balance time
type Team struct {
	Members []Player
}

// TotalSkill sums the snapshot skill of every member
func (t Team) TotalSkill() int {
	total := 0
	for _, m := range t.Members {
		total += m.Skill
	}
	return total
}

// Partition is the output of a balance run. It replaces any previous partition wholesale.
type Partition struct {
	RoomID    RoomID
	TeamCount int
	Teams     []Team
	CreatedAt time.Time
}

// PlayerCount returns the number of players across all teams
func (p *Partition) PlayerCount() int {
	count := 0
	for _, t := range p.Teams {
		count += len(t.Members)
	}
	return count
}

// Validate checks the structural invariants of a partition
func (p *Partition) Validate() error {
	if p.TeamCount < 2 {
		return ErrInvalidTeamCount
	}
	if len(p.Teams) != p.TeamCount {
		return ErrInvalidPartition
	}
	seen := make(map[PlayerID]bool, p.PlayerCount())
	for _, t := range p.Teams {
		for _, m := range t.Members {
			if m.ID == "" || seen[m.ID] {
				return ErrInvalidPartition
			}
			seen[m.ID] = true
		}
	}
	return nil
}

// Clone returns a copy that shares no slices with p
func (p *Partition) Clone() *Partition {
	c := *p
	c.Teams = make([]Team, len(p.Teams))
	for i, t := range p.Teams {
		c.Teams[i] = Team{Members: append([]Player(nil), t.Members...)}
	}
	return &c
}
