package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func team(players ...Player) Team {
	return Team{Members: players}
}

func TestPartitionValidate(t *testing.T) {
	a := Player{ID: "a", Skill: 5}
	b := Player{ID: "b", Skill: 3}
	c := Player{ID: "c", Skill: 1}

	tests := []struct {
		name      string
		partition Partition
		wantErr   error
	}{
		{
			name:      "valid",
			partition: Partition{TeamCount: 2, Teams: []Team{team(a, c), team(b)}},
		},
		{
			name:      "team count too small",
			partition: Partition{TeamCount: 1, Teams: []Team{team(a, b)}},
			wantErr:   ErrInvalidTeamCount,
		},
		{
			name:      "team count mismatch",
			partition: Partition{TeamCount: 3, Teams: []Team{team(a), team(b)}},
			wantErr:   ErrInvalidPartition,
		},
		{
			name:      "duplicate player",
			partition: Partition{TeamCount: 2, Teams: []Team{team(a), team(a)}},
			wantErr:   ErrInvalidPartition,
		},
		{
			name:      "missing player id",
			partition: Partition{TeamCount: 2, Teams: []Team{team(Player{Name: "x"}), team(b)}},
			wantErr:   ErrInvalidPartition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.partition.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestTeamTotalSkill(t *testing.T) {
	tm := team(Player{ID: "a", Skill: 5}, Player{ID: "b", Skill: 3})
	assert.Equal(t, 8, tm.TotalSkill())
	assert.Equal(t, 0, Team{}.TotalSkill())

	p := Partition{TeamCount: 2, Teams: []Team{tm, team(Player{ID: "c", Skill: 1})}}
	assert.Equal(t, 3, p.PlayerCount())
}

func TestPartitionClone(t *testing.T) {
	original := &Partition{
		RoomID:    "room",
		TeamCount: 2,
		Teams: []Team{
			{Members: []Player{{ID: "a", Name: "Alice", Skill: 5}}},
			{Members: []Player{{ID: "b", Name: "Bob", Skill: 4}}},
		},
	}

	c := original.Clone()
	c.Teams[0].Members[0].Name = "Mallory"
	c.Teams[1].Members = append(c.Teams[1].Members, Player{ID: "c"})
	c.Teams = append(c.Teams, Team{})

	assert.Equal(t, "Alice", original.Teams[0].Members[0].Name)
	assert.Len(t, original.Teams[1].Members, 1)
	assert.Len(t, original.Teams, 2)
}
