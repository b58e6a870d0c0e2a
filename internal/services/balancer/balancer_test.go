package balancer

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/teambalancer/internal/model"
)

func players(skills ...int) []model.Player {
	result := make([]model.Player, len(skills))
	for i, skill := range skills {
		result[i] = model.Player{
			ID:    model.PlayerID(fmt.Sprintf("p%d", i)),
			Name:  fmt.Sprintf("Player %d", i),
			Skill: skill,
		}
	}
	return result
}

func skillsOf(team model.Team) []int {
	skills := make([]int, len(team.Members))
	for i, m := range team.Members {
		skills[i] = m.Skill
	}
	return skills
}

func idsOf(team model.Team) []model.PlayerID {
	ids := make([]model.PlayerID, len(team.Members))
	for i, m := range team.Members {
		ids[i] = m.ID
	}
	return ids
}

func TestBalanceRoundRobinAfterSort(t *testing.T) {
	teams, err := Balance(players(5, 3, 1, 4), 2)
	require.NoError(t, err)
	require.Len(t, teams, 2)

	assert.Equal(t, []int{5, 3}, skillsOf(teams[0]))
	assert.Equal(t, []int{4, 1}, skillsOf(teams[1]))
}

func TestBalanceStableTieBreak(t *testing.T) {
	// p0..p5 all skill 2 except p2 (skill 4)
	teams, err := Balance(players(2, 2, 4, 2, 2, 2), 3)
	require.NoError(t, err)

	assert.Equal(t, []model.PlayerID{"p2", "p3"}, idsOf(teams[0]))
	assert.Equal(t, []model.PlayerID{"p0", "p4"}, idsOf(teams[1]))
	assert.Equal(t, []model.PlayerID{"p1", "p5"}, idsOf(teams[2]))
}

func TestBalanceUnevenTeamSizes(t *testing.T) {
	teams, err := Balance(players(1, 2, 3, 4, 5), 3)
	require.NoError(t, err)

	assert.Equal(t, []int{5, 2}, skillsOf(teams[0]))
	assert.Equal(t, []int{4, 1}, skillsOf(teams[1]))
	assert.Equal(t, []int{3}, skillsOf(teams[2]))
}

func TestBalanceExactlyTeamCountPlayers(t *testing.T) {
	teams, err := Balance(players(1, 5), 2)
	require.NoError(t, err)

	assert.Equal(t, []int{5}, skillsOf(teams[0]))
	assert.Equal(t, []int{1}, skillsOf(teams[1]))
}

func TestBalanceInsufficientPlayers(t *testing.T) {
	input := players(3, 2, 1)
	before := append([]model.Player(nil), input...)

	teams, err := Balance(input, 5)
	assert.ErrorIs(t, err, model.ErrInsufficientPlayers)
	assert.Nil(t, teams)
	assert.Equal(t, before, input)
}

func TestBalanceInvalidTeamCount(t *testing.T) {
	for _, k := range []int{1, 0, -2} {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			_, err := Balance(players(1, 2, 3), k)
			assert.ErrorIs(t, err, model.ErrInvalidTeamCount)
		})
	}

	_, err := Balance(nil, 1)
	assert.ErrorIs(t, err, model.ErrInvalidTeamCount)
}

func TestBalanceDoesNotMutateInput(t *testing.T) {
	input := players(1, 5, 3)
	before := append([]model.Player(nil), input...)

	_, err := Balance(input, 2)
	require.NoError(t, err)
	assert.Equal(t, before, input)
}

func TestBalanceProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for iter := 0; iter < 200; iter++ {
		n := rng.Intn(30) + 2
		k := rng.Intn(n-1) + 2
		skills := make([]int, n)
		for i := range skills {
			skills[i] = rng.Intn(5) + 1
		}
		input := players(skills...)

		teams, err := Balance(input, k)
		require.NoError(t, err)
		require.Len(t, teams, k)

		seen := make(map[model.PlayerID]int)
		for _, team := range teams {
			for _, m := range team.Members {
				seen[m.ID]++
			}
			// Each team is in non-increasing skill order
			s := skillsOf(team)
			for i := 1; i < len(s); i++ {
				assert.GreaterOrEqual(t, s[i-1], s[i])
			}
		}
		assert.Len(t, seen, n)
		for id, count := range seen {
			assert.Equal(t, 1, count, "player %s assigned %d times", id, count)
		}

		again, err := Balance(input, k)
		require.NoError(t, err)
		assert.Equal(t, teams, again)
	}
}
