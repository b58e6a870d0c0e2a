// Package balancer splits a room's players into teams of roughly equal skill.
package balancer

import (
	"sort"

	"github.com/mcoot/teambalancer/internal/model"
)

// Balance partitions players into teamCount teams.
//
// Players are stably sorted by skill, highest first, and dealt out
// round-robin: the player at sorted position i joins team i mod teamCount.
// Equal skills keep their input order, so the same input always produces
// the same teams. There is no second pass to even out totals.
func Balance(players []model.Player, teamCount int) ([]model.Team, error) {
	if teamCount < 2 {
		return nil, model.ErrInvalidTeamCount
	}
	if len(players) < teamCount {
		return nil, model.ErrInsufficientPlayers
	}

	sorted := make([]model.Player, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Skill > sorted[j].Skill
	})

	teams := make([]model.Team, teamCount)
	for i, p := range sorted {
		idx := i % teamCount
		teams[idx].Members = append(teams[idx].Members, p)
	}
	return teams, nil
}
