package session

import "github.com/mcoot/teambalancer/internal/model"

// Registry is a session's local replica of a room's players.
// Players are listed in the order they were first seen.
type Registry struct {
	players map[model.PlayerID]model.Player
	order   []model.PlayerID
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{players: make(map[model.PlayerID]model.Player)}
}

// Upsert inserts or overwrites a player keyed by id
func (r *Registry) Upsert(p model.Player) {
	if _, ok := r.players[p.ID]; !ok {
		r.order = append(r.order, p.ID)
	}
	r.players[p.ID] = p
}

// Delete removes a player. Deleting an absent id is a no-op.
func (r *Registry) Delete(id model.PlayerID) {
	if _, ok := r.players[id]; !ok {
		return
	}
	delete(r.players, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}

// Get returns a player by id
func (r *Registry) Get(id model.PlayerID) (model.Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

// List returns a snapshot of all players
func (r *Registry) List() []model.Player {
	out := make([]model.Player, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.players[id])
	}
	return out
}

// Len returns the number of players
func (r *Registry) Len() int {
	return len(r.order)
}

// Reset replaces the contents with players, keeping their order
func (r *Registry) Reset(players []model.Player) {
	r.players = make(map[model.PlayerID]model.Player, len(players))
	r.order = r.order[:0]
	for _, p := range players {
		r.Upsert(p)
	}
}
