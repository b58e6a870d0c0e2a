package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/teambalancer/internal/api/middleware"
	"github.com/mcoot/teambalancer/internal/api/request"
	"github.com/mcoot/teambalancer/internal/api/response"
	"github.com/mcoot/teambalancer/internal/model"
	"github.com/mcoot/teambalancer/internal/relay"
	"github.com/mcoot/teambalancer/internal/services/registry"
	"github.com/mcoot/teambalancer/internal/services/room"
)

// PlayerHandler handles player registry endpoints
type PlayerHandler struct {
	rooms    *room.Controller
	registry *registry.Service
	relay    *relay.Service
}

// NewPlayerHandler creates a new PlayerHandler
func NewPlayerHandler(rooms *room.Controller, registry *registry.Service, relay *relay.Service) *PlayerHandler {
	return &PlayerHandler{
		rooms:    rooms,
		registry: registry,
		relay:    relay,
	}
}

// List handles GET /api/v1/rooms/{room_id}/players
func (h *PlayerHandler) List(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["room_id"])

	players, err := h.registry.List(r.Context(), roomID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerListResponse{
		Players: response.PlayersFromModel(players),
	})
}

// Join handles POST /api/v1/rooms/{room_id}/players
func (h *PlayerHandler) Join(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["room_id"])

	var req request.JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("Invalid JSON body"))
		return
	}

	player, err := h.relay.SubmitPlayerJoin(r.Context(), roomID, req.Name)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, "/api/v1/rooms/"+string(roomID)+"/players/"+string(player.ID), response.PlayerFromModel(player))
}

// Update handles PATCH /api/v1/rooms/{room_id}/players/{player_id}.
// Renames are open to everyone; skill edits need the host key in host rooms.
func (h *PlayerHandler) Update(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	roomID := model.RoomID(vars["room_id"])
	playerID := model.PlayerID(vars["player_id"])

	var req request.UpdatePlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("Invalid JSON body"))
		return
	}

	if req.Skill != nil {
		if err := h.rooms.AuthorizeHost(r.Context(), roomID, middleware.GetHostKey(r.Context())); err != nil {
			WriteError(w, err)
			return
		}
	}

	player, err := h.relay.SubmitPlayerChange(r.Context(), roomID, playerID, model.PlayerChange{
		Name:  req.Name,
		Skill: req.Skill,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(player))
}

// Remove handles DELETE /api/v1/rooms/{room_id}/players/{player_id}.
// Removing a player that is already gone succeeds.
func (h *PlayerHandler) Remove(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	roomID := model.RoomID(vars["room_id"])
	playerID := model.PlayerID(vars["player_id"])

	if err := h.relay.SubmitPlayerRemove(r.Context(), roomID, playerID); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}
