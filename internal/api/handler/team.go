package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/teambalancer/internal/api/request"
	"github.com/mcoot/teambalancer/internal/api/response"
	"github.com/mcoot/teambalancer/internal/model"
	"github.com/mcoot/teambalancer/internal/relay"
	"github.com/mcoot/teambalancer/internal/services/room"
)

// TeamHandler handles team balancing endpoints
type TeamHandler struct {
	rooms *room.Controller
	relay *relay.Service
}

// NewTeamHandler creates a new TeamHandler
func NewTeamHandler(rooms *room.Controller, relay *relay.Service) *TeamHandler {
	return &TeamHandler{
		rooms: rooms,
		relay: relay,
	}
}

// Balance handles POST /api/v1/rooms/{room_id}/balance
func (h *TeamHandler) Balance(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["room_id"])

	var req request.BalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("Invalid JSON body"))
		return
	}

	partition, err := h.relay.BalanceRoom(r.Context(), roomID, req.TeamCount)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PartitionFromModel(partition))
}

// Get handles GET /api/v1/rooms/{room_id}/teams
func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["room_id"])

	partition, err := h.rooms.Partition(r.Context(), roomID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PartitionFromModel(partition))
}

// Replace handles PUT /api/v1/rooms/{room_id}/teams with a partition computed by a client
func (h *TeamHandler) Replace(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["room_id"])

	var req request.ReplaceTeamsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("Invalid JSON body"))
		return
	}

	partition := partitionFromRequest(roomID, req)
	if err := h.relay.SubmitPartition(r.Context(), roomID, partition); err != nil {
		WriteError(w, err)
		return
	}

	current, err := h.rooms.Partition(r.Context(), roomID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PartitionFromModel(current))
}

func partitionFromRequest(roomID model.RoomID, req request.ReplaceTeamsRequest) model.Partition {
	teams := make([]model.Team, len(req.Teams))
	for i, t := range req.Teams {
		members := make([]model.Player, len(t.Members))
		for j, m := range t.Members {
			members[j] = model.Player{
				ID:     model.PlayerID(m.ID),
				RoomID: roomID,
				Name:   m.Name,
				Skill:  m.Skill,
			}
		}
		teams[i] = model.Team{Members: members}
	}
	return model.Partition{
		RoomID:    roomID,
		TeamCount: req.TeamCount,
		Teams:     teams,
		CreatedAt: req.CreatedAt,
	}
}
