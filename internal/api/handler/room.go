package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/teambalancer/internal/api/request"
	"github.com/mcoot/teambalancer/internal/api/response"
	"github.com/mcoot/teambalancer/internal/model"
	"github.com/mcoot/teambalancer/internal/relay"
	"github.com/mcoot/teambalancer/internal/services/room"
)

// RoomHandler handles room endpoints
type RoomHandler struct {
	rooms *room.Controller
	relay *relay.Service
}

// NewRoomHandler creates a new RoomHandler
func NewRoomHandler(rooms *room.Controller, relay *relay.Service) *RoomHandler {
	return &RoomHandler{
		rooms: rooms,
		relay: relay,
	}
}

// Create handles POST /api/v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, NewInvalidRequestError("Invalid JSON body"))
		return
	}

	rm, hostKey, err := h.rooms.CreateRoom(r.Context(), model.RoomID(req.RoomID), model.RoomMode(req.Mode))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, "/api/v1/rooms/"+string(rm.ID), response.CreateRoomResponse{
		Room:       response.RoomFromModel(rm),
		InvitePath: rm.InvitePath(),
		HostKey:    hostKey,
	})
}

// Ensure handles PUT /api/v1/rooms/{room_id}, opening the room if it doesn't exist
func (h *RoomHandler) Ensure(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["room_id"])

	rm, err := h.rooms.EnsureRoom(r.Context(), roomID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(rm))
}

// Get handles GET /api/v1/rooms/{room_id}, returning the full room state
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["room_id"])

	snap, err := h.relay.Snapshot(r.Context(), roomID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SnapshotFromModel(snap))
}
