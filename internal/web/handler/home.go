package handler

import (
	"net/http"
	"strings"

	"github.com/mcoot/teambalancer/internal/model"
	"github.com/mcoot/teambalancer/internal/services/room"
	"github.com/mcoot/teambalancer/internal/web/middleware"
	"github.com/mcoot/teambalancer/internal/web/templates/layout"
	"github.com/mcoot/teambalancer/internal/web/templates/pages"
)

// HomeHandler handles the home page and room creation
type HomeHandler struct {
	rooms *room.Controller
}

// NewHomeHandler creates a new HomeHandler
func NewHomeHandler(rooms *room.Controller) *HomeHandler {
	return &HomeHandler{rooms: rooms}
}

// Home renders the home page
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	data := pages.HomeData{
		PageData: layout.PageData{
			Title: "Home",
			Flash: middleware.GetFlash(r.Context()),
		},
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.Home(data).Render(r.Context(), w); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// Create handles room creation from the home page
func (h *HomeHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		middleware.SetFlash(w, "error", "Invalid form data")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	roomID := model.RoomID(strings.TrimSpace(r.FormValue("room_id")))
	mode := model.RoomMode(r.FormValue("mode"))

	rm, hostKey, err := h.rooms.CreateRoom(r.Context(), roomID, mode)
	if err != nil {
		middleware.SetFlash(w, "error", "Could not create room: "+err.Error())
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if hostKey != "" {
		middleware.SetHostKey(w, rm.ID, hostKey)
		middleware.SetFlash(w, "success", "Room created. Your host key is "+hostKey+", keep it to manage the room from another device.")
	} else {
		middleware.SetFlash(w, "success", "Room created. Share the link to invite players.")
	}
	http.Redirect(w, r, rm.InvitePath(), http.StatusSeeOther)
}

// JoinByForm opens a room by id from the home page
func (h *HomeHandler) JoinByForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		middleware.SetFlash(w, "error", "Invalid form data")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	roomID := model.RoomID(strings.TrimSpace(r.FormValue("room_id")))
	if err := model.ValidateRoomID(roomID); err != nil {
		middleware.SetFlash(w, "error", "Room id must be letters, digits, '-' or '_'")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/rooms/"+string(roomID), http.StatusSeeOther)
}
