package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/teambalancer/internal/api/apierr"
	"github.com/mcoot/teambalancer/internal/model"
	"github.com/mcoot/teambalancer/internal/relay"
	"github.com/mcoot/teambalancer/internal/services/room"
	"github.com/mcoot/teambalancer/internal/sse"
	"github.com/mcoot/teambalancer/internal/web/middleware"
	"github.com/mcoot/teambalancer/internal/web/templates/components"
	"github.com/mcoot/teambalancer/internal/web/templates/layout"
	"github.com/mcoot/teambalancer/internal/web/templates/pages"
)

// RoomHandler handles room pages and actions
type RoomHandler struct {
	rooms  *room.Controller
	relay  *relay.Service
	logger *slog.Logger
}

// NewRoomHandler creates a new RoomHandler
func NewRoomHandler(rooms *room.Controller, relay *relay.Service, logger *slog.Logger) *RoomHandler {
	return &RoomHandler{
		rooms:  rooms,
		relay:  relay,
		logger: logger.With(slog.String("component", "web-room")),
	}
}

func roomIDFrom(r *http.Request) model.RoomID {
	return model.RoomID(mux.Vars(r)["room_id"])
}

func (h *RoomHandler) redirectToRoom(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/rooms/"+string(roomIDFrom(r)), http.StatusSeeOther)
}

func (h *RoomHandler) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	middleware.SetFlash(w, "error", message+": "+err.Error())
	h.redirectToRoom(w, r)
}

// canManage reports whether the viewer may edit skills, kick and balance
func (h *RoomHandler) canManage(ctx context.Context, rm *model.Room, viewer middleware.Viewer) bool {
	if !rm.HostOnly() {
		return true
	}
	return h.rooms.AuthorizeHost(ctx, rm.ID, viewer.HostKey) == nil
}

// authorize fails the request unless the viewer can manage the room
func (h *RoomHandler) authorize(w http.ResponseWriter, r *http.Request) bool {
	rm, err := h.rooms.GetRoom(r.Context(), roomIDFrom(r))
	if err != nil {
		h.fail(w, r, "Room unavailable", err)
		return false
	}
	if !h.canManage(r.Context(), rm, middleware.GetViewer(r.Context())) {
		h.fail(w, r, "Only the host can do that", model.ErrNotHost)
		return false
	}
	return true
}

// buildView assembles what the viewer sees of a snapshot
func (h *RoomHandler) buildView(ctx context.Context, snap *model.RoomSnapshot, viewer middleware.Viewer) (components.RoomView, string) {
	view := components.RoomView{
		Room:      snap.Room,
		Players:   snap.Players,
		Partition: snap.Partition,
		Messages:  snap.Messages,
		CanManage: h.canManage(ctx, &snap.Room, viewer),
	}

	selfName := ""
	for _, p := range snap.Players {
		if p.ID == viewer.PlayerID {
			view.Self = p.ID
			selfName = p.Name
			break
		}
	}
	return view, selfName
}

// View renders the room page. Following an invite to an unknown room opens it.
func (h *RoomHandler) View(w http.ResponseWriter, r *http.Request) {
	roomID := roomIDFrom(r)
	viewer := middleware.GetViewer(r.Context())

	if _, err := h.rooms.EnsureRoom(r.Context(), roomID); err != nil {
		h.renderError(w, r, err)
		return
	}

	snap, err := h.relay.Snapshot(r.Context(), roomID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	view, selfName := h.buildView(r.Context(), snap, viewer)
	if viewer.PlayerID != "" && view.Self == "" {
		// Kicked, or the room was reset
		middleware.ClearPlayer(w, roomID)
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	data := pages.RoomData{
		PageData: layout.PageData{
			Title: "Room " + string(roomID),
			Flash: middleware.GetFlash(r.Context()),
		},
		View:      view,
		SelfName:  selfName,
		InviteURL: scheme + "://" + r.Host + snap.Room.InvitePath(),
		NeedsHost: snap.Room.HostOnly() && !view.CanManage,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.Room(data).Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render room", slog.String("room", string(roomID)), slog.Any("error", err))
	}
}

func (h *RoomHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := apierr.StatusFor(err)
	message := "Something went wrong. Please try again later."
	if errors.Is(err, model.ErrInvalidRoomID) {
		message = "That room id isn't valid. Use letters, digits, '-' or '_'."
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = pages.Error(pages.ErrorData{
		PageData: layout.PageData{Title: "Error"},
		Status:   status,
		Message:  message,
	}).Render(r.Context(), w)
}

// Join adds the browser's player to the room
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	roomID := roomIDFrom(r)
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, "Invalid form data", err)
		return
	}

	player, err := h.relay.SubmitPlayerJoin(r.Context(), roomID, r.FormValue("name"))
	if err != nil {
		h.fail(w, r, "Could not join", err)
		return
	}

	middleware.SetPlayer(w, roomID, player.ID)
	h.redirectToRoom(w, r)
}

// Rename changes a player's display name
func (h *RoomHandler) Rename(w http.ResponseWriter, r *http.Request) {
	roomID := roomIDFrom(r)
	playerID := model.PlayerID(mux.Vars(r)["player_id"])
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, "Invalid form data", err)
		return
	}

	name := r.FormValue("name")
	if _, err := h.relay.SubmitPlayerChange(r.Context(), roomID, playerID, model.PlayerChange{Name: &name}); err != nil {
		h.fail(w, r, "Could not rename", err)
		return
	}
	h.redirectToRoom(w, r)
}

// SetSkill rates a player
func (h *RoomHandler) SetSkill(w http.ResponseWriter, r *http.Request) {
	roomID := roomIDFrom(r)
	if !h.authorize(w, r) {
		return
	}
	playerID := model.PlayerID(mux.Vars(r)["player_id"])
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, "Invalid form data", err)
		return
	}

	skill, err := strconv.Atoi(r.FormValue("skill"))
	if err != nil {
		middleware.SetFlash(w, "error", "Skill must be a number")
		h.redirectToRoom(w, r)
		return
	}

	if _, err := h.relay.SubmitPlayerChange(r.Context(), roomID, playerID, model.PlayerChange{Skill: &skill}); err != nil {
		h.fail(w, r, "Could not rate player", err)
		return
	}
	h.redirectToRoom(w, r)
}

// Remove kicks a player
func (h *RoomHandler) Remove(w http.ResponseWriter, r *http.Request) {
	roomID := roomIDFrom(r)
	if !h.authorize(w, r) {
		return
	}
	playerID := model.PlayerID(mux.Vars(r)["player_id"])

	if err := h.relay.SubmitPlayerRemove(r.Context(), roomID, playerID); err != nil {
		h.fail(w, r, "Could not remove player", err)
		return
	}
	if playerID == middleware.GetViewer(r.Context()).PlayerID {
		middleware.ClearPlayer(w, roomID)
	}
	h.redirectToRoom(w, r)
}

// Balance splits the room into teams
func (h *RoomHandler) Balance(w http.ResponseWriter, r *http.Request) {
	roomID := roomIDFrom(r)
	if !h.authorize(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, "Invalid form data", err)
		return
	}

	teamCount, err := strconv.Atoi(r.FormValue("team_count"))
	if err != nil {
		middleware.SetFlash(w, "error", "Team count must be a number")
		h.redirectToRoom(w, r)
		return
	}

	if _, err := h.relay.BalanceRoom(r.Context(), roomID, teamCount); err != nil {
		h.fail(w, r, "Could not balance", err)
		return
	}
	h.redirectToRoom(w, r)
}

// SendMessage posts to the chat as the browser's player
func (h *RoomHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	roomID := roomIDFrom(r)
	viewer := middleware.GetViewer(r.Context())
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, "Invalid form data", err)
		return
	}

	author := ""
	if viewer.PlayerID != "" {
		if snap, err := h.relay.Snapshot(r.Context(), roomID); err == nil {
			for _, p := range snap.Players {
				if p.ID == viewer.PlayerID {
					author = p.Name
					break
				}
			}
		}
	}

	if _, err := h.relay.SubmitMessage(r.Context(), roomID, author, r.FormValue("content")); err != nil {
		h.fail(w, r, "Could not send message", err)
		return
	}
	h.redirectToRoom(w, r)
}

// UnlockHost checks a host key and remembers it
func (h *RoomHandler) UnlockHost(w http.ResponseWriter, r *http.Request) {
	roomID := roomIDFrom(r)
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, "Invalid form data", err)
		return
	}

	key := r.FormValue("host_key")
	if err := h.rooms.AuthorizeHost(r.Context(), roomID, key); err != nil {
		h.fail(w, r, "Could not unlock host controls", err)
		return
	}

	middleware.SetHostKey(w, roomID, key)
	middleware.SetFlash(w, "success", "Host controls unlocked")
	h.redirectToRoom(w, r)
}

// Events streams re-rendered fragments of the room page. The viewer's
// permissions are checked once when the stream opens.
func (h *RoomHandler) Events(w http.ResponseWriter, r *http.Request) {
	roomID := roomIDFrom(r)
	viewer := middleware.GetViewer(r.Context())

	rm, err := h.rooms.GetRoom(r.Context(), roomID)
	if err != nil {
		http.Error(w, err.Error(), apierr.StatusFor(err))
		return
	}

	renderer := NewRenderer(h.relay, viewer.PlayerID, h.canManage(r.Context(), rm, viewer), h.logger)
	if err := sse.ServeSSE(w, r, renderer, roomID, renderer.Format, h.logger); err != nil {
		http.Error(w, err.Error(), apierr.StatusFor(err))
	}
}
