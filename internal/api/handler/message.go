package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcoot/teambalancer/internal/api/request"
	"github.com/mcoot/teambalancer/internal/api/response"
	"github.com/mcoot/teambalancer/internal/model"
	"github.com/mcoot/teambalancer/internal/relay"
	"github.com/mcoot/teambalancer/internal/services/chat"
)

// MessageHandler handles chat endpoints
type MessageHandler struct {
	chat  *chat.Service
	relay *relay.Service
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(chat *chat.Service, relay *relay.Service) *MessageHandler {
	return &MessageHandler{
		chat:  chat,
		relay: relay,
	}
}

// List handles GET /api/v1/rooms/{room_id}/messages?since=<RFC3339Nano>
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["room_id"])

	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			WriteError(w, NewInvalidRequestError("since must be an RFC 3339 timestamp"))
			return
		}
		since = parsed
	}

	messages, err := h.chat.List(r.Context(), roomID, since)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MessageListResponse{
		Messages: response.MessagesFromModel(messages),
	})
}

// Send handles POST /api/v1/rooms/{room_id}/messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["room_id"])

	var req request.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("Invalid JSON body"))
		return
	}

	msg, err := h.relay.SubmitMessage(r.Context(), roomID, req.Author, req.Content)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.MessageFromModel(msg))
}
