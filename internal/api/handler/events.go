package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/teambalancer/internal/api/response"
	"github.com/mcoot/teambalancer/internal/model"
	"github.com/mcoot/teambalancer/internal/relay"
	"github.com/mcoot/teambalancer/internal/sse"
)

// EventsHandler streams a room's updates as server-sent events
type EventsHandler struct {
	relay  *relay.Service
	logger *slog.Logger
}

// NewEventsHandler creates a new EventsHandler
func NewEventsHandler(relay *relay.Service, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		relay:  relay,
		logger: logger.With(slog.String("component", "api-events")),
	}
}

// Stream handles GET /api/v1/rooms/{room_id}/events.
// Each update is sent with its type as the event name, its sequence number
// as the id and the JSON update as data.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["room_id"])

	if err := sse.ServeSSE(w, r, h.relay, roomID, FormatUpdate, h.logger); err != nil {
		WriteError(w, err)
	}
}

// FormatUpdate frames an update as a JSON SSE message
func FormatUpdate(_ context.Context, update model.Update) ([][]byte, error) {
	data, err := json.Marshal(response.UpdateFromModel(&update))
	if err != nil {
		return nil, err
	}
	id := strconv.FormatUint(update.Seq, 10)
	return [][]byte{sse.FormatMessage(string(update.Type), id, string(data))}, nil
}
