package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/teambalancer/internal/api/handler"
	"github.com/mcoot/teambalancer/internal/api/middleware"
	"github.com/mcoot/teambalancer/internal/relay"
	"github.com/mcoot/teambalancer/internal/services/chat"
	"github.com/mcoot/teambalancer/internal/services/registry"
	"github.com/mcoot/teambalancer/internal/services/room"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	RoomController *room.Controller
	Registry       *registry.Service
	Chat           *chat.Service
	Relay          *relay.Service
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	Mount(r, cfg)
	return r
}

// Mount registers the API routes under /api/v1 on an existing router
func Mount(r *mux.Router, cfg RouterConfig) {
	// Create handlers
	roomHandler := handler.NewRoomHandler(cfg.RoomController, cfg.Relay)
	playerHandler := handler.NewPlayerHandler(cfg.RoomController, cfg.Registry, cfg.Relay)
	teamHandler := handler.NewTeamHandler(cfg.RoomController, cfg.Relay)
	messageHandler := handler.NewMessageHandler(cfg.Chat, cfg.Relay)
	eventsHandler := handler.NewEventsHandler(cfg.Relay, cfg.Logger)

	// Create middleware
	hostKeyMiddleware := middleware.HostKey()
	requireHostMiddleware := middleware.RequireHost(cfg.RoomController)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(loggingMiddleware)
	api.Use(recoveryMiddleware)
	api.Use(hostKeyMiddleware)

	// Health check endpoint
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Room routes
	api.HandleFunc("/rooms", roomHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{room_id}", roomHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{room_id}", roomHandler.Ensure).Methods(http.MethodPut)
	api.HandleFunc("/rooms/{room_id}/events", eventsHandler.Stream).Methods(http.MethodGet)

	// Player registry routes
	api.HandleFunc("/rooms/{room_id}/players", playerHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{room_id}/players", playerHandler.Join).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{room_id}/players/{player_id}", playerHandler.Update).Methods(http.MethodPatch)

	// Chat routes
	api.HandleFunc("/rooms/{room_id}/messages", messageHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{room_id}/messages", messageHandler.Send).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{room_id}/teams", teamHandler.Get).Methods(http.MethodGet)

	// Host-only routes in host rooms
	host := api.PathPrefix("/rooms/{room_id}").Subrouter()
	host.Use(requireHostMiddleware)
	host.HandleFunc("/players/{player_id}", playerHandler.Remove).Methods(http.MethodDelete)
	host.HandleFunc("/balance", teamHandler.Balance).Methods(http.MethodPost)
	host.HandleFunc("/teams", teamHandler.Replace).Methods(http.MethodPut)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
