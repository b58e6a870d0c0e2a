package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/teambalancer/internal/relay"
	"github.com/mcoot/teambalancer/internal/services/room"
	"github.com/mcoot/teambalancer/internal/web/handler"
	"github.com/mcoot/teambalancer/internal/web/middleware"
)

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger         *slog.Logger
	RoomController *room.Controller
	Relay          *relay.Service
	StaticDir      string // Path to static files directory
}

// NewRouter creates a new web router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create middleware
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)
	flashMiddleware := middleware.Flash()
	viewerMiddleware := middleware.RoomViewer()

	// Apply global middleware to all routes
	r.Use(loggingMiddleware)
	r.Use(recoveryMiddleware)

	// Create handlers
	homeHandler := handler.NewHomeHandler(cfg.RoomController)
	roomHandler := handler.NewRoomHandler(cfg.RoomController, cfg.Relay, cfg.Logger)

	// Static files
	if cfg.StaticDir != "" {
		staticHandler := http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir)))
		r.PathPrefix("/static/").Handler(staticHandler)
	}

	// Home routes
	public := r.NewRoute().Subrouter()
	public.Use(flashMiddleware)
	public.HandleFunc("/", homeHandler.Home).Methods(http.MethodGet)
	public.HandleFunc("/rooms", homeHandler.Create).Methods(http.MethodPost)
	public.HandleFunc("/rooms/join", homeHandler.JoinByForm).Methods(http.MethodPost)

	// Room routes, with the viewer's cookies for that room
	rooms := r.PathPrefix("/rooms/{room_id}").Subrouter()
	rooms.Use(flashMiddleware)
	rooms.Use(viewerMiddleware)
	rooms.HandleFunc("", roomHandler.View).Methods(http.MethodGet)
	rooms.HandleFunc("/events", roomHandler.Events).Methods(http.MethodGet)
	rooms.HandleFunc("/players", roomHandler.Join).Methods(http.MethodPost)
	rooms.HandleFunc("/players/{player_id}/rename", roomHandler.Rename).Methods(http.MethodPost)
	rooms.HandleFunc("/players/{player_id}/skill", roomHandler.SetSkill).Methods(http.MethodPost)
	rooms.HandleFunc("/players/{player_id}/remove", roomHandler.Remove).Methods(http.MethodPost)
	rooms.HandleFunc("/balance", roomHandler.Balance).Methods(http.MethodPost)
	rooms.HandleFunc("/messages", roomHandler.SendMessage).Methods(http.MethodPost)
	rooms.HandleFunc("/host", roomHandler.UnlockHost).Methods(http.MethodPost)

	return r
}
