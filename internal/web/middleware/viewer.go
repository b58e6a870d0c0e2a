package middleware

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/teambalancer/internal/model"
)

type contextKey string

const viewerContextKey contextKey = "viewer"

// cookieMaxAge keeps a browser attached to its player for a month
const cookieMaxAge = 30 * 24 * 60 * 60

// Viewer is who a browser is within one room
type Viewer struct {
	PlayerID model.PlayerID // Empty until the browser joins
	HostKey  string
}

// PlayerCookieName is the cookie holding the browser's player id in a room
func PlayerCookieName(roomID model.RoomID) string {
	return "player_" + string(roomID)
}

// HostCookieName is the cookie holding the host key of a room
func HostCookieName(roomID model.RoomID) string {
	return "host_" + string(roomID)
}

// SetPlayer remembers the browser's player in a room
func SetPlayer(w http.ResponseWriter, roomID model.RoomID, playerID model.PlayerID) {
	setRoomCookie(w, roomID, PlayerCookieName(roomID), string(playerID), cookieMaxAge)
}

// ClearPlayer forgets the browser's player in a room
func ClearPlayer(w http.ResponseWriter, roomID model.RoomID) {
	setRoomCookie(w, roomID, PlayerCookieName(roomID), "", -1)
}

// SetHostKey remembers the host key of a room
func SetHostKey(w http.ResponseWriter, roomID model.RoomID, key string) {
	setRoomCookie(w, roomID, HostCookieName(roomID), key, cookieMaxAge)
}

func setRoomCookie(w http.ResponseWriter, roomID model.RoomID, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/rooms/" + string(roomID),
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// RoomViewer returns middleware that reads the browser's identity for the
// room named in the path and adds it to the context
func RoomViewer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			roomID := model.RoomID(mux.Vars(r)["room_id"])

			var viewer Viewer
			if c, err := r.Cookie(PlayerCookieName(roomID)); err == nil {
				viewer.PlayerID = model.PlayerID(c.Value)
			}
			if c, err := r.Cookie(HostCookieName(roomID)); err == nil {
				viewer.HostKey = c.Value
			}

			ctx := context.WithValue(r.Context(), viewerContextKey, viewer)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetViewer returns the viewer from the request context
func GetViewer(ctx context.Context) Viewer {
	viewer, _ := ctx.Value(viewerContextKey).(Viewer)
	return viewer
}
