package middleware

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/teambalancer/internal/api/apierr"
	"github.com/mcoot/teambalancer/internal/model"
)

type contextKey string

const hostKeyContextKey contextKey = "host_key"

// HostKeyHeader carries the host key on API requests
const HostKeyHeader = "X-Host-Key"

// HostKeyCookie carries the host key for browsers
const HostKeyCookie = "host_key"

// HostAuthorizer checks a host key against a room
type HostAuthorizer interface {
	AuthorizeHost(ctx context.Context, id model.RoomID, hostKey string) error
}

// HostKey extracts the host key if present but doesn't require it
func HostKey() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key := extractHostKey(r); key != "" {
				r = r.WithContext(context.WithValue(r.Context(), hostKeyContextKey, key))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireHost rejects requests to host rooms that lack a valid host key.
// Open rooms pass through.
func RequireHost(rooms HostAuthorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			roomID := model.RoomID(mux.Vars(r)["room_id"])
			if err := rooms.AuthorizeHost(r.Context(), roomID, extractHostKey(r)); err != nil {
				apierr.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractHostKey reads the host key from the header, falling back to the cookie
func extractHostKey(r *http.Request) string {
	if key := r.Header.Get(HostKeyHeader); key != "" {
		return key
	}

	cookie, err := r.Cookie(HostKeyCookie)
	if err == nil {
		return cookie.Value
	}

	return ""
}

// GetHostKey returns the host key from the request context
func GetHostKey(ctx context.Context) string {
	key, _ := ctx.Value(hostKeyContextKey).(string)
	return key
}
