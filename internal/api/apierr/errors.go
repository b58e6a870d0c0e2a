package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/teambalancer/internal/boundary"
	"github.com/mcoot/teambalancer/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeInvalidName         = "INVALID_NAME"
	CodeInvalidContent      = "INVALID_CONTENT"
	CodeInvalidTeamCount    = "INVALID_TEAM_COUNT"
	CodeInsufficientPlayers = "INSUFFICIENT_PLAYERS"
	CodeInvalidPartition    = "INVALID_PARTITION"
	CodeInvalidRoomID       = "INVALID_ROOM_ID"
	CodeInvalidRoomMode     = "INVALID_ROOM_MODE"
	CodeRoomNotFound        = "ROOM_NOT_FOUND"
	CodePlayerNotFound      = "PLAYER_NOT_FOUND"
	CodePartitionNotFound   = "PARTITION_NOT_FOUND"
	CodeRoomExists          = "ROOM_EXISTS"
	CodeNotHost             = "NOT_HOST"
	CodeUnavailable         = "UNAVAILABLE"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// StatusFor returns the HTTP status an error would be written with
func StatusFor(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var te *boundary.TransportError
	if errors.As(err, &te) {
		return &httpError{http.StatusServiceUnavailable, APIError{CodeUnavailable, "Room state is temporarily unavailable"}}
	}

	switch {
	case errors.Is(err, model.ErrInvalidName):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidName, "Name must not be empty"}}
	case errors.Is(err, model.ErrInvalidContent):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidContent, "Message must not be empty"}}
	case errors.Is(err, model.ErrInvalidTeamCount):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidTeamCount, "Team count must be at least 2"}}
	case errors.Is(err, model.ErrInsufficientPlayers):
		return &httpError{http.StatusConflict, APIError{CodeInsufficientPlayers, "Not enough players for that many teams"}}
	case errors.Is(err, model.ErrInvalidPartition):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidPartition, "Teams are malformed"}}
	case errors.Is(err, model.ErrInvalidRoomID):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRoomID, "Room id must be 1-64 letters, digits, '-' or '_'"}}
	case errors.Is(err, model.ErrInvalidRoomMode):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRoomMode, "Room mode must be 'open' or 'host'"}}
	case errors.Is(err, model.ErrRoomNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeRoomNotFound, "Room not found"}}
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrPartitionNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePartitionNotFound, "No teams have been balanced yet"}}
	case errors.Is(err, model.ErrRoomExists):
		return &httpError{http.StatusConflict, APIError{CodeRoomExists, "Room already exists"}}
	case errors.Is(err, model.ErrNotHost):
		return &httpError{http.StatusForbidden, APIError{CodeNotHost, "Only the host can perform this action"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
