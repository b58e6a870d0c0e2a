package response

import (
	"encoding/json"
	"net/http"
)

// JSON writes data with the status. Room state changes live, so responses
// are never cached.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Created writes a 201 pointing at the new room or player
func Created(w http.ResponseWriter, location string, data any) {
	w.Header().Set("Location", location)
	JSON(w, http.StatusCreated, data)
}

// NoContent writes a 204, used when a player leaves
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
