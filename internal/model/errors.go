package model

import "errors"

// Common errors used across the application
var (
	// Validation errors
	ErrInvalidName         = errors.New("name must not be empty")
	ErrInvalidContent      = errors.New("message content must not be empty")
	ErrInvalidTeamCount    = errors.New("team count must be at least 2")
	ErrInsufficientPlayers = errors.New("not enough players for the requested team count")
	ErrInvalidPartition    = errors.New("partition is malformed")

	// Lookup errors
	ErrPlayerNotFound    = errors.New("player not found")
	ErrRoomNotFound      = errors.New("room not found")
	ErrPartitionNotFound = errors.New("no teams have been balanced in this room")

	// Room errors
	ErrRoomExists      = errors.New("room already exists")
	ErrNotHost         = errors.New("host key required")
	ErrInvalidRoomID   = errors.New("room id must be 1-64 letters, digits, '-' or '_'")
	ErrInvalidRoomMode = errors.New("room mode must be 'open' or 'host'")
)
