// Package pages renders full web pages.
package pages

import (
	"github.com/a-h/templ"

	"github.com/mcoot/teambalancer/internal/model"
	"github.com/mcoot/teambalancer/internal/web/templates/components"
	"github.com/mcoot/teambalancer/internal/web/templates/layout"
)

// HomeData is the data for the home page
type HomeData struct {
	layout.PageData
}

// RoomData is the data for a room page
type RoomData struct {
	layout.PageData
	View      components.RoomView
	SelfName  string
	InviteURL string
	NeedsHost bool // Host room and the viewer has no valid key
}

// ErrorData is the data for an error page
type ErrorData struct {
	layout.PageData
	Status  int
	Message string
}

func roomPath(id model.RoomID, suffix string) string {
	return "/rooms/" + string(id) + suffix
}

func roomURL(id model.RoomID, suffix string) templ.SafeURL {
	return templ.URL(roomPath(id, suffix))
}
