package web_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/teambalancer/internal/model"
)

func TestFlashMessageShownOnce(t *testing.T) {
	ts := newWebTestServer(t)
	roomID := ts.createRoom("", model.RoomModeOpen)

	rr := ts.post("/rooms/"+string(roomID)+"/players", url.Values{"name": {"   "}})
	require.Equal(t, http.StatusSeeOther, rr.Code)

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, ".flash-error", "Could not join")

	// Consumed by the first page load
	doc = ts.viewRoom(roomID)
	assertNotContainsElement(t, doc, ".flash")
}

func TestInvalidRoomIDOnJoinForm(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.post("/rooms/join", url.Values{"room_id": {"no spaces allowed"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, ".flash-error", "Room id must be")
}

func TestInvalidRoomIDShowsErrorPage(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/rooms/bad!id")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	doc := parseHTML(rr.Body)
	assert.Equal(t, "400", doc.Find("section.error").AttrOr("data-status", ""))
	assertContainsText(t, doc, "section.error", "room id isn't valid")
	assertContainsElement(t, doc, `a[href="/"]`)
}

func TestInvalidRoomModeFlashes(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.post("/rooms", url.Values{"mode": {"secret"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, ".flash-error", "Could not create room")
}

func TestInvalidSkillHandledGracefully(t *testing.T) {
	ts := newWebTestServer(t)
	roomID := ts.createRoom("", model.RoomModeOpen)
	playerID := ts.joinRoom(roomID, "Alice")

	rr := ts.post("/rooms/"+string(roomID)+"/players/"+string(playerID)+"/skill", url.Values{"skill": {"lots"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, ".flash-error", "Skill must be a number")
	assertContainsText(t, doc, "li.player.self .skill", "1")
}

func TestSkillIsClamped(t *testing.T) {
	ts := newWebTestServer(t)
	roomID := ts.createRoom("", model.RoomModeOpen)
	playerID := ts.joinRoom(roomID, "Alice")

	ts.setSkill(roomID, playerID, "99")

	p, err := ts.app.Registry.Get(t.Context(), roomID, playerID)
	require.NoError(t, err)
	assert.Equal(t, model.MaxSkill, p.Skill)
}

func TestUnknownPlayerActionsFlash(t *testing.T) {
	ts := newWebTestServer(t)
	roomID := ts.createRoom("", model.RoomModeOpen)

	rr := ts.post("/rooms/"+string(roomID)+"/players/ghost/rename", url.Values{"name": {"Boo"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)

	doc := parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, ".flash-error", "player not found")
}

func TestEmptyChatMessageRejected(t *testing.T) {
	ts := newWebTestServer(t)
	roomID := ts.createRoom("", model.RoomModeOpen)

	rr := ts.post("/rooms/"+string(roomID)+"/messages", url.Values{"content": {"  "}})
	doc := parseHTML(ts.followRedirect(rr).Body)
	assertContainsText(t, doc, ".flash-error", "Could not send message")
	assertNotContainsElement(t, doc, "#chat-log li.message")
}

func TestUnknownRouteNotFound(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/nowhere")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
