package components

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/teambalancer/internal/model"
)

func renderDoc(t *testing.T, c templ.Component) *goquery.Document {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	return doc
}

func testView() RoomView {
	return RoomView{
		Room: model.Room{ID: "room-1", Mode: model.RoomModeOpen},
		Players: []model.Player{
			{ID: "p1", Name: "Alice", Skill: 5},
			{ID: "p2", Name: "<script>alert(1)</script>", Skill: 2},
		},
		Self: "p1",
	}
}

func TestPlayerListMarksSelfAndEscapesNames(t *testing.T) {
	doc := renderDoc(t, PlayerList(testView()))

	section := doc.Find("section#" + PlayerListID)
	require.Equal(t, 1, section.Length())
	assert.Equal(t, PlayerListID, section.AttrOr("sse-swap", ""))
	assert.Equal(t, "2", doc.Find(".count").Text())

	assert.Equal(t, "Alice", doc.Find("li.player.self .name").Text())
	assert.Equal(t, 1, doc.Find("li.self").Length())
	assert.Equal(t, "<script>alert(1)</script>", doc.Find(`li[data-player-id="p2"] .name`).Text())
	assert.Equal(t, 0, doc.Find("script").Length(), "names are rendered as text")

	assert.Equal(t, 0, doc.Find("form").Length(), "no controls without manage rights")
}

func TestPlayerListControlsForManagers(t *testing.T) {
	v := testView()
	v.CanManage = true
	doc := renderDoc(t, PlayerList(v))

	forms := doc.Find(`li[data-player-id="p1"] form.skill-form`)
	require.Equal(t, 1, forms.Length())
	assert.Equal(t, "/rooms/room-1/players/p1/skill", forms.AttrOr("action", ""))
	assert.Equal(t, "5", forms.Find("option[selected]").AttrOr("value", ""))
	assert.Equal(t, model.MaxSkill-model.MinSkill+1, forms.Find("option").Length())

	assert.Equal(t, "/rooms/room-1/players/p2/remove", doc.Find(`li[data-player-id="p2"] form.kick-form`).AttrOr("action", ""))
}

func TestPlayerListEmpty(t *testing.T) {
	doc := renderDoc(t, PlayerList(RoomView{Room: model.Room{ID: "r"}}))
	assert.Contains(t, doc.Find(".empty").Text(), "Nobody has joined yet")
}

func TestTeams(t *testing.T) {
	v := testView()
	assert.Contains(t, renderDoc(t, Teams(v)).Find(".empty").Text(), "No teams yet")

	v.CanManage = true
	v.Partition = &model.Partition{
		TeamCount: 2,
		Teams: []model.Team{
			{Members: []model.Player{{ID: "p1", Name: "Alice", Skill: 5}}},
			{Members: []model.Player{{ID: "p2", Name: "Bob", Skill: 2}}},
		},
	}
	doc := renderDoc(t, Teams(v))

	assert.Equal(t, "2", doc.Find(".teams").AttrOr("data-team-count", ""))
	teams := doc.Find(".team")
	require.Equal(t, 2, teams.Length())
	assert.Equal(t, "5", teams.Eq(0).Find(".total").Text())
	assert.Equal(t, "2", teams.Eq(1).Find(".total").Text())
	assert.Equal(t, "2", doc.Find(`form.balance-form input[name="team_count"]`).AttrOr("value", ""))
	assert.Equal(t, "/rooms/room-1/balance", doc.Find("form.balance-form").AttrOr("action", ""))
}

func TestChatLog(t *testing.T) {
	v := testView()
	v.Messages = []model.ChatMessage{
		{ID: "m1", AuthorName: "Alice", Content: "a < b", CreatedAt: time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)},
	}
	doc := renderDoc(t, ChatLog(v))

	msg := doc.Find(`li.message[data-message-id="m1"]`)
	require.Equal(t, 1, msg.Length())
	assert.Equal(t, "Alice", msg.Find(".author").Text())
	assert.Equal(t, "a < b", msg.Find(".content").Text())
	assert.Equal(t, "09:30", msg.Find("time").Text())
	assert.Equal(t, "2024-01-01T09:30:00.000000Z", msg.Find("time").AttrOr("datetime", ""))
}

func TestChatForm(t *testing.T) {
	doc := renderDoc(t, ChatForm(testView()))
	assert.Equal(t, "/rooms/room-1/messages", doc.Find("form.chat-form").AttrOr("action", ""))
}
