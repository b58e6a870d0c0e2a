package web_test

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/teambalancer/internal/boundary"
	"github.com/mcoot/teambalancer/internal/model"
	"github.com/mcoot/teambalancer/internal/sse"
	"github.com/mcoot/teambalancer/internal/testutil"
	"github.com/mcoot/teambalancer/internal/web/handler"
	"github.com/mcoot/teambalancer/internal/web/templates/components"
)

// TestSSE_EndpointHeaders verifies the SSE endpoint returns correct headers
func TestSSE_EndpointHeaders(t *testing.T) {
	ts := newWebTestServer(t)
	roomID := ts.createRoom("", model.RoomModeOpen)

	// Make SSE request
	req := httptest.NewRequest(http.MethodGet, "/rooms/"+string(roomID)+"/events", nil)
	ts.cookies.addTo(req)

	// Use a context with timeout since SSE is a long-running connection
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	// Verify SSE headers
	assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rr.Header().Get("Cache-Control"))
	assert.Equal(t, "keep-alive", rr.Header().Get("Connection"))
	assert.Equal(t, "no", rr.Header().Get("X-Accel-Buffering"))

	body := rr.Body.String()
	assert.Contains(t, body, "event: connected", "Expected connected event in SSE response")
	assert.Contains(t, body, `data: {"status":"connected"}`, "Expected connected event data")
}

// TestSSE_UnknownRoom verifies the stream is not opened for a room that was never created
func TestSSE_UnknownRoom(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/rooms/nobody-here/events")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.NotEqual(t, "text/event-stream", rr.Header().Get("Content-Type"))
}

// readEvent reads SSE lines until a message with the given event name arrives
func readEvent(t *testing.T, reader *bufio.Reader, event string) sse.Message {
	t.Helper()
	var parser sse.Parser
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if msg, ok := parser.Feed(strings.TrimSuffix(line, "\n")); ok && msg.Event == event {
			return msg
		}
	}
}

// TestSSE_FragmentsFollowUpdates verifies accepted changes arrive as re-rendered fragments
func TestSSE_FragmentsFollowUpdates(t *testing.T) {
	ts := newWebTestServer(t)
	roomID := ts.createRoom("", model.RoomModeOpen)

	server := httptest.NewServer(ts.handler)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/rooms/"+string(roomID)+"/events", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent(t, reader, "connected")

	// A join re-renders the player list
	player, err := ts.app.Relay.SubmitPlayerJoin(ctx, roomID, "Alice")
	require.NoError(t, err)

	msg := readEvent(t, reader, components.PlayerListID)
	assert.Equal(t, "1", msg.ID)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(msg.Data))
	require.NoError(t, err)
	assert.Equal(t, components.PlayerListID, doc.Find("section").AttrOr("id", ""))
	assert.Equal(t, components.PlayerListID, doc.Find("section").AttrOr("sse-swap", ""))
	assert.Equal(t, string(player.ID), doc.Find("li.player").AttrOr("data-player-id", ""))
	assert.Equal(t, "Alice", doc.Find("li.player .name").Text())

	// A chat message re-renders the chat log
	_, err = ts.app.Relay.SubmitMessage(ctx, roomID, "Alice", "hello")
	require.NoError(t, err)

	msg = readEvent(t, reader, components.ChatLogID)
	assert.Equal(t, "2", msg.ID)
	doc, err = goquery.NewDocumentFromReader(strings.NewReader(msg.Data))
	require.NoError(t, err)
	assert.Equal(t, "hello", doc.Find("li.message .content").Text())
}

// TestRenderer_FormatsByUpdateType checks which fragment each update produces
func TestRenderer_FormatsByUpdateType(t *testing.T) {
	ts := newWebTestServer(t)
	roomID := ts.createRoom("", model.RoomModeOpen)
	ctx := t.Context()

	for _, name := range []string{"Ann", "Ben"} {
		_, err := ts.app.Relay.SubmitPlayerJoin(ctx, roomID, name)
		require.NoError(t, err)
	}
	partition, err := ts.app.Relay.BalanceRoom(ctx, roomID, 2)
	require.NoError(t, err)

	renderer := handler.NewRenderer(ts.app.Relay, "", false, testutil.NopLogger())
	sub, err := renderer.Subscribe(ctx, roomID, func(model.Update) {})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	tests := []struct {
		name   string
		update model.Update
		event  string
	}{
		{"player changed", model.Update{Seq: 4, Type: model.UpdatePlayerChanged, RoomID: roomID}, components.PlayerListID},
		{"player removed", model.Update{Seq: 5, Type: model.UpdatePlayerRemoved, RoomID: roomID}, components.PlayerListID},
		{"partition replaced", model.Update{Seq: 6, Type: model.UpdatePartitionReplaced, RoomID: roomID, Partition: partition}, components.TeamsID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messages, err := renderer.Format(ctx, tt.update)
			require.NoError(t, err)
			require.Len(t, messages, 1)
			assert.True(t, strings.HasPrefix(string(messages[0]), "event: "+tt.event+"\n"),
				"got %q", string(messages[0]))
		})
	}

	t.Run("teams fragment shows the partition", func(t *testing.T) {
		messages, err := renderer.Format(ctx, model.Update{Seq: 6, Type: model.UpdatePartitionReplaced, RoomID: roomID})
		require.NoError(t, err)

		var parser sse.Parser
		var msg sse.Message
		for _, line := range strings.Split(string(messages[0]), "\n") {
			if m, ok := parser.Feed(line); ok {
				msg = m
			}
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(msg.Data))
		require.NoError(t, err)
		assert.Equal(t, 2, doc.Find(".team").Length())
	})

	t.Run("unknown type renders nothing", func(t *testing.T) {
		messages, err := renderer.Format(ctx, model.Update{Type: "mystery", RoomID: roomID})
		require.NoError(t, err)
		assert.Empty(t, messages)
	})
}

// countingBoundary counts snapshot loads and can lose deliveries
type countingBoundary struct {
	boundary.Boundary

	mu        sync.Mutex
	snapshots int
	drop      int // Deliveries still to lose
}

func (b *countingBoundary) Snapshot(ctx context.Context, roomID model.RoomID) (*model.RoomSnapshot, error) {
	b.mu.Lock()
	b.snapshots++
	b.mu.Unlock()
	return b.Boundary.Snapshot(ctx, roomID)
}

func (b *countingBoundary) Subscribe(ctx context.Context, roomID model.RoomID, handler boundary.UpdateHandler) (boundary.Subscription, error) {
	return b.Boundary.Subscribe(ctx, roomID, func(u model.Update) {
		b.mu.Lock()
		lose := b.drop > 0
		if lose {
			b.drop--
		}
		b.mu.Unlock()
		if !lose {
			handler(u)
		}
	})
}

func (b *countingBoundary) loseNext(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.drop += n
}

func (b *countingBoundary) snapshotCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshots
}

// streamRenderer subscribes a renderer the way the SSE endpoint does and
// returns the framed messages it produces
func streamRenderer(t *testing.T, renderer *handler.Renderer, roomID model.RoomID) <-chan sse.Message {
	t.Helper()
	messages := make(chan sse.Message, 64)
	sub, err := renderer.Subscribe(t.Context(), roomID, func(u model.Update) {
		framed, err := renderer.Format(t.Context(), u)
		if err != nil {
			t.Errorf("format %s: %v", u.Type, err)
			return
		}
		for _, f := range framed {
			var parser sse.Parser
			for _, line := range strings.Split(string(f), "\n") {
				if msg, ok := parser.Feed(line); ok {
					messages <- msg
				}
			}
		}
	})
	require.NoError(t, err)
	t.Cleanup(sub.Unsubscribe)
	return messages
}

func nextMessage(t *testing.T, messages <-chan sse.Message) sse.Message {
	t.Helper()
	select {
	case msg := <-messages:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a fragment")
		return sse.Message{}
	}
}

// TestRenderer_LoadsRoomOnce verifies fragments come from the renderer's own
// copy of the room and the viewer's permissions are not rechecked per update
func TestRenderer_LoadsRoomOnce(t *testing.T) {
	ts := newWebTestServer(t)
	roomID := ts.createRoom("", model.RoomModeHost)
	ctx := t.Context()

	counting := &countingBoundary{Boundary: ts.app.Relay}
	renderer := handler.NewRenderer(counting, "", true, testutil.NopLogger())
	messages := streamRenderer(t, renderer, roomID)
	require.Equal(t, 1, counting.snapshotCount())

	for _, name := range []string{"Ann", "Ben", "Cat"} {
		_, err := ts.app.Relay.SubmitPlayerJoin(ctx, roomID, name)
		require.NoError(t, err)
	}
	_, err := ts.app.Relay.SubmitMessage(ctx, roomID, "Ann", "hi")
	require.NoError(t, err)

	var last sse.Message
	for _, want := range []string{"1", "2", "3"} {
		last = nextMessage(t, messages)
		assert.Equal(t, components.PlayerListID, last.Event)
		assert.Equal(t, want, last.ID)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(last.Data))
	require.NoError(t, err)
	assert.Equal(t, 3, doc.Find("li.player").Length())
	assert.Equal(t, 3, doc.Find(".kick-form").Length(), "Permissions fixed at open still apply")

	msg := nextMessage(t, messages)
	assert.Equal(t, components.ChatLogID, msg.Event)
	assert.Equal(t, 1, counting.snapshotCount(), "Updates must not reload the room")
}

// TestRenderer_ResyncRerendersEverything verifies a lost update reloads the
// room once and replaces every fragment
func TestRenderer_ResyncRerendersEverything(t *testing.T) {
	ts := newWebTestServer(t)
	roomID := ts.createRoom("", model.RoomModeOpen)
	ctx := t.Context()

	counting := &countingBoundary{Boundary: ts.app.Relay}
	renderer := handler.NewRenderer(counting, "", false, testutil.NopLogger())
	messages := streamRenderer(t, renderer, roomID)

	counting.loseNext(1)
	_, err := ts.app.Relay.SubmitPlayerJoin(ctx, roomID, "Ann")
	require.NoError(t, err)
	_, err = ts.app.Relay.SubmitPlayerJoin(ctx, roomID, "Ben")
	require.NoError(t, err)

	var events []string
	for range 3 {
		msg := nextMessage(t, messages)
		assert.Equal(t, "2", msg.ID)
		events = append(events, msg.Event)
		if msg.Event == components.PlayerListID {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(msg.Data))
			require.NoError(t, err)
			assert.Equal(t, 2, doc.Find("li.player").Length())
		}
	}
	assert.ElementsMatch(t, []string{components.PlayerListID, components.TeamsID, components.ChatLogID}, events)
	assert.Equal(t, 2, counting.snapshotCount())
}
