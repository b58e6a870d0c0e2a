package api_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/teambalancer/internal/api"
	"github.com/mcoot/teambalancer/internal/api/apierr"
	"github.com/mcoot/teambalancer/internal/api/middleware"
	"github.com/mcoot/teambalancer/internal/api/response"
	"github.com/mcoot/teambalancer/internal/factory"
	"github.com/mcoot/teambalancer/internal/sse"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	// API tests are integration tests - use production factory with real random/clock
	app, err := factory.New(factory.Config{Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		RoomController: app.RoomController,
		Registry:       app.Registry,
		Chat:           app.Chat,
		Relay:          app.Relay,
	})

	return &testServer{
		handler: router,
		app:     app,
	}
}

func (ts *testServer) request(method, path string, body any, hostKey string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if hostKey != "" {
		req.Header.Set(middleware.HostKeyHeader, hostKey)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func assertErrorCode(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, rr.Code)
	errResp := decode[apierr.ErrorResponse](t, rr)
	assert.Equal(t, code, errResp.Error.Code)
}

func createRoom(t *testing.T, ts *testServer, mode string) response.CreateRoomResponse {
	t.Helper()
	rr := ts.request(http.MethodPost, "/api/v1/rooms", map[string]string{"mode": mode}, "")
	require.Equal(t, http.StatusCreated, rr.Code)
	return decode[response.CreateRoomResponse](t, rr)
}

func joinPlayer(t *testing.T, ts *testServer, roomID, name string) response.Player {
	t.Helper()
	rr := ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/players", map[string]string{"name": name}, "")
	require.Equal(t, http.StatusCreated, rr.Code)
	return decode[response.Player](t, rr)
}

func setSkill(t *testing.T, ts *testServer, roomID, playerID string, skill int, hostKey string) *httptest.ResponseRecorder {
	t.Helper()
	return ts.request(http.MethodPatch, "/api/v1/rooms/"+roomID+"/players/"+playerID, map[string]int{"skill": skill}, hostKey)
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestCreateRoom(t *testing.T) {
	ts := newTestServer(t)

	resp := createRoom(t, ts, "")
	assert.Len(t, resp.Room.ID, 8)
	assert.Equal(t, "open", resp.Room.Mode)
	assert.False(t, resp.Room.HostOnly)
	assert.Equal(t, "/rooms/"+resp.Room.ID, resp.InvitePath)
	assert.Empty(t, resp.HostKey)
}

func TestCreateRoomWithEmptyBody(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms", nil)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestCreateHostRoomReturnsKey(t *testing.T) {
	ts := newTestServer(t)

	resp := createRoom(t, ts, "host")
	assert.True(t, resp.Room.HostOnly)
	assert.NotEmpty(t, resp.HostKey)
}

func TestCreateRoomWithChosenID(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/rooms", map[string]string{"room_id": "friday-5s"}, "")
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "friday-5s", decode[response.CreateRoomResponse](t, rr).Room.ID)
	assert.Equal(t, "/api/v1/rooms/friday-5s", rr.Header().Get("Location"))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr = ts.request(http.MethodPost, "/api/v1/rooms", map[string]string{"room_id": "friday-5s"}, "")
	assertErrorCode(t, rr, http.StatusConflict, apierr.CodeRoomExists)
}

func TestCreateRoomValidation(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/rooms", map[string]string{"room_id": "no spaces"}, "")
	assertErrorCode(t, rr, http.StatusBadRequest, apierr.CodeInvalidRoomID)

	rr = ts.request(http.MethodPost, "/api/v1/rooms", map[string]string{"mode": "secret"}, "")
	assertErrorCode(t, rr, http.StatusBadRequest, apierr.CodeInvalidRoomMode)
}

func TestEnsureRoom(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPut, "/api/v1/rooms/from-invite", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "open", decode[response.Room](t, rr).Mode)

	// Ensuring again returns the same room
	rr = ts.request(http.MethodPut, "/api/v1/rooms/from-invite", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestGetRoomNotFound(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/rooms/missing", nil, "")
	assertErrorCode(t, rr, http.StatusNotFound, apierr.CodeRoomNotFound)
}

func TestPlayerLifecycle(t *testing.T) {
	ts := newTestServer(t)
	roomID := createRoom(t, ts, "open").Room.ID

	alice := joinPlayer(t, ts, roomID, "  Alice  ")
	assert.Equal(t, "Alice", alice.Name)
	assert.Equal(t, 1, alice.Skill)
	bob := joinPlayer(t, ts, roomID, "Bob")

	// Rename
	rr := ts.request(http.MethodPatch, "/api/v1/rooms/"+roomID+"/players/"+alice.ID, map[string]string{"name": "Alicia"}, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Alicia", decode[response.Player](t, rr).Name)

	// Skill is clamped
	rr = setSkill(t, ts, roomID, bob.ID, 9, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 5, decode[response.Player](t, rr).Skill)

	// List keeps join order
	rr = ts.request(http.MethodGet, "/api/v1/rooms/"+roomID+"/players", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[response.PlayerListResponse](t, rr)
	require.Len(t, list.Players, 2)
	assert.Equal(t, "Alicia", list.Players[0].Name)
	assert.Equal(t, 5, list.Players[1].Skill)

	// Remove, then remove again
	rr = ts.request(http.MethodDelete, "/api/v1/rooms/"+roomID+"/players/"+bob.ID, nil, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = ts.request(http.MethodDelete, "/api/v1/rooms/"+roomID+"/players/"+bob.ID, nil, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/rooms/"+roomID+"/players", nil, "")
	assert.Len(t, decode[response.PlayerListResponse](t, rr).Players, 1)
}

func TestPlayerValidation(t *testing.T) {
	ts := newTestServer(t)
	roomID := createRoom(t, ts, "open").Room.ID

	rr := ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/players", map[string]string{"name": "   "}, "")
	assertErrorCode(t, rr, http.StatusBadRequest, apierr.CodeInvalidName)

	rr = ts.request(http.MethodPatch, "/api/v1/rooms/"+roomID+"/players/nobody", map[string]string{"name": "X"}, "")
	assertErrorCode(t, rr, http.StatusNotFound, apierr.CodePlayerNotFound)

	rr = ts.request(http.MethodPost, "/api/v1/rooms/missing/players", map[string]string{"name": "X"}, "")
	assertErrorCode(t, rr, http.StatusNotFound, apierr.CodeRoomNotFound)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rooms/"+roomID+"/players", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assertErrorCode(t, rec, http.StatusBadRequest, apierr.CodeInvalidRequest)
}

func TestHostRoomGuardsPrivilegedActions(t *testing.T) {
	ts := newTestServer(t)
	created := createRoom(t, ts, "host")
	roomID := created.Room.ID

	alice := joinPlayer(t, ts, roomID, "Alice")
	joinPlayer(t, ts, roomID, "Bob")

	// Anyone may rename
	rr := ts.request(http.MethodPatch, "/api/v1/rooms/"+roomID+"/players/"+alice.ID, map[string]string{"name": "Al"}, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	// Skill edits, kicks and balancing need the key
	rr = setSkill(t, ts, roomID, alice.ID, 3, "")
	assertErrorCode(t, rr, http.StatusForbidden, apierr.CodeNotHost)
	rr = setSkill(t, ts, roomID, alice.ID, 3, "wrong")
	assertErrorCode(t, rr, http.StatusForbidden, apierr.CodeNotHost)
	rr = ts.request(http.MethodDelete, "/api/v1/rooms/"+roomID+"/players/"+alice.ID, nil, "")
	assertErrorCode(t, rr, http.StatusForbidden, apierr.CodeNotHost)
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/balance", map[string]int{"team_count": 2}, "")
	assertErrorCode(t, rr, http.StatusForbidden, apierr.CodeNotHost)

	// With the key they succeed
	rr = setSkill(t, ts, roomID, alice.ID, 3, created.HostKey)
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/balance", map[string]int{"team_count": 2}, created.HostKey)
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = ts.request(http.MethodDelete, "/api/v1/rooms/"+roomID+"/players/"+alice.ID, nil, created.HostKey)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestHostKeyCookie(t *testing.T) {
	ts := newTestServer(t)
	created := createRoom(t, ts, "host")
	roomID := created.Room.ID
	alice := joinPlayer(t, ts, roomID, "Alice")

	body, _ := json.Marshal(map[string]int{"skill": 4})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/rooms/"+roomID+"/players/"+alice.ID, bytes.NewBuffer(body))
	req.AddCookie(&http.Cookie{Name: middleware.HostKeyCookie, Value: created.HostKey})
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestBalanceTeams(t *testing.T) {
	ts := newTestServer(t)
	roomID := createRoom(t, ts, "open").Room.ID

	skills := map[string]int{"A": 5, "B": 4, "C": 3, "D": 2, "E": 1}
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		p := joinPlayer(t, ts, roomID, name)
		require.Equal(t, http.StatusOK, setSkill(t, ts, roomID, p.ID, skills[name], "").Code)
	}

	rr := ts.request(http.MethodGet, "/api/v1/rooms/"+roomID+"/teams", nil, "")
	assertErrorCode(t, rr, http.StatusNotFound, apierr.CodePartitionNotFound)

	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/balance", map[string]int{"team_count": 2}, "")
	require.Equal(t, http.StatusOK, rr.Code)
	partition := decode[response.Partition](t, rr)
	require.Len(t, partition.Teams, 2)
	assert.Equal(t, 9, partition.Teams[0].TotalSkill)
	assert.Equal(t, 6, partition.Teams[1].TotalSkill)
	assert.Len(t, partition.Teams[0].Members, 3)

	rr = ts.request(http.MethodGet, "/api/v1/rooms/"+roomID+"/teams", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, partition.Teams, decode[response.Partition](t, rr).Teams)
}

func TestBalanceErrors(t *testing.T) {
	ts := newTestServer(t)
	roomID := createRoom(t, ts, "open").Room.ID
	joinPlayer(t, ts, roomID, "Solo")

	rr := ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/balance", map[string]int{"team_count": 1}, "")
	assertErrorCode(t, rr, http.StatusBadRequest, apierr.CodeInvalidTeamCount)

	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/balance", map[string]int{"team_count": 2}, "")
	assertErrorCode(t, rr, http.StatusConflict, apierr.CodeInsufficientPlayers)
}

func TestReplaceTeams(t *testing.T) {
	ts := newTestServer(t)
	roomID := createRoom(t, ts, "open").Room.ID
	a := joinPlayer(t, ts, roomID, "A")
	b := joinPlayer(t, ts, roomID, "B")

	body := map[string]any{
		"team_count": 2,
		"teams": []map[string]any{
			{"members": []map[string]any{{"id": a.ID, "name": "A", "skill": 1}}},
			{"members": []map[string]any{{"id": b.ID, "name": "B", "skill": 1}}},
		},
	}
	rr := ts.request(http.MethodPut, "/api/v1/rooms/"+roomID+"/teams", body, "")
	require.Equal(t, http.StatusOK, rr.Code)
	partition := decode[response.Partition](t, rr)
	assert.Equal(t, b.ID, partition.Teams[1].Members[0].ID)
	assert.False(t, partition.CreatedAt.IsZero())

	// Duplicate member is rejected
	body["teams"] = []map[string]any{
		{"members": []map[string]any{{"id": a.ID}}},
		{"members": []map[string]any{{"id": a.ID}}},
	}
	rr = ts.request(http.MethodPut, "/api/v1/rooms/"+roomID+"/teams", body, "")
	assertErrorCode(t, rr, http.StatusBadRequest, apierr.CodeInvalidPartition)
}

func TestChatMessages(t *testing.T) {
	ts := newTestServer(t)
	roomID := createRoom(t, ts, "open").Room.ID

	rr := ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/messages", map[string]string{"author": "Alice", "content": "hi"}, "")
	require.Equal(t, http.StatusCreated, rr.Code)
	first := decode[response.Message](t, rr)

	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/messages", map[string]string{"content": "anyone?"}, "")
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "Anonymous", decode[response.Message](t, rr).AuthorName)

	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/messages", map[string]string{"content": "  "}, "")
	assertErrorCode(t, rr, http.StatusBadRequest, apierr.CodeInvalidContent)

	rr = ts.request(http.MethodGet, "/api/v1/rooms/"+roomID+"/messages", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[response.MessageListResponse](t, rr).Messages, 2)

	since := first.CreatedAt.Format(time.RFC3339Nano)
	rr = ts.request(http.MethodGet, "/api/v1/rooms/"+roomID+"/messages?since="+since, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	later := decode[response.MessageListResponse](t, rr).Messages
	require.Len(t, later, 1)
	assert.Equal(t, "anyone?", later[0].Content)

	rr = ts.request(http.MethodGet, "/api/v1/rooms/"+roomID+"/messages?since=yesterday", nil, "")
	assertErrorCode(t, rr, http.StatusBadRequest, apierr.CodeInvalidRequest)
}

func TestSnapshot(t *testing.T) {
	ts := newTestServer(t)
	roomID := createRoom(t, ts, "open").Room.ID
	joinPlayer(t, ts, roomID, "A")
	joinPlayer(t, ts, roomID, "B")
	ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/messages", map[string]string{"content": "go"}, "")

	rr := ts.request(http.MethodGet, "/api/v1/rooms/"+roomID, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	snap := decode[response.SnapshotResponse](t, rr)
	assert.Equal(t, roomID, snap.Room.ID)
	assert.Len(t, snap.Players, 2)
	assert.Len(t, snap.Messages, 1)
	assert.Nil(t, snap.Teams)
	assert.Equal(t, uint64(3), snap.Seq)
}

func TestEventStream(t *testing.T) {
	ts := newTestServer(t)
	roomID := createRoom(t, ts, "open").Room.ID

	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/rooms/"+roomID+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	messages := make(chan sse.Message, 16)
	go func() {
		var parser sse.Parser
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if msg, ok := parser.Feed(scanner.Text()); ok {
				messages <- msg
			}
		}
		close(messages)
	}()

	next := func() sse.Message {
		select {
		case msg := <-messages:
			return msg
		case <-ctx.Done():
			t.Fatal("timed out waiting for event")
			return sse.Message{}
		}
	}

	require.Equal(t, "connected", next().Event)

	joinPlayer(t, ts, roomID, "Alice")
	ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/messages", map[string]string{"author": "Alice", "content": "hello"}, "")

	msg := next()
	assert.Equal(t, "player_added", msg.Event)
	assert.Equal(t, "1", msg.ID)
	var update response.Update
	require.NoError(t, json.Unmarshal([]byte(msg.Data), &update))
	require.NotNil(t, update.Player)
	assert.Equal(t, "Alice", update.Player.Name)

	msg = next()
	assert.Equal(t, "message_appended", msg.Event)
	assert.Equal(t, "2", msg.ID)
}

func TestEventStreamRoomNotFound(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/rooms/missing/events", nil, "")
	assertErrorCode(t, rr, http.StatusNotFound, apierr.CodeRoomNotFound)
}

func TestPanicRecovery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	h := middleware.Recovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assertErrorCode(t, rr, http.StatusInternalServerError, apierr.CodeInternalError)
}

func TestJoinPointsAtNewPlayer(t *testing.T) {
	ts := newTestServer(t)
	roomID := createRoom(t, ts, "open").Room.ID

	rr := ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/players", map[string]string{"name": "Alice"}, "")
	require.Equal(t, http.StatusCreated, rr.Code)
	player := decode[response.Player](t, rr)
	assert.Equal(t, "/api/v1/rooms/"+roomID+"/players/"+player.ID, rr.Header().Get("Location"))
}
