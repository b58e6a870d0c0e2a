package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/mcoot/teambalancer/internal/api/request"
	"github.com/mcoot/teambalancer/internal/api/response"
	"github.com/mcoot/teambalancer/internal/boundary"
	"github.com/mcoot/teambalancer/internal/model"
	"github.com/mcoot/teambalancer/internal/sse"
)

// RemoteBoundary reaches a room's authority over the JSON API. Submissions
// are plain requests; updates arrive on the room's event stream.
type RemoteBoundary struct {
	client *Client
	logger *slog.Logger

	// OnDisconnect, if set, is called when an event stream ends without
	// being unsubscribed
	OnDisconnect func(roomID model.RoomID, err error)
}

// Ensure RemoteBoundary implements the interface
var _ boundary.Boundary = (*RemoteBoundary)(nil)

// NewRemoteBoundary creates a boundary over client
func NewRemoteBoundary(client *Client, logger *slog.Logger) *RemoteBoundary {
	return &RemoteBoundary{
		client: client,
		logger: logger.With(slog.String("component", "remote-boundary")),
	}
}

func roomPath(roomID model.RoomID, suffix string) string {
	return "/api/v1/rooms/" + string(roomID) + suffix
}

// Subscribe opens the room's event stream and returns once the server has
// registered it. The stream lives until Unsubscribe or ctx is done.
func (b *RemoteBoundary) Subscribe(ctx context.Context, roomID model.RoomID, handler boundary.UpdateHandler) (boundary.Subscription, error) {
	path := roomPath(roomID, "/events")
	op := "subscribe " + string(roomID)

	streamCtx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, b.client.baseURL+path, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	b.client.authorize(req)

	// No timeout for SSE
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		cancel()
		return nil, boundary.NewTransportError(op, err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		cancel()
		return nil, decodeError(op, resp.StatusCode, body)
	}

	reader := bufio.NewReader(resp.Body)
	var parser sse.Parser
	if err := waitForEvent(reader, &parser, "connected"); err != nil {
		_ = resp.Body.Close()
		cancel()
		return nil, boundary.NewTransportError(op, err)
	}

	done := make(chan struct{})
	var unsubscribed bool
	var mu sync.Mutex

	go func() {
		defer close(done)
		defer func() { _ = resp.Body.Close() }()

		err := b.stream(reader, &parser, handler)

		mu.Lock()
		quiet := unsubscribed
		mu.Unlock()
		if quiet || streamCtx.Err() != nil {
			return
		}

		b.logger.Warn("event stream ended",
			slog.String("room", string(roomID)),
			slog.Any("error", err))
		if b.OnDisconnect != nil {
			b.OnDisconnect(roomID, boundary.NewTransportError(op, err))
		}
	}()

	var once sync.Once
	return boundary.SubscriptionFunc(func() {
		once.Do(func() {
			mu.Lock()
			unsubscribed = true
			mu.Unlock()
			cancel()
			<-done
		})
	}), nil
}

// waitForEvent reads until a message named event arrives
func waitForEvent(reader *bufio.Reader, parser *sse.Parser, event string) error {
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		if msg, ok := parser.Feed(strings.TrimSuffix(line, "\n")); ok && msg.Event == event {
			return nil
		}
	}
}

// stream decodes updates and hands them over in arrival order until the
// stream fails. Malformed messages are skipped.
func (b *RemoteBoundary) stream(reader *bufio.Reader, parser *sse.Parser, handler boundary.UpdateHandler) error {
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return io.ErrUnexpectedEOF
			}
			return err
		}

		msg, ok := parser.Feed(strings.TrimSuffix(line, "\n"))
		if !ok || msg.Event == "connected" {
			continue
		}

		var update response.Update
		if err := json.Unmarshal([]byte(msg.Data), &update); err != nil {
			b.logger.Warn("skipping malformed update",
				slog.String("event", msg.Event),
				slog.Any("error", err))
			continue
		}
		handler(update.ToModel())
	}
}

// Snapshot loads the room's current state
func (b *RemoteBoundary) Snapshot(ctx context.Context, roomID model.RoomID) (*model.RoomSnapshot, error) {
	var resp response.SnapshotResponse
	if err := b.client.DoContext(ctx, http.MethodGet, roomPath(roomID, ""), nil, &resp); err != nil {
		return nil, err
	}
	snap := resp.ToModel()
	return &snap, nil
}

// SubmitPlayerJoin adds a player
func (b *RemoteBoundary) SubmitPlayerJoin(ctx context.Context, roomID model.RoomID, name string) (*model.Player, error) {
	var resp response.Player
	if err := b.client.DoContext(ctx, http.MethodPost, roomPath(roomID, "/players"), request.JoinRequest{Name: name}, &resp); err != nil {
		return nil, err
	}
	p := resp.ToModel()
	return &p, nil
}

// SubmitPlayerChange edits a player
func (b *RemoteBoundary) SubmitPlayerChange(ctx context.Context, roomID model.RoomID, playerID model.PlayerID, change model.PlayerChange) (*model.Player, error) {
	body := request.UpdatePlayerRequest{Name: change.Name, Skill: change.Skill}
	var resp response.Player
	if err := b.client.DoContext(ctx, http.MethodPatch, roomPath(roomID, "/players/"+string(playerID)), body, &resp); err != nil {
		return nil, err
	}
	p := resp.ToModel()
	return &p, nil
}

// SubmitPlayerRemove removes a player
func (b *RemoteBoundary) SubmitPlayerRemove(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) error {
	return b.client.DoContext(ctx, http.MethodDelete, roomPath(roomID, "/players/"+string(playerID)), nil, nil)
}

// SubmitPartition replaces the room's teams
func (b *RemoteBoundary) SubmitPartition(ctx context.Context, roomID model.RoomID, partition model.Partition) error {
	body := request.ReplaceTeamsRequest{
		TeamCount: partition.TeamCount,
		Teams:     make([]request.Team, len(partition.Teams)),
		CreatedAt: partition.CreatedAt,
	}
	for i, t := range partition.Teams {
		members := make([]request.TeamMember, len(t.Members))
		for j, m := range t.Members {
			members[j] = request.TeamMember{ID: string(m.ID), Name: m.Name, Skill: m.Skill}
		}
		body.Teams[i] = request.Team{Members: members}
	}
	return b.client.DoContext(ctx, http.MethodPut, roomPath(roomID, "/teams"), body, nil)
}

// SubmitMessage posts a chat message
func (b *RemoteBoundary) SubmitMessage(ctx context.Context, roomID model.RoomID, author, content string) (*model.ChatMessage, error) {
	var resp response.Message
	body := request.SendMessageRequest{Author: author, Content: content}
	if err := b.client.DoContext(ctx, http.MethodPost, roomPath(roomID, "/messages"), body, &resp); err != nil {
		return nil, err
	}
	m := resp.ToModel()
	return &m, nil
}
