package handler

import (
	"bytes"
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/mcoot/teambalancer/internal/boundary"
	"github.com/mcoot/teambalancer/internal/model"
	"github.com/mcoot/teambalancer/internal/session"
	"github.com/mcoot/teambalancer/internal/sse"
	"github.com/mcoot/teambalancer/internal/web/templates/components"
)

// updateResynced is handed to the stream when the renderer's copy of the
// room was reloaded. It re-renders every fragment.
const updateResynced model.UpdateType = "resynced"

// Renderer keeps one viewer's copy of a room and renders HTML fragments
// for SSE from it. Viewer-dependent parts of the view are fixed when the
// renderer is created.
type Renderer struct {
	boundary  boundary.Boundary
	self      model.PlayerID
	canManage bool
	logger    *slog.Logger

	session *session.Session
}

// NewRenderer creates a Renderer for a viewer
func NewRenderer(b boundary.Boundary, self model.PlayerID, canManage bool, logger *slog.Logger) *Renderer {
	return &Renderer{
		boundary:  b,
		self:      self,
		canManage: canManage,
		logger:    logger,
	}
}

// Subscribe opens the renderer's session on the room. The handler sees each
// applied update, plus an updateResynced after a reload. A Renderer serves
// one subscription.
func (r *Renderer) Subscribe(ctx context.Context, roomID model.RoomID, handler boundary.UpdateHandler) (boundary.Subscription, error) {
	var sess *session.Session
	sess = session.New(roomID, r.boundary, session.Options{
		Logger:   r.logger,
		OnUpdate: handler,
		OnResync: func() {
			handler(model.Update{Seq: sess.LastSeq(), Type: updateResynced, RoomID: roomID})
		},
	})
	r.session = sess

	if err := sess.Open(ctx); err != nil {
		return nil, err
	}
	return boundary.SubscriptionFunc(sess.Close), nil
}

// view is the viewer's picture of the session's current state
func (r *Renderer) view() components.RoomView {
	view := components.RoomView{
		Room:      r.session.Room(),
		Players:   r.session.Players(),
		Partition: r.session.Partition(),
		Messages:  r.session.Messages(time.Time{}),
		CanManage: r.canManage,
	}
	if _, ok := r.session.Player(r.self); ok {
		view.Self = r.self
	}
	return view
}

// Format renders the fragments an update touches. The fragment is named
// after the element it replaces.
func (r *Renderer) Format(ctx context.Context, update model.Update) ([][]byte, error) {
	type fragment struct {
		id     string
		render func(components.RoomView) templ.Component
	}
	var (
		players  = fragment{components.PlayerListID, components.PlayerList}
		teams    = fragment{components.TeamsID, components.Teams}
		chat     = fragment{components.ChatLogID, components.ChatLog}
		touched []fragment
	)
	switch update.Type {
	case model.UpdatePlayerAdded, model.UpdatePlayerChanged, model.UpdatePlayerRemoved:
		touched = []fragment{players}
	case model.UpdatePartitionReplaced:
		touched = []fragment{teams}
	case model.UpdateMessageAppended:
		touched = []fragment{chat}
	case updateResynced:
		touched = []fragment{players, teams, chat}
	default:
		return nil, nil
	}

	view := r.view()
	id := strconv.FormatUint(update.Seq, 10)
	messages := make([][]byte, 0, len(touched))
	for _, f := range touched {
		var buf bytes.Buffer
		if err := f.render(view).Render(ctx, &buf); err != nil {
			return nil, err
		}
		messages = append(messages, sse.FormatMessage(f.id, id, buf.String()))
	}
	return messages, nil
}
