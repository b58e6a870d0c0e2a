package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/teambalancer/internal/api/request"
	"github.com/mcoot/teambalancer/internal/api/response"
	"github.com/mcoot/teambalancer/internal/model"
	"github.com/mcoot/teambalancer/internal/session"
)

// leaveTimeout bounds the leave request sent when watch exits
const leaveTimeout = 5 * time.Second

var zeroTime time.Time

func newRoomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Room management commands",
	}

	cmd.AddCommand(newRoomCreateCmd())
	cmd.AddCommand(newRoomGetCmd())
	cmd.AddCommand(newRoomWatchCmd())

	return cmd
}

func newRoomCreateCmd() *cobra.Command {
	var (
		roomID string
		mode   string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new room",
		Long: `Create a new room and print its invite link.

In an "open" room anyone may rate players, kick and balance. In a "host"
room those actions need the host key printed here (pass it with --host-key
or TEAMBAL_HOST_KEY).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := request.CreateRoomRequest{RoomID: roomID, Mode: mode}

			var result response.CreateRoomResponse
			if err := client.Post("/api/v1/rooms", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(CreatedRoom{
				CreateRoomResponse: result,
				InviteURL:          client.BaseURL() + result.InvitePath,
			})
			return nil
		},
	}

	cmd.Flags().StringVar(&roomID, "id", "", "Room id (default: generated)")
	cmd.Flags().StringVar(&mode, "mode", string(model.RoomModeOpen), "Room mode: open, host")

	return cmd
}

func newRoomGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <room>",
		Short: "Show a room's players, teams and chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.SnapshotResponse
			if err := client.Get(roomPath(model.RoomID(args[0]), ""), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newRoomWatchCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "watch <room>",
		Short: "Follow a room live",
		Long: `Open a session on the room and print it after every change.

With --name the session also joins the room as that player and leaves it
again on exit. Text output reprints the room; JSON output prints one line
per update.

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watchRoom(ctx, cmd.OutOrStdout(), model.RoomID(args[0]), name)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Join the room as this player while watching")

	return cmd
}

// watchRoom runs a session until ctx is done or the stream drops
func watchRoom(ctx context.Context, w io.Writer, roomID model.RoomID, name string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	remote := NewRemoteBoundary(client, logger)
	var streamErr error
	remote.OnDisconnect = func(_ model.RoomID, err error) {
		streamErr = err
		cancel()
	}

	out := NewOutput(cfg.Output, w)
	var sess *session.Session
	sess = session.New(roomID, remote, session.Options{
		Logger: logger,
		OnUpdate: func(u model.Update) {
			if cfg.Output == "json" {
				out.Print(response.UpdateFromModel(&u))
				return
			}
			fmt.Fprintf(w, "\n-- %s (seq %d) --\n", u.Type, u.Seq)
			out.Print(sessionSnapshot(sess))
		},
		OnResync: func() {
			if cfg.Output == "json" {
				return
			}
			fmt.Fprintf(w, "\n-- resynced (seq %d) --\n", sess.LastSeq())
			out.Print(sessionSnapshot(sess))
		},
	})

	if err := sess.Open(ctx); err != nil {
		return err
	}
	defer sess.Close()

	if name != "" {
		player, err := sess.Join(ctx, name)
		if err != nil {
			return err
		}
		defer func() {
			leaveCtx, leaveCancel := context.WithTimeout(context.WithoutCancel(ctx), leaveTimeout)
			defer leaveCancel()
			if err := sess.Remove(leaveCtx, player.ID); err != nil {
				logger.Warn("failed to leave room", slog.Any("error", err))
			}
		}()
	}

	if cfg.Output != "json" {
		fmt.Fprintf(w, "Watching room %s\n", roomID)
		out.Print(sessionSnapshot(sess))
	}

	<-ctx.Done()
	if cfg.Output != "json" {
		fmt.Fprintln(w, "\nDisconnected")
	}
	return streamErr
}

// sessionSnapshot renders a session's local state like a fetched room
func sessionSnapshot(s *session.Session) response.SnapshotResponse {
	rm := s.Room()
	snap := &model.RoomSnapshot{
		Room:      rm,
		Players:   s.Players(),
		Partition: s.Partition(),
		Messages:  s.Messages(zeroTime),
		Seq:       s.LastSeq(),
	}
	return response.SnapshotFromModel(snap)
}
