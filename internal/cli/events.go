package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/teambalancer/internal/model"
	"github.com/mcoot/teambalancer/internal/sse"
)

func newEventsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "events <room>",
		Short: "Stream raw SSE events from a room",
		Long: `Connect to the room's SSE endpoint and print events as they arrive.

Events include:
  - player_added: A player joined
  - player_changed: A player was renamed or rated
  - player_removed: A player left or was kicked
  - partition_replaced: Teams were balanced
  - message_appended: A chat message was posted

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return streamEvents(ctx, cmd.OutOrStdout(), model.RoomID(args[0]), jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")

	return cmd
}

// SSEEvent represents a parsed SSE event
type SSEEvent struct {
	Time  time.Time `json:"time"`
	Event string    `json:"event"`
	ID    string    `json:"id,omitempty"`
	Data  string    `json:"data"`
}

func streamEvents(ctx context.Context, w io.Writer, roomID model.RoomID, jsonOutput bool) error {
	path := roomPath(roomID, "/events")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, client.BaseURL()+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	client.authorize(req)

	httpClient := &http.Client{
		Timeout: 0, // No timeout for SSE
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return decodeError("GET "+path, resp.StatusCode, body)
	}

	if !jsonOutput {
		fmt.Fprintf(w, "Connected to room %s\n", roomID)
	}

	// Parse SSE stream
	reader := bufio.NewReader(resp.Body)
	var parser sse.Parser
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			// Context cancellation is expected
			if ctx.Err() != nil || err == io.EOF {
				if !jsonOutput {
					fmt.Fprintln(w, "\nDisconnected")
				}
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		}

		if msg, ok := parser.Feed(strings.TrimSuffix(line, "\n")); ok {
			printEvent(w, msg, jsonOutput)
		}
	}
}

func printEvent(w io.Writer, msg sse.Message, jsonOutput bool) {
	now := time.Now()

	if jsonOutput {
		evt := SSEEvent{
			Time:  now,
			Event: msg.Event,
			ID:    msg.ID,
			Data:  msg.Data,
		}
		jsonData, _ := json.Marshal(evt)
		fmt.Fprintln(w, string(jsonData))
	} else {
		timestamp := now.Format("2006-01-02 15:04:05")
		// Truncate data if it's too long for display
		displayData := msg.Data
		if len(displayData) > 100 {
			displayData = displayData[:100] + "..."
		}
		// Remove newlines for cleaner display
		displayData = strings.ReplaceAll(displayData, "\n", " ")
		fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, msg.Event, displayData)
	}
}
