package cli

import (
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/teambalancer/internal/api/request"
	"github.com/mcoot/teambalancer/internal/api/response"
	"github.com/mcoot/teambalancer/internal/model"
)

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Room chat commands",
	}

	cmd.AddCommand(newChatSendCmd())
	cmd.AddCommand(newChatListCmd())

	return cmd
}

func newChatSendCmd() *cobra.Command {
	var author string

	cmd := &cobra.Command{
		Use:   "send <room> <message...>",
		Short: "Post a chat message",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := request.SendMessageRequest{
				Author:  author,
				Content: strings.Join(args[1:], " "),
			}

			var result response.Message
			if err := client.Post(roomPath(model.RoomID(args[0]), "/messages"), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&author, "author", "", "Author name (default: "+model.AnonymousAuthor+")")

	return cmd
}

func newChatListCmd() *cobra.Command {
	var since string

	cmd := &cobra.Command{
		Use:   "list <room>",
		Short: "List chat messages, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := roomPath(model.RoomID(args[0]), "/messages")
			if since != "" {
				t, err := time.Parse(time.RFC3339Nano, since)
				if err != nil {
					return err
				}
				path += "?since=" + url.QueryEscape(t.Format(time.RFC3339Nano))
			}

			var result response.MessageListResponse
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "Only messages after this RFC3339 time")

	return cmd
}
