package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/teambalancer/internal/api/request"
	"github.com/mcoot/teambalancer/internal/api/response"
	"github.com/mcoot/teambalancer/internal/model"
)

func newPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Player management commands",
	}

	cmd.AddCommand(newPlayerJoinCmd())
	cmd.AddCommand(newPlayerListCmd())
	cmd.AddCommand(newPlayerRenameCmd())
	cmd.AddCommand(newPlayerSkillCmd())
	cmd.AddCommand(newPlayerKickCmd())

	return cmd
}

func newPlayerJoinCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "join <room>",
		Short: "Add a player to a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Player
			if err := client.Post(roomPath(model.RoomID(args[0]), "/players"), request.JoinRequest{Name: name}, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newPlayerListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <room>",
		Short: "List a room's players in join order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.PlayerListResponse
			if err := client.Get(roomPath(model.RoomID(args[0]), "/players"), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newPlayerRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <room> <player> <name>",
		Short: "Change a player's display name",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[2]
			return updatePlayer(cmd, args[0], args[1], request.UpdatePlayerRequest{Name: &name})
		},
	}
}

func newPlayerSkillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "skill <room> <player> <skill>",
		Short: "Rate a player (1-5, host key needed in host rooms)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			skill, err := strconv.Atoi(args[2])
			if err != nil {
				return err
			}
			return updatePlayer(cmd, args[0], args[1], request.UpdatePlayerRequest{Skill: &skill})
		},
	}
}

func updatePlayer(cmd *cobra.Command, roomID, playerID string, req request.UpdatePlayerRequest) error {
	var result response.Player
	if err := client.Patch(roomPath(model.RoomID(roomID), "/players/"+playerID), req, &result); err != nil {
		return err
	}

	out := NewOutput(cfg.Output, cmd.OutOrStdout())
	out.Print(result)
	return nil
}

func newPlayerKickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kick <room> <player>",
		Short: "Remove a player from a room",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete(roomPath(model.RoomID(args[0]), "/players/"+args[1])); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.PrintMessage("Removed player " + args[1])
			return nil
		},
	}
}
