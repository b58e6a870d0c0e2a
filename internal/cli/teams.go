package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/teambalancer/internal/api/request"
	"github.com/mcoot/teambalancer/internal/api/response"
	"github.com/mcoot/teambalancer/internal/model"
)

func newTeamsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teams",
		Short: "Team balancing commands",
	}

	cmd.AddCommand(newTeamsBalanceCmd())
	cmd.AddCommand(newTeamsGetCmd())

	return cmd
}

func newTeamsBalanceCmd() *cobra.Command {
	var teamCount int

	cmd := &cobra.Command{
		Use:   "balance <room>",
		Short: "Split the room's players into teams of similar total skill",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Partition
			if err := client.Post(roomPath(model.RoomID(args[0]), "/balance"), request.BalanceRequest{TeamCount: teamCount}, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVarP(&teamCount, "count", "n", 2, "Number of teams")

	return cmd
}

func newTeamsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <room>",
		Short: "Show the room's current teams",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Partition
			if err := client.Get(roomPath(model.RoomID(args[0]), "/teams"), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}
