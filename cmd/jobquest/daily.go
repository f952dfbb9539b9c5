package main

import (
	"github.com/spf13/cobra"

	"github.com/jobquest/jobquest/internal/application/command"
)

var checkInCmd = &cobra.Command{
	Use:     "checkin",
	Aliases: []string{"ci"},
	Short:   "Record today's check-in and extend your streak",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := execute(cmd, command.CheckInCommand{})
		return err
	},
}

var missionCmd = &cobra.Command{
	Use:   "mission <mission-id>",
	Short: "Complete one of today's missions",
	Long:  "Complete one of today's missions. Run `jobquest missions` to see the ids.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := execute(cmd, command.CompleteMissionCommand{MissionID: args[0]})
		return err
	},
}

func init() {
	rootCmd.AddCommand(checkInCmd, missionCmd)
}
