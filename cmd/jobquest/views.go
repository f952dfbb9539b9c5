package main

import (
	"github.com/spf13/cobra"

	"github.com/jobquest/jobquest/internal/application/query"
)

func profileQuery(cmd *cobra.Command) (query.ProfileQuery, error) {
	id, err := profile(cmd)
	if err != nil {
		return query.ProfileQuery{}, err
	}
	return query.ProfileQuery{ProfileID: id.String()}, nil
}

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"dash"},
	Short:   "Show level, XP, streak and overdue follow-ups",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		q, err := profileQuery(cmd)
		if err != nil {
			return err
		}
		dto, err := container.Dashboard.Handle(cmd.Context(), q)
		if err != nil {
			return err
		}
		return out.Dashboard(dto)
	},
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "List applications and saved jobs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		q, err := profileQuery(cmd)
		if err != nil {
			return err
		}
		dto, err := container.QuestLog.Handle(cmd.Context(), q)
		if err != nil {
			return err
		}
		return out.QuestLog(dto, container.Clock.Now())
	},
}

var missionsCmd = &cobra.Command{
	Use:   "missions",
	Short: "Show today's mission board",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		q, err := profileQuery(cmd)
		if err != nil {
			return err
		}
		dto, err := container.Missions.Handle(cmd.Context(), q)
		if err != nil {
			return err
		}
		return out.Missions(dto)
	},
}

var badgesCmd = &cobra.Command{
	Use:   "badges",
	Short: "Show the badge gallery",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		q, err := profileQuery(cmd)
		if err != nil {
			return err
		}
		dto, err := container.Badges.Handle(cmd.Context(), q)
		if err != nil {
			return err
		}
		return out.Badges(dto)
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd, logCmd, missionsCmd, badgesCmd)
}
