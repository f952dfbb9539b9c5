package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jobquest/jobquest/internal/application/command"
	"github.com/jobquest/jobquest/internal/domain/quest"
	"github.com/jobquest/jobquest/internal/domain/shared"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage job seeker profiles",
}

var profileListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List profiles; the active one is starred",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := container.Profiles.List(cmd.Context())
		if err != nil {
			return err
		}
		return out.Profiles(reg)
	},
}

var (
	createID       string
	createPrefs    quest.Preferences
	createActivate bool
)

var profileCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := container.Profiles.Create(cmd.Context(), command.CreateProfileCommand{
			ID:          createID,
			Name:        args[0],
			Preferences: createPrefs,
			Activate:    createActivate,
		})
		return err
	},
}

var profileSwitchCmd = &cobra.Command{
	Use:   "switch <profile-id>",
	Short: "Make a profile the active one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := shared.NewProfileID(args[0])
		if err != nil {
			return err
		}
		_, err = container.Profiles.Switch(cmd.Context(), id)
		return err
	},
}

var resetConfirmed bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Wipe the profile's progress and catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !resetConfirmed {
			return errors.New("reset erases all progress; pass --yes to confirm")
		}
		_, err := execute(cmd, command.ResetProfileCommand{})
		return err
	},
}

func init() {
	f := profileCreateCmd.Flags()
	f.StringVar(&createID, "id", "", "Profile id (letters, digits, - and _; random when empty)")
	f.BoolVar(&createPrefs.RemoteOnly, "remote-only", false, "Only match remote jobs")
	f.StringSliceVar(&createPrefs.Keywords, "keywords", nil, "Comma-separated keywords jobs should mention")
	f.StringSliceVar(&createPrefs.PreferredRoles, "roles", nil, "Comma-separated preferred roles")
	f.BoolVar(&createActivate, "activate", false, "Switch to the new profile")

	resetCmd.Flags().BoolVarP(&resetConfirmed, "yes", "y", false, "Confirm the reset")

	profileCmd.AddCommand(profileListCmd, profileCreateCmd, profileSwitchCmd)
	rootCmd.AddCommand(profileCmd, resetCmd)
}
