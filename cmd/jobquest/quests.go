package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jobquest/jobquest/internal/application/command"
	"github.com/jobquest/jobquest/internal/domain/progress"
	"github.com/jobquest/jobquest/internal/domain/quest"
	"github.com/jobquest/jobquest/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// QUESTS
// ══════════════════════════════════════════════════════════════════════════════

var (
	addDraft  quest.Draft
	addSubmit bool
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a job to your catalog and save it (or submit with --submit)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		action := quest.ActionSave
		if addSubmit {
			action = quest.ActionSubmit
		}
		res, err := execute(cmd, command.AddJobCommand{Draft: addDraft, Action: action})
		if err != nil {
			return err
		}
		out.Job(res.JobID, action)
		return nil
	},
}

var submitCmd = &cobra.Command{
	Use:   "submit <job-id>",
	Short: "Submit an application for a saved job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := execute(cmd, command.SubmitJobCommand{JobID: args[0]})
		return err
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <job-id>",
	Aliases: []string{"rm"},
	Short:   "Remove a saved job",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := execute(cmd, command.DeleteSavedJobCommand{JobID: args[0]})
		return err
	},
}

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATIONS
// ══════════════════════════════════════════════════════════════════════════════

var statusCmd = &cobra.Command{
	Use:   "status <job-id> <status>",
	Short: "Move an application through the pipeline",
	Long:  "Move an application through the pipeline. Statuses: Submitted, In Review, Interview, Offer, Hired, Rejected, No Response.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := progress.ParseStatus(args[1])
		if err != nil {
			return err
		}
		_, err = execute(cmd, command.SetStatusCommand{JobID: args[0], Status: status})
		return err
	},
}

var (
	editTitle   string
	editCompany string
)

var editCmd = &cobra.Command{
	Use:   "edit <job-id>",
	Short: "Correct an application's title or company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := profile(cmd)
		if err != nil {
			return err
		}
		snap, err := container.Dispatcher.Snapshot(cmd.Context(), id)
		if err != nil {
			return err
		}
		if !snap.Catalog.Has(args[0]) {
			return fmt.Errorf("%s: %w", args[0], shared.ErrUnknownJob)
		}
		app, ok := snap.State.Applications[args[0]]
		if !ok {
			return fmt.Errorf("%s: %w", args[0], shared.ErrUnknownApplication)
		}
		if cmd.Flags().Changed("title") {
			app.JobTitle = editTitle
		}
		if cmd.Flags().Changed("company") {
			app.Company = editCompany
		}
		_, err = execute(cmd, command.UpdateApplicationCommand{JobID: args[0], Application: app})
		return err
	},
}

var followUpCmd = &cobra.Command{
	Use:     "followup",
	Aliases: []string{"fu"},
	Short:   "Complete or snooze follow-ups",
}

var followUpCompleteCmd = &cobra.Command{
	Use:   "complete <job-id> <follow-up-id>",
	Short: "Mark a follow-up as done",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := execute(cmd, command.CompleteFollowUpCommand{JobID: args[0], FollowUpID: args[1]})
		return err
	},
}

var followUpSnoozeCmd = &cobra.Command{
	Use:   "snooze <job-id> <follow-up-id>",
	Short: "Hide a follow-up for a few days",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := execute(cmd, command.SnoozeFollowUpCommand{JobID: args[0], FollowUpID: args[1]})
		return err
	},
}

func init() {
	f := addCmd.Flags()
	f.StringVarP(&addDraft.Title, "title", "t", "", "Job title")
	f.StringVarP(&addDraft.Company, "company", "c", "", "Company name")
	f.StringVarP(&addDraft.Location, "location", "l", "", "Location")
	f.StringVarP(&addDraft.URL, "url", "u", "", "Posting URL")
	f.StringSliceVar(&addDraft.Tags, "tags", nil, "Comma-separated tags")
	f.StringVarP(&addDraft.Description, "description", "d", "", "Description")
	f.BoolVar(&addDraft.Remote, "remote", false, "Remote position")
	f.IntVar(&addDraft.Rarity, "rarity", 0, fmt.Sprintf("Rarity from 1 to 5 (default %d)", quest.DefaultRarity))
	f.StringVar(&addDraft.Emoji, "emoji", "", "Card emoji")
	f.StringVar(&addDraft.Type, "type", "", "Employment type, e.g. Full-time")
	f.StringVar(&addDraft.Source, "source", "", "Where you found it")
	f.BoolVarP(&addSubmit, "submit", "s", false, "Submit right away instead of saving")

	editCmd.Flags().StringVar(&editTitle, "title", "", "New job title")
	editCmd.Flags().StringVar(&editCompany, "company", "", "New company name")

	followUpCmd.AddCommand(followUpCompleteCmd, followUpSnoozeCmd)
	rootCmd.AddCommand(addCmd, submitCmd, deleteCmd, statusCmd, editCmd, followUpCmd)
}
