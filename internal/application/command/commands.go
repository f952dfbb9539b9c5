// Package command contains write operations (CQRS - Commands).
package command

import (
	"strings"

	"github.com/jobquest/jobquest/internal/application/engine"
	"github.com/jobquest/jobquest/internal/domain/progress"
	"github.com/jobquest/jobquest/internal/domain/quest"
	"github.com/jobquest/jobquest/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMMANDS
// Each command validates its own input and knows which engine operation it maps
// to. The Dispatcher does the loading, saving and publishing around it.
// ══════════════════════════════════════════════════════════════════════════════

// Command is a write operation on one profile's snapshot.
type Command interface {
	// Name identifies the command in logs.
	Name() string

	// Validate checks the command's own fields before any state is loaded.
	Validate() error

	apply(e *engine.Engine, in engine.Input) (engine.Result, error)
}

func required(cmd, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return shared.NewDomainError("command", cmd, shared.ErrValidation, field+" is required")
	}
	return nil
}

// CheckInCommand records the daily check-in.
type CheckInCommand struct{}

func (CheckInCommand) Name() string    { return "checkin" }
func (CheckInCommand) Validate() error { return nil }
func (CheckInCommand) apply(e *engine.Engine, in engine.Input) (engine.Result, error) {
	return e.CheckIn(in)
}

// CompleteMissionCommand ticks off a daily mission.
type CompleteMissionCommand struct {
	MissionID string
}

func (CompleteMissionCommand) Name() string { return "complete_mission" }

// Validate validates the command.
func (c CompleteMissionCommand) Validate() error {
	return required(c.Name(), "mission_id", c.MissionID)
}

func (c CompleteMissionCommand) apply(e *engine.Engine, in engine.Input) (engine.Result, error) {
	return e.CompleteMission(in, c.MissionID)
}

// SubmitJobCommand applies to a job already in the catalog.
type SubmitJobCommand struct {
	JobID string
}

func (SubmitJobCommand) Name() string { return "submit_job" }

// Validate validates the command.
func (c SubmitJobCommand) Validate() error {
	return required(c.Name(), "job_id", c.JobID)
}

func (c SubmitJobCommand) apply(e *engine.Engine, in engine.Input) (engine.Result, error) {
	return e.SubmitJob(in, c.JobID)
}

// AddJobCommand adds a new job to the catalog and saves or submits it.
type AddJobCommand struct {
	Draft  quest.Draft
	Action quest.Action
}

func (AddJobCommand) Name() string { return "add_job" }

// Validate validates the command.
func (c AddJobCommand) Validate() error {
	if c.Action != quest.ActionSave && c.Action != quest.ActionSubmit {
		return shared.ErrInvalidAction
	}
	return nil
}

func (c AddJobCommand) apply(e *engine.Engine, in engine.Input) (engine.Result, error) {
	return e.AddJob(in, c.Draft, c.Action)
}

// DeleteSavedJobCommand removes a job from the saved list.
type DeleteSavedJobCommand struct {
	JobID string
}

func (DeleteSavedJobCommand) Name() string { return "delete_saved_job" }

// Validate validates the command.
func (c DeleteSavedJobCommand) Validate() error {
	return required(c.Name(), "job_id", c.JobID)
}

func (c DeleteSavedJobCommand) apply(e *engine.Engine, in engine.Input) (engine.Result, error) {
	return e.DeleteSavedJob(in, c.JobID)
}

// UpdateApplicationCommand replaces an application wholesale.
type UpdateApplicationCommand struct {
	JobID       string
	Application progress.Application
}

func (UpdateApplicationCommand) Name() string { return "update_application" }

// Validate validates the command.
func (c UpdateApplicationCommand) Validate() error {
	if err := required(c.Name(), "job_id", c.JobID); err != nil {
		return err
	}
	if !c.Application.Status.IsValid() {
		return shared.ErrInvalidStatus
	}
	return nil
}

func (c UpdateApplicationCommand) apply(e *engine.Engine, in engine.Input) (engine.Result, error) {
	return e.UpdateApplication(in, c.JobID, c.Application)
}

// SetStatusCommand moves an application through its lifecycle.
type SetStatusCommand struct {
	JobID  string
	Status progress.Status
}

func (SetStatusCommand) Name() string { return "set_status" }

// Validate validates the command.
func (c SetStatusCommand) Validate() error {
	if err := required(c.Name(), "job_id", c.JobID); err != nil {
		return err
	}
	if !c.Status.IsValid() {
		return shared.ErrInvalidStatus
	}
	return nil
}

func (c SetStatusCommand) apply(e *engine.Engine, in engine.Input) (engine.Result, error) {
	return e.SetStatus(in, c.JobID, c.Status)
}

// CompleteFollowUpCommand marks a follow-up as done.
type CompleteFollowUpCommand struct {
	JobID      string
	FollowUpID string
}

func (CompleteFollowUpCommand) Name() string { return "complete_followup" }

// Validate validates the command.
func (c CompleteFollowUpCommand) Validate() error {
	if err := required(c.Name(), "job_id", c.JobID); err != nil {
		return err
	}
	return required(c.Name(), "followup_id", c.FollowUpID)
}

func (c CompleteFollowUpCommand) apply(e *engine.Engine, in engine.Input) (engine.Result, error) {
	return e.CompleteFollowUp(in, c.JobID, c.FollowUpID)
}

// SnoozeFollowUpCommand hides a follow-up for the configured span.
type SnoozeFollowUpCommand struct {
	JobID      string
	FollowUpID string
}

func (SnoozeFollowUpCommand) Name() string { return "snooze_followup" }

// Validate validates the command.
func (c SnoozeFollowUpCommand) Validate() error {
	if err := required(c.Name(), "job_id", c.JobID); err != nil {
		return err
	}
	return required(c.Name(), "followup_id", c.FollowUpID)
}

func (c SnoozeFollowUpCommand) apply(e *engine.Engine, in engine.Input) (engine.Result, error) {
	return e.SnoozeFollowUp(in, c.JobID, c.FollowUpID)
}

// ResetProfileCommand wipes the profile's progress and catalog.
type ResetProfileCommand struct{}

func (ResetProfileCommand) Name() string    { return "reset_profile" }
func (ResetProfileCommand) Validate() error { return nil }
func (ResetProfileCommand) apply(e *engine.Engine, in engine.Input) (engine.Result, error) {
	return e.ResetProfile(in), nil
}

// ResetMissionsCommand only runs the daily mission reset that precedes every
// command. The worker sends it at day start.
type ResetMissionsCommand struct{}

func (ResetMissionsCommand) Name() string    { return "reset_missions" }
func (ResetMissionsCommand) Validate() error { return nil }
func (ResetMissionsCommand) apply(e *engine.Engine, in engine.Input) (engine.Result, error) {
	return e.ResetDailyMissions(in), nil
}
