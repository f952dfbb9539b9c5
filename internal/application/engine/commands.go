package engine

import (
	"github.com/jobquest/jobquest/internal/domain/followup"
	"github.com/jobquest/jobquest/internal/domain/progress"
	"github.com/jobquest/jobquest/internal/domain/quest"
	"github.com/jobquest/jobquest/internal/domain/shared"
)

// XP sources carried on XPGained events.
const (
	SourceCheckIn  = "check_in"
	SourceSubmit   = "submit"
	SourceMission  = "mission"
	SourceRejected = "rejected"
)

// Warning codes carried on warning events.
const (
	WarnAlreadyCheckedIn = "already_checked_in"
	WarnAlreadySubmitted = "already_submitted"
)

// ══════════════════════════════════════════════════════════════════════════════
// DAILY
// ══════════════════════════════════════════════════════════════════════════════

// ResetDailyMissions clears the mission board when the last reset was on
// another calendar day. The dispatcher runs it before every command.
func (e *Engine) ResetDailyMissions(in Input) Result {
	day := e.Day(in.Now)
	state, changed := in.Snapshot.State.ResetMissions(day)
	if !changed {
		return e.unchanged(in)
	}
	snap := progress.Snapshot{State: state, Catalog: in.Snapshot.Catalog.Clone()}
	return Result{
		Snapshot: snap,
		Events:   []shared.Event{shared.NewMissionsResetEvent(in.ProfileID.String(), in.Now, day)},
		Changed:  true,
	}
}

// CheckIn records the daily check-in, extending or restarting the streak.
// A second check-in on the same day returns ErrAlreadyCheckedIn with a warning event.
func (e *Engine) CheckIn(in Input) (Result, error) {
	r := e.begin(in)
	state, outcome, err := r.snap.State.CheckIn(in.Now, e.cfg.Location, shared.XPDailyCheckIn)
	if err != nil {
		return e.unchanged(in, shared.NewWarningEvent(in.ProfileID.String(), in.Now,
			WarnAlreadyCheckedIn, "You've already checked in today!")), err
	}
	r.snap.State = state

	r.xp(shared.XPDailyCheckIn, SourceCheckIn, "")
	if !outcome.Continued && outcome.PreviousStreak > 0 {
		r.emit(shared.NewStreakBrokenEvent(in.ProfileID.String(), in.Now, outcome.PreviousStreak, outcome.DaysMissed))
	}
	r.emit(shared.NewStreakUpdatedEvent(in.ProfileID.String(), in.Now, state.Streak, state.BestStreak))
	return r.finish(""), nil
}

// CompleteMission ticks off a daily mission. Completing a mission twice in one
// day is a no-op with no XP.
func (e *Engine) CompleteMission(in Input, missionID string) (Result, error) {
	r := e.begin(in)
	state, mission, done, err := r.snap.State.CompleteMission(missionID)
	if err != nil {
		return e.unchanged(in), err
	}
	if !done {
		return e.unchanged(in), nil
	}
	r.snap.State = state

	r.xp(mission.XP, SourceMission, mission.ID)
	r.emit(shared.NewMissionCompletedEvent(in.ProfileID.String(), in.Now, mission.ID, mission.XP.Int()))
	return r.finish(""), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// QUESTS
// ══════════════════════════════════════════════════════════════════════════════

// SubmitJob applies to a catalog job. It creates the application with its
// follow-ups, removes the job from the saved list, awards XP and re-derives
// the level.
func (e *Engine) SubmitJob(in Input, jobID string) (Result, error) {
	job, ok := in.Snapshot.Catalog.Get(jobID)
	if !ok {
		return e.unchanged(in), shared.ErrUnknownJob
	}
	if in.Snapshot.State.HasApplied(jobID) {
		return e.unchanged(in, shared.NewWarningEvent(in.ProfileID.String(), in.Now,
			WarnAlreadySubmitted, "You've already submitted this quest!")), shared.ErrAlreadySubmitted
	}

	r := e.begin(in)
	return r.submit(job)
}

func (r *run) submit(job quest.Job) (Result, error) {
	before := r.snap.State
	firstToday := len(before.SubmissionsOn(r.in.Now, r.e.cfg.Location)) == 0

	app := progress.NewApplication(job.ID, job.Title, job.Company, r.in.Now, r.e.cfg.FollowUpOffsets)
	state, err := before.AddApplication(app, shared.XPSubmit)
	if err != nil {
		return r.e.unchanged(r.in), err
	}
	r.snap.State = state

	pid := r.in.ProfileID.String()
	r.emit(shared.NewQuestEvent(shared.EventQuestSubmitted, pid, r.in.Now, job.ID, job.Title, job.Company))
	r.xp(shared.XPSubmit, SourceSubmit, job.ID)
	if firstToday {
		r.emit(shared.NewQuestEvent(shared.EventFirstSubmissionToday, pid, r.in.Now, job.ID, job.Title, job.Company))
	}
	if state.Level > before.Level {
		r.emit(shared.NewLevelUpEvent(pid, r.in.Now, before.Level.Int(), state.Level.Int()))
	}
	return r.finish(job.ID), nil
}

// AddJob materialises a draft into the catalog under a fresh id, then either
// saves it or submits it.
func (e *Engine) AddJob(in Input, draft quest.Draft, action quest.Action) (Result, error) {
	if action != quest.ActionSave && action != quest.ActionSubmit {
		return e.unchanged(in), shared.ErrInvalidAction
	}

	id := e.newID()
	for in.Snapshot.Catalog.Has(id) {
		id = e.newID()
	}
	job, err := quest.NewJob(id, draft)
	if err != nil {
		return e.unchanged(in), err
	}

	r := e.begin(in)
	r.snap.Catalog = r.snap.Catalog.With(job)

	if action == quest.ActionSubmit {
		return r.submit(job)
	}

	r.snap.State = r.snap.State.SaveJob(job.ID)
	r.emit(shared.NewQuestEvent(shared.EventQuestSaved, in.ProfileID.String(), in.Now, job.ID, job.Title, job.Company))
	return r.finish(job.ID), nil
}

// DeleteSavedJob drops a job from the saved list. The catalog entry is removed
// too unless an application still references it.
func (e *Engine) DeleteSavedJob(in Input, jobID string) (Result, error) {
	saved := in.Snapshot.State.IsSaved(jobID)
	applied := in.Snapshot.State.HasApplied(jobID)
	inCatalog := in.Snapshot.Catalog.Has(jobID)
	if !saved && (applied || !inCatalog) {
		return e.unchanged(in), nil
	}

	r := e.begin(in)
	job, _ := r.snap.Catalog.Get(jobID)
	r.snap.State = r.snap.State.UnsaveJob(jobID)
	if !applied {
		r.snap.Catalog = r.snap.Catalog.Without(jobID)
	}
	r.emit(shared.NewQuestEvent(shared.EventQuestRemoved, in.ProfileID.String(), in.Now, jobID, job.Title, job.Company))
	return r.finish(""), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATIONS
// ══════════════════════════════════════════════════════════════════════════════

// findApplication resolves jobID to its application. A job missing from the
// catalog is ErrUnknownJob; a catalogued job never submitted is
// ErrUnknownApplication.
func findApplication(in Input, jobID string) (progress.Application, error) {
	if !in.Snapshot.Catalog.Has(jobID) {
		return progress.Application{}, shared.ErrUnknownJob
	}
	app, ok := in.Snapshot.State.Applications[jobID]
	if !ok {
		return progress.Application{}, shared.ErrUnknownApplication
	}
	return app, nil
}

// mergeFollowUps keeps the follow-up set fixed at submission. Entries from
// next replace their old counterparts by id, ids unknown to old are dropped,
// and completion never reverts.
func mergeFollowUps(old, next followup.List) followup.List {
	out := old.Clone()
	for i, prev := range out {
		if fu, found := next.Find(prev.ID); found {
			out[i] = fu
		}
		out[i].Completed = out[i].Completed || prev.Completed
	}
	return out
}

// UpdateApplication replaces the application for jobID. Moving into Rejected
// from any other status awards the persistence XP. The follow-up set is fixed
// at submission and completion is monotonic: a follow-up completed before
// stays completed even when app omits it.
func (e *Engine) UpdateApplication(in Input, jobID string, app progress.Application) (Result, error) {
	old, err := findApplication(in, jobID)
	if err != nil {
		return e.unchanged(in), err
	}
	if !app.Status.IsValid() {
		return e.unchanged(in), shared.ErrInvalidStatus
	}
	if !progress.IsTransitionAllowed(old.Status, app.Status) {
		return e.unchanged(in), shared.WrapError("progress", "UpdateApplication", shared.ErrStateTransition,
			string(old.Status)+" -> "+string(app.Status), shared.ErrInvalidStatusTransition)
	}

	next := app.Clone()
	next.JobID = jobID
	next.FollowUps = mergeFollowUps(old.FollowUps, app.FollowUps)

	r := e.begin(in)
	state, err := r.snap.State.ReplaceApplication(next)
	if err != nil {
		return e.unchanged(in), err
	}
	pid := in.ProfileID.String()

	if old.Status != next.Status {
		r.emit(shared.NewStatusChangedEvent(pid, in.Now, jobID, string(old.Status), string(next.Status)))
		if next.Status == progress.StatusRejected {
			state.XP = state.XP.Add(shared.XPRejected)
			r.snap.State = state
			r.xp(shared.XPRejected, SourceRejected, jobID)
		}
	}
	r.snap.State = state
	r.emit(shared.NewQuestEvent(shared.EventApplicationUpdated, pid, in.Now, jobID, next.JobTitle, next.Company))
	return r.finish(""), nil
}

// SetStatus moves an application to status through UpdateApplication.
func (e *Engine) SetStatus(in Input, jobID string, status progress.Status) (Result, error) {
	old, err := findApplication(in, jobID)
	if err != nil {
		return e.unchanged(in), err
	}
	if !status.IsValid() {
		return e.unchanged(in), shared.ErrInvalidStatus
	}
	app, err := old.WithStatus(status)
	if err != nil {
		return e.unchanged(in), err
	}
	return e.UpdateApplication(in, jobID, app)
}

// CompleteFollowUp marks a follow-up done through UpdateApplication so badge
// evaluation sees it.
func (e *Engine) CompleteFollowUp(in Input, jobID, followUpID string) (Result, error) {
	old, err := findApplication(in, jobID)
	if err != nil {
		return e.unchanged(in), err
	}
	prev, found := old.FollowUps.Find(followUpID)
	if !found {
		return e.unchanged(in), shared.ErrUnknownFollowUp
	}
	if prev.Completed {
		return e.unchanged(in), nil
	}

	app := old.Clone()
	list, err := app.FollowUps.Complete(followUpID)
	if err != nil {
		return e.unchanged(in), err
	}
	app.FollowUps = list

	res, err := e.UpdateApplication(in, jobID, app)
	if err != nil {
		return res, err
	}
	res.Events = append(res.Events, shared.NewFollowUpEvent(shared.EventFollowUpCompleted,
		in.ProfileID.String(), in.Now, jobID, followUpID, app.Company, prev.DueDate, nil))
	return res, nil
}

// SnoozeFollowUp hides a follow-up for the configured snooze span.
func (e *Engine) SnoozeFollowUp(in Input, jobID, followUpID string) (Result, error) {
	old, err := findApplication(in, jobID)
	if err != nil {
		return e.unchanged(in), err
	}

	app := old.Clone()
	list, err := app.FollowUps.Snooze(followUpID, in.Now, e.cfg.SnoozeSpan)
	if err != nil {
		return e.unchanged(in), err
	}
	app.FollowUps = list
	fu, _ := list.Find(followUpID)

	res, err := e.UpdateApplication(in, jobID, app)
	if err != nil {
		return res, err
	}
	res.Events = append(res.Events, shared.NewFollowUpEvent(shared.EventFollowUpSnoozed,
		in.ProfileID.String(), in.Now, jobID, followUpID, app.Company, fu.DueDate, fu.SnoozedUntil))
	return res, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE
// ══════════════════════════════════════════════════════════════════════════════

// ResetProfile wipes the profile back to the initial state and an empty catalog.
func (e *Engine) ResetProfile(in Input) Result {
	return Result{
		Snapshot: progress.InitialSnapshot(),
		Events:   []shared.Event{shared.NewProfileResetEvent(in.ProfileID.String(), in.Now)},
		Changed:  true,
	}
}
