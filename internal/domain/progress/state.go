package progress

import (
	"sort"
	"time"

	"github.com/jobquest/jobquest/internal/domain/shared"
	"github.com/jobquest/jobquest/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GAME STATE
// ══════════════════════════════════════════════════════════════════════════════

// GameState is the per-profile progression document.
// Methods never mutate the receiver; they return an updated copy.
type GameState struct {
	XP               shared.XP              `json:"xp"`
	Level            shared.Level           `json:"level"`
	Streak           int                    `json:"streak"`
	BestStreak       int                    `json:"bestStreak"`
	LastCheckIn      *time.Time             `json:"lastCheckIn"`
	DailyMissions    map[string]bool        `json:"dailyMissions"`
	LastMissionReset string                 `json:"lastMissionReset,omitempty"`
	UnlockedBadges   []string               `json:"unlockedBadges"`
	Applications     map[string]Application `json:"applications"`
	SavedJobs        []string               `json:"savedJobs"`
}

// InitialState returns the state of a brand new profile.
func InitialState() GameState {
	return GameState{
		Level:          shared.MinLevel,
		DailyMissions:  map[string]bool{},
		UnlockedBadges: []string{},
		Applications:   map[string]Application{},
		SavedJobs:      []string{},
	}
}

// Normalize fills nil collections and re-derives the level from the
// submission count. Loaded documents pass through here.
func (s GameState) Normalize() GameState {
	if s.DailyMissions == nil {
		s.DailyMissions = map[string]bool{}
	}
	if s.UnlockedBadges == nil {
		s.UnlockedBadges = []string{}
	}
	if s.Applications == nil {
		s.Applications = map[string]Application{}
	}
	if s.SavedJobs == nil {
		s.SavedJobs = []string{}
	}
	if s.BestStreak < s.Streak {
		s.BestStreak = s.Streak
	}
	s.Level = shared.LevelForSubmissions(len(s.Applications))
	return s
}

// Clone returns a deep copy.
func (s GameState) Clone() GameState {
	out := s
	if s.LastCheckIn != nil {
		t := *s.LastCheckIn
		out.LastCheckIn = &t
	}
	out.DailyMissions = make(map[string]bool, len(s.DailyMissions))
	for k, v := range s.DailyMissions {
		out.DailyMissions[k] = v
	}
	out.UnlockedBadges = append([]string{}, s.UnlockedBadges...)
	out.Applications = make(map[string]Application, len(s.Applications))
	for k, v := range s.Applications {
		out.Applications[k] = v.Clone()
	}
	out.SavedJobs = append([]string{}, s.SavedJobs...)
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Check-in and streak
// ─────────────────────────────────────────────────────────────────────────────

// CheckInOutcome describes what a check-in did to the streak.
type CheckInOutcome struct {
	PreviousStreak int
	Continued      bool // checked in yesterday
	DaysMissed     int  // calendar days skipped when the streak restarted
}

// HasCheckedInOn reports whether the last check-in falls on now's calendar day.
func (s GameState) HasCheckedInOn(now time.Time, loc *time.Location) bool {
	return s.LastCheckIn != nil && timeutil.IsSameDay(*s.LastCheckIn, now, loc)
}

// CheckIn records today's check-in. A check-in on the day after the last one
// continues the streak. Any other gap, or no previous check-in, restarts it at 1.
// A second check-in on the same calendar day returns ErrAlreadyCheckedIn.
func (s GameState) CheckIn(now time.Time, loc *time.Location, award shared.XP) (GameState, CheckInOutcome, error) {
	if s.HasCheckedInOn(now, loc) {
		return s, CheckInOutcome{}, shared.ErrAlreadyCheckedIn
	}

	out := s.Clone()
	outcome := CheckInOutcome{PreviousStreak: s.Streak}

	switch {
	case s.LastCheckIn != nil && timeutil.IsConsecutiveDay(*s.LastCheckIn, now, loc):
		out.Streak = s.Streak + 1
		outcome.Continued = true
	default:
		out.Streak = 1
		if s.LastCheckIn != nil {
			outcome.DaysMissed = timeutil.DaysBetween(*s.LastCheckIn, now, loc) - 1
		}
	}

	if out.Streak > out.BestStreak {
		out.BestStreak = out.Streak
	}
	out.XP = out.XP.Add(award)
	checkedAt := now
	out.LastCheckIn = &checkedAt
	return out, outcome, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Daily missions
// ─────────────────────────────────────────────────────────────────────────────

// NeedsMissionReset reports whether the board was last cleared on another day.
func (s GameState) NeedsMissionReset(day string) bool {
	return s.LastMissionReset != day
}

// ResetMissions clears completed missions when day differs from the last reset.
// It reports whether anything changed.
func (s GameState) ResetMissions(day string) (GameState, bool) {
	if !s.NeedsMissionReset(day) {
		return s, false
	}
	out := s.Clone()
	out.DailyMissions = map[string]bool{}
	out.LastMissionReset = day
	return out, true
}

// IsMissionDone reports whether the mission is completed for the current day.
func (s GameState) IsMissionDone(id string) bool {
	return s.DailyMissions[id]
}

// CompleteMission marks a mission done and awards its XP. Completing an
// already done mission returns the state unchanged with done=false.
func (s GameState) CompleteMission(id string) (GameState, Mission, bool, error) {
	m, ok := FindMission(id)
	if !ok {
		return s, Mission{}, false, shared.ErrInvalidMissionID
	}
	if s.IsMissionDone(id) {
		return s, m, false, nil
	}
	out := s.Clone()
	out.DailyMissions[id] = true
	out.XP = out.XP.Add(m.XP)
	return out, m, true, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Applications
// ─────────────────────────────────────────────────────────────────────────────

// HasApplied reports whether jobID has an application.
func (s GameState) HasApplied(jobID string) bool {
	_, ok := s.Applications[jobID]
	return ok
}

// SubmissionCount is the number of applications ever submitted.
func (s GameState) SubmissionCount() int {
	return len(s.Applications)
}

// SubmissionsOn returns the applications submitted on now's calendar day,
// oldest first.
func (s GameState) SubmissionsOn(now time.Time, loc *time.Location) []Application {
	var out []Application
	for _, a := range s.Applications {
		if a.SubmittedOn(now, loc) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].JobID < out[j].JobID
		}
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out
}

// ApplicationsNewestFirst returns every application ordered by submission time, newest first.
func (s GameState) ApplicationsNewestFirst() []Application {
	out := make([]Application, 0, len(s.Applications))
	for _, a := range s.Applications {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].JobID < out[j].JobID
		}
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out
}

// AddApplication inserts a new application, drops the job from the saved list
// and re-derives the level.
func (s GameState) AddApplication(app Application, award shared.XP) (GameState, error) {
	if s.HasApplied(app.JobID) {
		return s, shared.ErrAlreadySubmitted
	}
	out := s.Clone()
	out.Applications[app.JobID] = app.Clone()
	out.SavedJobs = removeString(out.SavedJobs, app.JobID)
	out.XP = out.XP.Add(award)
	out.Level = shared.LevelForSubmissions(len(out.Applications))
	return out, nil
}

// ReplaceApplication swaps in app for its job id.
func (s GameState) ReplaceApplication(app Application) (GameState, error) {
	if !s.HasApplied(app.JobID) {
		return s, shared.ErrUnknownApplication
	}
	out := s.Clone()
	out.Applications[app.JobID] = app.Clone()
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Saved jobs
// ─────────────────────────────────────────────────────────────────────────────

// IsSaved reports whether jobID is on the saved list.
func (s GameState) IsSaved(jobID string) bool {
	for _, id := range s.SavedJobs {
		if id == jobID {
			return true
		}
	}
	return false
}

// SaveJob appends jobID to the saved list unless it is already there or applied.
func (s GameState) SaveJob(jobID string) GameState {
	if s.IsSaved(jobID) || s.HasApplied(jobID) {
		return s
	}
	out := s.Clone()
	out.SavedJobs = append(out.SavedJobs, jobID)
	return out
}

// UnsaveJob removes jobID from the saved list.
func (s GameState) UnsaveJob(jobID string) GameState {
	out := s.Clone()
	out.SavedJobs = removeString(out.SavedJobs, jobID)
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Badges
// ─────────────────────────────────────────────────────────────────────────────

// HasBadge reports whether the badge is unlocked.
func (s GameState) HasBadge(id string) bool {
	for _, b := range s.UnlockedBadges {
		if b == id {
			return true
		}
	}
	return false
}

// WithBadges appends newly unlocked badge ids, skipping ones already held.
func (s GameState) WithBadges(ids ...string) GameState {
	out := s.Clone()
	for _, id := range ids {
		if !out.HasBadge(id) {
			out.UnlockedBadges = append(out.UnlockedBadges, id)
		}
	}
	return out
}

func removeString(list []string, v string) []string {
	out := list[:0]
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
