package query

import (
	"context"
	"sort"
	"time"

	"github.com/jobquest/jobquest/internal/application/engine"
	"github.com/jobquest/jobquest/internal/domain/progress"
	"github.com/jobquest/jobquest/internal/domain/shared"
	"github.com/jobquest/jobquest/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DASHBOARD QUERY
// The home screen: level, XP, streak, badge count, overdue follow-ups and
// where every application sits in the pipeline.
// ══════════════════════════════════════════════════════════════════════════════

// DashboardDTO is the profile summary.
type DashboardDTO struct {
	ProfileID string `json:"profile_id"`

	Level      int    `json:"level"`
	LevelTitle string `json:"level_title"`
	XP         int    `json:"xp"`

	// SubmissionsIntoLevel counts submissions toward the next level.
	SubmissionsIntoLevel int `json:"submissions_into_level"`
	SubmissionsPerLevel  int `json:"submissions_per_level"`
	TotalSubmissions     int `json:"total_submissions"`

	CheckedInToday bool `json:"checked_in_today"`
	Streak         int  `json:"streak"`
	BestStreak     int  `json:"best_streak"`

	BadgesUnlocked int `json:"badges_unlocked"`
	BadgesTotal    int `json:"badges_total"`

	SavedJobs int `json:"saved_jobs"`

	// OverdueFollowUps are pending follow-ups past due, oldest due first.
	OverdueFollowUps []FollowUpDTO `json:"overdue_follow_ups"`

	// StatusCounts has one entry per status in pipeline order.
	StatusCounts []StatusCountDTO `json:"status_counts"`

	GeneratedAt time.Time `json:"generated_at"`
}

// FollowUpDTO is a follow-up with the application it belongs to.
type FollowUpDTO struct {
	ID           string     `json:"id"`
	JobID        string     `json:"job_id"`
	JobTitle     string     `json:"job_title"`
	Company      string     `json:"company"`
	DueDate      time.Time  `json:"due_date"`
	DaysOverdue  int        `json:"days_overdue"`
	SnoozedUntil *time.Time `json:"snoozed_until,omitempty"`
}

// StatusCountDTO is one bar of the status histogram.
type StatusCountDTO struct {
	Status progress.Status `json:"status"`
	Count  int             `json:"count"`
}

// GetDashboardHandler handles dashboard queries.
type GetDashboardHandler struct {
	base
}

// NewGetDashboardHandler creates a new handler.
func NewGetDashboardHandler(reader SnapshotReader, eng *engine.Engine, clock timeutil.Clock) *GetDashboardHandler {
	return &GetDashboardHandler{base: newBase(reader, eng, clock)}
}

// Handle executes the query.
func (h *GetDashboardHandler) Handle(ctx context.Context, q ProfileQuery) (*DashboardDTO, error) {
	snap, now, err := h.load(ctx, q)
	if err != nil {
		return nil, err
	}
	return BuildDashboard(q.ProfileID, snap.State, h.engine.Badges().Len(), now, h.location()), nil
}

// BuildDashboard assembles the dashboard from a game state.
func BuildDashboard(profileID string, s progress.GameState, badgesTotal int, now time.Time, loc *time.Location) *DashboardDTO {
	n := s.SubmissionCount()
	return &DashboardDTO{
		ProfileID:            profileID,
		Level:                s.Level.Int(),
		LevelTitle:           s.Level.Title(),
		XP:                   s.XP.Int(),
		SubmissionsIntoLevel: shared.SubmissionsIntoLevel(n),
		SubmissionsPerLevel:  shared.SubmissionsPerLevel,
		TotalSubmissions:     n,
		CheckedInToday:       s.HasCheckedInOn(now, loc),
		Streak:               s.Streak,
		BestStreak:           s.BestStreak,
		BadgesUnlocked:       len(s.UnlockedBadges),
		BadgesTotal:          badgesTotal,
		SavedJobs:            len(s.SavedJobs),
		OverdueFollowUps:     OverdueFollowUps(s, now),
		StatusCounts:         StatusHistogram(s),
		GeneratedAt:          now,
	}
}

// OverdueFollowUps lists every overdue follow-up across all applications,
// sorted by due date. Snoozed and completed follow-ups are left out.
func OverdueFollowUps(s progress.GameState, now time.Time) []FollowUpDTO {
	out := []FollowUpDTO{}
	for _, app := range s.Applications {
		for _, fu := range app.FollowUps.Overdue(now) {
			out = append(out, FollowUpDTO{
				ID:          fu.ID,
				JobID:       app.JobID,
				JobTitle:    app.JobTitle,
				Company:     app.Company,
				DueDate:     fu.DueDate,
				DaysOverdue: int(now.Sub(fu.DueDate) / timeutil.Day),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return out
}

// StatusHistogram counts applications per status.
func StatusHistogram(s progress.GameState) []StatusCountDTO {
	counts := make(map[progress.Status]int, len(progress.AllStatuses))
	for _, app := range s.Applications {
		counts[app.Status]++
	}
	out := make([]StatusCountDTO, 0, len(progress.AllStatuses))
	for _, st := range progress.AllStatuses {
		out = append(out, StatusCountDTO{Status: st, Count: counts[st]})
	}
	return out
}
