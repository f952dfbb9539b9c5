package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobquest/jobquest/internal/application/engine"
	"github.com/jobquest/jobquest/internal/domain/badge"
	"github.com/jobquest/jobquest/internal/domain/followup"
	"github.com/jobquest/jobquest/internal/domain/progress"
	"github.com/jobquest/jobquest/internal/domain/quest"
	"github.com/jobquest/jobquest/internal/domain/shared"
	"github.com/jobquest/jobquest/pkg/timeutil"
)

var now = time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

type fakeReader map[shared.ProfileID]progress.Snapshot

func (f fakeReader) Snapshot(_ context.Context, id shared.ProfileID) (progress.Snapshot, error) {
	if snap, ok := f[id]; ok {
		return snap, nil
	}
	return progress.InitialSnapshot(), nil
}

func apply(t *testing.T, snap progress.Snapshot, id, title, company string, at time.Time) progress.Snapshot {
	t.Helper()
	job, err := quest.NewJob(id, quest.Draft{Title: title, Company: company, URL: "https://jobs.example/" + id})
	require.NoError(t, err)
	snap.Catalog = snap.Catalog.With(job)
	snap.State, err = snap.State.AddApplication(
		progress.NewApplication(id, job.Title, job.Company, at, followup.DefaultOffsets), shared.XPSubmit)
	require.NoError(t, err)
	return snap
}

func fixture(t *testing.T) fakeReader {
	snap := progress.InitialSnapshot()
	snap = apply(t, snap, "a", "Translator", "Kitsune", now.AddDate(0, 0, -12))
	snap = apply(t, snap, "b", "Producer", "Tanuki", now.AddDate(0, 0, -5))
	snap = apply(t, snap, "c", "QA", "Oni", now.Add(-time.Hour))

	// b's first follow-up is snoozed
	fus, err := snap.State.Applications["b"].FollowUps.Snooze("b-fu1", now.Add(-time.Hour), 3*timeutil.Day)
	require.NoError(t, err)
	b := snap.State.Applications["b"]
	b.FollowUps = fus
	b.Status = progress.StatusInterview
	snap.State.Applications["b"] = b

	last := now.Add(-2 * time.Hour)
	snap.State.LastCheckIn = &last
	snap.State.Streak = 4
	snap.State.BestStreak = 6
	snap.State = snap.State.WithBadges(badge.Unbroken)

	saved, err := quest.NewJob("s", quest.Draft{Title: "Writer"})
	require.NoError(t, err)
	snap.Catalog = snap.Catalog.With(saved)
	snap.State = snap.State.SaveJob("s").SaveJob("gone")

	snap.State.DailyMissions = map[string]bool{progress.MissionCheckIndeed: true}
	snap.State.LastMissionReset = timeutil.DateKey(now, time.UTC)
	return fakeReader{"erik": snap}
}

func TestGetDashboard(t *testing.T) {
	h := NewGetDashboardHandler(fixture(t), engine.New(engine.DefaultConfig()), &timeutil.FixedClock{T: now})

	got, err := h.Handle(context.Background(), ProfileQuery{ProfileID: "erik"})
	require.NoError(t, err)

	assert.Equal(t, 1, got.Level)
	assert.Equal(t, 9, got.XP)
	assert.Equal(t, 3, got.TotalSubmissions)
	assert.Equal(t, 3, got.SubmissionsIntoLevel)
	assert.True(t, got.CheckedInToday)
	assert.Equal(t, 4, got.Streak)
	assert.Equal(t, 6, got.BestStreak)
	assert.Equal(t, 1, got.BadgesUnlocked)
	assert.Equal(t, 4, got.BadgesTotal)
	assert.Equal(t, 2, got.SavedJobs)

	// a-fu1 (due -9d) and a-fu2 (due -2d); b-fu1 is snoozed, c is fresh
	require.Len(t, got.OverdueFollowUps, 2)
	assert.Equal(t, "a-fu1", got.OverdueFollowUps[0].ID)
	assert.Equal(t, 9, got.OverdueFollowUps[0].DaysOverdue)
	assert.Equal(t, "a-fu2", got.OverdueFollowUps[1].ID)
	assert.Equal(t, "Kitsune", got.OverdueFollowUps[1].Company)

	require.Len(t, got.StatusCounts, len(progress.AllStatuses))
	assert.Equal(t, StatusCountDTO{Status: progress.StatusSubmitted, Count: 2}, got.StatusCounts[0])
	assert.Equal(t, StatusCountDTO{Status: progress.StatusInterview, Count: 1}, got.StatusCounts[2])
}

func TestGetDashboard_NewProfile(t *testing.T) {
	h := NewGetDashboardHandler(fakeReader{}, nil, &timeutil.FixedClock{T: now})

	got, err := h.Handle(context.Background(), ProfileQuery{ProfileID: "zack"})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Level)
	assert.Zero(t, got.XP)
	assert.False(t, got.CheckedInToday)
	assert.Empty(t, got.OverdueFollowUps)
}

func TestGetDashboard_InvalidProfile(t *testing.T) {
	h := NewGetDashboardHandler(fakeReader{}, nil, nil)

	_, err := h.Handle(context.Background(), ProfileQuery{ProfileID: ""})
	assert.ErrorIs(t, err, shared.ErrEmptyValue)
}

func TestGetQuestLog(t *testing.T) {
	h := NewGetQuestLogHandler(fixture(t), nil, &timeutil.FixedClock{T: now})

	got, err := h.Handle(context.Background(), ProfileQuery{ProfileID: "erik"})
	require.NoError(t, err)

	require.Len(t, got.Applications, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{
		got.Applications[0].JobID, got.Applications[1].JobID, got.Applications[2].JobID,
	})
	assert.Equal(t, "https://jobs.example/c", got.Applications[0].URL)

	// snoozed fu1 is skipped, so b's next follow-up is fu2
	require.NotNil(t, got.Applications[1].NextFollowUp)
	assert.Equal(t, "b-fu2", got.Applications[1].NextFollowUp.ID)
	assert.Zero(t, got.Applications[1].NextFollowUp.DaysOverdue)

	require.NotNil(t, got.Applications[2].NextFollowUp)
	assert.Equal(t, "a-fu1", got.Applications[2].NextFollowUp.ID)
	assert.Equal(t, 9, got.Applications[2].NextFollowUp.DaysOverdue)
	assert.Equal(t, 2, got.Applications[2].FollowUpsTotal)

	require.Len(t, got.SavedJobs, 1)
	assert.Equal(t, "Writer", got.SavedJobs[0].Title)
	assert.Equal(t, []string{"gone"}, got.MissingSaved)
}

func TestGetMissionsBoard(t *testing.T) {
	reader := fixture(t)
	clock := &timeutil.FixedClock{T: now}
	h := NewGetMissionsBoardHandler(reader, nil, clock)

	got, err := h.Handle(context.Background(), ProfileQuery{ProfileID: "erik"})
	require.NoError(t, err)
	require.Len(t, got.Missions, 5)
	assert.Equal(t, 1, got.Done)
	assert.False(t, got.AllDone)
	assert.True(t, got.Missions[1].Done)
	assert.Equal(t, 2, got.Missions[0].XP)

	// a stale board reads as cleared on the next day
	clock.Set(now.AddDate(0, 0, 1))
	got, err = h.Handle(context.Background(), ProfileQuery{ProfileID: "erik"})
	require.NoError(t, err)
	assert.Zero(t, got.Done)
	assert.Equal(t, "2024-05-21", got.Day)
}

func TestGetMissionsBoard_AllDone(t *testing.T) {
	snap := progress.InitialSnapshot()
	snap.State.LastMissionReset = "2024-05-20"
	for _, m := range progress.DailyMissions() {
		snap.State.DailyMissions[m.ID] = true
	}
	h := NewGetMissionsBoardHandler(fakeReader{"erik": snap}, nil, &timeutil.FixedClock{T: now})

	got, err := h.Handle(context.Background(), ProfileQuery{ProfileID: "erik"})
	require.NoError(t, err)
	assert.True(t, got.AllDone)
}

func TestGetBadgeGallery(t *testing.T) {
	h := NewGetBadgeGalleryHandler(fixture(t), nil, &timeutil.FixedClock{T: now})

	got, err := h.Handle(context.Background(), ProfileQuery{ProfileID: "erik"})
	require.NoError(t, err)
	assert.Equal(t, 4, got.Total)
	assert.Equal(t, 1, got.Unlocked)
	require.Len(t, got.Badges, 4)
	assert.Equal(t, badge.SpeedRunner, got.Badges[0].ID)
	assert.False(t, got.Badges[0].Unlocked)
	assert.True(t, got.Badges[1].Unlocked)
	assert.Equal(t, "Follow-Up Ninja", got.Badges[3].Name)
}
