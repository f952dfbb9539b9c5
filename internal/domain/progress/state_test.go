package progress

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobquest/jobquest/internal/domain/followup"
	"github.com/jobquest/jobquest/internal/domain/shared"
)

var (
	tokyo, _ = time.LoadLocation("Asia/Tokyo")
	day1     = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
)

func TestInitialState(t *testing.T) {
	s := InitialState()

	assert.Equal(t, shared.XP(0), s.XP)
	assert.Equal(t, shared.Level(1), s.Level)
	assert.Equal(t, 0, s.Streak)
	assert.Nil(t, s.LastCheckIn)
	assert.Empty(t, s.Applications)
	assert.NotNil(t, s.SavedJobs)
}

func TestCheckIn_Streaks(t *testing.T) {
	s := InitialState()

	s, out, err := s.CheckIn(day1, time.UTC, shared.XPDailyCheckIn)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Streak)
	assert.Equal(t, 1, s.BestStreak)
	assert.Equal(t, shared.XP(5), s.XP)
	assert.False(t, out.Continued)

	s, out, err = s.CheckIn(day1.AddDate(0, 0, 1), time.UTC, shared.XPDailyCheckIn)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Streak)
	assert.True(t, out.Continued)

	// skip a day
	s, out, err = s.CheckIn(day1.AddDate(0, 0, 3), time.UTC, shared.XPDailyCheckIn)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Streak)
	assert.Equal(t, 2, s.BestStreak)
	assert.Equal(t, 2, out.PreviousStreak)
	assert.Equal(t, 1, out.DaysMissed)
	assert.Equal(t, shared.XP(15), s.XP)
}

func TestCheckIn_SameDayRejected(t *testing.T) {
	s, _, err := InitialState().CheckIn(day1, time.UTC, shared.XPDailyCheckIn)
	require.NoError(t, err)

	again, _, err := s.CheckIn(day1.Add(10*time.Hour), time.UTC, shared.XPDailyCheckIn)
	assert.ErrorIs(t, err, shared.ErrAlreadyCheckedIn)
	assert.Equal(t, s, again)
}

func TestCheckIn_UsesConfiguredLocation(t *testing.T) {
	// 2024-05-01 14:00 UTC is 23:00 in Tokyo; 16:00 UTC is already May 2nd there.
	first := time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC)
	second := time.Date(2024, 5, 1, 16, 0, 0, 0, time.UTC)

	s, _, err := InitialState().CheckIn(first, tokyo, shared.XPDailyCheckIn)
	require.NoError(t, err)

	s, out, err := s.CheckIn(second, tokyo, shared.XPDailyCheckIn)
	require.NoError(t, err)
	assert.True(t, out.Continued)
	assert.Equal(t, 2, s.Streak)

	utc, _, err := InitialState().CheckIn(first, time.UTC, shared.XPDailyCheckIn)
	require.NoError(t, err)
	_, _, err = utc.CheckIn(second, time.UTC, shared.XPDailyCheckIn)
	assert.ErrorIs(t, err, shared.ErrAlreadyCheckedIn)
}

func TestCheckIn_DoesNotMutateReceiver(t *testing.T) {
	s := InitialState()
	_, _, err := s.CheckIn(day1, time.UTC, shared.XPDailyCheckIn)
	require.NoError(t, err)

	assert.Nil(t, s.LastCheckIn)
	assert.Equal(t, 0, s.Streak)
}

func TestMissions(t *testing.T) {
	s := InitialState()

	s, m, done, err := s.CompleteMission(MissionCheckLinkedIn)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, shared.XPMission, m.XP)
	assert.Equal(t, shared.XP(2), s.XP)

	s2, _, done, err := s.CompleteMission(MissionCheckLinkedIn)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, s, s2)

	_, _, _, err = s.CompleteMission("walk_the_dog")
	assert.ErrorIs(t, err, shared.ErrInvalidMissionID)

	reset, changed := s.ResetMissions("2024-05-02")
	assert.True(t, changed)
	assert.False(t, reset.IsMissionDone(MissionCheckLinkedIn))
	assert.Equal(t, "2024-05-02", reset.LastMissionReset)
	assert.Equal(t, s.XP, reset.XP)

	same, changed := reset.ResetMissions("2024-05-02")
	assert.False(t, changed)
	assert.Equal(t, reset, same)
}

func TestAddApplication(t *testing.T) {
	s := InitialState().SaveJob("job-1")
	require.True(t, s.IsSaved("job-1"))

	app := NewApplication("job-1", "Dev", "Acme", day1, followup.DefaultOffsets)
	s2, err := s.AddApplication(app, shared.XPSubmit)
	require.NoError(t, err)

	assert.True(t, s2.HasApplied("job-1"))
	assert.False(t, s2.IsSaved("job-1"))
	assert.True(t, s.IsSaved("job-1"))
	assert.Equal(t, shared.XP(3), s2.XP)

	_, err = s2.AddApplication(app, shared.XPSubmit)
	assert.ErrorIs(t, err, shared.ErrAlreadySubmitted)

	// applied jobs cannot be re-saved
	assert.False(t, s2.SaveJob("job-1").IsSaved("job-1"))
}

func TestLevelDerivation(t *testing.T) {
	s := InitialState()
	for n := 1; n <= 100; n++ {
		id := fmt.Sprintf("job-%d", n)
		var err error
		s, err = s.AddApplication(NewApplication(id, "t", "c", day1, nil), shared.XPSubmit)
		require.NoError(t, err)
		assert.Equal(t, shared.Level(n/10+1), s.Level, "n=%d", n)
	}
}

func TestNormalize(t *testing.T) {
	s := GameState{
		Streak:       4,
		Level:        9,
		Applications: map[string]Application{"a": {JobID: "a"}},
	}.Normalize()

	assert.Equal(t, shared.Level(1), s.Level)
	assert.Equal(t, 4, s.BestStreak)
	assert.NotNil(t, s.DailyMissions)
	assert.NotNil(t, s.UnlockedBadges)
	assert.NotNil(t, s.SavedJobs)
}

func TestWithBadges_GrowOnly(t *testing.T) {
	s := InitialState().WithBadges("unbroken")
	s = s.WithBadges("unbroken", "ronin")

	assert.Equal(t, []string{"unbroken", "ronin"}, s.UnlockedBadges)
}

func TestStatusTransitions(t *testing.T) {
	for _, from := range AllStatuses {
		for _, to := range AllStatuses {
			want := from == to || to != StatusSubmitted
			assert.Equal(t, want, IsTransitionAllowed(from, to), "%s -> %s", from, to)
		}
	}
	assert.False(t, IsTransitionAllowed("Ghosted", StatusRejected))
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("in_review")
	require.NoError(t, err)
	assert.Equal(t, StatusInReview, st)

	st, err = ParseStatus("NO RESPONSE")
	require.NoError(t, err)
	assert.Equal(t, StatusNoResponse, st)

	_, err = ParseStatus("ghosted")
	assert.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestApplication_WithStatus(t *testing.T) {
	app := NewApplication("job-1", "Dev", "Acme", day1, followup.DefaultOffsets)

	moved, err := app.WithStatus(StatusInterview)
	require.NoError(t, err)
	assert.Equal(t, StatusInterview, moved.Status)
	assert.Equal(t, StatusSubmitted, app.Status)

	_, err = moved.WithStatus(StatusSubmitted)
	assert.ErrorIs(t, err, shared.ErrInvalidStatusTransition)
	assert.ErrorIs(t, err, shared.ErrStateTransition)
}
