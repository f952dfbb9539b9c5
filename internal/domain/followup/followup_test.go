package followup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobquest/jobquest/internal/domain/shared"
	"github.com/jobquest/jobquest/pkg/timeutil"
)

var t0 = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

func TestSchedule(t *testing.T) {
	l := Schedule("job-7", t0, DefaultOffsets)
	require.Len(t, l, 2)

	assert.Equal(t, "job-7-fu1", l[0].ID)
	assert.Equal(t, t0.Add(3*timeutil.Day), l[0].DueDate)
	assert.Equal(t, "job-7-fu2", l[1].ID)
	assert.Equal(t, t0.Add(10*timeutil.Day), l[1].DueDate)
	assert.False(t, l[0].Completed)
	assert.Nil(t, l[0].SnoozedUntil)
}

func TestPendingAndOverdue(t *testing.T) {
	f := FollowUp{ID: "a", DueDate: t0}

	assert.True(t, f.IsPending(t0.Add(-time.Hour)))
	assert.False(t, f.IsOverdue(t0.Add(-time.Hour)))
	assert.True(t, f.IsOverdue(t0.Add(time.Hour)))

	f.Completed = true
	assert.False(t, f.IsPending(t0.Add(time.Hour)))
	assert.False(t, f.IsOverdue(t0.Add(time.Hour)))
}

func TestSnooze_HidesUntilExpiry(t *testing.T) {
	l := Schedule("job-1", t0, DefaultOffsets)
	now := t0.Add(4 * timeutil.Day)
	require.True(t, l[0].IsOverdue(now))

	snoozed, err := l.Snooze("job-1-fu1", now, 0)
	require.NoError(t, err)

	// input untouched
	assert.Nil(t, l[0].SnoozedUntil)

	fu := snoozed[0]
	require.NotNil(t, fu.SnoozedUntil)
	assert.Equal(t, now.Add(DefaultSnoozeSpan), *fu.SnoozedUntil)
	assert.Equal(t, l[0].DueDate, fu.DueDate)

	assert.False(t, fu.IsPending(now.Add(1*timeutil.Day)))
	assert.False(t, fu.IsOverdue(now.Add(1*timeutil.Day)))
	assert.True(t, fu.IsPending(now.Add(3*timeutil.Day+time.Second)))
	assert.True(t, fu.IsOverdue(now.Add(3*timeutil.Day+time.Second)))
}

func TestComplete_IsIrreversibleAndIdempotent(t *testing.T) {
	l := Schedule("job-1", t0, DefaultOffsets)

	done, err := l.Complete("job-1-fu2")
	require.NoError(t, err)
	assert.True(t, done[1].Completed)
	assert.False(t, done[0].Completed)
	assert.False(t, l[1].Completed)

	again, err := done.Complete("job-1-fu2")
	require.NoError(t, err)
	assert.Equal(t, done, again)
}

func TestUnknownID(t *testing.T) {
	l := Schedule("job-1", t0, DefaultOffsets)

	_, err := l.Complete("nope")
	assert.ErrorIs(t, err, shared.ErrUnknownFollowUp)
	assert.True(t, shared.IsNotFound(err))

	_, err = l.Snooze("nope", t0, time.Hour)
	assert.ErrorIs(t, err, shared.ErrUnknownFollowUp)
}

func TestNextPending(t *testing.T) {
	l := List{
		{ID: "late", DueDate: t0.Add(5 * timeutil.Day)},
		{ID: "early-a", DueDate: t0.Add(1 * timeutil.Day)},
		{ID: "early-b", DueDate: t0.Add(1 * timeutil.Day)},
	}

	next, ok := l.NextPending(t0)
	require.True(t, ok)
	assert.Equal(t, "early-a", next.ID)

	l[1].Completed = true
	next, ok = l.NextPending(t0)
	require.True(t, ok)
	assert.Equal(t, "early-b", next.ID)

	l[2].Completed = true
	l[0].Completed = true
	_, ok = l.NextPending(t0)
	assert.False(t, ok)
}

func TestCompletedWithin(t *testing.T) {
	now := t0.Add(20 * timeutil.Day)
	l := List{
		{ID: "a", DueDate: now.Add(-1 * timeutil.Day), Completed: true},
		{ID: "b", DueDate: now.Add(-7 * timeutil.Day), Completed: true},
		{ID: "c", DueDate: now.Add(-8 * timeutil.Day), Completed: true},
		{ID: "d", DueDate: now.Add(1 * timeutil.Day), Completed: true},
		{ID: "e", DueDate: now.Add(-2 * timeutil.Day)},
	}

	assert.Equal(t, 2, l.CompletedWithin(shared.LastNDays(now, 7)))
}
