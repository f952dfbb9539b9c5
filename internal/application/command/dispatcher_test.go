package command

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobquest/jobquest/internal/application/engine"
	"github.com/jobquest/jobquest/internal/domain/progress"
	"github.com/jobquest/jobquest/internal/domain/quest"
	"github.com/jobquest/jobquest/internal/domain/shared"
	"github.com/jobquest/jobquest/internal/infrastructure/persistence"
	"github.com/jobquest/jobquest/internal/infrastructure/persistence/memory"
	"github.com/jobquest/jobquest/pkg/logger"
	"github.com/jobquest/jobquest/pkg/timeutil"
)

var day1 = time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *recordingPublisher) Publish(ev shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []shared.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]shared.EventType, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.EventType()
	}
	return out
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

type countingRepo struct {
	progress.Repository
	mu      sync.Mutex
	saves   int
	saveErr error
}

func (r *countingRepo) Save(ctx context.Context, id shared.ProfileID, snap progress.Snapshot) error {
	r.mu.Lock()
	r.saves++
	err := r.saveErr
	r.mu.Unlock()
	if err != nil {
		return err
	}
	return r.Repository.Save(ctx, id, snap)
}

type fixture struct {
	d     *Dispatcher
	repo  *countingRepo
	pub   *recordingPublisher
	clock *timeutil.FixedClock
}

func newFixture() *fixture {
	repo := &countingRepo{Repository: persistence.NewDocumentRepository(memory.New(), "")}
	pub := &recordingPublisher{}
	clock := &timeutil.FixedClock{T: day1}
	d := NewDispatcher(DispatcherConfig{
		Engine:     engine.New(engine.DefaultConfig()),
		Repository: repo,
		Publisher:  pub,
		Clock:      clock,
		Logger:     logger.New(logger.Options{Output: &bytes.Buffer{}}),
	})
	return &fixture{d: d, repo: repo, pub: pub, clock: clock}
}

func TestExecute_CheckInPersistsAndPublishes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	res, err := f.d.Execute(ctx, "erik", CheckInCommand{})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "checkin", res.Command)
	assert.Equal(t, day1, res.ExecutedAt)
	assert.Equal(t, 1, f.repo.saves)

	// the first command of a day also stamps the mission reset
	assert.Equal(t, []shared.EventType{
		shared.EventMissionsReset,
		shared.EventXPGained,
		shared.EventStreakUpdated,
	}, f.pub.types())

	stored, err := f.d.Snapshot(ctx, "erik")
	require.NoError(t, err)
	assert.Equal(t, 5, stored.State.XP.Int())
	assert.Equal(t, 1, stored.State.Streak)
	assert.Equal(t, "2024-04-01", stored.State.LastMissionReset)
}

func TestExecute_WarningSavesNothing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.d.Execute(ctx, "erik", CheckInCommand{})
	require.NoError(t, err)
	f.pub.reset()

	f.clock.Advance(2 * time.Hour)
	res, err := f.d.Execute(ctx, "erik", CheckInCommand{})
	require.ErrorIs(t, err, shared.ErrAlreadyCheckedIn)
	assert.True(t, shared.IsWarning(err))
	require.NotNil(t, res)
	assert.False(t, res.Changed)
	assert.Equal(t, 5, res.Snapshot.State.XP.Int())
	assert.Equal(t, []shared.EventType{shared.EventCommandWarning}, f.pub.types())
	assert.Equal(t, 1, f.repo.saves)
}

func TestExecute_ErrorsReturnNoResult(t *testing.T) {
	f := newFixture()

	res, err := f.d.Execute(context.Background(), "erik", SubmitJobCommand{JobID: "ghost"})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, shared.ErrUnknownJob)
	assert.False(t, shared.IsWarning(err))
	assert.Zero(t, f.repo.saves)
	assert.Empty(t, f.pub.types())
}

func TestExecute_ValidationRunsFirst(t *testing.T) {
	f := newFixture()

	_, err := f.d.Execute(context.Background(), "erik", SubmitJobCommand{})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = f.d.Execute(context.Background(), "erik", AddJobCommand{Action: "apply"})
	assert.ErrorIs(t, err, shared.ErrInvalidAction)

	_, err = f.d.Execute(context.Background(), "bad id!", CheckInCommand{})
	assert.ErrorIs(t, err, shared.ErrInvalidProfile)

	_, err = f.d.Execute(context.Background(), "erik", SetStatusCommand{JobID: "j", Status: "Ghosted"})
	assert.ErrorIs(t, err, shared.ErrInvalidStatus)
	assert.Zero(t, f.repo.saves)
}

func TestExecute_DailyMissionResetBeforeCommand(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.d.Execute(ctx, "erik", CompleteMissionCommand{MissionID: progress.MissionCheckLinkedIn})
	require.NoError(t, err)

	f.clock.Set(day1.AddDate(0, 0, 1))
	res, err := f.d.Execute(ctx, "erik", CompleteMissionCommand{MissionID: progress.MissionCheckIndeed})
	require.NoError(t, err)

	assert.False(t, res.Snapshot.State.IsMissionDone(progress.MissionCheckLinkedIn))
	assert.True(t, res.Snapshot.State.IsMissionDone(progress.MissionCheckIndeed))
	assert.Equal(t, shared.EventMissionsReset, res.Events[0].EventType())
	assert.Equal(t, 4, res.Snapshot.State.XP.Int())
}

func TestExecute_ResetMissionsOnlyWritesOncePerDay(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	res, err := f.d.Execute(ctx, "erik", ResetMissionsCommand{})
	require.NoError(t, err)
	assert.True(t, res.Changed)

	res, err = f.d.Execute(ctx, "erik", ResetMissionsCommand{})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Empty(t, res.Events)
	assert.Equal(t, 1, f.repo.saves)
}

func TestExecute_AddJobReturnsMintedID(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	res, err := f.d.Execute(ctx, "erik", AddJobCommand{
		Draft:  quest.Draft{Title: "Localization Producer", Company: "Kitsune"},
		Action: quest.ActionSubmit,
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.JobID)

	stored, err := f.d.Snapshot(ctx, "erik")
	require.NoError(t, err)
	assert.True(t, stored.State.HasApplied(res.JobID))
	assert.Equal(t, "Kitsune", stored.Catalog[res.JobID].Company)

	_, err = f.d.Execute(ctx, "erik", SubmitJobCommand{JobID: res.JobID})
	assert.ErrorIs(t, err, shared.ErrAlreadySubmitted)
}

func TestExecute_SaveFailureLeavesStateUntouched(t *testing.T) {
	f := newFixture()
	f.repo.saveErr = errors.New("disk full")

	res, err := f.d.Execute(context.Background(), "erik", CheckInCommand{})
	assert.Nil(t, res)
	assert.ErrorContains(t, err, "disk full")
	assert.Empty(t, f.pub.types())

	f.repo.saveErr = nil
	stored, err := f.d.Snapshot(context.Background(), "erik")
	require.NoError(t, err)
	assert.Zero(t, stored.State.XP)
	assert.Nil(t, stored.State.LastCheckIn)
}

func TestExecute_FollowUpFlow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	add, err := f.d.Execute(ctx, "erik", AddJobCommand{Draft: quest.Draft{Company: "Acme"}, Action: quest.ActionSubmit})
	require.NoError(t, err)
	fu1 := add.JobID + "-fu1"

	f.clock.Set(day1.AddDate(0, 0, 4))
	res, err := f.d.Execute(ctx, "erik", SnoozeFollowUpCommand{JobID: add.JobID, FollowUpID: fu1})
	require.NoError(t, err)
	fu, _ := res.Snapshot.State.Applications[add.JobID].FollowUps.Find(fu1)
	require.NotNil(t, fu.SnoozedUntil)
	assert.Equal(t, f.clock.Now().Add(3*timeutil.Day), *fu.SnoozedUntil)

	res, err = f.d.Execute(ctx, "erik", CompleteFollowUpCommand{JobID: add.JobID, FollowUpID: fu1})
	require.NoError(t, err)
	fu, _ = res.Snapshot.State.Applications[add.JobID].FollowUps.Find(fu1)
	assert.True(t, fu.Completed)

	res, err = f.d.Execute(ctx, "erik", SetStatusCommand{JobID: add.JobID, Status: progress.StatusRejected})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Snapshot.State.XP.Int())
}

func TestExecute_SerializesPerProfile(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.d.Execute(ctx, "erik", AddJobCommand{Action: quest.ActionSubmit})
			assert.NoError(t, err)
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.d.Execute(ctx, "zack", AddJobCommand{Action: quest.ActionSave})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	erik, err := f.d.Snapshot(ctx, "erik")
	require.NoError(t, err)
	assert.Len(t, erik.State.Applications, n)
	assert.Equal(t, shared.Level(3), erik.State.Level)

	zack, err := f.d.Snapshot(ctx, "zack")
	require.NoError(t, err)
	assert.Len(t, zack.State.SavedJobs, n)
	assert.Empty(t, zack.State.Applications)
}

func TestExecute_ResetProfile(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.d.Execute(ctx, "erik", AddJobCommand{Action: quest.ActionSave})
	require.NoError(t, err)

	res, err := f.d.Execute(ctx, "erik", ResetProfileCommand{})
	require.NoError(t, err)
	assert.Empty(t, res.Snapshot.Catalog)

	stored, err := f.d.Snapshot(ctx, "erik")
	require.NoError(t, err)
	assert.Empty(t, stored.State.SavedJobs)
	assert.Empty(t, stored.Catalog)
}
