package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobquest/jobquest/internal/domain/followup"
	"github.com/jobquest/jobquest/internal/domain/progress"
	"github.com/jobquest/jobquest/internal/domain/quest"
	"github.com/jobquest/jobquest/internal/domain/shared"
	"github.com/jobquest/jobquest/internal/infrastructure/persistence"
	"github.com/jobquest/jobquest/internal/infrastructure/persistence/memory"
)

func newRepo() (*persistence.DocumentRepository, *memory.Store) {
	store := memory.New()
	return persistence.NewDocumentRepository(store, persistence.DefaultKeyPrefix), store
}

func TestLoad_MissingDocumentsYieldInitialSnapshot(t *testing.T) {
	repo, _ := newRepo()

	snap, err := repo.Load(context.Background(), "erik")
	require.NoError(t, err)
	assert.Equal(t, progress.InitialSnapshot(), snap)
}

func TestSaveLoad(t *testing.T) {
	repo, store := newRepo()
	ctx := context.Background()
	at := time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)

	job, err := quest.NewJob("job-1", quest.Draft{Title: "Localization Lead", Company: "Kitsune"})
	require.NoError(t, err)

	state := progress.InitialState()
	state, err = state.AddApplication(progress.NewApplication(job.ID, job.Title, job.Company, at, followup.DefaultOffsets), shared.XPSubmit)
	require.NoError(t, err)
	state, _, err = state.CheckIn(at, time.UTC, shared.XPDailyCheckIn)
	require.NoError(t, err)

	snap := progress.Snapshot{State: state, Catalog: quest.NewCatalog().With(job)}
	require.NoError(t, repo.Save(ctx, "erik", snap))
	assert.Equal(t, 2, store.Len())

	raw, found, err := store.Get(ctx, "jobquest:gamestate:erik")
	require.NoError(t, err)
	require.True(t, found)
	assert.Contains(t, string(raw), `"dueDate":"2024-06-13T09:30:00Z"`)
	assert.Contains(t, string(raw), `"lastCheckIn":"2024-06-10T09:30:00Z"`)

	got, err := repo.Load(ctx, "erik")
	require.NoError(t, err)
	assert.Equal(t, 8, got.State.XP.Int())
	assert.Equal(t, 1, got.State.Streak)
	assert.True(t, got.State.LastCheckIn.Equal(at))
	app := got.State.Applications["job-1"]
	assert.Equal(t, progress.StatusSubmitted, app.Status)
	require.Len(t, app.FollowUps, 2)
	assert.Equal(t, "job-1-fu2", app.FollowUps[1].ID)
	assert.Equal(t, "Kitsune", got.Catalog["job-1"].Company)

	other, err := repo.Load(ctx, "zack")
	require.NoError(t, err)
	assert.Zero(t, other.State.XP)
}

func TestLoad_RederivesLevel(t *testing.T) {
	repo, store := newRepo()
	ctx := context.Background()

	require.NoError(t, store.PutAll(ctx, map[string][]byte{
		"jobquest:gamestate:erik": []byte(`{"xp":10,"level":7,"streak":2,"applications":null}`),
	}))

	snap, err := repo.Load(ctx, "erik")
	require.NoError(t, err)
	assert.Equal(t, shared.Level(1), snap.State.Level)
	assert.Equal(t, 2, snap.State.BestStreak)
	assert.NotNil(t, snap.State.Applications)
	assert.NotNil(t, snap.Catalog)
}

func TestLoad_CorruptDocument(t *testing.T) {
	repo, store := newRepo()
	ctx := context.Background()
	require.NoError(t, store.PutAll(ctx, map[string][]byte{"jobquest:jobs:erik": []byte(`{not json`)}))

	_, err := repo.Load(ctx, "erik")
	assert.ErrorIs(t, err, shared.ErrInvalidFormat)
}

func TestRegistry_DefaultsAndRoundTrip(t *testing.T) {
	repo, _ := newRepo()
	ctx := context.Background()

	reg, err := repo.LoadRegistry(ctx)
	require.NoError(t, err)
	assert.Equal(t, quest.NewDefaultRegistry(), reg)

	reg, err = reg.Add(quest.Profile{ID: "mika", Name: "Mika"})
	require.NoError(t, err)
	reg, err = reg.Switch("mika")
	require.NoError(t, err)
	require.NoError(t, repo.SaveRegistry(ctx, reg))

	got, err := repo.LoadRegistry(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Profiles, 3)
	assert.Equal(t, shared.ProfileID("mika"), got.ActiveID)
}

func TestRegistry_UnknownActiveFallsBack(t *testing.T) {
	repo, store := newRepo()
	ctx := context.Background()
	require.NoError(t, store.PutAll(ctx, map[string][]byte{
		"jobquest:active_profile": []byte(`"ghost"`),
	}))

	reg, err := repo.LoadRegistry(ctx)
	require.NoError(t, err)
	assert.Equal(t, shared.ProfileID("erik"), reg.ActiveID)
}

func TestKeys(t *testing.T) {
	k := persistence.Keys{Prefix: "t:"}
	assert.Equal(t, "t:gamestate:erik", k.GameState("erik"))
	assert.Equal(t, "t:jobs:erik", k.Jobs("erik"))
	assert.Equal(t, "t:profiles", k.Profiles())
	assert.Equal(t, "t:active_profile", k.ActiveProfile())
}
