package command

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobquest/jobquest/internal/domain/quest"
	"github.com/jobquest/jobquest/internal/domain/shared"
	"github.com/jobquest/jobquest/internal/infrastructure/persistence"
	"github.com/jobquest/jobquest/internal/infrastructure/persistence/memory"
	"github.com/jobquest/jobquest/pkg/logger"
	"github.com/jobquest/jobquest/pkg/timeutil"
)

func newProfileService() (*ProfileService, *recordingPublisher) {
	pub := &recordingPublisher{}
	repo := persistence.NewDocumentRepository(memory.New(), "")
	svc := NewProfileService(repo, pub, &timeutil.FixedClock{T: day1}, logger.New(logger.Options{Output: &bytes.Buffer{}}))
	return svc, pub
}

func TestProfileService_DefaultRegistry(t *testing.T) {
	svc, _ := newProfileService()

	reg, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, reg.Profiles, 2)

	active, err := svc.Active(context.Background())
	require.NoError(t, err)
	assert.Equal(t, shared.ProfileID("erik"), active.ID)
}

func TestProfileService_Create(t *testing.T) {
	svc, pub := newProfileService()
	svc.newID = func() string { return "minted" }
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateProfileCommand{
		Name:        "  Mika ",
		Preferences: quest.Preferences{Keywords: []string{"go"}},
	})
	require.NoError(t, err)
	assert.Equal(t, shared.ProfileID("minted"), p.ID)
	assert.Equal(t, "Mika", p.Name)
	assert.Equal(t, []shared.EventType{shared.EventProfileCreated}, pub.types())

	reg, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, reg.Profiles, 3)
	assert.Equal(t, shared.ProfileID("erik"), reg.ActiveID)

	_, err = svc.Create(ctx, CreateProfileCommand{ID: "ERIK", Name: "Other Erik"})
	assert.ErrorIs(t, err, shared.ErrProfileExists)
}

func TestProfileService_CreateAndActivate(t *testing.T) {
	svc, pub := newProfileService()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateProfileCommand{ID: "mika", Name: "Mika", Activate: true})
	require.NoError(t, err)
	assert.Equal(t, []shared.EventType{shared.EventProfileCreated, shared.EventProfileSwitched}, pub.types())

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, shared.ProfileID("mika"), active.ID)
}

func TestProfileService_CreateValidation(t *testing.T) {
	svc, pub := newProfileService()

	_, err := svc.Create(context.Background(), CreateProfileCommand{Name: " "})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), CreateProfileCommand{ID: "no spaces", Name: "X"})
	assert.ErrorIs(t, err, shared.ErrInvalidID)
	assert.Empty(t, pub.types())
}

func TestProfileService_Switch(t *testing.T) {
	svc, pub := newProfileService()
	ctx := context.Background()

	p, err := svc.Switch(ctx, "zack")
	require.NoError(t, err)
	assert.Equal(t, "Zack", p.Name)
	assert.Equal(t, []shared.EventType{shared.EventProfileSwitched}, pub.types())

	// already active: nothing written or published
	_, err = svc.Switch(ctx, "zack")
	require.NoError(t, err)
	assert.Len(t, pub.types(), 1)

	_, err = svc.Switch(ctx, "nobody")
	assert.ErrorIs(t, err, shared.ErrProfileNotFound)

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, shared.ProfileID("zack"), active.ID)
}
