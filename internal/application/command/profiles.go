package command

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jobquest/jobquest/internal/domain/progress"
	"github.com/jobquest/jobquest/internal/domain/quest"
	"github.com/jobquest/jobquest/internal/domain/shared"
	"github.com/jobquest/jobquest/pkg/logger"
	"github.com/jobquest/jobquest/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILES
// Onboarding and switching between job seekers. The registry is a separate
// document from any profile's game state.
// ══════════════════════════════════════════════════════════════════════════════

// CreateProfileCommand contains the data for onboarding a new profile.
type CreateProfileCommand struct {
	// ID is optional. A random id is minted when empty.
	ID string

	// Name is the display name.
	Name string

	// Preferences describe the jobs the profile is looking for.
	Preferences quest.Preferences

	// Activate switches to the new profile right away.
	Activate bool
}

// Validate validates the command.
func (c CreateProfileCommand) Validate() error {
	if err := required("create_profile", "name", c.Name); err != nil {
		return err
	}
	if c.ID != "" && !shared.ProfileID(c.ID).IsValid() {
		return shared.NewDomainError("command", "create_profile", shared.ErrInvalidID, "profile id must be alphanumeric")
	}
	return nil
}

// ProfileService manages the profile registry.
type ProfileService struct {
	repo      progress.ProfileRepository
	publisher shared.EventPublisher
	clock     timeutil.Clock
	log       *logger.Logger
	newID     func() string

	mu sync.Mutex
}

// NewProfileService creates a new ProfileService. Publisher is optional.
func NewProfileService(repo progress.ProfileRepository, publisher shared.EventPublisher, clock timeutil.Clock, log *logger.Logger) *ProfileService {
	if clock == nil {
		clock = timeutil.SystemClock{}
	}
	if log == nil {
		log = logger.Default()
	}
	return &ProfileService{
		repo:      repo,
		publisher: publisher,
		clock:     clock,
		log:       log.With(logger.Component("profiles")),
		newID:     uuid.NewString,
	}
}

// List returns the registry.
func (s *ProfileService) List(ctx context.Context) (quest.Registry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, err := s.repo.LoadRegistry(ctx)
	if err != nil {
		return quest.Registry{}, fmt.Errorf("list profiles: %w", err)
	}
	return reg, nil
}

// Active returns the active profile.
func (s *ProfileService) Active(ctx context.Context) (quest.Profile, error) {
	reg, err := s.List(ctx)
	if err != nil {
		return quest.Profile{}, err
	}
	p, ok := reg.Active()
	if !ok {
		return quest.Profile{}, shared.ErrProfileNotFound
	}
	return p, nil
}

// Create adds a profile to the registry.
func (s *ProfileService) Create(ctx context.Context, cmd CreateProfileCommand) (quest.Profile, error) {
	if err := cmd.Validate(); err != nil {
		return quest.Profile{}, fmt.Errorf("create_profile: validation failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reg, err := s.repo.LoadRegistry(ctx)
	if err != nil {
		return quest.Profile{}, fmt.Errorf("create_profile: load registry: %w", err)
	}

	id := cmd.ID
	if id == "" {
		id = s.newID()
	}
	p := quest.Profile{
		ID:          shared.ProfileID(id),
		Name:        strings.TrimSpace(cmd.Name),
		Preferences: cmd.Preferences,
	}

	next, err := reg.Add(p)
	if err != nil {
		return quest.Profile{}, fmt.Errorf("create_profile: %w", err)
	}
	if cmd.Activate {
		if next, err = next.Switch(p.ID); err != nil {
			return quest.Profile{}, fmt.Errorf("create_profile: %w", err)
		}
	}
	if err := s.repo.SaveRegistry(ctx, next); err != nil {
		return quest.Profile{}, fmt.Errorf("create_profile: save registry: %w", err)
	}

	now := s.clock.Now()
	s.publish(shared.NewProfileEvent(shared.EventProfileCreated, p.ID.String(), now, p.Name))
	if cmd.Activate {
		s.publish(shared.NewProfileEvent(shared.EventProfileSwitched, p.ID.String(), now, p.Name))
	}
	s.log.Info("profile created", logger.ProfileID(p.ID.String()), logger.Bool("activated", cmd.Activate))
	return p, nil
}

// Switch makes id the active profile.
func (s *ProfileService) Switch(ctx context.Context, id shared.ProfileID) (quest.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, err := s.repo.LoadRegistry(ctx)
	if err != nil {
		return quest.Profile{}, fmt.Errorf("switch_profile: load registry: %w", err)
	}
	next, err := reg.Switch(id)
	if err != nil {
		return quest.Profile{}, fmt.Errorf("switch_profile: %w", err)
	}
	p, _ := next.Find(id)
	if reg.ActiveID == id {
		return p, nil
	}
	if err := s.repo.SaveRegistry(ctx, next); err != nil {
		return quest.Profile{}, fmt.Errorf("switch_profile: save registry: %w", err)
	}

	s.publish(shared.NewProfileEvent(shared.EventProfileSwitched, id.String(), s.clock.Now(), p.Name))
	s.log.Info("profile switched", logger.ProfileID(id.String()))
	return p, nil
}

func (s *ProfileService) publish(ev shared.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ev); err != nil {
		s.log.Warn("failed to publish event", logger.Err(err))
	}
}
