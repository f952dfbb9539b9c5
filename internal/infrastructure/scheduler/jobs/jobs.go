// Package jobs contains the JobQuest scheduled jobs.
package jobs

import (
	"context"
	"fmt"

	"github.com/jobquest/jobquest/internal/domain/quest"
	"github.com/jobquest/jobquest/internal/domain/shared"
)

// Job names.
const (
	FollowUpRemindersName = "followup_reminders"
	MissionResetName      = "mission_reset"
)

// ProfileLister returns the profile registry.
type ProfileLister interface {
	List(ctx context.Context) (quest.Registry, error)
}

// RunStats summarises one run over all profiles.
type RunStats struct {
	Profiles int
	Events   int
	Errors   []error
}

// err joins per-profile failures into one error.
func (s RunStats) err(job string) error {
	if len(s.Errors) == 0 {
		return nil
	}
	return fmt.Errorf("%s: %d of %d profiles failed: %w", job, len(s.Errors), s.Profiles, s.Errors[0])
}

func profileIDs(ctx context.Context, lister ProfileLister) ([]shared.ProfileID, error) {
	reg, err := lister.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	ids := make([]shared.ProfileID, 0, len(reg.Profiles))
	for _, p := range reg.Profiles {
		ids = append(ids, p.ID)
	}
	return ids, nil
}
