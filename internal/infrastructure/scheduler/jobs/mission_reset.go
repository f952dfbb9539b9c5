package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/jobquest/jobquest/internal/application/command"
	"github.com/jobquest/jobquest/internal/domain/shared"
)

// CommandExecutor runs a command against a profile.
type CommandExecutor interface {
	Execute(ctx context.Context, profileID shared.ProfileID, cmd command.Command) (*command.Result, error)
}

// MissionResetJob clears every profile's mission board at day start so the
// stored documents match what the next command would see.
type MissionResetJob struct {
	profiles ProfileLister
	executor CommandExecutor
	logger   *slog.Logger

	lastRunStats atomic.Pointer[RunStats]
}

// NewMissionResetJob creates the job.
func NewMissionResetJob(profiles ProfileLister, executor CommandExecutor, logger *slog.Logger) *MissionResetJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &MissionResetJob{
		profiles: profiles,
		executor: executor,
		logger:   logger.With("job", MissionResetName),
	}
}

// Name returns the job name.
func (j *MissionResetJob) Name() string { return MissionResetName }

// Description returns the job description.
func (j *MissionResetJob) Description() string {
	return "Resets daily missions for every profile"
}

// Run executes the job. Profiles already reset today are left untouched.
func (j *MissionResetJob) Run(ctx context.Context) error {
	ids, err := profileIDs(ctx, j.profiles)
	if err != nil {
		return fmt.Errorf("%s: %w", MissionResetName, err)
	}

	stats := &RunStats{Profiles: len(ids)}
	reset := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := j.executor.Execute(ctx, id, command.ResetMissionsCommand{})
		if err != nil {
			stats.Errors = append(stats.Errors, fmt.Errorf("profile %s: %w", id, err))
			continue
		}
		if res.Changed {
			reset++
		}
		stats.Events += len(res.Events)
	}

	j.lastRunStats.Store(stats)
	j.logger.Info("daily missions reset", "profiles", stats.Profiles, "reset", reset, "errors", len(stats.Errors))
	return stats.err(MissionResetName)
}

// LastRunStats returns the stats of the last completed run, nil before the first.
func (j *MissionResetJob) LastRunStats() *RunStats {
	return j.lastRunStats.Load()
}
