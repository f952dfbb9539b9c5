package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/jobquest/jobquest/internal/application/query"
	"github.com/jobquest/jobquest/internal/domain/shared"
	"github.com/jobquest/jobquest/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// FOLLOW-UP REMINDERS JOB
// ══════════════════════════════════════════════════════════════════════════════

// FollowUpRemindersJob publishes a followup.due event for every overdue
// follow-up of every profile. It never writes state.
type FollowUpRemindersJob struct {
	profiles  ProfileLister
	reader    query.SnapshotReader
	publisher shared.EventPublisher
	clock     timeutil.Clock
	logger    *slog.Logger

	lastRunStats atomic.Pointer[RunStats]
}

// NewFollowUpRemindersJob creates the job.
func NewFollowUpRemindersJob(profiles ProfileLister, reader query.SnapshotReader, publisher shared.EventPublisher, clock timeutil.Clock, logger *slog.Logger) *FollowUpRemindersJob {
	if clock == nil {
		clock = timeutil.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FollowUpRemindersJob{
		profiles:  profiles,
		reader:    reader,
		publisher: publisher,
		clock:     clock,
		logger:    logger.With("job", FollowUpRemindersName),
	}
}

// Name returns the job name.
func (j *FollowUpRemindersJob) Name() string { return FollowUpRemindersName }

// Description returns the job description.
func (j *FollowUpRemindersJob) Description() string {
	return "Publishes a reminder for every overdue follow-up"
}

// Run executes the job.
func (j *FollowUpRemindersJob) Run(ctx context.Context) error {
	ids, err := profileIDs(ctx, j.profiles)
	if err != nil {
		return fmt.Errorf("%s: %w", FollowUpRemindersName, err)
	}

	now := j.clock.Now()
	stats := &RunStats{Profiles: len(ids)}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		snap, err := j.reader.Snapshot(ctx, id)
		if err != nil {
			stats.Errors = append(stats.Errors, fmt.Errorf("profile %s: %w", id, err))
			continue
		}
		for _, fu := range query.OverdueFollowUps(snap.State, now) {
			ev := shared.NewFollowUpEvent(shared.EventFollowUpDue, id.String(), now, fu.JobID, fu.ID, fu.Company, fu.DueDate, nil)
			if err := j.publisher.Publish(ev); err != nil {
				stats.Errors = append(stats.Errors, fmt.Errorf("profile %s: publish: %w", id, err))
				continue
			}
			stats.Events++
		}
	}

	j.lastRunStats.Store(stats)
	j.logger.Info("follow-up reminders sent", "profiles", stats.Profiles, "reminders", stats.Events, "errors", len(stats.Errors))
	return stats.err(FollowUpRemindersName)
}

// LastRunStats returns the stats of the last completed run, nil before the first.
func (j *FollowUpRemindersJob) LastRunStats() *RunStats {
	return j.lastRunStats.Load()
}
