package query

import (
	"context"
	"time"

	"github.com/jobquest/jobquest/internal/application/engine"
	"github.com/jobquest/jobquest/internal/domain/progress"
	"github.com/jobquest/jobquest/internal/domain/quest"
	"github.com/jobquest/jobquest/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET QUEST LOG QUERY
// Applications newest first with their next follow-up, plus the saved jobs
// waiting to be submitted.
// ══════════════════════════════════════════════════════════════════════════════

// QuestLogDTO is the quest log.
type QuestLogDTO struct {
	Applications []ApplicationDTO `json:"applications"`
	SavedJobs    []quest.Job      `json:"saved_jobs"`

	// MissingSaved lists saved ids with no catalog entry.
	MissingSaved []string `json:"missing_saved,omitempty"`
}

// ApplicationDTO is one row of the quest log.
type ApplicationDTO struct {
	JobID       string          `json:"job_id"`
	JobTitle    string          `json:"job_title"`
	Company     string          `json:"company"`
	Status      progress.Status `json:"status"`
	SubmittedAt time.Time       `json:"submitted_at"`
	URL         string          `json:"url,omitempty"`

	// NextFollowUp is the earliest pending follow-up, nil when none remain.
	NextFollowUp *FollowUpDTO `json:"next_follow_up,omitempty"`

	FollowUpsDone  int `json:"follow_ups_done"`
	FollowUpsTotal int `json:"follow_ups_total"`
}

// GetQuestLogHandler handles quest log queries.
type GetQuestLogHandler struct {
	base
}

// NewGetQuestLogHandler creates a new handler.
func NewGetQuestLogHandler(reader SnapshotReader, eng *engine.Engine, clock timeutil.Clock) *GetQuestLogHandler {
	return &GetQuestLogHandler{base: newBase(reader, eng, clock)}
}

// Handle executes the query.
func (h *GetQuestLogHandler) Handle(ctx context.Context, q ProfileQuery) (*QuestLogDTO, error) {
	snap, now, err := h.load(ctx, q)
	if err != nil {
		return nil, err
	}

	out := &QuestLogDTO{
		Applications: make([]ApplicationDTO, 0, len(snap.State.Applications)),
		SavedJobs:    make([]quest.Job, 0, len(snap.State.SavedJobs)),
	}
	for _, app := range snap.State.ApplicationsNewestFirst() {
		row := ApplicationDTO{
			JobID:          app.JobID,
			JobTitle:       app.JobTitle,
			Company:        app.Company,
			Status:         app.Status,
			SubmittedAt:    app.SubmittedAt,
			FollowUpsTotal: len(app.FollowUps),
		}
		if job, ok := snap.Catalog.Get(app.JobID); ok {
			row.URL = job.URL
		}
		for _, fu := range app.FollowUps {
			if fu.Completed {
				row.FollowUpsDone++
			}
		}
		if fu, ok := app.FollowUps.NextPending(now); ok {
			next := FollowUpDTO{
				ID:       fu.ID,
				JobID:    app.JobID,
				JobTitle: app.JobTitle,
				Company:  app.Company,
				DueDate:  fu.DueDate,
			}
			if fu.DueDate.Before(now) {
				next.DaysOverdue = int(now.Sub(fu.DueDate) / timeutil.Day)
			}
			row.NextFollowUp = &next
		}
		out.Applications = append(out.Applications, row)
	}

	for _, id := range snap.State.SavedJobs {
		job, ok := snap.Catalog.Get(id)
		if !ok {
			out.MissingSaved = append(out.MissingSaved, id)
			continue
		}
		out.SavedJobs = append(out.SavedJobs, job)
	}
	return out, nil
}
