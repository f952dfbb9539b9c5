// Package followup schedules the reminder nudges attached to each application.
//
// A follow-up is due at a fixed instant. It can be completed (irreversible) or
// snoozed, which hides it until the snooze expires without moving its due date.
// Every mutation returns a new list and leaves the input untouched.
package followup

import (
	"fmt"
	"time"

	"github.com/jobquest/jobquest/internal/domain/shared"
	"github.com/jobquest/jobquest/pkg/timeutil"
)

// DefaultSnoozeSpan is how long a snooze hides a follow-up.
const DefaultSnoozeSpan = 3 * timeutil.Day

// DefaultOffsets are the follow-up due offsets, in days after submission.
var DefaultOffsets = []int{3, 10}

// FollowUp is a scheduled reminder to chase an application.
type FollowUp struct {
	ID           string     `json:"id"`
	DueDate      time.Time  `json:"dueDate"`
	Completed    bool       `json:"completed"`
	SnoozedUntil *time.Time `json:"snoozedUntil,omitempty"`
}

// List is the ordered follow-ups of one application.
type List []FollowUp

// Schedule builds the initial follow-ups for a job submitted at submittedAt.
// Ids are "{jobID}-fu1", "{jobID}-fu2" and so on, one per offset.
func Schedule(jobID string, submittedAt time.Time, offsetsDays []int) List {
	out := make(List, 0, len(offsetsDays))
	for i, days := range offsetsDays {
		out = append(out, FollowUp{
			ID:      fmt.Sprintf("%s-fu%d", jobID, i+1),
			DueDate: timeutil.AddDays(submittedAt, days),
		})
	}
	return out
}

// IsSnoozed reports whether the follow-up is hidden at now.
func (f FollowUp) IsSnoozed(now time.Time) bool {
	return f.SnoozedUntil != nil && f.SnoozedUntil.After(now)
}

// IsPending reports whether the follow-up still needs attention: not completed
// and not snoozed past now.
func (f FollowUp) IsPending(now time.Time) bool {
	return !f.Completed && !f.IsSnoozed(now)
}

// IsOverdue reports whether a pending follow-up is past its due date.
func (f FollowUp) IsOverdue(now time.Time) bool {
	return f.IsPending(now) && f.DueDate.Before(now)
}

// NextPending returns the pending follow-up with the earliest due date.
// Ties keep list order.
func (l List) NextPending(now time.Time) (FollowUp, bool) {
	var (
		best  FollowUp
		found bool
	)
	for _, f := range l {
		if !f.IsPending(now) {
			continue
		}
		if !found || f.DueDate.Before(best.DueDate) {
			best = f
			found = true
		}
	}
	return best, found
}

// Overdue returns every overdue follow-up in list order.
func (l List) Overdue(now time.Time) List {
	var out List
	for _, f := range l {
		if f.IsOverdue(now) {
			out = append(out, f)
		}
	}
	return out
}

// Find returns the follow-up with the given id.
func (l List) Find(id string) (FollowUp, bool) {
	for _, f := range l {
		if f.ID == id {
			return f, true
		}
	}
	return FollowUp{}, false
}

// Clone returns a deep copy of the list.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	for i, f := range l {
		if f.SnoozedUntil != nil {
			t := *f.SnoozedUntil
			f.SnoozedUntil = &t
		}
		out[i] = f
	}
	return out
}

// Complete marks the follow-up with id as done. Completing twice is a no-op.
func (l List) Complete(id string) (List, error) {
	return l.update(id, "Complete", func(f *FollowUp) {
		f.Completed = true
	})
}

// Snooze hides the follow-up with id until now+span. A non-positive span
// falls back to DefaultSnoozeSpan. The due date is unchanged.
func (l List) Snooze(id string, now time.Time, span time.Duration) (List, error) {
	if span <= 0 {
		span = DefaultSnoozeSpan
	}
	until := now.Add(span)
	return l.update(id, "Snooze", func(f *FollowUp) {
		f.SnoozedUntil = &until
	})
}

// CompletedWithin counts completed follow-ups whose due date falls inside r.
func (l List) CompletedWithin(r shared.TimeRange) int {
	n := 0
	for _, f := range l {
		if f.Completed && r.Contains(f.DueDate) {
			n++
		}
	}
	return n
}

func (l List) update(id, op string, fn func(*FollowUp)) (List, error) {
	out := l.Clone()
	for i := range out {
		if out[i].ID == id {
			fn(&out[i])
			return out, nil
		}
	}
	return l, shared.WrapError("followup", op, shared.ErrNotFound, "follow-up "+id+" not found", shared.ErrUnknownFollowUp)
}
