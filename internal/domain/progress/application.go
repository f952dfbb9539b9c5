package progress

import (
	"strings"
	"time"

	"github.com/jobquest/jobquest/internal/domain/followup"
	"github.com/jobquest/jobquest/internal/domain/shared"
	"github.com/jobquest/jobquest/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION LIFECYCLE
//
//	Submitted ──► In Review ◄─► Interview ◄─► Offer ◄─► Hired
//	    │              ▲             ▲           ▲          ▲
//	    └──────────────┴─────────────┴───────────┴──────────┴──► Rejected / No Response
//
// Every status may move to every other status except back into Submitted,
// which is only ever set when the application is created.
// ══════════════════════════════════════════════════════════════════════════════

// Status is the state of an application in the hiring pipeline.
type Status string

const (
	StatusSubmitted  Status = "Submitted"
	StatusInReview   Status = "In Review"
	StatusInterview  Status = "Interview"
	StatusOffer      Status = "Offer"
	StatusHired      Status = "Hired"
	StatusRejected   Status = "Rejected"
	StatusNoResponse Status = "No Response"
)

// AllStatuses lists the statuses in pipeline order.
var AllStatuses = []Status{
	StatusSubmitted,
	StatusInReview,
	StatusInterview,
	StatusOffer,
	StatusHired,
	StatusRejected,
	StatusNoResponse,
}

// ParseStatus converts a raw string to a Status. Matching ignores case, spaces,
// dashes and underscores, so "in_review" and "In Review" are the same.
func ParseStatus(s string) (Status, error) {
	norm := normalizeStatus(s)
	for _, st := range AllStatuses {
		if normalizeStatus(string(st)) == norm {
			return st, nil
		}
	}
	return "", shared.WrapError("progress", "ParseStatus", shared.ErrInvalidInput, "unknown application status "+s, shared.ErrInvalidStatus)
}

func normalizeStatus(s string) string {
	r := strings.NewReplacer(" ", "", "_", "", "-", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(s)))
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	for _, st := range AllStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// IsTransitionAllowed returns true when moving from → to is permitted.
// Keeping the same status is always allowed.
func IsTransitionAllowed(from, to Status) bool {
	if !from.IsValid() || !to.IsValid() {
		return false
	}
	if from == to {
		return true
	}
	return to != StatusSubmitted
}

// Application is the user's submission to a job.
type Application struct {
	JobID       string        `json:"jobId"`
	JobTitle    string        `json:"jobTitle"`
	Company     string        `json:"company"`
	Status      Status        `json:"status"`
	SubmittedAt time.Time     `json:"submittedAt"`
	FollowUps   followup.List `json:"followUps"`
}

// NewApplication creates a Submitted application with its initial follow-ups.
func NewApplication(jobID, title, company string, submittedAt time.Time, offsetsDays []int) Application {
	return Application{
		JobID:       jobID,
		JobTitle:    title,
		Company:     company,
		Status:      StatusSubmitted,
		SubmittedAt: submittedAt,
		FollowUps:   followup.Schedule(jobID, submittedAt, offsetsDays),
	}
}

// Clone returns a deep copy.
func (a Application) Clone() Application {
	a.FollowUps = a.FollowUps.Clone()
	return a
}

// WithStatus returns a copy with the status changed, validating the transition.
func (a Application) WithStatus(to Status) (Application, error) {
	if !IsTransitionAllowed(a.Status, to) {
		return a, shared.WrapError("progress", "WithStatus",
			shared.ErrStateTransition, string(a.Status)+" -> "+string(to), shared.ErrInvalidStatusTransition)
	}
	out := a.Clone()
	out.Status = to
	return out, nil
}

// SubmittedOn reports whether the application was submitted on the same
// calendar day as now in loc.
func (a Application) SubmittedOn(now time.Time, loc *time.Location) bool {
	return timeutil.IsSameDay(a.SubmittedAt, now, loc)
}
