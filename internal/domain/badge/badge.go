// Package badge holds the achievement registry and the evaluator that unlocks
// badges after every state change.
//
// Badge criteria are pure predicates over the game state, the job catalog and
// the evaluation instant. Unlocks are permanent: the evaluator only ever
// appends to the unlocked set.
package badge

import (
	"time"

	"github.com/jobquest/jobquest/internal/domain/progress"
	"github.com/jobquest/jobquest/internal/domain/quest"
	"github.com/jobquest/jobquest/internal/domain/shared"
)

// Badge ids.
const (
	SpeedRunner   = "speed_runner"
	Unbroken      = "unbroken"
	Ronin         = "ronin"
	FollowUpNinja = "followup_ninja"
)

// Thresholds.
const (
	SpeedRunnerSubmissions = 5
	UnbrokenStreak         = 7
	RoninSubmissions       = 3
	FollowUpNinjaCount     = 3
	FollowUpNinjaWindow    = 7 // days
)

// RoninTerms are the words that make a job count toward Ronin.
var RoninTerms = []string{"japanese", "localization"}

// Context is everything a criterion may look at.
type Context struct {
	State    progress.GameState
	Catalog  quest.Catalog
	Now      time.Time
	Location *time.Location
}

// Criterion decides whether a badge is earned.
type Criterion func(c Context) bool

// Definition describes one badge.
type Definition struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Criterion   Criterion
}

// Registry is the ordered list of badge definitions.
type Registry struct {
	defs []Definition
}

// NewRegistry builds a registry from definitions, in evaluation order.
func NewRegistry(defs ...Definition) *Registry {
	out := make([]Definition, len(defs))
	copy(out, defs)
	return &Registry{defs: out}
}

// DefaultRegistry returns the four built-in badges.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Definition{
			ID:          SpeedRunner,
			Name:        "Speed Runner",
			Description: "Submit 5 applications in one day.",
			Icon:        "🏃",
			Criterion:   speedRunner,
		},
		Definition{
			ID:          Unbroken,
			Name:        "Unbroken",
			Description: "Achieve a 7-day check-in streak.",
			Icon:        "⛓️",
			Criterion:   unbroken,
		},
		Definition{
			ID:          Ronin,
			Name:        "Ronin",
			Description: "Submit 3+ Japanese/Localization jobs in one day.",
			Icon:        "⛩️",
			Criterion:   ronin,
		},
		Definition{
			ID:          FollowUpNinja,
			Name:        "Follow-Up Ninja",
			Description: "Complete 3 follow-ups in a week.",
			Icon:        "🥷",
			Criterion:   followUpNinja,
		},
	)
}

// All returns the definitions in order.
func (r *Registry) All() []Definition {
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Get returns the definition with the given id.
func (r *Registry) Get(id string) (Definition, bool) {
	for _, d := range r.defs {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}

// Len returns the number of badges.
func (r *Registry) Len() int {
	return len(r.defs)
}

// ══════════════════════════════════════════════════════════════════════════════
// CRITERIA
// ══════════════════════════════════════════════════════════════════════════════

func speedRunner(c Context) bool {
	return len(c.State.SubmissionsOn(c.Now, c.Location)) >= SpeedRunnerSubmissions
}

func unbroken(c Context) bool {
	return c.State.Streak >= UnbrokenStreak
}

// ronin counts today's submissions whose job mentions a Ronin term.
// Applications whose job is missing from the catalog are skipped.
func ronin(c Context) bool {
	n := 0
	for _, app := range c.State.SubmissionsOn(c.Now, c.Location) {
		job, ok := c.Catalog.Get(app.JobID)
		if !ok {
			continue
		}
		if job.Mentions(RoninTerms...) {
			n++
		}
	}
	return n >= RoninSubmissions
}

func followUpNinja(c Context) bool {
	window := shared.LastNDays(c.Now, FollowUpNinjaWindow)
	n := 0
	for _, app := range c.State.Applications {
		n += app.FollowUps.CompletedWithin(window)
	}
	return n >= FollowUpNinjaCount
}
