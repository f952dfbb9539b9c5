// Package engine applies JobQuest commands to a profile snapshot.
//
// The engine is pure: every operation takes a snapshot and an instant and
// returns a new snapshot plus the events it produced. It never touches storage,
// never reads the wall clock, and never mutates its input, so a failed command
// leaves the caller's snapshot exactly as it was.
package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/jobquest/jobquest/internal/domain/badge"
	"github.com/jobquest/jobquest/internal/domain/followup"
	"github.com/jobquest/jobquest/internal/domain/progress"
	"github.com/jobquest/jobquest/internal/domain/shared"
	"github.com/jobquest/jobquest/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds the tunable game rules.
type Config struct {
	// Location decides calendar-day boundaries for streaks and missions.
	Location *time.Location

	// FollowUpOffsets are the follow-up due offsets in days after submission.
	FollowUpOffsets []int

	// SnoozeSpan is how long a snoozed follow-up stays hidden.
	SnoozeSpan time.Duration
}

// DefaultConfig returns the standard rules in UTC.
func DefaultConfig() Config {
	return Config{
		Location:        time.UTC,
		FollowUpOffsets: append([]int(nil), followup.DefaultOffsets...),
		SnoozeSpan:      followup.DefaultSnoozeSpan,
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator overrides how new job ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// Engine applies commands under a fixed Config.
type Engine struct {
	cfg    Config
	badges *badge.Evaluator
	newID  func() string
}

// New creates an Engine. Zero fields of cfg take their defaults.
func New(cfg Config, opts ...Option) *Engine {
	def := DefaultConfig()
	if cfg.Location == nil {
		cfg.Location = def.Location
	}
	if len(cfg.FollowUpOffsets) == 0 {
		cfg.FollowUpOffsets = def.FollowUpOffsets
	}
	if cfg.SnoozeSpan <= 0 {
		cfg.SnoozeSpan = def.SnoozeSpan
	}

	e := &Engine{
		cfg:    cfg,
		badges: badge.NewEvaluator(nil),
		newID:  NewJobID,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewJobID mints a collision-resistant job id.
func NewJobID() string {
	return "job-" + uuid.NewString()
}

// Config returns the engine's rules.
func (e *Engine) Config() Config {
	return e.cfg
}

// Badges returns the engine's badge registry.
func (e *Engine) Badges() *badge.Registry {
	return e.badges.Registry()
}

// ══════════════════════════════════════════════════════════════════════════════
// INPUT / RESULT
// ══════════════════════════════════════════════════════════════════════════════

// Input is the snapshot a command operates on.
type Input struct {
	ProfileID shared.ProfileID
	Snapshot  progress.Snapshot
	Now       time.Time
}

// Result is the outcome of a command.
type Result struct {
	// Snapshot is the new state. On error it is the unchanged input snapshot.
	Snapshot progress.Snapshot

	// Events lists what happened, in order. Warnings are included on
	// warning errors so the caller can surface them.
	Events []shared.Event

	// Changed is false when the command was a no-op and nothing needs saving.
	Changed bool

	// JobID is the id minted by AddJob.
	JobID string
}

// Day returns the calendar date key of in.Now under the engine's location.
func (e *Engine) Day(now time.Time) string {
	return timeutil.DateKey(now, e.cfg.Location)
}

type run struct {
	e      *Engine
	in     Input
	snap   progress.Snapshot
	events []shared.Event
}

func (e *Engine) begin(in Input) *run {
	return &run{e: e, in: in, snap: in.Snapshot.Clone()}
}

func (r *run) emit(ev shared.Event) {
	r.events = append(r.events, ev)
}

func (r *run) xp(amount shared.XP, source, ref string) {
	r.emit(shared.NewXPGainedEvent(r.in.ProfileID.String(), r.in.Now, amount.Int(), r.snap.State.XP.Int(), source, ref))
}

// finish runs badge evaluation on the resulting state and packages the result.
func (r *run) finish(jobID string) Result {
	state, unlocked := r.e.badges.Evaluate(badge.Context{
		State:    r.snap.State,
		Catalog:  r.snap.Catalog,
		Now:      r.in.Now,
		Location: r.e.cfg.Location,
	})
	r.snap.State = state
	for _, d := range unlocked {
		r.emit(shared.NewBadgeUnlockedEvent(r.in.ProfileID.String(), r.in.Now, d.ID, d.Name, d.Icon))
	}
	return Result{Snapshot: r.snap, Events: r.events, Changed: true, JobID: jobID}
}

// unchanged returns the input untouched, optionally with a warning event.
func (e *Engine) unchanged(in Input, events ...shared.Event) Result {
	return Result{Snapshot: in.Snapshot, Events: events}
}
