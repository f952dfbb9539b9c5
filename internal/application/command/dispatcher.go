package command

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jobquest/jobquest/internal/application/engine"
	"github.com/jobquest/jobquest/internal/domain/progress"
	"github.com/jobquest/jobquest/internal/domain/shared"
	"github.com/jobquest/jobquest/pkg/logger"
	"github.com/jobquest/jobquest/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCHER
// Runs one command at a time per profile: load, daily mission reset, apply,
// save, publish. A failed command saves nothing.
// ══════════════════════════════════════════════════════════════════════════════

// Result contains the outcome of a dispatched command.
type Result struct {
	// ProfileID is the profile the command ran against.
	ProfileID shared.ProfileID

	// Command is the command name.
	Command string

	// Snapshot is the profile's state after the command. For warnings it is
	// the state as loaded.
	Snapshot progress.Snapshot

	// Events contains domain events generated, including the implicit
	// daily mission reset.
	Events []shared.Event

	// Changed reports whether anything was written.
	Changed bool

	// JobID is the id minted by AddJobCommand.
	JobID string

	// ExecutedAt is the clock reading the command ran with.
	ExecutedAt time.Time
}

// DispatcherConfig contains the Dispatcher's collaborators.
type DispatcherConfig struct {
	Engine     *engine.Engine
	Repository progress.Repository
	Publisher  shared.EventPublisher
	Clock      timeutil.Clock
	Logger     *logger.Logger
}

// Dispatcher executes commands against stored profiles.
type Dispatcher struct {
	engine    *engine.Engine
	repo      progress.Repository
	publisher shared.EventPublisher
	clock     timeutil.Clock
	log       *logger.Logger

	mu    sync.Mutex
	locks map[shared.ProfileID]*sync.Mutex
}

// NewDispatcher creates a new Dispatcher. Publisher is optional.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Engine == nil {
		cfg.Engine = engine.New(engine.DefaultConfig())
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.SystemClock{Location: cfg.Engine.Config().Location}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	return &Dispatcher{
		engine:    cfg.Engine,
		repo:      cfg.Repository,
		publisher: cfg.Publisher,
		clock:     cfg.Clock,
		log:       cfg.Logger.With(logger.Component("dispatcher")),
		locks:     make(map[shared.ProfileID]*sync.Mutex),
	}
}

// Engine returns the rules engine the dispatcher applies.
func (d *Dispatcher) Engine() *engine.Engine {
	return d.engine
}

// Execute runs cmd against the profile. Warnings (see shared.IsWarning) come
// back together with a non-nil Result whose events carry the warning; nothing
// is saved in that case. Any other error returns a nil Result.
func (d *Dispatcher) Execute(ctx context.Context, profileID shared.ProfileID, cmd Command) (*Result, error) {
	name := cmd.Name()
	if !profileID.IsValid() {
		return nil, fmt.Errorf("%s: %w", name, shared.ErrInvalidProfile)
	}
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("%s: validation failed: %w", name, err)
	}

	unlock := d.lock(profileID)
	defer unlock()

	start := time.Now()
	log := d.log.With(logger.ProfileID(profileID.String()), logger.Command(name))

	snap, err := d.repo.Load(ctx, profileID)
	if err != nil {
		log.Error("failed to load profile", logger.Err(err))
		return nil, fmt.Errorf("%s: load profile: %w", name, err)
	}

	in := engine.Input{ProfileID: profileID, Snapshot: snap, Now: d.clock.Now()}
	reset := d.engine.ResetDailyMissions(in)
	in.Snapshot = reset.Snapshot

	res, err := cmd.apply(d.engine, in)
	if err != nil {
		if !shared.IsWarning(err) {
			log.Warn("command rejected", logger.Err(err))
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		log.Info("command warning", logger.Err(err))
		d.publish(log, res.Events)
		return &Result{
			ProfileID:  profileID,
			Command:    name,
			Snapshot:   snap,
			Events:     res.Events,
			ExecutedAt: in.Now,
		}, err
	}

	changed := reset.Changed || res.Changed
	if changed {
		if err := d.repo.Save(ctx, profileID, res.Snapshot); err != nil {
			log.Error("failed to save profile", logger.Err(err))
			return nil, fmt.Errorf("%s: save profile: %w", name, err)
		}
	}

	events := make([]shared.Event, 0, len(reset.Events)+len(res.Events))
	events = append(events, reset.Events...)
	events = append(events, res.Events...)
	d.publish(log, events)

	log.Info("command applied",
		logger.Bool("changed", changed),
		logger.EventCount(len(events)),
		logger.XPAmount(res.Snapshot.State.XP.Int()-snap.State.XP.Int()),
		logger.Latency(time.Since(start)),
	)

	return &Result{
		ProfileID:  profileID,
		Command:    name,
		Snapshot:   res.Snapshot,
		Events:     events,
		Changed:    changed,
		JobID:      res.JobID,
		ExecutedAt: in.Now,
	}, nil
}

// Snapshot loads the profile without running any command. The stored mission
// board may be stale; queries account for that.
func (d *Dispatcher) Snapshot(ctx context.Context, profileID shared.ProfileID) (progress.Snapshot, error) {
	if !profileID.IsValid() {
		return progress.Snapshot{}, shared.ErrInvalidProfile
	}
	unlock := d.lock(profileID)
	defer unlock()

	snap, err := d.repo.Load(ctx, profileID)
	if err != nil {
		return progress.Snapshot{}, fmt.Errorf("load profile: %w", err)
	}
	return snap, nil
}

func (d *Dispatcher) lock(id shared.ProfileID) func() {
	d.mu.Lock()
	l, ok := d.locks[id]
	if !ok {
		l = &sync.Mutex{}
		d.locks[id] = l
	}
	d.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (d *Dispatcher) publish(log *logger.Logger, events []shared.Event) {
	if d.publisher == nil {
		return
	}
	for _, ev := range events {
		if err := d.publisher.Publish(ev); err != nil {
			log.Warn("failed to publish event",
				logger.String("event_type", string(ev.EventType())),
				logger.Err(err),
			)
		}
	}
}
