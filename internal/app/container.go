// Package app wires JobQuest's storage, engine, event bus and handlers into a
// ready-to-use Container. Both the CLI and the worker start from here.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jobquest/jobquest/config"
	"github.com/jobquest/jobquest/internal/application/command"
	"github.com/jobquest/jobquest/internal/application/engine"
	"github.com/jobquest/jobquest/internal/application/query"
	"github.com/jobquest/jobquest/internal/domain/shared"
	"github.com/jobquest/jobquest/internal/infrastructure/messaging"
	"github.com/jobquest/jobquest/internal/infrastructure/persistence"
	"github.com/jobquest/jobquest/internal/infrastructure/persistence/redis"
	"github.com/jobquest/jobquest/pkg/logger"
	"github.com/jobquest/jobquest/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONTAINER
// ══════════════════════════════════════════════════════════════════════════════

// EventBus is the bus the container publishes on.
type EventBus interface {
	shared.EventBus
	Close() error
}

// Options override parts of the wiring.
type Options struct {
	// LogOutput receives log lines. Defaults to stderr so stdout stays free
	// for command output.
	LogOutput io.Writer

	// Clock overrides the system clock.
	Clock timeutil.Clock

	// Store overrides the configured storage driver.
	Store persistence.Store

	// AsyncEvents delivers events on worker goroutines.
	AsyncEvents bool
}

// Container holds every long-lived component.
type Container struct {
	Config *config.Config
	Logger *logger.Logger
	Slog   *slog.Logger
	Clock  timeutil.Clock

	Store      persistence.Store
	Repository *persistence.DocumentRepository
	Engine     *engine.Engine
	Bus        EventBus

	Dispatcher *command.Dispatcher
	Profiles   *command.ProfileService

	Dashboard *query.GetDashboardHandler
	QuestLog  *query.GetQuestLogHandler
	Missions  *query.GetMissionsBoardHandler
	Badges    *query.GetBadgeGalleryHandler
}

// New builds a Container from cfg.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Container, error) {
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 1. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	logOpts := cfg.LoggerOptions()
	logOpts.Output = opts.LogOutput
	log := logger.New(logOpts)
	slogger := NewSlogLogger(cfg, opts.LogOutput)

	clock := opts.Clock
	if clock == nil {
		clock = timeutil.SystemClock{Location: cfg.App.Location}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. STORAGE
	// ─────────────────────────────────────────────────────────────────────────
	store := opts.Store
	if store == nil {
		s, err := persistence.Open(ctx, cfg.StorageOptions(log))
		if err != nil {
			return nil, err
		}
		store = s
	}
	repo := persistence.NewDocumentRepository(store, cfg.Storage.KeyPrefix)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	bus, err := newEventBus(cfg, store, slogger, opts.AsyncEvents)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. APPLICATION
	// ─────────────────────────────────────────────────────────────────────────
	eng := engine.New(cfg.EngineConfig())
	dispatcher := command.NewDispatcher(command.DispatcherConfig{
		Engine:     eng,
		Repository: repo,
		Publisher:  bus,
		Clock:      clock,
		Logger:     log,
	})

	return &Container{
		Config:     cfg,
		Logger:     log,
		Slog:       slogger,
		Clock:      clock,
		Store:      store,
		Repository: repo,
		Engine:     eng,
		Bus:        bus,
		Dispatcher: dispatcher,
		Profiles:   command.NewProfileService(repo, bus, clock, log),
		Dashboard:  query.NewGetDashboardHandler(dispatcher, eng, clock),
		QuestLog:   query.NewGetQuestLogHandler(dispatcher, eng, clock),
		Missions:   query.NewGetMissionsBoardHandler(dispatcher, eng, clock),
		Badges:     query.NewGetBadgeGalleryHandler(dispatcher, eng, clock),
	}, nil
}

// newEventBus shares events over Redis pub/sub when the store is Redis, so
// the worker's reminders reach a running CLI. Otherwise events stay in process.
func newEventBus(cfg *config.Config, store persistence.Store, log *slog.Logger, async bool) (EventBus, error) {
	local := messaging.DefaultInMemoryEventBusConfig()
	local.Logger = log
	local.AsyncMode = async

	rs, ok := store.(*redis.Store)
	if !ok {
		return messaging.NewInMemoryEventBus(local), nil
	}
	bus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
		Client:         redis.NewPubSub(rs.Client()),
		ChannelName:    cfg.Redis.EventChannel,
		LocalBusConfig: local,
		Logger:         log,
	})
	if err != nil {
		return nil, fmt.Errorf("redis event bus: %w", err)
	}
	return bus, nil
}

// ActiveProfile resolves the profile to act on: explicit when set, otherwise
// the registry's active one.
func (c *Container) ActiveProfile(ctx context.Context, explicit string) (shared.ProfileID, error) {
	if explicit != "" {
		return shared.NewProfileID(explicit)
	}
	p, err := c.Profiles.Active(ctx)
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

// Close releases the bus and the store.
func (c *Container) Close() error {
	return errors.Join(c.Bus.Close(), c.Store.Close())
}

// NewSlogLogger builds the slog logger used by the event bus and scheduler.
// Production logs JSON; every other environment logs text.
func NewSlogLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.LoggerOptions().Level)}

	var handler slog.Handler
	if cfg.IsProduction() || cfg.LoggerOptions().Format == logger.FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func slogLevel(l logger.Level) slog.Level {
	switch l {
	case logger.LevelDebug:
		return slog.LevelDebug
	case logger.LevelInfo:
		return slog.LevelInfo
	case logger.LevelWarn:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
