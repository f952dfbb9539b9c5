package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jobquest/jobquest/internal/infrastructure/persistence/memory"
	"github.com/jobquest/jobquest/internal/infrastructure/persistence/postgres"
	"github.com/jobquest/jobquest/internal/infrastructure/persistence/redis"
	"github.com/jobquest/jobquest/internal/infrastructure/persistence/sqlite"
	"github.com/jobquest/jobquest/pkg/logger"
	"github.com/jobquest/jobquest/pkg/retry"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Options selects and configures a storage backend.
type Options struct {
	Driver string

	SQLitePath string

	Redis    redis.Config
	Postgres postgres.Config

	// ConnectAttempts bounds connection retries for network backends.
	ConnectAttempts int

	Logger *logger.Logger
}

// Open creates the Store for opts.Driver. Network backends are retried with
// backoff while they come up.
func Open(ctx context.Context, opts Options) (Store, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}
	log = log.With(logger.Component("storage"), logger.String("driver", opts.Driver))

	onRetry := retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		log.Warn("storage not ready, retrying",
			logger.Int("attempt", attempt),
			logger.Duration("delay", delay),
			logger.Err(err),
		)
	})

	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case DriverMemory:
		return memory.New(), nil

	case DriverSQLite, "":
		store, err := sqlite.Open(opts.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		log.Info("storage opened", logger.String("path", opts.SQLitePath))
		return store, nil

	case DriverRedis:
		var store *redis.Store
		err := retry.ConnectRetrier(opts.ConnectAttempts, onRetry).Do(ctx, func(ctx context.Context) error {
			s, err := redis.NewStore(ctx, opts.Redis)
			if errors.Is(err, redis.ErrInvalidURL) {
				return retry.Permanent(err)
			}
			store = s
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		log.Info("storage opened")
		return store, nil

	case DriverPostgres:
		var store *postgres.Store
		err := retry.ConnectRetrier(opts.ConnectAttempts, onRetry).Do(ctx, func(ctx context.Context) error {
			s, err := postgres.Open(ctx, opts.Postgres)
			if errors.Is(err, postgres.ErrMigrationFailed) {
				return retry.Permanent(err)
			}
			store = s
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		log.Info("storage opened")
		return store, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}
