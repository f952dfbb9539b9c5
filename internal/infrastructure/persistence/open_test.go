package persistence_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobquest/jobquest/internal/infrastructure/persistence"
	"github.com/jobquest/jobquest/internal/infrastructure/persistence/memory"
	"github.com/jobquest/jobquest/internal/infrastructure/persistence/redis"
	"github.com/jobquest/jobquest/internal/infrastructure/persistence/sqlite"
	"github.com/jobquest/jobquest/pkg/logger"
)

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{Output: &bytes.Buffer{}})
}

func TestOpen_Memory(t *testing.T) {
	store, err := persistence.Open(context.Background(), persistence.Options{Driver: "MEMORY", Logger: quietLogger()})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, store)
}

func TestOpen_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := persistence.Open(ctx, persistence.Options{
		Driver:     persistence.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "jq.db"),
		Logger:     quietLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	assert.IsType(t, &sqlite.Store{}, store)

	repo := persistence.NewDocumentRepository(store, "")
	snap, err := repo.Load(ctx, "erik")
	require.NoError(t, err)
	snap.State = snap.State.SaveJob("job-1")
	require.NoError(t, repo.Save(ctx, "erik", snap))

	got, err := repo.Load(ctx, "erik")
	require.NoError(t, err)
	assert.Equal(t, []string{"job-1"}, got.State.SavedJobs)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := persistence.Open(context.Background(), persistence.Options{Driver: "cassandra", Logger: quietLogger()})
	assert.ErrorContains(t, err, "unknown storage driver")
}

func TestOpen_RedisInvalidURLIsNotRetried(t *testing.T) {
	_, err := persistence.Open(context.Background(), persistence.Options{
		Driver:          persistence.DriverRedis,
		Redis:           redis.Config{URL: "http://nope"},
		ConnectAttempts: 10,
		Logger:          quietLogger(),
	})
	assert.ErrorIs(t, err, redis.ErrInvalidURL)
}
