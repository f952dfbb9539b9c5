package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "jobquest.db")
	store, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestOpenRunsMigrations(t *testing.T) {
	store, path := openTestStore(t)
	require.NoError(t, store.Ping(context.Background()))

	sqlDB, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer func() { _ = sqlDB.Close() }()

	var name string
	err = sqlDB.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'documents'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "documents", name)

	var applied int
	require.NoError(t, sqlDB.QueryRow(`SELECT count(*) FROM schema_migrations`).Scan(&applied))
	assert.Equal(t, 1, applied)
}

func TestReopenKeepsDocumentsAndSkipsMigrations(t *testing.T) {
	store, path := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.PutAll(ctx, map[string][]byte{"gamestate:erik": []byte(`{"xp":3}`)}))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, found, err := reopened.Get(ctx, "gamestate:erik")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"xp":3}`, string(got))
}

func TestGetMissingKey(t *testing.T) {
	store, _ := openTestStore(t)

	got, found, err := store.Get(context.Background(), "jobs:nobody")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)

	_, _, err = store.Get(context.Background(), "")
	assert.Error(t, err)
}

func TestPutAllReplacesDocuments(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutAll(ctx, map[string][]byte{
		"gamestate:erik": []byte(`{"xp":1}`),
		"jobs:erik":      []byte(`{}`),
	}))
	require.NoError(t, store.PutAll(ctx, map[string][]byte{
		"gamestate:erik": []byte(`{"xp":8}`),
	}))

	got, _, err := store.Get(ctx, "gamestate:erik")
	require.NoError(t, err)
	assert.JSONEq(t, `{"xp":8}`, string(got))

	got, _, err = store.Get(ctx, "jobs:erik")
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(got))
}

func TestPutAllIsAtomic(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	err := store.PutAll(ctx, map[string][]byte{
		"a": []byte(`1`),
		"":  []byte(`2`),
	})
	require.Error(t, err)

	_, found, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestExtractUpMigration(t *testing.T) {
	assert.Equal(t, "\nCREATE x;\n", extractUpMigration("-- +migrate Up\nCREATE x;\n-- +migrate Down\nDROP x;"))
	assert.Equal(t, "CREATE y;", extractUpMigration("CREATE y;"))
}
