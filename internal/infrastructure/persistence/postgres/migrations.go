package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Migration is one forward schema step.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
}

// AppliedMigration records when a version was applied.
type AppliedMigration struct {
	Version   int
	Name      string
	AppliedAt time.Time
}

// migrationLockID serializes concurrent Migrate calls from a CLI and the worker.
const migrationLockID = 0x4a6f6251 // "JobQ"

// Migrations returns the schema steps in version order.
func Migrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_documents", UpSQL: `
-- One row per JobQuest document: gamestate:{id}, jobs:{id}, profiles, active_profile.
CREATE TABLE IF NOT EXISTS documents (
    doc_key    TEXT PRIMARY KEY CHECK (length(doc_key) > 0),
    doc_value  JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_documents_updated_at ON documents(updated_at DESC);
`},
	}
}

// Migrate applies every migration not yet recorded in schema_migrations.
// Each step runs in its own transaction under an advisory lock.
func Migrate(ctx context.Context, conn *Connection) error {
	if _, err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
		return fmt.Errorf("%w: create schema_migrations: %v", ErrMigrationFailed, err)
	}

	for _, m := range Migrations() {
		err := conn.WithTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockID); err != nil {
				return err
			}
			var done bool
			if err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, m.Version,
			).Scan(&done); err != nil {
				return err
			}
			if done {
				return nil
			}
			if _, err := tx.Exec(ctx, m.UpSQL); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.Version, m.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: version %d (%s): %v", ErrMigrationFailed, m.Version, m.Name, err)
		}
	}
	return nil
}

// AppliedMigrations lists the recorded versions, oldest first.
func AppliedMigrations(ctx context.Context, conn *Connection) ([]AppliedMigration, error) {
	if conn.IsClosed() {
		return nil, ErrConnectionClosed
	}
	rows, err := conn.pool.Query(ctx, `SELECT version, name, applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list migrations: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[AppliedMigration])
}
