package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/jobquest/jobquest/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOCUMENT STORE
// ══════════════════════════════════════════════════════════════════════════════

// ErrKeyEmpty is returned when an empty key is provided.
var ErrKeyEmpty = errors.New("postgres: document key cannot be empty")

// Store keeps JobQuest documents in the documents table.
type Store struct {
	conn    *Connection
	retrier *retry.Retrier
}

// Open connects, applies pending migrations and returns a ready Store.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	conn, err := NewConnection(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return NewStore(conn), nil
}

// NewStore wraps an open connection. Migrations must already be applied.
func NewStore(conn *Connection) *Store {
	return &Store{conn: conn, retrier: retry.StorageRetrier()}
}

// Connection returns the underlying connection.
func (s *Store) Connection() *Connection {
	return s.conn
}

// Ping checks if the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.conn.Close()
	return nil
}

// Get returns the document under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrKeyEmpty
	}
	if s.conn.IsClosed() {
		return nil, false, ErrConnectionClosed
	}
	return getDocument(ctx, s.conn, key)
}

// PutAll upserts every document in one transaction. Transient failures are retried.
func (s *Store) PutAll(ctx context.Context, docs map[string][]byte) error {
	if len(docs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(docs))
	for key := range docs {
		if key == "" {
			return ErrKeyEmpty
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return s.retrier.Do(ctx, func(ctx context.Context) error {
		err := s.conn.WithTx(ctx, func(tx pgx.Tx) error {
			for _, key := range keys {
				if err := putDocument(ctx, tx, key, docs[key]); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil && IsTransient(err) {
			return retry.Retryable(err)
		}
		return err
	})
}

func getDocument(ctx context.Context, q querier, key string) ([]byte, bool, error) {
	var value []byte
	err := q.QueryRow(ctx, `SELECT doc_value FROM documents WHERE doc_key = $1`, key).Scan(&value)
	if err != nil {
		if IsNoRows(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("postgres: get document %s: %w", key, err)
	}
	return value, true, nil
}

func putDocument(ctx context.Context, q querier, key string, value []byte) error {
	_, err := q.Exec(ctx, `
		INSERT INTO documents (doc_key, doc_value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (doc_key) DO UPDATE
		SET doc_value = EXCLUDED.doc_value, updated_at = EXCLUDED.updated_at
	`, key, string(value))
	if err != nil {
		return fmt.Errorf("postgres: put document %s: %w", key, err)
	}
	return nil
}
