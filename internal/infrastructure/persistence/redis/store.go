// Package redis keeps JobQuest documents in Redis and carries events between
// processes over Redis pub/sub.
package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrConnection = errors.New("redis: connection failed")
	ErrInvalidURL = errors.New("redis: invalid url")
	ErrKeyEmpty   = errors.New("redis: key cannot be empty")
)

// Config selects and tunes the Redis connection. URL, when set, wins over
// Host, Port, Password and DB. Zero pool and timeout fields keep the
// go-redis defaults.
type Config struct {
	URL      string
	Host     string
	Port     int
	Password string
	DB       int

	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig points at a local Redis with a small pool.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         6379,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Options builds go-redis client options.
func (c Config) Options() (*redis.Options, error) {
	opts := &redis.Options{
		Addr:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Password: c.Password,
		DB:       c.DB,
	}
	if c.URL != "" {
		parsed, err := redis.ParseURL(c.URL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
		}
		opts = parsed
	}

	setIf := func(dst *int, v int) {
		if v > 0 {
			*dst = v
		}
	}
	setDur := func(dst *time.Duration, v time.Duration) {
		if v > 0 {
			*dst = v
		}
	}
	setIf(&opts.PoolSize, c.PoolSize)
	setIf(&opts.MinIdleConns, c.MinIdleConns)
	setIf(&opts.MaxRetries, c.MaxRetries)
	setDur(&opts.DialTimeout, c.DialTimeout)
	setDur(&opts.ReadTimeout, c.ReadTimeout)
	setDur(&opts.WriteTimeout, c.WriteTimeout)
	return opts, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STORE
// ══════════════════════════════════════════════════════════════════════════════

// Store keeps each document as a plain Redis string.
type Store struct {
	client *redis.Client
}

// NewStore dials Redis and pings it before returning.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return &Store{client: client}, nil
}

// Client exposes the go-redis client, for pub/sub.
func (s *Store) Client() *redis.Client { return s.client }

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

// Get returns the document under key. A missing key is (nil, false, nil).
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrKeyEmpty
	}
	data, err := s.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return data, true, nil
}

// PutAll writes docs in one MULTI/EXEC so a reader never sees a
// half-applied profile update.
func (s *Store) PutAll(ctx context.Context, docs map[string][]byte) error {
	for key := range docs {
		if key == "" {
			return ErrKeyEmpty
		}
	}
	if len(docs) == 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, value := range docs {
			pipe.Set(ctx, key, value, 0)
		}
		return nil
	})
	return err
}

// Keys lists keys matching a glob pattern using SCAN.
func (s *Store) Keys(ctx context.Context, pattern string) ([]string, error) {
	if pattern == "" {
		return nil, ErrKeyEmpty
	}
	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

// Delete removes keys.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}
