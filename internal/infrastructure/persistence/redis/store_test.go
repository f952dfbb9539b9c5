package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Options(t *testing.T) {
	cfg := DefaultConfig()
	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 10, opts.PoolSize)
	assert.Equal(t, 5*time.Second, opts.DialTimeout)
}

func TestConfig_OptionsFromURL(t *testing.T) {
	cfg := Config{URL: "redis://:secret@cache.internal:6380/2", PoolSize: 4}
	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 4, opts.PoolSize)
}

func TestConfig_InvalidURL(t *testing.T) {
	_, err := Config{URL: "http://nope"}.Options()
	assert.ErrorIs(t, err, ErrInvalidURL)
}
