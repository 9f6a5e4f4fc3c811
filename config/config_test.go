package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET_KEY", testSecret)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, 30*time.Second, cfg.Stream.PingInterval)
	assert.Equal(t, 60*time.Minute, cfg.JWT.StreamTTL)
	assert.Equal(t, 50*time.Minute, cfg.JWT.RefreshAfter)
	assert.Equal(t, 64, cfg.Stream.QueueSize)
}

func TestLoadValidation(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET_KEY", "")
		_, err := Load()
		assert.ErrorContains(t, err, "JWT_SECRET_KEY is required")
	})

	t.Run("short secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET_KEY", "short")
		_, err := Load()
		assert.ErrorContains(t, err, "at least 32 characters")
	})

	t.Run("refresh after ttl", func(t *testing.T) {
		t.Setenv("JWT_SECRET_KEY", testSecret)
		t.Setenv("JWT_STREAM_REFRESH_AFTER", "2h")
		_, err := Load()
		assert.ErrorContains(t, err, "must be shorter")
	})
}
