package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, "online_users", cfg.Presence.Channel)
	assert.Equal(t, "presence:cursor_updates", cfg.Redis.CursorChannel)
	assert.Equal(t, "http://127.0.0.1:54321", cfg.Relay.Upstream)
	assert.Equal(t, 3001, cfg.Relay.Port)

	assert.Positive(t, cfg.Auth.AccessDuration)
	assert.Positive(t, cfg.Presence.HeartbeatTimeout)
	assert.Greater(t, cfg.Presence.HeartbeatTimeout, cfg.Presence.SweepInterval,
		"a participant must survive at least one sweep between heartbeats")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("REDIS_ADDRESS", "redis.internal:6380")
	t.Setenv("RELAY_UPSTREAM", "http://10.0.0.5:54321")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Address)
	assert.Equal(t, "http://10.0.0.5:54321", cfg.Relay.Upstream)
}
