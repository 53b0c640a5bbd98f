package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadRequiresSigningSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load(zap.NewNop())
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-test-secret-test-secret")

	cfg, err := Load(zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppConfig.Port)
	assert.Equal(t, time.Hour, cfg.TokenConfig.TTL)
	assert.Equal(t, "objaverse-auth", cfg.TokenConfig.Issuer)
	assert.Equal(t, "objaverse", cfg.TokenConfig.Audience)
	assert.Equal(t, 5, cfg.LockoutConfig.MaxFailures)
	assert.Equal(t, 15*time.Minute, cfg.LockoutConfig.Window)
	assert.Equal(t, 15*time.Minute, cfg.LockoutConfig.Cooldown)
	assert.Equal(t, 10*time.Second, cfg.HealthConfig.ProbeInterval)
	assert.Equal(t, 3, cfg.HealthConfig.FailureThreshold)
	assert.Equal(t, 3*time.Second, cfg.Upstream.CallTimeout)
	assert.InDelta(t, 0.3, cfg.Assignment.SharePercent, 1e-9)
	assert.InDelta(t, 0.2, cfg.Assignment.CrossoverPercent, 1e-9)
	assert.Empty(t, cfg.RedisConfig.Addr)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-test-secret-test-secret")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("JWT_ISSUER", "staging-auth")
	t.Setenv("LOCKOUT_MAX_FAILURES", "3")
	t.Setenv("ASSIGNMENT_SHARE_PERCENT", "0.5")
	t.Setenv("ASSIGNMENT_CROSSOVER_PERCENT", "0")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "2")

	cfg, err := Load(zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.AppConfig.Port)
	assert.Equal(t, 30*time.Minute, cfg.TokenConfig.TTL)
	assert.Equal(t, "staging-auth", cfg.TokenConfig.Issuer)
	assert.Equal(t, 3, cfg.LockoutConfig.MaxFailures)
	assert.InDelta(t, 0.5, cfg.Assignment.SharePercent, 1e-9)
	assert.Zero(t, cfg.Assignment.CrossoverPercent)
	assert.Equal(t, "redis:6379", cfg.RedisConfig.Addr)
	assert.Equal(t, 2, cfg.RedisConfig.DB)
}

func TestLoadRejectsOutOfRangeAssignment(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-test-secret-test-secret")

	t.Run("zero share", func(t *testing.T) {
		t.Setenv("ASSIGNMENT_SHARE_PERCENT", "0")
		_, err := Load(zap.NewNop())
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("share above one", func(t *testing.T) {
		t.Setenv("ASSIGNMENT_SHARE_PERCENT", "1.5")
		_, err := Load(zap.NewNop())
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("negative crossover", func(t *testing.T) {
		t.Setenv("ASSIGNMENT_CROSSOVER_PERCENT", "-0.1")
		_, err := Load(zap.NewNop())
		assert.ErrorIs(t, err, ErrConfiguration)
	})
}

func TestLoadRejectsNonPositiveTTL(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-test-secret-test-secret")
	t.Setenv("TOKEN_TTL", "0s")

	_, err := Load(zap.NewNop())
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoadRejectsUnparsableValues(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-test-secret-test-secret")

	t.Run("duration", func(t *testing.T) {
		t.Setenv("TOKEN_TTL", "banana")
		_, err := Load(zap.NewNop())
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("int", func(t *testing.T) {
		t.Setenv("LOCKOUT_MAX_FAILURES", "many")
		_, err := Load(zap.NewNop())
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("float", func(t *testing.T) {
		t.Setenv("ASSIGNMENT_SHARE_PERCENT", "a third")
		_, err := Load(zap.NewNop())
		assert.ErrorIs(t, err, ErrConfiguration)
	})
}
