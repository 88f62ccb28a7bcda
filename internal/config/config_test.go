package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("REDIS_URI", "")
	t.Setenv("RATE_LIMIT_REQUESTS", "")

	cfg := Load()

	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 30, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
}

func TestLoad_StripsRedisScheme(t *testing.T) {
	t.Setenv("REDIS_URI", "redis://cache:6380")

	assert.Equal(t, "cache:6380", Load().RedisAddr)
}

func TestLoad_IgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("RATE_LIMIT_REQUESTS", "lots")
	t.Setenv("RATE_LIMIT_WINDOW_SEC", "-5")

	cfg := Load()

	assert.Equal(t, 30, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
}

func TestAIConfig_IsEnabled(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	assert.False(t, DefaultAIConfig().IsEnabled())

	t.Setenv("GEMINI_API_KEY", "k")
	assert.True(t, DefaultAIConfig().IsEnabled())

	t.Setenv("AI_DISABLED", "true")
	assert.False(t, DefaultAIConfig().IsEnabled())
}

func TestAIConfig_Timeout(t *testing.T) {
	t.Setenv("AI_TIMEOUT_MS", "2500")

	assert.Equal(t, 2500*time.Millisecond, DefaultAIConfig().Timeout())
}

func TestLoad_ClinicianID(t *testing.T) {
	t.Setenv("CLINICIAN_ID", "")
	assert.Empty(t, Load().Auth.ClinicianID)

	t.Setenv("CLINICIAN_ID", "clin_ward7")
	assert.Equal(t, "clin_ward7", Load().Auth.ClinicianID)
}
