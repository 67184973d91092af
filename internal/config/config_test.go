package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "BACKEND_URL", "BACKEND_TIMEOUT", "REDIS_HOST", "LOGIN_PATH", "CORS_ORIGINS", "ORDER_REDIRECT_DELAY", "APP_ENV"} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()
	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, "http://localhost:8080", cfg.BackendURL, "backend is not the BFF itself")
	assert.Equal(t, 10*time.Second, cfg.BackendTimeout)
	assert.Equal(t, "/login", cfg.LoginPath)
	assert.Equal(t, "/order-confirmation", cfg.OrderRedirectPath)
	assert.Equal(t, 2*time.Second, cfg.OrderRedirectDelay)
	assert.Empty(t, cfg.RedisHost)
	assert.False(t, cfg.Production())
}

func TestFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("BACKEND_URL", "http://api.internal:8080/")
	t.Setenv("BACKEND_TIMEOUT", "3s")
	t.Setenv("CORS_ORIGINS", "https://shop.example.com, https://admin.example.com,")
	t.Setenv("ORDER_REDIRECT_DELAY", "nope")

	cfg := FromEnv()
	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.Production())
	assert.Equal(t, "http://api.internal:8080", cfg.BackendURL)
	assert.Equal(t, 3*time.Second, cfg.BackendTimeout)
	assert.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, 2*time.Second, cfg.OrderRedirectDelay, "bad value falls back")
}
