package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Store)
	assert.Equal(t, 1500*time.Millisecond, cfg.DemoPaymentDelay)
	assert.Equal(t, 30*time.Minute, cfg.DraftTTL)
	assert.Equal(t, "admin@sparkreach.com", cfg.AdminEmail)
	assert.False(t, cfg.GatewayEnabled())
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sparkreach.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "8080"
store: postgres
draft_ttl: 10m
cors_allowed_origins:
  - https://sparkreach.example
razorpay_key_id: rzp_test_1
razorpay_key_secret: secret
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, BackendPostgres, cfg.Store)
	assert.Equal(t, 10*time.Minute, cfg.DraftTTL)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.GatewayEnabled())
}

func TestLoad_InvalidBackend(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STORE", "mysql")

	_, err := Load()
	assert.Error(t, err)
}

func TestLocation_Fallback(t *testing.T) {
	cfg := &Config{Timezone: "Nowhere/Invalid"}
	_, offset := time.Now().In(cfg.Location()).Zone()
	assert.Equal(t, 5*3600+1800, offset)
}
