package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/dialogbot/core/config"
)

const sample = `
telegram:
  token: "123:abc"
  admin_ids: [42]
database:
  driver: sqlite
  path: data/test.db
session:
  backend: redis
  redis_addr: "localhost:6379"
  ttl: 24h
services:
  openai_api_key: sk-test
  weather_api_key: weather
  exchange_api_key: fx
  model: gpt-4o-mini
dialogue:
  default_flow: assessment
ops:
  listen: ":9090"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFileWithDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, coreconfig.RunModeLongpoll, cfg.Telegram.RunMode)
	assert.True(t, cfg.CoreConfig().IsAdmin(42))
	assert.Equal(t, BackendRedis, cfg.Session.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 30*time.Second, cfg.Session.LockTTL)
	assert.Equal(t, 10*time.Second, cfg.Services.Timeout)
	assert.Equal(t, "Москва", cfg.Services.City)
	assert.Equal(t, "gpt-4o-mini", cfg.Services.Model)
	assert.Equal(t, "assessment", cfg.Dialogue.DefaultFlow)
	assert.Equal(t, "img", cfg.Media.Dir)
	assert.Equal(t, ":9090", cfg.Ops.Listen)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("OPENAI_MODEL", "gpt-4.1")
	t.Setenv("SESSION_BACKEND", "memory")
	t.Setenv("SERVICES_TIMEOUT", "3s")

	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1", cfg.Services.Model)
	assert.Equal(t, BackendMemory, cfg.Session.Backend)
	assert.Equal(t, 3*time.Second, cfg.Services.Timeout)
}

func TestMissingKeysAreFatal(t *testing.T) {
	for _, env := range []string{"OPENAI_API_KEY", "YANDEX_WEATHER_API_KEY", "EXCHANGE_API_KEY"} {
		t.Run(env, func(t *testing.T) {
			t.Setenv(env, "")
			_, err := Load(writeConfig(t, sample))
			require.Error(t, err)
			assert.ErrorIs(t, err, coreconfig.ErrMissingSetting)
			assert.Contains(t, err.Error(), env)
		})
	}
}

func TestInvalidSessionBackend(t *testing.T) {
	t.Setenv("SESSION_BACKEND", "etcd")
	_, err := Load(writeConfig(t, sample))
	assert.Error(t, err)
}

func TestRedisBackendNeedsAddr(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	_, err := Load(writeConfig(t, sample))
	assert.ErrorIs(t, err, coreconfig.ErrMissingSetting)
}

func TestTemperatureZeroIsKept(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)
	assert.Nil(t, cfg.Services.Temperature)

	t.Setenv("OPENAI_TEMPERATURE", "0")
	cfg, err = Load(writeConfig(t, sample))
	require.NoError(t, err)
	require.NotNil(t, cfg.Services.Temperature)
	assert.Zero(t, *cfg.Services.Temperature)

	t.Setenv("OPENAI_TEMPERATURE", "2.5")
	_, err = Load(writeConfig(t, sample))
	assert.Error(t, err)
}
