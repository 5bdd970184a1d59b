package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Scheduler.MaxThreads)
	assert.Equal(t, 5, cfg.Scheduler.MaxThreadsNoProxy)
	assert.Equal(t, 24*time.Hour, cfg.Cooldown())
	assert.Equal(t, 24*time.Hour, cfg.AccountTimeout())
	assert.Equal(t, 5*time.Second, cfg.CycleBuffer())
	assert.Equal(t, 5, cfg.Client.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.RetryDelay())
	assert.Equal(t, 120*time.Second, cfg.RequestTimeout())
	assert.Equal(t, "tokens.txt", cfg.Files.Tokens)
	assert.Equal(t, "info", cfg.Log.Level)

	assert.EqualError(t, cfg.Validate(), "api.base_url is required")
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://api.example.com/
  endpoints:
    profile: /v2/me
proxy:
  enabled: false
scheduler:
  max_threads: 20
  cooldown_minutes: 0
  start_delay_seconds: [1, 9]
  cycle_buffer_seconds: 0
`)
	t.Setenv("USE_PROXY", "true")
	t.Setenv("MAX_THREADS", "7")
	t.Setenv("TIME_SLEEP", "60")
	t.Setenv("REF_CODE", "r_1")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://api.example.com", cfg.API.BaseURL)
	assert.Equal(t, "/v2/me", cfg.API.Endpoints.Profile)
	assert.True(t, cfg.Proxy.Enabled)
	assert.Equal(t, 7, cfg.Workers())
	assert.Equal(t, time.Hour, cfg.Cooldown())
	assert.Equal(t, "r_1", cfg.Referral.DefaultCode)
	assert.Zero(t, cfg.CycleBuffer(), "explicit zero buffer is kept")
	lo, hi := cfg.StartDelay()
	assert.Equal(t, time.Second, lo)
	assert.Equal(t, 9*time.Second, hi)
}

func TestLoad_ZeroCooldownKept(t *testing.T) {
	cfg, err := Load(writeConfig(t, "scheduler:\n  cooldown_minutes: 0\n"))
	require.NoError(t, err)
	assert.Zero(t, cfg.Cooldown())
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("MAX_THREADS", "many")
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_THREADS")
}

func TestWorkers_NoProxy(t *testing.T) {
	cfg, err := Load(writeConfig(t, "scheduler:\n  max_threads: 10\n  max_threads_no_proxy: 3\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(writeConfig(t, "api:\n  base_url: https://x\n"))
		require.NoError(t, err)
		return cfg
	}
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"negative threads", func(c *Config) { c.Scheduler.MaxThreads = -1 }, "max_threads"},
		{"zero no-proxy threads", func(c *Config) { c.Scheduler.MaxThreadsNoProxy = -2 }, "max_threads_no_proxy"},
		{"inverted delay", func(c *Config) { c.Scheduler.StartDelaySeconds = [2]int{5, 1} }, "start_delay_seconds"},
		{"negative cooldown", func(c *Config) { c.Scheduler.CooldownMinutes = -5 }, "cooldown_minutes"},
		{"bad retries", func(c *Config) { c.Client.MaxRetries = -1 }, "max_retries"},
		{"bot without chat", func(c *Config) { c.Telegram.BotToken = "t" }, "chat_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
