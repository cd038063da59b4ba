package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"server_base_url":       "https://tracker.example.com",
		"online_check_interval": "10s",
		"sync_interval":         "5m",
		"retention_days":        0,
		"max_retries":           2,
	})

	t.Run("loads named fields", func(t *testing.T) {
		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseJson(cfg, []string{"-config", path}))

		assert.Equal(t, "https://tracker.example.com", cfg.ServerBaseURL)
		assert.Equal(t, 10*time.Second, cfg.OnlineCheckInterval)
		assert.Equal(t, 5*time.Minute, cfg.SyncInterval)
		assert.Equal(t, 0, cfg.RetentionDays)
		assert.Equal(t, 2, cfg.MaxRetries)
		// untouched
		assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
		assert.Equal(t, "nutrisync.db", cfg.DatabasePath)
	})

	t.Run("no config flag leaves cfg alone", func(t *testing.T) {
		cfg := &Config{ServerBaseURL: "http://defaults:1234"}
		require.NoError(t, parseJson(cfg, []string{"-a", "x"}))
		assert.Equal(t, "http://defaults:1234", cfg.ServerBaseURL)
	})

	t.Run("invalid json", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ nope`), 0o600))
		require.Error(t, parseJson(&Config{}, []string{"-c", bad}))
	})

	t.Run("missing file", func(t *testing.T) {
		require.Error(t, parseJson(&Config{}, []string{"-c", filepath.Join(t.TempDir(), "absent.json")}))
	})
}

func TestLoadConfig_FlagsBeatJSON(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"server_base_url": "https://from-json",
		"log_level":       "warn",
	})

	cfg, err := LoadConfig([]string{"-c", path, "-a", "https://from-flag"})
	require.NoError(t, err)
	assert.Equal(t, "https://from-flag", cfg.ServerBaseURL)
	assert.Equal(t, "warn", cfg.LogLevel)
}
