package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Edward-Boguslavsky/Birthday-Bot/session"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesAndDefaults(t *testing.T) {
	t.Setenv("BIRTHDAY_DATA", "/srv/birthdays")
	path := writeConfig(t, `
storage: sqlite
data_dir: ${BIRTHDAY_DATA}
session:
  scope: user
  ttl: 15m
metrics:
  addr: ":9090"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Storage)
	assert.Equal(t, "/srv/birthdays", cfg.DataDir)
	assert.Equal(t, session.ScopeUser, cfg.Scope())
	assert.Equal(t, 15*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 7*time.Second, cfg.Session.NotificationTTL)
	assert.Equal(t, time.Minute, cfg.Sweep.Interval)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"storage", "storage: redis", "invalid storage"},
		{"scope", "session:\n  scope: channel", "unknown session scope"},
		{"short ttl", "session:\n  ttl: 30s", "session.ttl"},
		{"notification longer than session", "session:\n  ttl: 1m\n  notification_ttl: 2m", "notification_ttl"},
		{"fast sweep", "sweep:\n  interval: 1s", "sweep.interval"},
		{"log level", "log_level: loud", "invalid log_level"},
		{"bad yaml", "session: [", "unmarshal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
