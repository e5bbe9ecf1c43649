package model

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.True(t, cfg.Auth.RequireVerifiedEmail)
	assert.Equal(t, 24*7, cfg.Auth.SessionTTLHours)
	assert.Equal(t, 5, cfg.Display.PollIntervalSec)
	assert.Equal(t, "focusflow", cfg.Events.SubjectPrefix)
	assert.Empty(t, cfg.Events.NATSURL)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
database:
  path: /tmp/tasks.db
auth:
  jwt_secret: s3cret
  require_verified_email: false
server:
  addr: 127.0.0.1:9000
display:
  poll_interval_sec: 0
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/tasks.db", cfg.Database.Path)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.False(t, cfg.Auth.RequireVerifiedEmail)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 5, cfg.Display.PollIntervalSec, "non-positive interval falls back")
	assert.Equal(t, 60, cfg.Auth.ResetTTLMinutes)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("FOCUSFLOW_SERVER_ADDR", ":7070")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	cfg.Server.Addr = ":9999"
	cfg.Events.NATSURL = "nats://localhost:4222"

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", loaded.Server.Addr)
	assert.Equal(t, "nats://localhost:4222", loaded.Events.NATSURL)
}

func TestSaveConfigRestrictsFileWithSecret(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	dir := t.TempDir()

	plain := filepath.Join(dir, "plain.yaml")
	cfg := defaultAppConfig()
	require.NoError(t, SaveConfig(plain, cfg))
	info, err := os.Stat(plain)
	require.NoError(t, err)
	assert.NotEqual(t, os.FileMode(0o600), info.Mode().Perm())

	secret := filepath.Join(dir, "secret.yaml")
	cfg.Auth.JWTSecret = "s3cret"
	require.NoError(t, SaveConfig(secret, cfg))
	info, err = os.Stat(secret)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
