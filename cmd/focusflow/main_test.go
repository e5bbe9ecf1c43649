package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/focusflow/internal/model"
)

func TestVersionCommand(t *testing.T) {
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "focusflow version "+Version+"\n", out.String())
}

func TestLoadConfigPersistsSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	require.NotEmpty(t, cfg.Auth.JWTSecret)

	again, err := model.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Auth.JWTSecret, again.Auth.JWTSecret)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestOpenServices(t *testing.T) {
	dir := t.TempDir()
	cfg, err := loadConfig(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	cfg.Database.Path = filepath.Join(dir, "data", "focusflow.db")
	cfg.Auth.OutboxDir = filepath.Join(dir, "outbox")

	svc, err := openServices(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, svc.nats)
	assert.NoError(t, svc.Close())
}
