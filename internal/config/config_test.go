package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/parley/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "parley.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, 1, cfg.Settings.InitialConversationPool)

	cfg, err = config.Load(write(t, ""))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	cfg, err := config.Load(write(t, `
log_level: debug
stub_failed_routines: true
settings:
  max_flags: 8
  prevent_single_node_choices: true
redis:
  addr: localhost:6379
  channel: game:flags
`))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.StubFailedRoutines)
	assert.Equal(t, 8, cfg.Settings.MaxFlags)
	assert.True(t, cfg.Settings.PreventSingleNodeChoices)
	assert.Equal(t, 1, cfg.Settings.InitialConversationPool, "unset keys keep their default")
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "game:flags", cfg.Redis.Channel)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config")

	_, err = config.Load(write(t, "log_levle: debug\n"))
	assert.ErrorContains(t, err, "failed to parse config")

	_, err = config.Load(write(t, "settings:\n  max_flags: -1\n"))
	assert.ErrorContains(t, err, "settings.max_flags must not be negative")
}
