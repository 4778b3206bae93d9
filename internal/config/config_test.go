package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	assert.Equal(t, "!", cfg.GetPrefix())
	assert.Equal(t, 30, cfg.GetFetch().TimeoutSec)
	assert.Equal(t, 1024, cfg.GetFetch().MaxBodyKB)
	assert.Equal(t, 4, cfg.GetSync().Concurrency)
	assert.Equal(t, "info", cfg.GetLogging().Level)
}

func TestLoadAndSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".scriptbot", "config.json")

	cfg := &Config{
		Prefix: ">",
		Fetch:  &FetchConfig{TimeoutSec: 5},
	}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ">", loaded.GetPrefix())
	assert.Equal(t, 5, loaded.GetFetch().TimeoutSec)
	// Unset fields keep their defaults.
	assert.Equal(t, 1024, loaded.GetFetch().MaxBodyKB)
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("SCRIPTBOT_PREFIX overrides prefix", func(t *testing.T) {
		t.Setenv("SCRIPTBOT_PREFIX", ";")

		cfg := &Config{Prefix: "!"}
		cfg.applyEnvOverrides()

		assert.Equal(t, ";", cfg.GetPrefix())
	})

	t.Run("SCRIPTBOT_FETCH_TIMEOUT_SEC overrides timeout", func(t *testing.T) {
		t.Setenv("SCRIPTBOT_FETCH_TIMEOUT_SEC", "7")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, 7, cfg.GetFetch().TimeoutSec)
	})

	t.Run("invalid timeout value ignored", func(t *testing.T) {
		t.Setenv("SCRIPTBOT_FETCH_TIMEOUT_SEC", "nope")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, 30, cfg.GetFetch().TimeoutSec)
	})

	t.Run("SCRIPTBOT_DEBUG enables debug mode", func(t *testing.T) {
		t.Setenv("SCRIPTBOT_DEBUG", "true")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.True(t, cfg.GetLogging().DebugMode)
	})
}

func TestGetScriptsDir(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, filepath.Join("/ws", ".scriptbot", "scripts"), cfg.GetScriptsDir("/ws"))

	cfg.ScriptsDir = "/elsewhere/scripts"
	assert.Equal(t, "/elsewhere/scripts", cfg.GetScriptsDir("/ws"))
}
