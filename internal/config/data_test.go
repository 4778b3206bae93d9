package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataSetGetPersist(t *testing.T) {
	ws := t.TempDir()

	d, err := OpenData(ws)
	require.NoError(t, err)

	require.NoError(t, d.Set("prefix", "!"))
	require.NoError(t, d.Set("afk_enabled", true))

	assert.Equal(t, "!", d.GetString("prefix", "?"))
	assert.True(t, d.GetBool("afk_enabled", false))
	assert.Nil(t, d.Get("missing"))
	assert.Equal(t, "fallback", d.GetString("missing", "fallback"))

	// Reopen: values survive restart.
	d2, err := OpenData(ws)
	require.NoError(t, err)
	assert.Equal(t, "!", d2.GetString("prefix", "?"))
	assert.True(t, d2.Has("afk_enabled"))
}

func TestDataSetDefault(t *testing.T) {
	ws := t.TempDir()

	d, err := OpenData(ws)
	require.NoError(t, err)

	require.NoError(t, d.SetDefault("limit", float64(20)))
	require.NoError(t, d.SetDefault("limit", float64(99)))

	assert.Equal(t, float64(20), d.Get("limit"))
}

func TestDataDelete(t *testing.T) {
	ws := t.TempDir()

	d, err := OpenData(ws)
	require.NoError(t, err)

	require.NoError(t, d.Set("k", "v"))
	require.NoError(t, d.Delete("k"))
	assert.False(t, d.Has("k"))

	d2, err := OpenData(ws)
	require.NoError(t, err)
	assert.False(t, d2.Has("k"))
}

func TestOpenDataRejectsCorruptFile(t *testing.T) {
	ws := t.TempDir()
	dir := filepath.Join(ws, ".scriptbot")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.json"), []byte("?"), 0644))

	_, err := OpenData(ws)
	assert.Error(t, err)
}
