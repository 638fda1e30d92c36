package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Load_Defaults(t *testing.T) {
	m := New(nil, "")
	require.NoError(t, m.Load())

	cfg := m.Get()
	assert.Equal(t, 1000, cfg.History.MaxEntries)
	assert.True(t, cfg.Completion.Enabled)
	assert.Equal(t, SearchFuzzy, cfg.History.SearchMode)
}

func TestManager_Load_YAMLOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "krusty.yaml")
	yamlContent := `
verbose: true
history:
  maxEntries: 42
  file: /tmp/hist
  searchMode: regex
completion:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o644))

	m := New(nil, path)
	require.NoError(t, m.Load())

	cfg := m.Get()
	assert.True(t, cfg.Verbose)
	assert.Equal(t, 42, cfg.History.MaxEntries)
	assert.Equal(t, "/tmp/hist", cfg.History.File)
	assert.Equal(t, SearchRegex, cfg.History.SearchMode)
	assert.False(t, cfg.Completion.Enabled)
}

func TestManager_Load_MissingYAMLFileIsNotAnError(t *testing.T) {
	m := New(nil, filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.NoError(t, m.Load())
}

func TestManager_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "krusty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("history:\n  maxEntries: 10\n"), 0o644))

	t.Setenv("KRUSTY_HISTORY_MAX_ENTRIES", "99")

	m := New(nil, path)
	require.NoError(t, m.Load())

	assert.Equal(t, 99, m.Get().History.MaxEntries)
}

func TestManager_Set_AppliesFlagOverride(t *testing.T) {
	m := New(nil, "")
	require.NoError(t, m.Load())

	m.Set(func(c *Config) { c.Verbose = true })
	assert.True(t, m.Get().Verbose)
}

func TestManager_Reload_InvokesCallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "krusty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("verbose: false\n"), 0o644))

	m := New(nil, path)
	require.NoError(t, m.Load())

	require.NoError(t, os.WriteFile(path, []byte("verbose: true\n"), 0o644))

	called := make(chan Config, 1)
	m.onReload = func(c Config) { called <- c }

	require.NoError(t, m.Reload())
	select {
	case cfg := <-called:
		assert.True(t, cfg.Verbose)
	default:
		t.Fatal("expected onReload to be invoked")
	}
}

func TestConfigClone_Independent(t *testing.T) {
	cfg := Defaults()
	cfg.Aliases["ll"] = "ls -l"

	clone := cfg.Clone()
	clone.Aliases["ll"] = "ls -la"

	assert.Equal(t, "ls -l", cfg.Aliases["ll"])
	assert.Equal(t, "ls -la", clone.Aliases["ll"])
}
