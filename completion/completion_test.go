package completion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/diillson/krusty/builtins"
	"github.com/diillson/krusty/config"
	"github.com/diillson/krusty/shellstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T) (*Provider, *shellstate.State) {
	t.Helper()
	st, err := shellstate.New(map[string]string{"PATH": ""}, nil, "")
	require.NoError(t, err)
	p := New(st, builtins.NewRegistry(), config.CompletionConfig{
		Enabled:        true,
		MaxSuggestions: 20,
	})
	return p, st
}

func TestComplete_FirstTokenIncludesBuiltins(t *testing.T) {
	p, _ := newTestProvider(t)
	groups := p.Complete("ex", 2)
	require.Len(t, groups, 1)
	assert.Contains(t, groups[0].Items, "export")
	assert.Contains(t, groups[0].Items, "exit")
}

func TestComplete_CdOffersDashAndTilde(t *testing.T) {
	p, _ := newTestProvider(t)
	groups := p.Complete("cd ", 3)
	require.Len(t, groups, 1)
	assert.Contains(t, groups[0].Items, "-")
	assert.Contains(t, groups[0].Items, "~")
}

func TestComplete_PathCompletionListsDirectoryEntries(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alpha.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "beta"), 0o755))

	st, err := shellstate.New(map[string]string{"PATH": ""}, nil, "")
	require.NoError(t, err)
	require.NoError(t, st.Chdir(dir))

	p := New(st, builtins.NewRegistry(), config.CompletionConfig{Enabled: true, MaxSuggestions: 20})
	groups := p.Complete("cat a", 5)
	require.Len(t, groups, 1)
	assert.Contains(t, groups[0].Items, "alpha.txt")
}

func TestComplete_DisabledReturnsNil(t *testing.T) {
	st, err := shellstate.New(map[string]string{}, nil, "")
	require.NoError(t, err)
	p := New(st, builtins.NewRegistry(), config.CompletionConfig{Enabled: false})
	assert.Nil(t, p.Complete("ex", 2))
}

func TestDisplayWidth_AsciiIsOneColumnPerByte(t *testing.T) {
	assert.Equal(t, 5, DisplayWidth("hello"))
}

func TestComplete_FlagsForKnownCommand(t *testing.T) {
	p, _ := newTestProvider(t)
	groups := p.Complete("git --ver", 9)
	require.NotEmpty(t, groups)
	assert.Equal(t, "flags", groups[0].Title)
	assert.Contains(t, groups[0].Items, "--version")
}

func TestComplete_BunRunOffersPackageScripts(t *testing.T) {
	p, st := newTestProvider(t)
	dir := t.TempDir()
	st.Cwd = dir
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"),
		[]byte(`{"scripts":{"build":"tsc","test":"jest"}}`), 0o644))

	groups := p.Complete("bun run ", 8)
	require.NotEmpty(t, groups)
	assert.Equal(t, "scripts", groups[0].Title)
	assert.Equal(t, []string{"build", "test"}, groups[0].Items)
}
