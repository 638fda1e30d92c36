package editor

import (
	"path/filepath"
	"testing"

	"github.com/diillson/krusty/config"
	"github.com/diillson/krusty/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The keypress loop drives a raw terminal fd and isn't practical to
// exercise without a pty harness, so these tests cover the pieces that
// don't require one: suggestion application, word-boundary lookup, and
// the marker-stripping/highlighting helpers the render path uses.

func TestCurrentWord_FindsTokenBeforeCursor(t *testing.T) {
	assert.Equal(t, "wor", currentWord("echo wor", 8))
	assert.Equal(t, "", currentWord("echo ", 5))
	assert.Equal(t, "echo", currentWord("echo", 4))
}

func TestStripMarkers_RemovesIgnoreBytes(t *testing.T) {
	in := "\x01\033[32m\x02$ "
	assert.Equal(t, "\033[32m$ ", stripMarkers(in))
}

func TestDimColor_WrapsNonEmptyOnly(t *testing.T) {
	assert.Equal(t, "", dimColor(""))
	assert.Contains(t, dimColor("abc"), "abc")
}

func TestApplySuggestion_ReplacesCurrentWord(t *testing.T) {
	e := &Editor{}
	st := newState()
	st.InsertString("ec")
	st.Suggestions = []string{"echo"}
	st.SuggestionActive = true

	e.applySuggestion(st)

	assert.Equal(t, "echo", st.Text())
	assert.Equal(t, 4, st.Cursor)
}

func TestApplySuggestion_PreservesPrecedingWords(t *testing.T) {
	e := &Editor{}
	st := newState()
	st.InsertString("cat fo")
	st.Suggestions = []string{"foo.txt"}
	st.SuggestionActive = true

	e.applySuggestion(st)

	assert.Equal(t, "cat foo.txt", st.Text())
}

func TestApplySuggestion_NoopWhenInactive(t *testing.T) {
	e := &Editor{}
	st := newState()
	st.InsertString("ec")

	e.applySuggestion(st)

	assert.Equal(t, "ec", st.Text())
}

func histWith(t *testing.T, lines ...string) *history.Manager {
	t.Helper()
	m, err := history.New(config.HistoryConfig{
		File:       filepath.Join(t.TempDir(), "history"),
		MaxEntries: 100,
		SearchMode: config.SearchFuzzy,
	})
	require.NoError(t, err)
	for _, l := range lines {
		require.NoError(t, m.Add(l))
	}
	return m
}

func TestHistoryPrev_FiltersByTypedPrefix(t *testing.T) {
	e := &Editor{history: histWith(t, "git status", "ls", "git log")}
	st := newState()
	st.InsertString("git")

	e.historyPrev(st)
	assert.Equal(t, "git log", st.Text())

	e.historyPrev(st)
	assert.Equal(t, "git status", st.Text())
}

func TestHistoryNext_ReturnsToOriginalInput(t *testing.T) {
	e := &Editor{history: histWith(t, "git status", "git log")}
	st := newState()
	st.InsertString("git")

	e.historyPrev(st)
	e.historyNext(st)
	assert.Equal(t, "git", st.Text())
	assert.Equal(t, -1, st.HistoryIndex)
}

func TestReverseSearch_FindsAndCycles(t *testing.T) {
	e := &Editor{history: histWith(t, "git status", "grep foo", "grep bar")}
	st := newState()
	st.ReverseSearchActive = true
	st.ReverseQuery = "gre"

	e.applyReverseSearch(st)
	first := st.Text()
	assert.Contains(t, first, "grep")

	e.cycleReverseSearch(st)
	second := st.Text()
	assert.Contains(t, second, "grep")
	assert.NotEqual(t, first, second)
}
