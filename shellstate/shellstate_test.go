package shellstate

import (
	"path/filepath"
	"testing"

	"github.com/diillson/krusty/config"
	"github.com/diillson/krusty/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T) *State {
	t.Helper()
	hist, err := history.New(config.HistoryConfig{MaxEntries: 10, File: filepath.Join(t.TempDir(), "hist")})
	require.NoError(t, err)
	s, err := New(map[string]string{"PATH": "/usr/bin"}, hist, filepath.Join(t.TempDir(), "bookmarks.json"))
	require.NoError(t, err)
	return s
}

func TestGetenvSetenvUnsetenv(t *testing.T) {
	s := newTestState(t)
	s.Setenv("FOO", "bar")
	v, ok := s.Getenv("FOO")
	assert.True(t, ok)
	assert.Equal(t, "bar", v)

	s.Unsetenv("FOO")
	_, ok = s.Getenv("FOO")
	assert.False(t, ok)
}

func TestChdir_UpdatesCwdAndOldPwd(t *testing.T) {
	s := newTestState(t)
	start := s.Cwd
	dir := t.TempDir()

	require.NoError(t, s.Chdir(dir))
	assert.NotEqual(t, start, s.Cwd)
	oldpwd, _ := s.Getenv("OLDPWD")
	assert.Equal(t, start, oldpwd)
}

func TestPushPopDir(t *testing.T) {
	s := newTestState(t)
	start := s.Cwd
	dir := t.TempDir()

	require.NoError(t, s.PushDir(dir))
	assert.Len(t, s.DirStackView(), 2)

	popped, err := s.PopDir()
	require.NoError(t, err)
	assert.Equal(t, start, popped)
	assert.Equal(t, start, s.Cwd)
}

func TestPopDir_EmptyStackErrors(t *testing.T) {
	s := newTestState(t)
	_, err := s.PopDir()
	assert.Error(t, err)
}

func TestBookmarks_SetRemovePersist(t *testing.T) {
	s := newTestState(t)
	require.NoError(t, s.SetBookmark("proj", "/tmp/proj"))
	assert.Equal(t, "/tmp/proj", s.BookmarksView()["proj"])

	require.NoError(t, s.RemoveBookmark("proj"))
	_, ok := s.BookmarksView()["proj"]
	assert.False(t, ok)
}

func TestBookmarks_LoadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	bookmarksFile := filepath.Join(dir, "bookmarks.json")

	hist, err := history.New(config.HistoryConfig{MaxEntries: 10, File: filepath.Join(dir, "hist")})
	require.NoError(t, err)
	s1, err := New(nil, hist, bookmarksFile)
	require.NoError(t, err)
	require.NoError(t, s1.SetBookmark("home", "/root"))

	s2, err := New(nil, hist, bookmarksFile)
	require.NoError(t, err)
	assert.Equal(t, "/root", s2.BookmarksView()["home"])
}
