package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewState_StartsEmptyWithNoHistorySelection(t *testing.T) {
	s := newState()
	assert.Equal(t, "", s.Text())
	assert.Equal(t, 0, s.Cursor)
	assert.Equal(t, -1, s.HistoryIndex)
}

func TestInsertRune_AdvancesCursor(t *testing.T) {
	s := newState()
	s.InsertRune('a')
	s.InsertRune('b')
	assert.Equal(t, "ab", s.Text())
	assert.Equal(t, 2, s.Cursor)
}

func TestInsertRune_InsertsAtCursorNotAppend(t *testing.T) {
	s := newState()
	s.InsertString("ac")
	s.Cursor = 1
	s.InsertRune('b')
	assert.Equal(t, "abc", s.Text())
	assert.Equal(t, 2, s.Cursor)
}

func TestDeleteBack_RemovesPriorGrapheme(t *testing.T) {
	s := newState()
	s.InsertString("abc")
	s.DeleteBack()
	assert.Equal(t, "ab", s.Text())
	assert.Equal(t, 2, s.Cursor)
}

func TestDeleteBack_AtStartIsNoop(t *testing.T) {
	s := newState()
	s.InsertString("abc")
	s.Cursor = 0
	s.DeleteBack()
	assert.Equal(t, "abc", s.Text())
}

func TestDeleteForward_RemovesAtCursor(t *testing.T) {
	s := newState()
	s.InsertString("abc")
	s.Cursor = 1
	s.DeleteForward()
	assert.Equal(t, "ac", s.Text())
	assert.Equal(t, 1, s.Cursor)
}

func TestHomeEnd_MoveCursorToEdges(t *testing.T) {
	s := newState()
	s.InsertString("hello")
	s.Home()
	assert.Equal(t, 0, s.Cursor)
	s.End()
	assert.Equal(t, 5, s.Cursor)
}

func TestWordLeftWordRight_SkipWhitespaceAndWords(t *testing.T) {
	s := newState()
	s.InsertString("foo bar baz")
	s.Cursor = len(s.Buffer)

	s.WordLeft()
	assert.Equal(t, 8, s.Cursor)
	s.WordLeft()
	assert.Equal(t, 4, s.Cursor)
	s.WordLeft()
	assert.Equal(t, 0, s.Cursor)

	s.WordRight()
	assert.Equal(t, 3, s.Cursor)
}

func TestKillWordBack_DeletesPrecedingWord(t *testing.T) {
	s := newState()
	s.InsertString("foo bar")
	s.KillWordBack()
	assert.Equal(t, "foo ", s.Text())
	assert.Equal(t, 4, s.Cursor)
}

func TestKillWordForward_DeletesFollowingWord(t *testing.T) {
	s := newState()
	s.InsertString("foo bar")
	s.Cursor = 0
	s.KillWordForward()
	assert.Equal(t, " bar", s.Text())
	assert.Equal(t, 0, s.Cursor)
}

func TestKillToStartKillToEnd(t *testing.T) {
	s := newState()
	s.InsertString("hello world")
	s.Cursor = 6

	before := *s
	s.KillToEnd()
	assert.Equal(t, "hello ", s.Text())

	*s = before
	s.KillToStart()
	assert.Equal(t, "world", s.Text())
	assert.Equal(t, 0, s.Cursor)
}

func TestReset_ClearsEverything(t *testing.T) {
	s := newState()
	s.InsertString("abc")
	s.Suggestions = []string{"abcd"}
	s.SuggestionActive = true
	s.ReverseSearchActive = true
	s.ReverseQuery = "a"
	s.HistoryIndex = 3

	s.Reset()

	assert.Equal(t, "", s.Text())
	assert.Equal(t, 0, s.Cursor)
	assert.Equal(t, -1, s.HistoryIndex)
	assert.Empty(t, s.Suggestions)
	assert.False(t, s.SuggestionActive)
	assert.False(t, s.ReverseSearchActive)
}
