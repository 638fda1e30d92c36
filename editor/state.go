// Package editor implements the line editor: a keypress loop over raw
// terminal mode with a cursor/grapheme model, inline suggestion overlay,
// reverse-i-search, and optional syntax highlighting. Raw mode comes
// from golang.org/x/term and display width from
// github.com/mattn/go-runewidth; peterh/liner remains as the minimal
// fallback reader for non-interactive/dumb terminals, where a suggestion
// overlay cannot render anyway.
package editor

// State is the editor's in-memory model: the rune buffer, cursor,
// history navigation position, the typed prefix history is filtered by,
// and the suggestion/reverse-search overlays.
type State struct {
	Buffer              []rune
	Cursor              int
	HistoryIndex        int
	OriginalInput       string
	Suggestions         []string
	SelectedIndex       int
	SuggestionActive    bool
	ReverseSearchActive bool
	ReverseQuery        string
	ReverseIndex        int
}

func newState() *State {
	return &State{HistoryIndex: -1}
}

// Text renders the buffer as a string.
func (s *State) Text() string {
	return string(s.Buffer)
}

// InsertRune inserts r at the cursor and advances it.
func (s *State) InsertRune(r rune) {
	s.Buffer = append(s.Buffer[:s.Cursor], append([]rune{r}, s.Buffer[s.Cursor:]...)...)
	s.Cursor++
}

// InsertString inserts s at the cursor, advancing it by len(runes).
func (s *State) InsertString(text string) {
	for _, r := range text {
		s.InsertRune(r)
	}
}

// DeleteBack removes one grapheme before the cursor (backspace).
func (s *State) DeleteBack() {
	if s.Cursor == 0 {
		return
	}
	s.Buffer = append(s.Buffer[:s.Cursor-1], s.Buffer[s.Cursor:]...)
	s.Cursor--
}

// DeleteForward removes one grapheme at the cursor (Ctrl-D on a nonempty line).
func (s *State) DeleteForward() {
	if s.Cursor >= len(s.Buffer) {
		return
	}
	s.Buffer = append(s.Buffer[:s.Cursor], s.Buffer[s.Cursor+1:]...)
}

// MoveLeft/MoveRight move the cursor one grapheme.
func (s *State) MoveLeft() {
	if s.Cursor > 0 {
		s.Cursor--
	}
}

func (s *State) MoveRight() {
	if s.Cursor < len(s.Buffer) {
		s.Cursor++
	}
}

// Home/End move to the line start/end (Ctrl-A/Ctrl-E).
func (s *State) Home() { s.Cursor = 0 }
func (s *State) End()  { s.Cursor = len(s.Buffer) }

// WordLeft/WordRight move by word (Alt-B/Alt-F).
func (s *State) WordLeft() {
	i := s.Cursor
	for i > 0 && isWordSep(s.Buffer[i-1]) {
		i--
	}
	for i > 0 && !isWordSep(s.Buffer[i-1]) {
		i--
	}
	s.Cursor = i
}

func (s *State) WordRight() {
	i := s.Cursor
	n := len(s.Buffer)
	for i < n && isWordSep(s.Buffer[i]) {
		i++
	}
	for i < n && !isWordSep(s.Buffer[i]) {
		i++
	}
	s.Cursor = i
}

// KillWordBack deletes the word behind the cursor (Ctrl-W).
func (s *State) KillWordBack() {
	start := s.Cursor
	s.WordLeft()
	s.Buffer = append(s.Buffer[:s.Cursor], s.Buffer[start:]...)
}

// KillWordForward deletes the word ahead of the cursor (Alt-D).
func (s *State) KillWordForward() {
	end := s.Cursor
	s.MoveRightWord(&end)
	s.Buffer = append(s.Buffer[:s.Cursor], s.Buffer[end:]...)
}

// MoveRightWord advances *pos past the next word boundary without
// mutating the cursor, used by KillWordForward.
func (s *State) MoveRightWord(pos *int) {
	n := len(s.Buffer)
	for *pos < n && isWordSep(s.Buffer[*pos]) {
		*pos++
	}
	for *pos < n && !isWordSep(s.Buffer[*pos]) {
		*pos++
	}
}

// KillToStart/KillToEnd implement Ctrl-U/Ctrl-K.
func (s *State) KillToStart() {
	s.Buffer = append([]rune{}, s.Buffer[s.Cursor:]...)
	s.Cursor = 0
}

func (s *State) KillToEnd() {
	s.Buffer = s.Buffer[:s.Cursor]
}

// Reset clears the buffer and cursor, used by Ctrl-C and after Enter.
func (s *State) Reset() {
	s.Buffer = nil
	s.Cursor = 0
	s.HistoryIndex = -1
	s.OriginalInput = ""
	s.Suggestions = nil
	s.SuggestionActive = false
	s.ReverseSearchActive = false
	s.ReverseQuery = ""
	s.ReverseIndex = 0
}

func isWordSep(r rune) bool {
	return r == ' ' || r == '\t'
}
