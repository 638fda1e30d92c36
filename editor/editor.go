package editor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/diillson/krusty/completion"
	"github.com/diillson/krusty/config"
	"github.com/diillson/krusty/history"
	"github.com/mattn/go-runewidth"
	"github.com/peterh/liner"
	"golang.org/x/term"
)

// ErrInterrupted is returned from ReadLine when Ctrl-C abandons the
// line. No child is running at that point, so only the buffer is lost.
var ErrInterrupted = errors.New("editor: line interrupted")

// Editor drives the interactive keypress loop over a raw terminal.
type Editor struct {
	in         *os.File
	out        *os.File
	history    *history.Manager
	completion *completion.Provider
	useLiner   bool
	lin        *liner.State
	highlight  bool
}

// New builds an Editor over the given file descriptors. When stdin is
// not a terminal (piped input, a dumb terminal, CI), ReadLine falls back
// to peterh/liner's own minimal reader rather than driving raw mode.
func New(in, out *os.File, hist *history.Manager, comp *completion.Provider, highlight bool) *Editor {
	e := &Editor{in: in, out: out, history: hist, completion: comp, highlight: highlight}
	if !term.IsTerminal(int(in.Fd())) || os.Getenv("TERM") == "dumb" {
		e.useLiner = true
		e.lin = liner.NewLiner()
		e.lin.SetCompleter(func(line string) []string {
			return e.literalCompletions(line)
		})
	}
	return e
}

// Close releases the liner fallback, if one was opened.
func (e *Editor) Close() error {
	if e.lin != nil {
		return e.lin.Close()
	}
	return nil
}

// ReadLine reads one line, rendering promptLeft/promptRight around it.
// It returns io.EOF on Ctrl-D against an empty buffer.
func (e *Editor) ReadLine(promptLeft, promptRight string) (string, error) {
	if e.useLiner {
		line, err := e.lin.Prompt(stripMarkers(promptLeft))
		if err != nil {
			if err == liner.ErrPromptAborted {
				return "", ErrInterrupted
			}
			return "", err
		}
		e.lin.AppendHistory(line)
		return line, nil
	}
	return e.readLineRaw(promptLeft, promptRight)
}

func (e *Editor) literalCompletions(line string) []string {
	if e.completion == nil {
		return nil
	}
	groups := e.completion.Complete(line, len(line))
	var out []string
	for _, g := range groups {
		out = append(out, g.Items...)
	}
	return out
}

func (e *Editor) readLineRaw(promptLeft, promptRight string) (string, error) {
	fd := int(e.in.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return e.readLineCooked(promptLeft)
	}
	defer term.Restore(fd, oldState)

	st := newState()
	reader := bufio.NewReader(e.in)
	e.render(st, promptLeft, promptRight)

	for {
		r, _, err := reader.ReadRune()
		if err != nil {
			if err == io.EOF {
				if len(st.Buffer) == 0 {
					return "", io.EOF
				}
				return st.Text(), nil
			}
			return "", err
		}

		done, interrupted, err := e.handleKey(st, reader, r)
		if err != nil {
			return "", err
		}
		if interrupted {
			fmt.Fprint(e.out, "\r\n")
			return "", ErrInterrupted
		}
		if done {
			fmt.Fprint(e.out, "\r\n")
			return st.Text(), nil
		}
		e.render(st, promptLeft, promptRight)
	}
}

// readLineCooked is the degraded path when raw mode can't be entered
// (e.g. MakeRaw fails on a non-tty that IsTerminal still reported true
// for, in a sandboxed test environment): a plain buffered line read.
func (e *Editor) readLineCooked(promptLeft string) (string, error) {
	fmt.Fprint(e.out, stripMarkers(promptLeft))
	reader := bufio.NewReader(e.in)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

const (
	keyCtrlA = 1
	keyCtrlB = 2
	keyCtrlC = 3
	keyCtrlD = 4
	keyCtrlE = 5
	keyCtrlK = 11
	keyCtrlR = 18
	keyCtrlU = 21
	keyCtrlW = 23
	keyTab   = 9
	keyEnter = 13
	keyNL    = 10
	keyEsc   = 27
	keyBS    = 127
	keyBS2   = 8
)

// handleKey dispatches one decoded input rune through the emacs-style
// key table, returning done=true on Enter and interrupted=true on
// Ctrl-C.
func (e *Editor) handleKey(st *State, reader *bufio.Reader, r rune) (done, interrupted bool, err error) {
	if st.ReverseSearchActive {
		return e.handleReverseSearchKey(st, reader, r)
	}

	switch r {
	case keyEnter, keyNL:
		return true, false, nil
	case keyCtrlC:
		st.Reset()
		return false, true, nil
	case keyCtrlA:
		st.Home()
	case keyCtrlE:
		st.End()
	case keyCtrlB:
		st.MoveLeft()
	case keyCtrlW:
		st.KillWordBack()
	case keyCtrlU:
		st.KillToStart()
	case keyCtrlK:
		st.KillToEnd()
	case keyCtrlR:
		st.ReverseSearchActive = true
		st.ReverseQuery = ""
		st.ReverseIndex = 0
	case keyCtrlD:
		if len(st.Buffer) == 0 {
			return false, false, io.EOF
		}
		st.DeleteForward()
	case keyTab:
		e.applySuggestion(st)
	case keyBS, keyBS2:
		st.DeleteBack()
	case keyEsc:
		return e.handleEscapeSequence(st, reader)
	default:
		if r >= 32 || r == '\t' {
			st.InsertRune(r)
			st.SuggestionActive = false
		}
	}
	e.refreshSuggestions(st)
	return false, false, nil
}

// handleEscapeSequence decodes arrow keys (`ESC [ A/B/C/D`) and the
// Alt-B/Alt-F/Alt-D word-motion bindings (`ESC b/f/d`).
func (e *Editor) handleEscapeSequence(st *State, reader *bufio.Reader) (bool, bool, error) {
	next, _, err := reader.ReadRune()
	if err != nil {
		return false, false, nil
	}
	if next == '[' {
		arrow, _, err := reader.ReadRune()
		if err != nil {
			return false, false, nil
		}
		switch arrow {
		case 'A':
			e.historyPrev(st)
		case 'B':
			e.historyNext(st)
		case 'C':
			st.MoveRight()
		case 'D':
			st.MoveLeft()
		}
		return false, false, nil
	}
	switch next {
	case 'b':
		st.WordLeft()
	case 'f':
		st.WordRight()
	case 'd':
		st.KillWordForward()
	}
	return false, false, nil
}

// historyPrev/historyNext walk history entries whose text starts with
// the prefix the user had typed before navigating (OriginalInput), so ↑
// after "git " only visits git commands.
func (e *Editor) historyPrev(st *State) {
	if e.history == nil {
		return
	}
	if st.HistoryIndex < 0 {
		st.OriginalInput = st.Text()
	}
	total := e.history.Len()
	for next := st.HistoryIndex + 1; next < total; next++ {
		cmd, ok := e.history.GetCommand(total - next)
		if !ok {
			return
		}
		if !strings.HasPrefix(cmd, st.OriginalInput) {
			continue
		}
		st.HistoryIndex = next
		st.Buffer = []rune(cmd)
		st.Cursor = len(st.Buffer)
		return
	}
}

func (e *Editor) historyNext(st *State) {
	if st.HistoryIndex < 0 {
		return
	}
	total := 0
	if e.history != nil {
		total = e.history.Len()
	}
	for next := st.HistoryIndex - 1; next >= 0; next-- {
		cmd, ok := e.history.GetCommand(total - next)
		if !ok {
			continue
		}
		if !strings.HasPrefix(cmd, st.OriginalInput) {
			continue
		}
		st.HistoryIndex = next
		st.Buffer = []rune(cmd)
		st.Cursor = len(st.Buffer)
		return
	}
	st.HistoryIndex = -1
	st.Buffer = []rune(st.OriginalInput)
	st.Cursor = len(st.Buffer)
}

func (e *Editor) handleReverseSearchKey(st *State, reader *bufio.Reader, r rune) (bool, bool, error) {
	switch r {
	case keyEnter, keyNL:
		st.ReverseSearchActive = false
		return true, false, nil
	case keyCtrlC:
		st.ReverseSearchActive = false
		st.Reset()
		return false, true, nil
	case keyCtrlR:
		e.cycleReverseSearch(st)
	case keyBS, keyBS2:
		if len(st.ReverseQuery) > 0 {
			st.ReverseQuery = st.ReverseQuery[:len(st.ReverseQuery)-1]
		}
		e.applyReverseSearch(st)
	default:
		if r >= 32 {
			st.ReverseQuery += string(r)
			e.applyReverseSearch(st)
		}
	}
	return false, false, nil
}

func (e *Editor) applyReverseSearch(st *State) {
	st.ReverseIndex = 0
	e.showReverseMatch(st)
}

// cycleReverseSearch moves to the next-older match for the same query.
func (e *Editor) cycleReverseSearch(st *State) {
	st.ReverseIndex++
	e.showReverseMatch(st)
}

func (e *Editor) showReverseMatch(st *State) {
	if e.history == nil || st.ReverseQuery == "" {
		return
	}
	matches, err := e.history.Search(st.ReverseQuery, config.SearchFuzzy)
	if err != nil || len(matches) == 0 {
		return
	}
	if st.ReverseIndex >= len(matches) {
		st.ReverseIndex = len(matches) - 1
	}
	st.Buffer = []rune(matches[st.ReverseIndex].Text)
	st.Cursor = len(st.Buffer)
}

// refreshSuggestions recomputes the inline overlay, the first matching
// completion shown dim after the cursor.
func (e *Editor) refreshSuggestions(st *State) {
	if e.completion == nil {
		return
	}
	groups := e.completion.Complete(st.Text(), st.Cursor)
	st.Suggestions = nil
	for _, g := range groups {
		st.Suggestions = append(st.Suggestions, g.Items...)
	}
	st.SuggestionActive = len(st.Suggestions) > 0
	st.SelectedIndex = 0
}

func (e *Editor) applySuggestion(st *State) {
	if !st.SuggestionActive || len(st.Suggestions) == 0 {
		return
	}
	if st.SelectedIndex >= len(st.Suggestions) {
		st.SelectedIndex = 0
	}
	chosen := st.Suggestions[st.SelectedIndex]

	line := st.Text()
	lastSpace := strings.LastIndexByte(line[:st.Cursor], ' ')
	prefixLen := 0
	if lastSpace >= 0 {
		prefixLen = lastSpace + 1
	}
	newLine := line[:prefixLen] + chosen
	st.Buffer = []rune(newLine)
	st.Cursor = len(st.Buffer)

	st.SelectedIndex = (st.SelectedIndex + 1) % len(st.Suggestions)
}

// render clears the line and redraws it on each keypress, placing the
// cursor at column prompt width + visible cursor width.
func (e *Editor) render(st *State, promptLeft, promptRight string) {
	visiblePrompt := stripMarkers(promptLeft)
	promptWidth := runewidth.StringWidth(visiblePrompt)

	line := st.Text()
	rendered := line
	if e.highlight {
		rendered = Highlight(line)
	}

	overlay := ""
	if st.SuggestionActive && len(st.Suggestions) > 0 {
		suggestion := st.Suggestions[0]
		if strings.HasPrefix(suggestion, currentWord(line, st.Cursor)) {
			overlay = dimColor(suggestion[len(currentWord(line, st.Cursor)):])
		}
	}

	fmt.Fprint(e.out, "\r\033[K")
	if st.ReverseSearchActive {
		fmt.Fprintf(e.out, "(reverse-i-search) '%s': %s", st.ReverseQuery, line)
		return
	}
	fmt.Fprint(e.out, promptLeft)
	fmt.Fprint(e.out, rendered)
	fmt.Fprint(e.out, overlay)

	if promptRight != "" {
		fmt.Fprint(e.out, "  "+promptRight)
	}

	cursorVisible := runewidth.StringWidth(string(st.Buffer[:st.Cursor]))
	fmt.Fprintf(e.out, "\r\033[%dC", promptWidth+cursorVisible)
}

func currentWord(line string, cursor int) string {
	if cursor > len(line) {
		cursor = len(line)
	}
	i := strings.LastIndexByte(line[:cursor], ' ')
	return line[i+1 : cursor]
}

func dimColor(s string) string {
	if s == "" {
		return ""
	}
	return "\033[2m" + s + "\033[0m"
}

// stripMarkers removes the width-ignore markers (\x01/\x02) a Renderer
// may have embedded, for contexts (liner's own prompt, the cooked
// fallback) that render the literal string directly.
func stripMarkers(s string) string {
	s = strings.ReplaceAll(s, "\x01", "")
	s = strings.ReplaceAll(s, "\x02", "")
	return s
}
