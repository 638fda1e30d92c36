// Package history implements the append-only command history: add-time
// filtering rules, FIFO eviction, atomic persistence to a line-delimited
// file under the user's home, and the four search modes
// (exact/startswith/regex/fuzzy).
package history

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/diillson/krusty/config"
	"github.com/diillson/krusty/hooks"
)

// Manager owns the in-memory history buffer and its persisted file.
type Manager struct {
	mu         sync.Mutex
	entries    []string
	file       string
	maxEntries int
	ignoreDups bool
	ignoreSp   bool
	searchMode config.SearchMode
	bus        *hooks.Bus
}

// New creates a history manager from a HistoryConfig, loading any
// existing file at cfg.File (resolving "~").
func New(cfg config.HistoryConfig) (*Manager, error) {
	file, err := resolveFile(cfg.File)
	if err != nil {
		return nil, err
	}
	m := &Manager{
		file:       file,
		maxEntries: cfg.MaxEntries,
		ignoreDups: cfg.IgnoreDuplicates,
		ignoreSp:   cfg.IgnoreSpace,
		searchMode: cfg.SearchMode,
	}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

func resolveFile(path string) (string, error) {
	if path != "" {
		return expandTilde(path)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("krusty: could not resolve history file: %w", err)
	}
	return filepath.Join(home, ".krusty", "history"), nil
}

func expandTilde(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func (m *Manager) load() error {
	f, err := os.Open(m.file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		m.entries = append(m.entries, scanner.Text())
	}
	return scanner.Err()
}

// Add appends line to history, applying the add-time rules
// (empty/leading-space rejection, duplicate coalescing, FIFO eviction),
// then saves.
func (m *Manager) Add(line string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if line == "" {
		return nil
	}
	if m.ignoreSp && strings.HasPrefix(line, " ") {
		return nil
	}
	if m.ignoreDups && len(m.entries) > 0 && m.entries[len(m.entries)-1] == line {
		return nil
	}

	m.entries = append(m.entries, line)
	if m.maxEntries > 0 && len(m.entries) > m.maxEntries {
		m.entries = m.entries[len(m.entries)-m.maxEntries:]
	}
	return m.save()
}

// save atomically flushes the full buffer: write to a temp file in the
// same directory, then rename over the target.
func (m *Manager) save() error {
	dir := filepath.Dir(m.file)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("krusty: %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".history-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	for _, e := range m.entries {
		if _, err := w.WriteString(e + "\n"); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return err
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, m.file)
}

// Clear empties the in-memory buffer and persists the empty state.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	return m.save()
}

// Delete removes the 1-indexed entry idx, per `history -d N`.
func (m *Manager) Delete(idx int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx < 1 || idx > len(m.entries) {
		return fmt.Errorf("krusty: history: %d: no such entry", idx)
	}
	m.entries = append(m.entries[:idx-1], m.entries[idx:]...)
	return m.save()
}

// GetRecent returns the last k entries, most recent first.
func (m *Manager) GetRecent(k int) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if k > len(m.entries) {
		k = len(m.entries)
	}
	out := make([]string, k)
	for i := 0; i < k; i++ {
		out[i] = m.entries[len(m.entries)-1-i]
	}
	return out
}

// GetCommand returns the 1-indexed entry i.
func (m *Manager) GetCommand(i int) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 1 || i > len(m.entries) {
		return "", false
	}
	return m.entries[i-1], true
}

// All returns a snapshot of every entry, oldest first.
func (m *Manager) All() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.entries...)
}

// Len reports the current entry count.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Match is one search hit: its 1-indexed position and text.
type Match struct {
	Index int
	Text  string
	Score int
}

// SetHooks attaches the shell's event bus so history:search fires per
// Search call.
func (m *Manager) SetHooks(b *hooks.Bus) {
	m.mu.Lock()
	m.bus = b
	m.mu.Unlock()
}

// Search runs query against history under the given mode, most-recent
// first, ranked for fuzzy mode by subsequence distance (lower is closer).
func (m *Manager) Search(query string, mode config.SearchMode) ([]Match, error) {
	m.mu.Lock()
	entries := append([]string(nil), m.entries...)
	bus := m.bus
	m.mu.Unlock()

	if bus != nil {
		bus.Fire(context.Background(), hooks.HistorySearch, hooks.Payload{Query: query})
	}

	if mode == "" {
		mode = m.searchMode
	}

	var out []Match
	switch mode {
	case config.SearchExact:
		for i, e := range entries {
			if strings.Contains(e, query) {
				out = append(out, Match{Index: i + 1, Text: e})
			}
		}
	case config.SearchStartsWith:
		for i, e := range entries {
			if strings.HasPrefix(e, query) {
				out = append(out, Match{Index: i + 1, Text: e})
			}
		}
	case config.SearchRegex:
		re, err := regexp.Compile(query)
		if err != nil {
			return nil, fmt.Errorf("krusty: history: invalid regex: %w", err)
		}
		for i, e := range entries {
			if re.MatchString(e) {
				out = append(out, Match{Index: i + 1, Text: e})
			}
		}
	case config.SearchFuzzy:
		for i, e := range entries {
			if score, ok := fuzzyMatch(query, e); ok {
				out = append(out, Match{Index: i + 1, Text: e, Score: score})
			}
		}
	default:
		return nil, fmt.Errorf("krusty: history: unknown search mode %q", mode)
	}

	reversed := make([]Match, len(out))
	for i, m := range out {
		reversed[len(out)-1-i] = m
	}
	if mode == config.SearchFuzzy {
		sort.SliceStable(reversed, func(a, b int) bool { return reversed[a].Score < reversed[b].Score })
	}
	return reversed, nil
}

// fuzzyMatch reports whether query is a subsequence of candidate, and a
// score (gap count between matched characters — lower is a tighter
// match) suitable for ranking.
func fuzzyMatch(query, candidate string) (int, bool) {
	if query == "" {
		return 0, true
	}
	qi := 0
	gap := 0
	lastMatch := -1
	for i := 0; i < len(candidate) && qi < len(query); i++ {
		if candidate[i] == query[qi] {
			if lastMatch >= 0 {
				gap += i - lastMatch - 1
			}
			lastMatch = i
			qi++
		}
	}
	if qi < len(query) {
		return 0, false
	}
	return gap, true
}
