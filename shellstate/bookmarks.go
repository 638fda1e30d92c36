package shellstate

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// loadBookmarks reads BookmarksFile if present; a missing file is not an
// error (fresh installs start with an empty table).
func (s *State) loadBookmarks() {
	if s.BookmarksFile == "" {
		return
	}
	data, err := os.ReadFile(s.BookmarksFile)
	if err != nil {
		return
	}
	var m map[string]string
	if json.Unmarshal(data, &m) == nil {
		s.mu.Lock()
		s.Bookmarks = m
		s.mu.Unlock()
	}
}

// saveBookmarks persists the bookmark table to BookmarksFile
// (~/.krusty/bookmarks.json) as a JSON name -> absolute-path map.
func (s *State) saveBookmarks() error {
	if s.BookmarksFile == "" {
		return nil
	}
	s.mu.RLock()
	data, err := json.MarshalIndent(s.Bookmarks, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.BookmarksFile), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.BookmarksFile, data, 0o644)
}
