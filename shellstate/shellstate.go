// Package shellstate holds the process-wide shell state: one long-lived
// struct holding cwd, environment, aliases, history, jobs, and option
// flags, which every builtin, the chain executor, and the REPL share a
// pointer to. It is passed by reference into a
// command handler (here, the builtin registry) instead of copied.
package shellstate

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/diillson/krusty/alias"
	"github.com/diillson/krusty/history"
	"github.com/diillson/krusty/job"
)

// State is the process-wide shell state. Aliases, History, Jobs,
// DirStack, and Bookmarks are exclusively owned here; the expansion
// engine only ever sees Environment through the narrower expand.Context
// it's handed per call.
type State struct {
	mu sync.RWMutex

	Cwd    string
	OldPwd string

	Environment map[string]string

	Aliases *alias.Manager
	History *history.Manager
	Jobs    *job.Manager

	LastExitCode   int
	LastDurationMs int64

	Nounset  bool
	Xtrace   bool
	Pipefail bool
	Errexit  bool

	DirStack      []string
	Bookmarks     map[string]string
	BookmarksFile string

	ExitRequested bool
	ExitCode      int

	Stdout *os.File
	Stderr *os.File
}

// New constructs a State rooted at the process's current working
// directory, with fresh alias/history/job managers.
func New(env map[string]string, hist *history.Manager, bookmarksFile string) (*State, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("krusty: could not resolve cwd: %w", err)
	}
	s := &State{
		Cwd:           cwd,
		Environment:   env,
		Aliases:       alias.New(),
		History:       hist,
		Jobs:          job.New(),
		Bookmarks:     map[string]string{},
		BookmarksFile: bookmarksFile,
		Stdout:        os.Stdout,
		Stderr:        os.Stderr,
	}
	s.loadBookmarks()
	return s, nil
}

// Getenv reads a variable from the shell's owned environment map.
func (s *State) Getenv(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.Environment[name]
	return v, ok
}

// Setenv assigns a variable, used by `export NAME=VALUE`.
func (s *State) Setenv(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Environment == nil {
		s.Environment = map[string]string{}
	}
	s.Environment[name] = value
}

// Unsetenv removes a variable, used by `unset`.
func (s *State) Unsetenv(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Environment, name)
}

// Environ renders the shell's environment as "KEY=VALUE" pairs, sorted
// by key, for `export` with no arguments.
func (s *State) Environ() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.Environment))
	for k, v := range s.Environment {
		out = append(out, k+"="+v)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// Chdir changes Cwd, updates OldPwd/PWD/OLDPWD, and performs the actual
// os.Chdir so external children inherit the new directory.
func (s *State) Chdir(path string) error {
	abs := path
	if !filepath.IsAbs(path) {
		abs = filepath.Join(s.Cwd, path)
	}
	abs = filepath.Clean(abs)

	if err := os.Chdir(abs); err != nil {
		return fmt.Errorf("krusty: cd: %s: %w", path, err)
	}

	s.mu.Lock()
	s.OldPwd = s.Cwd
	s.Cwd = abs
	if s.Environment == nil {
		s.Environment = map[string]string{}
	}
	s.Environment["OLDPWD"] = s.OldPwd
	s.Environment["PWD"] = s.Cwd
	s.mu.Unlock()
	return nil
}

// PushDir pushes the current Cwd onto the directory stack then chdirs
// to target.
func (s *State) PushDir(target string) error {
	prev := s.Cwd
	if err := s.Chdir(target); err != nil {
		return err
	}
	s.mu.Lock()
	s.DirStack = append(s.DirStack, prev)
	s.mu.Unlock()
	return nil
}

// PopDir pops the top of the directory stack and chdirs to it.
func (s *State) PopDir() (string, error) {
	s.mu.Lock()
	if len(s.DirStack) == 0 {
		s.mu.Unlock()
		return "", fmt.Errorf("krusty: popd: directory stack empty")
	}
	top := s.DirStack[len(s.DirStack)-1]
	s.DirStack = s.DirStack[:len(s.DirStack)-1]
	s.mu.Unlock()

	if err := s.Chdir(top); err != nil {
		return "", err
	}
	return top, nil
}

// DirStackView returns a snapshot of the directory stack, most-recently-
// pushed first (the `dirs` builtin's display order), with the current
// Cwd as element 0.
func (s *State) DirStackView() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.DirStack)+1)
	out = append(out, s.Cwd)
	for i := len(s.DirStack) - 1; i >= 0; i-- {
		out = append(out, s.DirStack[i])
	}
	return out
}

// SetBookmark records name -> s.Cwd (or an explicit path) and persists
// the bookmark table.
func (s *State) SetBookmark(name, path string) error {
	if path == "" {
		path = s.Cwd
	}
	s.mu.Lock()
	s.Bookmarks[name] = path
	s.mu.Unlock()
	return s.saveBookmarks()
}

// RemoveBookmark deletes a bookmark by name and persists the change.
func (s *State) RemoveBookmark(name string) error {
	s.mu.Lock()
	_, ok := s.Bookmarks[name]
	delete(s.Bookmarks, name)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("krusty: bookmark: %s: not found", name)
	}
	return s.saveBookmarks()
}

// BookmarksView returns a snapshot of the bookmark table.
func (s *State) BookmarksView() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.Bookmarks))
	for k, v := range s.Bookmarks {
		out[k] = v
	}
	return out
}
