// Package alias implements the alias manager: in-place expansion of a
// command name that matches a registered alias, with $@/$N placeholder
// substitution, cycle detection, and a depth cap.
package alias

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/diillson/krusty/utils"
)

// MaxDepth caps recursive alias expansion.
const MaxDepth = 10

// Manager owns the shell's alias table. Safe for the REPL's single-
// threaded use; the mutex exists only so completion (which reads
// concurrently with a background reload, e.g. config hot-reload) never
// races a `alias`/`unalias` mutation.
type Manager struct {
	mu      sync.RWMutex
	aliases map[string]string
}

// New creates an empty alias manager.
func New() *Manager {
	return &Manager{aliases: make(map[string]string)}
}

// Set registers or overwrites an alias.
func (m *Manager) Set(name, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aliases[name] = value
}

// Unset removes an alias, reporting whether it existed.
func (m *Manager) Unset(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.aliases[name]; !ok {
		return false
	}
	delete(m.aliases, name)
	return true
}

// Get returns an alias's raw value.
func (m *Manager) Get(name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.aliases[name]
	return v, ok
}

// All returns a snapshot of the alias table, sorted by name, for `alias`
// with no arguments.
func (m *Manager) All() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.aliases))
	for k := range m.aliases {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Names returns the set of alias names, used by the completion
// provider's command-position union.
func (m *Manager) Names() []string {
	return m.All()
}

// Expand iteratively rewrites name+args through the alias table until
// it resolves to a non-aliased leaf command line or a cycle is detected.
// Returns the fully rewritten command line (suitable for re-parsing as a
// fresh pipeline/chain) and whether any expansion happened at all.
func (m *Manager) Expand(name string, args []string) (string, bool) {
	visited := make(map[string]struct{})
	current := name
	currentArgs := args

	expandedAtLeastOnce := false

	for depth := 0; depth < MaxDepth; depth++ {
		value, ok := m.Get(current)
		if !ok {
			break
		}
		if _, seen := visited[current]; seen {
			break
		}
		visited[current] = struct{}{}
		expandedAtLeastOnce = true

		rewritten := substitutePlaceholders(value, currentArgs)

		fields := splitFirstWord(rewritten)
		if fields.head == "" {
			return rewritten, true
		}
		current = fields.head
		currentArgs = fields.rest
		// The remainder of `rewritten` (beyond the leading word) already
		// carries any pipe/chain operators inline; only continue the
		// expansion loop if the head is itself aliased and the remainder
		// looks like a simple argument list (no operators).
		if strings.ContainsAny(fields.restLiteral, "|;&") {
			return joinHeadAndRest(current, fields.restLiteral), true
		}
	}

	return joinHeadAndRest(current, joinArgs(currentArgs)), expandedAtLeastOnce
}

type splitResult struct {
	head        string
	rest        []string
	restLiteral string
}

func splitFirstWord(s string) splitResult {
	s = strings.TrimLeft(s, " \t")
	idx := strings.IndexAny(s, " \t")
	if idx < 0 {
		return splitResult{head: s}
	}
	rest := strings.TrimLeft(s[idx+1:], " \t")
	return splitResult{head: s[:idx], rest: strings.Fields(rest), restLiteral: rest}
}

func joinHeadAndRest(head, rest string) string {
	if rest == "" {
		return head
	}
	return head + " " + rest
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}

// substitutePlaceholders implements the $@/$N/actual-argument-append
// replacement rules.
func substitutePlaceholders(value string, args []string) string {
	hasPlaceholder := strings.Contains(value, "$@")
	if !hasPlaceholder {
		for i := range args {
			if strings.Contains(value, "$"+strconv.Itoa(i+1)) {
				hasPlaceholder = true
				break
			}
		}
	}

	if !hasPlaceholder {
		if len(args) == 0 {
			return value
		}
		if strings.HasSuffix(value, " ") {
			return value + joinArgs(args)
		}
		return value + " " + joinArgs(args)
	}

	result := value
	if strings.Contains(result, "$@") {
		result = strings.ReplaceAll(result, "$@", joinQuoted(args))
	}
	for i := len(args); i >= 1; i-- {
		placeholder := "$" + strconv.Itoa(i)
		quoted := `"$` + strconv.Itoa(i) + `"`
		if strings.Contains(result, quoted) {
			result = strings.ReplaceAll(result, quoted, args[i-1])
		}
		result = strings.ReplaceAll(result, placeholder, args[i-1])
	}
	return result
}

func joinQuoted(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if strings.ContainsAny(a, " \t") {
			quoted[i] = utils.ShellQuote(a)
		} else {
			quoted[i] = a
		}
	}
	return strings.Join(quoted, " ")
}
