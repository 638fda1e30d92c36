// Package completion computes grouped command/file/flag/builtin-aware
// suggestions for the current line and cursor position. Results are
// sorted locale-aware via golang.org/x/text/collate, and recomputation
// is throttled with golang.org/x/time/rate so a pasted keystroke burst
// doesn't re-walk $PATH per byte.
package completion

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/diillson/krusty/builtins"
	"github.com/diillson/krusty/config"
	"github.com/diillson/krusty/hooks"
	"github.com/diillson/krusty/shellstate"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"
)

// Group is one titled section of a grouped completion result.
type Group struct {
	Title string
	Items []string
}

// Provider computes completions against the shell's live state.
type Provider struct {
	st       *shellstate.State
	registry *builtins.Registry
	cfg      config.CompletionConfig
	collator *collate.Collator
	limiter  *rate.Limiter
	bus      *hooks.Bus
}

// New builds a Provider. The rate limiter caps recomputation to roughly
// one per 15ms so a pasted burst of keystrokes doesn't re-walk $PATH on
// every byte; a completion request that arrives mid-burst simply reuses
// whatever the editor already has on screen (Complete returns nil).
func New(st *shellstate.State, registry *builtins.Registry, cfg config.CompletionConfig) *Provider {
	return &Provider{
		st:       st,
		registry: registry,
		cfg:      cfg,
		collator: collate.New(language.Und),
		limiter:  rate.NewLimiter(rate.Every(15*time.Millisecond), 4),
	}
}

// SetHooks attaches the shell's event bus so completion:before/after
// fire around each computed completion.
func (p *Provider) SetHooks(b *hooks.Bus) { p.bus = b }

// Complete tokenizes line up to cursor and returns grouped suggestions,
// case-folded per config, sorted exact-prefix-first then
// locale-lexicographic, and truncated to MaxSuggestions.
func (p *Provider) Complete(line string, cursor int) []Group {
	if !p.cfg.Enabled {
		return nil
	}
	if !p.limiter.Allow() {
		return nil
	}
	if p.bus != nil {
		p.bus.Fire(context.Background(), hooks.CompletionBefore, hooks.Payload{Query: line})
		defer p.bus.Fire(context.Background(), hooks.CompletionAfter, hooks.Payload{Query: line})
	}

	if cursor < 0 || cursor > len(line) {
		cursor = len(line)
	}
	upTo := line[:cursor]
	tokens := strings.Fields(upTo)

	trailingSpace := strings.HasSuffix(upTo, " ") || upTo == ""
	lastToken := ""
	if !trailingSpace && len(tokens) > 0 {
		lastToken = tokens[len(tokens)-1]
		tokens = tokens[:len(tokens)-1]
	}

	switch {
	case len(tokens) == 0:
		return p.truncate(p.filterGroup("commands", p.commandCandidates(), lastToken))
	case tokens[0] == "cd":
		return p.truncate([]Group{p.cdGroup(lastToken)})
	case strings.HasPrefix(lastToken, "-"):
		if g := p.flagGroup(tokens[0], lastToken); len(g.Items) > 0 {
			return p.truncate([]Group{g})
		}
		return p.truncate([]Group{p.pathGroup(lastToken)})
	case tokens[0] == "bun" && len(tokens) >= 2 && tokens[1] == "run":
		return p.truncate(p.bunRunGroups(lastToken))
	default:
		return p.truncate([]Group{p.pathGroup(lastToken)})
	}
}

// knownFlags lists the recognized flags for commands the provider
// completes flag-style arguments for. Builtins get their own rows so
// `history -` offers the same spellings the builtin parses.
var knownFlags = map[string][]string{
	"bun":     {"--watch", "--hot", "--silent", "--bun", "--version", "--help"},
	"git":     {"--version", "--help", "--no-pager", "--git-dir", "--work-tree"},
	"npm":     {"--global", "--save-dev", "--version", "--help"},
	"history": {"-c", "-d", "-mode", "-n"},
	"set":     {"-e", "+e", "-u", "+u", "-x", "+x", "-o", "+o"},
	"kill":    {"-SIGTERM", "-SIGKILL", "-SIGINT", "-SIGHUP", "-SIGCONT", "-SIGTSTP"},
}

// flagGroup returns the known flags for command filtered by prefix.
func (p *Provider) flagGroup(command, prefix string) Group {
	var items []string
	for _, f := range knownFlags[command] {
		if strings.HasPrefix(f, prefix) {
			items = append(items, f)
		}
	}
	return Group{Title: "flags", Items: p.sortAndLimit(items, prefix)}
}

// bunRunGroups completes `bun run <prefix>`: package.json script names
// first, then project-local binaries from node_modules/.bin, then plain
// paths, each under its own section title.
func (p *Provider) bunRunGroups(prefix string) []Group {
	var groups []Group

	if scripts := packageScripts(p.cwd()); len(scripts) > 0 {
		var items []string
		for _, s := range scripts {
			if strings.HasPrefix(s, prefix) {
				items = append(items, s)
			}
		}
		if len(items) > 0 {
			groups = append(groups, Group{Title: "scripts", Items: p.sortAndLimit(items, prefix)})
		}
	}

	if bins := localBinaries(p.cwd(), p.cfg.BinPathMaxSuggestions); len(bins) > 0 {
		var items []string
		for _, b := range bins {
			if strings.HasPrefix(b, prefix) {
				items = append(items, b)
			}
		}
		if len(items) > 0 {
			groups = append(groups, Group{Title: "project binaries", Items: p.sortAndLimit(items, prefix)})
		}
	}

	groups = append(groups, p.pathGroup(prefix))
	return groups
}

// packageScripts reads the "scripts" keys of cwd's package.json, or nil
// when there is no package project here.
func packageScripts(cwd string) []string {
	data, err := os.ReadFile(filepath.Join(cwd, "package.json"))
	if err != nil {
		return nil
	}
	var pkg struct {
		Scripts map[string]string `json:"scripts"`
	}
	if json.Unmarshal(data, &pkg) != nil {
		return nil
	}
	out := make([]string, 0, len(pkg.Scripts))
	for name := range pkg.Scripts {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// localBinaries lists node_modules/.bin entries under cwd, capped.
func localBinaries(cwd string, limit int) []string {
	entries, err := os.ReadDir(filepath.Join(cwd, "node_modules", ".bin"))
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		out = append(out, e.Name())
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// commandCandidates unions builtins, aliases, and every executable on
// $PATH for command-position completion.
func (p *Provider) commandCandidates() []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}

	for _, name := range p.registry.Names() {
		add(name)
	}
	if p.st != nil && p.st.Aliases != nil {
		for _, name := range p.st.Aliases.Names() {
			add(name)
		}
	}
	for _, name := range pathExecutables(p.st) {
		add(name)
	}
	for _, name := range localBinaries(p.cwd(), p.cfg.BinPathMaxSuggestions) {
		add(name)
	}
	return out
}

func pathExecutables(st *shellstate.State) []string {
	var pathVal string
	if st != nil {
		pathVal, _ = st.Getenv("PATH")
	}
	if pathVal == "" {
		pathVal = os.Getenv("PATH")
	}

	var names []string
	for _, dir := range filepath.SplitList(pathVal) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			info, err := e.Info()
			if err != nil || info.Mode()&0o111 == 0 {
				continue
			}
			names = append(names, e.Name())
		}
	}
	return names
}

// cdGroup builds the `cd`-specific completions: directory entries plus
// "-" (OLDPWD), "~", dir-stack indexes "-1".."-9", and bookmark names
// prefixed with ":".
func (p *Provider) cdGroup(prefix string) Group {
	var items []string
	for _, special := range []string{"-", "~"} {
		if strings.HasPrefix(special, prefix) {
			items = append(items, special)
		}
	}
	if p.st != nil {
		view := p.st.DirStackView()
		for i := 1; i < len(view) && i <= 9; i++ {
			idx := "-" + strconv.Itoa(i)
			if strings.HasPrefix(idx, prefix) {
				items = append(items, idx)
			}
		}
		for name := range p.st.BookmarksView() {
			tagged := ":" + name
			if strings.HasPrefix(tagged, prefix) {
				items = append(items, tagged)
			}
		}
	}
	items = append(items, directoryEntries(prefix, p.cwd())...)
	return Group{Title: "directories", Items: p.sortAndLimit(items, prefix)}
}

// pathGroup implements the fallback path-completion rule, honoring `~`
// expansion and quoted prefixes.
func (p *Provider) pathGroup(prefix string) Group {
	unquoted := strings.Trim(prefix, `"'`)
	items := directoryEntries(unquoted, p.cwd())
	return Group{Title: "paths", Items: p.sortAndLimit(items, unquoted)}
}

func (p *Provider) cwd() string {
	if p.st == nil {
		return "."
	}
	return p.st.Cwd
}

// directoryEntries lists filepath.Dir(prefix)'s entries filtered by the
// base-name prefix, resolving a leading "~" to the user's home directory.
func directoryEntries(prefix, cwd string) []string {
	search := prefix
	if strings.HasPrefix(search, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			search = home + strings.TrimPrefix(search, "~")
		}
	}

	dir, base := filepath.Split(search)
	lookupDir := dir
	if lookupDir == "" {
		lookupDir = cwd
	} else if !filepath.IsAbs(lookupDir) {
		lookupDir = filepath.Join(cwd, lookupDir)
	}

	entries, err := os.ReadDir(lookupDir)
	if err != nil {
		return nil
	}

	var out []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), base) {
			continue
		}
		name := dir + e.Name()
		if e.IsDir() {
			name += "/"
		}
		out = append(out, name)
	}
	return out
}

func (p *Provider) filterGroup(title string, candidates []string, prefix string) []Group {
	return []Group{{Title: title, Items: p.sortAndLimit(filterPrefix(candidates, prefix, p.cfg.CaseSensitive), prefix)}}
}

func filterPrefix(candidates []string, prefix string, caseSensitive bool) []string {
	var out []string
	needle := prefix
	if !caseSensitive {
		needle = strings.ToLower(prefix)
	}
	for _, c := range candidates {
		hay := c
		if !caseSensitive {
			hay = strings.ToLower(c)
		}
		if strings.HasPrefix(hay, needle) {
			out = append(out, c)
		}
	}
	return out
}

// sortAndLimit orders items exact-prefix-first, then by the provider's
// locale collator. It does not truncate; the cap to MaxSuggestions is
// applied afterwards by truncate.
func (p *Provider) sortAndLimit(items []string, prefix string) []string {
	sort.SliceStable(items, func(i, j int) bool {
		ei := strings.HasPrefix(items[i], prefix)
		ej := strings.HasPrefix(items[j], prefix)
		if ei != ej {
			return ei
		}
		return p.collator.CompareString(items[i], items[j]) < 0
	})
	return items
}

func (p *Provider) truncate(groups []Group) []Group {
	limit := p.cfg.MaxSuggestions
	if limit <= 0 {
		return groups
	}
	out := make([]Group, 0, len(groups))
	remaining := limit
	for _, g := range groups {
		if remaining <= 0 {
			break
		}
		if len(g.Items) > remaining {
			g.Items = g.Items[:remaining]
		}
		remaining -= len(g.Items)
		out = append(out, g)
	}
	return out
}

// DisplayWidth measures a completion candidate's terminal column width,
// used by the editor to align grouped columns.
func DisplayWidth(s string) int {
	return runewidth.StringWidth(s)
}
