// history builtin: list, clear, delete-by-index, and the four search
// modes (exact/startswith/regex/fuzzy), parsed by a small hand-written
// argument loop (-c, -d N, -mode MODE, -n N; everything else is the
// search pattern).
package builtins

import (
	"fmt"
	"strings"

	"github.com/diillson/krusty/config"
	"github.com/diillson/krusty/shellstate"
)

func historyBuiltin() Builtin {
	return Builtin{
		Name:        "history",
		Description: "list, search, or edit command history",
		Usage:       "history [-c] [-d N] [-mode exact|startswith|regex|fuzzy] [pattern]",
		Execute:     historyExecute,
	}
}

func historyExecute(args []string, st *shellstate.State) Result {
	var (
		clear   bool
		del     int
		mode    string
		n       int
		pattern string
	)

	rest := make([]string, 0, len(args))
	i := 0
	for i < len(args) {
		a := args[i]
		switch {
		case a == "-c":
			clear = true
		case a == "-d" && i+1 < len(args):
			i++
			del = atoiOrZero(args[i])
		case a == "-mode" && i+1 < len(args):
			i++
			mode = args[i]
		case a == "-n" && i+1 < len(args):
			i++
			n = atoiOrZero(args[i])
		default:
			rest = append(rest, a)
		}
		i++
	}
	pattern = strings.Join(rest, " ")

	if clear {
		if err := st.History.Clear(); err != nil {
			return errResult(1, "krusty: history: %v", err)
		}
		return okResult("")
	}

	if del > 0 {
		if err := st.History.Delete(del); err != nil {
			return errResult(1, "%v", err)
		}
		return okResult("")
	}

	if pattern != "" {
		searchMode := config.SearchMode(mode)
		matches, err := st.History.Search(pattern, searchMode)
		if err != nil {
			return errResult(1, "%v", err)
		}
		var b strings.Builder
		for _, m := range matches {
			fmt.Fprintf(&b, "%5d  %s\n", m.Index, m.Text)
		}
		return okResult(b.String())
	}

	if n <= 0 {
		n = st.History.Len()
	}
	recent := st.History.GetRecent(n)
	var b strings.Builder
	total := st.History.Len()
	for i, line := range recent {
		fmt.Fprintf(&b, "%5d  %s\n", total-i, line)
	}
	return okResult(b.String())
}
