// Package builtins implements the in-process commands: an
// insertion-ordered name -> Builtin map, dispatched with xtrace emission,
// background-job spawning, and post-execution redirection application.
// Dispatch goes through a registry rather than a switch so new
// builtins can be added without touching the dispatch loop.
package builtins

import (
	"fmt"
	"strings"
	"time"

	"github.com/diillson/krusty/redirect"
	"github.com/diillson/krusty/runner"
	"github.com/diillson/krusty/shellstate"
)

// Result is what a builtin invocation returns to its dispatcher.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	Streamed bool
}

// ExecuteFunc is a builtin's implementation.
type ExecuteFunc func(args []string, st *shellstate.State) Result

// Builtin is one registered command: a name, its help strings, and the
// function that executes it against the shell state.
type Builtin struct {
	Name        string
	Description string
	Usage       string
	Examples    []string
	Execute     ExecuteFunc
}

// Registry is the insertion-ordered name -> Builtin map.
type Registry struct {
	order   []string
	table   map[string]Builtin
	onError func(name string)
}

// NewRegistry builds the registry with every builtin, in a stable
// documentation order:
// control-plane builtins first, then the dir-stack/bookmark/job
// supplements.
func NewRegistry() *Registry {
	r := &Registry{table: make(map[string]Builtin)}
	for _, b := range []Builtin{
		cdBuiltin(),
		pwdBuiltin(),
		exitBuiltin(),
		exportBuiltin(),
		unsetBuiltin(),
		aliasBuiltin(),
		unaliasBuiltin(),
		setBuiltin(),
		historyBuiltin(),
		jobsBuiltin(),
		fgBuiltin(),
		bgBuiltin(),
		waitBuiltin(),
		killBuiltin(),
		disownBuiltin(),
		pushdBuiltin(),
		popdBuiltin(),
		dirsBuiltin(),
		bookmarkBuiltin(),
	} {
		r.register(b)
	}
	return r
}

func (r *Registry) register(b Builtin) {
	if _, exists := r.table[b.Name]; !exists {
		r.order = append(r.order, b.Name)
	}
	r.table[b.Name] = b
}

// SetErrorObserver registers a callback invoked with the builtin's name
// whenever a dispatch returns a nonzero exit code. Used for metrics.
func (r *Registry) SetErrorObserver(fn func(name string)) {
	r.onError = fn
}

// Lookup reports whether name is a registered builtin.
func (r *Registry) Lookup(name string) (Builtin, bool) {
	b, ok := r.table[name]
	return b, ok
}

// Names returns every registered builtin name in registration order, for
// the completion provider's command-position union.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Dispatch runs a builtin by name, applying the registry-level wrapping:
// xtrace emission, background-job spawning, and
// post-execution redirection. ok is false when name is not registered,
// signaling the caller to fall through to external dispatch.
func (r *Registry) Dispatch(name string, args []string, st *shellstate.State, background bool, redirs []redirect.Redirection) (Result, bool) {
	b, ok := r.table[name]
	if !ok {
		return Result{}, false
	}

	if st.Xtrace {
		fmt.Fprintln(st.Stderr, xtraceLine(name, args))
	}

	if background {
		cmdline := strings.Join(append([]string{name}, args...), " ")
		j := st.Jobs.Register(cmdline, 0, 0, true)
		go func() {
			start := time.Now()
			res := b.Execute(args, st)
			res.Duration = time.Since(start)
			applyRedirections(res, redirs)
			st.Jobs.MarkDone(j.ID, res.ExitCode, 0)
		}()
		return Result{ExitCode: 0, Stdout: fmt.Sprintf("[%d] %s\n", j.ID, cmdline)}, true
	}

	start := time.Now()
	res := b.Execute(args, st)
	res.Duration = time.Since(start)
	res = applyRedirections(res, redirs)
	if res.ExitCode != 0 && r.onError != nil {
		r.onError(name)
	}
	return res, true
}

func xtraceLine(name string, args []string) string {
	parts := append([]string{"+", name}, args...)
	return strings.Join(parts, " ")
}

// applyRedirections writes a builtin's captured output to any file
// redirections, then blanks the redirected streams in the returned copy.
func applyRedirections(res Result, redirs []redirect.Redirection) Result {
	if len(redirs) == 0 {
		return res
	}
	rr := runner.Result{Stdout: res.Stdout, Stderr: res.Stderr}
	_ = runner.ApplyOutputRedirections(rr, redirs)
	rr = runner.ClearRedirected(rr, redirs)
	res.Stdout, res.Stderr = rr.Stdout, rr.Stderr
	return res
}

// errResult builds a one-line stderr-only failure Result with exitCode,
// the shape every argument-validation error in this package returns.
func errResult(exitCode int, format string, args ...any) Result {
	return Result{ExitCode: exitCode, Stderr: fmt.Sprintf(format, args...) + "\n"}
}

func okResult(stdout string) Result {
	return Result{ExitCode: 0, Stdout: stdout}
}
