// Package pipeline executes a single parsed pipeline: a length-1
// pipeline dispatches directly to a builtin or the external executor,
// while an N-stage pipeline is recomposed into a POSIX `|` line and run
// under a shell, honoring `pipefail` for exit-code selection (last stage
// vs first nonzero).
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/diillson/krusty/builtins"
	"github.com/diillson/krusty/expand"
	"github.com/diillson/krusty/parser"
	"github.com/diillson/krusty/runner"
	"github.com/diillson/krusty/shellerr"
	"github.com/diillson/krusty/shellstate"
	"github.com/diillson/krusty/utils"
)

// Result is the outcome of running one ParsedLine (one pipeline).
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	JobID    uint32
}

// Options configures pipeline execution beyond what ParsedLine already
// carries.
type Options struct {
	Registry   *builtins.Registry
	Timeout    time.Duration
	KillSignal string
	Stream     bool
	Caches     *expand.Caches
}

// Run executes a single parsed pipeline. A length-1 pipeline dispatches
// to the builtin registry, falling through to the external executor; a
// longer pipeline is composed and run under /bin/sh -c, or
// "set -o pipefail; ..." under bash when st.Pipefail is set. Background
// pipelines register a job and return immediately with exit 0.
func Run(ctx context.Context, line *parser.ParsedLine, raw string, st *shellstate.State, opts Options) Result {
	if len(line.Commands) == 0 {
		return Result{}
	}

	if line.Background {
		j := st.Jobs.Register(raw, 0, 0, true)
		go func() {
			res := runForeground(ctx, line, st, opts)
			st.Jobs.MarkDone(j.ID, res.ExitCode, 0)
		}()
		return Result{ExitCode: 0, Stdout: fmt.Sprintf("[%d] %s\n", j.ID, raw), JobID: j.ID}
	}

	return runForeground(ctx, line, st, opts)
}

func runForeground(ctx context.Context, line *parser.ParsedLine, st *shellstate.State, opts Options) Result {
	start := time.Now()

	if len(line.Commands) == 1 {
		r := runSingle(ctx, line.Commands[0], st, opts, false)
		r.Duration = time.Since(start)
		return r
	}

	composed := composeShellLine(line)
	shellName := "sh"
	shellArgs := []string{"-c", composed}
	if st.Pipefail {
		shellName = utils.GetUserShell()
		if shellName != "bash" {
			shellName = "bash"
		}
		// bash's own pipefail status is the rightmost failing stage;
		// PIPESTATUS is scanned so the first failing stage's code wins.
		shellArgs = []string{"-c", "set -o pipefail; " + composed +
			`; for s in "${PIPESTATUS[@]}"; do if [ "$s" -ne 0 ]; then exit "$s"; fi; done`}
	}

	res, err := runner.Run(ctx, runner.Options{
		Name:       shellName,
		Args:       shellArgs,
		Env:        utils.EnvSlice(st.Environment),
		Dir:        st.Cwd,
		Stream:     opts.Stream,
		Timeout:    opts.Timeout,
		KillSignal: killSignal(opts.KillSignal),
	})
	res = appendRunError(res, err)

	return Result{
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		Duration: time.Since(start),
	}
}

// runSingle dispatches one Command to the builtin registry, falling back
// to the external executor when the name is not a builtin.
func runSingle(ctx context.Context, cmd parser.Command, st *shellstate.State, opts Options, background bool) Result {
	if opts.Registry != nil {
		if r, ok := opts.Registry.Dispatch(cmd.Name, cmd.Args, st, background, cmd.Redirections); ok {
			return Result{ExitCode: r.ExitCode, Stdout: r.Stdout, Stderr: r.Stderr, Duration: r.Duration}
		}
	}

	res, err := runner.Run(ctx, runner.Options{
		Name:         resolveExecutable(cmd.Name, st, opts.Caches),
		Args:         cmd.Args,
		Env:          utils.EnvSlice(st.Environment),
		Dir:          st.Cwd,
		Redirections: cmd.Redirections,
		Stream:       opts.Stream && !background,
		Timeout:      opts.Timeout,
		KillSignal:   killSignal(opts.KillSignal),
	})
	if err == nil {
		_ = runner.ApplyOutputRedirections(res, cmd.Redirections)
		res = runner.ClearRedirected(res, cmd.Redirections)
	} else {
		res = appendRunError(res, err)
	}

	return Result{ExitCode: res.ExitCode, Stdout: res.Stdout, Stderr: res.Stderr}
}

// resolveExecutable maps a command name to its executable path through
// the bounded exec-resolution cache, which self-invalidates when PATH
// changes. Unresolvable names pass through so the runner reports its
// usual not-found error.
func resolveExecutable(name string, st *shellstate.State, caches *expand.Caches) string {
	if caches == nil || strings.ContainsRune(name, '/') {
		return name
	}
	pathVal, _ := st.Getenv("PATH")
	if resolved, ok := caches.ExecPath(pathVal, name); ok {
		return resolved
	}
	resolved, err := exec.LookPath(name)
	if err != nil {
		return name
	}
	caches.PutExecPath(pathVal, name, resolved)
	return resolved
}

// appendRunError surfaces a not-found/timeout diagnostic on the result's
// stderr. Signal termination stays silent: the exit code already carries
// 128+signum, and a Ctrl-C'd foreground command shouldn't print a line.
func appendRunError(res runner.Result, err error) runner.Result {
	if err == nil {
		return res
	}
	var se *shellerr.Error
	if errors.As(err, &se) {
		if se.Kind == shellerr.KindSignalTermination {
			return res
		}
		res.Stderr += se.Message + "\n"
		return res
	}
	res.Stderr += err.Error() + "\n"
	return res
}

// killSignal maps a config execution.killSignal name (e.g. "SIGTERM") to
// the syscall.Signal the external executor's watchdog sends first. An
// unrecognized or empty name maps to 0, which runner.Run replaces with
// its SIGTERM default.
func killSignal(name string) syscall.Signal {
	switch strings.ToUpper(strings.TrimPrefix(name, "SIG")) {
	case "TERM":
		return syscall.SIGTERM
	case "KILL":
		return syscall.SIGKILL
	case "INT":
		return syscall.SIGINT
	case "HUP":
		return syscall.SIGHUP
	case "QUIT":
		return syscall.SIGQUIT
	default:
		return 0
	}
}

// composeShellLine rebuilds a POSIX `|`-joined command string from a
// ParsedLine's already-expanded commands, for the N>1 composition path.
func composeShellLine(line *parser.ParsedLine) string {
	parts := make([]string, len(line.Commands))
	for i, cmd := range line.Commands {
		words := append([]string{cmd.Name}, cmd.Args...)
		quoted := make([]string, len(words))
		for j, w := range words {
			quoted[j] = utils.ShellQuote(w)
		}
		parts[i] = strings.Join(quoted, " ")
	}
	return strings.Join(parts, " | ")
}
