// Package shell wires every component into the runnable program: it
// owns the shellstate.State singleton, builds the builtin registry and
// completion/editor/prompt collaborators around it, and exposes the two
// entry points: an interactive REPL and a one-shot exec path.
package shell

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/diillson/krusty/builtins"
	"github.com/diillson/krusty/chain"
	"github.com/diillson/krusty/completion"
	"github.com/diillson/krusty/config"
	"github.com/diillson/krusty/editor"
	"github.com/diillson/krusty/expand"
	"github.com/diillson/krusty/history"
	"github.com/diillson/krusty/hooks"
	"github.com/diillson/krusty/job"
	"github.com/diillson/krusty/metrics"
	"github.com/diillson/krusty/pipeline"
	"github.com/diillson/krusty/prompt"
	"github.com/diillson/krusty/shellstate"
	"go.uber.org/zap"
)

// Shell is the process-wide orchestrator. It satisfies
// expand.CommandRunner so `$(...)`/backtick command substitution can
// recurse back into the same chain executor the REPL uses.
type Shell struct {
	State      *shellstate.State
	Config     *config.Manager
	Registry   *builtins.Registry
	Completion *completion.Provider
	Prompt     prompt.Renderer
	Metrics    *metrics.Shell
	Editor     *editor.Editor
	Hooks      *hooks.Bus
	logger     *zap.Logger

	chainOpts chain.Options
	caches    *expand.Caches
	jobsSeen  uint32
}

// Options configures New.
type Options struct {
	Logger        *zap.Logger
	ConfigPath    string
	Verbose       bool
	Renderer      prompt.Renderer
	MetricsAddr   string
	SyntaxColor   bool
	NoInteractive bool
}

// New builds a Shell from process environment and the layered
// configuration, ready for either RunInteractive or RunOnce.
func New(opts Options) (*Shell, error) {
	cfgMgr := config.New(opts.Logger, opts.ConfigPath)
	if err := cfgMgr.Load(); err != nil {
		return nil, fmt.Errorf("krusty: loading configuration: %w", err)
	}
	cfg := cfgMgr.Get()
	if opts.Verbose {
		cfgMgr.Set(func(c *config.Config) { c.Verbose = true })
		cfg.Verbose = true
	}

	hist, err := history.New(cfg.History)
	if err != nil {
		return nil, fmt.Errorf("krusty: opening history: %w", err)
	}

	env := processEnvironment()
	for k, v := range cfg.Environment {
		env[k] = v
	}
	forceColorTerm(env)

	bookmarksFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		bookmarksFile = filepath.Join(home, ".krusty", "bookmarks.json")
	}
	st, err := shellstate.New(env, hist, bookmarksFile)
	if err != nil {
		return nil, err
	}
	for name, value := range cfg.Aliases {
		st.Aliases.Set(name, value)
	}

	registry := builtins.NewRegistry()
	comp := completion.New(st, registry, cfg.Completion)

	renderer := opts.Renderer
	if renderer == nil {
		renderer = prompt.Default{}
	}

	var metricsShell *metrics.Shell
	if cfg.Metrics.Enabled {
		metricsShell = metrics.NewShell()
		addr := cfg.Metrics.Listen
		if opts.MetricsAddr != "" {
			addr = opts.MetricsAddr
		}
		if addr != "" {
			metrics.NewServer(addr, opts.Logger).Start()
		}
	}

	sh := &Shell{
		State:      st,
		Config:     cfgMgr,
		Registry:   registry,
		Completion: comp,
		Prompt:     renderer,
		Metrics:    metricsShell,
		logger:     opts.Logger,
	}
	registry.SetErrorObserver(func(name string) {
		if sh.Metrics != nil {
			sh.Metrics.BuiltinErrors.WithLabelValues(name).Inc()
		}
	})

	sh.caches = expand.NewCaches(
		cfg.Expansion.CacheLimits.Arg,
		cfg.Expansion.CacheLimits.Exec,
		cfg.Expansion.CacheLimits.Arithmetic,
	)

	pipeOpts := pipeline.Options{
		Registry:   registry,
		Timeout:    time.Duration(cfg.Execution.DefaultTimeoutMs) * time.Millisecond,
		KillSignal: cfg.Execution.KillSignal,
		Stream:     cfg.StreamOutput,
		Caches:     sh.caches,
	}
	sh.chainOpts = chain.Options{
		Registry:      registry,
		Pipeline:      pipeOpts,
		ExpandContext: sh.expandContext,
	}

	if !opts.NoInteractive {
		sh.Editor = editor.New(os.Stdin, os.Stdout, hist, comp, opts.SyntaxColor)
	}

	sh.Hooks = hooks.New(opts.Logger, func(ctx context.Context, command string) error {
		res := chain.Run(ctx, command, sh.State, sh.chainOpts)
		if res.ExitCode != 0 {
			return fmt.Errorf("hook command exited %d", res.ExitCode)
		}
		return nil
	})
	sh.Hooks.LoadConfig(cfg.Hooks)
	comp.SetHooks(sh.Hooks)
	hist.SetHooks(sh.Hooks)

	if err := cfgMgr.Watch(func(c config.Config) {
		sh.Hooks.LoadConfig(c.Hooks)
		sh.Hooks.Fire(context.Background(), hooks.ShellReload, hooks.Payload{})
	}); err != nil && opts.Logger != nil {
		opts.Logger.Warn("config watch unavailable", zap.Error(err))
	}

	sh.Hooks.Fire(context.Background(), hooks.ShellInit, hooks.Payload{})
	return sh, nil
}

// Close releases resources (config file watcher, editor/liner state).
func (s *Shell) Close() error {
	if s.Editor != nil {
		_ = s.Editor.Close()
	}
	return s.Config.Close()
}

// expandContext builds the per-call expand.Context the chain/pipeline/
// script packages thread through expansion, wiring s as the
// CommandRunner so command substitution recurses into RunCaptured.
func (s *Shell) expandContext(st *shellstate.State) *expand.Context {
	return &expand.Context{
		Cwd:          st.Cwd,
		Environment:  st.Environment,
		Shell:        s,
		Mode:         expand.ModeShell,
		SandboxAllow: expand.DefaultSandboxAllow(),
		Nounset:      st.Nounset,
		LastExit:     st.LastExitCode,
		Caches:       s.caches,
	}
}

// RunCaptured implements expand.CommandRunner: it runs commandLine
// through the full chain executor and returns its captured stdout,
// trimmed of all trailing newlines per POSIX command-substitution
// rules, and exit code.
func (s *Shell) RunCaptured(ctx context.Context, commandLine string) (string, int, error) {
	res := chain.Run(ctx, commandLine, s.State, s.chainOpts)
	return strings.TrimRight(res.Stdout, "\n"), res.ExitCode, nil
}

// RunLine runs one input line through the chain executor, updating
// LastExitCode/LastDurationMs, recording history, and observing
// metrics, then returns the chain's aggregated result.
func (s *Shell) RunLine(ctx context.Context, line string) chain.Result {
	trimmed := strings.TrimRight(line, "\n")
	if strings.TrimSpace(trimmed) != "" {
		if err := s.State.History.Add(trimmed); err != nil && s.logger != nil {
			s.logger.Warn("history add failed", zap.Error(err))
		}
		s.Hooks.Fire(ctx, hooks.HistoryAdd, hooks.Payload{Command: trimmed})
	}

	s.Hooks.Fire(ctx, hooks.CommandBefore, hooks.Payload{Command: trimmed})
	cwdBefore := s.State.Cwd

	res := chain.Run(ctx, trimmed, s.State, s.chainOpts)
	s.State.LastExitCode = res.ExitCode
	s.State.LastDurationMs = res.Duration.Milliseconds()

	if s.Metrics != nil {
		s.Metrics.ObserveCommand(res.ExitCode)
		s.Metrics.ObservePipeline(res.Duration, false)
		total := s.State.Jobs.TotalStarted()
		if total > s.jobsSeen {
			s.Metrics.JobsStarted.Add(float64(total - s.jobsSeen))
		}
		s.jobsSeen = total
		active := 0
		for _, j := range s.State.Jobs.All() {
			if j.Status != job.Done {
				active++
			}
		}
		s.Metrics.JobsActive.Set(float64(active))
	}
	s.Hooks.Fire(ctx, hooks.CommandAfter, hooks.Payload{Command: trimmed, ExitCode: res.ExitCode})
	if s.State.Cwd != cwdBefore {
		s.Hooks.Fire(ctx, hooks.DirectoryChange, hooks.Payload{Old: cwdBefore, New: s.State.Cwd})
	}
	return res
}

// RunOnce implements the `krusty exec <command>` one-shot mode: parse
// and execute one line, print captured (non-streamed) stdout/stderr,
// and return its exit code.
func (s *Shell) RunOnce(ctx context.Context, commandLine string) int {
	res := s.RunLine(ctx, commandLine)
	if res.Stdout != "" {
		fmt.Fprint(os.Stdout, res.Stdout)
	}
	if res.Stderr != "" {
		fmt.Fprint(os.Stderr, res.Stderr)
	}
	return res.ExitCode
}

// RunInteractive drives the REPL: render a prompt, read one line,
// execute it, repeat until EOF (Ctrl-D on an empty line) or the `exit`
// builtin sets st.ExitRequested.
func (s *Shell) RunInteractive(ctx context.Context) int {
	s.Hooks.Fire(ctx, hooks.ShellStart, hooks.Payload{})
	defer func() {
		s.Hooks.Fire(ctx, hooks.ShellStop, hooks.Payload{})
		s.State.Jobs.Shutdown()
		s.Hooks.Fire(ctx, hooks.ShellExit, hooks.Payload{})
	}()

	for {
		if s.State.ExitRequested {
			return s.State.ExitCode
		}

		s.notifyFinishedJobs()

		left, right := s.renderPrompt()
		line, err := s.Editor.ReadLine(left, right)
		if err == io.EOF {
			fmt.Fprintln(os.Stdout)
			return s.State.LastExitCode
		}
		if err == editor.ErrInterrupted {
			continue
		}
		if err != nil {
			if s.logger != nil {
				s.logger.Error("reading line", zap.Error(err))
			}
			return 1
		}

		if strings.TrimSpace(line) == "" {
			continue
		}
		s.RunLine(ctx, line)
	}
}

// notifyFinishedJobs prints a completion line for every job that
// finished since the last prompt, then drops the Done entries.
func (s *Shell) notifyFinishedJobs() {
	for _, j := range s.State.Jobs.All() {
		if j.Status == job.Done {
			fmt.Fprintf(os.Stdout, "[%d]  Done                 %s\n", j.ID, j.Command)
		}
	}
	s.State.Jobs.CleanupJobs()
}

func (s *Shell) renderPrompt() (string, string) {
	s.Hooks.Fire(context.Background(), hooks.PromptBefore, hooks.Payload{})
	defer s.Hooks.Fire(context.Background(), hooks.PromptAfter, hooks.Payload{})

	home, _ := os.UserHomeDir()
	branch, dirty := gitStatus(s.State.Cwd)
	ps := prompt.State{
		Cwd:          s.State.Cwd,
		Home:         home,
		LastExitCode: s.State.LastExitCode,
		LastDuration: s.State.LastDurationMs,
		GitBranch:    branch,
		GitDirty:     dirty,
		JobCount:     len(s.State.Jobs.All()),
	}
	return s.Prompt.Render(ps), s.Prompt.RenderRight(ps)
}

// processEnvironment snapshots os.Environ() into the map shape
// shellstate.State owns its environment as.
func processEnvironment() map[string]string {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			env[parts[0]] = parts[1]
		}
	}
	return env
}

// forceColorTerm sets a color-capable TERM for spawned children unless
// the user already overrode TERM, NO_COLOR, or FORCE_COLOR.
func forceColorTerm(env map[string]string) {
	if _, noColor := env["NO_COLOR"]; noColor {
		return
	}
	if _, forced := env["FORCE_COLOR"]; forced {
		return
	}
	if term, ok := env["TERM"]; !ok || term == "" || term == "dumb" {
		env["TERM"] = "xterm-256color"
	}
}
