// Package hooks is the shell's typed event bus: a closed Event enum
// with a small typed payload instead of string-keyed opaque callbacks.
// Handlers come from configuration (command actions run through the
// shell) or are registered in-process; a failing handler is logged and
// never aborts the operation that fired it.
package hooks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/diillson/krusty/config"
	"go.uber.org/zap"
)

// Event identifies one lifecycle or command event the shell fires.
type Event int

const (
	ShellInit Event = iota
	ShellStart
	ShellStop
	ShellExit
	ShellReload
	CommandBefore
	CommandAfter
	PromptBefore
	PromptAfter
	HistoryAdd
	HistorySearch
	CompletionBefore
	CompletionAfter
	DirectoryChange
)

var eventNames = map[Event]string{
	ShellInit:        "shell:init",
	ShellStart:       "shell:start",
	ShellStop:        "shell:stop",
	ShellExit:        "shell:exit",
	ShellReload:      "shell:reload",
	CommandBefore:    "command:before",
	CommandAfter:     "command:after",
	PromptBefore:     "prompt:before",
	PromptAfter:      "prompt:after",
	HistoryAdd:       "history:add",
	HistorySearch:    "history:search",
	CompletionBefore: "completion:before",
	CompletionAfter:  "completion:after",
	DirectoryChange:  "directory:change",
}

func (e Event) String() string {
	if n, ok := eventNames[e]; ok {
		return n
	}
	return "unknown"
}

// ParseEvent resolves a configuration key ("command:before") to its
// Event. ok is false for names the shell never fires.
func ParseEvent(name string) (Event, bool) {
	for e, n := range eventNames {
		if n == name {
			return e, true
		}
	}
	return 0, false
}

// Payload carries the event-specific data. Only the fields relevant to
// the fired Event are set: Command/ExitCode for command:*, Old/New for
// directory:change, Query for history:search and completion:*.
type Payload struct {
	Command  string
	ExitCode int
	Old      string
	New      string
	Query    string
}

// RunFunc executes a config-declared hook command line. The bus treats a
// non-nil error as a handler failure to log, nothing more.
type RunFunc func(ctx context.Context, command string) error

// Bus dispatches fired events to registered handlers.
type Bus struct {
	logger *zap.Logger
	run    RunFunc

	mu      sync.RWMutex
	actions map[Event][]config.HookAction
	fns     map[Event][]func(Payload)
}

// New builds an empty Bus. run may be nil when no command actions will
// be loaded (e.g. tests exercising in-process handlers only).
func New(logger *zap.Logger, run RunFunc) *Bus {
	return &Bus{
		logger:  logger,
		run:     run,
		actions: make(map[Event][]config.HookAction),
		fns:     make(map[Event][]func(Payload)),
	}
}

// LoadConfig replaces the bus's config-sourced actions with the given
// map (the `hooks` key of the shell configuration). Unknown event names
// are logged and skipped; per-event actions run highest Priority first.
func (b *Bus) LoadConfig(cfg map[string][]config.HookAction) {
	next := make(map[Event][]config.HookAction, len(cfg))
	for name, actions := range cfg {
		e, ok := ParseEvent(name)
		if !ok {
			if b.logger != nil {
				b.logger.Warn("ignoring hooks for unknown event", zap.String("event", name))
			}
			continue
		}
		kept := make([]config.HookAction, 0, len(actions))
		for _, a := range actions {
			if a.Enabled {
				kept = append(kept, a)
			}
		}
		sort.SliceStable(kept, func(i, j int) bool { return kept[i].Priority > kept[j].Priority })
		next[e] = kept
	}

	b.mu.Lock()
	b.actions = next
	b.mu.Unlock()
}

// Register attaches an in-process handler for e. In-process handlers run
// before config-sourced command actions.
func (b *Bus) Register(e Event, fn func(Payload)) {
	b.mu.Lock()
	b.fns[e] = append(b.fns[e], fn)
	b.mu.Unlock()
}

// Fire dispatches e to every handler. Command actions honor their
// configured Timeout (default 5s); errors are logged and swallowed.
func (b *Bus) Fire(ctx context.Context, e Event, p Payload) {
	b.mu.RLock()
	fns := append([]func(Payload){}, b.fns[e]...)
	actions := append([]config.HookAction(nil), b.actions[e]...)
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(p)
	}

	if b.run == nil {
		return
	}
	for _, a := range actions {
		cmd := a.Command
		if cmd == "" {
			cmd = a.Script
		}
		if cmd == "" {
			continue
		}
		timeout := a.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		actionCtx, cancel := context.WithTimeout(ctx, timeout)
		err := b.run(actionCtx, cmd)
		cancel()
		if err != nil && b.logger != nil {
			b.logger.Warn("hook handler failed",
				zap.String("event", e.String()),
				zap.String("command", cmd),
				zap.Error(err),
			)
		}
	}
}
