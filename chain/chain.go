// Package chain implements the command chain executor: splitting raw
// input into `&&`/`||`/`;`/newline-delimited segments and running them
// left to right under short-circuit semantics. A single input line can
// itself carry several such segments.
package chain

import (
	"context"
	"strings"
	"time"

	"github.com/diillson/krusty/builtins"
	"github.com/diillson/krusty/expand"
	"github.com/diillson/krusty/parser"
	"github.com/diillson/krusty/pipeline"
	"github.com/diillson/krusty/script"
	"github.com/diillson/krusty/shellerr"
	"github.com/diillson/krusty/shellstate"
)

// Result is the aggregated outcome of running a full chain.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Options threads the pieces a chain segment needs to become either a
// pipeline or a script block.
type Options struct {
	Registry      *builtins.Registry
	Pipeline      pipeline.Options
	ExpandContext func(st *shellstate.State) *expand.Context
}

var controlKeywords = []string{"if", "for", "while", "until", "case", "function"}

// Run splits input into chain segments and executes them left to
// right, skipping a segment when the preceding operator is `&&` and the
// prior exit code was nonzero, or `||` and it was zero. Output is
// aggregated concatenatively; the final segment's exit code (or the
// aborting one under `set -e`) is returned.
func Run(ctx context.Context, input string, st *shellstate.State, opts Options) Result {
	start := time.Now()
	segments, operators := parser.SplitChain(input)

	var stdout, stderr strings.Builder
	lastExit := 0

	for i, seg := range segments {
		prevOp := ""
		if i > 0 {
			prevOp = operators[i-1]
		}
		if prevOp == "&&" && lastExit != 0 {
			continue
		}
		if prevOp == "||" && lastExit == 0 {
			continue
		}

		res := runSegment(ctx, seg, st, opts)
		stdout.WriteString(res.Stdout)
		stderr.WriteString(res.Stderr)
		lastExit = res.ExitCode
		st.LastExitCode = lastExit

		// set -e aborts the chain only when a statement terminates a
		// `;`-separated list outright, not when it's itself an operand
		// of && / ||, matching what bash and dash both do.
		nextOp := ""
		if i < len(operators) {
			nextOp = operators[i]
		}
		if st.Errexit && lastExit != 0 && nextOp != "&&" && nextOp != "||" {
			break
		}
	}

	return Result{ExitCode: lastExit, Stdout: stdout.String(), Stderr: stderr.String(), Duration: time.Since(start)}
}

func runSegment(ctx context.Context, seg string, st *shellstate.State, opts Options) pipeline.Result {
	trimmed := strings.TrimSpace(seg)
	if isControlFlow(trimmed) {
		out, errOut, exitCode, err := script.Run(ctx, trimmed, st, script.RunOptions{
			Registry:      opts.Registry,
			Pipeline:      opts.Pipeline,
			ExpandContext: opts.ExpandContext,
			ExecLine: func(ctx context.Context, line string, st *shellstate.State) script.StmtResult {
				r := Run(ctx, line, st, opts)
				return script.StmtResult{Stdout: r.Stdout, Stderr: r.Stderr, ExitCode: r.ExitCode}
			},
		})
		if err != nil {
			return pipeline.Result{ExitCode: exitCode, Stderr: errOut + err.Error() + "\n"}
		}
		return pipeline.Result{ExitCode: exitCode, Stdout: out, Stderr: errOut}
	}

	expCtx := opts.ExpandContext(st)
	expanded, err := expandAliasesAndParse(seg, st, expCtx)
	if err != nil {
		return pipeline.Result{ExitCode: shellerr.ExitCode(err), Stderr: err.Error() + "\n"}
	}

	return pipeline.Run(ctx, expanded, seg, st, opts.Pipeline)
}

// expandAliasesAndParse runs alias expansion on the segment's first
// token before handing the (possibly rewritten) line to the pipeline
// parser.
func expandAliasesAndParse(seg string, st *shellstate.State, ctx *expand.Context) (*parser.ParsedLine, error) {
	fields := strings.Fields(seg)
	if len(fields) == 0 {
		return &parser.ParsedLine{}, nil
	}

	if _, ok := st.Aliases.Get(fields[0]); ok {
		rewritten, expanded := st.Aliases.Expand(fields[0], fields[1:])
		if expanded {
			return parser.ParsePipeline(rewritten, ctx)
		}
	}

	return parser.ParsePipeline(seg, ctx)
}

func isControlFlow(seg string) bool {
	for _, kw := range controlKeywords {
		if strings.HasPrefix(seg, kw) && (len(seg) == len(kw) || isWordBoundary(seg[len(kw)])) {
			return true
		}
	}
	return false
}

func isWordBoundary(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == ';'
}
