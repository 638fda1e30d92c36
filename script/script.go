// Package script implements the script parser and interpreter:
// control-flow keyword recognition, a block AST, and a walking
// interpreter with loop/return/break/continue semantics.
// break/continue/return are modeled as sentinel error types that unwind
// through ordinary Go error returns instead of re-entering the full
// executor.
package script

import (
	"context"
	"strings"

	"github.com/diillson/krusty/builtins"
	"github.com/diillson/krusty/expand"
	"github.com/diillson/krusty/pipeline"
	"github.com/diillson/krusty/shellstate"
)

// StmtResult is what one executed command-statement line produced; the
// shape script needs back from whatever runs a full chain/pipeline for
// it (injected via RunOptions.ExecLine to avoid a script<->chain import
// cycle, since chain is the one that knows how to run a full `&&`/`||`
// line and also wants to call back into script for control-flow segments).
type StmtResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// RunOptions threads what the interpreter needs to actually execute a
// leaf command-statement's text.
type RunOptions struct {
	Registry      *builtins.Registry
	Pipeline      pipeline.Options
	ExpandContext func(st *shellstate.State) *expand.Context
	// ExecLine runs one full command line (a pipeline or &&/||/; chain)
	// and reports its result. When nil, leaf command statements are not
	// run (they produce no output and exit 0), and a condition other than
	// a `[ ]`/`[[ ]]` test evaluates false; Registry and Pipeline are not
	// used as a fallback.
	ExecLine func(ctx context.Context, line string, st *shellstate.State) StmtResult
}

// Run preprocesses, parses, and interprets a control-flow block (an
// `if`/`for`/`while`/`until`/`case`/function statement, as routed here by
// the chain executor's isControlFlow check), returning the concatenated
// stdout and stderr of every leaf statement it ran and the block's final
// exit code.
func Run(ctx context.Context, input string, st *shellstate.State, opts RunOptions) (stdout, stderr string, exitCode int, err error) {
	pre := Preprocess(input)

	stmts, err := Parse(pre)
	if err != nil {
		return "", "", 2, err
	}

	interp := newInterpreter(st, opts)
	var out strings.Builder
	code, err := interp.execList(ctx, stmts, &out)
	if err != nil {
		// return exits the block with its code; break/continue escaping
		// the outermost block are no-ops per POSIX, there being no
		// enclosing loop.
		switch err.(type) {
		case *returnSignal, *breakSignal, *continueSignal:
			return out.String(), interp.errOut.String(), code, nil
		}
		return out.String(), interp.errOut.String(), code, err
	}
	return out.String(), interp.errOut.String(), code, nil
}

// Preprocess strips `#` comments (outside quotes) and joins `\`-newline
// continuation lines.
func Preprocess(input string) string {
	joined := strings.ReplaceAll(input, "\\\n", "")

	var out strings.Builder
	inSingle, inDouble := false, false
	for i := 0; i < len(joined); i++ {
		c := joined[i]
		switch {
		case c == '\'' && !inDouble:
			inSingle = !inSingle
			out.WriteByte(c)
		case c == '"' && !inSingle:
			inDouble = !inDouble
			out.WriteByte(c)
		case c == '#' && !inSingle && !inDouble && (i == 0 || joined[i-1] == ' ' || joined[i-1] == '\t' || joined[i-1] == '\n' || joined[i-1] == ';'):
			for i < len(joined) && joined[i] != '\n' {
				i++
			}
			if i < len(joined) {
				out.WriteByte('\n')
			}
		default:
			out.WriteByte(c)
		}
	}
	return out.String()
}
