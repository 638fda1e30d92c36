package script

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/diillson/krusty/expand"
	"github.com/diillson/krusty/shellstate"
)

// returnSignal/breakSignal/continueSignal are sentinel errors the walking
// interpreter uses to unwind out of nested Stmt lists without
// re-entering the executor.
type returnSignal struct{ code int }

func (r *returnSignal) Error() string { return "return" }

type breakSignal struct{ n int }

func (b *breakSignal) Error() string { return "break" }

type continueSignal struct{ n int }

func (c *continueSignal) Error() string { return "continue" }

type interpreter struct {
	st        *shellstate.State
	opts      RunOptions
	functions map[string]*Stmt
	errOut    strings.Builder
}

func newInterpreter(st *shellstate.State, opts RunOptions) *interpreter {
	return &interpreter{st: st, opts: opts, functions: make(map[string]*Stmt)}
}

// execList runs a Stmt list in order, threading out, and returns the last
// exit code observed or the first error that must unwind the list
// (break/continue/return). Under errexit it stops at the first nonzero
// code and returns that code with a nil error.
func (in *interpreter) execList(ctx context.Context, stmts []Stmt, out *strings.Builder) (int, error) {
	code := 0
	for _, s := range stmts {
		c, err := in.execStmt(ctx, s, out)
		code = c
		in.st.LastExitCode = code
		if err != nil {
			return code, err
		}
		if in.st.Errexit && code != 0 {
			return code, nil
		}
	}
	return code, nil
}

func (in *interpreter) execStmt(ctx context.Context, s Stmt, out *strings.Builder) (int, error) {
	switch s.Kind {
	case KindCommand:
		return in.execCommand(ctx, s.CommandLine, out)

	case KindIf:
		ok, err := in.evalCond(ctx, s.Cond)
		if err != nil {
			return 2, err
		}
		if ok {
			return in.execList(ctx, s.Then, out)
		}
		for _, e := range s.Elifs {
			ok, err := in.evalCond(ctx, e.Cond)
			if err != nil {
				return 2, err
			}
			if ok {
				return in.execList(ctx, e.Body, out)
			}
		}
		if s.Else != nil {
			return in.execList(ctx, s.Else, out)
		}
		return 0, nil

	case KindFor:
		items := s.List
		if !s.HasList {
			items = in.positionalArgs() // "for x; do" iterates "$@"
		}
		code := 0
		for _, item := range items {
			in.st.Setenv(s.Var, item)
			c, err := in.execList(ctx, s.Body, out)
			code = c
			if err != nil {
				if bs, ok := err.(*breakSignal); ok {
					if bs.n > 1 {
						bs.n--
						return code, bs
					}
					return code, nil
				}
				if cs, ok := err.(*continueSignal); ok {
					if cs.n > 1 {
						cs.n--
						return code, cs
					}
					continue
				}
				return code, err
			}
		}
		return code, nil

	case KindWhile, KindUntil:
		code := 0
		for {
			ok, err := in.evalCond(ctx, s.Cond)
			if err != nil {
				return 2, err
			}
			if s.Kind == KindUntil {
				ok = !ok
			}
			if !ok {
				break
			}
			c, err := in.execList(ctx, s.Body, out)
			code = c
			if err != nil {
				if bs, ok := err.(*breakSignal); ok {
					if bs.n > 1 {
						bs.n--
						return code, bs
					}
					break
				}
				if cs, ok := err.(*continueSignal); ok {
					if cs.n > 1 {
						cs.n--
						return code, cs
					}
					continue
				}
				return code, err
			}
		}
		return code, nil

	case KindCase:
		word := in.expandWord(s.CaseWord)
		for _, clause := range s.CaseClauses {
			for _, pat := range clause.Patterns {
				if matchGlobPattern(pat, word) {
					return in.execList(ctx, clause.Body, out)
				}
			}
		}
		return 0, nil

	case KindFunction:
		fn := s
		in.functions[s.FuncName] = &fn
		return 0, nil

	default:
		return 0, fmt.Errorf("script: unknown statement kind %d", s.Kind)
	}
}

// execCommand runs one leaf command-statement line, recognizing break,
// continue, return (the only "builtins" the interpreter itself must
// understand, since they alter control flow rather than produce output)
// and user-defined function calls ahead of delegating to ExecLine.
func (in *interpreter) execCommand(ctx context.Context, line string, out *strings.Builder) (int, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return 0, nil
	}

	fields := strings.Fields(trimmed)
	switch fields[0] {
	case "break":
		return 0, &breakSignal{n: loopCount(fields)}
	case "continue":
		return 0, &continueSignal{n: loopCount(fields)}
	case "return":
		code := in.st.LastExitCode
		if len(fields) > 1 {
			if v, err := strconv.Atoi(fields[1]); err == nil {
				code = v
			}
		}
		return code, &returnSignal{code: code}
	}

	if fn, ok := in.functions[fields[0]]; ok {
		prevArgs := in.positionalArgs()
		in.setPositionalArgs(fields[1:])
		code, err := in.execList(ctx, fn.FuncBody, out)
		in.setPositionalArgs(prevArgs)
		if rs, ok := err.(*returnSignal); ok {
			return rs.code, nil
		}
		return code, err
	}

	if in.opts.ExecLine == nil {
		return 0, nil
	}
	res := in.opts.ExecLine(ctx, trimmed, in.st)
	out.WriteString(res.Stdout)
	in.errOut.WriteString(res.Stderr)
	return res.ExitCode, nil
}

func loopCount(fields []string) int {
	if len(fields) > 1 {
		if v, err := strconv.Atoi(fields[1]); err == nil && v > 0 {
			return v
		}
	}
	return 1
}

// positionalArgs/setPositionalArgs model "$@"/"$1".."$9" as ordinary
// environment entries so the existing expansion engine resolves them
// without a separate code path.
func (in *interpreter) positionalArgs() []string {
	raw, ok := in.st.Getenv("@")
	if !ok || raw == "" {
		return nil
	}
	return strings.Split(raw, "\x1f")
}

func (in *interpreter) setPositionalArgs(args []string) {
	for i := 1; i <= 9; i++ {
		in.st.Unsetenv(strconv.Itoa(i))
	}
	for i, a := range args {
		if i >= 9 {
			break
		}
		in.st.Setenv(strconv.Itoa(i+1), a)
	}
	in.st.Setenv("@", strings.Join(args, "\x1f"))
	in.st.Setenv("#", strconv.Itoa(len(args)))
}

func (in *interpreter) expandWord(word string) string {
	if in.opts.ExpandContext == nil {
		return word
	}
	ctx := in.opts.ExpandContext(in.st)
	parts, err := expand.Expand(word, ctx)
	if err != nil {
		return word
	}
	return strings.Join(parts, " ")
}
