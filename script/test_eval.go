package script

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/diillson/krusty/expand"
	"github.com/diillson/krusty/lexer"
)

// evalCond expands and runs an `if`/`while`/`until` condition string.
// It recognizes the `[ expr ]` and `[[ expr ]]` test forms directly;
// anything else is handed to ExecLine and judged by its exit code, the
// way a real shell treats an arbitrary command used as a condition.
func (in *interpreter) evalCond(ctx context.Context, cond string) (bool, error) {
	trimmed := strings.TrimSpace(cond)

	if strings.HasPrefix(trimmed, "[[") && strings.HasSuffix(trimmed, "]]") {
		inner := strings.TrimSpace(trimmed[2 : len(trimmed)-2])
		return in.evalTest(inner)
	}
	if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
		inner := strings.TrimSpace(trimmed[1 : len(trimmed)-1])
		return in.evalTest(inner)
	}

	if in.opts.ExecLine == nil {
		return false, nil
	}
	var out strings.Builder
	code, err := in.execCommand(ctx, trimmed, &out)
	return code == 0, err
}

// evalTest evaluates the body of a `[ ... ]`/`[[ ... ]]` test expression:
// unary file predicates, string/numeric comparisons, and `!` negation.
// Composition with -a/-o is intentionally not supported: multi-term
// conditions should use `&&`/`||` chains instead.
func (in *interpreter) evalTest(expr string) (bool, error) {
	fields := in.tokenizeTest(expr)
	if len(fields) == 0 {
		return false, nil
	}

	if fields[0] == "!" {
		ok, err := in.evalTestFields(fields[1:])
		return !ok, err
	}
	return in.evalTestFields(fields)
}

func (in *interpreter) evalTestFields(fields []string) (bool, error) {
	switch len(fields) {
	case 0:
		return false, nil
	case 1:
		return fields[0] != "", nil
	case 2:
		return in.evalUnary(fields[0], fields[1])
	case 3:
		return in.evalBinary(fields[0], fields[1], fields[2])
	default:
		return false, nil
	}
}

func (in *interpreter) evalUnary(op, arg string) (bool, error) {
	switch op {
	case "-z":
		return arg == "", nil
	case "-n":
		return arg != "", nil
	case "-e", "-a":
		_, err := os.Stat(arg)
		return err == nil, nil
	case "-f":
		fi, err := os.Stat(arg)
		return err == nil && fi.Mode().IsRegular(), nil
	case "-d":
		fi, err := os.Stat(arg)
		return err == nil && fi.IsDir(), nil
	case "-L", "-h":
		fi, err := os.Lstat(arg)
		return err == nil && fi.Mode()&os.ModeSymlink != 0, nil
	case "-r", "-w":
		_, err := os.Stat(arg)
		return err == nil, nil
	case "-x":
		fi, err := os.Stat(arg)
		return err == nil && fi.Mode()&0o111 != 0, nil
	case "-s":
		fi, err := os.Stat(arg)
		return err == nil && fi.Size() > 0, nil
	default:
		return false, nil
	}
}

func (in *interpreter) evalBinary(lhs, op, rhs string) (bool, error) {
	switch op {
	case "=", "==":
		return lhs == rhs, nil
	case "!=":
		return lhs != rhs, nil
	case "<":
		return lhs < rhs, nil
	case ">":
		return lhs > rhs, nil
	case "-eq":
		return numCompare(lhs, rhs, func(a, b int64) bool { return a == b })
	case "-ne":
		return numCompare(lhs, rhs, func(a, b int64) bool { return a != b })
	case "-lt":
		return numCompare(lhs, rhs, func(a, b int64) bool { return a < b })
	case "-le":
		return numCompare(lhs, rhs, func(a, b int64) bool { return a <= b })
	case "-gt":
		return numCompare(lhs, rhs, func(a, b int64) bool { return a > b })
	case "-ge":
		return numCompare(lhs, rhs, func(a, b int64) bool { return a >= b })
	case "-nt":
		li, lerr := os.Stat(lhs)
		ri, rerr := os.Stat(rhs)
		return lerr == nil && rerr == nil && li.ModTime().After(ri.ModTime()), nil
	case "-ot":
		li, lerr := os.Stat(lhs)
		ri, rerr := os.Stat(rhs)
		return lerr == nil && rerr == nil && li.ModTime().Before(ri.ModTime()), nil
	default:
		return false, nil
	}
}

func numCompare(lhs, rhs string, cmp func(a, b int64) bool) (bool, error) {
	a, err := strconv.ParseInt(strings.TrimSpace(lhs), 10, 64)
	if err != nil {
		return false, nil
	}
	b, err := strconv.ParseInt(strings.TrimSpace(rhs), 10, 64)
	if err != nil {
		return false, nil
	}
	return cmp(a, b), nil
}

// tokenizeTest lexes the test body into quote-aware words, expands each
// one (variables/arithmetic/command substitution), and returns the
// dequoted result fields.
func (in *interpreter) tokenizeTest(expr string) []string {
	toks, err := lexer.Tokenize(expr)
	if err != nil {
		return strings.Fields(expr)
	}

	var ctx *expand.Context
	if in.opts.ExpandContext != nil {
		ctx = in.opts.ExpandContext(in.st)
	}

	var fields []string
	for _, t := range toks {
		if t.Kind != lexer.KindWord {
			continue
		}
		if ctx == nil {
			fields = append(fields, lexer.Unquote(t.Text))
			continue
		}
		expanded, err := expand.Expand(t.Text, ctx)
		if err != nil || len(expanded) == 0 {
			fields = append(fields, lexer.Unquote(t.Text))
			continue
		}
		for _, w := range expanded {
			fields = append(fields, lexer.Unquote(w))
		}
	}
	return fields
}

// matchGlobPattern applies shell glob semantics (*, ?, [...]) to a `case`
// pattern the way filepath.Match already implements them.
func matchGlobPattern(pattern, word string) bool {
	if pattern == "*" {
		return true
	}
	ok, err := filepath.Match(pattern, word)
	return err == nil && ok
}
