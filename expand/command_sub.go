package expand

import (
	"context"
	"os"
	"strings"

	"github.com/diillson/krusty/shellerr"
)

// expandCommandSubstitution handles `$(...)` and backtick substitution,
// with balanced-paren scanning for the former.
func expandCommandSubstitution(segment string, ctx *Context) (string, error) {
	var out strings.Builder
	i := 0
	n := len(segment)

	for i < n {
		switch {
		case segment[i] == '`':
			j := i + 1
			for j < n && segment[j] != '`' {
				j++
			}
			if j >= n {
				out.WriteString(segment[i:])
				return out.String(), nil
			}
			result, err := runSubstitution(segment[i+1:j], ctx)
			if err != nil {
				return "", err
			}
			out.WriteString(result)
			i = j + 1

		case strings.HasPrefix(segment[i:], "$(") && !strings.HasPrefix(segment[i:], "$(("):
			depth := 1
			j := i + 2
			for j < n && depth > 0 {
				switch segment[j] {
				case '(':
					depth++
				case ')':
					depth--
				}
				j++
			}
			if depth != 0 {
				out.WriteString(segment[i:])
				return out.String(), nil
			}
			inner := segment[i+2 : j-1]
			result, err := runSubstitution(inner, ctx)
			if err != nil {
				return "", err
			}
			out.WriteString(result)
			i = j

		default:
			out.WriteByte(segment[i])
			i++
		}
	}
	return out.String(), nil
}

func runSubstitution(cmdline string, ctx *Context) (string, error) {
	if ctx.Mode == ModeSandbox {
		if !sandboxAllows(cmdline, ctx.SandboxAllow) {
			return "", shellerr.NewBlocked()
		}
	}
	if ctx.Shell == nil {
		return "", nil
	}
	stdout, _, err := ctx.Shell.RunCaptured(context.Background(), cmdline)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(stdout, "\n"), nil
}

// sandboxAllows reports whether cmdline's leading command name is in the
// whitelist and the remainder contains no shell metacharacters.
func sandboxAllows(cmdline string, allow map[string]struct{}) bool {
	trimmed := strings.TrimSpace(cmdline)
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return false
	}
	if _, ok := allow[fields[0]]; !ok {
		return false
	}
	return !strings.ContainsAny(trimmed, "|;&$`<>(){}")
}

// expandProcessSubstitution handles `<(...)` and `>(...)`, implemented
// via temporary files rather than FIFOs. The substituted command's
// stdout (for
// `<(...)`) is captured to a temp file before the outer command runs, and
// the `<(...)`/`>(...)` token is replaced with that file's path. For
// `>(...)` the path is that of an empty temp file and the inner command
// is not run: nothing the outer command writes there reaches it.
func expandProcessSubstitution(segment string, ctx *Context) (string, error) {
	var out strings.Builder
	i := 0
	n := len(segment)

	for i < n {
		isInput := strings.HasPrefix(segment[i:], "<(")
		isOutput := strings.HasPrefix(segment[i:], ">(")
		if !isInput && !isOutput {
			out.WriteByte(segment[i])
			i++
			continue
		}

		depth := 1
		j := i + 2
		for j < n && depth > 0 {
			switch segment[j] {
			case '(':
				depth++
			case ')':
				depth--
			}
			j++
		}
		if depth != 0 {
			out.WriteString(segment[i:])
			return out.String(), nil
		}
		inner := segment[i+2 : j-1]

		path, err := processSubstitutionFile(inner, isInput, ctx)
		if err != nil {
			return "", err
		}
		out.WriteString(path)
		i = j
	}
	return out.String(), nil
}

func processSubstitutionFile(cmdline string, isInput bool, ctx *Context) (string, error) {
	f, err := os.CreateTemp("", "krusty-procsub-*")
	if err != nil {
		return "", err
	}
	path := f.Name()

	if isInput {
		if ctx.Shell != nil {
			stdout, _, err := ctx.Shell.RunCaptured(context.Background(), cmdline)
			if err == nil {
				_, _ = f.WriteString(stdout)
			}
		}
	}
	_ = f.Close()
	return path, nil
}
