package expand

import (
	"os"
	"strconv"
	"strings"

	"github.com/diillson/krusty/shellerr"
)

// expandVariables handles $VAR, ${VAR}, ${#VAR},
// ${VAR:-d}, ${VAR:+a}, ${VAR:?e}, ${VAR=d}. Scans left to right, copying
// literal text and substituting at each unescaped '$'.
func expandVariables(segment string, ctx *Context) (string, error) {
	var out strings.Builder
	i := 0
	n := len(segment)

	for i < n {
		c := segment[i]
		if c == '\\' && i+1 < n {
			out.WriteByte(c)
			out.WriteByte(segment[i+1])
			i += 2
			continue
		}
		if c != '$' || i+1 >= n {
			out.WriteByte(c)
			i++
			continue
		}

		// $(( arithmetic )) and $( command substitution ) are handled by
		// later stages; skip over them untouched here so this pass only
		// ever touches bare variable references.
		if strings.HasPrefix(segment[i:], "$((") || strings.HasPrefix(segment[i:], "$(") {
			depth := 0
			j := i + 1
			for j < n {
				if segment[j] == '(' {
					depth++
				} else if segment[j] == ')' {
					depth--
					if depth == 0 {
						j++
						break
					}
				}
				j++
			}
			out.WriteString(segment[i:j])
			i = j
			continue
		}

		next := segment[i+1]
		if next == '{' {
			close := matchBrace(segment, i+1)
			if close < 0 {
				out.WriteByte(c)
				i++
				continue
			}
			inner := segment[i+2 : close]
			val, err := expandBraceForm(inner, ctx)
			if err != nil {
				return "", err
			}
			out.WriteString(val)
			i = close + 1
			continue
		}

		if isNameStart(next) {
			j := i + 1
			for j < n && isNameByte(segment[j]) {
				j++
			}
			name := segment[i+1 : j]
			val, err := lookupOrUnbound(name, ctx)
			if err != nil {
				return "", err
			}
			out.WriteString(val)
			i = j
			continue
		}

		// positional ($1..$9, $0) and special ($@, $#, $?, $$)
		// parameters; the interpreter publishes positionals into the
		// environment under their digit names.
		switch {
		case next >= '0' && next <= '9':
			val, _ := ctx.Getenv(string(next))
			out.WriteString(val)
			i += 2
		case next == '#':
			val, _ := ctx.Getenv("#")
			out.WriteString(val)
			i += 2
		case next == '@':
			val, _ := ctx.Getenv("@")
			out.WriteString(strings.ReplaceAll(val, "\x1f", " "))
			i += 2
		case next == '?':
			out.WriteString(strconv.Itoa(ctx.LastExit))
			i += 2
		case next == '$':
			out.WriteString(strconv.Itoa(os.Getpid()))
			i += 2
		default:
			out.WriteByte(c)
			i++
		}
	}

	return out.String(), nil
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameByte(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}

func matchBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func lookupOrUnbound(name string, ctx *Context) (string, error) {
	val, ok := ctx.Getenv(name)
	if !ok {
		if ctx.Nounset {
			return "", shellerr.NewUnbound(name)
		}
		return "", nil
	}
	return val, nil
}

// expandBraceForm handles the body of ${...}: plain name, #name (length),
// and the :-/:+/:?/= operator family.
func expandBraceForm(inner string, ctx *Context) (string, error) {
	if strings.HasPrefix(inner, "#") {
		name := inner[1:]
		val, _ := ctx.Getenv(name)
		return strconv.Itoa(len(val)), nil
	}

	for _, op := range []string{":-", ":+", ":?", ":=", "="} {
		if idx := strings.Index(inner, op); idx >= 0 {
			name := inner[:idx]
			arg := inner[idx+len(op):]
			val, ok := ctx.Getenv(name)

			switch op {
			case ":-":
				if !ok || val == "" {
					return arg, nil
				}
				return val, nil
			case ":+":
				if ok && val != "" {
					return arg, nil
				}
				return "", nil
			case ":?":
				if !ok || val == "" {
					msg := arg
					if msg == "" {
						msg = "parameter not set"
					}
					return "", shellerr.NewUnbound(name + ": " + msg)
				}
				return val, nil
			case "=", ":=":
				if !ok || (op == ":=" && val == "") {
					ctx.Setenv(name, arg)
					return arg, nil
				}
				return val, nil
			}
		}
	}

	return lookupOrUnbound(inner, ctx)
}
