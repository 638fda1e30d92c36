package expand

import "strings"

// Expand runs the full expansion pipeline over one segment, in order:
// variables, arithmetic, braces, command substitution, process
// substitution. Brace expansion fans a single segment out into multiple
// words (e.g. "f{a,b}" -> "fa", "fb"), so Expand returns a slice.
func Expand(segment string, ctx *Context) ([]string, error) {
	step1, err := expandVariables(segment, ctx)
	if err != nil {
		return nil, err
	}

	step2, err := expandArithmetic(step1, ctx)
	if err != nil {
		return nil, err
	}

	braced := expandBraces(step2)

	out := make([]string, 0, len(braced))
	for _, w := range braced {
		step4, err := expandCommandSubstitution(w, ctx)
		if err != nil {
			return nil, err
		}
		step5, err := expandProcessSubstitution(step4, ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, step5)
	}
	return out, nil
}

// SplitArgs splits a fully expanded line into whitespace-separated
// arguments, honoring single/double quotes, with results cached by the
// bounded arg-split LRU.
func SplitArgs(line string, ctx *Context) []string {
	if ctx.Caches != nil {
		if cached, ok := ctx.Caches.ArgSplit(line); ok {
			return strings.Split(cached, "\x00")
		}
	}

	fields := splitRespectingQuotes(line)

	if ctx.Caches != nil {
		ctx.Caches.PutArgSplit(line, strings.Join(fields, "\x00"))
	}
	return fields
}

func splitRespectingQuotes(line string) []string {
	var fields []string
	var cur strings.Builder
	inSingle, inDouble := false, false
	hasContent := false

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\'' && !inDouble:
			inSingle = !inSingle
			hasContent = true
		case c == '"' && !inSingle:
			inDouble = !inDouble
			hasContent = true
		case (c == ' ' || c == '\t') && !inSingle && !inDouble:
			if hasContent {
				fields = append(fields, cur.String())
				cur.Reset()
				hasContent = false
			}
		default:
			cur.WriteByte(c)
			hasContent = true
		}
	}
	if hasContent {
		fields = append(fields, cur.String())
	}
	return fields
}
