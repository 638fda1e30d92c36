// Package parser splits shell input into pipeline segments and
// commands with an operator/quote-aware scan that also tracks compound
// construct depth.
package parser

import (
	"strings"

	"github.com/diillson/krusty/expand"
	"github.com/diillson/krusty/lexer"
	"github.com/diillson/krusty/redirect"
)

// Command is one parsed command within a pipeline.
type Command struct {
	Name         string
	Args         []string
	Raw          string
	Background   bool
	OriginalArgs []string
	StdinFile    string
	Redirections []redirect.Redirection
}

// ParsedLine is a single pipeline: one or more Commands joined by `|`.
type ParsedLine struct {
	Commands     []Command
	Background   bool
	Redirections []redirect.Redirection
}

// SplitChain splits raw input into operator-delimited segments at depth
// zero, recognizing `&&`, `||`, `;`, and newline, tracking quote state and
// compound-construct depth (if/for/while/until/case/{}) so operators
// inside those constructs are not treated as chain boundaries. Returns the
// segments and the operator that followed each one (empty string for the
// last segment).
func SplitChain(input string) ([]string, []string) {
	var segments []string
	var operators []string

	var cur strings.Builder
	depth := 0
	inSingle, inDouble := false, false
	i := 0
	n := len(input)

	flush := func(op string) {
		seg := strings.TrimSpace(cur.String())
		if seg != "" {
			segments = append(segments, seg)
			operators = append(operators, op)
		}
		cur.Reset()
	}

	for i < n {
		c := input[i]
		switch {
		case c == '\'' && !inDouble:
			inSingle = !inSingle
			cur.WriteByte(c)
			i++
		case c == '"' && !inSingle:
			inDouble = !inDouble
			cur.WriteByte(c)
			i++
		case inSingle || inDouble:
			cur.WriteByte(c)
			i++
		case hasWordAt(input, i, "if") || hasWordAt(input, i, "for") ||
			hasWordAt(input, i, "while") || hasWordAt(input, i, "until") ||
			hasWordAt(input, i, "case") || c == '{':
			depth++
			w, width := consumeKeyword(input, i)
			cur.WriteString(w)
			i += width
		case hasWordAt(input, i, "fi") || hasWordAt(input, i, "done") ||
			hasWordAt(input, i, "esac") || c == '}':
			if depth > 0 {
				depth--
			}
			w, width := consumeKeyword(input, i)
			cur.WriteString(w)
			i += width
		case depth == 0 && strings.HasPrefix(input[i:], "&&"):
			flush("&&")
			i += 2
		case depth == 0 && strings.HasPrefix(input[i:], "||"):
			flush("||")
			i += 2
		case depth == 0 && (c == ';' || c == '\n'):
			flush(";")
			i++
		default:
			cur.WriteByte(c)
			i++
		}
	}
	flush("")

	return segments, operators
}

func hasWordAt(s string, i int, word string) bool {
	if !strings.HasPrefix(s[i:], word) {
		return false
	}
	end := i + len(word)
	if end < len(s) && isWordByte(s[end]) {
		return false
	}
	if i > 0 && isWordByte(s[i-1]) {
		return false
	}
	return true
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func consumeKeyword(s string, i int) (string, int) {
	if s[i] == '{' || s[i] == '}' {
		return string(s[i]), 1
	}
	j := i
	for j < len(s) && isWordByte(s[j]) {
		j++
	}
	return s[i:j], j - i
}

// ParsePipeline parses a single pipeline segment (no chain operators):
// splits on unquoted `|`, detects a trailing background `&`, and runs each
// sub-segment through expansion, redirection extraction, and
// tokenization.
func ParsePipeline(segment string, ctx *expand.Context) (*ParsedLine, error) {
	segment = strings.TrimSpace(segment)

	background := false
	if strings.HasSuffix(segment, "&") && !strings.HasSuffix(segment, "&&") {
		segment = strings.TrimSpace(segment[:len(segment)-1])
		background = true
	}

	subSegments := splitPipe(segment)

	var commands []Command
	for _, sub := range subSegments {
		cmd, err := parseCommand(sub, ctx)
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
	}

	if len(commands) > 0 {
		commands[len(commands)-1].Background = background
	}

	return &ParsedLine{Commands: commands, Background: background}, nil
}

func splitPipe(segment string) []string {
	var parts []string
	var cur strings.Builder
	inSingle, inDouble := false, false

	for i := 0; i < len(segment); i++ {
		c := segment[i]
		switch {
		case c == '\'' && !inDouble:
			inSingle = !inSingle
			cur.WriteByte(c)
		case c == '"' && !inSingle:
			inDouble = !inDouble
			cur.WriteByte(c)
		case c == '|' && !inSingle && !inDouble && !(i+1 < len(segment) && segment[i+1] == '|'):
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	parts = append(parts, cur.String())
	return parts
}

func parseCommand(sub string, ctx *expand.Context) (Command, error) {
	raw := strings.TrimSpace(sub)

	expanded, err := expand.Expand(raw, ctx)
	if err != nil {
		return Command{}, err
	}
	joined := strings.Join(expanded, " ")

	clean, redirs := redirect.Extract(joined)

	tokens, err := lexer.Tokenize(clean)
	if err != nil {
		return Command{}, err
	}

	var args []string
	for _, tok := range tokens {
		if tok.Kind == lexer.KindWord {
			args = append(args, lexer.Unquote(tok.Text))
		}
	}

	cmd := Command{Raw: raw, Redirections: redirs, OriginalArgs: append([]string(nil), args...)}
	if len(args) > 0 {
		cmd.Name = args[0]
		cmd.Args = args[1:]
	}

	for _, r := range redirs {
		if r.Kind == redirect.KindFile && r.Direction == redirect.DirInput {
			cmd.StdinFile = r.Target
		}
	}

	return cmd, nil
}
