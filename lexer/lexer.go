// Package lexer tokenizes a shell segment into words, preserving quote
// characters so downstream stages (expansion, redirection extraction)
// know whether a token needs further processing.
package lexer

import (
	"strings"

	"github.com/diillson/krusty/shellerr"
)

// Kind tags a Token by what kind of text it carries.
type Kind int

const (
	// KindWord is a bare or quoted word.
	KindWord Kind = iota
	// KindOperator is an unquoted shell operator (|, &&, ||, ;, &, newline).
	KindOperator
)

// Token is a tagged lexical unit. Text retains surrounding quote
// characters; Start and End are the [start,end) byte range in the
// original input.
type Token struct {
	Kind  Kind
	Text  string
	Quote byte // 0, '\'', or '"' — the quote the token was wrapped in, if any
	Start int
	End   int
}

// Tokenize scans input and returns its tokens, split on unquoted
// whitespace. A single backslash escapes the next byte outside single
// quotes; single quotes preserve their contents verbatim; double quotes
// allow backslash before $, `, \, ", and newline. An unmatched quote at
// EOF is a ParseError whose offset is the input's length.
func Tokenize(input string) ([]Token, error) {
	var tokens []Token
	var cur strings.Builder
	curStart := -1
	curQuote := byte(0)
	i := 0
	n := len(input)

	flush := func(end int) {
		if cur.Len() > 0 || curStart >= 0 {
			tokens = append(tokens, Token{
				Kind:  KindWord,
				Text:  cur.String(),
				Quote: curQuote,
				Start: curStart,
				End:   end,
			})
			cur.Reset()
			curStart = -1
			curQuote = 0
		}
	}

	for i < n {
		c := input[i]

		switch {
		case c == '\'':
			if curStart < 0 {
				curStart = i
			}
			cur.WriteByte(c)
			j := i + 1
			for j < n && input[j] != '\'' {
				cur.WriteByte(input[j])
				j++
			}
			if j >= n {
				return nil, shellerr.NewParseError(input, n, "unterminated single-quoted string")
			}
			cur.WriteByte('\'')
			i = j + 1

		case c == '"':
			if curStart < 0 {
				curStart = i
			}
			if curQuote == 0 {
				curQuote = '"'
			}
			cur.WriteByte(c)
			j := i + 1
			closed := false
			for j < n {
				if input[j] == '\\' && j+1 < n && isDquoteEscapable(input[j+1]) {
					cur.WriteByte(input[j])
					cur.WriteByte(input[j+1])
					j += 2
					continue
				}
				if input[j] == '"' {
					cur.WriteByte('"')
					j++
					closed = true
					break
				}
				cur.WriteByte(input[j])
				j++
			}
			if !closed {
				return nil, shellerr.NewParseError(input, n, "unterminated double-quoted string")
			}
			i = j

		case c == '\\' && i+1 < n:
			if curStart < 0 {
				curStart = i
			}
			cur.WriteByte('\\')
			cur.WriteByte(input[i+1])
			i += 2

		case c == '\\' && i+1 >= n:
			return nil, shellerr.NewParseError(input, n, "trailing backslash at end of input")

		case isOperatorStart(input, i):
			flush(i)
			op, width := readOperator(input, i)
			tokens = append(tokens, Token{Kind: KindOperator, Text: op, Start: i, End: i + width})
			i += width

		case c == ' ' || c == '\t':
			flush(i)
			i++

		default:
			if curStart < 0 {
				curStart = i
			}
			cur.WriteByte(c)
			i++
		}
	}

	flush(n)
	return tokens, nil
}

func isDquoteEscapable(c byte) bool {
	switch c {
	case '$', '`', '\\', '"', '\n':
		return true
	default:
		return false
	}
}

func isOperatorStart(s string, i int) bool {
	c := s[i]
	switch c {
	case '|', ';', '&', '\n':
		return true
	default:
		return false
	}
}

// readOperator returns the operator text starting at i and its byte width,
// preferring the longest match (e.g. "&&" over "&", ";;" over ";").
func readOperator(s string, i int) (string, int) {
	two := ""
	if i+1 < len(s) {
		two = s[i : i+2]
	}
	switch two {
	case "&&", "||", ";;":
		return two, 2
	}
	return s[i : i+1], 1
}

// Unquote strips the surrounding quote characters and resolves
// backslash escapes from a token's raw text.
func Unquote(raw string) string {
	var b strings.Builder
	i := 0
	n := len(raw)
	for i < n {
		c := raw[i]
		switch c {
		case '\'':
			j := i + 1
			for j < n && raw[j] != '\'' {
				b.WriteByte(raw[j])
				j++
			}
			i = j + 1
		case '"':
			j := i + 1
			for j < n && raw[j] != '"' {
				if raw[j] == '\\' && j+1 < n && isDquoteEscapable(raw[j+1]) {
					b.WriteByte(raw[j+1])
					j += 2
					continue
				}
				b.WriteByte(raw[j])
				j++
			}
			i = j + 1
		case '\\':
			if i+1 < n {
				b.WriteByte(raw[i+1])
				i += 2
			} else {
				i++
			}
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}
