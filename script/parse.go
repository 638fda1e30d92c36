package script

import (
	"strings"

	"github.com/diillson/krusty/lexer"
	"github.com/diillson/krusty/shellerr"
)

// Kind tags a Stmt by which sum-type arm it is: If, For, While, Until,
// Case, Function, or a plain command statement.
type Kind int

const (
	KindCommand Kind = iota
	KindIf
	KindFor
	KindWhile
	KindUntil
	KindCase
	KindFunction
)

// ElifClause is one `elif COND; then BODY` arm of an If statement.
type ElifClause struct {
	Cond string
	Body []Stmt
}

// CaseClause is one `PATTERN[|PATTERN...]) BODY ;;` arm of a Case statement.
type CaseClause struct {
	Patterns []string
	Body     []Stmt
}

// Stmt is one node of the block AST. Only the fields relevant to Kind
// are populated: a tagged struct rather than an interface hierarchy,
// since the set of variants is closed.
type Stmt struct {
	Kind Kind

	// KindCommand
	CommandLine string

	// KindIf
	Cond  string
	Then  []Stmt
	Elifs []ElifClause
	Else  []Stmt

	// KindFor
	Var     string
	List    []string
	HasList bool
	Body    []Stmt

	// KindCase
	CaseWord    string
	CaseClauses []CaseClause

	// KindFunction
	FuncName string
	FuncBody []Stmt
}

// Parse tokenizes and recursive-descent parses a preprocessed script block
// into a flat statement list.
func Parse(input string) ([]Stmt, error) {
	toks, err := lexer.Tokenize(input)
	if err != nil {
		return nil, err
	}
	ts := &tokStream{toks: toks, src: input}
	return parseBlock(ts)
}

type tokStream struct {
	toks []lexer.Token
	pos  int
	src  string
}

func (ts *tokStream) eof() bool { return ts.pos >= len(ts.toks) }

func (ts *tokStream) cur() *lexer.Token {
	if ts.eof() {
		return nil
	}
	return &ts.toks[ts.pos]
}

// skipSeparators advances past any run of `;`/newline operator tokens.
func (ts *tokStream) skipSeparators() {
	for {
		t := ts.cur()
		if t == nil || t.Kind != lexer.KindOperator || (t.Text != ";" && t.Text != "\n") {
			return
		}
		ts.pos++
	}
}

// peekWord returns the dequoted text of the current token if it's a bare
// (unquoted) word, else "".
func (ts *tokStream) peekWord() string {
	t := ts.cur()
	if t == nil || t.Kind != lexer.KindWord || t.Quote != 0 {
		return ""
	}
	return t.Text
}

func (ts *tokStream) isKeyword(kw string) bool {
	return ts.peekWord() == kw
}

func (ts *tokStream) consumeKeyword(kw string) error {
	if !ts.isKeyword(kw) {
		return shellerr.NewParseError(ts.src, len(ts.src), "expected '"+kw+"'")
	}
	ts.pos++
	return nil
}

var stopKeywords = map[string]bool{
	"then": true, "elif": true, "else": true, "fi": true,
	"do": true, "done": true, "esac": true,
}

// parseBlock parses statements until EOF or a structural stop-keyword is
// seen at the current position (left unconsumed for the caller).
func parseBlock(ts *tokStream) ([]Stmt, error) {
	var stmts []Stmt
	for {
		ts.skipSeparators()
		if ts.eof() || isClauseTerminator(ts) {
			return stmts, nil
		}
		if w := ts.peekWord(); w != "" && stopKeywords[w] {
			return stmts, nil
		}
		stmt, err := parseStatement(ts)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
}

func parseStatement(ts *tokStream) (Stmt, error) {
	switch {
	case ts.isKeyword("if"):
		return parseIf(ts)
	case ts.isKeyword("for"):
		return parseFor(ts)
	case ts.isKeyword("while"):
		return parseWhileUntil(ts, false)
	case ts.isKeyword("until"):
		return parseWhileUntil(ts, true)
	case ts.isKeyword("case"):
		return parseCase(ts)
	case ts.isKeyword("function"):
		return parseFunction(ts, true)
	case isFunctionHeader(ts.peekWord()):
		return parseFunction(ts, false)
	default:
		return parseCommandStmt(ts)
	}
}

func isFunctionHeader(word string) bool {
	return strings.HasSuffix(word, "()") && len(word) > 2
}

// collectRawUntil advances ts, collecting raw source text (by token byte
// offsets, so quoting is preserved for later re-expansion) until a
// top-level ";"/newline separator or one of stopWords is seen as the next
// bare word. Consumes the separator if present but not the stop word.
func collectRawUntil(ts *tokStream, stopWords ...string) string {
	start := -1
	end := -1
	for {
		t := ts.cur()
		if t == nil {
			break
		}
		if t.Kind == lexer.KindOperator && t.Text == ";;" {
			// clause terminator: left for parseCaseBody to consume
			break
		}
		if t.Kind == lexer.KindOperator && (t.Text == ";" || t.Text == "\n") {
			ts.pos++
			break
		}
		if t.Kind == lexer.KindWord && t.Quote == 0 {
			for _, sw := range stopWords {
				if t.Text == sw {
					goto done
				}
			}
		}
		if start < 0 {
			start = t.Start
		}
		end = t.End
		ts.pos++
	}
done:
	if start < 0 {
		return ""
	}
	return strings.TrimSpace(ts.src[start:end])
}

func parseCommandStmt(ts *tokStream) (Stmt, error) {
	line := collectRawUntil(ts, "then", "do", "done", "fi", "elif", "else", "esac")
	return Stmt{Kind: KindCommand, CommandLine: line}, nil
}

func parseIf(ts *tokStream) (Stmt, error) {
	ts.pos++ // "if"
	cond := collectRawUntil(ts, "then")
	if err := ts.consumeKeyword("then"); err != nil {
		return Stmt{}, err
	}
	body, err := parseBlock(ts)
	if err != nil {
		return Stmt{}, err
	}

	stmt := Stmt{Kind: KindIf, Cond: cond, Then: body}

	for ts.isKeyword("elif") {
		ts.pos++
		econd := collectRawUntil(ts, "then")
		if err := ts.consumeKeyword("then"); err != nil {
			return Stmt{}, err
		}
		ebody, err := parseBlock(ts)
		if err != nil {
			return Stmt{}, err
		}
		stmt.Elifs = append(stmt.Elifs, ElifClause{Cond: econd, Body: ebody})
	}

	if ts.isKeyword("else") {
		ts.pos++
		ebody, err := parseBlock(ts)
		if err != nil {
			return Stmt{}, err
		}
		stmt.Else = ebody
	}

	if err := ts.consumeKeyword("fi"); err != nil {
		return Stmt{}, err
	}
	return stmt, nil
}

func parseFor(ts *tokStream) (Stmt, error) {
	ts.pos++ // "for"
	varName := ts.peekWord()
	ts.pos++

	stmt := Stmt{Kind: KindFor, Var: varName}

	if ts.isKeyword("in") {
		ts.pos++
		for {
			t := ts.cur()
			if t == nil {
				break
			}
			if t.Kind == lexer.KindOperator && (t.Text == ";" || t.Text == "\n") {
				ts.pos++
				break
			}
			if t.Kind == lexer.KindWord {
				if t.Text == "do" && t.Quote == 0 {
					break
				}
				stmt.List = append(stmt.List, lexer.Unquote(t.Text))
			}
			ts.pos++
		}
		stmt.HasList = true
	} else {
		ts.skipSeparators()
	}

	if err := ts.consumeKeyword("do"); err != nil {
		return Stmt{}, err
	}
	body, err := parseBlock(ts)
	if err != nil {
		return Stmt{}, err
	}
	stmt.Body = body
	if err := ts.consumeKeyword("done"); err != nil {
		return Stmt{}, err
	}
	return stmt, nil
}

func parseWhileUntil(ts *tokStream, until bool) (Stmt, error) {
	ts.pos++ // "while"/"until"
	cond := collectRawUntil(ts, "do")
	if err := ts.consumeKeyword("do"); err != nil {
		return Stmt{}, err
	}
	body, err := parseBlock(ts)
	if err != nil {
		return Stmt{}, err
	}
	if err := ts.consumeKeyword("done"); err != nil {
		return Stmt{}, err
	}
	kind := KindWhile
	if until {
		kind = KindUntil
	}
	return Stmt{Kind: kind, Cond: cond, Body: body}, nil
}

func parseCase(ts *tokStream) (Stmt, error) {
	ts.pos++ // "case"
	word := ts.peekWord()
	if word == "" && ts.cur() != nil {
		word = lexer.Unquote(ts.cur().Text)
	}
	ts.pos++
	if err := ts.consumeKeyword("in"); err != nil {
		return Stmt{}, err
	}

	stmt := Stmt{Kind: KindCase, CaseWord: word}

	for {
		ts.skipSeparators()
		if ts.isKeyword("esac") || ts.eof() {
			break
		}

		var patterns []string
		for {
			t := ts.cur()
			if t == nil {
				break
			}
			if t.Kind == lexer.KindWord {
				txt := lexer.Unquote(t.Text)
				if strings.HasSuffix(t.Text, ")") {
					patterns = append(patterns, strings.TrimSuffix(txt, ")"))
					ts.pos++
					break
				}
				patterns = append(patterns, txt)
			}
			ts.pos++
			if t.Kind == lexer.KindOperator && t.Text == "|" {
				continue
			}
		}

		body, err := parseCaseBody(ts)
		if err != nil {
			return Stmt{}, err
		}
		stmt.CaseClauses = append(stmt.CaseClauses, CaseClause{Patterns: patterns, Body: body})
	}

	if err := ts.consumeKeyword("esac"); err != nil {
		return Stmt{}, err
	}
	return stmt, nil
}

// parseCaseBody collects statements until a ";;" clause terminator or
// "esac", consuming the terminator if present.
func parseCaseBody(ts *tokStream) ([]Stmt, error) {
	var stmts []Stmt
	for {
		ts.skipSeparators()
		if ts.isKeyword("esac") || ts.eof() {
			return stmts, nil
		}
		if isClauseTerminator(ts) {
			ts.pos++
			return stmts, nil
		}
		stmt, err := parseStatement(ts)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
}

func isClauseTerminator(ts *tokStream) bool {
	t := ts.cur()
	return t != nil && t.Kind == lexer.KindOperator && t.Text == ";;"
}

func parseFunction(ts *tokStream, keywordForm bool) (Stmt, error) {
	var name string
	if keywordForm {
		ts.pos++ // "function"
		name = ts.peekWord()
		ts.pos++
		if ts.isKeyword("()") {
			ts.pos++
		} else if strings.HasSuffix(name, "()") {
			name = strings.TrimSuffix(name, "()")
		}
	} else {
		name = strings.TrimSuffix(ts.peekWord(), "()")
		ts.pos++
	}

	// Brace body: "{" ... "}" (both appear as ordinary words since lexer
	// does not special-case braces).
	if ts.peekWord() == "{" {
		ts.pos++
	}
	body, err := parseBlockUntilBrace(ts)
	if err != nil {
		return Stmt{}, err
	}
	return Stmt{Kind: KindFunction, FuncName: name, FuncBody: body}, nil
}

func parseBlockUntilBrace(ts *tokStream) ([]Stmt, error) {
	var stmts []Stmt
	for {
		ts.skipSeparators()
		if ts.eof() || ts.peekWord() == "}" {
			if ts.peekWord() == "}" {
				ts.pos++
			}
			return stmts, nil
		}
		stmt, err := parseStatement(ts)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
}
