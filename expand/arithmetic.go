package expand

import (
	"fmt"
	"strconv"
	"strings"
)

// expandArithmetic handles $(( expr )): an
// integer-only evaluator supporting + - * / % ( ), hex/octal literals,
// and variable lookup, backed by a bounded LRU cache keyed on the
// rendered expression text plus the variables it could see.
func expandArithmetic(segment string, ctx *Context) (string, error) {
	var out strings.Builder
	i := 0
	n := len(segment)

	for i < n {
		if strings.HasPrefix(segment[i:], "$((") {
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
			if depth != 0 {
				out.WriteString(segment[i:])
				i = n
				break
			}
			expr := segment[i+3 : j-2]
			result, err := evalArithmeticCached(expr, ctx)
			if err != nil {
				return "", err
			}
			out.WriteString(strconv.FormatInt(result, 10))
			i = j
			continue
		}
		out.WriteByte(segment[i])
		i++
	}
	return out.String(), nil
}

func evalArithmeticCached(expr string, ctx *Context) (int64, error) {
	cacheKey := expr + "\x00" + envFingerprint(ctx)
	if ctx.Caches != nil {
		if cached, ok := ctx.Caches.Arithmetic(cacheKey); ok {
			n, err := strconv.ParseInt(cached, 10, 64)
			if err == nil {
				return n, nil
			}
		}
	}

	v, err := EvalArithmetic(expr, ctx)
	if err != nil {
		return 0, err
	}
	if ctx.Caches != nil {
		ctx.Caches.PutArithmetic(cacheKey, strconv.FormatInt(v, 10))
	}
	return v, nil
}

func envFingerprint(ctx *Context) string {
	var b strings.Builder
	for k, v := range ctx.Environment {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v)
		b.WriteByte(';')
	}
	return b.String()
}

// EvalArithmetic parses and evaluates a POSIX-style integer expression,
// looking up bare identifiers as shell variables (defaulting to 0 when
// unset, per arithmetic-context convention).
func EvalArithmetic(expr string, ctx *Context) (int64, error) {
	p := &arithParser{input: expr, ctx: ctx}
	p.skipSpace()
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return 0, fmt.Errorf("krusty: arithmetic syntax error near %q", p.input[p.pos:])
	}
	return v, nil
}

type arithParser struct {
	input string
	pos   int
	ctx   *Context
}

func (p *arithParser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *arithParser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

// parseExpr handles + and - (lowest precedence).
func (p *arithParser) parseExpr() (int64, error) {
	v, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		c := p.peek()
		if c != '+' && c != '-' {
			return v, nil
		}
		p.pos++
		rhs, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if c == '+' {
			v += rhs
		} else {
			v -= rhs
		}
	}
}

// parseTerm handles * / % (higher precedence than +/-).
func (p *arithParser) parseTerm() (int64, error) {
	v, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		c := p.peek()
		if c != '*' && c != '/' && c != '%' {
			return v, nil
		}
		p.pos++
		rhs, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		switch c {
		case '*':
			v *= rhs
		case '/':
			if rhs == 0 {
				return 0, fmt.Errorf("krusty: arithmetic division by zero")
			}
			v /= rhs
		case '%':
			if rhs == 0 {
				return 0, fmt.Errorf("krusty: arithmetic division by zero")
			}
			v %= rhs
		}
	}
}

func (p *arithParser) parseUnary() (int64, error) {
	p.skipSpace()
	if p.peek() == '-' {
		p.pos++
		v, err := p.parseUnary()
		return -v, err
	}
	if p.peek() == '+' {
		p.pos++
		return p.parseUnary()
	}
	return p.parsePrimary()
}

func (p *arithParser) parsePrimary() (int64, error) {
	p.skipSpace()
	if p.peek() == '(' {
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return 0, fmt.Errorf("krusty: arithmetic expected ')'")
		}
		p.pos++
		return v, nil
	}

	if isDigit(p.peek()) {
		return p.parseNumber()
	}

	if isNameStart(p.peek()) {
		start := p.pos
		for p.pos < len(p.input) && isNameByte(p.input[p.pos]) {
			p.pos++
		}
		name := p.input[start:p.pos]
		val, ok := p.ctx.Getenv(name)
		if !ok || val == "" {
			return 0, nil
		}
		n, err := strconv.ParseInt(strings.TrimSpace(val), 0, 64)
		if err != nil {
			return 0, fmt.Errorf("krusty: %s: not a valid integer in arithmetic context", name)
		}
		return n, nil
	}

	return 0, fmt.Errorf("krusty: arithmetic syntax error near %q", p.input[p.pos:])
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (p *arithParser) parseNumber() (int64, error) {
	start := p.pos
	if p.peek() == '0' && p.pos+1 < len(p.input) && (p.input[p.pos+1] == 'x' || p.input[p.pos+1] == 'X') {
		p.pos += 2
		for p.pos < len(p.input) && isHexDigit(p.input[p.pos]) {
			p.pos++
		}
		return strconv.ParseInt(p.input[start:p.pos], 0, 64)
	}
	if p.peek() == '0' && p.pos+1 < len(p.input) && isDigit(p.input[p.pos+1]) {
		p.pos++
		for p.pos < len(p.input) && isDigit(p.input[p.pos]) {
			p.pos++
		}
		return strconv.ParseInt(p.input[start:p.pos], 8, 64)
	}
	for p.pos < len(p.input) && isDigit(p.input[p.pos]) {
		p.pos++
	}
	return strconv.ParseInt(p.input[start:p.pos], 10, 64)
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
