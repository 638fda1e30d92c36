package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(t []Token) []string {
	out := make([]string, 0, len(t))
	for _, tok := range t {
		out = append(out, tok.Text)
	}
	return out
}

func TestTokenize_SimpleWords(t *testing.T) {
	toks, err := Tokenize("echo hello world")
	require.NoError(t, err)
	assert.Equal(t, []string{"echo", "hello", "world"}, words(toks))
}

func TestTokenize_SingleQuotesVerbatim(t *testing.T) {
	toks, err := Tokenize(`echo 'a\nb $x'`)
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, `'a\nb $x'`, toks[1].Text)
}

func TestTokenize_DoubleQuotesAllowEscapes(t *testing.T) {
	toks, err := Tokenize(`echo "a\"b"`)
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, `"a\"b"`, toks[1].Text)
}

func TestTokenize_UnmatchedSingleQuote(t *testing.T) {
	_, err := Tokenize("echo 'unterminated")
	require.Error(t, err)
}

func TestTokenize_UnmatchedDoubleQuote(t *testing.T) {
	_, err := Tokenize(`echo "unterminated`)
	require.Error(t, err)
}

func TestTokenize_TrailingBackslash(t *testing.T) {
	_, err := Tokenize(`echo \`)
	require.Error(t, err)
}

func TestTokenize_Operators(t *testing.T) {
	toks, err := Tokenize("a && b || c ; d | e &")
	require.NoError(t, err)
	var ops []string
	for _, tok := range toks {
		if tok.Kind == KindOperator {
			ops = append(ops, tok.Text)
		}
	}
	assert.Equal(t, []string{"&&", "||", ";", "|", "&"}, ops)
}

func TestUnquote(t *testing.T) {
	assert.Equal(t, "a\\nb $x", Unquote(`'a\nb $x'`))
	assert.Equal(t, `a"b`, Unquote(`"a\"b"`))
	assert.Equal(t, "bare", Unquote("bare"))
	assert.Equal(t, "a b", Unquote(`a\ b`))
}
