package script

import (
	"context"
	"testing"

	"github.com/diillson/krusty/expand"
	"github.com/diillson/krusty/shellstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T) *shellstate.State {
	t.Helper()
	st, err := shellstate.New(map[string]string{}, nil, "")
	require.NoError(t, err)
	return st
}

func expandCtxFor(st *shellstate.State) *expand.Context {
	return &expand.Context{
		Environment: st.Environment,
		Caches:      expand.NewCaches(32, 32, 32),
	}
}

// fakeExec expands variables in the line (mimicking what chain.Run would
// do via the parser/expand pipeline) and reports exit codes from a canned
// table keyed by the original unexpanded line, standing in for chain.Run
// without importing it (script must not depend on chain).
func fakeExec(results map[string]int) func(ctx context.Context, line string, st *shellstate.State) StmtResult {
	return func(ctx context.Context, line string, st *shellstate.State) StmtResult {
		code, ok := results[line]
		if !ok {
			code = 0
		}
		words, err := expand.Expand(line, expandCtxFor(st))
		out := line
		if err == nil && len(words) > 0 {
			out = words[0]
			for _, w := range words[1:] {
				out += " " + w
			}
		}
		return StmtResult{Stdout: out + "\n", ExitCode: code}
	}
}

func TestPreprocess_StripsCommentsAndContinuations(t *testing.T) {
	out := Preprocess("echo hi # a comment\necho \\\ncontinued")
	assert.Equal(t, "echo hi \necho continued", out)
}

func TestPreprocess_KeepsHashInsideQuotes(t *testing.T) {
	out := Preprocess(`echo "not # a comment"`)
	assert.Equal(t, `echo "not # a comment"`, out)
}

func TestRun_IfTrueBranch(t *testing.T) {
	st := newTestState(t)
	out, _, code, err := Run(context.Background(), `if [ 1 -eq 1 ]; then echo yes; fi`, st, RunOptions{
		ExpandContext: expandCtxFor,
		ExecLine:      fakeExec(nil),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "echo yes\n", out)
}

func TestRun_IfFalseBranchElse(t *testing.T) {
	st := newTestState(t)
	out, _, _, err := Run(context.Background(), `if [ 1 -eq 2 ]; then echo yes; else echo no; fi`, st, RunOptions{
		ExpandContext: expandCtxFor,
		ExecLine:      fakeExec(nil),
	})
	require.NoError(t, err)
	assert.Equal(t, "echo no\n", out)
}

func TestRun_ForLoopOverList(t *testing.T) {
	st := newTestState(t)
	out, _, code, err := Run(context.Background(), `for f in a b c; do echo $f; done`, st, RunOptions{
		ExpandContext: expandCtxFor,
		ExecLine:      fakeExec(nil),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "echo a\necho b\necho c\n", out)
}

func TestRun_WhileLoopWithBreak(t *testing.T) {
	st := newTestState(t)
	st.Setenv("n", "0")
	out, _, _, err := Run(context.Background(), `while [ 1 -eq 1 ]; do echo loop; break; done`, st, RunOptions{
		ExpandContext: expandCtxFor,
		ExecLine:      fakeExec(nil),
	})
	require.NoError(t, err)
	assert.Equal(t, "echo loop\n", out)
}

func TestRun_UntilLoopStopsWhenConditionTrue(t *testing.T) {
	st := newTestState(t)
	out, _, _, err := Run(context.Background(), `until [ 1 -eq 1 ]; do echo never; done`, st, RunOptions{
		ExpandContext: expandCtxFor,
		ExecLine:      fakeExec(nil),
	})
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestRun_CaseMatchesPattern(t *testing.T) {
	st := newTestState(t)
	st.Setenv("x", "foo.txt")
	out, _, _, err := Run(context.Background(), `case $x in *.txt) echo text;; *.go) echo go;; esac`, st, RunOptions{
		ExpandContext: expandCtxFor,
		ExecLine:      fakeExec(nil),
	})
	require.NoError(t, err)
	assert.Equal(t, "echo text\n", out)
}

func TestRun_FunctionDefinitionAndCall(t *testing.T) {
	st := newTestState(t)
	out, _, code, err := Run(context.Background(), "greet() { echo hi; echo there; }\ngreet", st, RunOptions{
		ExpandContext: expandCtxFor,
		ExecLine:      fakeExec(nil),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "echo hi\necho there\n", out)
}

func TestRun_ErrexitAbortsList(t *testing.T) {
	st := newTestState(t)
	st.Errexit = true
	_, _, code, err := Run(context.Background(), "echo one; false; echo two", st, RunOptions{
		ExpandContext: expandCtxFor,
		ExecLine:      fakeExec(map[string]int{"false": 1}),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, code)
}

func TestEvalTest_StringEquality(t *testing.T) {
	in := newInterpreter(newTestState(t), RunOptions{ExpandContext: expandCtxFor})
	ok, err := in.evalTest(`"foo" = "foo"`)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvalTest_NumericComparison(t *testing.T) {
	in := newInterpreter(newTestState(t), RunOptions{ExpandContext: expandCtxFor})
	ok, err := in.evalTest("3 -lt 10")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvalTest_Negation(t *testing.T) {
	in := newInterpreter(newTestState(t), RunOptions{ExpandContext: expandCtxFor})
	ok, err := in.evalTest("! -z foo")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatchGlobPattern(t *testing.T) {
	assert.True(t, matchGlobPattern("*.txt", "a.txt"))
	assert.False(t, matchGlobPattern("*.go", "a.txt"))
	assert.True(t, matchGlobPattern("*", "anything"))
}

func TestRun_CaseSecondClauseMatches(t *testing.T) {
	st := newTestState(t)
	st.Setenv("x", "main.go")
	out, _, _, err := Run(context.Background(), `case $x in *.txt) echo text;; *.go) echo go;; esac`, st, RunOptions{
		ExpandContext: expandCtxFor,
		ExecLine:      fakeExec(nil),
	})
	require.NoError(t, err)
	assert.Equal(t, "echo go\n", out)
}
