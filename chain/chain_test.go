package chain

import (
	"context"
	"testing"
	"time"

	"github.com/diillson/krusty/builtins"
	"github.com/diillson/krusty/expand"
	"github.com/diillson/krusty/pipeline"
	"github.com/diillson/krusty/shellstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChainState(t *testing.T) *shellstate.State {
	t.Helper()
	st, err := shellstate.New(map[string]string{"PATH": "/usr/bin:/bin"}, nil, "")
	require.NoError(t, err)
	return st
}

func newChainOptions() Options {
	return Options{
		Registry: builtins.NewRegistry(),
		Pipeline: pipeline.Options{Registry: builtins.NewRegistry(), Timeout: 5 * time.Second},
		ExpandContext: func(st *shellstate.State) *expand.Context {
			return &expand.Context{Environment: st.Environment, Caches: expand.NewCaches(32, 32, 32)}
		},
	}
}

func TestRun_AndOperatorRunsSecondOnSuccess(t *testing.T) {
	st := newChainState(t)
	res := Run(context.Background(), "export X=1 && export Y=2", st, newChainOptions())
	assert.Equal(t, 0, res.ExitCode)
	v, ok := st.Getenv("Y")
	assert.True(t, ok)
	assert.Equal(t, "2", v)
}

func TestRun_SemicolonRunsEveryStatement(t *testing.T) {
	st := newChainState(t)
	res := Run(context.Background(), "export A=1; export B=2", st, newChainOptions())
	assert.Equal(t, 0, res.ExitCode)
	_, aok := st.Getenv("A")
	_, bok := st.Getenv("B")
	assert.True(t, aok)
	assert.True(t, bok)
}

func TestRun_OrOperatorRunsSecondOnlyOnFailure(t *testing.T) {
	st := newChainState(t)
	res := Run(context.Background(), "cd /does/not/exist/at/all || export FALLBACK=1", st, newChainOptions())
	assert.Equal(t, 0, res.ExitCode)
	v, ok := st.Getenv("FALLBACK")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestIsControlFlow(t *testing.T) {
	assert.True(t, isControlFlow("if true; then echo hi; fi"))
	assert.True(t, isControlFlow("for x in a b; do echo $x; done"))
	assert.False(t, isControlFlow("iffy command"))
	assert.False(t, isControlFlow("echo hi"))
}

func TestRun_ControlFlowSegmentRoutesToScript(t *testing.T) {
	st := newChainState(t)
	res := Run(context.Background(), "if [ 1 -eq 1 ]; then export INSIDE=yes; fi", st, newChainOptions())
	assert.Equal(t, 0, res.ExitCode)
	v, ok := st.Getenv("INSIDE")
	assert.True(t, ok)
	assert.Equal(t, "yes", v)
}
