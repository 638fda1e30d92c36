package runner

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/diillson/krusty/redirect"
	"github.com/diillson/krusty/shellerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_CapturesStdoutAndExitCode(t *testing.T) {
	res, err := Run(context.Background(), Options{
		Name: "echo",
		Args: []string{"hello"},
		Env:  os.Environ(),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello\n", res.Stdout)
}

func TestRun_NonZeroExit(t *testing.T) {
	res, err := Run(context.Background(), Options{
		Name: "sh",
		Args: []string{"-c", "exit 3"},
		Env:  os.Environ(),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
}

func TestRun_NotFound(t *testing.T) {
	_, err := Run(context.Background(), Options{
		Name: "krusty-no-such-binary-xyz",
		Env:  os.Environ(),
	})
	require.Error(t, err)
	assert.Equal(t, 127, shellerr.ExitCode(err))
}

func TestRun_Timeout(t *testing.T) {
	res, err := Run(context.Background(), Options{
		Name:       "sleep",
		Args:       []string{"5"},
		Env:        os.Environ(),
		Timeout:    50 * time.Millisecond,
		KillSignal: syscall.SIGTERM,
	})
	require.Error(t, err)
	assert.Equal(t, 124, res.ExitCode)
}

func TestRun_InputRedirectionFile(t *testing.T) {
	dir := t.TempDir()
	inFile := filepath.Join(dir, "in.txt")
	require.NoError(t, os.WriteFile(inFile, []byte("from-file\n"), 0o644))

	res, err := Run(context.Background(), Options{
		Name: "cat",
		Env:  os.Environ(),
		Redirections: []redirect.Redirection{
			{Kind: redirect.KindFile, Direction: redirect.DirInput, Target: inFile},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "from-file\n", res.Stdout)
}

func TestApplyOutputRedirections_TruncateAndAppend(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")

	err := ApplyOutputRedirections(Result{Stdout: "first\n"}, []redirect.Redirection{
		{Kind: redirect.KindFile, Direction: redirect.DirOutput, Target: out},
	})
	require.NoError(t, err)

	err = ApplyOutputRedirections(Result{Stdout: "second\n"}, []redirect.Redirection{
		{Kind: redirect.KindFile, Direction: redirect.DirAppend, Target: out},
	})
	require.NoError(t, err)

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(content))
}

func TestApplyOutputRedirections_CombinedStreamsAppendSentinel(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "combined.txt")

	err := ApplyOutputRedirections(Result{Stdout: "o\n", Stderr: "e\n"}, []redirect.Redirection{
		{Kind: redirect.KindFile, Direction: redirect.DirBoth, Target: "APPEND::" + out},
	})
	require.NoError(t, err)

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "o\ne\n", string(content))
}

func TestClearRedirected_BlanksConsumedStreams(t *testing.T) {
	res := Result{Stdout: "o", Stderr: "e"}

	cleared := ClearRedirected(res, []redirect.Redirection{
		{Kind: redirect.KindFile, Direction: redirect.DirBoth, Target: "f"},
	})
	assert.Equal(t, "", cleared.Stdout)
	assert.Equal(t, "", cleared.Stderr)

	merged := ClearRedirected(res, []redirect.Redirection{
		{Kind: redirect.KindFD, FD: 2, DupFD: 1},
	})
	assert.Equal(t, "oe", merged.Stdout)
	assert.Equal(t, "", merged.Stderr)
}
