package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_DefaultsToInteractiveMode(t *testing.T) {
	opts, err := Parse([]string{})
	require.NoError(t, err)
	assert.False(t, opts.Exec)
	assert.False(t, opts.Verbose)
}

func TestParse_VerboseFlag(t *testing.T) {
	opts, err := Parse([]string{"--verbose"})
	require.NoError(t, err)
	assert.True(t, opts.Verbose)
}

func TestParse_ExecJoinsRemainingArgsIntoOneLine(t *testing.T) {
	opts, err := Parse([]string{"exec", "echo", "hello", "world"})
	require.NoError(t, err)
	assert.True(t, opts.Exec)
	assert.Equal(t, "echo hello world", opts.ExecLine)
}

func TestParse_ExecWithoutCommandErrors(t *testing.T) {
	_, err := Parse([]string{"exec"})
	assert.Error(t, err)
}

func TestParse_ConfigFlag(t *testing.T) {
	opts, err := Parse([]string{"--config", "/tmp/krusty.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/krusty.yaml", opts.ConfigPath)
}

func TestPreprocessArgs_ExtractsExecSubcommand(t *testing.T) {
	sub, rest := PreprocessArgs([]string{"exec", "echo", "hi"})
	assert.Equal(t, "exec", sub)
	assert.Equal(t, []string{"echo", "hi"}, rest)
}

func TestPreprocessArgs_NoSubcommand(t *testing.T) {
	sub, rest := PreprocessArgs([]string{"--verbose"})
	assert.Equal(t, "", sub)
	assert.Equal(t, []string{"--verbose"}, rest)
}
