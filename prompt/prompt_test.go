package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefault_RenderCollapsesHomeToTilde(t *testing.T) {
	r := Default{}
	out := r.Render(State{Cwd: "/home/alice/projects", Home: "/home/alice"})
	assert.Contains(t, out, "~/projects")
}

func TestDefault_RenderShowsGitBranchWhenPresent(t *testing.T) {
	r := Default{}
	out := r.Render(State{Cwd: "/tmp", GitBranch: "main", GitDirty: true})
	assert.Contains(t, out, "main*")
}

func TestDefault_RenderRightEmptyWithoutDuration(t *testing.T) {
	r := Default{}
	assert.Equal(t, "", r.RenderRight(State{}))
}

func TestDefault_RenderRightShowsDuration(t *testing.T) {
	r := Default{}
	out := r.RenderRight(State{LastDuration: 42})
	assert.Contains(t, out, "42ms")
}

func TestColorize_WrapsWithIgnoreMarkers(t *testing.T) {
	out := Colorize("x", "\033[32m")
	assert.True(t, strings.HasPrefix(out, IgnoreStart))
	assert.Contains(t, out, "x")
}
