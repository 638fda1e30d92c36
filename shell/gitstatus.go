package shell

import (
	"strings"

	"github.com/diillson/krusty/utils"
)

// gitExec is swappable so tests can fake git output.
var gitExec utils.CommandExecutor = utils.OSCommandExecutor{}

// gitStatus reports the current branch and whether the working tree has
// uncommitted changes, for the prompt's git segment.
// Returns ("", false) outside a git repository or if git isn't installed.
func gitStatus(dir string) (branch string, dirty bool) {
	out, err := runGit(dir, "rev-parse", "--is-inside-work-tree")
	if err != nil || strings.TrimSpace(out) != "true" {
		return "", false
	}

	branchOut, err := runGit(dir, "branch", "--show-current")
	if err != nil {
		return "", false
	}
	branch = strings.TrimSpace(branchOut)

	statusOut, err := runGit(dir, "status", "--porcelain")
	if err == nil && strings.TrimSpace(statusOut) != "" {
		dirty = true
	}
	return branch, dirty
}

func runGit(dir string, args ...string) (string, error) {
	out, err := gitExec.Output(dir, "git", args...)
	return string(out), err
}
