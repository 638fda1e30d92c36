package utils

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withGetenv(t *testing.T, fn func(string) string) {
	original := osGetenv
	osGetenv = fn
	t.Cleanup(func() { osGetenv = original })
}

func TestGetUserShell(t *testing.T) {
	withGetenv(t, func(key string) string {
		if key == "SHELL" {
			return "/bin/zsh"
		}
		return ""
	})
	assert.Equal(t, "zsh", GetUserShell())
}

func TestGetUserShell_Unset(t *testing.T) {
	withGetenv(t, func(string) string { return "" })
	assert.Equal(t, "sh", GetUserShell())
}

func TestGetShellConfigFilePath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir available")
	}

	assert.Equal(t, home+"/.bashrc", GetShellConfigFilePath("bash"))
	assert.Equal(t, home+"/.zshrc", GetShellConfigFilePath("zsh"))
	assert.Equal(t, "", GetShellConfigFilePath("csh"))
}

func TestPathExists(t *testing.T) {
	assert.True(t, PathExists("shell_utils.go"))
	assert.False(t, PathExists("does-not-exist-xyz"))
}
