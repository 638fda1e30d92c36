/*
 * Krusty - Interactive POSIX-inspired command shell
 * Copyright (c) 2025 Edilson Freitas
 * License: MIT
 */
package utils

import (
	"os"
	"path/filepath"
)

// Indirections over the os package so tests can mock the environment
// without touching the real filesystem.
var (
	osGetenv = os.Getenv
	osStat   = os.Stat
)

// GetUserShell returns the base name of the user's login shell (e.g. "bash",
// "zsh"), read from $SHELL. Called by the pipeline executor when it
// composes a pipefail pipeline; that path runs bash whatever this returns.
func GetUserShell() string {
	shell := osGetenv("SHELL")
	if shell == "" {
		return "sh"
	}
	return filepath.Base(shell)
}

// GetHomeDir returns the current user's home directory.
func GetHomeDir() (string, error) {
	return os.UserHomeDir()
}

// GetShellConfigFilePath returns the rc file conventionally sourced by
// shellName, or "" if unknown.
func GetShellConfigFilePath(shellName string) string {
	homeDir, err := GetHomeDir()
	if err != nil {
		return ""
	}

	switch shellName {
	case "zsh":
		return filepath.Join(homeDir, ".zshrc")
	case "bash":
		return filepath.Join(homeDir, ".bashrc")
	case "fish":
		return filepath.Join(homeDir, ".config", "fish", "config.fish")
	default:
		return ""
	}
}

// PathExists reports whether path exists on disk.
func PathExists(path string) bool {
	_, err := osStat(path)
	return err == nil
}
