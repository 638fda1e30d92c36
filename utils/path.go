/*
 * Krusty - Interactive POSIX-inspired command shell
 * Copyright (c) 2025 Edilson Freitas
 * License: MIT
 */
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands a leading '~' into the current user's home directory.
// Paths not starting with '~' are returned unchanged. Expansion of
// "~username" (a different user's home) is not supported.
//
// Used by the `cd`/`pushd`/`bookmark` builtins.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}

	if len(path) == 1 {
		return home, nil
	}

	// Accept both '/' and the platform separator so "~/.krusty" works on
	// Windows, where filepath.Separator is '\'.
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(home, path[2:]), nil
	}

	return "", fmt.Errorf("expansion of ~username is not supported, only ~ for the current user")
}
