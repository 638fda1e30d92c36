package utils

import (
	"os"
	"testing"
)

func TestExpandPath(t *testing.T) {
	homeDir, _ := os.UserHomeDir()
	path, err := ExpandPath("~/test")
	if err != nil {
		t.Fatalf("error expanding path: %v", err)
	}
	if path != homeDir+"/test" {
		t.Errorf("path expanded incorrectly: %s", path)
	}
}

func TestExpandPath_Bare(t *testing.T) {
	homeDir, _ := os.UserHomeDir()
	path, err := ExpandPath("~")
	if err != nil {
		t.Fatalf("error expanding path: %v", err)
	}
	if path != homeDir {
		t.Errorf("expected home dir, got %s", path)
	}
}

func TestExpandPath_Unsupported(t *testing.T) {
	if _, err := ExpandPath("~otheruser/test"); err == nil {
		t.Error("expected error expanding ~username")
	}
}

func TestExpandPath_NoTilde(t *testing.T) {
	path, err := ExpandPath("relative/path")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "relative/path" {
		t.Errorf("path should be unchanged, got %s", path)
	}
}
