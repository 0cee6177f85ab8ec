// Package testutil provides shared test helpers for the martclean project.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// FindRepoRoot walks up from the current working directory to find
// the repository root (the directory containing go.mod).
func FindRepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("cannot get working directory: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find repository root (no go.mod found)")
		}
		dir = parent
	}
}

// WriteExport writes content as a BioMart export in a fresh temp directory
// and returns its path.
func WriteExport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mart_export.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write export: %v", err)
	}
	return path
}
