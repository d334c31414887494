// Package testutil holds filesystem helpers shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// Tree writes and inspects files below a base directory. Paths are
// slash-separated and relative to the base.
type Tree struct {
	t       *testing.T
	baseDir string
}

// NewTree returns a helper rooted at baseDir, creating it if needed.
func NewTree(t *testing.T, baseDir string) *Tree {
	t.Helper()
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		t.Fatalf("create %s: %v", baseDir, err)
	}
	return &Tree{t: t, baseDir: baseDir}
}

// Path returns the absolute path of rel.
func (tr *Tree) Path(rel string) string {
	return filepath.Join(tr.baseDir, filepath.FromSlash(rel))
}

// Write creates rel with content, including parent directories.
func (tr *Tree) Write(rel, content string) *Tree {
	tr.t.Helper()
	p := tr.Path(rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		tr.t.Fatalf("create parent of %s: %v", p, err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		tr.t.Fatalf("write %s: %v", p, err)
	}
	return tr
}

// Touch sets the modification time of rel.
func (tr *Tree) Touch(rel string, mtime time.Time) *Tree {
	tr.t.Helper()
	if err := os.Chtimes(tr.Path(rel), mtime, mtime); err != nil {
		tr.t.Fatalf("chtimes %s: %v", rel, err)
	}
	return tr
}

// ModTime returns the modification time of rel.
func (tr *Tree) ModTime(rel string) time.Time {
	tr.t.Helper()
	info, err := os.Stat(tr.Path(rel))
	if err != nil {
		tr.t.Fatalf("stat %s: %v", rel, err)
	}
	return info.ModTime()
}

// AssertFileExists validates that every listed file exists.
func (tr *Tree) AssertFileExists(rels ...string) *Tree {
	tr.t.Helper()
	for _, rel := range rels {
		if _, err := os.Stat(tr.Path(rel)); err != nil {
			tr.t.Errorf("Expected file to exist: %s", rel)
		}
	}
	return tr
}

// AssertFileContains validates that rel contains expected.
func (tr *Tree) AssertFileContains(rel, expected string) *Tree {
	tr.t.Helper()
	// #nosec G304 - test helper, paths are controlled by test code
	content, err := os.ReadFile(tr.Path(rel))
	if err != nil {
		tr.t.Errorf("Failed to read file %s: %v", rel, err)
		return tr
	}
	if !strings.Contains(string(content), expected) {
		tr.t.Errorf("Expected file %s to contain %q\nActual content:\n%s", rel, expected, content)
	}
	return tr
}

// AssertFileCount validates the number of regular files directly in rel.
func (tr *Tree) AssertFileCount(rel string, want int) *Tree {
	tr.t.Helper()
	entries, err := os.ReadDir(tr.Path(rel))
	if err != nil {
		tr.t.Errorf("Failed to read directory %s: %v", rel, err)
		return tr
	}
	n := 0
	for _, e := range entries {
		if e.Type().IsRegular() {
			n++
		}
	}
	if n != want {
		tr.t.Errorf("Expected %d files in %s, found %d", want, rel, n)
	}
	return tr
}
