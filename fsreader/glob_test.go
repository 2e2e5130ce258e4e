package fsreader

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGlobRecursive(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "a", "b"), 0o755); err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(dir, "a", "b", "History.db")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	matches, err := Glob(dir, "**/History.db")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0] != target {
		t.Fatalf("matches = %v, want [%s]", matches, target)
	}
}

func TestMatch(t *testing.T) {
	ok, err := Match("**/*.sqlite", "Users/bob/Library/foo.sqlite")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected match")
	}
}
