package fsreader

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Glob expands a doublestar pattern (supporting `**` recursive
// wildcards, unlike filepath.Glob) rooted at root, returning matches
// as absolute paths. Collection configs use this for per-user profile
// enumeration (e.g. "/Users/**/Library/Safari/History.db").
func Glob(root, pattern string) ([]string, error) {
	fsys := os.DirFS(root)
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, filepath.Join(root, m))
	}
	return out, nil
}

// Match reports whether name matches a doublestar pattern, used to
// apply collection-config include/exclude filters to a single path
// without a full directory walk.
func Match(pattern, name string) (bool, error) {
	return doublestar.Match(pattern, name)
}
