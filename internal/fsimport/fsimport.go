// Package fsimport resolves the on-disk file sets schema assembly
// needs: the single file an `import { ... } from "./x.teo"` statement
// names, and the glob-matched tree an extra schema root contributes.
// Doublestar glob matching with a basename fallback, collected into a
// sorted file list before parsing starts.
package fsimport

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ResolveImport joins an import statement's literal path against the
// importing file's directory and returns the absolute, cleaned path.
// Schema imports are always relative; there is no module-search-path
// concept.
func ResolveImport(fromFile, importPath string) string {
	dir := filepath.Dir(fromFile)
	joined := filepath.Join(dir, importPath)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return filepath.Clean(joined)
	}
	return abs
}

// Exists reports whether path names a regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// FindSchemaFiles walks root and returns every file matching pattern
// (doublestar syntax, e.g. "**/*.teo"), sorted for deterministic
// resolution order. An empty pattern defaults to "**/*.teo".
func FindSchemaFiles(root, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "**/*.teo"
	}
	fsys := os.DirFS(root)
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, filepath.Join(root, filepath.FromSlash(m)))
	}
	sort.Strings(out)
	return out, nil
}

// MatchPattern reports whether path satisfies pattern, trying a direct
// doublestar path match first and falling back to a basename-only match
// for patterns with no path separators, so bare-name globs like
// "*.teo" match anywhere in the tree.
func MatchPattern(path, pattern string) bool {
	if matched, err := doublestar.PathMatch(pattern, path); err == nil && matched {
		return true
	}
	if !strings.Contains(pattern, "/") {
		if matched, err := doublestar.PathMatch(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
	}
	return false
}

// FilterFiles keeps every path matching at least one include pattern (or
// all paths, when includes is empty) and none of the exclude patterns.
func FilterFiles(paths []string, includes, excludes []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if len(includes) > 0 && !matchesAny(p, includes) {
			continue
		}
		if matchesAny(p, excludes) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesAny(path string, patterns []string) bool {
	for _, pat := range patterns {
		if MatchPattern(path, pat) {
			return true
		}
	}
	return false
}
