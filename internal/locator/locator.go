// Package locator enumerates the candidate files of a project, excluding
// installed dependencies, build output, VCS metadata and binary content.
package locator

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// defaultSkipDirs are pruned without descending.
var defaultSkipDirs = map[string]bool{
	"node_modules":     true,
	"bower_components": true,
	".git":             true,
	".hg":              true,
	".svn":             true,
	"dist":             true,
	"build":            true,
	"out":              true,
	"coverage":         true,
	".next":            true,
	".nuxt":            true,
	".turbo":           true,
	".cache":           true,
}

// defaultSkipFiles are never candidates for usage evidence.
var defaultSkipFiles = map[string]bool{
	"package-lock.json":   true,
	"yarn.lock":           true,
	"pnpm-lock.yaml":      true,
	"bun.lockb":           true,
	"npm-shrinkwrap.json": true,
}

// binarySniffLen is how much of a file's head is inspected for NUL bytes.
const binarySniffLen = 8192

// Locator finds candidate files under a project root.
type Locator struct {
	ignoreGlobs []string
	matchers    []gitignore.Matcher
}

// New creates a locator with user-supplied ignore glob patterns.
func New(ignoreGlobs []string) *Locator {
	return &Locator{ignoreGlobs: ignoreGlobs}
}

// loadGitignore reads all .gitignore files beneath root so exclusion
// matches what the VCS would ignore. Failure to read patterns is not an
// error; exclusion just falls back to the defaults.
func (l *Locator) loadGitignore(root string) {
	fsys := osfs.New(root)
	if patterns, err := gitignore.ReadPatterns(fsys, nil); err == nil && len(patterns) > 0 {
		l.matchers = append(l.matchers, gitignore.NewMatcher(patterns))
	}
}

// isIgnored checks a relative path against gitignore matchers and the
// user-supplied ignore globs.
func (l *Locator) isIgnored(relPath string, isDir bool) bool {
	parts := strings.Split(relPath, string(filepath.Separator))
	for _, m := range l.matchers {
		if m.Match(parts, isDir) {
			return true
		}
	}

	slashPath := filepath.ToSlash(relPath)
	for _, glob := range l.ignoreGlobs {
		if ok, err := doublestar.Match(glob, slashPath); err == nil && ok {
			return true
		}
	}
	return false
}

// Collect walks the project root and returns the set of candidate file
// paths (absolute, order not significant). Unreadable subtrees are
// silently skipped; the walk itself never fails on per-entry errors.
func (l *Locator) Collect(root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	l.loadGitignore(absRoot)

	files := make([]string, 0, 1024)
	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, _ := filepath.Rel(absRoot, path)
		base := filepath.Base(path)

		if d.IsDir() {
			if path != absRoot && (defaultSkipDirs[base] || l.isIgnored(relPath, true)) {
				return filepath.SkipDir
			}
			return nil
		}

		if defaultSkipFiles[base] || strings.HasSuffix(base, ".log") {
			return nil
		}
		if l.isIgnored(relPath, false) {
			return nil
		}
		if isBinary(path) {
			return nil
		}

		files = append(files, path)
		return nil
	})

	return files, walkErr
}

// isBinary sniffs the head of a file for NUL bytes. Read errors count as
// binary: a file we cannot read contributes no usage evidence.
func isBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()

	buf := make([]byte, binarySniffLen)
	n, _ := f.Read(buf)
	return bytes.IndexByte(buf[:n], 0) >= 0
}

// IsBinaryContent reports whether already-read content looks binary.
func IsBinaryContent(data []byte) bool {
	n := len(data)
	if n > binarySniffLen {
		n = binarySniffLen
	}
	return bytes.IndexByte(data[:n], 0) >= 0
}
