// Package scanner decides, per dependency and file, whether the file (or
// its associated configuration entry, or the build scripts) references the
// dependency. It combines syntax-tree analysis with literal and pattern
// fallbacks, and never lets a single malformed file abort the run.
package scanner

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/sweeplabs/sweep/pkg/manifest"
	"github.com/sweeplabs/sweep/pkg/parser"
	"github.com/sweeplabs/sweep/pkg/patterns"
)

// Context is the read-only project snapshot a scan runs against. It is
// built once per run and never mutated afterwards.
type Context struct {
	// Root is the analysis root directory.
	Root string
	// Manifest is the project manifest at the root.
	Manifest *manifest.Manifest
	// Scripts maps script name to command string, from the manifest.
	Scripts map[string]string
	// Configs maps manifest-relative paths of pre-parsed configuration
	// files to their decoded values. The manifest itself is included.
	Configs map[string]any
	// ReadFile reads file content, typically through the run's bounded
	// read cache. Defaults to os.ReadFile.
	ReadFile func(path string) ([]byte, error)
}

// Scanner answers per-(dependency, file) usage queries.
type Scanner struct {
	ctx *Context

	parsers sync.Pool

	mu        sync.Mutex
	dynamicRe map[string][]*regexp.Regexp
}

// New creates a scanner over a project context.
func New(ctx *Context) *Scanner {
	if ctx.ReadFile == nil {
		ctx.ReadFile = os.ReadFile
	}
	return &Scanner{
		ctx: ctx,
		parsers: sync.Pool{
			New: func() any { return parser.New() },
		},
		dynamicRe: make(map[string][]*regexp.Regexp),
	}
}

// Uses reports whether the dependency is referenced by the file, the
// file's configuration entry, or the build scripts. Checks run in order
// and short-circuit on the first match. Any read or parse error degrades
// to false for this file: partial information is strictly better than
// aborting the remaining scan.
func (s *Scanner) Uses(dep, filePath string) bool {
	// The manifest itself: recursive substring scan over string values,
	// excluding the dependency declaration sections, then the scripts
	// as whitespace-delimited tokens. These are the only checks that
	// apply to the manifest; falling through to the generic config scan
	// would let a dependency's own declaration count as usage.
	if s.ctx.Manifest != nil && filePath == s.ctx.Manifest.Path {
		return s.ctx.Manifest.ContainsReference(dep) || scriptsReference(s.ctx.Scripts, dep)
	}

	// Pre-parsed configuration entry for this file's relative path.
	if rel, err := filepath.Rel(s.ctx.Root, filePath); err == nil {
		if entry, ok := s.ctx.Configs[filepath.ToSlash(rel)]; ok {
			if configReferences(entry, dep) {
				return true
			}
		}
	}

	content, err := s.ctx.ReadFile(filePath)
	if err != nil || isBinary(content) {
		return false
	}

	// Fast literal pre-check. If no form of the name appears even as a
	// substring there is nothing to parse. This short-circuit is what
	// keeps repeated large-scale scans tractable.
	text := string(content)
	found := false
	for _, needle := range needles(dep) {
		if strings.Contains(text, needle) {
			found = true
			break
		}
	}
	if !found {
		return false
	}

	if s.matchesDynamicImport(dep, content) {
		return true
	}

	if s.matchesSyntaxTree(dep, filePath, content) {
		return true
	}

	// Raw-content fallback for tooling-family names. Applies on parse
	// failure and in addition to a successful parse: config-style files
	// reference webpack/babel/eslint-family packages by the name itself
	// or by derived names (<dep>-config, <dep>-loader, @scope/<dep>) in
	// places no import statement reaches.
	if patterns.IsToolingFamily(dep) && patterns.MatchAny(dep, content) {
		return true
	}

	return false
}

// matchesSyntaxTree parses the file and matches collected sightings
// against the dependency. Unsupported or unparseable files yield false.
func (s *Scanner) matchesSyntaxTree(dep, filePath string, content []byte) bool {
	lang := parser.DetectLanguage(filePath)
	if lang == parser.LangUnknown {
		return false
	}

	p := s.parsers.Get().(*parser.Parser)
	defer s.parsers.Put(p)

	result, err := p.Parse(content, lang, filePath)
	if err != nil {
		return false
	}

	for _, sighting := range parser.Sightings(result) {
		if MatchesDependency(sighting.Source, dep) {
			return true
		}
	}
	return false
}

// matchesDynamicImport tests the dynamic-import literal pattern:
// an import(...) call whose string-literal argument names the dependency,
// allowing subpath, scope and hyphen variation in the specifier.
func (s *Scanner) matchesDynamicImport(dep string, content []byte) bool {
	for _, re := range s.dynamicPatterns(dep) {
		if re.Match(content) {
			return true
		}
	}
	return false
}

func (s *Scanner) dynamicPatterns(dep string) []*regexp.Regexp {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res, ok := s.dynamicRe[dep]; ok {
		return res
	}

	var res []*regexp.Regexp
	for _, needle := range needles(dep) {
		expr := fmt.Sprintf("import\\s*\\(\\s*['\"`]%s(?:/[^'\"`]*)?['\"`]", regexp.QuoteMeta(needle))
		res = append(res, regexp.MustCompile(expr))
	}
	s.dynamicRe[dep] = res
	return res
}

// scriptsReference reports whether any build-script command contains the
// dependency name as a whitespace-delimited token. Tokens that are paths
// ending in the name (node_modules/.bin/<dep>) also count.
func scriptsReference(scripts map[string]string, dep string) bool {
	for _, command := range scripts {
		for _, token := range strings.Fields(command) {
			if token == dep || strings.HasPrefix(token, dep+"/") || strings.HasSuffix(token, "/"+dep) {
				return true
			}
		}
	}
	return false
}

// isBinary sniffs the head of already-read content for NUL bytes.
func isBinary(data []byte) bool {
	n := len(data)
	if n > 8192 {
		n = 8192
	}
	return bytes.IndexByte(data[:n], 0) >= 0
}

// configReferences matches a pre-parsed configuration entry: a string
// value containing the name, or a recursive substring scan over the
// decoded structure.
func configReferences(entry any, dep string) bool {
	if s, ok := entry.(string); ok {
		return strings.Contains(s, dep)
	}
	return manifest.ValueContains(entry, dep)
}
