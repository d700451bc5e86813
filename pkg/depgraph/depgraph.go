// Package depgraph builds the installed-package dependency graph and
// answers which top-level dependencies transitively require a package.
package depgraph

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sweeplabs/sweep/pkg/manifest"
)

// FileReader abstracts cached file reads so the graph builder shares the
// run's bounded read cache.
type FileReader interface {
	Read(path string) ([]byte, error)
}

type osReader struct{}

func (osReader) Read(path string) ([]byte, error) { return os.ReadFile(path) }

// Graph is the adjacency mapping of installed package name to the set of
// package names it declares as dependencies (regular, peer and optional).
// Built once per run and read-only afterwards.
type Graph struct {
	adjacency map[string]map[string]struct{}
	reverse   map[string]map[string]struct{}
	topLevel  map[string]struct{}
}

// Build enumerates node_modules under root, including one level of scoped
// namespace subdirectories, and reads each installed package's manifest.
// Packages with unreadable or malformed manifests are skipped; partial
// information beats aborting the run.
func Build(root string, topLevel []string, reader FileReader) *Graph {
	if reader == nil {
		reader = osReader{}
	}

	g := &Graph{
		adjacency: make(map[string]map[string]struct{}),
		reverse:   make(map[string]map[string]struct{}),
		topLevel:  make(map[string]struct{}, len(topLevel)),
	}
	for _, name := range topLevel {
		g.topLevel[name] = struct{}{}
	}

	modulesDir := filepath.Join(root, "node_modules")
	entries, err := os.ReadDir(modulesDir)
	if err != nil {
		return g
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		if strings.HasPrefix(name, "@") {
			scoped, err := os.ReadDir(filepath.Join(modulesDir, name))
			if err != nil {
				continue
			}
			for _, sub := range scoped {
				if sub.IsDir() {
					g.addPackage(modulesDir, name+"/"+sub.Name(), reader)
				}
			}
			continue
		}

		g.addPackage(modulesDir, name, reader)
	}

	return g
}

// addPackage reads one installed package's manifest into the adjacency map.
func (g *Graph) addPackage(modulesDir, name string, reader FileReader) {
	data, err := reader.Read(filepath.Join(modulesDir, filepath.FromSlash(name), manifest.Filename))
	if err != nil {
		return
	}
	m, err := manifest.Parse(data, name)
	if err != nil {
		return
	}

	deps := make(map[string]struct{})
	for _, section := range []map[string]string{
		m.Dependencies,
		m.PeerDependencies,
		m.OptionalDependencies,
	} {
		for dep := range section {
			deps[dep] = struct{}{}
		}
	}
	g.adjacency[name] = deps

	for dep := range deps {
		if g.reverse[dep] == nil {
			g.reverse[dep] = make(map[string]struct{})
		}
		g.reverse[dep][name] = struct{}{}
	}
}

// Installed reports whether a package is present in node_modules.
func (g *Graph) Installed(name string) bool {
	_, ok := g.adjacency[name]
	return ok
}

// DependenciesOf returns the declared dependencies of an installed package.
func (g *Graph) DependenciesOf(name string) []string {
	deps := g.adjacency[name]
	out := make([]string, 0, len(deps))
	for dep := range deps {
		out = append(out, dep)
	}
	sort.Strings(out)
	return out
}

// RequirersOf computes the set of top-level declared dependencies that
// transitively require target. Implemented as iterative breadth-first
// closure over reverse edges with a visited set, so cyclic installed-package
// graphs terminate and deep chains cannot grow the stack.
func (g *Graph) RequirersOf(target string) []string {
	visited := map[string]struct{}{target: {}}
	queue := []string{target}
	requirers := make(map[string]struct{})

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for parent := range g.reverse[current] {
			if _, seen := visited[parent]; seen {
				continue
			}
			visited[parent] = struct{}{}
			if _, top := g.topLevel[parent]; top {
				requirers[parent] = struct{}{}
			}
			queue = append(queue, parent)
		}
	}

	out := make([]string, 0, len(requirers))
	for name := range requirers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Size returns the number of installed packages in the graph.
func (g *Graph) Size() int {
	return len(g.adjacency)
}
