package depgraph

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// installPackage writes a minimal manifest for a fake installed package.
func installPackage(t *testing.T, root, name string, deps map[string]string) {
	t.Helper()
	dir := filepath.Join(root, "node_modules", filepath.FromSlash(name))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	doc := fmt.Sprintf("{%q: %q", "name", name)
	if len(deps) > 0 {
		doc += `, "dependencies": {`
		first := true
		for dep, ver := range deps {
			if !first {
				doc += ", "
			}
			doc += fmt.Sprintf("%q: %q", dep, ver)
			first = false
		}
		doc += "}"
	}
	doc += "}"

	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBuildAndRequirersOf(t *testing.T) {
	tmpDir := t.TempDir()
	// a -> b -> c: only a is a top-level dependency.
	installPackage(t, tmpDir, "a", map[string]string{"b": "1.0.0"})
	installPackage(t, tmpDir, "b", map[string]string{"c": "1.0.0"})
	installPackage(t, tmpDir, "c", nil)

	g := Build(tmpDir, []string{"a"}, nil)

	if g.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", g.Size())
	}
	if !g.Installed("a") || !g.Installed("c") {
		t.Error("Installed() should report enumerated packages")
	}

	got := g.RequirersOf("c")
	if len(got) != 1 || got[0] != "a" {
		t.Errorf("RequirersOf(c) = %v, want [a]", got)
	}

	if got := g.RequirersOf("a"); len(got) != 0 {
		t.Errorf("RequirersOf(a) = %v, want none", got)
	}
}

func TestRequirersOfMultipleTopLevel(t *testing.T) {
	tmpDir := t.TempDir()
	installPackage(t, tmpDir, "x", map[string]string{"shared": "1.0.0"})
	installPackage(t, tmpDir, "y", map[string]string{"shared": "1.0.0"})
	installPackage(t, tmpDir, "shared", nil)

	g := Build(tmpDir, []string{"x", "y"}, nil)

	got := g.RequirersOf("shared")
	if len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Errorf("RequirersOf(shared) = %v, want [x y]", got)
	}
}

func TestRequirersOfCycle(t *testing.T) {
	tmpDir := t.TempDir()
	installPackage(t, tmpDir, "a", map[string]string{"b": "1.0.0"})
	installPackage(t, tmpDir, "b", map[string]string{"a": "1.0.0", "leaf": "1.0.0"})
	installPackage(t, tmpDir, "leaf", nil)

	g := Build(tmpDir, []string{"a"}, nil)

	// Must terminate and still find a through the cycle.
	got := g.RequirersOf("leaf")
	if len(got) != 1 || got[0] != "a" {
		t.Errorf("RequirersOf(leaf) = %v, want [a]", got)
	}
}

func TestBuildScopedPackages(t *testing.T) {
	tmpDir := t.TempDir()
	installPackage(t, tmpDir, "@babel/core", map[string]string{"@babel/parser": "7.0.0"})
	installPackage(t, tmpDir, "@babel/parser", nil)

	g := Build(tmpDir, []string{"@babel/core"}, nil)

	if !g.Installed("@babel/core") || !g.Installed("@babel/parser") {
		t.Error("scoped packages should be enumerated")
	}
	got := g.RequirersOf("@babel/parser")
	if len(got) != 1 || got[0] != "@babel/core" {
		t.Errorf("RequirersOf(@babel/parser) = %v", got)
	}
}

func TestBuildSkipsMalformed(t *testing.T) {
	tmpDir := t.TempDir()
	installPackage(t, tmpDir, "good", nil)

	badDir := filepath.Join(tmpDir, "node_modules", "bad")
	if err := os.MkdirAll(badDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(badDir, "package.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	g := Build(tmpDir, []string{"good"}, nil)
	if !g.Installed("good") {
		t.Error("good package should be enumerated")
	}
	if g.Installed("bad") {
		t.Error("malformed package should be skipped, not fatal")
	}
}

func TestBuildNoNodeModules(t *testing.T) {
	g := Build(t.TempDir(), []string{"a"}, nil)
	if g.Size() != 0 {
		t.Errorf("Size() = %d for missing node_modules, want 0", g.Size())
	}
	if got := g.RequirersOf("a"); len(got) != 0 {
		t.Errorf("RequirersOf() on empty graph = %v", got)
	}
}

func TestDependenciesOf(t *testing.T) {
	tmpDir := t.TempDir()
	installPackage(t, tmpDir, "a", map[string]string{"z": "1", "b": "1"})

	g := Build(tmpDir, []string{"a"}, nil)
	got := g.DependenciesOf("a")
	if len(got) != 2 || got[0] != "b" || got[1] != "z" {
		t.Errorf("DependenciesOf(a) = %v, want sorted [b z]", got)
	}
}

func TestBasePackage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"@types/lodash", "lodash"},
		{"@types/node", "node"},
		{"@types/babel__core", "@babel/core"},
		{"@types/jest", "jest"},
	}

	for _, tt := range tests {
		if got := BasePackage(tt.in); got != tt.want {
			t.Errorf("BasePackage(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFrameworkRequirers(t *testing.T) {
	declared := func(name string) bool {
		return name == "react-scripts" || name == "vite"
	}

	got := FrameworkRequirers("webpack", declared)
	if len(got) != 1 || got[0] != "react-scripts" {
		t.Errorf("FrameworkRequirers(webpack) = %v, want [react-scripts]", got)
	}

	got = FrameworkRequirers("postcss", declared)
	if len(got) != 2 || got[0] != "react-scripts" || got[1] != "vite" {
		t.Errorf("FrameworkRequirers(postcss) = %v, want [react-scripts vite]", got)
	}

	if got := FrameworkRequirers("lodash", declared); len(got) != 0 {
		t.Errorf("FrameworkRequirers(lodash) = %v, want none", got)
	}
}
