package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFindManifestWalksUpward(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "package.json", `{"name":"root"}`)

	nested := filepath.Join(tmpDir, "src", "components", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	found, err := FindManifest(nested)
	if err != nil {
		t.Fatalf("FindManifest() error: %v", err)
	}
	if found != filepath.Join(tmpDir, "package.json") {
		t.Errorf("FindManifest() = %q", found)
	}
}

func TestFindManifestNone(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := FindManifest(tmpDir)
	if !errors.Is(err, ErrNoManifest) {
		t.Errorf("FindManifest() error = %v, want ErrNoManifest", err)
	}
}

func TestResolveStandalone(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "app/package.json", `{"name":"app"}`)

	ws, err := Resolve(filepath.Join(tmpDir, "app"))
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if ws.Root != filepath.Join(tmpDir, "app", "package.json") {
		t.Errorf("Root = %q", ws.Root)
	}
	if len(ws.Packages) != 0 {
		t.Errorf("Packages = %v, want none", ws.Packages)
	}
}

func TestResolveWorkspaceMember(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "package.json", `{"name":"monorepo","workspaces":["packages/*"]}`)
	writeFile(t, tmpDir, "packages/app/package.json", `{"name":"app"}`)

	ws, err := Resolve(filepath.Join(tmpDir, "packages", "app"))
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if ws.Root != filepath.Join(tmpDir, "package.json") {
		t.Errorf("Root = %q, want monorepo root manifest", ws.Root)
	}
	if len(ws.Packages) != 1 || ws.Packages[0] != "packages/*" {
		t.Errorf("Packages = %v", ws.Packages)
	}
}

func TestResolveUnclaimedPackage(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "package.json", `{"name":"monorepo","workspaces":["packages/*"]}`)
	writeFile(t, tmpDir, "tools/scripts/package.json", `{"name":"scripts"}`)

	ws, err := Resolve(filepath.Join(tmpDir, "tools", "scripts"))
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if ws.Root != filepath.Join(tmpDir, "tools", "scripts", "package.json") {
		t.Errorf("Root = %q, want the unclaimed package's own manifest", ws.Root)
	}
}

func TestResolvePnpmWorkspace(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "package.json", `{"name":"monorepo"}`)
	writeFile(t, tmpDir, "pnpm-workspace.yaml", "packages:\n  - 'apps/*'\n")
	writeFile(t, tmpDir, "apps/web/package.json", `{"name":"web"}`)

	ws, err := Resolve(filepath.Join(tmpDir, "apps", "web"))
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if ws.Root != filepath.Join(tmpDir, "package.json") {
		t.Errorf("Root = %q, want pnpm workspace root", ws.Root)
	}
}

func TestMemberOf(t *testing.T) {
	tests := []struct {
		glob   string
		pkgDir string
		want   bool
	}{
		{"packages/*", "packages/app", true},
		{"packages/*", "packages/app/nested", true},
		{"packages/app/inner", "packages/app", true},
		{"packages/*", "apps/web", false},
		{"apps/**", "apps/web/site", true},
	}

	root := string(filepath.Separator) + "repo"
	for _, tt := range tests {
		got := memberOf(root, []string{tt.glob}, filepath.Join(root, filepath.FromSlash(tt.pkgDir)))
		if got != tt.want {
			t.Errorf("memberOf(%q, %q) = %v, want %v", tt.glob, tt.pkgDir, got, tt.want)
		}
	}
}
