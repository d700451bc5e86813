// Package workspace resolves the effective analysis root for a project,
// accounting for monorepo workspace membership.
package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sweeplabs/sweep/pkg/manifest"
	"gopkg.in/yaml.v3"
)

// ErrNoManifest is returned when no package.json is discoverable between
// the starting directory and the filesystem root. This is fatal: analysis
// cannot proceed without a manifest.
var ErrNoManifest = errors.New("no package.json found in this directory or any parent")

// Info describes a resolved workspace during root resolution.
type Info struct {
	// Root is the path of the manifest chosen as the analysis root.
	Root string
	// Packages is the workspace glob list declared by the root manifest,
	// empty when the project is not part of a workspace.
	Packages []string
}

// FindManifest walks upward from start searching for a package.json.
func FindManifest(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, manifest.Filename)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoManifest
		}
		dir = parent
	}
}

// Resolve locates the nearest manifest from start, then checks every
// ancestor directory for a workspace declaration that claims it. When an
// ancestor's workspace globs cover the found manifest's directory, the
// ancestor manifest becomes the analysis root.
//
// Workspace resolution failures are recoverable: a manifest that cannot be
// parsed is treated as "not a workspace root".
func Resolve(start string) (*Info, error) {
	found, err := FindManifest(start)
	if err != nil {
		return nil, err
	}

	foundDir := filepath.Dir(found)
	for dir := filepath.Dir(foundDir); ; dir = filepath.Dir(dir) {
		globs := workspaceGlobs(dir)
		if len(globs) > 0 && memberOf(dir, globs, foundDir) {
			return &Info{
				Root:     filepath.Join(dir, manifest.Filename),
				Packages: globs,
			}, nil
		}
		if filepath.Dir(dir) == dir {
			break
		}
	}

	return &Info{Root: found}, nil
}

// workspaceGlobs returns the workspace glob entries declared in dir, from
// package.json workspaces (array or {packages} object) or pnpm-workspace.yaml.
func workspaceGlobs(dir string) []string {
	if m, err := manifest.Load(filepath.Join(dir, manifest.Filename)); err == nil {
		if len(m.Workspaces.Packages) > 0 {
			return m.Workspaces.Packages
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "pnpm-workspace.yaml"))
	if err != nil {
		return nil
	}
	var pnpm struct {
		Packages []string `yaml:"packages"`
	}
	if err := yaml.Unmarshal(data, &pnpm); err != nil {
		return nil
	}
	return pnpm.Packages
}

// memberOf reports whether pkgDir is claimed by any workspace glob rooted
// at root. Matching is by glob expansion plus path-prefix containment in
// either direction, so "packages/*" claims both packages/app and deeper
// directories beneath it.
func memberOf(root string, globs []string, pkgDir string) bool {
	rel, err := filepath.Rel(root, pkgDir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)

	for _, glob := range globs {
		glob = strings.TrimSuffix(filepath.ToSlash(glob), "/")
		if glob == "" {
			continue
		}
		if ok, err := doublestar.Match(glob, rel); err == nil && ok {
			return true
		}
		// Prefix containment both ways: a glob for packages/app/inner
		// claims packages/app, and packages/* claims packages/app/sub.
		prefix := glob
		if i := strings.IndexAny(prefix, "*?["); i >= 0 {
			prefix = prefix[:i]
		}
		prefix = strings.TrimSuffix(prefix, "/")
		if prefix == "" {
			continue
		}
		if strings.HasPrefix(rel+"/", prefix+"/") || strings.HasPrefix(prefix+"/", rel+"/") {
			return true
		}
	}
	return false
}
