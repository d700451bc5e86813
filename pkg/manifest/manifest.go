// Package manifest loads and models npm package manifests and adjacent
// configuration artifacts consumed by the analysis engine.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Filename is the manifest file name searched for during root resolution.
const Filename = "package.json"

// Manifest is a parsed package.json. Only the sections the engine consumes
// are modeled; the full document is retained in Raw for substring scans.
type Manifest struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
	Scripts              map[string]string `json:"scripts"`
	Workspaces           Workspaces        `json:"workspaces"`

	// Raw holds the generically decoded document for recursive scans.
	Raw map[string]any `json:"-"`

	// Path is the absolute path the manifest was loaded from.
	Path string `json:"-"`
}

// Workspaces accepts both manifest forms: a flat glob array, or an object
// with a "packages" key. Both decode to the same glob list.
type Workspaces struct {
	Packages []string
}

// UnmarshalJSON implements the dual array/object decoding.
func (w *Workspaces) UnmarshalJSON(data []byte) error {
	var globs []string
	if err := json.Unmarshal(data, &globs); err == nil {
		w.Packages = globs
		return nil
	}

	var obj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("workspaces must be an array or an object with a packages key: %w", err)
	}
	w.Packages = obj.Packages
	return nil
}

// Load reads and parses a package.json file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data, path)
}

// Parse decodes manifest bytes. The path is recorded for later reference.
func Parse(data []byte, path string) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	m.Raw = raw
	m.Path = path

	return &m, nil
}

// AllDependencies returns every declared dependency name across all
// dependency sections, sorted and de-duplicated.
func (m *Manifest) AllDependencies() []string {
	set := make(map[string]struct{})
	for _, section := range []map[string]string{
		m.Dependencies,
		m.DevDependencies,
		m.PeerDependencies,
		m.OptionalDependencies,
	} {
		for name := range section {
			set[name] = struct{}{}
		}
	}

	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Declares reports whether a name appears in any dependency section.
func (m *Manifest) Declares(name string) bool {
	for _, section := range []map[string]string{
		m.Dependencies,
		m.DevDependencies,
		m.PeerDependencies,
		m.OptionalDependencies,
	} {
		if _, ok := section[name]; ok {
			return true
		}
	}
	return false
}

// dependencySections lists the manifest keys that declare dependencies.
// These are excluded from usage scans: a declaration is not a reference.
var dependencySections = map[string]bool{
	"dependencies":         true,
	"devDependencies":      true,
	"peerDependencies":     true,
	"optionalDependencies": true,
	"resolutions":          true,
	"overrides":            true,
}

// ContainsReference recursively scans the manifest document for the name
// appearing as a substring of any string value, skipping the dependency
// declaration sections themselves.
func (m *Manifest) ContainsReference(name string) bool {
	if m.Raw == nil {
		return false
	}
	for key, value := range m.Raw {
		if dependencySections[key] {
			continue
		}
		if ValueContains(value, name) {
			return true
		}
	}
	return false
}

// ValueContains recursively scans a decoded JSON/YAML value for the needle
// appearing as a substring of any string, map key, or nested value.
func ValueContains(value any, needle string) bool {
	switch v := value.(type) {
	case string:
		return contains(v, needle)
	case []any:
		for _, item := range v {
			if ValueContains(item, needle) {
				return true
			}
		}
	case map[string]any:
		for key, item := range v {
			if contains(key, needle) || ValueContains(item, needle) {
				return true
			}
		}
	}
	return false
}

func contains(haystack, needle string) bool {
	return needle != "" && strings.Contains(haystack, needle)
}
