package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// TSConfig models the slice of a TypeScript compiler configuration the
// engine consults for @types resolution.
type TSConfig struct {
	CompilerOptions struct {
		Types     []string `json:"types"`
		TypeRoots []string `json:"typeRoots"`
	} `json:"compilerOptions"`
}

// LoadTSConfig reads tsconfig.json from the project root. A missing or
// malformed file yields an empty config: the conservative default is
// "no types/typeRoots constraints".
func LoadTSConfig(root string) *TSConfig {
	data, err := os.ReadFile(filepath.Join(root, "tsconfig.json"))
	if err != nil {
		return &TSConfig{}
	}

	var cfg TSConfig
	if err := json.Unmarshal(stripJSONComments(data), &cfg); err != nil {
		return &TSConfig{}
	}
	return &cfg
}

// DeclaresType reports whether the config explicitly lists the un-prefixed
// package name under compilerOptions.types, or names it in a typeRoots entry.
func (c *TSConfig) DeclaresType(name string) bool {
	for _, t := range c.CompilerOptions.Types {
		if t == name {
			return true
		}
	}
	for _, root := range c.CompilerOptions.TypeRoots {
		if strings.Contains(root, name) {
			return true
		}
	}
	return false
}

var (
	lineCommentRe  = regexp.MustCompile(`(?m)^\s*//.*$`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	trailingComma  = regexp.MustCompile(`,(\s*[}\]])`)
)

// stripJSONComments makes tsconfig's JSONC dialect digestible by the
// standard JSON decoder. Comment markers inside string values are rare in
// real configs and are accepted as a lossy trade-off.
func stripJSONComments(data []byte) []byte {
	data = blockCommentRe.ReplaceAll(data, nil)
	data = lineCommentRe.ReplaceAll(data, nil)
	data = trailingComma.ReplaceAll(data, []byte("$1"))
	return data
}
