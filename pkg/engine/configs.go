package engine

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/sweeplabs/sweep/internal/cache"
	"github.com/sweeplabs/sweep/pkg/manifest"
	"gopkg.in/yaml.v3"
)

// configExtensions are file types parsed once per run into structured
// configuration entries consultable by the scanner.
var configExtensions = map[string]bool{
	".json": true,
	".yaml": true,
	".yml":  true,
}

// parseConfigs decodes every configuration artifact among the candidate
// files into a relative-path-keyed map. The manifest's own decoded document
// is always included. Content that fails to decode is left out: the file
// is then treated as opaque text by the scanner's raw-content steps.
func parseConfigs(root string, files []string, m *manifest.Manifest, reader *cache.FileReader) map[string]any {
	configs := make(map[string]any)

	if rel, err := filepath.Rel(root, m.Path); err == nil {
		configs[filepath.ToSlash(rel)] = m.Raw
	}

	for _, path := range files {
		base := filepath.Base(path)
		if !configExtensions[filepath.Ext(base)] && !isRunCommandFile(base) {
			continue
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			continue
		}
		key := filepath.ToSlash(rel)
		if _, ok := configs[key]; ok {
			continue
		}

		data, err := reader.Read(path)
		if err != nil {
			continue
		}

		var value any
		if err := json.Unmarshal(data, &value); err == nil {
			configs[key] = value
			continue
		}
		if err := yaml.Unmarshal(data, &value); err == nil {
			configs[key] = value
		}
	}

	return configs
}

// isRunCommandFile recognizes dotted rc files (.babelrc, .eslintrc, …)
// which carry JSON or YAML without a telling extension.
func isRunCommandFile(base string) bool {
	return strings.HasPrefix(base, ".") && strings.HasSuffix(base, "rc")
}
