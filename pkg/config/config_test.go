package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 100_000, cfg.Cache.MaxEntries)
	assert.Equal(t, 30, cfg.Cache.TTLMinutes)
	assert.Equal(t, 16, cfg.Batch.MinBatch)
	assert.Equal(t, 512, cfg.Batch.MaxBatch)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.True(t, cfg.Output.Color)
}

func TestLoadTOML(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "sweep.toml")
	doc := `
[scan]
ignore = ["**/*.stories.tsx"]
safe = ["typescript"]

[batch]
max_workers = 8

[output]
format = "json"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"**/*.stories.tsx"}, cfg.Scan.Ignore)
	assert.Equal(t, []string{"typescript"}, cfg.Scan.Safe)
	assert.Equal(t, 8, cfg.Batch.MaxWorkers)
	assert.Equal(t, "json", cfg.Output.Format)

	// Unset sections keep their defaults.
	assert.Equal(t, 100_000, cfg.Cache.MaxEntries)
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "sweep.yaml")
	doc := `
scan:
  safe:
    - prettier
cache:
  ttl_minutes: 5
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"prettier"}, cfg.Scan.Safe)
	assert.Equal(t, 5, cfg.Cache.TTLMinutes)
}

func TestLoadJSON(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "sweep.json")
	doc := `{"output": {"format": "toon", "verbose": true}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "toon", cfg.Output.Format)
	assert.True(t, cfg.Output.Verbose)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestLoadOrDefaultFallsBack(t *testing.T) {
	tmpDir := t.TempDir()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmpDir))
	defer os.Chdir(orig)

	cfg := LoadOrDefault()
	assert.Equal(t, 100_000, cfg.Cache.MaxEntries)
}

func TestLoadOrDefaultFindsLocalFile(t *testing.T) {
	tmpDir := t.TempDir()
	doc := "[cache]\nmax_entries = 42\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "sweep.toml"), []byte(doc), 0o644))

	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmpDir))
	defer os.Chdir(orig)

	cfg := LoadOrDefault()
	assert.Equal(t, 42, cfg.Cache.MaxEntries)
}
