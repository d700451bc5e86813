// Package config loads sweep's own configuration file.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for sweep.
type Config struct {
	// Scan controls file enumeration and dependency filtering.
	Scan ScanConfig `koanf:"scan"`

	// Cache settings for the per-run memos.
	Cache CacheConfig `koanf:"cache"`

	// Batch settings for the concurrent scheduler.
	Batch BatchConfig `koanf:"batch"`

	// Output settings.
	Output OutputConfig `koanf:"output"`
}

// ScanConfig controls what gets analyzed.
type ScanConfig struct {
	// Ignore are glob patterns excluded from the file walk.
	Ignore []string `koanf:"ignore"`
	// Safe dependencies are never reported as unused.
	Safe []string `koanf:"safe"`
}

// CacheConfig bounds the usage and file-read memos.
type CacheConfig struct {
	MaxEntries int `koanf:"max_entries"`
	TTLMinutes int `koanf:"ttl_minutes"`
}

// BatchConfig tunes the scheduler.
type BatchConfig struct {
	MaxWorkers   int `koanf:"max_workers"`
	MinBatch     int `koanf:"min_batch"`
	MaxBatch     int `koanf:"max_batch"`
	HeapBudgetMB int `koanf:"heap_budget_mb"`
	CooldownSecs int `koanf:"cooldown_secs"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format"` // text, json, markdown, toon
	Color   bool   `koanf:"color"`
	Verbose bool   `koanf:"verbose"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			Ignore: nil,
			Safe:   nil,
		},
		Cache: CacheConfig{
			MaxEntries: 100_000,
			TTLMinutes: 30,
		},
		Batch: BatchConfig{
			MaxWorkers:   0, // 2x NumCPU
			MinBatch:     16,
			MaxBatch:     512,
			HeapBudgetMB: 512,
			CooldownSecs: 30,
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
	}
}

// Load loads configuration from a file, layered over the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault tries standard config locations or returns defaults.
func LoadOrDefault() *Config {
	configNames := []string{
		"sweep.toml",
		"sweep.yaml",
		"sweep.yml",
		"sweep.json",
		".sweep.toml",
		".sweep.yaml",
		".sweep.yml",
		".sweep.json",
	}

	for _, name := range configNames {
		if _, err := os.Stat(name); err == nil {
			if cfg, err := Load(name); err == nil {
				return cfg
			}
		}
	}

	return DefaultConfig()
}
