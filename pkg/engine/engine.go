// Package engine orchestrates the unused-dependency analysis: it resolves
// the project root, locates candidate files, scans every declared
// dependency for usage evidence, consults the installed-package graph for
// transitive reliance, and computes the final unused set.
package engine

import (
	"context"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sweeplabs/sweep/internal/batch"
	"github.com/sweeplabs/sweep/internal/cache"
	"github.com/sweeplabs/sweep/internal/locator"
	"github.com/sweeplabs/sweep/pkg/depgraph"
	"github.com/sweeplabs/sweep/pkg/manifest"
	"github.com/sweeplabs/sweep/pkg/scanner"
	"github.com/sweeplabs/sweep/pkg/workspace"
)

// State tracks a dependency through the analysis pipeline.
type State string

const (
	StatePending         State = "pending"
	StateScanning        State = "scanning_files"
	StateUsed            State = "used"
	StateUnusedCandidate State = "unused_candidate"
)

// DependencyRecord holds everything the engine learned about one declared
// dependency. A record with usage evidence in files or requiring packages
// is never reported as unused.
type DependencyRecord struct {
	Name                  string
	UsedInFiles           map[string]struct{}
	RequiredByPackages    map[string]struct{}
	HasSubDependencyUsage bool
	State                 State
}

// UsedFiles returns the files with usage evidence, sorted for stable output.
func (r *DependencyRecord) UsedFiles() []string {
	files := make([]string, 0, len(r.UsedInFiles))
	for f := range r.UsedInFiles {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Requirers returns the requiring packages, sorted for stable output.
func (r *DependencyRecord) Requirers() []string {
	pkgs := make([]string, 0, len(r.RequiredByPackages))
	for p := range r.RequiredByPackages {
		pkgs = append(pkgs, p)
	}
	sort.Strings(pkgs)
	return pkgs
}

// Options configures an analysis run.
type Options struct {
	// IgnoreGlobs are user-supplied glob patterns excluded from the scan.
	IgnoreGlobs []string
	// SafeDependencies are excluded from the final unused report
	// regardless of engine findings. They do not affect closure: internal
	// usage facts stay accurate.
	SafeDependencies []string
	// Batch overrides the scheduler defaults when non-zero.
	Batch batch.Options
	// CacheSize bounds the per-(dependency, file) usage memo.
	CacheSize int
	// CacheTTL bounds usage memo entry lifetime.
	CacheTTL time.Duration
	// OnScanStart, when set, receives the total number of
	// (dependency, file) scans before scanning begins.
	OnScanStart func(total int)
	// OnProgress, when set, is called once per (dependency, file) scan.
	OnProgress func()
}

// Diagnostics are advisory timing and cache statistics. They never affect
// correctness.
type Diagnostics struct {
	FilesScanned      int           `json:"files_scanned"`
	InstalledPackages int           `json:"installed_packages"`
	ScanDuration      time.Duration `json:"scan_duration"`
	GraphDuration     time.Duration `json:"graph_duration"`
	UsageCache        cache.Stats   `json:"usage_cache"`
	FileCache         cache.Stats   `json:"file_cache"`
}

// Result is the outcome of one analysis run.
type Result struct {
	Root        string
	Records     map[string]*DependencyRecord
	Unused      []string
	Diagnostics Diagnostics
}

// Engine runs the analysis. Caches are constructed per engine and passed
// by reference to every component; a fresh run starts cold.
type Engine struct {
	opts  Options
	sched *batch.Scheduler
	usage *cache.Cache[bool]
	files *cache.FileReader
}

// New creates an engine with per-run caches wired into the scheduler's
// memory-pressure hooks.
func New(opts Options) *Engine {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 100_000
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Minute
	}

	e := &Engine{
		opts:  opts,
		sched: batch.New(opts.Batch),
		usage: cache.New[bool](opts.CacheSize, opts.CacheTTL),
		files: cache.NewFileReader(4096, opts.CacheTTL),
	}
	e.sched.OnPressure(e.usage.Clear)
	e.sched.OnPressure(e.files.Clear)
	return e
}

// Analyze runs the full pipeline starting from startDir. The only fatal
// error is an undiscoverable manifest; everything else degrades to partial
// information.
func (e *Engine) Analyze(ctx context.Context, startDir string) (*Result, error) {
	ws, err := workspace.Resolve(startDir)
	if err != nil {
		return nil, err
	}

	m, err := manifest.Load(ws.Root)
	if err != nil {
		return nil, err
	}
	root := filepath.Dir(ws.Root)
	declared := m.AllDependencies()

	loc := locator.New(e.opts.IgnoreGlobs)
	files, err := loc.Collect(root)
	if err != nil {
		return nil, err
	}

	graphStart := time.Now()
	graph := depgraph.Build(root, declared, e.files)
	graphDuration := time.Since(graphStart)

	tsconfig := manifest.LoadTSConfig(root)
	configs := parseConfigs(root, files, m, e.files)

	scn := scanner.New(&scanner.Context{
		Root:     root,
		Manifest: m,
		Scripts:  m.Scripts,
		Configs:  configs,
		ReadFile: e.files.Read,
	})

	records := make(map[string]*DependencyRecord, len(declared))
	for _, dep := range declared {
		records[dep] = &DependencyRecord{
			Name:               dep,
			UsedInFiles:        make(map[string]struct{}),
			RequiredByPackages: make(map[string]struct{}),
			State:              StatePending,
		}
	}

	// The manifest and pre-parsed config files keep path-based memo keys;
	// their verdicts depend on the file's role in the project, not only
	// on its bytes.
	pathKeyed := map[string]struct{}{m.Path: {}}
	for rel := range configs {
		pathKeyed[filepath.Join(root, filepath.FromSlash(rel))] = struct{}{}
	}

	if e.opts.OnScanStart != nil {
		e.opts.OnScanStart(len(declared) * len(files))
	}

	scanStart := time.Now()
	for _, dep := range declared {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		record := records[dep]
		record.State = StateScanning
		e.scanDependency(ctx, scn, dep, files, pathKeyed, record)

		for _, requirer := range graph.RequirersOf(dep) {
			record.RequiredByPackages[requirer] = struct{}{}
		}
		for _, core := range depgraph.FrameworkRequirers(dep, m.Declares) {
			record.RequiredByPackages[core] = struct{}{}
		}

		// @types packages are used when the type-system configuration
		// explicitly lists the un-prefixed name.
		if base := typesBase(dep); base != "" && tsconfig.DeclaresType(base) {
			record.UsedInFiles[filepath.Join(root, "tsconfig.json")] = struct{}{}
		}

		if len(record.UsedInFiles) > 0 {
			record.State = StateUsed
		} else {
			record.State = StateUnusedCandidate
		}
	}
	scanDuration := time.Since(scanStart)

	unused := e.computeUnused(records)

	return &Result{
		Root:    root,
		Records: records,
		Unused:  unused,
		Diagnostics: Diagnostics{
			FilesScanned:      len(files),
			InstalledPackages: graph.Size(),
			ScanDuration:      scanDuration,
			GraphDuration:     graphDuration,
			UsageCache:        e.usage.Stats(),
			FileCache:         e.files.Stats(),
		},
	}, nil
}

// scanDependency asks the scanner about every file, memoizing per
// (dependency, file) verdicts. The set of used files is independent of
// batch ordering or concurrency degree.
func (e *Engine) scanDependency(ctx context.Context, scn *scanner.Scanner, dep string, files []string, pathKeyed map[string]struct{}, record *DependencyRecord) {
	var mu sync.Mutex

	e.sched.ForEach(ctx, files, func(path string) {
		used := e.usage.GetOrCompute(e.usageKey(dep, path, pathKeyed), func() bool {
			return scn.Uses(dep, path)
		})
		if used {
			mu.Lock()
			record.UsedInFiles[path] = struct{}{}
			mu.Unlock()
		}
	}, e.opts.OnProgress)
}

// usageKey keys the usage memo by content fingerprint and extension, so
// identical files at different paths share one verdict. The manifest and
// pre-parsed config files, whose verdicts are tied to their location,
// stay path-keyed, as does anything unreadable.
func (e *Engine) usageKey(dep, path string, pathKeyed map[string]struct{}) string {
	if _, ok := pathKeyed[path]; !ok {
		if sum, err := e.files.Fingerprint(path); err == nil {
			return cache.Key(dep, filepath.Ext(path), strconv.FormatUint(sum, 16))
		}
	}
	return cache.Key(dep, path)
}

// typesBase returns the un-prefixed package name for @types/ dependencies,
// or "" for everything else.
func typesBase(dep string) string {
	if !strings.HasPrefix(dep, depgraph.TypesPrefix) {
		return ""
	}
	return depgraph.BasePackage(dep)
}
