// Package batch partitions large file sets into memory-adaptive batches and
// processes each batch with a bounded pool of concurrent workers.
package batch

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
)

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker
// count. 2x is optimal for mixed I/O and CGO workloads.
const DefaultWorkerMultiplier = 2

// Options configures a Scheduler.
type Options struct {
	// MaxWorkers caps concurrently in-flight file operations per batch.
	// The ceiling is fixed and independent of batch size. <= 0 means
	// 2x NumCPU.
	MaxWorkers int
	// MinBatch and MaxBatch bound the adaptive batch size.
	MinBatch int
	MaxBatch int
	// HeapBudget is the heap size, in bytes, treated as full memory
	// pressure. Batch sizes shrink as heap usage approaches it.
	HeapBudget uint64
	// PressureCooldown is the minimum interval between cache-clearing
	// pressure triggers.
	PressureCooldown time.Duration
}

// DefaultOptions returns the scheduler defaults.
func DefaultOptions() Options {
	return Options{
		MaxWorkers:       runtime.NumCPU() * DefaultWorkerMultiplier,
		MinBatch:         16,
		MaxBatch:         512,
		HeapBudget:       512 << 20,
		PressureCooldown: 30 * time.Second,
	}
}

// Scheduler runs file processing in adaptive batches. It owns no file or
// dependency state; callers register cache-clear hooks that fire when heap
// usage crosses the pressure threshold.
type Scheduler struct {
	opts Options

	mu        sync.Mutex
	clearFns  []func()
	lastClear time.Time
}

// New creates a scheduler, filling unset options with defaults.
func New(opts Options) *Scheduler {
	def := DefaultOptions()
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = def.MaxWorkers
	}
	if opts.MinBatch <= 0 {
		opts.MinBatch = def.MinBatch
	}
	if opts.MaxBatch < opts.MinBatch {
		opts.MaxBatch = def.MaxBatch
	}
	if opts.HeapBudget == 0 {
		opts.HeapBudget = def.HeapBudget
	}
	if opts.PressureCooldown <= 0 {
		opts.PressureCooldown = def.PressureCooldown
	}
	return &Scheduler{opts: opts}
}

// OnPressure registers a hook invoked when memory pressure is detected.
// The engine registers its caches here so they are proactively cleared.
func (s *Scheduler) OnPressure(clear func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearFns = append(s.clearFns, clear)
}

// BatchSize computes the next batch size from current heap headroom: more
// available memory means larger batches, within the fixed floor and ceiling.
func (s *Scheduler) BatchSize() int {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	if mem.HeapAlloc >= s.opts.HeapBudget {
		return s.opts.MinBatch
	}
	frac := 1.0 - float64(mem.HeapAlloc)/float64(s.opts.HeapBudget)
	size := s.opts.MinBatch + int(frac*float64(s.opts.MaxBatch-s.opts.MinBatch))
	if size > s.opts.MaxBatch {
		size = s.opts.MaxBatch
	}
	if size < s.opts.MinBatch {
		size = s.opts.MinBatch
	}
	return size
}

// Partition splits files into consecutive batches of the given size.
func Partition(files []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}
	var batches [][]string
	for start := 0; start < len(files); start += size {
		end := start + size
		if end > len(files) {
			end = len(files)
		}
		batches = append(batches, files[start:end])
	}
	return batches
}

// ForEach processes files batch by batch, calling fn for each file with a
// bounded number of concurrent workers. Per-file errors are fn's concern;
// the scheduler only sequences work. Returns early on context cancellation.
func (s *Scheduler) ForEach(ctx context.Context, files []string, fn func(path string), onProgress func()) {
	for len(files) > 0 {
		if ctx.Err() != nil {
			return
		}

		size := s.BatchSize()
		if size > len(files) {
			size = len(files)
		}
		current := files[:size]
		files = files[size:]

		p := pool.New().WithMaxGoroutines(s.opts.MaxWorkers)
		for _, path := range current {
			p.Go(func() {
				fn(path)
				if onProgress != nil {
					onProgress()
				}
			})
		}
		p.Wait()

		s.checkPressure()
	}
}

// checkPressure clears registered caches when heap usage exceeds the
// budget threshold, rate-limited by the cooldown interval.
func (s *Scheduler) checkPressure() {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	threshold := s.opts.HeapBudget - s.opts.HeapBudget/5 // 80% of budget
	if mem.HeapAlloc < threshold {
		return
	}

	s.mu.Lock()
	if time.Since(s.lastClear) < s.opts.PressureCooldown {
		s.mu.Unlock()
		return
	}
	s.lastClear = time.Now()
	fns := make([]func(), len(s.clearFns))
	copy(fns, s.clearFns)
	s.mu.Unlock()

	for _, clear := range fns {
		clear()
	}
	runtime.GC()
}
