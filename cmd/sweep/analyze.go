package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeplabs/sweep/internal/batch"
	"github.com/sweeplabs/sweep/internal/output"
	"github.com/sweeplabs/sweep/internal/progress"
	"github.com/sweeplabs/sweep/internal/report"
	"github.com/sweeplabs/sweep/pkg/engine"
	"github.com/urfave/cli/v2"
)

func analyzeCmd() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"check"},
		Usage:     "Report declared dependencies with no usage evidence",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "ignore",
				Usage: "Glob patterns to exclude from the scan",
			},
			&cli.StringSliceFlag{
				Name:  "safe",
				Usage: "Dependencies never reported as unused",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Max concurrent file scans (0 = 2x CPU count)",
			},
			&cli.BoolFlag{
				Name:  "no-progress",
				Usage: "Disable the progress bar",
			},
			&cli.BoolFlag{
				Name:  "fail-on-unused",
				Usage: "Exit non-zero when unused dependencies are found",
			},
		},
		Action: runAnalyzeCmd,
	}
}

func runAnalyzeCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ignore := append([]string{}, cfg.Scan.Ignore...)
	ignore = append(ignore, c.StringSlice("ignore")...)
	safe := append([]string{}, cfg.Scan.Safe...)
	safe = append(safe, c.StringSlice("safe")...)

	workers := cfg.Batch.MaxWorkers
	if c.Int("workers") > 0 {
		workers = c.Int("workers")
	}

	opts := engine.Options{
		IgnoreGlobs:      ignore,
		SafeDependencies: safe,
		Batch: batch.Options{
			MaxWorkers:       workers,
			MinBatch:         cfg.Batch.MinBatch,
			MaxBatch:         cfg.Batch.MaxBatch,
			HeapBudget:       uint64(cfg.Batch.HeapBudgetMB) << 20,
			PressureCooldown: time.Duration(cfg.Batch.CooldownSecs) * time.Second,
		},
		CacheSize: cfg.Cache.MaxEntries,
		CacheTTL:  time.Duration(cfg.Cache.TTLMinutes) * time.Minute,
	}

	// The scan total is only known once the engine has resolved the
	// workspace and collected files, so the bar is created from the
	// engine's scan-start callback.
	var bar *progress.Tracker
	if !c.Bool("no-progress") && c.String("format") == "text" && c.String("output") == "" {
		opts.OnScanStart = func(total int) {
			bar = progress.NewTracker("Scanning dependencies", total)
		}
		opts.OnProgress = func() {
			if bar != nil {
				bar.Tick()
			}
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	eng := engine.New(opts)
	result, err := eng.Analyze(ctx, getPath(c))
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	formatter, err := output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), cfg.Output.Color)
	if err != nil {
		return err
	}
	defer formatter.Close()

	verbose := c.Bool("verbose") || cfg.Output.Verbose
	analysis := report.New(result, safeListed(result, safe), verbose)
	if err := formatter.Output(analysis); err != nil {
		return err
	}

	if c.Bool("fail-on-unused") && len(result.Unused) > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

// safeListed marks the dependencies the safe list kept out of the unused
// report.
func safeListed(result *engine.Result, safe []string) map[string]bool {
	marked := make(map[string]bool)
	for _, name := range safe {
		if record, ok := result.Records[name]; ok && record.State == engine.StateUnusedCandidate {
			marked[name] = true
		}
	}
	return marked
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	return ctx, cancel
}
