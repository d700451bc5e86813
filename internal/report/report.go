// Package report shapes engine results for presentation.
package report

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/sweeplabs/sweep/internal/output"
	"github.com/sweeplabs/sweep/pkg/engine"
)

// Item is one dependency's verdict in presentation order.
type Item struct {
	Name       string   `json:"name"`
	Used       bool     `json:"used"`
	UsedIn     []string `json:"used_in,omitempty"`
	RequiredBy []string `json:"required_by,omitempty"`
	Transitive bool     `json:"transitive_only,omitempty"`
	SafeListed bool     `json:"safe_listed,omitempty"`
}

// Analysis is the renderable analysis report.
type Analysis struct {
	Root    string   `json:"root"`
	Items   []Item   `json:"dependencies"`
	Unused  []string `json:"unused"`
	Verbose bool     `json:"-"`

	Diagnostics engine.Diagnostics `json:"diagnostics,omitempty"`
}

// New builds a report from an engine result. safeListed marks names kept
// out of the unused list by the caller's safe list.
func New(result *engine.Result, safeListed map[string]bool, verbose bool) *Analysis {
	unusedSet := make(map[string]bool, len(result.Unused))
	for _, name := range result.Unused {
		unusedSet[name] = true
	}

	items := make([]Item, 0, len(result.Records))
	for _, name := range sortedNames(result.Records) {
		record := result.Records[name]
		items = append(items, Item{
			Name:       name,
			Used:       record.State == engine.StateUsed,
			UsedIn:     relativize(result.Root, record.UsedFiles()),
			RequiredBy: record.Requirers(),
			Transitive: record.HasSubDependencyUsage,
			SafeListed: safeListed[name],
		})
	}

	return &Analysis{
		Root:        result.Root,
		Items:       items,
		Unused:      result.Unused,
		Verbose:     verbose,
		Diagnostics: result.Diagnostics,
	}
}

// RenderData implements output.Renderable.
func (a *Analysis) RenderData() any {
	return a
}

// RenderText implements output.Renderable.
func (a *Analysis) RenderText(w io.Writer, colored bool) error {
	title := fmt.Sprintf("Dependency usage for %s", a.Root)
	if colored {
		color.New(color.Bold).Fprintln(w, title)
	} else {
		fmt.Fprintln(w, title)
	}
	fmt.Fprintln(w, strings.Repeat("=", len(title)))
	fmt.Fprintln(w)

	output.RenderTable(w, []string{"Dependency", "Status", "Evidence"}, a.rows(colored))
	fmt.Fprintln(w)

	if len(a.Unused) == 0 {
		output.Success(w, colored, "No unused dependencies found")
	} else {
		output.Warning(w, colored, "%d unused dependencies: %s", len(a.Unused), strings.Join(a.Unused, ", "))
	}

	if a.Verbose {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "files scanned: %d, installed packages: %d\n",
			a.Diagnostics.FilesScanned, a.Diagnostics.InstalledPackages)
		fmt.Fprintf(w, "scan: %s, graph: %s\n",
			a.Diagnostics.ScanDuration.Round(1e6), a.Diagnostics.GraphDuration.Round(1e6))
		fmt.Fprintf(w, "usage cache hit rate: %.1f%%, file cache hit rate: %.1f%%\n",
			a.Diagnostics.UsageCache.HitRate*100, a.Diagnostics.FileCache.HitRate*100)
	}
	return nil
}

// RenderMarkdown implements output.Renderable.
func (a *Analysis) RenderMarkdown(w io.Writer) error {
	fmt.Fprintf(w, "# Dependency usage for %s\n\n", a.Root)
	output.RenderMarkdownTable(w, []string{"Dependency", "Status", "Evidence"}, a.rows(false))

	if len(a.Unused) == 0 {
		fmt.Fprintln(w, "No unused dependencies found.")
	} else {
		fmt.Fprintf(w, "**%d unused:** %s\n", len(a.Unused), strings.Join(a.Unused, ", "))
	}
	return nil
}

func (a *Analysis) rows(colored bool) [][]string {
	rows := make([][]string, 0, len(a.Items))
	for _, item := range a.Items {
		status := "unused"
		switch {
		case item.SafeListed:
			status = "safe-listed"
		case item.Used && item.Transitive:
			status = "used (transitive)"
		case item.Used:
			status = "used"
		}
		if colored {
			if item.Used || item.SafeListed {
				status = color.GreenString(status)
			} else {
				status = color.RedString(status)
			}
		}
		rows = append(rows, []string{item.Name, status, evidence(item)})
	}
	return rows
}

// evidence summarizes why a dependency counted as used.
func evidence(item Item) string {
	switch {
	case len(item.UsedIn) == 1:
		return item.UsedIn[0]
	case len(item.UsedIn) > 1:
		return fmt.Sprintf("%s (+%d more)", item.UsedIn[0], len(item.UsedIn)-1)
	case len(item.RequiredBy) > 0:
		return "required by " + strings.Join(item.RequiredBy, ", ")
	default:
		return "-"
	}
}

func relativize(root string, paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if rel, err := filepath.Rel(root, p); err == nil {
			out = append(out, filepath.ToSlash(rel))
		} else {
			out = append(out, p)
		}
	}
	return out
}

func sortedNames(records map[string]*engine.DependencyRecord) []string {
	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
