package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/sweeplabs/sweep/internal/output"
	"github.com/sweeplabs/sweep/pkg/depgraph"
	"github.com/sweeplabs/sweep/pkg/manifest"
	"github.com/sweeplabs/sweep/pkg/workspace"
	"github.com/urfave/cli/v2"
)

func graphCmd() *cli.Command {
	return &cli.Command{
		Name:      "graph",
		Aliases:   []string{"dag"},
		Usage:     "Show who requires a package in the installed dependency graph",
		ArgsUsage: "[package...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "path",
				Value: ".",
				Usage: "Project directory",
			},
		},
		Action: runGraphCmd,
	}
}

// packageGraph is the renderable requirer report for one or more packages.
type packageGraph struct {
	Root     string         `json:"root"`
	Packages []packageEntry `json:"packages"`
}

type packageEntry struct {
	Name         string   `json:"name"`
	Installed    bool     `json:"installed"`
	Dependencies []string `json:"dependencies,omitempty"`
	RequiredBy   []string `json:"required_by,omitempty"`
}

func runGraphCmd(c *cli.Context) error {
	ws, err := workspace.Resolve(c.String("path"))
	if err != nil {
		return err
	}
	m, err := manifest.Load(ws.Root)
	if err != nil {
		return err
	}
	root := filepath.Dir(ws.Root)

	targets := c.Args().Slice()
	if len(targets) == 0 {
		targets = m.AllDependencies()
	}

	graph := depgraph.Build(root, m.AllDependencies(), nil)

	pg := &packageGraph{Root: root}
	for _, name := range targets {
		pg.Packages = append(pg.Packages, packageEntry{
			Name:         name,
			Installed:    graph.Installed(name),
			Dependencies: graph.DependenciesOf(name),
			RequiredBy:   graph.RequirersOf(name),
		})
	}

	formatter, err := output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), true)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(pg)
}

// RenderData implements output.Renderable.
func (g *packageGraph) RenderData() any {
	return g
}

// RenderText implements output.Renderable.
func (g *packageGraph) RenderText(w io.Writer, colored bool) error {
	for _, entry := range g.Packages {
		fmt.Fprintln(w, entry.Name)
		if !entry.Installed {
			fmt.Fprintln(w, "  not installed")
			continue
		}
		if len(entry.Dependencies) > 0 {
			fmt.Fprintf(w, "  depends on: %s\n", strings.Join(entry.Dependencies, ", "))
		}
		if len(entry.RequiredBy) > 0 {
			fmt.Fprintf(w, "  required by: %s\n", strings.Join(entry.RequiredBy, ", "))
		}
	}
	return nil
}

// RenderMarkdown implements output.Renderable.
func (g *packageGraph) RenderMarkdown(w io.Writer) error {
	fmt.Fprintf(w, "# Dependency graph for %s\n\n", g.Root)
	fmt.Fprintln(w, "```mermaid")
	fmt.Fprintln(w, "graph TD")
	for _, entry := range g.Packages {
		fmt.Fprintf(w, "    %s[%s]\n", sanitizeID(entry.Name), entry.Name)
		for _, dep := range entry.Dependencies {
			fmt.Fprintf(w, "    %s --> %s\n", sanitizeID(entry.Name), sanitizeID(dep))
		}
	}
	fmt.Fprintln(w, "```")
	return nil
}

// sanitizeID replaces characters Mermaid cannot use in node identifiers.
func sanitizeID(id string) string {
	var b strings.Builder
	for _, c := range id {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			b.WriteRune(c)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
