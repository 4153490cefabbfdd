package output

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"relo/internal/graph"
	"relo/internal/workspace"
)

// DOTGenerator renders the consumers of one file as a Graphviz digraph, the
// view worth checking before a move: every edge is an import that a relocation
// of the file's symbols would touch.
type DOTGenerator struct {
	project *workspace.Project
	index   *graph.Index
}

func NewDOTGenerator(project *workspace.Project, ix *graph.Index) *DOTGenerator {
	return &DOTGenerator{project: project, index: ix}
}

func (d *DOTGenerator) Generate(target string) (string, error) {
	target = workspace.Normalize(target)
	if !d.project.Contains(target) {
		return "", fmt.Errorf("%s is outside the project root", target)
	}

	var buf strings.Builder

	buf.WriteString("digraph consumers {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8];\n\n")

	targetLabel := d.relative(target)
	buf.WriteString(fmt.Sprintf("  \"%s\" [style=\"rounded,filled\", fillcolor=\"lightyellow\"];\n\n", targetLabel))

	importers := d.index.Importers(target)
	reExporters := d.index.ReExporters(target)
	sort.Strings(importers)
	sort.Strings(reExporters)

	seen := make(map[string]bool)
	for _, p := range importers {
		label := d.relative(p)
		seen[label] = true
		buf.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\";\n", label, targetLabel))
	}
	for _, p := range reExporters {
		label := d.relative(p)
		style := " [style=dashed, label=\"re-export\"]"
		if seen[label] {
			// File both imports and re-exports; one solid edge already drawn.
			style = " [style=dashed]"
		}
		buf.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\"%s;\n", d.relative(p), targetLabel, style))
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func (d *DOTGenerator) relative(path string) string {
	rel, err := filepath.Rel(filepath.FromSlash(d.project.Root()), filepath.FromSlash(path))
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
