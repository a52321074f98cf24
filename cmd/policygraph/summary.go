package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/cluso-policygraph/pkg/engine"
	"github.com/dd0wney/cluso-policygraph/pkg/graph"
	"github.com/dd0wney/cluso-policygraph/pkg/interaction"
)

var (
	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4e79a7")).
			Padding(0, 1).
			MarginRight(1)

	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4e79a7"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#e15759")).Bold(true)
)

// maxListed caps the conflicts and diagnostics printed in a summary.
const maxListed = 5

func renderSummary(r *engine.Report) string {
	dep := r.Dependency.Statistics
	var b strings.Builder
	b.WriteString(headingStyle.Render("Dependencies") + "\n")
	fmt.Fprintf(&b, "policies:  %d\n", dep.NodeCount)
	fmt.Fprintf(&b, "edges:     %d\n", dep.EdgeCount)
	fmt.Fprintf(&b, "cycles:    %d\n", dep.CycleCount)
	fmt.Fprintf(&b, "dangling:  %d", dep.DanglingReferences)
	boxes := []string{boxStyle.Render(b.String())}

	b.Reset()
	b.WriteString(headingStyle.Render("Interactions") + "\n")
	for i, t := range interaction.Types {
		fmt.Fprintf(&b, "%-12s %d", string(t)+":", r.Interactions.Statistics.ByType[t])
		if i < len(interaction.Types)-1 {
			b.WriteString("\n")
		}
	}
	boxes = append(boxes, boxStyle.Render(b.String()))

	if r.Topology != nil {
		top := r.Topology.Statistics
		b.Reset()
		b.WriteString(headingStyle.Render("Topology") + "\n")
		fmt.Fprintf(&b, "pods:      %d\n", top.NodesByKind[graph.KindPod])
		fmt.Fprintf(&b, "services:  %d\n", top.NodesByKind[graph.KindService])
		fmt.Fprintf(&b, "policies:  %d\n", top.NodesByKind[graph.KindPolicy])
		fmt.Fprintf(&b, "unmatched: %d", top.UnconnectedSelectors)
		boxes = append(boxes, boxStyle.Render(b.String()))
	}

	if len(r.Dependency.Influence) > 0 {
		b.Reset()
		b.WriteString(headingStyle.Render("Most depended on"))
		for _, rn := range r.Dependency.Influence[:min(len(r.Dependency.Influence), maxListed)] {
			fmt.Fprintf(&b, "\n%-32s %.3f", rn.ID, rn.Score)
		}
		boxes = append(boxes, boxStyle.Render(b.String()))
	}

	out := lipgloss.JoinHorizontal(lipgloss.Top, boxes...)

	conflicts := r.Interactions.ByType[interaction.Conflict]
	if len(conflicts) > 0 {
		lines := []string{warnStyle.Render(fmt.Sprintf("%d conflicts", len(conflicts)))}
		for _, c := range conflicts[:min(len(conflicts), maxListed)] {
			lines = append(lines, fmt.Sprintf("  %s <> %s (%s)", c.Source, c.Target, c.Severity))
		}
		out += "\n" + strings.Join(lines, "\n")
	}

	warnings := 0
	for _, d := range r.Diagnostics {
		if d.Level == graph.LevelWarning {
			warnings++
		}
	}
	if warnings > 0 {
		lines := []string{warnStyle.Render(fmt.Sprintf("%d warnings", warnings))}
		listed := 0
		for _, d := range r.Diagnostics {
			if d.Level != graph.LevelWarning || listed == maxListed {
				continue
			}
			lines = append(lines, fmt.Sprintf("  [%s] %s", d.Code, d.Message))
			listed++
		}
		out += "\n" + strings.Join(lines, "\n")
	}
	return out
}
