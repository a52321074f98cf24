// Command policygraph-tui browses the analysis of a set of policy
// manifests in the terminal.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	gql "github.com/graphql-go/graphql"

	"github.com/dd0wney/cluso-policygraph/pkg/config"
	"github.com/dd0wney/cluso-policygraph/pkg/engine"
	"github.com/dd0wney/cluso-policygraph/pkg/graphql"
	"github.com/dd0wney/cluso-policygraph/pkg/interaction"
	"github.com/dd0wney/cluso-policygraph/pkg/logging"
	"github.com/dd0wney/cluso-policygraph/pkg/manifest"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4e79a7")).
			MarginLeft(2).
			MarginTop(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#76b7b2")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#76b7b2")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#4e79a7")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666")).
				Padding(0, 2)

	contentStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)

	statsBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#59a14f")).
			Padding(1, 2).
			MarginRight(2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e15759")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

type view int

const (
	summaryView view = iota
	policiesView
	interactionsView
	diagnosticsView
	queryView
	viewCount
)

var tabNames = []string{"Summary", "Policies", "Interactions", "Diagnostics", "Query"}

type keyMap struct {
	Tab      key.Binding
	ShiftTab key.Binding
	Enter    key.Binding
	Quit     key.Binding
	Up       key.Binding
	Down     key.Binding
}

var keys = keyMap{
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next view"),
	),
	ShiftTab: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "prev view"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "run query"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "esc"),
		key.WithHelp("esc", "quit"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Enter, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ShiftTab, k.Enter},
		{k.Up, k.Down},
		{k.Quit},
	}
}

type model struct {
	report       *engine.Report
	schema       gql.Schema
	currentView  view
	queryInput   textinput.Model
	policies     table.Model
	interactions table.Model
	diagnostics  table.Model
	help         help.Model
	keys         keyMap
	width        int
	height       int
	queryOutput  string
	message      string
}

func newTable(columns []table.Column, rows []table.Row) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#76b7b2")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#4e79a7")).
		Bold(false)
	t.SetStyles(s)
	return t
}

func policyRows(r *engine.Report) []table.Row {
	rows := make([]table.Row, 0, len(r.Dependency.Nodes))
	for _, n := range r.Dependency.Nodes {
		rows = append(rows, table.Row{
			n.ID,
			n.Attributes.Severity,
			n.Attributes.Status,
			fmt.Sprintf("%d", n.Attributes.RuleCount),
		})
	}
	return rows
}

func interactionRows(r *engine.Report) []table.Row {
	rows := make([]table.Row, 0, len(r.Interactions.Interactions))
	for _, in := range r.Interactions.Interactions {
		rows = append(rows, table.Row{string(in.Type), in.Source, in.Target, in.Severity})
	}
	return rows
}

func diagnosticRows(r *engine.Report) []table.Row {
	rows := make([]table.Row, 0, len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		rows = append(rows, table.Row{string(d.Level), string(d.Code), d.Message})
	}
	return rows
}

func initialModel(report *engine.Report) (model, error) {
	schema, err := graphql.GenerateSchema(report)
	if err != nil {
		return model{}, err
	}

	ti := textinput.New()
	ti.Placeholder = `{ interactions(type: "conflict") { source target severity } }`
	ti.CharLimit = 400
	ti.Width = 80

	return model{
		report:      report,
		schema:      schema,
		currentView: summaryView,
		queryInput:  ti,
		policies: newTable([]table.Column{
			{Title: "Policy", Width: 40},
			{Title: "Severity", Width: 10},
			{Title: "Status", Width: 10},
			{Title: "Rules", Width: 6},
		}, policyRows(report)),
		interactions: newTable([]table.Column{
			{Title: "Type", Width: 12},
			{Title: "Source", Width: 32},
			{Title: "Target", Width: 32},
			{Title: "Severity", Width: 10},
		}, interactionRows(report)),
		diagnostics: newTable([]table.Column{
			{Title: "Level", Width: 8},
			{Title: "Code", Width: 22},
			{Title: "Message", Width: 70},
		}, diagnosticRows(report)),
		help: help.New(),
		keys: keys,
	}, nil
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *model) setView(v view) {
	m.currentView = v
	if v == queryView {
		m.queryInput.Focus()
	} else {
		m.queryInput.Blur()
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.setView((m.currentView + 1) % viewCount)
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.setView((m.currentView + viewCount - 1) % viewCount)
			return m, nil
		case key.Matches(msg, m.keys.Enter):
			if m.currentView == queryView {
				m.executeQuery()
				return m, nil
			}
		}
	}

	switch m.currentView {
	case queryView:
		m.queryInput, cmd = m.queryInput.Update(msg)
	case policiesView:
		m.policies, cmd = m.policies.Update(msg)
	case interactionsView:
		m.interactions, cmd = m.interactions.Update(msg)
	case diagnosticsView:
		m.diagnostics, cmd = m.diagnostics.Update(msg)
	}
	return m, cmd
}

func (m *model) executeQuery() {
	q := strings.TrimSpace(m.queryInput.Value())
	if q == "" {
		q = m.queryInput.Placeholder
	}
	result := graphql.ExecuteQuery(q, m.schema)
	if result.HasErrors() {
		m.message = result.Errors[0].Message
		m.queryOutput = ""
		return
	}
	out, err := json.MarshalIndent(result.Data, "", "  ")
	if err != nil {
		m.message = err.Error()
		return
	}
	m.message = ""
	m.queryOutput = string(out)
}

func (m model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("policygraph"))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	switch m.currentView {
	case summaryView:
		s.WriteString(m.renderSummary())
	case policiesView:
		s.WriteString(contentStyle.Render(headerStyle.Render("Policies") + "\n\n" + m.policies.View()))
	case interactionsView:
		s.WriteString(contentStyle.Render(headerStyle.Render("Interactions") + "\n\n" + m.interactions.View()))
	case diagnosticsView:
		s.WriteString(contentStyle.Render(headerStyle.Render("Diagnostics") + "\n\n" + m.diagnostics.View()))
	case queryView:
		s.WriteString(m.renderQuery())
	}

	if m.message != "" {
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render("✗ " + m.message))
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))
	return s.String()
}

func (m model) renderTabs() string {
	rendered := make([]string, len(tabNames))
	for i, tab := range tabNames {
		if view(i) == m.currentView {
			rendered[i] = activeTabStyle.Render(tab)
		} else {
			rendered[i] = inactiveTabStyle.Render(tab)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m model) renderSummary() string {
	dep := m.report.Dependency.Statistics
	depContent := fmt.Sprintf(`Dependencies
Policies:  %d
Edges:     %d
Cycles:    %d
Dangling:  %d`,
		dep.NodeCount, dep.EdgeCount, dep.CycleCount, dep.DanglingReferences)

	var b strings.Builder
	b.WriteString("Interactions")
	for _, t := range interaction.Types {
		fmt.Fprintf(&b, "\n%-12s %d", string(t)+":", m.report.Interactions.Statistics.ByType[t])
	}

	boxes := []string{statsBoxStyle.Render(depContent), statsBoxStyle.Render(b.String())}
	if len(m.report.Dependency.Cycles) > 0 {
		var c strings.Builder
		c.WriteString("Cycles")
		for _, cycle := range m.report.Dependency.Cycles {
			c.WriteString("\n" + strings.Join(cycle, " → ") + " → " + cycle[0])
		}
		boxes = append(boxes, statsBoxStyle.Render(c.String()))
	}
	return contentStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
}

func (m model) renderQuery() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("GraphQL Console"))
	s.WriteString("\n\n")
	s.WriteString(m.queryInput.View())
	if m.queryOutput != "" {
		s.WriteString("\n\n")
		s.WriteString(m.queryOutput)
	} else {
		s.WriteString("\n\n")
		s.WriteString(helpStyle.Render("Examples:\n"))
		s.WriteString(helpStyle.Render("  { policies(severity: \"high\") { id status } }\n"))
		s.WriteString(helpStyle.Render("  { diagnostics(level: \"warning\") { code message } }\n"))
	}
	return contentStyle.Render(s.String())
}

func load(ctx context.Context, cfgPath string, files []string) (*engine.Report, error) {
	if len(files) == 0 {
		return nil, errors.New("no manifest files given")
	}
	cfg := config.Default()
	if cfgPath != "" {
		var err error
		if cfg, err = config.Load(cfgPath); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// The terminal belongs to the UI; keep only errors, on stderr.
	logger := logging.NewJSONLogger(os.Stderr, logging.ErrorLevel)
	bundle, err := manifest.DecodeFiles(files, manifest.Options{Logger: logger})
	if err != nil {
		return nil, err
	}
	return engine.AnalyzeBundle(ctx, bundle, cfg.EngineOptions(logger, nil))
}

func main() {
	cfgPath := flag.String("config", "", "YAML configuration file")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: policygraph-tui [-config file] manifest.yaml ...")
		flag.PrintDefaults()
	}
	flag.Parse()

	report, err := load(context.Background(), *cfgPath, flag.Args())
	if err != nil {
		log.Fatalf("Failed to analyze manifests: %v", err)
	}
	m, err := initialModel(report)
	if err != nil {
		log.Fatalf("Failed to build query schema: %v", err)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}
}
