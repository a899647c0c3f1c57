package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowmap/pkg/apps"
	"github.com/matzehuels/flowmap/pkg/forcegraph"
	"github.com/matzehuels/flowmap/pkg/pipeline"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	tabActiveStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Underline(true)
)

// exploreCommand opens the terminal view switcher.
func (c *CLI) exploreCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "explore [dataset-dir]",
		Short: "Browse the graph in the terminal and switch between views",
		Long: `Browse the graph in the terminal.

The simple view lists every application; enter shows its inbound and
outbound flows. Tab switches to the full view, which activates a fresh force
simulation and lists every flow with the settled positions of its ends.
Switching back and forth activates a new simulation each time.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.dataset = datasetArg(args)
			opts, err := c.loadOptions(cmd, &flags)
			if err != nil {
				return err
			}
			return c.runExplore(cmd.Context(), opts)
		},
	}

	flags.addDataset(cmd.Flags())
	flags.addSimulation(cmd.Flags())
	flags.addCache(cmd.Flags())

	return cmd
}

func (c *CLI) runExplore(ctx context.Context, opts pipeline.Options) error {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, opts)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	ds, err := runner.Load(ctx, opts)
	if err != nil {
		return err
	}
	// Keep the TUI screen free of log lines.
	quiet := opts
	quiet.Logger = log.New(io.Discard)
	g, _ := runner.Build(ctx, ds, opts)

	activate := func(ctx context.Context) (*forcegraph.View, bool, error) {
		fresh, _ := pipeline.BuildGraph(ctx, ds, quiet)
		return runner.ActivateWithCacheInfo(ctx, fresh, quiet)
	}

	m := newExploreModel(ctx, g, activate)
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// =============================================================================
// exploreModel - Terminal view switcher
// =============================================================================

// activateFunc builds the graph anew and settles a fresh full view.
type activateFunc func(ctx context.Context) (*forcegraph.View, bool, error)

// activatedMsg carries the result of a full-view activation.
type activatedMsg struct {
	view   *forcegraph.View
	cached bool
	err    error
}

// exploreModel is the bubbletea model behind "flowmap explore".
type exploreModel struct {
	ctx      context.Context
	graph    apps.FilteredGraph
	activate activateFunc

	mode     string // pipeline.ViewSimple or pipeline.ViewFull
	cursor   int
	offset   int
	height   int
	expanded bool

	view        *forcegraph.View
	cached      bool
	activations int
	loading     bool
	err         error
}

func newExploreModel(ctx context.Context, g apps.FilteredGraph, activate activateFunc) exploreModel {
	return exploreModel{
		ctx:      ctx,
		graph:    g,
		activate: activate,
		mode:     pipeline.ViewSimple,
		height:   15,
	}
}

func (m exploreModel) Init() tea.Cmd {
	return nil
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.expanded {
				m.expanded = false
				return m, nil
			}
			return m, tea.Quit
		case "tab":
			return m.toggle()
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.expanded = false
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < m.rows()-1 {
				m.cursor++
				m.expanded = false
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter":
			if m.mode == pipeline.ViewSimple && m.rows() > 0 {
				m.expanded = !m.expanded
			}
		}
	case activatedMsg:
		m.loading = false
		if m.mode != pipeline.ViewFull {
			return m, nil // switched back while settling
		}
		m.err = msg.err
		if msg.err == nil {
			m.view = msg.view
			m.graph = msg.view.Graph
			m.cached = msg.cached
			m.activations++
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-8, 5)
	}
	return m, nil
}

// toggle switches views. Entering the full view always activates a new
// simulation; leaving it drops the settled view.
func (m exploreModel) toggle() (tea.Model, tea.Cmd) {
	m.cursor, m.offset, m.expanded, m.err = 0, 0, false, nil
	if m.mode == pipeline.ViewFull {
		m.mode = pipeline.ViewSimple
		m.view = nil
		return m, nil
	}
	m.mode = pipeline.ViewFull
	m.loading = true
	ctx, activate := m.ctx, m.activate
	return m, func() tea.Msg {
		v, cached, err := activate(ctx)
		return activatedMsg{view: v, cached: cached, err: err}
	}
}

// rows is the length of the list the cursor moves over.
func (m exploreModel) rows() int {
	if m.mode == pipeline.ViewFull {
		if m.view == nil {
			return 0
		}
		return len(m.view.Links)
	}
	return len(m.graph.Nodes)
}

func (m exploreModel) View() string {
	var b strings.Builder

	b.WriteString(m.tabs())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("tab switch view  ↑/↓ navigate  ⏎ flows  q quit"))
	b.WriteString("\n\n")

	if m.mode == pipeline.ViewFull {
		b.WriteString(m.fullView())
	} else {
		b.WriteString(m.simpleView())
	}
	return b.String()
}

func (m exploreModel) tabs() string {
	simple, full := listDimStyle.Render("Simple"), listDimStyle.Render("Full")
	if m.mode == pipeline.ViewFull {
		full = tabActiveStyle.Render("Full")
	} else {
		simple = tabActiveStyle.Render("Simple")
	}
	return StyleTitle.Render(appName) + "  " + simple + " " + listDimStyle.Render("│") + " " + full
}

func (m exploreModel) simpleView() string {
	if len(m.graph.Nodes) == 0 {
		return listDimStyle.Render("  no applications with valid flows")
	}

	var b strings.Builder
	end := min(m.offset+m.height, len(m.graph.Nodes))
	for i := m.offset; i < end; i++ {
		n := m.graph.Nodes[i]
		line := fmt.Sprintf("%-28s %s", n.Name, listDimStyle.Render(string(n.ID)))
		if i == m.cursor {
			b.WriteString(listSelectedStyle.Render("▸ " + line))
		} else {
			b.WriteString(groupStyle(n.Group).Render("  " + line))
		}
		b.WriteString("\n")
		if i == m.cursor && m.expanded {
			b.WriteString(m.flowsOf(n.ID))
		}
	}
	b.WriteString("\n")
	b.WriteString(statsLine(m.graph.NodeCount(), m.graph.EdgeCount(), false))
	return b.String()
}

// flowsOf lists the outbound then inbound flows of id.
func (m exploreModel) flowsOf(id apps.NodeID) string {
	var b strings.Builder
	for _, e := range m.graph.Outgoing(id) {
		fmt.Fprintf(&b, "      %s %s  %s\n", iconArrow, e.Target, StyleLabel.Render(e.Label))
	}
	for _, e := range m.graph.Incoming(id) {
		fmt.Fprintf(&b, "      ← %s  %s\n", e.Source, StyleLabel.Render(e.Label))
	}
	if b.Len() == 0 {
		b.WriteString(listDimStyle.Render("      no flows") + "\n")
	}
	return b.String()
}

func (m exploreModel) fullView() string {
	switch {
	case m.loading:
		return styleIconSpinner.Render("⠋") + " " + StyleDim.Render("Activating force graph...")
	case m.err != nil:
		return styleIconError.Render(iconError) + " " + m.err.Error()
	case m.view == nil:
		return ""
	}

	end := min(m.offset+m.height, len(m.view.Links))
	rows := make([][]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		l := m.view.Links[i]
		rows = append(rows, []string{
			string(l.SourceID), string(l.TargetID), l.Label, fmtPos(l.Source), fmtPos(l.Target),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Source", "Target", "Label", "From", "To").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.offset+row == m.cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col >= 3 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		})

	var b strings.Builder
	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("  activation %s · %d frames · #%d", shortID(m.view.ID), m.view.Frames(), m.activations)))
	b.WriteString("\n")
	b.WriteString(statsLine(m.graph.NodeCount(), m.graph.EdgeCount(), m.cached))
	return b.String()
}

func fmtPos(n *forcegraph.Node) string {
	if n == nil || !n.Placed() {
		return "—"
	}
	return fmt.Sprintf("(%.0f, %.0f)", n.X, n.Y)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
