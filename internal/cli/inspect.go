package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/strata/pkg/io"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorFaint)
	detailStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorFaint).Padding(0, 1)
)

// inspectCommand creates the inspect command, an interactive browser over
// the nodes of a layout.
func (c *CLI) inspectCommand() *cobra.Command {
	opts := renderOpts{}

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Browse the nodes and edges of a layout interactively",
		Long: `Lay out a graph document (or load a layout with --layout) and browse its
nodes: rank, order, position and size, with the routed edges of the
selected node.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, opts.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			res, _, err := c.loadResult(ctx, cmd.ErrOrStderr(), runner, args[0], &opts)
			if err != nil {
				return err
			}
			if len(res.Nodes) == 0 {
				newConsole(cmd).note("Layout has no nodes")
				return nil
			}
			_, err = tea.NewProgram(NewNodeListModel(res), tea.WithContext(ctx)).Run()
			return err
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&opts.inputFormat, "input-format", "", "document format for stdin: json, yaml, toml")
	cmd.Flags().BoolVar(&opts.fromLayout, "layout", false, "input is a layout JSON file rather than a graph document")

	return cmd
}

// =============================================================================
// NodeListModel - Interactive node browser
// =============================================================================

// NodeListModel is the bubbletea model for browsing a layout's nodes.
type NodeListModel struct {
	Layout pkgio.Result
	Cursor int
	Height int
	Offset int

	in, out map[string][]int
}

// NewNodeListModel creates a new node list model.
func NewNodeListModel(res pkgio.Result) NodeListModel {
	m := NodeListModel{
		Layout: res,
		Height: 15,
		in:     make(map[string][]int),
		out:    make(map[string][]int),
	}
	for i, e := range res.Edges {
		m.out[e.V] = append(m.out[e.V], i)
		m.in[e.W] = append(m.in[e.W], i)
	}
	return m
}

func (m NodeListModel) Init() tea.Cmd {
	return nil
}

func (m NodeListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "pgup":
			m.move(-m.Height)
		case "pgdown":
			m.move(m.Height)
		case "home", "g":
			m.move(-len(m.Layout.Nodes))
		case "end", "G":
			m.move(len(m.Layout.Nodes))
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-14, 5)
		m.move(0)
	}
	return m, nil
}

// move shifts the cursor by delta, clamped to the node list, and scrolls the
// window to keep it visible.
func (m *NodeListModel) move(delta int) {
	m.Cursor = min(max(m.Cursor+delta, 0), len(m.Layout.Nodes)-1)
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m NodeListModel) View() string {
	var b strings.Builder

	b.WriteString(styleTitle.Render("Layout"))
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %.0f×%.0f  %d nodes  %d edges",
		m.Layout.Width, m.Layout.Height, len(m.Layout.Nodes), len(m.Layout.Edges))))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  pgup/pgdn page  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Layout.Nodes))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		n := m.Layout.Nodes[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{
			cursor, n.ID, strconv.Itoa(n.Rank), strconv.Itoa(n.Order),
			fmt.Sprintf("%.1f", n.X), fmt.Sprintf("%.1f", n.Y),
			fmt.Sprintf("%.0f×%.0f", n.Width, n.Height), n.Parent,
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorMuted).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorFaint)).
		Headers("", "Node", "Rank", "Order", "X", "Y", "Size", "Parent").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
			}
			if col >= 2 {
				return lipgloss.NewStyle().Foreground(colorMuted)
			}
			return lipgloss.NewStyle().Foreground(colorText)
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(detailStyle.Render(m.details()))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Layout.Nodes))))

	return b.String()
}

// details describes the edges of the selected node.
func (m NodeListModel) details() string {
	n := m.Layout.Nodes[m.Cursor]
	var b strings.Builder
	b.WriteString(styleAccent.Render(n.ID))
	if n.Label != "" && n.Label != n.ID {
		b.WriteString(" " + listDimStyle.Render(n.Label))
	}
	for _, group := range []struct {
		title string
		edges []int
	}{{"in", m.in[n.ID]}, {"out", m.out[n.ID]}} {
		b.WriteString("\n" + listDimStyle.Render(group.title+":"))
		if len(group.edges) == 0 {
			b.WriteString(listDimStyle.Render(" none"))
			continue
		}
		for _, i := range group.edges {
			b.WriteString("\n  " + describeEdge(m.Layout.Edges[i]))
		}
	}
	return b.String()
}

func describeEdge(e pkgio.ResultEdge) string {
	s := e.V + " → " + e.W
	if e.Name != "" {
		s += " [" + e.Name + "]"
	}
	s += listDimStyle.Render(fmt.Sprintf("  %d points", len(e.Points)))
	if e.LabelPosition != nil {
		s += listDimStyle.Render(fmt.Sprintf("  label %q at (%.1f, %.1f)", e.Label, e.LabelPosition.X, e.LabelPosition.Y))
	}
	return s
}
