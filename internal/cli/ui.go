package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

// =============================================================================
// Palette
// =============================================================================

var (
	colorAccent = lipgloss.Color("36")  // teal
	colorOK     = lipgloss.Color("35")  // green
	colorWarn   = lipgloss.Color("220") // amber
	colorLink   = lipgloss.Color("75")  // light blue
	colorText   = lipgloss.Color("255")
	colorMuted  = lipgloss.Color("245")
	colorFaint  = lipgloss.Color("240")
)

var (
	styleTitle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	styleAccent = lipgloss.NewStyle().Foreground(colorAccent)
	styleText   = lipgloss.NewStyle().Foreground(colorText)
	styleMuted  = lipgloss.NewStyle().Foreground(colorMuted)
	styleFaint  = lipgloss.NewStyle().Foreground(colorFaint)
	styleWarn   = lipgloss.NewStyle().Foreground(colorWarn)
	styleOK     = lipgloss.NewStyle().Foreground(colorOK)
	styleLink   = lipgloss.NewStyle().Foreground(colorLink)
	styleHeader = lipgloss.NewStyle().Foreground(colorMuted).Bold(true)
)

// =============================================================================
// Console
// =============================================================================

// console writes the human-readable status lines of a command. Machine
// output (layouts, drawings, --json) never goes through it.
type console struct {
	w io.Writer
}

func newConsole(cmd *cobra.Command) console {
	return console{w: cmd.OutOrStdout()}
}

func (c console) line(icon lipgloss.Style, glyph, msg string) {
	fmt.Fprintln(c.w, icon.Render(glyph)+" "+msg)
}

func (c console) ok(format string, args ...any) {
	c.line(styleOK, "✓", fmt.Sprintf(format, args...))
}

func (c console) warn(format string, args ...any) {
	c.line(styleWarn, "!", styleWarn.Render(fmt.Sprintf(format, args...)))
}

func (c console) note(format string, args ...any) {
	c.line(styleMuted, "›", fmt.Sprintf(format, args...))
}

func (c console) detail(format string, args ...any) {
	fmt.Fprintln(c.w, "  "+styleFaint.Render(fmt.Sprintf(format, args...)))
}

// file lists a written artifact.
func (c console) file(path string) {
	fmt.Fprintln(c.w, "  "+styleFaint.Render("→")+" "+styleText.Render(path))
}

// field prints a labeled value with the labels in one column.
func (c console) field(key, value string) {
	fmt.Fprintln(c.w, styleMuted.Width(12).Render(key)+" "+styleText.Render(value))
}

// summary prints the size of a layout and whether it came from the cache,
// e.g. "3 nodes · 2 edges · cached".
func (c console) summary(nodes, edges int, cached bool) {
	parts := []string{
		styleFaint.Render(plural(nodes, "node")),
		styleFaint.Render(plural(edges, "edge")),
	}
	if cached {
		parts = append(parts, styleOK.Render("cached"))
	} else {
		parts = append(parts, styleMuted.Render("fresh"))
	}
	fmt.Fprintln(c.w, "  "+strings.Join(parts, styleFaint.Render(" · ")))
}

// hint suggests the command to run next.
func (c console) hint(what, command string) {
	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, styleFaint.Render(what+":")+" "+styleLink.Render(command))
}

func (c console) table(headers []string, rows [][]string) {
	fmt.Fprintln(c.w, renderTable(headers, rows))
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// renderTable renders rows under headers with a rounded border. The first
// column is highlighted.
func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleFaint).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHeader
			case col == 0:
				return styleAccent
			}
			return styleText
		}).
		Render()
}
