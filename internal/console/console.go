// Package console keeps the scrolling log of diagnostic statuses shown
// while a request is in flight.
package console

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/techsolve/internal/models"
	"github.com/diogo/techsolve/internal/render"
)

// MaxEntries is the number of status lines retained
const MaxEntries = 10

const (
	title      = "Diagnostic Console"
	bodyHeight = 4
	cursor     = "_"
)

// Console accumulates "> status" lines while analysis is active and
// forgets them as soon as it stops. The zero value is ready to use.
type Console struct {
	entries []string
	active  bool
	last    string
}

// Observe feeds the latest diagnostic state into the console
func (c *Console) Observe(d models.DiagnosticState) {
	if !d.IsAnalyzing {
		c.entries = nil
		c.active = false
		c.last = ""
		return
	}

	c.active = true
	if d.Status == "" || d.Status == c.last {
		return
	}
	c.last = d.Status

	c.entries = append(c.entries, "> "+d.Status)
	if len(c.entries) > MaxEntries {
		c.entries = append([]string(nil), c.entries[len(c.entries)-MaxEntries:]...)
	}
}

// Lines returns a copy of the retained entries, oldest first
func (c *Console) Lines() []string {
	return append([]string(nil), c.entries...)
}

// Len returns the number of retained entries
func (c *Console) Len() int {
	return len(c.entries)
}

// Active reports whether the console is currently shown
func (c *Console) Active() bool {
	return c.active
}

// View renders the console box. It returns "" when inactive.
func (c *Console) View(width int) string {
	if !c.active && len(c.entries) == 0 {
		return ""
	}

	theme := render.ActivePalette()
	if width < 20 {
		width = 20
	}

	dots := lipgloss.JoinHorizontal(lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.Error).Render("●"),
		" ",
		lipgloss.NewStyle().Foreground(theme.Warning).Render("●"),
		" ",
		lipgloss.NewStyle().Foreground(theme.Secondary).Render("●"),
	)
	header := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(theme.Border).
		Width(width - 4).
		Render(dots + "  " + lipgloss.NewStyle().Foreground(theme.TextDim).Render(title))

	// keep the newest lines in view
	body := c.Lines()
	if c.active {
		body = append(body, cursor)
	}
	if len(body) > bodyHeight {
		body = body[len(body)-bodyHeight:]
	}

	logStyle := lipgloss.NewStyle().Foreground(theme.Secondary)
	rendered := make([]string, len(body))
	for i, line := range body {
		rendered[i] = logStyle.MaxWidth(width - 4).Render(line)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Padding(0, 1).
		Width(width - 2).
		Render(header + "\n" + strings.Join(rendered, "\n"))
}
