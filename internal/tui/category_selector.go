package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/diogo/techsolve/internal/models"
)

// CategorySelectorModel lets the user pick a problem domain
type CategorySelectorModel struct {
	categories []models.CategoryInfo
	cursor     int

	confirmed bool
	cancelled bool
}

// NewCategorySelectorModel creates a selector with the cursor on current
func NewCategorySelectorModel(current models.Category) CategorySelectorModel {
	m := CategorySelectorModel{categories: models.AllCategories()}
	for i, c := range m.categories {
		if c.ID == current {
			m.cursor = i
		}
	}
	return m
}

// Update handles key presses
func (m CategorySelectorModel) Update(msg tea.Msg) (CategorySelectorModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "esc", "q":
		m.cancelled = true
		m.confirmed = true

	case "up", "k", "shift+tab":
		m.cursor--
		if m.cursor < 0 {
			m.cursor = len(m.categories) - 1
		}

	case "down", "j", "tab":
		m.cursor++
		if m.cursor >= len(m.categories) {
			m.cursor = 0
		}

	case "1", "2", "3", "4":
		idx := int(key.String()[0] - '1')
		if idx < len(m.categories) {
			m.cursor = idx
			m.confirmed = true
		}

	case "enter":
		m.confirmed = true
	}

	return m, nil
}

// View renders the selector panel
func (m CategorySelectorModel) View(width int) string {
	var b strings.Builder

	b.WriteString(selectorTitleStyle.Render("Problem Domain"))
	b.WriteString("\n")

	for i, c := range m.categories {
		line := c.Icon + " " + c.Label
		if i == m.cursor {
			b.WriteString(selectorCursorStyle.Render("> " + line))
		} else {
			b.WriteString("  " + sidebarItemStyle.Render(line))
		}
		b.WriteString("\n")
		b.WriteString(sidebarDescStyle.Render(c.Description))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(hintStyle.Render("↑↓ move  Enter select  1-4 quick pick  Esc cancel"))

	if width > 4 {
		return selectorPanelStyle.Width(width - 2).Render(b.String())
	}
	return selectorPanelStyle.Render(b.String())
}

// Selected returns the category under the cursor
func (m CategorySelectorModel) Selected() models.Category {
	if len(m.categories) == 0 {
		return models.DefaultCategory
	}
	return m.categories[m.cursor].ID
}

// IsConfirmed returns whether the user confirmed the selection
func (m CategorySelectorModel) IsConfirmed() bool {
	return m.confirmed && !m.cancelled
}

// IsCancelled returns whether the user cancelled
func (m CategorySelectorModel) IsCancelled() bool {
	return m.cancelled
}

// Done reports whether the selector should close
func (m CategorySelectorModel) Done() bool {
	return m.confirmed
}
