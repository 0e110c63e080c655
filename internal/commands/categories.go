package commands

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/diogo/techsolve/internal/models"
	"github.com/diogo/techsolve/internal/render"
)

var (
	listNameStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Width(14)
	listDescStyle = lipgloss.NewStyle().Foreground(colorTextDim)
	listHeadStyle = lipgloss.NewStyle().Foreground(colorText).Bold(true).MarginTop(1)
)

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "categories",
		Aliases: []string{"domains"},
		Short:   "List the problem domains",
		Long: `List the problem domains that steer the diagnosis.

Pass one with --category (-c), or switch inside the console with Tab or
/category.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printCategories(cmd.OutOrStdout())
			return nil
		},
	}
}

func printCategories(w io.Writer) {
	for _, c := range models.AllCategories() {
		marker := "  "
		if c.ID == models.DefaultCategory {
			marker = "* "
		}
		fmt.Fprintf(w, "%s%s %s %s\n",
			marker,
			c.Icon,
			listNameStyle.Render(string(c.ID)),
			listDescStyle.Render(c.Label+" - "+c.Description),
		)
	}
}

func newThemesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "List console themes and markdown styles",
		Long: `List the console colour themes (config key tui_theme) and the glamour
markdown styles (config key markdown.style, used when markdown.engine is
glamour).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printThemes(cmd.OutOrStdout())
			return nil
		},
	}
}

func printThemes(w io.Writer) {
	fmt.Fprintln(w, listHeadStyle.Render("Console themes (tui_theme)"))
	for _, t := range render.Palettes() {
		fmt.Fprintf(w, "  %s %s\n", listNameStyle.Render(t.Name), listDescStyle.Render(t.Description))
	}

	fmt.Fprintln(w, listHeadStyle.Render("Markdown styles (markdown.style)"))
	for _, s := range render.AvailableStyles() {
		fmt.Fprintf(w, "  %s %s\n", listNameStyle.Render(s.Name), listDescStyle.Render(s.Description))
	}
}
