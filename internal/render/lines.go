package render

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BlockKind tags the shape of a rendered line
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockHeading
	BlockNumbered
	BlockBullet
	BlockInlineCode
)

func (k BlockKind) String() string {
	switch k {
	case BlockHeading:
		return "heading"
	case BlockNumbered:
		return "numbered"
	case BlockBullet:
		return "bullet"
	case BlockInlineCode:
		return "code"
	default:
		return "paragraph"
	}
}

// Block is one classified line of text.
// Level is set for headings (1-3); Prefix holds the "N." marker of numbered items.
type Block struct {
	Kind   BlockKind
	Level  int
	Prefix string
	Text   string
}

var numberedPattern = regexp.MustCompile(`^\d+\.\s`)

// ClassifyLine maps a single line to a Block. Rules are tried in order and the
// first match wins; no context from neighbouring lines is used.
func ClassifyLine(line string) Block {
	switch {
	case strings.HasPrefix(line, "### "):
		return Block{Kind: BlockHeading, Level: 3, Text: strings.TrimPrefix(line, "### ")}
	case strings.HasPrefix(line, "## "):
		return Block{Kind: BlockHeading, Level: 2, Text: strings.TrimPrefix(line, "## ")}
	case strings.HasPrefix(line, "# "):
		return Block{Kind: BlockHeading, Level: 1, Text: strings.TrimPrefix(line, "# ")}
	case numberedPattern.MatchString(line):
		num, rest, _ := strings.Cut(line, ".")
		return Block{Kind: BlockNumbered, Prefix: num + ".", Text: strings.TrimSpace(rest)}
	case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
		return Block{Kind: BlockBullet, Text: line[2:]}
	case strings.HasPrefix(line, "`") && strings.HasSuffix(line, "`"):
		return Block{Kind: BlockInlineCode, Text: strings.ReplaceAll(line, "`", "")}
	default:
		return Block{Kind: BlockParagraph, Text: line}
	}
}

// ParseLines splits text on newlines and classifies every line independently.
func ParseLines(text string) []Block {
	lines := strings.Split(text, "\n")
	blocks := make([]Block, 0, len(lines))
	for _, line := range lines {
		blocks = append(blocks, ClassifyLine(strings.TrimSuffix(line, "\r")))
	}
	return blocks
}

// lineStyles holds the lipgloss styles for each block kind
type lineStyles struct {
	h1, h2, h3 lipgloss.Style
	marker     lipgloss.Style
	item       lipgloss.Style
	code       lipgloss.Style
	paragraph  lipgloss.Style
}

func newLineStyles(theme Palette) lineStyles {
	return lineStyles{
		h1: lipgloss.NewStyle().
			Foreground(theme.Text).
			Bold(true).
			MarginTop(1),
		h2: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(theme.Border).
			MarginTop(1),
		h3: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),
		marker: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),
		item: lipgloss.NewStyle().
			Foreground(theme.Text),
		code: lipgloss.NewStyle().
			Foreground(theme.Secondary).
			Background(theme.Surface).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),
		paragraph: lipgloss.NewStyle().
			Foreground(theme.Text),
	}
}

// Lines renders text with the line classifier and the given options.
func Lines(text string, opts Options) string {
	theme, ok := LookupPalette(opts.Theme)
	if !ok {
		theme = ActivePalette()
	}
	return renderBlocks(ParseLines(text), newLineStyles(theme), opts.Width)
}

// renderBlocks renders already classified blocks, wrapping at width.
func renderBlocks(blocks []Block, styles lineStyles, width int) string {
	if width <= 0 {
		width = DefaultOptions().Width
	}

	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, renderBlock(b, styles, width))
	}
	return strings.Join(out, "\n")
}

func renderBlock(b Block, s lineStyles, width int) string {
	switch b.Kind {
	case BlockHeading:
		style := s.h1
		switch b.Level {
		case 2:
			style = s.h2
		case 3:
			style = s.h3
		}
		return style.Width(width).Render(b.Text)
	case BlockNumbered:
		return listItem(s.marker.Render(b.Prefix), b.Text, s, 2, width)
	case BlockBullet:
		return listItem(s.marker.Render("•"), b.Text, s, 4, width)
	case BlockInlineCode:
		return s.code.Render(b.Text)
	default:
		return s.paragraph.Width(width).Render(b.Text)
	}
}

func listItem(marker, text string, s lineStyles, indent, width int) string {
	head := strings.Repeat(" ", indent) + marker + " "
	bodyWidth := width - lipgloss.Width(head)
	if bodyWidth < 10 {
		bodyWidth = 10
	}
	body := s.item.Width(bodyWidth).Render(text)
	return lipgloss.JoinHorizontal(lipgloss.Top, head, body)
}
