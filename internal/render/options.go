// Package render provides markdown rendering utilities for terminal output.
package render

// Rendering engines
const (
	EngineLines   = "lines"
	EngineGlamour = "glamour"
)

// Options configures the markdown renderer behavior.
type Options struct {
	// Width defines the maximum output width (default: 80)
	Width int

	// Engine selects the line classifier ("lines") or glamour ("glamour")
	Engine string

	// Theme names the palette used by the line engine
	Theme string

	// Style is the glamour style name or path to a JSON style file
	Style string

	// EnableEmoji converts :emoji: to unicode characters (glamour only)
	EnableEmoji bool

	// PreserveNewLines preserves original line breaks (glamour only)
	PreserveNewLines bool
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	return Options{
		Width:            80,
		Engine:           EngineLines,
		Style:            StyleDark,
		EnableEmoji:      true,
		PreserveNewLines: true,
	}
}

// WithWidth returns Options with the specified width.
func (o Options) WithWidth(width int) Options {
	o.Width = width
	return o
}

// WithEngine returns Options with the specified engine.
func (o Options) WithEngine(engine string) Options {
	o.Engine = engine
	return o
}

// WithStyle returns Options with the specified glamour style.
func (o Options) WithStyle(style string) Options {
	o.Style = style
	return o
}

// WithTheme returns Options with the specified TUI theme.
func (o Options) WithTheme(theme string) Options {
	o.Theme = theme
	return o
}
