package render

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// DefaultPalette is used until the configuration selects another one
const DefaultPalette = "slate"

// Palette is the colour set shared by the chat screen, the diagnostic
// console and the line renderer.
type Palette struct {
	Name        string
	Description string

	Surface lipgloss.Color // panels and inline code
	Border  lipgloss.Color

	Primary   lipgloss.Color // headings, list markers, user bubbles
	Secondary lipgloss.Color // success and code
	Accent    lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color

	Text     lipgloss.Color
	TextDim  lipgloss.Color
	TextMute lipgloss.Color
}

var palettes = []Palette{
	{
		Name:        "slate",
		Description: "Dark slate console with blue and emerald accents",
		Surface:     "#0f172a",
		Border:      "#1e293b",
		Primary:     "#3b82f6",
		Secondary:   "#10b981",
		Accent:      "#818cf8",
		Warning:     "#f59e0b",
		Error:       "#ef4444",
		Text:        "#e2e8f0",
		TextDim:     "#94a3b8",
		TextMute:    "#475569",
	},
	{
		Name:        "phosphor",
		Description: "Green phosphor terminal",
		Surface:     "#0a140a",
		Border:      "#1f3d1f",
		Primary:     "#39ff14",
		Secondary:   "#7cfc00",
		Accent:      "#adff2f",
		Warning:     "#e5e500",
		Error:       "#ff5f5f",
		Text:        "#c8facc",
		TextDim:     "#5f9f5f",
		TextMute:    "#2f5f2f",
	},
	{
		Name:        "amber",
		Description: "Amber monochrome service monitor",
		Surface:     "#1a1000",
		Border:      "#4d3300",
		Primary:     "#ffb000",
		Secondary:   "#ffcc66",
		Accent:      "#ff9500",
		Warning:     "#ffd966",
		Error:       "#ff4d4d",
		Text:        "#ffe0a3",
		TextDim:     "#b38600",
		TextMute:    "#664d00",
	},
	{
		Name:        "daylight",
		Description: "Light background for bright terminals",
		Surface:     "#f1f5f9",
		Border:      "#cbd5e1",
		Primary:     "#1d4ed8",
		Secondary:   "#047857",
		Accent:      "#6d28d9",
		Warning:     "#b45309",
		Error:       "#b91c1c",
		Text:        "#0f172a",
		TextDim:     "#475569",
		TextMute:    "#94a3b8",
	},
}

var (
	paletteMu sync.RWMutex
	active    = palettes[0]
)

// Palettes returns every built-in palette, default first
func Palettes() []Palette {
	out := make([]Palette, len(palettes))
	copy(out, palettes)
	return out
}

// PaletteNames returns the names accepted by UsePalette
func PaletteNames() []string {
	names := make([]string, 0, len(palettes))
	for _, p := range palettes {
		names = append(names, p.Name)
	}
	return names
}

// LookupPalette finds a palette by name
func LookupPalette(name string) (Palette, bool) {
	for _, p := range palettes {
		if p.Name == name {
			return p, true
		}
	}
	return Palette{}, false
}

// ActivePalette returns the palette currently in use
func ActivePalette() Palette {
	paletteMu.RLock()
	defer paletteMu.RUnlock()
	return active
}

// UsePalette switches the active palette. Unknown names leave it unchanged.
func UsePalette(name string) bool {
	p, ok := LookupPalette(name)
	if !ok {
		return false
	}
	paletteMu.Lock()
	active = p
	paletteMu.Unlock()
	return true
}
