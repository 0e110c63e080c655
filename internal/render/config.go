package render

import (
	"github.com/diogo/techsolve/internal/config"
)

// OptionsFromConfig builds render options from a loaded configuration.
func OptionsFromConfig(cfg config.Config) Options {
	opts := DefaultOptions()

	md := cfg.Markdown
	if md.Engine != "" {
		opts.Engine = md.Engine
	}
	if md.Style != "" {
		opts.Style = md.Style
	}
	opts.EnableEmoji = md.EnableEmoji
	opts.PreserveNewLines = md.PreserveNewLines
	opts.Theme = cfg.TUITheme

	return opts
}

// LoadOptionsFromConfig loads render options from the user configuration,
// falling back to defaults when it cannot be read.
func LoadOptionsFromConfig() Options {
	cfg, err := config.LoadConfig()
	if err != nil {
		return DefaultOptions()
	}
	return OptionsFromConfig(cfg)
}

// LoadOptionsFromConfigWithWidth loads options from config with a specific width.
func LoadOptionsFromConfigWithWidth(width int) Options {
	return LoadOptionsFromConfig().WithWidth(width)
}
