package commands

import (
	"context"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"

	"github.com/diogo/techsolve/internal/api"
	"github.com/diogo/techsolve/internal/chat"
	"github.com/diogo/techsolve/internal/config"
	"github.com/diogo/techsolve/internal/tui"
)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunChat(ctx context.Context, session *chat.Session, opts tui.Options) error
}

// ClientFactory builds the troubleshooting client from the loaded configuration.
type ClientFactory func(ctx context.Context, cfg config.Config, logger *zap.Logger) (api.Troubleshooter, error)

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// NewClient builds the Gemini client.
	NewClient ClientFactory

	// TUI is the terminal user interface.
	TUI TUIInterface

	// LoadConfig reads the user configuration.
	LoadConfig func() (config.Config, error)

	// Clipboard copies answers when copy_to_clipboard is enabled.
	Clipboard func(string) error

	// IsTerminal reports whether stdout is a terminal.
	IsTerminal func() bool

	// Stdin is read when no prompt argument is given.
	Stdin io.Reader
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) RunChat(ctx context.Context, session *chat.Session, opts tui.Options) error {
	return tui.RunChat(ctx, session, opts)
}

// NewGeminiClient is the production ClientFactory.
func NewGeminiClient(ctx context.Context, cfg config.Config, logger *zap.Logger) (api.Troubleshooter, error) {
	client, err := api.NewClient(ctx, cfg.APIKey,
		api.WithModel(cfg.Model),
		api.WithThinkingBudget(cfg.ThinkingBudget),
		api.WithGoogleSearch(cfg.GoogleSearch),
		api.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		NewClient:  NewGeminiClient,
		TUI:        &DefaultTUI{},
		LoadConfig: config.LoadConfig,
		Clipboard:  clipboard.WriteAll,
		IsTerminal: isStdoutTTY,
		Stdin:      os.Stdin,
	}
}

// withDefaults fills unset fields from NewDependencies
func (d *Dependencies) withDefaults() *Dependencies {
	def := NewDependencies()
	if d == nil {
		return def
	}
	out := *d
	if out.NewClient == nil {
		out.NewClient = def.NewClient
	}
	if out.TUI == nil {
		out.TUI = def.TUI
	}
	if out.LoadConfig == nil {
		out.LoadConfig = def.LoadConfig
	}
	if out.Clipboard == nil {
		out.Clipboard = def.Clipboard
	}
	if out.IsTerminal == nil {
		out.IsTerminal = def.IsTerminal
	}
	if out.Stdin == nil {
		out.Stdin = def.Stdin
	}
	return &out
}
