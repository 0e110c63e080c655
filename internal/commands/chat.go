package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/techsolve/internal/render"
	"github.com/diogo/techsolve/internal/tui"
)

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start the interactive troubleshooting console",
		Long: `Start the interactive troubleshooting console.

The console keeps the conversation in memory while it runs. Use Tab or
/category to switch the problem domain, /image to attach a photo of the
error and /help to list every command. Type 'exit', 'quit', or press
Ctrl+C to end the session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChat(cmd)
		},
	}
}

// runChat starts the chat TUI. Logs go to a file while it runs.
func (a *app) runChat(cmd *cobra.Command) error {
	logger, err := newFileLogger(a.cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	_ = a.logger.Sync()
	a.logger = logger

	ctx := cmd.Context()
	client, err := a.newClient(ctx)
	if err != nil {
		return err
	}
	session := a.newSession(client)

	if a.cfg.TUITheme != "" && !render.UsePalette(a.cfg.TUITheme) {
		a.logger.Warn("unknown tui theme, using default", zap.String("theme", a.cfg.TUITheme))
	}
	tui.UpdateTheme()

	a.logger.Info("starting chat",
		zap.String("model", a.cfg.Model),
		zap.String("category", string(session.Category())),
	)

	return a.deps.TUI.RunChat(ctx, session, tui.Options{
		ModelName:       a.cfg.Model,
		Render:          render.OptionsFromConfig(a.cfg),
		RequestTimeout:  a.cfg.Timeout(),
		CopyToClipboard: a.cfg.CopyToClipboard,
		Logger:          a.logger,
	})
}
