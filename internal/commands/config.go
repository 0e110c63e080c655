package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/diogo/techsolve/internal/config"
	apierrors "github.com/diogo/techsolve/internal/errors"
	"github.com/diogo/techsolve/internal/render"
)

// NewConfigCmd creates the config command and its subcommands
func NewConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
		Long: `Show or change techsolve settings.

Settings live in ~/.techsolve/config.json (TECHSOLVE_HOME overrides the
directory). Environment variables such as GEMINI_API_KEY, TECHSOLVE_MODEL
and TECHSOLVE_CATEGORY take precedence over the file, and a .env file in
the working directory is loaded first.`,
	}

	cmd.AddCommand(
		newConfigShowCmd(a),
		newConfigGetCmd(a),
		newConfigSetCmd(),
		newConfigPathCmd(),
	)
	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if cfg.APIKey != "" {
				cfg.APIKey = maskKey(cfg.APIKey)
			}
			data, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newConfigGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <path>",
		Short: "Print one setting, e.g. markdown.engine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, ok := config.Get(a.cfg, args[0])
			if !ok {
				return apierrors.NewConfigError(args[0], "unknown setting", nil)
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "set <key> <value>",
		Short:     "Change one setting and save it",
		Args:      cobra.ExactArgs(2),
		ValidArgs: config.Keys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			if err := validateSetting(key, value); err != nil {
				return err
			}

			// Start from the file alone so environment overrides are not persisted
			cfg, err := config.LoadFileConfig()
			if err != nil {
				return err
			}
			if err := config.Set(&cfg, key, value); err != nil {
				return err
			}
			if err := config.SaveConfig(cfg); err != nil {
				return err
			}

			shown := value
			if key == "api_key" {
				shown = maskKey(value)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s = %s\n", key, shown)
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

// validateSetting checks values whose valid set lives in the render package
func validateSetting(key, value string) error {
	switch key {
	case "tui_theme":
		if !slices.Contains(render.PaletteNames(), value) {
			return apierrors.NewConfigError(key, fmt.Sprintf("unknown theme %q, see 'techsolve themes'", value), nil)
		}
	case "markdown.style":
		if render.IsBuiltinStyle(value) {
			return nil
		}
		if _, err := os.Stat(value); err != nil {
			return apierrors.NewConfigError(key, "not a built-in style or readable style file", err)
		}
	}
	return nil
}

// maskKey keeps only the last four characters of a secret
func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
