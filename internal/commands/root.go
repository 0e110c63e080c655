// Package commands provides the techsolve command line.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/techsolve/internal/api"
	"github.com/diogo/techsolve/internal/chat"
	"github.com/diogo/techsolve/internal/config"
	apierrors "github.com/diogo/techsolve/internal/errors"
	"github.com/diogo/techsolve/internal/models"
)

var (
	// Version info (set at build time)
	Version   = "2.4.0"
	BuildTime = "unknown"
)

// rootFlags holds the flags of the command tree
type rootFlags struct {
	model    string
	category string
	output   string
	file     string
	image    string
	raw      bool
	verbose  bool
}

// app is the state shared by the commands once flags are parsed
type app struct {
	deps   *Dependencies
	flags  rootFlags
	cfg    config.Config
	logger *zap.Logger
}

// rootCmd represents the base command
var rootCmd = NewRootCmd(NewDependencies())

// NewRootCmd creates the techsolve command tree
func NewRootCmd(deps *Dependencies) *cobra.Command {
	a := &app{
		deps:   deps.withDefaults(),
		cfg:    config.DefaultConfig(),
		logger: zap.NewNop(),
	}

	cmd := &cobra.Command{
		Use:   "techsolve [prompt]",
		Short: "AI troubleshooting assistant for hardware, software, AI and networking issues",
		Long: `techsolve is a terminal troubleshooting assistant backed by Google Gemini.
Describe a technical problem, optionally attach a photo of the error, and get
a step-by-step diagnosis with links to verification sources.

Examples:
  techsolve                                   Start the interactive console
  techsolve chat -c networking                Start with the networking domain
  techsolve "Blue screen of death on startup" Ask a single question
  techsolve -c ai -i error.png "What is this" Ask with a screenshot
  techsolve -f issue.md                       Read the problem from a file
  dmesg | tail -50 | techsolve -c software    Read the problem from stdin
  techsolve "No link light" -o answer.md      Save the answer to a file`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Check for version flag
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(cmd.OutOrStdout(), "techsolve %s (built %s)\n", Version, BuildTime)
				return nil
			}

			prompt, ok, err := a.readInput(args)
			if err != nil {
				return err
			}
			if ok || a.flags.image != "" {
				return a.runQuery(cmd, prompt)
			}

			// No input - start the interactive console
			return a.runChat(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&a.flags.model, "model", "m", "", "Model to use (e.g., gemini-2.5-flash)")
	cmd.PersistentFlags().StringVarP(&a.flags.category, "category", "c", "",
		"Problem domain (hardware, software, ai, networking)")
	cmd.PersistentFlags().BoolVar(&a.flags.verbose, "verbose", false, "Enable debug logging")
	cmd.Flags().StringVarP(&a.flags.output, "output", "o", "", "Save answer to file")
	cmd.Flags().StringVarP(&a.flags.file, "file", "f", "", "Read prompt from file")
	cmd.Flags().StringVarP(&a.flags.image, "image", "i", "", "Path to image file to include")
	cmd.Flags().BoolVar(&a.flags.raw, "raw", false, "Print only the answer text, without decoration")
	cmd.Flags().BoolP("version", "v", false, "Show version and exit")

	_ = cmd.RegisterFlagCompletionFunc("category", completeCategories)

	// Add subcommands
	cmd.AddCommand(newChatCmd(a))
	cmd.AddCommand(newCategoriesCmd())
	cmd.AddCommand(newThemesCmd())
	cmd.AddCommand(NewConfigCmd(a))

	return cmd
}

// Execute runs the root command
func Execute() {
	if code := runRoot(rootCmd); code != 0 {
		os.Exit(code)
	}
}

// runRoot executes cmd under a context cancelled by Ctrl+C and returns the
// process exit code
func runRoot(cmd *cobra.Command) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

// setup loads .env and the config file, applies flag overrides and builds
// the logger
func (a *app) setup(cmd *cobra.Command) error {
	if v, _ := cmd.Flags().GetBool("version"); v {
		return nil
	}

	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	cfg, err := a.deps.LoadConfig()
	if err != nil {
		return err
	}

	if a.flags.model != "" {
		cfg.Model = a.flags.model
	}
	if a.flags.category != "" {
		cat, err := models.ParseCategory(a.flags.category)
		if err != nil {
			return err
		}
		cfg.DefaultCategory = string(cat)
	}
	if a.flags.verbose {
		cfg.Verbose = true
	}
	a.cfg = cfg

	logger, err := newStderrLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.logger = logger
	a.logger.Debug("configuration loaded",
		zap.String("model", cfg.Model),
		zap.String("category", cfg.DefaultCategory),
		zap.Bool("google_search", cfg.GoogleSearch),
	)

	return nil
}

// readInput returns the prompt from --file, the positional argument or
// piped stdin, in that order. ok is false when none was given.
func (a *app) readInput(args []string) (prompt string, ok bool, err error) {
	// Check for file input
	if a.flags.file != "" {
		data, err := os.ReadFile(a.flags.file)
		if err != nil {
			return "", false, fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), true, nil
	}

	// Check for positional argument
	if len(args) > 0 {
		return args[0], true, nil
	}

	// Check for stdin
	if !isPiped(a.deps.Stdin) {
		return "", false, nil
	}
	data, err := io.ReadAll(a.deps.Stdin)
	if err != nil {
		return "", false, fmt.Errorf("failed to read stdin: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", false, nil
	}
	return string(data), true, nil
}

// isPiped reports whether r carries redirected input rather than a terminal
func isPiped(r io.Reader) bool {
	if r == nil {
		return false
	}
	f, ok := r.(*os.File)
	if !ok {
		return true
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice == 0
}

// newClient builds the troubleshooting client with a hint for a missing key
func (a *app) newClient(ctx context.Context) (api.Troubleshooter, error) {
	client, err := a.deps.NewClient(ctx, a.cfg, a.logger)
	if err != nil {
		if errors.Is(err, apierrors.ErrMissingAPIKey) {
			return nil, fmt.Errorf("%w: set GEMINI_API_KEY or run 'techsolve config set api_key <key>'", err)
		}
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// newSession creates a session with the configured domain and pacing
func (a *app) newSession(client api.Troubleshooter) *chat.Session {
	return chat.NewSession(client,
		chat.WithCategory(a.cfg.Category()),
		chat.WithStatusInterval(a.cfg.StatusInterval()),
		chat.WithLogger(a.logger),
	)
}

func completeCategories(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var names []string
	for _, c := range models.AllCategories() {
		names = append(names, string(c.ID)+"\t"+c.Description)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
