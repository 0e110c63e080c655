package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/diogo/techsolve/internal/chat"
	apierrors "github.com/diogo/techsolve/internal/errors"
	"github.com/diogo/techsolve/internal/models"
	"github.com/diogo/techsolve/internal/render"
)

// Gradient colors for animation
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#38bdf8"), // Sky
	lipgloss.Color("#22d3ee"), // Cyan
	lipgloss.Color("#2dd4bf"), // Teal
	lipgloss.Color("#34d399"), // Emerald
	lipgloss.Color("#a3e635"), // Lime
	lipgloss.Color("#facc15"), // Amber
	lipgloss.Color("#818cf8"), // Indigo
	lipgloss.Color("#60a5fa"), // Blue
}

var (
	colorText     = lipgloss.Color("#e2e8f0")
	colorTextDim  = lipgloss.Color("#94a3b8")
	colorTextMute = lipgloss.Color("#475569")
	colorSuccess  = lipgloss.Color("#34d399")
	colorPrimary  = lipgloss.Color("#38bdf8")
	colorError    = lipgloss.Color("#f87171")
)

// Styles matching the chat TUI
var (
	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	assistantBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Foreground(colorText).
				Padding(0, 1).
				MarginTop(1).
				MarginBottom(1)

	sourcesHeaderStyle = lipgloss.NewStyle().
				Foreground(colorTextDim).
				Bold(true)

	sourceURLStyle = lipgloss.NewStyle().
			Foreground(colorTextMute).
			Underline(true)
)

// errDiagnosisFailed is returned when the model call fails. The cause is
// logged by the session and never shown to the user.
var errDiagnosisFailed = errors.New("diagnosis failed")

// spinner handles the animated loading indicator
type spinner struct {
	out     io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool // Flag to prevent double-close
}

// newSpinner creates a new animated spinner writing to out
func newSpinner(out io.Writer, message string) *spinner {
	return &spinner{
		out:     out,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// start begins the animation
func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		// Hide cursor
		fmt.Fprint(s.out, "\033[?25l")

		for {
			select {
			case <-s.stop:
				// Clear line and show cursor
				fmt.Fprint(s.out, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

// setMessage replaces the text shown next to the animation
func (s *spinner) setMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// render draws the current animation frame
func (s *spinner) render() {
	// Spinner characters
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "█", "█", "▓", "▒", "░"}

	spinIdx := s.frame % len(chars)
	spinColor := gradientColors[s.frame%len(gradientColors)]
	spinnerChar := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[spinIdx])

	// Build animated bar
	barWidth := 16
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		colorIdx := (i + s.frame) % len(gradientColors)
		charIdx := (i + s.frame/2) % len(barChars)
		style := lipgloss.NewStyle().Foreground(gradientColors[colorIdx])
		bar.WriteString(style.Render(barChars[charIdx]))
	}

	msg := lipgloss.NewStyle().Foreground(colorText).Render(s.message)

	fmt.Fprintf(s.out, "\r\033[K%s %s %s", spinnerChar, bar.String(), msg)
}

// stopOnce safely closes the stop channel only once
func (s *spinner) stopOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

// stopWithSuccess stops the spinner and shows success message
func (s *spinner) stopWithSuccess(message string) {
	s.stopOnce()
	<-s.done

	checkmark := lipgloss.NewStyle().Foreground(colorSuccess).Bold(true).Render("✓")
	msg := lipgloss.NewStyle().Foreground(colorSuccess).Render(message)
	fmt.Fprintf(s.out, "%s %s\n", checkmark, msg)
}

// stopWithError stops the spinner and shows error
func (s *spinner) stopWithError() {
	s.stopOnce()
	<-s.done
}

// followStatus mirrors the session's diagnostic statuses on the spinner
// until stop is closed
func followStatus(spin *spinner, updates <-chan models.DiagnosticState, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case d := <-updates:
			if d.IsAnalyzing && d.Status != "" {
				spin.setMessage(fmt.Sprintf("%s %d%%", d.Status, d.Progress))
			}
		}
	}
}

// runQuery sends a single prompt and prints the answer.
// Decoration is skipped with --raw or when stdout is not a terminal.
func (a *app) runQuery(cmd *cobra.Command, prompt string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()
	rawOutput := a.flags.raw || !a.deps.IsTerminal()

	prompt = strings.TrimSpace(prompt)
	if prompt == "" && a.flags.image == "" {
		return fmt.Errorf("prompt cannot be empty")
	}

	var image string
	if a.flags.image != "" {
		var err error
		image, err = chat.LoadImage(a.flags.image)
		if err != nil {
			if !rawOutput {
				fmt.Fprintln(stderr, formatErrorMessage(err, "Image rejected"))
			}
			return err
		}
	}

	client, err := a.newClient(ctx)
	if err != nil {
		return err
	}
	session := a.newSession(client)

	if timeout := a.cfg.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	a.logger.Debug("sending query",
		zap.String("model", a.cfg.Model),
		zap.String("category", string(session.Category())),
		zap.Bool("image", image != ""),
	)

	var spin *spinner
	var wg conc.WaitGroup
	stopStatus := make(chan struct{})
	if !rawOutput {
		spin = newSpinner(stderr, chat.InitialStatus)
		spin.start()
		wg.Go(func() { followStatus(spin, session.Updates(), stopStatus) })
	}

	// Track request timing for verbose output
	startTime := time.Now()
	sendErr := session.Send(ctx, prompt, image)
	requestDuration := time.Since(startTime)

	close(stopStatus)
	wg.Wait()

	if sendErr != nil {
		a.logger.Debug("query failed", zap.Duration("duration", requestDuration.Round(time.Millisecond)))
		// The session recorded the fixed connection error as the answer
		reply := lastAnswer(session.Messages())
		if rawOutput {
			fmt.Fprintln(stdout, reply.Content)
		} else {
			spin.stopWithError()
			fmt.Fprintln(stdout, renderAnswer(reply, a.renderOptions(getTerminalWidth())))
		}
		return errDiagnosisFailed
	}
	if !rawOutput {
		spin.stopWithSuccess("Diagnosis complete")
	}
	a.logger.Debug("query finished", zap.Duration("duration", requestDuration.Round(time.Millisecond)))

	answer := lastAnswer(session.Messages())
	text := answerMarkdown(answer)

	// Raw output mode: output only the raw text
	if rawOutput {
		if a.flags.output != "" {
			return writeOutput(a.flags.output, text)
		}
		fmt.Fprint(stdout, text)
		if !strings.HasSuffix(text, "\n") {
			fmt.Fprintln(stdout)
		}
		return nil
	}

	// Decorated output mode (TTY)
	fmt.Fprintln(stderr)

	if a.cfg.CopyToClipboard {
		if err := a.deps.Clipboard(text); err != nil {
			a.logger.Warn("failed to copy to clipboard", zap.Error(err))
		} else {
			fmt.Fprintln(stderr, lipgloss.NewStyle().Foreground(colorSuccess).Render("✓ Copied to clipboard"))
		}
	}

	if a.flags.output != "" {
		if err := writeOutput(a.flags.output, text); err != nil {
			return err
		}
		fmt.Fprintln(stderr, lipgloss.NewStyle().Foreground(colorSuccess).Render(
			fmt.Sprintf("✓ Answer saved to %s", a.flags.output),
		))
		return nil
	}

	fmt.Fprintln(stdout, renderAnswer(answer, a.renderOptions(getTerminalWidth())))
	return nil
}

// lastAnswer returns the newest assistant message
func lastAnswer(msgs []models.Message) models.Message {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == models.RoleAssistant {
			return msgs[i]
		}
	}
	return models.Message{}
}

// answerMarkdown returns the answer text with its sources as a markdown list
func answerMarkdown(msg models.Message) string {
	sources := msg.Sources()
	if len(sources) == 0 {
		return msg.Content
	}

	var sb strings.Builder
	sb.WriteString(strings.TrimRight(msg.Content, "\n"))
	sb.WriteString("\n\n### Verification Sources\n")
	for _, src := range sources {
		title := src.Title
		if title == "" {
			title = src.URI
		}
		fmt.Fprintf(&sb, "- [%s](%s)\n", title, src.URI)
	}
	return sb.String()
}

// renderOptions sizes the markdown renderer for the answer bubble
func (a *app) renderOptions(termWidth int) render.Options {
	bubbleWidth := termWidth - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}
	return render.OptionsFromConfig(a.cfg).WithWidth(bubbleWidth)
}

// renderAnswer draws the assistant label, the answer bubble and its sources
func renderAnswer(msg models.Message, opts render.Options) string {
	contentWidth := opts.Width - 4

	rendered, err := render.Markdown(msg.Content, opts.WithWidth(contentWidth))
	if err != nil {
		rendered = msg.Content
	}

	var sb strings.Builder
	sb.WriteString(assistantLabelStyle.Render("✦ TechSolve"))
	sb.WriteString("\n")
	sb.WriteString(assistantBubbleStyle.Width(opts.Width).Render(rendered))

	if sources := msg.Sources(); len(sources) > 0 {
		sb.WriteString("\n")
		sb.WriteString(sourcesHeaderStyle.Render("VERIFICATION SOURCES"))
		for _, src := range sources {
			title := src.Title
			if title == "" {
				title = src.URI
			}
			sb.WriteString("\n  ↗ ")
			sb.WriteString(title)
			sb.WriteString("\n    ")
			sb.WriteString(sourceURLStyle.Render(src.URI))
		}
	}
	return sb.String()
}

func writeOutput(path, text string) error {
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // default width
	}
	return width
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// formatErrorMessage formats an error with additional context from structured errors
func formatErrorMessage(err error, label string) string {
	if err == nil {
		return ""
	}

	errorStyle := lipgloss.NewStyle().Foreground(colorError)
	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)

	var sb strings.Builder
	sb.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %v", label, err)))

	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}

	switch {
	case apierrors.IsAuthError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Check GEMINI_API_KEY or run 'techsolve config set api_key <key>'"))
	case apierrors.IsRateLimitError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: You've hit the usage limit. Try again later or use a different model"))
	case apierrors.IsImageError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Use a readable image file (png, jpg, webp, gif)"))
	case apierrors.IsAPIError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Check your internet connection and try again"))
	}

	return sb.String()
}
