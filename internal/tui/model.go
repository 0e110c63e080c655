package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/diogo/techsolve/internal/chat"
	"github.com/diogo/techsolve/internal/console"
	"github.com/diogo/techsolve/internal/history"
	"github.com/diogo/techsolve/internal/models"
	"github.com/diogo/techsolve/internal/render"
)

const (
	appName        = "TechSolve AI"
	appVersionLine = "Diagnostic Core v2.4.0"
	safetyFooter   = "Always verify voltage readings before touching internal hardware components."
	recentLimit    = 5
	sidebarWidth   = 34
	sidebarMinTerm = 110
)

// Message types for the TUI
type (
	sendDoneMsg struct {
		err error
	}
	diagnosticMsg models.DiagnosticState
	clipboardMsg  struct {
		err error
	}
)

// Options configures the chat model
type Options struct {
	ModelName       string
	Render          render.Options
	RequestTimeout  time.Duration
	CopyToClipboard bool
	Logger          *zap.Logger
}

// Model represents the TUI state
type Model struct {
	ctx     context.Context
	session *chat.Session
	opts    Options
	logger  *zap.Logger

	// writeClipboard is swapped in tests
	writeClipboard func(string) error

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	progress progress.Model
	console  console.Console

	// State
	diagnostic models.DiagnosticState
	selecting  bool
	selector   CategorySelectorModel
	ready      bool
	err        error
	notice     string

	// Dimensions
	width  int
	height int
}

// NewChatModel creates a new chat TUI model
func NewChatModel(ctx context.Context, session *chat.Session, opts Options) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Render.Width == 0 {
		opts.Render = render.DefaultOptions()
	}

	ta := textarea.New()
	ta.Placeholder = placeholderFor(session.Category())
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = loadingStyle

	bar := progress.New(
		progress.WithGradient(string(colorPrimary), string(colorSecondary)),
		progress.WithoutPercentage(),
	)
	bar.Width = 30

	return Model{
		ctx:            ctx,
		session:        session,
		opts:           opts,
		logger:         logger,
		writeClipboard: clipboard.WriteAll,
		textarea:       ta,
		spinner:        s,
		progress:       bar,
	}
}

func placeholderFor(c models.Category) string {
	return fmt.Sprintf("Describe your %s issue...", c)
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		waitForDiagnostic(m.session.Updates()),
	)
}

// waitForDiagnostic turns the next session update into a tea message
func waitForDiagnostic(updates <-chan models.DiagnosticState) tea.Cmd {
	return func() tea.Msg {
		d, ok := <-updates
		if !ok {
			return nil
		}
		return diagnosticMsg(d)
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if m.selecting {
		if key, ok := msg.(tea.KeyMsg); ok {
			return m.updateSelector(key)
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(m.mainWidth()-4, 5)
			m.ready = true
		}
		m.textarea.SetWidth(m.mainWidth() - 6)
		m.layout()
		m.updateViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			if m.err != nil || m.notice != "" {
				m.err = nil
				m.notice = ""
				m.layout()
				return m, nil
			}
			return m, tea.Quit

		case "tab":
			if !m.diagnostic.IsAnalyzing {
				m.setCategory(m.session.Category().Next())
			}
			return m, nil

		case "enter":
			return m.submit()
		}

	case diagnosticMsg:
		d := models.DiagnosticState(msg)
		wasAnalyzing := m.diagnostic.IsAnalyzing
		m.diagnostic = d
		m.console.Observe(d)
		if d.IsAnalyzing && !wasAnalyzing {
			cmds = append(cmds, m.spinner.Tick)
		}
		m.layout()
		m.updateViewport()
		m.viewport.GotoBottom()
		cmds = append(cmds, waitForDiagnostic(m.session.Updates()))

	case sendDoneMsg:
		m.diagnostic = m.session.Diagnostic()
		m.console.Observe(m.diagnostic)
		if msg.err != nil {
			// the transcript already holds the connection error text
			m.logger.Warn("send finished with error", zap.Error(msg.err))
		} else if m.opts.CopyToClipboard {
			if text, ok := m.lastAnswer(); ok {
				cmds = append(cmds, m.copyCmd(text))
			}
		}
		m.textarea.Focus()
		m.layout()
		m.updateViewport()
		m.viewport.GotoBottom()

	case clipboardMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("clipboard: %w", msg.err)
		} else {
			m.notice = "Answer copied to clipboard"
		}
		m.layout()

	case spinner.TickMsg:
		if m.diagnostic.IsAnalyzing {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	// Only pass KeyMsg to textarea to prevent escape sequence leaks
	if !m.diagnostic.IsAnalyzing {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) updateSelector(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.selector, _ = m.selector.Update(key)
	if m.selector.Done() {
		m.selecting = false
		if m.selector.IsConfirmed() {
			m.setCategory(m.selector.Selected())
		}
		m.layout()
	}
	return m, nil
}

func (m *Model) setCategory(c models.Category) {
	if err := m.session.SetCategory(c); err != nil {
		m.err = err
		return
	}
	m.textarea.Placeholder = placeholderFor(m.session.Category())
	m.notice = "Domain set to " + m.session.Category().Info().Label
}

// submit handles Enter: slash commands run locally, text is sent
func (m Model) submit() (tea.Model, tea.Cmd) {
	input := m.textarea.Value()
	trimmed := strings.TrimSpace(input)

	if strings.HasPrefix(trimmed, "/") || trimmed == "exit" || trimmed == "quit" {
		return m.runCommand(trimmed)
	}

	if m.diagnostic.IsAnalyzing || m.session.Busy() {
		return m, nil
	}

	image := m.session.PendingImage()
	if trimmed == "" && image == "" {
		return m, nil
	}

	m.textarea.Reset()
	m.textarea.Blur()
	m.err = nil
	m.notice = ""
	m.diagnostic = models.DiagnosticState{IsAnalyzing: true, Status: chat.InitialStatus}
	m.layout()

	return m, tea.Batch(
		m.sendCmd(input, image),
		m.spinner.Tick,
	)
}

// sendCmd runs the blocking Send on a command goroutine
func (m Model) sendCmd(input, image string) tea.Cmd {
	session := m.session
	parent := m.ctx
	timeout := m.opts.RequestTimeout

	return func() tea.Msg {
		ctx := parent
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(parent, timeout)
			defer cancel()
		}
		return sendDoneMsg{err: session.Send(ctx, input, image)}
	}
}

const helpText = "/category [name]  /image <path>  /noimage  /clear  /try <1-4>  /export [file]  /copy  /quit"

// runCommand executes a slash command typed in the input box
func (m Model) runCommand(line string) (tea.Model, tea.Cmd) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	m.err = nil
	m.notice = ""
	m.textarea.Reset()

	var cmd tea.Cmd
	switch strings.ToLower(name) {
	case "/quit", "/exit", "exit", "quit":
		return m, tea.Quit

	case "/help":
		m.notice = helpText

	case "/category", "/domain":
		if arg == "" {
			m.selector = NewCategorySelectorModel(m.session.Category())
			m.selecting = true
			break
		}
		c, err := models.ParseCategory(arg)
		if err != nil {
			m.err = err
			break
		}
		m.setCategory(c)

	case "/image":
		if arg == "" {
			m.err = fmt.Errorf("usage: /image <path>")
			break
		}
		uri, err := chat.LoadImage(expandHome(arg))
		if err != nil {
			m.err = err
			break
		}
		m.session.AttachImage(uri)
		m.notice = "Image attached for visual diagnostic: " + filepath.Base(arg)

	case "/noimage":
		m.session.ClearImage()
		m.notice = "Image removed"

	case "/clear":
		m.session.Reset()
		m.notice = "Console cleared"
		m.updateViewport()

	case "/try":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > len(models.ExamplePrompts) {
			m.err = fmt.Errorf("usage: /try <1-%d>", len(models.ExamplePrompts))
			break
		}
		m.textarea.SetValue(models.ExamplePrompts[n-1])

	case "/export":
		path := arg
		if path == "" {
			path = fmt.Sprintf("techsolve-%s.md", time.Now().Format("20060102-150405"))
		}
		format, err := history.WriteFile(expandHome(path), m.transcript(), history.DefaultExportOptions())
		if err != nil {
			m.err = err
			break
		}
		m.notice = fmt.Sprintf("Transcript exported to %s (%s)", path, format)

	case "/copy":
		text, ok := m.lastAnswer()
		if !ok {
			m.err = fmt.Errorf("nothing to copy yet")
			break
		}
		cmd = m.copyCmd(text)

	default:
		m.err = fmt.Errorf("unknown command %q, try /help", name)
	}

	m.layout()
	return m, cmd
}

func (m Model) transcript() history.Transcript {
	return history.Transcript{
		Category:   m.session.Category(),
		Model:      m.opts.ModelName,
		ExportedAt: time.Now(),
		Messages:   m.session.Messages(),
	}
}

func (m Model) lastAnswer() (string, bool) {
	msgs := m.session.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == models.RoleAssistant {
			return msgs[i].Content, true
		}
	}
	return "", false
}

func (m Model) copyCmd(text string) tea.Cmd {
	write := m.writeClipboard
	return func() tea.Msg {
		return clipboardMsg{err: write(text)}
	}
}

func expandHome(path string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return path
}

// showSidebar reports whether the terminal is wide enough for the sidebar
func (m Model) showSidebar() bool {
	return m.width >= sidebarMinTerm
}

// mainWidth is the width of the chat column
func (m Model) mainWidth() int {
	w := m.width
	if m.showSidebar() {
		w -= sidebarWidth
	}
	if w < 20 {
		w = 20
	}
	return w
}

// layout sizes the viewport to the space left by the other panels
func (m *Model) layout() {
	if !m.ready {
		return
	}

	used := lipgloss.Height(m.renderHeader())
	used += lipgloss.Height(m.renderInput())
	used += lipgloss.Height(m.renderStatusBar())
	used += 1 // footer
	used += 2 // messages border
	if !m.showSidebar() {
		used += 1 // recent logs line
	}
	if a := m.renderAnalyzing(); a != "" {
		used += lipgloss.Height(a)
	}
	if f := m.renderFeedback(); f != "" {
		used += lipgloss.Height(f)
	}

	vpHeight := m.height - used
	if vpHeight < 3 {
		vpHeight = 3
	}
	m.viewport.Width = m.mainWidth() - 4
	m.viewport.Height = vpHeight
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	if m.selecting {
		return m.selector.View(m.mainWidth())
	}

	var sections []string
	width := m.mainWidth()

	sections = append(sections, m.renderHeader())
	if !m.showSidebar() {
		sections = append(sections, m.renderRecentLine(width))
	}

	var body string
	if len(m.session.Messages()) == 0 && !m.diagnostic.IsAnalyzing {
		body = m.renderWelcome()
	} else {
		body = m.viewport.View()
	}
	sections = append(sections, messagesAreaStyle.
		Width(width-2).
		Height(m.viewport.Height).
		Render(body))

	if a := m.renderAnalyzing(); a != "" {
		sections = append(sections, a)
	}

	sections = append(sections, m.renderInput())

	if f := m.renderFeedback(); f != "" {
		sections = append(sections, f)
	}

	sections = append(sections, m.renderStatusBar())
	sections = append(sections, footerStyle.Width(width).Render(strings.ToUpper(safetyFooter)))

	main := lipgloss.JoinVertical(lipgloss.Left, sections...)
	if !m.showSidebar() {
		return main
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(lipgloss.Height(main)), main)
}

func (m Model) renderHeader() string {
	sep := hintStyle.Render("  •  ")
	parts := []string{
		titleStyle.Render("✦ " + appName),
		sep,
		subtitleStyle.Render("Domain: "),
		domainStyle.Render(strings.ToUpper(string(m.session.Category()))),
	}
	if m.opts.ModelName != "" {
		parts = append(parts, sep, subtitleStyle.Render(m.opts.ModelName))
	}
	content := lipgloss.JoinHorizontal(lipgloss.Center, parts...)
	return headerStyle.Width(m.mainWidth() - 2).Render(content)
}

func (m Model) renderSidebar(height int) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(appName))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render(appVersionLine))
	b.WriteString("\n")

	b.WriteString(sidebarHeadingStyle.Render("PROBLEM DOMAIN"))
	b.WriteString("\n")
	current := m.session.Category()
	for _, c := range models.AllCategories() {
		line := c.Icon + " " + c.Label
		if c.ID == current {
			b.WriteString(sidebarSelectedStyle.Render("▌" + line))
		} else {
			b.WriteString(sidebarItemStyle.Render(" " + line))
		}
		b.WriteString("\n")
		b.WriteString(sidebarDescStyle.Width(sidebarWidth - 4).Render(c.Description))
		b.WriteString("\n")
	}

	b.WriteString(sidebarHeadingStyle.Render("RECENT LOGS"))
	b.WriteString("\n")
	recent := m.session.RecentPrompts(recentLimit)
	if len(recent) == 0 {
		b.WriteString(sidebarEmptyStyle.Render("No diagnostic history yet."))
		b.WriteString("\n")
	}
	for _, p := range recent {
		b.WriteString(sidebarItemStyle.MaxWidth(sidebarWidth - 4).Render("• " + firstLine(p)))
		b.WriteString("\n")
	}

	status := "● SYSTEM READY"
	if m.diagnostic.IsAnalyzing {
		status = "● ANALYZING"
	}
	b.WriteString(systemReadyStyle.Render(status))

	h := height - 2
	if h < 1 {
		h = 1
	}
	return sidebarStyle.Width(sidebarWidth - 2).Height(h).Render(b.String())
}

func (m Model) renderRecentLine(width int) string {
	recent := m.session.RecentPrompts(recentLimit)
	if len(recent) == 0 {
		return sidebarEmptyStyle.MaxWidth(width).Render(" Recent Logs: No diagnostic history yet.")
	}
	items := make([]string, len(recent))
	for i, p := range recent {
		items[i] = firstLine(p)
	}
	return sidebarItemStyle.MaxWidth(width).Render(" Recent Logs: • " + strings.Join(items, " • "))
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

// renderWelcome renders the welcome screen when no messages exist
func (m Model) renderWelcome() string {
	width := m.viewport.Width - 2
	height := m.viewport.Height

	icon := welcomeIconStyle.Width(width).Render("🛠")
	title := welcomeTitleStyle.Width(width).Render("Initialize Troubleshooting")
	subtitle := welcomeStyle.Width(width).Render(
		"Welcome to the TechSolve AI Command Center. Describe your technical issue or attach a photo of the error with /image. " +
			"Select a domain with Tab or /category for specialized diagnostics.")

	prompts := make([]string, len(models.ExamplePrompts))
	for i, p := range models.ExamplePrompts {
		prompts[i] = examplePromptStyle.Render(
			exampleIndexStyle.Render(fmt.Sprintf("%d ", i+1)) + fmt.Sprintf("%q", p))
	}
	var grid string
	if width >= 80 {
		grid = lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.JoinHorizontal(lipgloss.Top, prompts[0], " ", prompts[1]),
			lipgloss.JoinHorizontal(lipgloss.Top, prompts[2], " ", prompts[3]),
		)
	} else {
		grid = lipgloss.JoinVertical(lipgloss.Left, prompts...)
	}
	grid = lipgloss.PlaceHorizontal(width, lipgloss.Center, grid)
	hint := hintStyle.Width(width).Align(lipgloss.Center).Render("Type /try <n> to use an example")

	content := lipgloss.JoinVertical(lipgloss.Center, icon, "", title, subtitle, "", grid, hint)

	// Center vertically
	topPadding := (height - lipgloss.Height(content)) / 2
	if topPadding < 0 {
		topPadding = 0
	}
	return strings.Repeat("\n", topPadding) + content
}

// renderAnalyzing renders the console and progress bar while a request runs
func (m Model) renderAnalyzing() string {
	if !m.diagnostic.IsAnalyzing {
		return ""
	}

	bar := lipgloss.JoinHorizontal(lipgloss.Center,
		m.spinner.View(),
		" ",
		m.progress.ViewAs(float64(m.diagnostic.Progress)/100),
		progressStyle.Render(fmt.Sprintf("  ANALYZING... %d%%", m.diagnostic.Progress)),
	)

	if view := m.console.View(m.mainWidth()); view != "" {
		return lipgloss.JoinVertical(lipgloss.Left, view, bar)
	}
	return bar
}

func (m Model) renderInput() string {
	var lines []string
	if m.session.PendingImage() != "" {
		lines = append(lines, pendingStyle.Render("📎 Image attached for visual diagnostic  (/noimage to remove)"))
	}
	label := inputLabelStyle.Render("You")
	if m.diagnostic.IsAnalyzing {
		label = hintStyle.Render("Waiting for diagnosis...")
	}
	lines = append(lines, label, m.textarea.View())
	return inputPanelStyle.Width(m.mainWidth() - 2).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) renderFeedback() string {
	if m.err != nil {
		return FormatError(m.err)
	}
	if m.notice != "" {
		return noticeStyle.Render("  " + m.notice)
	}
	return ""
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar() string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Tab", "Domain"},
		{"/help", "Commands"},
		{"↑↓", "Scroll"},
		{"Esc", "Quit"},
	}

	items := make([]string, 0, len(shortcuts))
	for _, s := range shortcuts {
		items = append(items, lipgloss.JoinHorizontal(
			lipgloss.Center,
			statusKeyStyle.Render(s.key),
			statusDescStyle.Render(" "+s.desc),
		))
	}

	return statusBarStyle.Width(m.mainWidth()).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

// updateViewport refreshes the viewport content with styled messages
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}

	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6
	if bubbleWidth < 10 {
		bubbleWidth = 10
	}

	for i, msg := range m.session.Messages() {
		if i > 0 {
			content.WriteString("\n")
		}
		stamp := ""
		if !msg.Timestamp.IsZero() {
			stamp = timestampStyle.Render("  " + msg.Timestamp.Format("15:04:05"))
		}

		if msg.Role == models.RoleUser {
			label := userLabelStyle.Render("● You") + stamp
			body := msg.Content
			if msg.HasImage() {
				body = strings.TrimSpace(attachmentStyle.Render("🖼 Diagnostic input image") + "\n" + body)
			}
			content.WriteString(label + "\n" + userBubbleStyle.Width(bubbleWidth).Render(body))
		} else {
			label := assistantLabelStyle.Render("✦ TechSolve") + stamp
			content.WriteString(label + "\n" + assistantBubbleStyle.Width(bubbleWidth).Render(m.renderAnswer(msg, bubbleWidth-4)))
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// renderAnswer renders assistant markdown followed by its sources
func (m Model) renderAnswer(msg models.Message, width int) string {
	rendered, err := render.Markdown(msg.Content, m.opts.Render.WithWidth(width))
	if err != nil {
		m.logger.Debug("markdown render failed", zap.Error(err))
		rendered = msg.Content
	}

	sources := msg.Sources()
	if len(sources) == 0 {
		return rendered
	}

	var sb strings.Builder
	sb.WriteString(rendered)
	sb.WriteString("\n")
	sb.WriteString(sourcesHeaderStyle.Width(width).Render("VERIFICATION SOURCES:"))
	for _, src := range sources {
		title := src.Title
		if title == "" {
			title = src.URI
		}
		sb.WriteString("\n")
		sb.WriteString(sourceTitleStyle.Render("↗ " + title))
		sb.WriteString("\n  ")
		sb.WriteString(sourceURLStyle.MaxWidth(width - 2).Render(src.URI))
	}
	return sb.String()
}

// RunChat starts the chat TUI and blocks until it exits
func RunChat(ctx context.Context, session *chat.Session, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(
		NewChatModel(ctx, session, opts),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	return err
}
