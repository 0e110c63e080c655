package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/diogo/techsolve/internal/api"
	"github.com/diogo/techsolve/internal/chat"
	"github.com/diogo/techsolve/internal/models"
)

func newTestSession(client api.Troubleshooter) *chat.Session {
	return chat.NewSession(client, chat.WithStatusInterval(time.Millisecond))
}

func newTestModel(t *testing.T, client api.Troubleshooter, width, height int) Model {
	t.Helper()
	m := NewChatModel(context.Background(), newTestSession(client), Options{ModelName: "test-model"})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: width, Height: height})
	return updated.(Model)
}

func typeAndSubmit(t *testing.T, m Model, text string) (Model, tea.Cmd) {
	t.Helper()
	m.textarea.SetValue(text)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(Model), cmd
}

// runUntilSendDone executes the commands returned by a submit and feeds the
// sendDoneMsg back into the model
func runUntilSendDone(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg := cmd()
	cmds := []tea.Cmd{}
	if batch, ok := msg.(tea.BatchMsg); ok {
		cmds = append(cmds, batch...)
	} else if done, ok := msg.(sendDoneMsg); ok {
		updated, _ := m.Update(done)
		return updated.(Model)
	}
	for _, c := range cmds {
		if c == nil {
			continue
		}
		if done, ok := c().(sendDoneMsg); ok {
			updated, _ := m.Update(done)
			return updated.(Model)
		}
	}
	t.Fatal("no sendDoneMsg produced")
	return m
}

func TestNewChatModel(t *testing.T) {
	session := newTestSession(&api.MockClient{})
	m := NewChatModel(context.Background(), session, Options{})

	if m.ready {
		t.Error("ready should be false initially")
	}
	if m.session != session {
		t.Error("session not stored")
	}
	if m.textarea.Placeholder != "Describe your hardware issue..." {
		t.Errorf("placeholder = %q", m.textarea.Placeholder)
	}
	if m.opts.Render.Width == 0 {
		t.Error("render options should default")
	}
	if m.writeClipboard == nil {
		t.Error("clipboard writer should default")
	}
}

func TestModel_View_NotReady(t *testing.T) {
	m := NewChatModel(context.Background(), newTestSession(&api.MockClient{}), Options{})
	if !strings.Contains(m.View(), "Initializing") {
		t.Error("expected initializing view before the first resize")
	}
}

func TestModel_Update_WindowSize(t *testing.T) {
	m := newTestModel(t, &api.MockClient{}, 80, 40)

	if !m.ready {
		t.Error("model should be ready after WindowSizeMsg")
	}
	if m.width != 80 || m.height != 40 {
		t.Errorf("dimensions = %dx%d, want 80x40", m.width, m.height)
	}
	if m.viewport.Width != 76 {
		t.Errorf("viewport width = %d, want 76", m.viewport.Width)
	}
	if m.viewport.Height < 3 {
		t.Errorf("viewport height = %d", m.viewport.Height)
	}
}

func TestModel_View_Welcome(t *testing.T) {
	m := newTestModel(t, &api.MockClient{}, 90, 50)
	view := m.View()

	for _, want := range []string{
		"TechSolve AI",
		"Initialize Troubleshooting",
		"Domain:",
		"HARDWARE",
		"test-model",
		"No diagnostic history yet.",
		"ALWAYS VERIFY VOLTAGE",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("welcome view missing %q", want)
		}
	}
	for _, p := range models.ExamplePrompts {
		if !strings.Contains(view, p) {
			t.Errorf("welcome view missing example %q", p)
		}
	}
}

func TestModel_View_Sidebar(t *testing.T) {
	m := newTestModel(t, &api.MockClient{}, 140, 50)
	if !m.showSidebar() {
		t.Fatal("sidebar should show on wide terminals")
	}
	view := m.View()
	for _, want := range []string{"PROBLEM DOMAIN", "RECENT LOGS", "SYSTEM READY", "Networking"} {
		if !strings.Contains(view, want) {
			t.Errorf("sidebar missing %q", want)
		}
	}

	narrow := newTestModel(t, &api.MockClient{}, 80, 50)
	if narrow.showSidebar() {
		t.Error("sidebar should hide on narrow terminals")
	}
}

func TestModel_Update_CtrlC(t *testing.T) {
	m := newTestModel(t, &api.MockClient{}, 80, 40)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should quit")
	}
}

func TestModel_Update_EscClearsNoticeFirst(t *testing.T) {
	m := newTestModel(t, &api.MockClient{}, 80, 40)
	m.notice = "hello"

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)
	if m.notice != "" {
		t.Error("esc should clear the notice")
	}
	if cmd != nil {
		t.Error("esc with a notice should not quit")
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("second esc should quit")
	}
}

func TestModel_Update_TabCyclesCategory(t *testing.T) {
	m := newTestModel(t, &api.MockClient{}, 80, 40)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)

	if got := m.session.Category(); got != models.CategorySoftware {
		t.Errorf("category = %q, want software", got)
	}
	if m.textarea.Placeholder != "Describe your software issue..." {
		t.Errorf("placeholder = %q", m.textarea.Placeholder)
	}
	if !strings.Contains(m.View(), "SOFTWARE") {
		t.Error("header should show the new domain")
	}
}

func TestModel_Update_TabIgnoredWhileAnalyzing(t *testing.T) {
	m := newTestModel(t, &api.MockClient{}, 80, 40)
	m.diagnostic = models.DiagnosticState{IsAnalyzing: true}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if got := updated.(Model).session.Category(); got != models.CategoryHardware {
		t.Errorf("category changed while analyzing: %q", got)
	}
}

func TestModel_EmptySubmitIsNoop(t *testing.T) {
	client := &api.MockClient{}
	m := newTestModel(t, client, 80, 40)

	m, cmd := typeAndSubmit(t, m, "   ")
	if cmd != nil {
		t.Error("blank input should not send")
	}
	if m.diagnostic.IsAnalyzing {
		t.Error("blank input should not start analysis")
	}
	if len(client.Calls()) != 0 {
		t.Error("client should not be called")
	}
}

func TestModel_SubmitSendsAndRendersAnswer(t *testing.T) {
	client := &api.MockClient{Answer: &models.Answer{
		Text: "## Fix\n1. Reseat the RAM",
		GroundingLinks: []models.GroundingLink{
			{Web: &models.WebSource{URI: "https://example.com/ram", Title: "RAM guide"}},
		},
	}}
	m := newTestModel(t, client, 100, 60)

	m, cmd := typeAndSubmit(t, m, "PC beeps three times")
	if !m.diagnostic.IsAnalyzing {
		t.Error("submit should mark the model as analyzing")
	}
	if m.textarea.Value() != "" {
		t.Error("input should be cleared after submit")
	}

	m = runUntilSendDone(t, m, cmd)

	if m.err != nil {
		t.Errorf("unexpected error: %v", m.err)
	}
	if m.diagnostic.IsAnalyzing {
		t.Error("analysis should be finished")
	}
	call, ok := client.LastCall()
	if !ok || call.Text != "PC beeps three times" {
		t.Errorf("client call = %+v", call)
	}

	content := m.viewport.View()
	for _, want := range []string{"You", "PC beeps three times", "TechSolve", "Reseat the RAM", "VERIFICATION SOURCES", "RAM guide"} {
		if !strings.Contains(content, want) {
			t.Errorf("viewport missing %q", want)
		}
	}
	if strings.Contains(m.View(), "Initialize Troubleshooting") {
		t.Error("welcome screen should be gone once messages exist")
	}
}

func TestModel_SubmitFailureShowsOnlyConnectionText(t *testing.T) {
	client := &api.MockClient{Err: errors.New("backend cause: 503 upstream")}
	m := newTestModel(t, client, 100, 60)

	m, cmd := typeAndSubmit(t, m, "router keeps rebooting")
	m = runUntilSendDone(t, m, cmd)

	if m.err != nil {
		t.Errorf("request failures should not set the command error, got %v", m.err)
	}
	if !strings.Contains(m.viewport.View(), "diagnostic core") {
		t.Error("connection error text should be in the transcript")
	}
	if view := m.View(); strings.Contains(view, "503 upstream") {
		t.Errorf("the underlying cause leaked into the view:\n%s", view)
	}
}

func TestModel_DiagnosticMsgShowsConsole(t *testing.T) {
	m := newTestModel(t, &api.MockClient{}, 100, 60)

	updated, _ := m.Update(diagnosticMsg(models.DiagnosticState{
		IsAnalyzing: true,
		Progress:    40,
		Status:      "Scanning for known hardware failure patterns...",
	}))
	m = updated.(Model)

	view := m.View()
	for _, want := range []string{"Diagnostic Console", "Scanning for known hardware", "ANALYZING... 40%"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	updated, _ = m.Update(diagnosticMsg(models.IdleDiagnostic()))
	m = updated.(Model)
	if strings.Contains(m.View(), "ANALYZING") {
		t.Error("progress should disappear when idle")
	}
	if m.console.Len() != 0 {
		t.Error("console should clear when idle")
	}
}

func TestModel_CategoryCommand(t *testing.T) {
	m := newTestModel(t, &api.MockClient{}, 80, 40)

	m, _ = typeAndSubmit(t, m, "/category networking")
	if got := m.session.Category(); got != models.CategoryNetworking {
		t.Errorf("category = %q, want networking", got)
	}

	m, _ = typeAndSubmit(t, m, "/category plumbing")
	if m.err == nil {
		t.Error("unknown category should set an error")
	}
}

func TestModel_CategorySelector(t *testing.T) {
	m := newTestModel(t, &api.MockClient{}, 80, 40)

	m, _ = typeAndSubmit(t, m, "/category")
	if !m.selecting {
		t.Fatal("/category without argument should open the selector")
	}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("3")})
	m = updated.(Model)
	if m.selecting {
		t.Error("selector should close after a quick pick")
	}
	if got := m.session.Category(); got != models.CategoryAI {
		t.Errorf("category = %q, want ai", got)
	}
}

func TestModel_CategorySelectorCancel(t *testing.T) {
	m := newTestModel(t, &api.MockClient{}, 80, 40)
	m, _ = typeAndSubmit(t, m, "/category")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(Model)
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)

	if m.selecting {
		t.Error("esc should close the selector")
	}
	if got := m.session.Category(); got != models.CategoryHardware {
		t.Errorf("cancel changed category to %q", got)
	}
}

func TestModel_TryCommand(t *testing.T) {
	m := newTestModel(t, &api.MockClient{}, 80, 40)

	m, _ = typeAndSubmit(t, m, "/try 2")
	if got := m.textarea.Value(); got != models.ExamplePrompts[1] {
		t.Errorf("input = %q, want %q", got, models.ExamplePrompts[1])
	}

	m, _ = typeAndSubmit(t, m, "/try 9")
	if m.err == nil {
		t.Error("out of range example should set an error")
	}
}

func TestModel_UnknownCommand(t *testing.T) {
	m := newTestModel(t, &api.MockClient{}, 80, 40)
	m, _ = typeAndSubmit(t, m, "/frobnicate")
	if m.err == nil || !strings.Contains(m.err.Error(), "/help") {
		t.Errorf("err = %v", m.err)
	}
}

func TestModel_QuitCommands(t *testing.T) {
	for _, input := range []string{"/quit", "/exit", "exit", "quit"} {
		t.Run(input, func(t *testing.T) {
			m := newTestModel(t, &api.MockClient{}, 80, 40)
			_, cmd := typeAndSubmit(t, m, input)
			if cmd == nil {
				t.Fatal("expected quit command")
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Error("expected tea.QuitMsg")
			}
		})
	}
}

func TestModel_ImageCommands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "screen.png")
	if err := os.WriteFile(path, []byte("\x89PNG fake"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := newTestModel(t, &api.MockClient{}, 80, 40)

	m, _ = typeAndSubmit(t, m, "/image "+path)
	if m.err != nil {
		t.Fatalf("unexpected error: %v", m.err)
	}
	if !strings.HasPrefix(m.session.PendingImage(), "data:image/png;base64,") {
		t.Errorf("pending image = %q", m.session.PendingImage())
	}
	if !strings.Contains(m.View(), "Image attached for visual diagnostic") {
		t.Error("pending image indicator missing")
	}

	m, _ = typeAndSubmit(t, m, "/noimage")
	if m.session.PendingImage() != "" {
		t.Error("/noimage should clear the pending image")
	}

	m, _ = typeAndSubmit(t, m, "/image "+filepath.Join(dir, "missing.png"))
	if m.err == nil {
		t.Error("missing file should set an error")
	}
}

func TestModel_ImageOnlySubmit(t *testing.T) {
	client := &api.MockClient{}
	m := newTestModel(t, client, 80, 40)
	m.session.AttachImage("data:image/png;base64,AAAA")

	m, cmd := typeAndSubmit(t, m, "")
	m = runUntilSendDone(t, m, cmd)

	call, ok := client.LastCall()
	if !ok {
		t.Fatal("client was not called")
	}
	if call.Image != "data:image/png;base64,AAAA" {
		t.Errorf("image = %q", call.Image)
	}
	if m.session.PendingImage() != "" {
		t.Error("pending image should be consumed")
	}
}

func TestModel_ClearCommand(t *testing.T) {
	session := newTestSession(&api.MockClient{})
	if err := session.Send(context.Background(), "hello", ""); err != nil {
		t.Fatal(err)
	}
	m := NewChatModel(context.Background(), session, Options{})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	m = updated.(Model)

	m, _ = typeAndSubmit(t, m, "/clear")
	if n := len(m.session.Messages()); n != 0 {
		t.Errorf("messages = %d after /clear", n)
	}
	if !strings.Contains(m.View(), "Initialize Troubleshooting") {
		t.Error("welcome screen should return after /clear")
	}
}

func TestModel_ExportCommand(t *testing.T) {
	session := newTestSession(&api.MockClient{Answer: &models.Answer{Text: "Check the cable"}})
	if err := session.Send(context.Background(), "No link light", ""); err != nil {
		t.Fatal(err)
	}
	m := NewChatModel(context.Background(), session, Options{ModelName: "test-model"})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	m = updated.(Model)

	path := filepath.Join(t.TempDir(), "out", "session.md")
	m, _ = typeAndSubmit(t, m, "/export "+path)
	if m.err != nil {
		t.Fatalf("export failed: %v", m.err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"No link light", "Check the cable", "test-model"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("export missing %q", want)
		}
	}
}

func TestModel_CopyCommand(t *testing.T) {
	session := newTestSession(&api.MockClient{Answer: &models.Answer{Text: "Replace the fuse"}})
	m := NewChatModel(context.Background(), session, Options{})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	m = updated.(Model)

	var copied string
	m.writeClipboard = func(s string) error {
		copied = s
		return nil
	}

	m, _ = typeAndSubmit(t, m, "/copy")
	if m.err == nil {
		t.Error("/copy without answers should fail")
	}

	if err := session.Send(context.Background(), "Dead PSU", ""); err != nil {
		t.Fatal(err)
	}
	m, cmd := typeAndSubmit(t, m, "/copy")
	if cmd == nil {
		t.Fatal("expected clipboard command")
	}
	updated, _ = m.Update(cmd())
	m = updated.(Model)

	if copied != "Replace the fuse" {
		t.Errorf("copied = %q", copied)
	}
	if !strings.Contains(m.notice, "copied") {
		t.Errorf("notice = %q", m.notice)
	}
}

func TestModel_AutoCopyAfterAnswer(t *testing.T) {
	client := &api.MockClient{Answer: &models.Answer{Text: "Update the driver"}}
	m := NewChatModel(context.Background(), newTestSession(client), Options{CopyToClipboard: true})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	m = updated.(Model)

	var copied string
	m.writeClipboard = func(s string) error {
		copied = s
		return nil
	}

	if err := m.session.Send(context.Background(), "GPU flicker", ""); err != nil {
		t.Fatal(err)
	}
	_, cmd := m.Update(sendDoneMsg{})
	if cmd == nil {
		t.Fatal("expected clipboard command")
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if c != nil {
				c()
			}
		}
	}
	if copied != "Update the driver" {
		t.Errorf("copied = %q", copied)
	}
}

func TestModel_HelpCommand(t *testing.T) {
	m := newTestModel(t, &api.MockClient{}, 120, 40)
	m, _ = typeAndSubmit(t, m, "/help")
	if !strings.Contains(m.View(), "/category") {
		t.Error("help should list commands")
	}
}

func TestModel_RecentLogs(t *testing.T) {
	session := newTestSession(&api.MockClient{})
	for _, p := range []string{"first issue", "second issue"} {
		if err := session.Send(context.Background(), p, ""); err != nil {
			t.Fatal(err)
		}
	}
	m := NewChatModel(context.Background(), session, Options{})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 60})
	m = updated.(Model)

	view := m.View()
	if !strings.Contains(view, "first issue") || !strings.Contains(view, "second issue") {
		t.Error("recent logs should list prior prompts")
	}
	if strings.Contains(view, "No diagnostic history yet.") {
		t.Error("empty history text should be hidden")
	}
}
