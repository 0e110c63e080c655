package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/diogo/techsolve/internal/api"
	"github.com/diogo/techsolve/internal/chat"
	"github.com/diogo/techsolve/internal/config"
	"github.com/diogo/techsolve/internal/tui"
)

// fakeTUI records RunChat calls instead of starting bubbletea
type fakeTUI struct {
	called  bool
	session *chat.Session
	opts    tui.Options
	err     error
}

func (f *fakeTUI) RunChat(ctx context.Context, session *chat.Session, opts tui.Options) error {
	f.called = true
	f.session = session
	f.opts = opts
	return f.err
}

// testDeps isolates the config directory and wires fakes for every
// external collaborator
func testDeps(t *testing.T, client api.Troubleshooter) (*Dependencies, *fakeTUI) {
	t.Helper()
	t.Setenv(config.HomeEnv, t.TempDir())

	ft := &fakeTUI{}
	return &Dependencies{
		NewClient: func(ctx context.Context, cfg config.Config, logger *zap.Logger) (api.Troubleshooter, error) {
			return client, nil
		},
		TUI: ft,
		LoadConfig: func() (config.Config, error) {
			cfg := config.DefaultConfig()
			cfg.StatusIntervalMS = 1
			return cfg, nil
		},
		Clipboard:  func(string) error { return nil },
		IsTerminal: func() bool { return false },
		Stdin:      strings.NewReader(""),
	}, ft
}

// execute runs a fresh command tree and captures its output
func execute(t *testing.T, deps *Dependencies, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := NewRootCmd(deps)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}
