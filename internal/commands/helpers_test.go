package commands

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diogo/chatstream/internal/config"
	"github.com/diogo/chatstream/internal/stream"
	"github.com/diogo/chatstream/internal/tui"
)

// fakeOpener replies with the concatenated chunks, or fails with err
type fakeOpener struct {
	reply       string
	contentType string
	err         error
	prompts     []string
}

func (f *fakeOpener) Open(ctx context.Context, requestID, prompt string) (*stream.Response, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return nil, f.err
	}
	ct := f.contentType
	if ct == "" {
		ct = "text/plain; charset=utf-8"
	}
	return &stream.Response{
		Body:        io.NopCloser(strings.NewReader(f.reply)),
		ContentType: ct,
		StatusCode:  200,
	}, nil
}

type fakeTUI struct {
	calls   int
	session tui.ChatSession
	opts    tui.Options
	err     error
}

func (f *fakeTUI) RunChat(session tui.ChatSession, opts tui.Options) error {
	f.calls++
	f.session = session
	f.opts = opts
	return f.err
}

type testEnv struct {
	deps      *Dependencies
	stdout    *bytes.Buffer
	stderr    *bytes.Buffer
	opener    *fakeOpener
	tui       *fakeTUI
	copied    []string
	openerNew int
	endpoint  config.Endpoint
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CHATSTREAM_ENDPOINT", "")
	t.Setenv("CHATSTREAM_DEBUG", "")
	t.Setenv("GLAMOUR_STYLE", "")

	dir := t.TempDir()
	env := &testEnv{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		opener: &fakeOpener{},
		tui:    &fakeTUI{},
	}
	env.deps = &Dependencies{
		Stdin:  strings.NewReader(""),
		Stdout: env.stdout,
		Stderr: env.stderr,
		NewOpener: func(cfg config.Config, endpoint config.Endpoint, logger *slog.Logger) (stream.Opener, error) {
			env.openerNew++
			env.endpoint = endpoint
			return env.opener, nil
		},
		TUI: env.tui,
		Clipboard: func(s string) error {
			env.copied = append(env.copied, s)
			return nil
		},
		IsTTY:       func() bool { return false },
		StdinIsPipe: func() bool { return false },
		TermWidth:   func() int { return 80 },
		ConfigPath:  filepath.Join(dir, "config.json"),
		PromptsPath: filepath.Join(dir, "prompts.toml"),
	}
	return env
}

func (e *testEnv) run(args ...string) error {
	cmd := NewRootCmd(e.deps)
	cmd.SetArgs(args)
	return cmd.Execute()
}
