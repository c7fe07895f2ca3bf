package commands

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/diogo/chatstream/internal/models"
	"github.com/diogo/chatstream/internal/render"
)

func TestChatCommand_RunsTUI(t *testing.T) {
	env := newTestEnv(t)

	if err := env.run("chat", "--endpoint", "http://localhost:8000/chat"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.tui.calls != 1 {
		t.Fatalf("RunChat called %d times, want 1", env.tui.calls)
	}
	if !env.tui.session.Configured() {
		t.Error("session should be configured")
	}
	if env.tui.opts.Endpoint != "http://localhost:8000/chat" {
		t.Errorf("Endpoint = %q", env.tui.opts.Endpoint)
	}
	if len(env.tui.opts.Prompts) != len(models.ExamplePrompts) {
		t.Errorf("got %d prompts, want the %d defaults", len(env.tui.opts.Prompts), len(models.ExamplePrompts))
	}
	if env.tui.opts.Render.Style != render.StyleWheat {
		t.Errorf("Render.Style = %q", env.tui.opts.Render.Style)
	}
	if env.tui.opts.Logger == nil || env.tui.opts.Clipboard == nil {
		t.Error("logger and clipboard should be passed through")
	}
}

func TestChatCommand_Unconfigured(t *testing.T) {
	env := newTestEnv(t)

	if err := env.run("chat"); err != nil {
		t.Fatalf("an unconfigured chat still starts, got %v", err)
	}
	if env.tui.session.Configured() {
		t.Error("session should be unconfigured")
	}
	if env.tui.opts.Endpoint != "" {
		t.Errorf("Endpoint = %q, want empty", env.tui.opts.Endpoint)
	}
}

func TestChatCommand_CustomPrompts(t *testing.T) {
	env := newTestEnv(t)
	if err := os.WriteFile(env.deps.PromptsPath, []byte(`prompts = ["One", "Two"]`), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := env.run("chat"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := env.tui.opts.Prompts
	if len(got) != 2 || got[0] != "One" || got[1] != "Two" {
		t.Errorf("Prompts = %v", got)
	}
}

func TestChatCommand_BadPromptsFileFallsBack(t *testing.T) {
	env := newTestEnv(t)
	if err := os.WriteFile(env.deps.PromptsPath, []byte(`prompts = [`), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := env.run("chat"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(env.tui.opts.Prompts) != len(models.ExamplePrompts) {
		t.Error("a broken prompts file should fall back to the defaults")
	}
	if !strings.Contains(env.stderr.String(), "Ignoring") {
		t.Errorf("stderr = %q, want a warning", env.stderr.String())
	}
}

func TestChatCommand_Theme(t *testing.T) {
	env := newTestEnv(t)
	t.Cleanup(func() { render.SetTUITheme("wheat") })
	if err := os.WriteFile(env.deps.ConfigPath, []byte(`{"tui_theme":"nord"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := env.run("chat"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if render.GetTUITheme().Name != "nord" {
		t.Errorf("theme = %q, want nord", render.GetTUITheme().Name)
	}
}

func TestChatCommand_UnknownThemeWarns(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("CHATSTREAM_TUI_THEME", "neon")

	if err := env.run("chat"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(env.stderr.String(), `Unknown theme "neon"`) {
		t.Errorf("stderr = %q", env.stderr.String())
	}
}

func TestChatCommand_TUIError(t *testing.T) {
	env := newTestEnv(t)
	env.tui.err = errors.New("no terminal")

	if err := env.run("chat"); err == nil || err.Error() != "no terminal" {
		t.Errorf("err = %v, want the TUI error", err)
	}
}

func TestChatCommand_CopyFlag(t *testing.T) {
	env := newTestEnv(t)

	if err := env.run("chat", "--copy"); err != nil {
		t.Fatal(err)
	}
	if !env.tui.opts.CopyOnComplete {
		t.Error("--copy should enable CopyOnComplete")
	}
}

func TestChatLogger_Disabled(t *testing.T) {
	t.Setenv("CHATSTREAM_DEBUG", "")

	logger, closeLog, err := chatLogger()
	if err != nil {
		t.Fatal(err)
	}
	defer closeLog()
	if logger == nil {
		t.Fatal("logger should never be nil")
	}
}

func TestChatLogger_DebugFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CHATSTREAM_DEBUG", "1")

	logger, closeLog, err := chatLogger()
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hello from test")
	closeLog()

	data, err := os.ReadFile(home + "/.chatstream/debug.log")
	if err != nil {
		t.Fatalf("debug log missing: %v", err)
	}
	if !strings.Contains(string(data), "hello from test") {
		t.Errorf("debug log = %q", data)
	}
}
