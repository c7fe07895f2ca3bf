package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/diogo/chatstream/internal/config"
	"github.com/diogo/chatstream/internal/render"
	"github.com/diogo/chatstream/internal/tui"
)

// debugEnv enables the TUI debug log when set to any value
const debugEnv = "CHATSTREAM_DEBUG"

// NewChatCmd creates the interactive chat command
func NewChatCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat window.

Replies stream into the transcript as they arrive. Press Tab to pick one of
the example prompts, /save <file> to export the conversation, and 'exit',
'/quit' or Ctrl+C to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, deps)
		},
	}
}

func runChat(cmd *cobra.Command, deps *Dependencies) error {
	cfg, err := loadConfig(cmd, deps)
	if err != nil {
		return err
	}

	logger, closeLog, err := chatLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	if !render.SetTUITheme(cfg.TUITheme) {
		warn(deps.Stderr, fmt.Sprintf("Unknown theme %q, using %s", cfg.TUITheme, render.GetTUITheme().Name))
	}
	tui.UpdateTheme()

	promptsPath, err := deps.promptsPath()
	if err != nil {
		return err
	}
	prompts, err := config.LoadExamplePromptsFrom(promptsPath)
	if err != nil {
		// The defaults come back with the error
		warn(deps.Stderr, fmt.Sprintf("Ignoring %s: %v", promptsPath, err))
	}

	session, endpoint, err := newSession(cfg, deps, logger)
	if err != nil {
		return err
	}
	logger.Info("chat started", "endpoint", endpoint.String(), "prompts", len(prompts))

	return deps.TUI.RunChat(session, tui.Options{
		Endpoint:       endpoint.String(),
		Prompts:        prompts,
		Render:         render.OptionsFromConfig(cfg.Markdown),
		CopyOnComplete: cfg.CopyToClipboard,
		Logger:         logger,
		Clipboard:      deps.Clipboard,
	})
}

// chatLogger returns the logger used while the TUI owns the terminal.
// Output goes to ~/.chatstream/debug.log when CHATSTREAM_DEBUG is set and
// is dropped otherwise.
func chatLogger() (*slog.Logger, func(), error) {
	if os.Getenv(debugEnv) == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}

	dir, err := config.EnsureConfigDir()
	if err != nil {
		return nil, nil, err
	}
	f, err := tea.LogToFile(filepath.Join(dir, "debug.log"), "chatstream")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open debug log: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() { f.Close() }, nil
}

func warn(w io.Writer, msg string) {
	fmt.Fprintln(w, lipgloss.NewStyle().Foreground(colorWarn).Render("⚠ "+msg))
}
