package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/atotto/clipboard"
	"golang.org/x/term"

	"github.com/diogo/chatstream/internal/config"
	"github.com/diogo/chatstream/internal/stream"
	"github.com/diogo/chatstream/internal/tui"
)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunChat(session tui.ChatSession, opts tui.Options) error
}

// OpenerFactory builds the transport for a configured endpoint
type OpenerFactory func(cfg config.Config, endpoint config.Endpoint, logger *slog.Logger) (stream.Opener, error)

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// NewOpener is only called when an endpoint is configured.
	NewOpener OpenerFactory

	// TUI is the terminal user interface.
	TUI TUIInterface

	Clipboard func(string) error

	// IsTTY reports whether stdout is a terminal
	IsTTY func() bool
	// StdinIsPipe reports whether a prompt is waiting on stdin
	StdinIsPipe func() bool
	TermWidth   func() int

	// ConfigPath and PromptsPath override the files under ~/.chatstream
	ConfigPath  string
	PromptsPath string
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) RunChat(session tui.ChatSession, opts tui.Options) error {
	return tui.RunChat(session, opts)
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		NewOpener:   newClientOpener,
		TUI:         &DefaultTUI{},
		Clipboard:   clipboard.WriteAll,
		IsTTY:       isStdoutTTY,
		StdinIsPipe: stdinIsPipe,
		TermWidth:   getTerminalWidth,
	}
}

func newClientOpener(cfg config.Config, endpoint config.Endpoint, logger *slog.Logger) (stream.Opener, error) {
	client, err := stream.NewClient(endpoint,
		stream.WithTimeout(cfg.TimeoutSeconds),
		stream.WithUserAgent("chatstream/"+Version),
		stream.WithClientLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (d *Dependencies) configPath() (string, error) {
	if d.ConfigPath != "" {
		return d.ConfigPath, nil
	}
	return config.GetConfigPath()
}

func (d *Dependencies) promptsPath() (string, error) {
	if d.PromptsPath != "" {
		return d.PromptsPath, nil
	}
	return config.GetPromptsPath()
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

func stdinIsPipe() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
