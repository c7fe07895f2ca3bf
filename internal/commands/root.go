// Package commands provides CLI commands for chatstream.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/diogo/chatstream/internal/config"
	"github.com/diogo/chatstream/internal/stream"
)

var (
	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

type rootFlags struct {
	output string
	file   string
	raw    bool
}

// flagKeys maps config keys to the persistent flags overriding them
var flagKeys = map[string]string{
	"endpoint":          "endpoint",
	"verbose":           "verbose",
	"copy_to_clipboard": "copy",
}

// NewRootCmd creates the chatstream command tree
func NewRootCmd(deps *Dependencies) *cobra.Command {
	if deps == nil {
		deps = NewDependencies()
	}
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "chatstream [prompt]",
		Short: "Stream chat replies from a completion endpoint",
		Long: `chatstream sends a prompt to a chat completion endpoint and shows the
reply as it streams in, either once on the command line or in an
interactive chat window.

Examples:
  chatstream chat                              Start interactive chat
  chatstream config set endpoint https://host/chat
  chatstream "What is Go?"                     Send a single query
  chatstream -f prompt.md                      Read prompt from file
  cat prompt.md | chatstream                   Read prompt from stdin
  chatstream "Hello" -o conversation.md        Save the exchange to a file`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(deps.Stdout, "chatstream %s (built %s)\n", Version, BuildTime)
				return nil
			}

			prompt, ok, err := readPrompt(deps, flags.file, args)
			if err != nil {
				return err
			}
			if !ok {
				return cmd.Help()
			}
			return runQuery(cmd, deps, flags, prompt)
		},
	}

	cmd.SetOut(deps.Stdout)
	cmd.SetErr(deps.Stderr)

	pf := cmd.PersistentFlags()
	pf.String("endpoint", "", "Completion endpoint URL (overrides config)")
	pf.Bool("verbose", false, "Log request diagnostics to stderr")
	pf.Bool("copy", false, "Copy finished replies to the clipboard")

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Save the conversation to a file (.md or .json)")
	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "Read prompt from file")
	cmd.Flags().BoolVar(&flags.raw, "raw", false, "Stream plain text without decoration")
	cmd.Flags().BoolP("version", "v", false, "Show version and exit")

	cmd.AddCommand(NewChatCmd(deps))
	cmd.AddCommand(NewConfigCmd(deps))
	cmd.AddCommand(NewPromptsCmd(deps))

	return cmd
}

// rootCmd represents the base command
var rootCmd = NewRootCmd(nil)

// Execute runs the root command; Ctrl+C cancels the in-flight request
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// readPrompt picks the prompt from -f, then stdin, then the argument.
// ok is false when none was given.
func readPrompt(deps *Dependencies, file string, args []string) (string, bool, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", false, fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), true, nil
	}

	if deps.StdinIsPipe != nil && deps.StdinIsPipe() {
		data, err := io.ReadAll(deps.Stdin)
		if err != nil {
			return "", false, fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), true, nil
	}

	if len(args) > 0 {
		return args[0], true, nil
	}
	return "", false, nil
}

// loadConfig resolves the configuration with the command's flags on top
func loadConfig(cmd *cobra.Command, deps *Dependencies) (config.Config, error) {
	loader := config.NewLoader(deps.ConfigPath)
	for key, name := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := loader.BindFlag(key, f); err != nil {
				return config.DefaultConfig(), err
			}
		}
	}
	return loader.Load()
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// newSession builds a session for cfg. An unconfigured endpoint yields a
// session that records prompts without sending them.
func newSession(cfg config.Config, deps *Dependencies, logger *slog.Logger) (*stream.Session, config.Endpoint, error) {
	endpoint, err := cfg.ResolveEndpoint()
	if err != nil {
		return nil, endpoint, err
	}

	var opener stream.Opener
	if endpoint.IsConfigured() {
		opener, err = deps.NewOpener(cfg, endpoint, logger)
		if err != nil {
			return nil, endpoint, fmt.Errorf("failed to create client: %w", err)
		}
	}

	return stream.NewSession(opener, stream.WithLogger(logger)), endpoint, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
