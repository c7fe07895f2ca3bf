package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/diogo/chatstream/internal/config"
	apierrors "github.com/diogo/chatstream/internal/errors"
	"github.com/diogo/chatstream/internal/history"
	"github.com/diogo/chatstream/internal/render"
	"github.com/diogo/chatstream/internal/stream"
)

// Gradient colors for animation
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#FFD54F"), // Amber
	lipgloss.Color("#F5DEB3"), // Wheat
	lipgloss.Color("#E5C07B"), // Gold
	lipgloss.Color("#D4A017"), // Mustard
	lipgloss.Color("#C19A6B"), // Camel
	lipgloss.Color("#A0522D"), // Sienna
}

var (
	colorText     = lipgloss.AdaptiveColor{Light: "#3E2F1C", Dark: "#F5DEB3"}
	colorTextDim  = lipgloss.Color("#8B7D6B")
	colorTextMute = lipgloss.Color("#5C4F3D")
	colorSuccess  = lipgloss.Color("#6B8E23")
	colorPrimary  = lipgloss.Color("#C19A6B")
	colorWarn     = lipgloss.Color("#B7410E")
	colorError    = lipgloss.Color("#B03A2E")
)

// Styles matching the chat TUI
var (
	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true).
				MarginBottom(0)

	assistantBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Foreground(colorText).
				Padding(0, 1).
				MarginTop(1).
				MarginBottom(1)
)

// spinner handles the animated loading indicator
type spinner struct {
	w       io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool // Flag to prevent double-close
}

// newSpinner creates a new animated spinner drawing on w
func newSpinner(w io.Writer, message string) *spinner {
	return &spinner{
		w:       w,
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
		fmt.Fprint(s.w, "\033[?25l")

		for {
			select {
			case <-s.stop:
				// Clear line and show cursor
				fmt.Fprint(s.w, "\r\033[K\033[?25h")
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
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "▓", "▒", "░"}

	spinIdx := s.frame % len(chars)
	spinColor := gradientColors[s.frame%len(gradientColors)]
	spinnerChar := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[spinIdx])

	barWidth := 12
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		colorIdx := (i + s.frame) % len(gradientColors)
		charIdx := (i + s.frame/2) % len(barChars)
		bar.WriteString(lipgloss.NewStyle().Foreground(gradientColors[colorIdx]).Render(barChars[charIdx]))
	}

	var dots strings.Builder
	numDots := (s.frame / 3) % 4
	for i := 0; i < 3; i++ {
		if i < numDots {
			dotColor := gradientColors[(s.frame+i)%len(gradientColors)]
			dots.WriteString(lipgloss.NewStyle().Foreground(dotColor).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render("○"))
		}
	}

	msg := lipgloss.NewStyle().Foreground(colorText).Render(s.message)
	fmt.Fprintf(s.w, "\r\033[K%s %s %s %s", spinnerChar, bar.String(), msg, dots.String())
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
	fmt.Fprintf(s.w, "%s %s\n", checkmark, msg)
}

// stopWithError stops the spinner and shows error
func (s *spinner) stopWithError() {
	s.stopOnce()
	<-s.done
}

// runQuery sends a single prompt and prints the reply.
// Without a terminal, or with --raw, the reply is streamed to stdout as it
// arrives; otherwise a spinner runs and the finished reply is rendered.
func runQuery(cmd *cobra.Command, deps *Dependencies, flags *rootFlags, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return apierrors.ErrEmptyPrompt
	}

	cfg, err := loadConfig(cmd, deps)
	if err != nil {
		return err
	}
	logger := newLogger(deps.Stderr, cfg.Verbose)

	session, endpoint, err := newSession(cfg, deps, logger)
	if err != nil {
		return err
	}

	raw := flags.raw || deps.IsTTY == nil || !deps.IsTTY()
	ctx := commandContext(cmd)

	startTime := time.Now()
	var res stream.Result
	if raw {
		res, err = streamRaw(session, deps.Stdout, func() (stream.Result, error) {
			return session.Submit(ctx, prompt)
		})
	} else {
		spin := newSpinner(deps.Stderr, "Waiting for reply")
		spin.start()
		unsubscribe := session.Subscribe(func(snap stream.Snapshot) {
			if reply, ok := trailingReply(snap); ok {
				spin.setMessage(fmt.Sprintf("Streaming reply (%d bytes)", len(reply)))
			}
		})
		res, err = session.Submit(ctx, prompt)
		unsubscribe()
		if res.Outcome == stream.OutcomeCompleted {
			spin.stopWithSuccess("Done")
		} else {
			spin.stopWithError()
		}
	}
	logger.Debug("query finished",
		"outcome", res.Outcome.String(),
		"chunks", res.Chunks,
		"duration", time.Since(startTime).Round(time.Millisecond))

	switch res.Outcome {
	case stream.OutcomeUnconfigured:
		fmt.Fprintln(deps.Stderr, formatErrorMessage(apierrors.ErrEndpointNotConfigured, "Prompt not sent"))
		return apierrors.ErrEndpointNotConfigured
	case stream.OutcomeNoBody:
		fmt.Fprintln(deps.Stderr, lipgloss.NewStyle().Foreground(colorWarn).Render("⚠ The endpoint answered without a reply body"))
		return nil
	case stream.OutcomeFailed:
		if !raw {
			if res.Reply != "" {
				printReply(deps, cfg, res.Reply)
			}
			fmt.Fprintln(deps.Stderr, formatErrorMessage(err, "Request failed"))
		}
		return fmt.Errorf("request failed: %w", err)
	}
	if err != nil {
		return err
	}

	if !raw {
		printReply(deps, cfg, res.Reply)
	}

	if cfg.CopyToClipboard && deps.Clipboard != nil {
		copyReply(deps, res.Reply)
	}

	if flags.output != "" {
		opts := history.DefaultExportOptions()
		opts.Endpoint = endpoint.String()
		opts.Format = history.FormatForPath(flags.output)
		if err := history.WriteExport(flags.output, session.Snapshot().Transcript, opts); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		successMsg := lipgloss.NewStyle().Foreground(colorSuccess).Render(
			fmt.Sprintf("✓ Conversation saved to %s", flags.output),
		)
		fmt.Fprintln(deps.Stderr, successMsg)
	}

	return nil
}

// streamRaw writes each newly arrived piece of the reply to w while submit runs
func streamRaw(session *stream.Session, w io.Writer, submit func() (stream.Result, error)) (stream.Result, error) {
	var (
		written  int
		writeErr error
	)
	unsubscribe := session.Subscribe(func(snap stream.Snapshot) {
		reply, ok := trailingReply(snap)
		if !ok || writeErr != nil || len(reply) <= written {
			return
		}
		_, writeErr = io.WriteString(w, reply[written:])
		written = len(reply)
	})
	res, err := submit()
	unsubscribe()

	if err == nil && writeErr != nil {
		err = fmt.Errorf("failed to write reply: %w", writeErr)
	}
	return res, err
}

// trailingReply returns the in-progress assistant message of snap
func trailingReply(snap stream.Snapshot) (string, bool) {
	last, ok := snap.Transcript.Last()
	if !ok || last.IsUser() {
		return "", false
	}
	return last.Content, true
}

// printReply renders the reply as markdown inside the assistant bubble
func printReply(deps *Dependencies, cfg config.Config, reply string) {
	termWidth := 80
	if deps.TermWidth != nil {
		termWidth = deps.TermWidth()
	}
	bubbleWidth := termWidth - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}
	contentWidth := bubbleWidth - 4

	fmt.Fprintln(deps.Stdout, assistantLabelStyle.Render("✦ Assistant"))

	renderOpts := render.OptionsFromConfig(cfg.Markdown).WithWidth(contentWidth)
	rendered := render.Reply(reply, renderOpts)
	fmt.Fprintln(deps.Stdout, assistantBubbleStyle.Width(bubbleWidth).Render(rendered))
}

func copyReply(deps *Dependencies, reply string) {
	if err := deps.Clipboard(reply); err != nil {
		warnMsg := lipgloss.NewStyle().Foreground(colorWarn).Render(
			fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err),
		)
		fmt.Fprintln(deps.Stderr, warnMsg)
		return
	}
	fmt.Fprintln(deps.Stderr, lipgloss.NewStyle().Foreground(colorSuccess).Render("✓ Copied to clipboard"))
}

// formatErrorMessage formats an error with additional context from structured errors
func formatErrorMessage(err error, context string) string {
	if err == nil {
		return ""
	}

	errorStyle := lipgloss.NewStyle().Foreground(colorError)
	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)

	var sb strings.Builder
	sb.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %v", context, err)))

	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}

	if endpoint := apierrors.GetEndpoint(err); endpoint != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  Endpoint: %s", endpoint)))
	}

	// A body the message could not be pulled from is shown as is
	if body := apierrors.GetResponseBody(err); body != "" && apierrors.ExtractErrorMessage(body) == "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n\n  %s", strings.ReplaceAll(body, "\n", "\n  "))))
		return sb.String()
	}

	switch {
	case errors.Is(err, apierrors.ErrEndpointNotConfigured):
		sb.WriteString(dimStyle.Render("\n  Hint: Pass --endpoint or run 'chatstream config set endpoint <url>'"))
	case apierrors.IsTimeoutError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Request timed out. Try again or raise timeout_seconds"))
	case apierrors.IsStreamError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: The reply was cut off before it finished"))
	case apierrors.IsNetworkError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Check that the endpoint is reachable and try again"))
	case apierrors.IsServerError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: The endpoint failed. Try again later"))
	}

	return sb.String()
}
