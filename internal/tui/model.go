package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	apierrors "github.com/diogo/chatstream/internal/errors"
	"github.com/diogo/chatstream/internal/history"
	"github.com/diogo/chatstream/internal/models"
	"github.com/diogo/chatstream/internal/render"
	"github.com/diogo/chatstream/internal/stream"
)

// Animation tick message
type animationTickMsg time.Time

// Message types for the TUI
type (
	// snapshotMsg carries a published session state
	snapshotMsg stream.Snapshot

	// submitDoneMsg is sent when a submission returns
	submitDoneMsg struct {
		result stream.Result
		err    error
	}
)

// ChatSession is the part of a stream.Session the chat window drives
type ChatSession interface {
	Submit(ctx context.Context, prompt string) (stream.Result, error)
	Snapshot() stream.Snapshot
	Subscribe(fn func(stream.Snapshot)) func()
	Reset() error
	Configured() bool
}

// Options configures the chat window
type Options struct {
	// Endpoint is shown in the header and recorded in exports
	Endpoint string
	// Prompts fill the example chip row
	Prompts []string
	Render  render.Options
	// CopyOnComplete copies every finished reply to the clipboard
	CopyOnComplete bool
	Logger         *slog.Logger
	// Clipboard defaults to the system clipboard
	Clipboard func(string) error
}

type focusArea int

const (
	focusInput focusArea = iota
	focusChips
)

// Model represents the TUI state
type Model struct {
	session ChatSession
	opts    Options
	logger  *slog.Logger

	// ctx is cancelled on quit and tears down the in-flight request
	ctx         context.Context
	cancel      context.CancelFunc
	updates     chan stream.Snapshot
	unsubscribe func()

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	chips    chipRow

	// State
	transcript     models.Transcript
	revision       uint64
	loading        bool
	ready          bool
	err            error
	notice         string
	focus          focusArea
	animationFrame int
	animating      bool // an animationTick chain is in flight

	// Dimensions
	width  int
	height int
}

// NewChatModel creates a chat window bound to session
func NewChatModel(session ChatSession, opts Options) Model {
	ta := textarea.New()
	ta.Placeholder = "Type your message here..."
	ta.CharLimit = 8000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	if opts.Render == (render.Options{}) {
		opts.Render = render.DefaultOptions()
	}

	ctx, cancel := context.WithCancel(context.Background())
	updates := make(chan stream.Snapshot, 64)
	unsubscribe := session.Subscribe(func(snap stream.Snapshot) {
		select {
		case updates <- snap:
		case <-ctx.Done():
		}
	})

	current := session.Snapshot()

	return Model{
		session:     session,
		opts:        opts,
		logger:      opts.Logger,
		ctx:         ctx,
		cancel:      cancel,
		updates:     updates,
		unsubscribe: unsubscribe,
		textarea:    ta,
		spinner:     s,
		chips:       newChipRow(opts.Prompts),
		transcript:  current.Transcript,
		revision:    current.Revision,
		loading:     current.Loading,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.waitForSnapshot(),
	)
}

// Close stops listening to the session and cancels any request
func (m Model) Close() {
	if m.cancel != nil {
		m.cancel()
	}
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// startAnimation resets the frame and starts the tick chain unless one is
// already running
func (m *Model) startAnimation() tea.Cmd {
	m.animationFrame = 0
	if m.animating {
		return nil
	}
	m.animating = true
	return animationTick()
}

func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// waitForSnapshot blocks until the session publishes again
func (m Model) waitForSnapshot() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	ctx, updates := m.ctx, m.updates
	return func() tea.Msg {
		select {
		case snap := <-updates:
			return snapshotMsg(snap)
		case <-ctx.Done():
			return nil
		}
	}
}

// submit runs the request off the UI goroutine
func (m Model) submit(prompt string) tea.Cmd {
	session, ctx := m.session, m.ctx
	return func() tea.Msg {
		res, err := session.Submit(ctx, prompt)
		return submitDoneMsg{result: res, err: err}
	}
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.Close()
	return m, tea.Quit
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if next, cmd, handled := m.handleKey(msg); handled {
			return next, cmd
		}

	case snapshotMsg:
		wasLoading := m.loading
		m.applySnapshot(stream.Snapshot(msg))
		cmds = append(cmds, m.waitForSnapshot())
		if m.loading && !wasLoading {
			cmds = append(cmds, m.spinner.Tick, m.startAnimation())
		}

	case submitDoneMsg:
		m.handleSubmitDone(msg)

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case animationTickMsg:
		if m.loading {
			m.animationFrame++
			cmds = append(cmds, animationTick())
		} else {
			m.animating = false
		}
	}

	// Only key presses reach the textarea, so escape sequences never leak in
	if !m.loading && m.focus == focusInput {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	headerHeight := 4
	chipsHeight := 0
	if !m.chips.empty() {
		chipsHeight = 1
	}
	inputHeight := 6
	statusHeight := 1
	padding := 2

	vpHeight := m.height - headerHeight - chipsHeight - inputHeight - statusHeight - padding
	if vpHeight < 5 {
		vpHeight = 5
	}
	contentWidth := m.width - 4

	if !m.ready {
		m.viewport = viewport.New(contentWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(contentWidth - 4)
	m.updateViewport()
	m.viewport.GotoBottom()
}

// handleKey deals with keys the model owns. Unhandled keys fall through to
// the textarea and viewport.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		next, cmd := m.quit()
		return next, cmd, true

	case "ctrl+y":
		m.copyLastReply()
		return m, nil, true
	}

	if m.focus == focusChips {
		switch msg.String() {
		case "right", "l":
			m.chips.next()
		case "left", "h":
			m.chips.prev()
		case "enter":
			if prompt, ok := m.chips.selected(); ok {
				m.textarea.SetValue(prompt)
				m.textarea.CursorEnd()
			}
			m.focusInput()
		case "esc", "tab", "shift+tab":
			m.focusInput()
		}
		return m, nil, true
	}

	switch msg.String() {
	case "esc":
		if m.loading {
			return m, nil, true
		}
		next, cmd := m.quit()
		return next, cmd, true

	case "tab":
		if !m.chips.empty() {
			m.focus = focusChips
			m.chips.focused = true
			m.textarea.Blur()
		}
		return m, nil, true

	case "enter":
		next, cmd := m.handleEnter()
		return next, cmd, true
	}

	return m, nil, false
}

func (m *Model) focusInput() {
	m.focus = focusInput
	m.chips.focused = false
	m.textarea.Focus()
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	value := m.textarea.Value()
	if m.loading || strings.TrimSpace(value) == "" {
		return m, nil
	}

	m.notice = ""
	switch cmd := parseSlash(value); cmd.kind {
	case slashExit:
		return m.quit()

	case slashClear:
		if err := m.session.Reset(); err != nil {
			m.err = err
			return m, nil
		}
		m.textarea.Reset()
		m.err = nil
		m.notice = "Started a new conversation"
		return m, nil

	case slashSave:
		m.textarea.Reset()
		m.saveTranscript(cmd.arg)
		return m, nil

	case slashCopy:
		m.textarea.Reset()
		m.copyLastReply()
		return m, nil
	}

	m.textarea.Reset()
	m.err = nil
	m.loading = true

	return m, tea.Batch(
		m.submit(value),
		m.spinner.Tick,
		m.startAnimation(),
	)
}

func (m *Model) applySnapshot(snap stream.Snapshot) {
	if snap.Revision <= m.revision {
		return
	}
	m.revision = snap.Revision
	m.transcript = snap.Transcript
	m.loading = snap.Loading
	if snap.Err != nil {
		m.err = snap.Err
	}

	m.logger.Debug("snapshot", "revision", snap.Revision, "request_id", snap.RequestID,
		"messages", snap.Transcript.Len(), "loading", snap.Loading)

	if m.ready {
		m.updateViewport()
		m.viewport.GotoBottom()
	}
}

func (m *Model) handleSubmitDone(msg submitDoneMsg) {
	res := msg.result

	switch {
	case errors.Is(msg.err, apierrors.ErrBusy):
		m.notice = "Still waiting for the previous reply"
		return
	case msg.err != nil:
		m.err = msg.err
	}

	switch res.Outcome {
	case stream.OutcomeSkipped:
		m.loading = false
	case stream.OutcomeUnconfigured:
		m.notice = "No endpoint configured; the message was not sent"
	case stream.OutcomeNoBody:
		m.notice = "The endpoint sent no reply"
	case stream.OutcomeCompleted:
		if m.opts.CopyOnComplete && res.Reply != "" {
			m.copyText(res.Reply)
		}
	}
}

func (m *Model) copyLastReply() {
	reply, ok := m.transcript.LastReply()
	if !ok || reply == "" {
		m.notice = "Nothing to copy yet"
		return
	}
	m.copyText(reply)
}

func (m *Model) copyText(text string) {
	if err := m.opts.Clipboard(text); err != nil {
		m.err = fmt.Errorf("copy to clipboard: %w", err)
		return
	}
	m.notice = "Copied reply to clipboard"
}

func (m *Model) saveTranscript(path string) {
	if path == "" {
		m.err = fmt.Errorf("usage: /save <file.md|file.json>")
		return
	}
	if m.transcript.IsEmpty() {
		m.notice = "Nothing to save yet"
		return
	}
	opts := history.DefaultExportOptions()
	opts.Endpoint = m.opts.Endpoint
	opts.Format = history.FormatForPath(path)
	if err := history.WriteExport(path, m.transcript, opts); err != nil {
		m.err = err
		return
	}
	m.notice = "Saved conversation to " + path
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	var sections []string
	contentWidth := m.width - 4

	// header
	headerParts := []string{
		titleStyle.Render("✦ chatstream"),
		hintStyle.Render("  •  "),
	}
	if m.session != nil && m.session.Configured() {
		headerParts = append(headerParts, subtitleStyle.Render(m.opts.Endpoint))
	} else {
		headerParts = append(headerParts, warnStyle.Render("no endpoint configured"))
	}
	header := headerStyle.Width(contentWidth).Render(
		lipgloss.JoinHorizontal(lipgloss.Center, headerParts...))
	sections = append(sections, header)

	// transcript
	var messagesContent string
	if m.transcript.IsEmpty() {
		messagesContent = m.renderWelcome()
	} else {
		messagesContent = m.viewport.View()
	}
	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent))

	// example prompts
	if !m.chips.empty() {
		sections = append(sections, m.chips.view(contentWidth))
	}

	// input
	var inputContent string
	if m.loading {
		inputContent = m.renderLoadingAnimation()
	} else {
		inputContent = lipgloss.JoinVertical(
			lipgloss.Left,
			inputLabelStyle.Render("You"),
			m.textarea.View(),
		)
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(inputContent))

	sections = append(sections, m.renderStatusBar(contentWidth))

	if m.err != nil {
		sections = append(sections, FormatError(m.err))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	height := m.viewport.Height

	icon := welcomeIconStyle.Width(width).Render("✦")
	title := welcomeTitleStyle.Width(width).Render("Welcome to chatstream")
	hint := "Start a conversation by typing a message below"
	if !m.chips.empty() {
		hint += "\nor press Tab to pick an example"
	}
	subtitle := welcomeStyle.Width(width).Render(hint)

	content := lipgloss.JoinVertical(lipgloss.Center, "", icon, "", title, "", subtitle, "")

	topPadding := (height - lipgloss.Height(content)) / 2
	if topPadding < 0 {
		topPadding = 0
	}
	return strings.Repeat("\n", topPadding) + content
}

func (m Model) renderLoadingAnimation() string {
	barChars := []string{"█", "▓", "▒", "░", "▒", "▓"}
	frame := m.animationFrame

	var bar strings.Builder
	for i := 0; i < 16; i++ {
		style := lipgloss.NewStyle().Foreground(gradientColors[(i+frame)%len(gradientColors)])
		bar.WriteString(style.Render(barChars[(i+frame/2)%len(barChars)]))
	}

	label := "Waiting for reply"
	if reply, ok := m.transcript.Last(); ok && !reply.IsUser() {
		label = "Receiving"
	}
	text := lipgloss.NewStyle().Foreground(colorText).Render(" " + label + " ")

	return fmt.Sprintf("%s %s%s", m.spinner.View(), bar.String(), text)
}

func (m Model) renderStatusBar(width int) string {
	if m.notice != "" {
		return statusBarStyle.Width(width).Align(lipgloss.Center).Render(noticeStyle.Render(m.notice))
	}

	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Tab", "Examples"},
		{"Ctrl+Y", "Copy"},
		{"/save /clear", "Commands"},
		{"Esc", "Quit"},
	}
	if m.focus == focusChips {
		shortcuts = []struct {
			key  string
			desc string
		}{
			{"←→", "Choose"},
			{"Enter", "Use"},
			{"Esc", "Back"},
		}
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

// updateViewport refreshes the viewport content with styled messages
func (m *Model) updateViewport() {
	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6
	if bubbleWidth < 10 {
		bubbleWidth = 10
	}
	renderOpts := m.opts.Render.WithWidth(bubbleWidth - 4)

	for i, msg := range m.transcript.Messages() {
		if i > 0 {
			content.WriteString("\n")
		}

		if msg.IsUser() {
			label := userLabelStyle.Render("⬤ You")
			bubble := userBubbleStyle.Width(bubbleWidth).Render(msg.Content)
			content.WriteString(label + "\n" + bubble)
		} else {
			label := assistantLabelStyle.Render("✦ Assistant")
			rendered := render.Reply(msg.Content, renderOpts)
			bubble := assistantBubbleStyle.Width(bubbleWidth).Render(rendered)
			content.WriteString(label + "\n" + bubble)
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// RunChat starts the chat window and blocks until it exits
func RunChat(session ChatSession, opts Options, programOpts ...tea.ProgramOption) error {
	m := NewChatModel(session, opts)
	defer m.Close()

	programOpts = append([]tea.ProgramOption{tea.WithAltScreen()}, programOpts...)
	p := tea.NewProgram(m, programOpts...)

	_, err := p.Run()
	return err
}
