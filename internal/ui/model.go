package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/flowdecoder/internal/editor"
	"github.com/five82/flowdecoder/internal/prefs"
	"github.com/five82/flowdecoder/internal/session"
	"github.com/five82/flowdecoder/internal/toast"
)

const (
	flushTimeout = 2 * time.Second
	placeholder  = "Paste percent-encoded JSON, then press ctrl+d"
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Editor    *editor.Editor
	Prefs     prefs.Prefs
	PrefsPath string
	// Backend names the session store in the header.
	Backend string
	Logger  *slog.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	editor    *editor.Editor
	logger    *slog.Logger
	prefs     prefs.Prefs
	prefsPath string
	backend   string

	// changes carries wakeups from toast and status timers.
	changes chan struct{}

	theme       Theme
	highlighter jsonHighlighter
	keys        keyMap
	help        help.Model

	input  textarea.Model
	result viewport.Model

	view   editor.View
	toasts []toast.Toast
	status session.Status

	width    int
	height   int
	ready    bool
	showHelp bool
}

// New creates a new Bubble Tea model and subscribes it to the editor's toast
// queue and session status.
func New(opts Options) (Model, error) {
	if opts.Editor == nil {
		return Model{}, errors.New("ui requires an editor")
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	input := textarea.New()
	input.Placeholder = placeholder
	input.CharLimit = 0
	input.MaxHeight = 0
	input.ShowLineNumbers = opts.Prefs.LineNumbers
	input.Focus()

	theme := GetTheme(opts.Prefs.Theme)
	m := Model{
		ctx:         ctx,
		editor:      opts.Editor,
		logger:      logger.With("component", "ui"),
		prefs:       opts.Prefs,
		prefsPath:   prefsPath,
		backend:     opts.Backend,
		changes:     make(chan struct{}, 1),
		theme:       theme,
		highlighter: newJSONHighlighter(theme),
		keys:        DefaultKeyMap(),
		help:        help.New(),
		input:       input,
		result:      viewport.New(0, 0),
		status:      session.StatusHidden,
	}
	m.applyTheme()

	wake := m.changes
	notify := func() {
		select {
		case wake <- struct{}{}:
		default:
		}
	}
	opts.Editor.Toasts().OnChange(notify)
	opts.Editor.Store().OnStatus(func(session.Status) { notify() })

	return m, nil
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		restoreCmd(m.ctx, m.editor),
		waitForChange(m.changes),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case restoredMsg:
		m.sync(editor.View(msg))
		return m, nil

	case changedMsg:
		m.refresh()
		return m, waitForChange(m.changes)
	}

	var cmd tea.Cmd
	if m.view.ShowResult {
		m.result, cmd = m.result.Update(msg)
	} else {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.flush()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.Decode):
		text := m.input.Value()
		if m.view.ShowResult {
			text = m.view.Text
		}
		_, _ = m.editor.Decode(m.ctx, text)
		m.sync(m.editor.View())
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		_ = m.editor.Copy()
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Reset):
		_ = m.editor.Reset(m.ctx)
		m.sync(m.editor.View())
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		m.editor.Toggle(m.ctx)
		m.sync(m.editor.View())
		return m, nil

	case key.Matches(msg, m.keys.Dismiss):
		m.editor.Toasts().DismissAll()
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Action):
		m.invokeNewestAction()
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.applyTheme()
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.LineNumbers):
		m.prefs.LineNumbers = !m.prefs.LineNumbers
		m.input.ShowLineNumbers = m.prefs.LineNumbers
		m.renderResult()
		m.savePrefs()
		return m, nil
	}

	if m.view.ShowResult {
		return m.handleResultKey(msg)
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.editor.Input(after)
		m.view.Text = after
	}
	return m, cmd
}

func (m Model) handleResultKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.result.LineUp(1)
	case key.Matches(msg, m.keys.Down):
		m.result.LineDown(1)
	case key.Matches(msg, m.keys.PageUp):
		m.result.ViewUp()
	case key.Matches(msg, m.keys.PageDown):
		m.result.ViewDown()
	}
	return m, nil
}

// invokeNewestAction runs the first action of the most recent toast that has one.
func (m *Model) invokeNewestAction() {
	toasts := m.editor.Toasts().Toasts()
	for i := len(toasts) - 1; i >= 0; i-- {
		t := toasts[i]
		if len(t.Actions) == 0 || t.Phase != toast.PhaseVisible {
			continue
		}
		m.editor.Toasts().Invoke(t.ID, 0)
		return
	}
}

// sync adopts a new editor view into the textarea or result viewport.
func (m *Model) sync(v editor.View) {
	m.view = v
	if v.ShowResult {
		m.input.Blur()
		m.renderResult()
		m.result.GotoTop()
	} else {
		if m.input.Value() != v.Text {
			m.input.SetValue(v.Text)
		}
		m.input.Focus()
	}
	m.refresh()
}

// refresh pulls toasts and status after a change notification.
func (m *Model) refresh() {
	m.toasts = m.editor.Toasts().Toasts()
	m.status = m.editor.Store().Status()
	m.layout()
}

func (m *Model) renderResult() {
	if m.view.ShowResult {
		m.result.SetContent(m.highlighter.Render(m.view.Text, m.prefs.LineNumbers))
	}
}

func (m *Model) applyTheme() {
	m.highlighter = newJSONHighlighter(m.theme)
	styles := m.theme.Styles()
	m.help.Styles.ShortKey = styles.AccentText
	m.help.Styles.ShortDesc = styles.MutedText
	m.help.Styles.ShortSeparator = styles.FaintText
	m.renderResult()
}

// layout sizes the editor panes to the space left by the header, toasts and footer.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	bodyHeight := m.height - 2 - len(m.toasts) - 2 // header, footer, toasts, borders
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	width := m.width - 2
	if width < 1 {
		width = 1
	}
	m.input.SetWidth(width)
	m.input.SetHeight(bodyHeight)
	m.result.Width = width
	m.result.Height = bodyHeight
}

func (m Model) flush() {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(m.ctx), flushTimeout)
	defer cancel()
	if err := m.editor.Flush(ctx); err != nil {
		m.logger.Warn("flush on exit failed", "error", err)
	}
}

func (m Model) savePrefs() {
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.logger.Warn("save prefs failed", "error", err)
	}
}

// Rendering

func (m Model) renderMain() string {
	parts := []string{m.renderHeader(), m.renderBody()}
	if t := m.renderToasts(); t != "" {
		parts = append(parts, t)
	}
	parts = append(parts, m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	mode := "INPUT"
	if m.view.ShowResult {
		mode = "RESULT"
	}

	left := styles.Logo.Render("flowdecoder") + "  " + styles.Mode.Render(mode)
	if m.view.HasResult && !m.view.ShowResult {
		left += "  " + styles.FaintText.Render("tab: result")
	}

	right := statusLabel(styles, m.status)
	if m.backend != "" {
		if right != "" {
			right += "  "
		}
		right += styles.FaintText.Render(m.backend)
	}

	gap := m.width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return styles.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func statusLabel(styles Styles, s session.Status) string {
	switch s {
	case session.StatusSaving:
		return styles.WarningText.Render("● saving")
	case session.StatusSaved:
		return styles.SuccessText.Render("✓ saved")
	default:
		return ""
	}
}

func (m Model) renderBody() string {
	styles := m.theme.Styles()
	if m.view.ShowResult {
		return styles.PaneFocus.Render(m.result.View())
	}
	return styles.Pane.Render(m.input.View())
}

func (m Model) renderToasts() string {
	if len(m.toasts) == 0 {
		return ""
	}
	styles := m.theme.Styles()
	lines := make([]string, 0, len(m.toasts))
	for _, t := range m.toasts {
		text := toastIcon(t.Kind) + " " + t.Message
		if len(t.Actions) > 0 {
			text += fmt.Sprintf("  [%s %s]", m.keys.Action.Help().Key, t.Actions[0].Label)
		}
		line := styles.ToastStyle(t.Kind, t.Phase == toast.PhaseExiting).Render(text)
		lines = append(lines, lipgloss.PlaceHorizontal(m.width, lipgloss.Right, line))
	}
	return strings.Join(lines, "\n")
}

func toastIcon(k toast.Kind) string {
	switch k {
	case toast.KindSuccess:
		return "✓"
	case toast.KindWarning:
		return "!"
	case toast.KindError:
		return "✗"
	default:
		return "i"
	}
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	return styles.Footer.Width(m.width).Render(m.help.ShortHelpView(m.keys.ShortHelp()))
}

// Messages

type restoredMsg editor.View

type changedMsg struct{}

// Commands

func restoreCmd(ctx context.Context, ed *editor.Editor) tea.Cmd {
	return func() tea.Msg {
		return restoredMsg(ed.Restore(ctx))
	}
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return changedMsg{}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx is
// cancelled. Pending edits are flushed on the way out.
func Run(opts Options) error {
	m, err := New(opts)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, context.Canceled) {
		m.flush()
		return nil
	}
	return err
}
