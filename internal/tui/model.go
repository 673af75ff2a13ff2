package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/raylu/git-whence/internal/blame"
	"github.com/raylu/git-whence/internal/config"
	"github.com/raylu/git-whence/internal/export"
	"github.com/raylu/git-whence/internal/git"
)

// Model represents the application state
type Model struct {
	session  Session
	stack    *blame.Stack
	resolver *blame.Resolver
	tracer   *blame.Tracer
	backend  git.Backend
	config   *config.Config
	styles   *Styles
	keymap   map[string]string
	viewport Viewport
	spin     spinner.Model
	width    int
	height   int

	// pending is set while a backend query runs; all input except ctrl+c
	// is ignored until the result message lands.
	pending bool

	showHelp    bool
	showHistory bool
	history     []git.LineEvent
	historyLine int
	notice      string

	// clipboard overrides the OSC52 target, nil means the terminal
	clipboard io.Writer

	log             *zap.Logger
	helpPanelHeight int
}

// Viewport controls the visible portion of the attribution listing
type Viewport struct {
	offset int // Current scroll position
	height int // Available height for content
}

// followLoadedMsg delivers the result of following a line to its prior
// revision.
type followLoadedMsg struct {
	view *blame.View
	line int
	err  error
}

// historyLoadedMsg delivers the commits for the line-history overlay.
type historyLoadedMsg struct {
	line   int
	events []git.LineEvent
	err    error
}

// NewModel creates a new TUI model. The initial view must already be
// resolved; startup failures are the caller's to report before the program
// starts.
func NewModel(initial *blame.View, cfg *config.Config, resolver *blame.Resolver, backend git.Backend, session Session, log *zap.Logger) Model {
	if log == nil {
		log = zap.NewNop()
	}
	styles := createStyles(cfg)
	return Model{
		session:         session,
		stack:           blame.NewStack(initial),
		resolver:        resolver,
		tracer:          blame.NewTracer(backend, log),
		backend:         backend,
		config:          cfg,
		styles:          styles,
		keymap:          buildKeymap(cfg.Keybindings),
		viewport:        Viewport{offset: 0, height: 20},
		spin:            spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(styles.notice)),
		log:             log.Named("tui"),
		helpPanelHeight: 12,
	}
}

// buildKeymap inverts the configured action→keys table into a key→action
// index for dispatch.
func buildKeymap(overrides config.Keybindings) map[string]string {
	index := make(map[string]string)
	for action, keys := range config.MergeKeybindings(overrides) {
		for _, k := range keys {
			index[k] = action
		}
	}
	return index
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case followLoadedMsg:
		m.pending = false
		switch {
		case errors.Is(msg.err, blame.ErrNoEarlierHistory):
			m.notice = fmt.Sprintf("line %d: no earlier history", msg.line)
		case errors.Is(msg.err, blame.ErrAmbiguousHistory):
			m.notice = fmt.Sprintf("line %d: %v", msg.line, msg.err)
		case msg.err != nil:
			// the previous view stays current
			m.notice = fmt.Sprintf("follow failed: %v", msg.err)
		default:
			m.stack.Push(msg.view)
			m.notice = ""
			if msg.view.RenamedTo != "" {
				m.notice = fmt.Sprintf("crossed a rename: %s was later renamed to %s",
					msg.view.Path, msg.view.RenamedTo)
			}
			m.viewport.offset = 0
			m.ensureCursorVisible()
		}
		return m, nil

	case historyLoadedMsg:
		m.pending = false
		if msg.err != nil {
			m.notice = fmt.Sprintf("history failed: %v", msg.err)
			return m, nil
		}
		m.showHistory = true
		m.showHelp = false
		m.history = msg.events
		m.historyLine = msg.line
		m.updateViewportHeight()
		return m, nil

	case spinner.TickMsg:
		if !m.pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateViewportHeight()
		m.ensureCursorVisible()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.pending {
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	}

	m.notice = ""

	// esc closes an open overlay before it quits the session
	if msg.String() == "esc" && (m.showHelp || m.showHistory) {
		m.closeOverlays()
		return m, nil
	}

	switch m.keymap[msg.String()] {
	case "quit":
		return m, tea.Quit
	case "follow":
		return m.startFollow()
	case "back":
		if !m.stack.Back() {
			m.notice = "already at the starting view"
			return m, nil
		}
		m.closeOverlays()
		m.viewport.offset = 0
		m.ensureCursorVisible()
	case "back_to_start":
		if !m.stack.PopToBottom() {
			m.notice = "already at the starting view"
			return m, nil
		}
		m.notice = fmt.Sprintf("back to the starting view (%s)", m.session.StartRevision)
		m.closeOverlays()
		m.viewport.offset = 0
		m.ensureCursorVisible()
	case "cursor_up":
		m.stack.MoveCursor(-1)
		m.ensureCursorVisible()
	case "cursor_down":
		m.stack.MoveCursor(1)
		m.ensureCursorVisible()
	case "page_up":
		m.stack.MoveCursor(-m.halfPage())
		m.ensureCursorVisible()
	case "page_down":
		m.stack.MoveCursor(m.halfPage())
		m.ensureCursorVisible()
	case "go_top":
		m.stack.MoveCursor(-len(m.stack.Current().Lines))
		m.ensureCursorVisible()
	case "go_bottom":
		m.stack.MoveCursor(len(m.stack.Current().Lines))
		m.ensureCursorVisible()
	case "toggle_help":
		m.showHelp = !m.showHelp
		if m.showHelp {
			m.showHistory = false
		}
		m.updateViewportHeight()
	case "toggle_history":
		if m.showHistory {
			m.showHistory = false
			m.history = nil
			m.updateViewportHeight()
			return m, nil
		}
		return m.startHistory()
	case "yank":
		m.yankCursorHash()
	}

	return m, nil
}

// startFollow kicks off the reblame of the cursor line. Input stays blocked
// until the backend answers.
func (m Model) startFollow() (tea.Model, tea.Cmd) {
	view := m.stack.Current()
	if len(view.Lines) == 0 {
		return m, nil
	}
	line := view.Cursor + 1
	if view.CursorLine().IsUncommitted() {
		m.notice = fmt.Sprintf("line %d is not committed yet", line)
		return m, nil
	}
	m.pending = true
	m.closeOverlays()
	return m, tea.Batch(m.followCmd(view, line), m.spin.Tick)
}

// followCmd traces the line to the parent of the commit blamed for it and
// resolves the attribution there. It runs on the bubbletea command
// goroutine; the model refuses input until the message lands.
func (m Model) followCmd(view *blame.View, line int) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		anchor, err := m.tracer.Trace(ctx, view, line)
		if err != nil {
			return followLoadedMsg{line: line, err: err}
		}
		next, err := m.resolver.Resolve(ctx, anchor.Path, anchor.Revision)
		if err != nil {
			return followLoadedMsg{line: line, err: err}
		}
		next.Cursor = anchor.Line - 1
		if last := len(next.Lines) - 1; next.Cursor > last {
			next.Cursor = last
		}
		if next.Cursor < 0 {
			next.Cursor = 0
		}
		next.RenamedTo = anchor.RenamedTo
		return followLoadedMsg{view: next, line: line}
	}
}

func (m Model) startHistory() (tea.Model, tea.Cmd) {
	view := m.stack.Current()
	if len(view.Lines) == 0 {
		return m, nil
	}
	m.pending = true
	m.showHelp = false
	return m, tea.Batch(m.historyCmd(view, view.Cursor+1), m.spin.Tick)
}

// historyCmd loads the commits that touched the cursor line.
func (m Model) historyCmd(view *blame.View, line int) tea.Cmd {
	return func() tea.Msg {
		events, err := m.backend.LineHistory(context.Background(), view.Path, view.Revision, line)
		return historyLoadedMsg{line: line, events: events, err: err}
	}
}

// yankCursorHash copies the commit hash under the cursor via OSC52.
func (m *Model) yankCursorHash() {
	view := m.stack.Current()
	if len(view.Lines) == 0 {
		return
	}
	hash := view.CursorLine().Commit
	if err := export.CopyToClipboard(hash, m.clipboard); err != nil {
		m.notice = fmt.Sprintf("copy failed: %v", err)
		return
	}
	m.notice = fmt.Sprintf("copied %s", git.Abbrev(hash))
}

func (m *Model) closeOverlays() {
	m.showHelp = false
	m.showHistory = false
	m.history = nil
	m.updateViewportHeight()
}

func (m Model) halfPage() int {
	half := m.viewport.height / 2
	if half < 1 {
		half = 1
	}
	return half
}

// ensureCursorVisible scrolls the viewport so the cursor line stays on
// screen.
func (m *Model) ensureCursorVisible() {
	view := m.stack.Current()
	if view == nil || len(view.Lines) == 0 {
		m.viewport.offset = 0
		return
	}
	if view.Cursor < m.viewport.offset {
		m.viewport.offset = view.Cursor
	}
	if view.Cursor >= m.viewport.offset+m.viewport.height {
		m.viewport.offset = view.Cursor - m.viewport.height + 1
	}
	maxOffset := max(0, len(view.Lines)-m.viewport.height)
	if m.viewport.offset > maxOffset {
		m.viewport.offset = maxOffset
	}
	if m.viewport.offset < 0 {
		m.viewport.offset = 0
	}
}

// updateViewportHeight recalculates how many rows fit between the title bar,
// the status bar, and any open panel.
func (m *Model) updateViewportHeight() {
	base := m.height - 2 // title and status bars
	if m.showHelp {
		base -= m.helpPanelHeight
	} else if m.showHistory {
		base -= m.historyPanelHeight()
	}
	if base < 5 {
		base = 5
	}
	m.viewport.height = base
}
