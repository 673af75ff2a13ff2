package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/raylu/git-whence/internal/blame"
	"github.com/raylu/git-whence/internal/config"
	"github.com/raylu/git-whence/internal/git"
)

// historyPanelMaxRows caps the line-history overlay so it never swallows the
// listing.
const historyPanelMaxRows = 8

// Styles holds all the lipgloss styles
type Styles struct {
	hash       lipgloss.Style
	boundary   lipgloss.Style
	author     lipgloss.Style
	age        lipgloss.Style
	lineNumber lipgloss.Style
	text       lipgloss.Style
	cursor     lipgloss.Style
	title      lipgloss.Style
	help       lipgloss.Style
	statusBar  lipgloss.Style
	notice     lipgloss.Style
	modal      lipgloss.Style
}

// createStyles initializes all lipgloss styles based on the theme and the
// configured column widths
func createStyles(cfg *config.Config) *Styles {
	theme := cfg.Theme
	return &Styles{
		hash: lipgloss.NewStyle().
			Foreground(theme.HashFg).
			Width(8),
		boundary: lipgloss.NewStyle().
			Foreground(theme.BoundaryFg).
			Width(8),
		author: lipgloss.NewStyle().
			Foreground(theme.AuthorFg).
			Width(cfg.Spacing.AuthorWidth),
		age: lipgloss.NewStyle().
			Foreground(theme.AgeFg).
			Width(cfg.Spacing.AgeWidth).
			Align(lipgloss.Right),
		lineNumber: lipgloss.NewStyle().
			Foreground(theme.LineNumberFg).
			Width(cfg.Spacing.LineNumberWidth).
			Align(lipgloss.Right),
		text: lipgloss.NewStyle().Foreground(theme.TextFg),
		cursor: lipgloss.NewStyle().
			Foreground(theme.CursorFg).
			Background(theme.CursorBg).
			Bold(true),
		title: lipgloss.NewStyle().
			Foreground(theme.TitleFg).
			Background(theme.TitleBg).
			Bold(true).
			Padding(0, 1),
		help: lipgloss.NewStyle().
			Foreground(theme.HelpFg).
			Italic(true),
		statusBar: lipgloss.NewStyle().
			Foreground(theme.TitleFg).
			Background(theme.TitleBg).
			Padding(0, 1),
		notice: lipgloss.NewStyle().
			Foreground(theme.NoticeFg).
			Bold(true),
		modal: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.BorderFg).
			Padding(0, 1),
	}
}

// View renders the UI
func (m Model) View() string {
	view := m.stack.Current()
	if view == nil {
		return "No view to display\n"
	}

	var sections []string
	sections = append(sections, m.renderTitle(view))
	sections = append(sections, m.renderLines(view))

	if m.showHistory {
		sections = append(sections, m.renderHistoryPanel(view))
	} else if m.showHelp {
		sections = append(sections, m.renderHelpPanel())
	}

	sections = append(sections, m.renderStatusBar(view))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderTitle renders the title bar: the file identity and the viewed
// revision's subject, plus, after a follow crossed a rename, the path the
// file later moved to
func (m Model) renderTitle(view *blame.View) string {
	title := fmt.Sprintf("git-whence: %s @ %s", view.Path, git.Abbrev(view.Revision))
	if view.Commit != nil && view.Commit.Summary != "" {
		title += fmt.Sprintf(" %q", view.Commit.Summary)
	}
	if view.RenamedTo != "" {
		title += fmt.Sprintf(" (later renamed to %s)", view.RenamedTo)
	}
	if m.stack.Depth() > 1 {
		title += fmt.Sprintf(" [depth %d]", m.stack.Depth())
	}
	if m.width > 4 {
		title = ansi.Truncate(title, m.width-4, "...")
	}
	return m.styles.title.Render(title)
}

// renderLines renders the visible slice of the attribution listing
func (m Model) renderLines(view *blame.View) string {
	if len(view.Lines) == 0 {
		return m.styles.text.Render("(empty file)")
	}

	start := m.viewport.offset
	end := min(start+m.viewport.height, len(view.Lines))
	if start >= len(view.Lines) {
		start = max(0, len(view.Lines)-m.viewport.height)
		end = len(view.Lines)
	}

	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		rows = append(rows, m.renderLine(view, i))
	}
	return strings.Join(rows, "\n")
}

// renderLine renders one attribution row
func (m Model) renderLine(view *blame.View, idx int) string {
	line := view.Lines[idx]

	hashStyle := m.styles.hash
	if line.Boundary || line.IsUncommitted() {
		hashStyle = m.styles.boundary
	}

	var parts []string
	parts = append(parts, hashStyle.Render(line.DisplayHash()))
	parts = append(parts, m.styles.author.Render(
		ansi.Truncate(line.Author, m.config.Spacing.AuthorWidth, "")))
	parts = append(parts, m.styles.age.Render(compactAge(line.When)))
	if m.config.ShowLineNo {
		parts = append(parts, m.styles.lineNumber.Render(fmt.Sprintf("%d", line.Number)))
	}
	text := strings.ReplaceAll(line.Text, "\t", strings.Repeat(" ", m.config.TabSize))
	parts = append(parts, m.styles.text.Render(text))

	row := strings.Join(parts, " ")
	if m.width > 0 {
		row = ansi.Truncate(row, m.width, "…")
	}
	if idx == view.Cursor {
		// the cursor restyles the whole row, so drop the column colors
		row = m.styles.cursor.Render(ansi.Strip(row))
	}
	return row
}

// renderStatusBar renders the status bar. A pending query or a notice takes
// over the line so no extra row is needed
func (m Model) renderStatusBar(view *blame.View) string {
	if m.pending {
		return m.styles.statusBar.Width(m.width).Render(m.spin.View() + " resolving history...")
	}
	if m.notice != "" {
		return m.styles.notice.Width(m.width).Render(m.notice)
	}

	var commitPart string
	if len(view.Lines) > 0 {
		line := view.CursorLine()
		commitPart = fmt.Sprintf(" | %s %s %s",
			line.DisplayHash(),
			ansi.Truncate(line.Author, 20, "..."),
			humanize.Time(line.When))
	}

	branchPart := ""
	if m.session.Branch != "" {
		branchPart = fmt.Sprintf("[%s] ", m.session.Branch)
	}

	status := fmt.Sprintf("%sline %d/%d | depth %d%s | enter:follow b:back B:start l:history y:yank h:help q:quit",
		branchPart, view.Cursor+1, len(view.Lines), m.stack.Depth(), commitPart)
	if m.width > 4 {
		status = ansi.Truncate(status, m.width-4, "...")
	}
	return m.styles.statusBar.Width(m.width).Render(status)
}

// renderHelpPanel renders the help panel below the main view
func (m Model) renderHelpPanel() string {
	helpText := []string{
		"Repository: " + m.session.RepoRoot,
		"",
		"Keyboard Shortcuts:",
		"  enter   Follow line to prior revision │ g     Go to top",
		"  b       Back to previous view         │ G     Go to bottom",
		"  B       Back to starting view         │ u     Half page up",
		"  j, ↓    Cursor down                   │ d     Half page down",
		"  k, ↑    Cursor up                     │ l     Line history",
		"  y       Copy commit hash              │ h, ?  Toggle help",
		"  q, esc  Quit",
	}

	helpStyle := m.styles.help.
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(m.config.Theme.BorderFg).
		Padding(0, 1).
		Width(max(m.width-2, 20))

	return helpStyle.Render(strings.Join(helpText, "\n"))
}

// renderHistoryPanel renders the commits that touched the selected line,
// newest first
func (m Model) renderHistoryPanel(view *blame.View) string {
	var rows []string
	rows = append(rows, m.styles.title.Render(
		fmt.Sprintf("History of %s:%d", view.Path, m.historyLine)))

	shown := m.history
	if len(shown) > historyPanelMaxRows {
		shown = shown[:historyPanelMaxRows]
	}
	for _, ev := range shown {
		label := fmt.Sprintf("%s %-12s %-14s %s",
			ev.Commit.ShortHash(),
			ansi.Truncate(ev.Commit.Author, 12, ""),
			humanize.Time(ev.Commit.When),
			ansi.Truncate(ev.Commit.Summary, 50, "..."))
		if ev.NewFile {
			label += " (file created)"
		} else if ev.OldPath != "" && ev.NewPath != "" && ev.OldPath != ev.NewPath {
			label += fmt.Sprintf(" (renamed from %s)", ev.OldPath)
		}
		rows = append(rows, m.styles.text.Render(label))
	}
	if len(m.history) > historyPanelMaxRows {
		rows = append(rows, m.styles.help.Render(
			fmt.Sprintf("and %d more", len(m.history)-historyPanelMaxRows)))
	}
	rows = append(rows, m.styles.help.Render("esc: close"))

	return m.styles.modal.Width(max(m.width-2, 20)).Render(strings.Join(rows, "\n"))
}

// historyPanelHeight estimates the rows the overlay occupies so the listing
// can shrink to make room.
func (m Model) historyPanelHeight() int {
	rows := min(len(m.history), historyPanelMaxRows)
	if len(m.history) > historyPanelMaxRows {
		rows++
	}
	return rows + 4 // header, hint, border
}

// compactAge formats a commit time for the fixed-width age column. The wider
// humanized form is reserved for the status bar and overlays.
func compactAge(when time.Time) string {
	if when.IsZero() {
		return "-"
	}
	d := time.Since(when)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	case d < 365*24*time.Hour:
		return fmt.Sprintf("%dmo", int(d.Hours()/(24*30)))
	default:
		return fmt.Sprintf("%dy", int(d.Hours()/(24*365)))
	}
}
