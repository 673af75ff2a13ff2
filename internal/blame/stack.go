// Package blame builds per-line attribution views and traces lines backwards
// through history. It owns the navigation stack the interactive session walks.
package blame

import (
	"github.com/raylu/git-whence/internal/git"
)

// View is a snapshot of one file's attribution at one revision. Everything
// except Cursor is immutable once the view is on the stack; Cursor is the
// session-local position, remembered so returning to the view restores it.
type View struct {
	Path     string
	Revision string // full commit hash
	Commit   *git.Commit
	Lines    []git.BlameLine
	Cursor   int // 0-based
	// RenamedTo is the path this file carries in later history, set when
	// the view was reached by following a line across a rename.
	RenamedTo string
}

// CursorLine returns the attribution under the cursor.
func (v *View) CursorLine() git.BlameLine {
	return v.Lines[v.Cursor]
}

// Stack is the navigation history of a session, bottom to top. It is never
// empty: the bottom view is the one the session started on and cannot be
// popped.
type Stack struct {
	views []*View
}

// NewStack returns a stack holding the initial view.
func NewStack(initial *View) *Stack {
	return &Stack{views: []*View{initial}}
}

// Current returns the top view.
func (s *Stack) Current() *View {
	return s.views[len(s.views)-1]
}

// Depth returns the number of views on the stack.
func (s *Stack) Depth() int {
	return len(s.views)
}

// Push makes v the new top view.
func (s *Stack) Push(v *View) {
	s.views = append(s.views, v)
}

// Back pops the top view and reports whether anything was popped. The
// uncovered view keeps the cursor position it had when it was left. Popping
// the bottom view is a no-op.
func (s *Stack) Back() bool {
	if len(s.views) == 1 {
		return false
	}
	s.views[len(s.views)-1] = nil
	s.views = s.views[:len(s.views)-1]
	return true
}

// PopToBottom drops every view above the bottom one and reports whether the
// stack changed. Same cursor restoration as repeated Back.
func (s *Stack) PopToBottom() bool {
	if len(s.views) == 1 {
		return false
	}
	for i := 1; i < len(s.views); i++ {
		s.views[i] = nil
	}
	s.views = s.views[:1]
	return true
}

// MoveCursor shifts the top view's cursor by delta, clamped to the view's
// line range. The stack itself is unchanged.
func (s *Stack) MoveCursor(delta int) {
	v := s.Current()
	cursor := v.Cursor + delta
	if last := len(v.Lines) - 1; cursor > last {
		cursor = last
	}
	if cursor < 0 {
		cursor = 0
	}
	v.Cursor = cursor
}
