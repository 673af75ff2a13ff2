package tui

// Session carries the repository context a navigation session was opened
// with. It never changes after launch; the navigation stack tracks where the
// user has moved since.
type Session struct {
	RepoRoot      string
	Path          string // repo-relative path of the blamed file
	StartRevision string // revision expression given on the command line
	Branch        string // checked-out branch, empty when detached
}
