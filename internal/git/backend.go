package git

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound reports that a path does not exist at the requested revision.
// Callers distinguish it from other backend failures with errors.Is.
var ErrNotFound = errors.New("path not found at revision")

// Backend answers the version-control queries the blame engine needs. The
// default implementation shells out to the git executable with metadata reads
// through go-git, but the interface allows alternative implementations.
type Backend interface {
	// Blame attributes every line of path at rev. The result is ordered by
	// line number, 1..N with no gaps, where N is the line count of the file
	// at that revision.
	Blame(ctx context.Context, path, rev string) ([]BlameLine, error)

	// LineHistory returns the commits that modified the given 1-based line
	// of path, walking back from rev. Events are ordered newest first; the
	// first event is the commit currently blamed for the line.
	LineHistory(ctx context.Context, path, rev string, line int) ([]LineEvent, error)

	// FileLines returns the content of path at rev, split into lines.
	FileLines(ctx context.Context, path, rev string) ([]string, error)

	// ResolveRevision resolves a revision expression (HEAD, branch, tag,
	// abbreviated hash) to a full 40-hex commit hash.
	ResolveRevision(ctx context.Context, rev string) (string, error)

	// CommitInfo returns metadata for a resolved commit hash.
	CommitInfo(ctx context.Context, hash string) (*Commit, error)
}

// Commit is the metadata of a single commit.
type Commit struct {
	Hash    string
	Author  string
	Email   string
	When    time.Time
	Summary string
	Parents []string
}

// ShortHash returns the abbreviated form used in list rows and titles.
func (c *Commit) ShortHash() string {
	return Abbrev(c.Hash)
}

// BlameLine is the attribution of one line of a file at one revision.
//
// PrevCommit and PrevPath come from the blame "previous" header: the parent
// of Commit in which the line's earlier version lives, and the file's path
// there. PrevPath differing from the blamed path means the file was renamed
// by Commit. Boundary marks lines whose commit sits at the edge of traceable
// history.
type BlameLine struct {
	Commit     string
	Author     string
	When       time.Time
	Number     int
	Text       string
	PrevCommit string
	PrevPath   string
	Boundary   bool
}

// IsUncommitted reports whether the line is attributed to the all-zero hash
// git uses for worktree content that has never been committed.
func (l BlameLine) IsUncommitted() bool {
	return strings.TrimLeft(l.Commit, "0") == ""
}

// DisplayHash returns the hash cell for a line listing. Boundary lines carry
// git's "^" marker, shortened by one to keep the column width constant.
func (l BlameLine) DisplayHash() string {
	short := Abbrev(l.Commit)
	if l.Boundary && len(short) > 1 {
		return "^" + short[:len(short)-1]
	}
	return short
}

// LineEvent is one entry of a line-history query: a commit that touched the
// traced line, with the patch positions of the line range before and after.
type LineEvent struct {
	Commit   Commit
	OldPath  string
	NewPath  string
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	// NewFile is set when the commit created the file.
	NewFile bool
}

// Abbrev shortens a full hash to the 8-character display form.
func Abbrev(hash string) string {
	if len(hash) <= 8 {
		return hash
	}
	return hash[:8]
}
