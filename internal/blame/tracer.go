package blame

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/raylu/git-whence/internal/diff"
	"github.com/raylu/git-whence/internal/git"
)

// ErrNoEarlierHistory reports that a traced line has no version older than
// the commit already blamed for it. It is a boundary, not a failure.
var ErrNoEarlierHistory = errors.New("no earlier history")

// ErrAmbiguousHistory reports that the backend's line history disagrees with
// its attribution for the same line. It should not happen for single-line
// queries; treating it as an anomaly beats silently picking a side.
var ErrAmbiguousHistory = errors.New("line history does not match attribution")

// Anchor locates a line in an earlier revision: the target of a follow
// operation, ready to be resolved into a view.
type Anchor struct {
	Revision string
	Path     string
	Line     int // 1-based
	// RenamedTo carries the newer path when the trace crossed a rename.
	RenamedTo string
}

// Tracer finds where a line lived before the commit currently blamed for it.
type Tracer struct {
	backend git.Backend
	log     *zap.Logger
}

func NewTracer(backend git.Backend, log *zap.Logger) *Tracer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracer{backend: backend, log: log.Named("trace")}
}

// Trace resolves the 1-based line of view to its position in the parent of
// the commit blamed for it. Returns ErrNoEarlierHistory when the line was
// born in that commit (file creation, root commit, or the edge of a shallow
// history) and ErrAmbiguousHistory when the backend's answers contradict
// each other. Any other error is a plain backend failure.
func (t *Tracer) Trace(ctx context.Context, view *View, line int) (*Anchor, error) {
	if line < 1 || line > len(view.Lines) {
		return nil, fmt.Errorf("trace %s: line %d out of range 1..%d", view.Path, line, len(view.Lines))
	}
	attr := view.Lines[line-1]

	if attr.Boundary && attr.PrevCommit == "" {
		return nil, ErrNoEarlierHistory
	}

	events, err := t.backend.LineHistory(ctx, view.Path, view.Revision, line)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("no history for %s:%d at %s: %w",
			view.Path, line, git.Abbrev(view.Revision), ErrAmbiguousHistory)
	}

	ev := events[0]
	if ev.Commit.Hash != attr.Commit {
		return nil, fmt.Errorf("%s:%d blamed on %s but history names %s: %w",
			view.Path, line, git.Abbrev(attr.Commit), ev.Commit.ShortHash(), ErrAmbiguousHistory)
	}
	if ev.NewFile {
		return nil, ErrNoEarlierHistory
	}

	priorRev, priorPath := attr.PrevCommit, attr.PrevPath
	if priorRev == "" {
		if len(ev.Commit.Parents) == 0 {
			return nil, ErrNoEarlierHistory
		}
		priorRev = ev.Commit.Parents[0]
		priorPath = ev.OldPath
	}
	if priorPath == "" {
		priorPath = view.Path
	}

	oldLines, err := t.backend.FileLines(ctx, priorPath, priorRev)
	if errors.Is(err, git.ErrNotFound) {
		return nil, ErrNoEarlierHistory
	}
	if err != nil {
		return nil, err
	}
	if len(oldLines) == 0 {
		return nil, ErrNoEarlierHistory
	}

	newLines := make([]string, len(view.Lines))
	for i, l := range view.Lines {
		newLines[i] = l.Text
	}
	prior, ok := diff.NewLineMap(oldLines, newLines).OldForNew(line)
	if !ok {
		// fall back to the hunk position reported by the history query
		prior = ev.OldStart
		if prior < 1 {
			prior = 1
		}
		if prior > len(oldLines) {
			prior = len(oldLines)
		}
	}

	anchor := &Anchor{Revision: priorRev, Path: priorPath, Line: prior}
	if priorPath != view.Path {
		anchor.RenamedTo = view.Path
	}
	t.log.Debug("traced",
		zap.String("path", view.Path),
		zap.Int("line", line),
		zap.String("blamed", git.Abbrev(attr.Commit)),
		zap.String("prior", git.Abbrev(priorRev)),
		zap.Int("priorLine", prior))
	return anchor, nil
}
