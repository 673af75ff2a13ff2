package blame

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raylu/git-whence/internal/git"
)

var (
	hashA = strings.Repeat("a", 40) // revision being viewed
	hashB = strings.Repeat("b", 40) // commit blamed for the traced line
	hashC = strings.Repeat("c", 40) // parent of hashB
)

// fakeBackend serves scripted answers keyed the way the real backend queries
// arrive, and counts blame invocations so caching is observable.
type fakeBackend struct {
	blames     map[string][]git.BlameLine // "hash:path"
	histories  map[string][]git.LineEvent // "hash:path:line"
	files      map[string][]string        // "hash:path"
	revs       map[string]string          // expression → full hash
	commits    map[string]*git.Commit
	blameCalls int
}

var _ git.Backend = (*fakeBackend)(nil)

func (f *fakeBackend) Blame(_ context.Context, path, rev string) ([]git.BlameLine, error) {
	f.blameCalls++
	lines, ok := f.blames[rev+":"+path]
	if !ok {
		return nil, fmt.Errorf("blame %s at %s: %w", path, rev, git.ErrNotFound)
	}
	return lines, nil
}

func (f *fakeBackend) LineHistory(_ context.Context, path, rev string, line int) ([]git.LineEvent, error) {
	events, ok := f.histories[fmt.Sprintf("%s:%s:%d", rev, path, line)]
	if !ok {
		return nil, fmt.Errorf("log -L %s:%d at %s: %w", path, line, rev, git.ErrNotFound)
	}
	return events, nil
}

func (f *fakeBackend) FileLines(_ context.Context, path, rev string) ([]string, error) {
	lines, ok := f.files[rev+":"+path]
	if !ok {
		return nil, fmt.Errorf("show %s:%s: %w", rev, path, git.ErrNotFound)
	}
	return lines, nil
}

func (f *fakeBackend) ResolveRevision(_ context.Context, rev string) (string, error) {
	if rev == "" {
		rev = "HEAD"
	}
	if full, ok := f.revs[rev]; ok {
		return full, nil
	}
	if len(rev) == 40 {
		return rev, nil
	}
	return "", fmt.Errorf("cannot resolve revision %q", rev)
}

func (f *fakeBackend) CommitInfo(_ context.Context, hash string) (*git.Commit, error) {
	if c, ok := f.commits[hash]; ok {
		return c, nil
	}
	return &git.Commit{Hash: hash}, nil
}

// traceFixture is a view of src/git.rs at hashA where line 5 was last
// modified by hashB, whose parent hashC holds the line's earlier version at
// line 3.
func traceFixture() (*fakeBackend, *View) {
	texts := []string{"package main", "", "func a() {}", "", "var traced = 2", "// end"}
	lines := make([]git.BlameLine, len(texts))
	for i, text := range texts {
		lines[i] = git.BlameLine{Commit: hashA, Author: "alice", Number: i + 1, Text: text}
	}
	lines[4] = git.BlameLine{
		Commit:     hashB,
		Author:     "alice",
		Number:     5,
		Text:       "var traced = 2",
		PrevCommit: hashC,
		PrevPath:   "src/git.rs",
	}

	backend := &fakeBackend{
		histories: map[string][]git.LineEvent{
			hashA + ":src/git.rs:5": {{
				Commit:   git.Commit{Hash: hashB, Parents: []string{hashC}},
				OldPath:  "src/git.rs",
				NewPath:  "src/git.rs",
				OldStart: 3, OldLines: 1, NewStart: 5, NewLines: 1,
			}},
		},
		files: map[string][]string{
			hashC + ":src/git.rs": {"package main", "", "var traced = 1", "// end"},
		},
	}
	view := &View{Path: "src/git.rs", Revision: hashA, Lines: lines}
	return backend, view
}

func TestTraceToParent(t *testing.T) {
	backend, view := traceFixture()
	tracer := NewTracer(backend, nil)

	anchor, err := tracer.Trace(context.Background(), view, 5)
	require.NoError(t, err)
	assert.Equal(t, hashC, anchor.Revision, "prior revision is the parent of the blamed commit")
	assert.Equal(t, "src/git.rs", anchor.Path)
	assert.Equal(t, 3, anchor.Line, "line follows its content into the prior version")
	assert.Empty(t, anchor.RenamedTo)
}

func TestTraceFallsBackToParents(t *testing.T) {
	backend, view := traceFixture()
	// no "previous" metadata on the attribution; the history event's parent
	// list takes over
	view.Lines[4].PrevCommit = ""
	view.Lines[4].PrevPath = ""
	tracer := NewTracer(backend, nil)

	anchor, err := tracer.Trace(context.Background(), view, 5)
	require.NoError(t, err)
	assert.Equal(t, hashC, anchor.Revision)
	assert.Equal(t, 3, anchor.Line)
}

func TestTraceNoEarlierHistory(t *testing.T) {
	t.Run("boundary attribution", func(t *testing.T) {
		backend, view := traceFixture()
		view.Lines[4].Boundary = true
		view.Lines[4].PrevCommit = ""
		tracer := NewTracer(backend, nil)

		_, err := tracer.Trace(context.Background(), view, 5)
		assert.ErrorIs(t, err, ErrNoEarlierHistory)
	})

	t.Run("root commit", func(t *testing.T) {
		backend, view := traceFixture()
		view.Lines[4].PrevCommit = ""
		backend.histories[hashA+":src/git.rs:5"] = []git.LineEvent{{
			Commit: git.Commit{Hash: hashB}, // no parents
		}}
		tracer := NewTracer(backend, nil)

		_, err := tracer.Trace(context.Background(), view, 5)
		assert.ErrorIs(t, err, ErrNoEarlierHistory)
	})

	t.Run("file created by blamed commit", func(t *testing.T) {
		backend, view := traceFixture()
		backend.histories[hashA+":src/git.rs:5"] = []git.LineEvent{{
			Commit:  git.Commit{Hash: hashB, Parents: []string{hashC}},
			NewPath: "src/git.rs",
			NewFile: true,
		}}
		tracer := NewTracer(backend, nil)

		_, err := tracer.Trace(context.Background(), view, 5)
		assert.ErrorIs(t, err, ErrNoEarlierHistory)
	})

	t.Run("file absent at parent", func(t *testing.T) {
		backend, view := traceFixture()
		delete(backend.files, hashC+":src/git.rs")
		tracer := NewTracer(backend, nil)

		_, err := tracer.Trace(context.Background(), view, 5)
		assert.ErrorIs(t, err, ErrNoEarlierHistory)
	})

	t.Run("parent version empty", func(t *testing.T) {
		backend, view := traceFixture()
		backend.files[hashC+":src/git.rs"] = []string{}
		tracer := NewTracer(backend, nil)

		_, err := tracer.Trace(context.Background(), view, 5)
		assert.ErrorIs(t, err, ErrNoEarlierHistory)
	})
}

func TestTraceAmbiguousHistory(t *testing.T) {
	t.Run("history names a different commit", func(t *testing.T) {
		backend, view := traceFixture()
		backend.histories[hashA+":src/git.rs:5"] = []git.LineEvent{{
			Commit: git.Commit{Hash: hashC, Parents: []string{hashB}},
		}}
		tracer := NewTracer(backend, nil)

		_, err := tracer.Trace(context.Background(), view, 5)
		assert.ErrorIs(t, err, ErrAmbiguousHistory)
	})

	t.Run("history empty for attributed line", func(t *testing.T) {
		backend, view := traceFixture()
		backend.histories[hashA+":src/git.rs:5"] = []git.LineEvent{}
		tracer := NewTracer(backend, nil)

		_, err := tracer.Trace(context.Background(), view, 5)
		assert.ErrorIs(t, err, ErrAmbiguousHistory)
	})
}

func TestTraceAcrossRename(t *testing.T) {
	backend, view := traceFixture()
	view.Lines[4].PrevPath = "git.rs"
	backend.files[hashC+":git.rs"] = backend.files[hashC+":src/git.rs"]
	delete(backend.files, hashC+":src/git.rs")
	tracer := NewTracer(backend, nil)

	anchor, err := tracer.Trace(context.Background(), view, 5)
	require.NoError(t, err)
	assert.Equal(t, "git.rs", anchor.Path)
	assert.Equal(t, hashC, anchor.Revision)
	assert.Equal(t, "src/git.rs", anchor.RenamedTo, "crossing a rename is disclosed")
}

func TestTraceLineOutOfRange(t *testing.T) {
	backend, view := traceFixture()
	tracer := NewTracer(backend, nil)

	_, err := tracer.Trace(context.Background(), view, 0)
	assert.Error(t, err)

	_, err = tracer.Trace(context.Background(), view, len(view.Lines)+1)
	assert.Error(t, err)
}

func TestTraceBackendFailure(t *testing.T) {
	backend, view := traceFixture()
	delete(backend.histories, hashA+":src/git.rs:5")
	tracer := NewTracer(backend, nil)

	_, err := tracer.Trace(context.Background(), view, 5)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoEarlierHistory)
	assert.NotErrorIs(t, err, ErrAmbiguousHistory)
}
