package blame

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/raylu/git-whence/internal/git"
)

// cacheSize bounds how many resolved views are kept. Views are small next to
// the repositories they describe, but deep follow chains revisit the same
// (path, revision) pairs constantly.
const cacheSize = 32

// Resolver produces Views: the full per-line attribution of a file at a
// revision, with the revision's commit metadata attached. Results are cached
// by resolved hash, so re-entering a view during navigation costs nothing.
type Resolver struct {
	backend git.Backend
	cache   *lru.Cache[string, *View]
	log     *zap.Logger
}

func NewResolver(backend git.Backend, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	cache, _ := lru.New[string, *View](cacheSize)
	return &Resolver{
		backend: backend,
		cache:   cache,
		log:     log.Named("resolve"),
	}
}

// Resolve blames path at rev and returns the view. rev may be any revision
// expression; it is resolved to a full hash first so equivalent spellings
// share a cache entry. The returned view is the caller's own: its cursor can
// be moved freely without affecting other views of the same content.
func (r *Resolver) Resolve(ctx context.Context, path, rev string) (*View, error) {
	full, err := r.backend.ResolveRevision(ctx, rev)
	if err != nil {
		return nil, err
	}

	key := full + ":" + path
	if cached, ok := r.cache.Get(key); ok {
		r.log.Debug("cache hit", zap.String("key", key))
		return cached.clone(), nil
	}

	lines, err := r.backend.Blame(ctx, path, full)
	if err != nil {
		return nil, err
	}
	for i, line := range lines {
		if line.Number != i+1 {
			return nil, fmt.Errorf("blame of %s at %s: line %d reported as %d, attribution not contiguous",
				path, git.Abbrev(full), i+1, line.Number)
		}
	}

	commit, err := r.backend.CommitInfo(ctx, full)
	if err != nil {
		return nil, err
	}

	view := &View{
		Path:     path,
		Revision: full,
		Commit:   commit,
		Lines:    lines,
	}
	r.cache.Add(key, view)
	r.log.Debug("resolved",
		zap.String("path", path),
		zap.String("revision", git.Abbrev(full)),
		zap.Int("lines", len(lines)))
	return view.clone(), nil
}

// clone returns a view sharing the immutable attribution but with its own
// cursor and rename marker.
func (v *View) clone() *View {
	c := *v
	c.Cursor = 0
	c.RenamedTo = ""
	return &c
}
