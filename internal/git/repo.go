package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"go.uber.org/zap"
)

// Repo implements Backend against a local repository. Object and revision
// reads go through go-git; blame and line-history queries shell out to the
// git executable, which owns those algorithms.
type Repo struct {
	repo *gogit.Repository
	root string
	log  *zap.Logger
}

var _ Backend = (*Repo)(nil)

// Open discovers the repository containing path, walking parent directories
// the way `git rev-parse --show-toplevel` does. Bare repositories are
// rejected because blame needs a worktree path to name files against.
func Open(path string, log *zap.Logger) (*Repo, error) {
	if log == nil {
		log = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	start := abs
	if fi, err := os.Stat(abs); err != nil || !fi.IsDir() {
		start = filepath.Dir(abs)
	}

	repo, err := gogit.PlainOpenWithOptions(start, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("not a git repository (or any parent up to root): %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("bare repositories are not supported: %w", err)
	}

	return &Repo{
		repo: repo,
		root: wt.Filesystem.Root(),
		log:  log.Named("git"),
	}, nil
}

// Root returns the worktree root directory.
func (r *Repo) Root() string {
	return r.root
}

// Rel converts an absolute or cwd-relative path into the repo-relative slash
// form git expects in revision:path expressions.
func (r *Repo) Rel(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(r.root, abs)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside repository %s", path, r.root)
	}
	return filepath.ToSlash(rel), nil
}

func (r *Repo) Blame(ctx context.Context, path, rev string) ([]BlameLine, error) {
	out, err := r.run(ctx, "blame", "--porcelain", rev, "--", path)
	if err != nil {
		return nil, err
	}
	return parsePorcelain(out)
}

func (r *Repo) LineHistory(ctx context.Context, path, rev string, line int) ([]LineEvent, error) {
	if line < 1 {
		return nil, fmt.Errorf("line history: line %d out of range", line)
	}
	out, err := r.run(ctx, "log", "--no-color", lineLogFormat,
		fmt.Sprintf("-L%d,%d:%s", line, line, path), rev)
	if err != nil {
		return nil, err
	}
	return parseLineLog(out)
}

func (r *Repo) FileLines(ctx context.Context, path, rev string) ([]string, error) {
	out, err := r.run(ctx, "show", fmt.Sprintf("%s:%s", rev, path))
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

func (r *Repo) ResolveRevision(ctx context.Context, rev string) (string, error) {
	if rev == "" {
		rev = "HEAD"
	}
	if hash, err := r.repo.ResolveRevision(plumbing.Revision(rev)); err == nil {
		return hash.String(), nil
	}

	// go-git's resolver does not cover every revision syntax; defer to git
	// and insist on a single full hash back.
	verify := rev + "^{commit}"
	if strings.HasPrefix(rev, ":/") {
		// the :/text form consumes the rest of the expression
		verify = rev
	}
	lines, err := r.runLines(ctx, "rev-parse", "--verify", verify)
	if err != nil {
		return "", fmt.Errorf("cannot resolve revision %q: %w", rev, err)
	}
	if len(lines) != 1 || len(lines[0]) < 40 || !isHex(lines[0]) {
		return "", fmt.Errorf("cannot resolve revision %q: unexpected rev-parse output %q", rev, lines)
	}
	return lines[0], nil
}

func (r *Repo) CommitInfo(ctx context.Context, hash string) (*Commit, error) {
	obj, err := r.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return nil, fmt.Errorf("commit %s: %w", Abbrev(hash), err)
	}
	parents := make([]string, 0, len(obj.ParentHashes))
	for _, p := range obj.ParentHashes {
		parents = append(parents, p.String())
	}
	summary, _, _ := strings.Cut(obj.Message, "\n")
	return &Commit{
		Hash:    obj.Hash.String(),
		Author:  obj.Author.Name,
		Email:   obj.Author.Email,
		When:    obj.Committer.When,
		Summary: strings.TrimSpace(summary),
		Parents: parents,
	}, nil
}

// CurrentBranch returns the checked-out branch name, or "" on a detached
// HEAD.
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	lines, err := r.runLines(ctx, "branch", "--show-current")
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", nil
	}
	return lines[0], nil
}
