package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// notFoundMarkers are the stderr fragments git emits when a path is absent at
// the requested revision. They vary by subcommand and git version.
var notFoundMarkers = []string{
	"does not exist in",
	"exists on disk, but not in",
	"no such path",
	"There is no path",
	"cannot stat path",
	"unknown revision or path not in the working tree",
}

// run executes git with the repository root as -C target and returns stdout.
// Stderr is folded into the returned error so callers can surface git's own
// diagnostics verbatim.
func (r *Repo) run(ctx context.Context, args ...string) (string, error) {
	full := append([]string{"-C", r.root}, args...)
	cmd := exec.CommandContext(ctx, "git", full...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.Debug("git", zap.Strings("args", args))

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		if isNotFound(msg) {
			return "", fmt.Errorf("git %s: %s: %w", args[0], msg, ErrNotFound)
		}
		return "", fmt.Errorf("git %s: %s", args[0], msg)
	}
	return stdout.String(), nil
}

// runLines executes git and splits stdout into lines, dropping the trailing
// newline. Empty output yields an empty slice, not a one-element slice.
func (r *Repo) runLines(ctx context.Context, args ...string) ([]string, error) {
	out, err := r.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSuffix(out, "\n")
	if text == "" {
		return []string{}, nil
	}
	return strings.Split(text, "\n"), nil
}

func isNotFound(stderr string) bool {
	for _, marker := range notFoundMarkers {
		if strings.Contains(stderr, marker) {
			return true
		}
	}
	return false
}

// splitLines splits file content into lines the way the rest of the package
// counts them: a trailing newline does not produce a final empty line.
func splitLines(content string) []string {
	text := strings.TrimSuffix(content, "\n")
	if text == "" {
		return []string{}
	}
	return strings.Split(text, "\n")
}
