package git

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// lineLogFormat asks git for machine-parseable commit headers when running
// `log -L`. The control bytes cannot occur in the patch text that follows
// each header, so records and fields split unambiguously.
const lineLogFormat = "--format=format:%x01%H%x02%P%x02%an%x02%ae%x02%at%x02%s"

const (
	recordSep = "\x01"
	fieldSep  = "\x02"
)

var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// parseLineLog parses `git log -L<n>,<n>:<path>` output produced with
// lineLogFormat. Each record is a commit header followed by the patch git
// generated for the traced line range; the first hunk's positions are kept.
// Records come out newest first, matching git's own ordering.
func parseLineLog(out string) ([]LineEvent, error) {
	var events []LineEvent
	var cur *LineEvent
	inPatch := false

	for _, raw := range strings.Split(out, "\n") {
		line := strings.TrimSuffix(raw, "\r")

		if strings.HasPrefix(line, recordSep) {
			if cur != nil {
				events = append(events, *cur)
			}
			ev, err := parseLogHeader(strings.TrimPrefix(line, recordSep))
			if err != nil {
				return nil, err
			}
			cur = &ev
			inPatch = false
			continue
		}
		if cur == nil {
			if strings.TrimSpace(line) == "" {
				continue
			}
			return nil, fmt.Errorf("line log: content before first record: %q", line)
		}

		if strings.HasPrefix(line, "@@ ") {
			if !inPatch {
				applyHunkHeader(cur, line)
			}
			inPatch = true
			continue
		}
		if inPatch {
			// removed lines starting with "--" would mimic file headers
			continue
		}

		switch {
		case strings.HasPrefix(line, "diff --git "):
			if oldPath, newPath := parseDiffGitPaths(line); oldPath != "" {
				cur.OldPath = oldPath
				cur.NewPath = newPath
			}
		case strings.HasPrefix(line, "new file mode"):
			cur.NewFile = true
		case strings.HasPrefix(line, "--- "):
			target := strings.TrimPrefix(line, "--- ")
			if target == "/dev/null" {
				cur.NewFile = true
			} else {
				cur.OldPath = strings.TrimPrefix(target, "a/")
			}
		case strings.HasPrefix(line, "+++ "):
			if target := strings.TrimPrefix(line, "+++ "); target != "/dev/null" {
				cur.NewPath = strings.TrimPrefix(target, "b/")
			}
		}
	}
	if cur != nil {
		events = append(events, *cur)
	}
	return events, nil
}

func parseLogHeader(line string) (LineEvent, error) {
	parts := strings.SplitN(line, fieldSep, 6)
	if len(parts) != 6 {
		return LineEvent{}, fmt.Errorf("line log: malformed header %q", line)
	}
	ts, err := strconv.ParseInt(parts[4], 10, 64)
	if err != nil {
		return LineEvent{}, fmt.Errorf("line log: malformed timestamp %q", parts[4])
	}

	var parents []string
	if parts[1] != "" {
		parents = strings.Fields(parts[1])
	}
	return LineEvent{
		Commit: Commit{
			Hash:    parts[0],
			Author:  parts[2],
			Email:   parts[3],
			When:    time.Unix(ts, 0).UTC(),
			Summary: parts[5],
			Parents: parents,
		},
	}, nil
}

func applyHunkHeader(ev *LineEvent, line string) {
	m := hunkHeaderRe.FindStringSubmatch(line)
	if m == nil {
		return
	}
	atoiDefault := func(s string, def int) int {
		if s == "" {
			return def
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return def
		}
		return n
	}
	ev.OldStart = atoiDefault(m[1], 0)
	ev.OldLines = atoiDefault(m[2], 1)
	ev.NewStart = atoiDefault(m[3], 0)
	ev.NewLines = atoiDefault(m[4], 1)
}

// parseDiffGitPaths extracts the two paths from a "diff --git a/X b/Y" line.
// A rename shows up as differing paths.
func parseDiffGitPaths(line string) (oldPath, newPath string) {
	rest := strings.TrimPrefix(line, "diff --git ")
	if !strings.HasPrefix(rest, "a/") {
		return "", ""
	}
	idx := strings.Index(rest, " b/")
	if idx < 0 {
		return "", ""
	}
	return rest[2:idx], rest[idx+3:]
}
