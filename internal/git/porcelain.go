package git

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// commitmeta holds the per-commit porcelain fields shared by every line
// blamed to that commit. Git emits them once, on the commit's first group.
type commitmeta struct {
	author     string
	when       time.Time
	prevCommit string
	prevPath   string
	boundary   bool
}

// parsePorcelain parses `git blame --porcelain` output into one BlameLine per
// file line, ordered as emitted.
//
// The format is a sequence of groups. Each group starts with a header:
//
//	<sha> <orig-line> <final-line> [<group-size>]
//
// The first group of a commit is followed by key-value info lines (author,
// committer-time, previous, boundary, filename, ...) up to the first content
// line. Content lines are TAB-prefixed. Members of a group after the first
// repeat the bare header immediately followed by their content line.
func parsePorcelain(out string) ([]BlameLine, error) {
	lines := strings.Split(out, "\n")
	commits := make(map[string]*commitmeta)

	var result []BlameLine
	i := 0
	for i < len(lines) {
		raw := strings.TrimSuffix(lines[i], "\r")
		if raw == "" {
			i++
			continue
		}

		sha, lineNo, group, err := parseGroupHeader(raw)
		if err != nil {
			return nil, fmt.Errorf("blame porcelain line %d: %w", i+1, err)
		}
		i++

		meta, seen := commits[sha]
		if !seen {
			meta = &commitmeta{}
			for i < len(lines) && !strings.HasPrefix(lines[i], "\t") {
				key, value, _ := strings.Cut(strings.TrimSuffix(lines[i], "\r"), " ")
				switch key {
				case "author":
					meta.author = value
				case "committer-time":
					if ts, err := strconv.ParseInt(value, 10, 64); err == nil {
						meta.when = time.Unix(ts, 0).UTC()
					}
				case "previous":
					prev, path, ok := strings.Cut(value, " ")
					meta.prevCommit = prev
					if ok {
						meta.prevPath = path
					}
				case "boundary":
					meta.boundary = true
				}
				i++
			}
			commits[sha] = meta
		}

		for n := 0; n < group; n++ {
			number := lineNo + n
			if n > 0 {
				if i >= len(lines) {
					return nil, fmt.Errorf("blame porcelain: truncated group for %s", Abbrev(sha))
				}
				memberSha, memberNo, _, err := parseGroupHeader(strings.TrimSuffix(lines[i], "\r"))
				if err != nil {
					return nil, fmt.Errorf("blame porcelain line %d: %w", i+1, err)
				}
				if memberSha != sha {
					return nil, fmt.Errorf("blame porcelain: group switched commit at line %d", i+1)
				}
				number = memberNo
				i++
			}
			if i >= len(lines) || !strings.HasPrefix(lines[i], "\t") {
				return nil, fmt.Errorf("blame porcelain: missing content for line %d", number)
			}
			text := strings.TrimSuffix(strings.TrimPrefix(lines[i], "\t"), "\r")
			i++

			result = append(result, BlameLine{
				Commit:     sha,
				Author:     meta.author,
				When:       meta.when,
				Number:     number,
				Text:       text,
				PrevCommit: meta.prevCommit,
				PrevPath:   meta.prevPath,
				Boundary:   meta.boundary,
			})
		}
	}
	return result, nil
}

// parseGroupHeader parses "<sha> <orig-line> <final-line> [<group-size>]".
// A missing group size means 1.
func parseGroupHeader(raw string) (sha string, finalLine, group int, err error) {
	fields := strings.Fields(raw)
	if len(fields) < 3 || len(fields) > 4 {
		return "", 0, 0, fmt.Errorf("malformed group header %q", raw)
	}
	if !isHex(fields[0]) || len(fields[0]) < 40 {
		return "", 0, 0, fmt.Errorf("malformed commit hash %q", fields[0])
	}
	sha = fields[0]

	if _, err := strconv.Atoi(fields[1]); err != nil {
		return "", 0, 0, fmt.Errorf("malformed original line number %q", fields[1])
	}
	finalLine, err = strconv.Atoi(fields[2])
	if err != nil {
		return "", 0, 0, fmt.Errorf("malformed final line number %q", fields[2])
	}

	group = 1
	if len(fields) == 4 {
		group, err = strconv.Atoi(fields[3])
		if err != nil || group < 1 {
			return "", 0, 0, fmt.Errorf("malformed group size %q", fields[3])
		}
	}
	return sha, finalLine, group, nil
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
