package diff

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// LineMap maps line numbers between an old and a new version of a file.
type LineMap struct {
	opcodes []difflib.OpCode
	oldLen  int
	newLen  int
}

// NewLineMap builds a mapping from oldLines to newLines.
func NewLineMap(oldLines, newLines []string) *LineMap {
	m := &LineMap{oldLen: len(oldLines), newLen: len(newLines)}

	opcodes, err := generateOpCodes(oldLines, newLines)
	if err != nil {
		// Fall back to positional mapping when the advanced matcher fails
		return m
	}
	m.opcodes = opcodes
	return m
}

// OldForNew maps a 1-based line number in the new version to the closest
// corresponding 1-based line in the old version. Lines in equal regions map
// exactly, replaced lines map into the old side of the replacement, and
// inserted lines anchor at the insertion point. ok is false when the old
// version has no line to anchor to.
func (m *LineMap) OldForNew(line int) (old int, ok bool) {
	if m.oldLen == 0 || line < 1 || line > m.newLen {
		return 0, false
	}
	j := line - 1

	for _, op := range m.opcodes {
		if j < op.J1 || j >= op.J2 {
			continue
		}
		switch op.Tag {
		case 'e':
			return op.I1 + (j - op.J1) + 1, true
		case 'r':
			return clamp(op.I1+(j-op.J1), op.I2) + 1, true
		case 'i':
			return clamp(op.I1, m.oldLen) + 1, true
		}
	}

	return clamp(j, m.oldLen) + 1, true
}

func generateOpCodes(lines1, lines2 []string) (opcodes []difflib.OpCode, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("advanced diff failed: %v", r)
		}
	}()

	matcher := difflib.NewMatcher(lines1, lines2)
	return matcher.GetOpCodes(), nil
}

func clamp(idx, n int) int {
	if idx >= n {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}
