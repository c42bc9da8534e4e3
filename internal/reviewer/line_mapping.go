package reviewer

import (
	"github.com/maxbolgarin/revy/internal/model"
)

// BuildLineMapping builds a sparse old<->new mapping from the lines that
// are explicitly present in the diff. A context line with both numbers set
// creates a mutual entry; add/remove lines never do, they have no
// correspondent in the other version. Lines outside any hunk are not
// mapped: callers must treat absence as "unknown", not "identical".
func BuildLineMapping(fd *model.FileDiff) *model.LineMapping {
	mapping := model.NewLineMapping()
	if fd == nil {
		return mapping
	}

	for _, hunk := range fd.Hunks {
		for _, line := range hunk.Lines {
			if line.Type == model.LineTypeContext && line.OldLine > 0 && line.NewLine > 0 {
				mapping.Put(line.OldLine, line.NewLine)
			}
		}
	}

	return mapping
}

// BuildCompleteLineMapping additionally reconstructs the untouched regions
// before, between and after hunks by walking both coordinate systems in
// lockstep. Hunks must be in ascending document order, which the parser
// naturally emits. The trailing region is filled up to the supplied total
// line counts; when a total is zero it is approximated from the highest
// line number observed in the diff, a best-effort degrade, not a failure.
func BuildCompleteLineMapping(fd *model.FileDiff, newTotalLines, oldTotalLines int) *model.LineMapping {
	mapping := model.NewLineMapping()
	if fd == nil {
		return mapping
	}

	oldCur, newCur := 1, 1
	maxOld, maxNew := 0, 0

	for _, hunk := range fd.Hunks {
		// Untouched region before this hunk: both counters advance by one
		// per line until the hunk's declared start.
		for oldCur < hunk.OldStart && newCur < hunk.NewStart {
			mapping.Put(oldCur, newCur)
			oldCur++
			newCur++
		}

		for _, line := range hunk.Lines {
			if line.Type == model.LineTypeContext && line.OldLine > 0 && line.NewLine > 0 {
				mapping.Put(line.OldLine, line.NewLine)
			}
			if line.OldLine > maxOld {
				maxOld = line.OldLine
			}
			if line.NewLine > maxNew {
				maxNew = line.NewLine
			}
		}

		oldCur = hunk.OldStart + hunk.OldCount
		newCur = hunk.NewStart + hunk.NewCount
	}

	if oldTotalLines <= 0 {
		oldTotalLines = maxOld
	}
	if newTotalLines <= 0 {
		newTotalLines = maxNew
	}

	// Trailing untouched region up to the file ends
	for oldCur <= oldTotalLines && newCur <= newTotalLines {
		mapping.Put(oldCur, newCur)
		oldCur++
		newCur++
	}

	return mapping
}

// countLines returns the number of lines in file content, zero for empty
func countLines(content string) int {
	if content == "" {
		return 0
	}
	n := 1
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			n++
		}
	}
	// A trailing newline does not start another line
	if content[len(content)-1] == '\n' {
		n--
	}
	return n
}
