package reviewer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/maxbolgarin/revy/internal/model"
)

// diffParser parses unified diff format into structured hunks
type diffParser struct {
	hunkHeaderRegex *regexp.Regexp
}

// newDiffParser creates a new diff parser
func newDiffParser() *diffParser {
	return &diffParser{
		hunkHeaderRegex: regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`),
	}
}

// ParseHunks parses one file's unified diff text into hunks.
// Lines outside any hunk (file headers) are ignored and malformed hunk
// headers are silently skipped: lenient parsing, never an error.
// Single pass, O(n) in the diff text length.
func (dp *diffParser) ParseHunks(diff string) []*model.Hunk {
	var (
		hunks   []*model.Hunk
		current *model.Hunk

		oldOffset, newOffset int
	)

	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "@@") {
			matches := dp.hunkHeaderRegex.FindStringSubmatch(line)
			if len(matches) == 0 {
				// Malformed header: no hunk is opened, following lines
				// are treated as outside any hunk.
				current = nil
				continue
			}

			oldStart, _ := strconv.Atoi(matches[1])
			newStart, _ := strconv.Atoi(matches[3])
			oldCount, newCount := 1, 1
			if matches[2] != "" {
				oldCount, _ = strconv.Atoi(matches[2])
			}
			if matches[4] != "" {
				newCount, _ = strconv.Atoi(matches[4])
			}

			// A zero count names the line before the change, not the
			// first changed line. Normalize so start+count always points
			// at the next untouched line.
			if oldCount == 0 {
				oldStart++
			}
			if newCount == 0 {
				newStart++
			}

			current = &model.Hunk{
				Header:   line,
				OldStart: oldStart,
				OldCount: oldCount,
				NewStart: newStart,
				NewCount: newCount,
			}
			hunks = append(hunks, current)
			oldOffset, newOffset = 0, 0
			continue
		}

		if current == nil || len(line) == 0 {
			continue
		}

		// File headers may appear between hunks of a combined diff
		if strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---") {
			continue
		}

		switch line[0] {
		case '+':
			current.Lines = append(current.Lines, model.DiffLine{
				Type:    model.LineTypeAdd,
				NewLine: current.NewStart + newOffset,
				Content: line[1:],
			})
			newOffset++

		case '-':
			current.Lines = append(current.Lines, model.DiffLine{
				Type:    model.LineTypeRemove,
				OldLine: current.OldStart + oldOffset,
				Content: line[1:],
			})
			oldOffset++

		case ' ':
			current.Lines = append(current.Lines, model.DiffLine{
				Type:    model.LineTypeContext,
				OldLine: current.OldStart + oldOffset,
				NewLine: current.NewStart + newOffset,
				Content: line[1:],
			})
			oldOffset++
			newOffset++

		case '\\':
			// "\ No newline at end of file"
			continue

		default:
			// Context line without space prefix (some hosts trim it)
			current.Lines = append(current.Lines, model.DiffLine{
				Type:    model.LineTypeContext,
				OldLine: current.OldStart + oldOffset,
				NewLine: current.NewStart + newOffset,
				Content: line,
			})
			oldOffset++
			newOffset++
		}
	}

	return hunks
}

// ParseFileDiffs fills Hunks on every file diff in place and returns the slice
func (dp *diffParser) ParseFileDiffs(diffs []*model.FileDiff) []*model.FileDiff {
	for _, fd := range diffs {
		fd.Hunks = dp.ParseHunks(fd.Diff)
	}
	return diffs
}
