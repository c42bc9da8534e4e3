package reviewer

import (
	"fmt"
	"strings"

	"github.com/maxbolgarin/revy/internal/model"
)

// ParsedChanges is the output of ParseDiffsToHunks: the rendered diff
// section of the prompt plus the parsed file diffs for position resolution.
type ParsedChanges struct {
	PromptText string
	FileDiffs  []*model.FileDiff
}

// ParseDiffsToHunks parses every file's diff into hunks and renders the
// diff/content blocks for the prompt. contentsByPath holds the "after" file
// contents keyed by new path; a missing entry degrades that file to
// diff-only context. maxContentLines bounds full-content embedding.
func ParseDiffsToHunks(files []*model.FileDiff, contentsByPath map[string]string, maxContentLines int) ParsedChanges {
	parser := newDiffParser()
	policy := newContentPolicy(maxContentLines)

	var b strings.Builder
	for _, fd := range files {
		fd.Hunks = parser.ParseHunks(fd.Diff)

		fmt.Fprintf(&b, "FILE: %s", fd.NewPath)
		switch {
		case fd.IsNew:
			b.WriteString(" (new file)")
		case fd.IsDeleted:
			b.WriteString(" (deleted)")
		case fd.IsRenamed:
			fmt.Fprintf(&b, " (renamed from %s)", fd.OldPath)
		}
		b.WriteString("\n")

		if content, ok := contentsByPath[fd.NewPath]; ok && policy.ShouldEmbed(fd, content) {
			b.WriteString(policy.RenderContent(fd.NewPath, content))
			b.WriteString("\n")
		}

		b.WriteString("CHANGES:\n")
		b.WriteString(renderCleanDiff(fd.Hunks))
		b.WriteString("\n\n")
	}

	return ParsedChanges{
		PromptText: strings.TrimRight(b.String(), "\n"),
		FileDiffs:  files,
	}
}

// renderCleanDiff renders changed lines with explicit line numbers so the
// model reports findings in new-file coordinates.
func renderCleanDiff(hunks []*model.Hunk) string {
	var (
		b          strings.Builder
		lastLine   int
		hasContent bool
	)
	const lineGapThreshold = 3

	for _, hunk := range hunks {
		for _, line := range hunk.Lines {
			var current int
			var text string

			switch line.Type {
			case model.LineTypeAdd:
				current = line.NewLine
				text = fmt.Sprintf("+ %d: %s", line.NewLine, line.Content)
			case model.LineTypeRemove:
				current = line.OldLine
				text = fmt.Sprintf("- %d: %s", line.OldLine, line.Content)
			default:
				continue
			}

			// Blank line between logical groups
			if hasContent && current > lastLine+lineGapThreshold {
				b.WriteString("\n")
			}

			b.WriteString(text)
			b.WriteString("\n")
			lastLine = current
			hasContent = true
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}
