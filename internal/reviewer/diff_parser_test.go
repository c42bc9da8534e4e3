package reviewer

import (
	"testing"

	"github.com/maxbolgarin/revy/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiff = `--- a/service.go
+++ b/service.go
@@ -10,6 +10,7 @@ func handle() {
 keep one
 keep two
-removed line
+added one
+added two
 keep three
 keep four
 keep five
`

func TestParseHunks(t *testing.T) {
	parser := newDiffParser()

	hunks := parser.ParseHunks(sampleDiff)
	require.Len(t, hunks, 1)

	hunk := hunks[0]
	assert.Equal(t, 10, hunk.OldStart)
	assert.Equal(t, 6, hunk.OldCount)
	assert.Equal(t, 10, hunk.NewStart)
	assert.Equal(t, 7, hunk.NewCount)
	require.Len(t, hunk.Lines, 8)

	// Context lines carry both coordinates
	first := hunk.Lines[0]
	assert.Equal(t, model.LineTypeContext, first.Type)
	assert.Equal(t, 10, first.OldLine)
	assert.Equal(t, 10, first.NewLine)
	assert.Equal(t, "keep one", first.Content)

	// Removed line carries only the old coordinate
	removed := hunk.Lines[2]
	assert.Equal(t, model.LineTypeRemove, removed.Type)
	assert.Equal(t, 12, removed.OldLine)
	assert.Equal(t, 0, removed.NewLine)

	// Added lines number sequentially in the new file
	added := hunk.Lines[3]
	assert.Equal(t, model.LineTypeAdd, added.Type)
	assert.Equal(t, 12, added.NewLine)
	assert.Equal(t, 0, added.OldLine)
	assert.Equal(t, 13, hunk.Lines[4].NewLine)

	// Context after the change resumes both counters
	after := hunk.Lines[5]
	assert.Equal(t, 13, after.OldLine)
	assert.Equal(t, 14, after.NewLine)
}

func TestParseHunksDefaultCounts(t *testing.T) {
	parser := newDiffParser()

	hunks := parser.ParseHunks("@@ -5 +7 @@\n-old\n+new\n")
	require.Len(t, hunks, 1)

	assert.Equal(t, 5, hunks[0].OldStart)
	assert.Equal(t, 1, hunks[0].OldCount)
	assert.Equal(t, 7, hunks[0].NewStart)
	assert.Equal(t, 1, hunks[0].NewCount)
}

func TestParseHunksZeroCountStarts(t *testing.T) {
	parser := newDiffParser()

	// A zero count names the line before the change, the start is
	// normalized to the next untouched line
	hunks := parser.ParseHunks("@@ -4,0 +5,2 @@\n+ins one\n+ins two\n")
	require.Len(t, hunks, 1)

	hunk := hunks[0]
	assert.Equal(t, 5, hunk.OldStart)
	assert.Equal(t, 0, hunk.OldCount)
	assert.Equal(t, 5, hunk.NewStart)
	assert.Equal(t, 2, hunk.NewCount)

	require.Len(t, hunk.Lines, 2)
	assert.Equal(t, 5, hunk.Lines[0].NewLine)
	assert.Equal(t, 6, hunk.Lines[1].NewLine)

	hunks = parser.ParseHunks("@@ -5,2 +4,0 @@\n-gone one\n-gone two\n")
	require.Len(t, hunks, 1)

	hunk = hunks[0]
	assert.Equal(t, 5, hunk.OldStart)
	assert.Equal(t, 2, hunk.OldCount)
	assert.Equal(t, 5, hunk.NewStart)
	assert.Equal(t, 0, hunk.NewCount)

	require.Len(t, hunk.Lines, 2)
	assert.Equal(t, 5, hunk.Lines[0].OldLine)
	assert.Equal(t, 6, hunk.Lines[1].OldLine)
}

func TestParseHunksMalformedHeader(t *testing.T) {
	parser := newDiffParser()

	// Lines after a malformed header are outside any hunk
	diff := "@@ broken header @@\n+orphan\n@@ -1,2 +1,2 @@\n ctx\n-a\n+b\n"
	hunks := parser.ParseHunks(diff)
	require.Len(t, hunks, 1)
	assert.Equal(t, 1, hunks[0].OldStart)
	assert.Len(t, hunks[0].Lines, 3)
}

func TestParseHunksSkipsMetaLines(t *testing.T) {
	parser := newDiffParser()

	diff := "@@ -1,2 +1,2 @@\n ctx\n\\ No newline at end of file\n--- a/x\n+++ b/x\n-a\n+b\n"
	hunks := parser.ParseHunks(diff)
	require.Len(t, hunks, 1)
	assert.Len(t, hunks[0].Lines, 3)
}

func TestParseHunksMultiple(t *testing.T) {
	parser := newDiffParser()

	diff := "@@ -1,2 +1,2 @@\n-a\n+b\n ctx\n@@ -10,2 +10,3 @@\n ctx\n+new\n ctx\n"
	hunks := parser.ParseHunks(diff)
	require.Len(t, hunks, 2)
	assert.Equal(t, 10, hunks[1].OldStart)
	assert.Equal(t, 11, hunks[1].Lines[1].NewLine)
}

func TestParseHunksEmptyDiff(t *testing.T) {
	parser := newDiffParser()

	assert.Empty(t, parser.ParseHunks(""))
	assert.Empty(t, parser.ParseHunks("binary files differ"))
}

func TestParseFileDiffs(t *testing.T) {
	parser := newDiffParser()

	files := []*model.FileDiff{
		{NewPath: "a.go", Diff: sampleDiff},
		{NewPath: "b.go", Diff: ""},
	}
	out := parser.ParseFileDiffs(files)
	require.Len(t, out, 2)
	assert.Len(t, out[0].Hunks, 1)
	assert.Empty(t, out[1].Hunks)
}
