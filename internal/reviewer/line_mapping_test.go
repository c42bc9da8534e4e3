package reviewer

import (
	"testing"

	"github.com/maxbolgarin/revy/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFileDiff(t *testing.T, diff string) *model.FileDiff {
	t.Helper()
	fd := &model.FileDiff{NewPath: "service.go", Diff: diff}
	fd.Hunks = newDiffParser().ParseHunks(diff)
	return fd
}

func TestBuildLineMappingSparse(t *testing.T) {
	fd := parseFileDiff(t, sampleDiff)

	mapping := BuildLineMapping(fd)

	// Context lines map both ways
	old, ok := mapping.OldForNew(10)
	require.True(t, ok)
	assert.Equal(t, 10, old)

	old, ok = mapping.OldForNew(14)
	require.True(t, ok)
	assert.Equal(t, 13, old)

	newLine, ok := mapping.NewForOld(15)
	require.True(t, ok)
	assert.Equal(t, 16, newLine)

	// Added lines have no old correspondent
	_, ok = mapping.OldForNew(12)
	assert.False(t, ok)
	_, ok = mapping.OldForNew(13)
	assert.False(t, ok)

	// Removed lines have no new correspondent
	_, ok = mapping.NewForOld(12)
	assert.False(t, ok)

	// Lines outside the hunk are unknown in the sparse mapping
	_, ok = mapping.OldForNew(1)
	assert.False(t, ok)
}

func TestBuildLineMappingInverse(t *testing.T) {
	fd := parseFileDiff(t, sampleDiff)

	mapping := BuildLineMapping(fd)

	// Every new->old entry has the matching old->new entry
	for newLine := 1; newLine <= 20; newLine++ {
		old, ok := mapping.OldForNew(newLine)
		if !ok {
			continue
		}
		back, ok := mapping.NewForOld(old)
		require.True(t, ok)
		assert.Equal(t, newLine, back)
	}
}

func TestBuildCompleteLineMapping(t *testing.T) {
	diff := "@@ -6,4 +6,5 @@\n ctx one\n-gone\n+repl a\n+repl b\n ctx two\n ctx three\n"
	fd := parseFileDiff(t, diff)

	mapping := BuildCompleteLineMapping(fd, 13, 12)

	// Region before the hunk is reconstructed in lockstep
	for i := 1; i <= 5; i++ {
		old, ok := mapping.OldForNew(i)
		require.True(t, ok, "new line %d", i)
		assert.Equal(t, i, old)
	}

	// In-hunk context lines keep their parsed coordinates
	old, ok := mapping.OldForNew(9)
	require.True(t, ok)
	assert.Equal(t, 8, old)

	// Added lines stay unmapped even in the complete mapping
	_, ok = mapping.OldForNew(7)
	assert.False(t, ok)
	_, ok = mapping.OldForNew(8)
	assert.False(t, ok)

	// Trailing region runs to the supplied totals
	old, ok = mapping.OldForNew(11)
	require.True(t, ok)
	assert.Equal(t, 10, old)

	old, ok = mapping.OldForNew(13)
	require.True(t, ok)
	assert.Equal(t, 12, old)

	_, ok = mapping.OldForNew(14)
	assert.False(t, ok)
}

func TestBuildCompleteLineMappingUnknownTotals(t *testing.T) {
	diff := "@@ -6,4 +6,5 @@\n ctx one\n-gone\n+repl a\n+repl b\n ctx two\n ctx three\n"
	fd := parseFileDiff(t, diff)

	// Zero totals degrade to the highest line numbers seen in the diff,
	// so no trailing region is invented.
	mapping := BuildCompleteLineMapping(fd, 0, 0)

	old, ok := mapping.OldForNew(5)
	require.True(t, ok)
	assert.Equal(t, 5, old)

	_, ok = mapping.OldForNew(11)
	assert.False(t, ok)
}

func TestBuildCompleteLineMappingPureInsertion(t *testing.T) {
	// Two lines inserted after old line 4: old file has 6 lines, new has 8
	fd := parseFileDiff(t, "@@ -4,0 +5,2 @@\n+ins one\n+ins two\n")
	mapping := BuildCompleteLineMapping(fd, 8, 6)

	for i := 1; i <= 4; i++ {
		old, ok := mapping.OldForNew(i)
		require.True(t, ok, "new line %d", i)
		assert.Equal(t, i, old)
	}

	_, ok := mapping.OldForNew(5)
	assert.False(t, ok)
	_, ok = mapping.OldForNew(6)
	assert.False(t, ok)

	old, ok := mapping.OldForNew(7)
	require.True(t, ok)
	assert.Equal(t, 5, old)

	old, ok = mapping.OldForNew(8)
	require.True(t, ok)
	assert.Equal(t, 6, old)
}

func TestBuildCompleteLineMappingPureDeletion(t *testing.T) {
	// Old lines 5 and 6 removed: old file has 6 lines, new has 4
	fd := parseFileDiff(t, "@@ -5,2 +4,0 @@\n-gone one\n-gone two\n")
	mapping := BuildCompleteLineMapping(fd, 4, 6)

	newLine, ok := mapping.NewForOld(4)
	require.True(t, ok)
	assert.Equal(t, 4, newLine)

	_, ok = mapping.NewForOld(5)
	assert.False(t, ok)
	_, ok = mapping.NewForOld(6)
	assert.False(t, ok)
}

func TestBuildLineMappingNilDiff(t *testing.T) {
	assert.NotNil(t, BuildLineMapping(nil))
	assert.NotNil(t, BuildCompleteLineMapping(nil, 10, 10))
}

func TestCountLines(t *testing.T) {
	assert.Equal(t, 0, countLines(""))
	assert.Equal(t, 1, countLines("one"))
	assert.Equal(t, 1, countLines("one\n"))
	assert.Equal(t, 3, countLines("a\nb\nc"))
	assert.Equal(t, 3, countLines("a\nb\nc\n"))
}
