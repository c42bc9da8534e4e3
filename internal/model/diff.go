package model

// LineType classifies a single line of a unified diff
type LineType string

const (
	LineTypeAdd     LineType = "add"
	LineTypeRemove  LineType = "remove"
	LineTypeContext LineType = "context"
)

// DiffLine is one line of a hunk.
// Add lines carry only NewLine, remove lines only OldLine,
// context lines carry both.
type DiffLine struct {
	Type    LineType
	OldLine int
	NewLine int
	Content string
}

// Hunk is one contiguous change region of a unified diff
type Hunk struct {
	Header   string
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []DiffLine
}

// LineMapping holds bidirectional old<->new line-number mappings for a file.
// Added and removed lines are intentionally absent from both maps: they have
// no image in the other version. Absence means "unknown", not "identical".
type LineMapping struct {
	NewToOld map[int]int
	OldToNew map[int]int
}

// NewLineMapping creates an empty mapping
func NewLineMapping() *LineMapping {
	return &LineMapping{
		NewToOld: make(map[int]int),
		OldToNew: make(map[int]int),
	}
}

// Put records a mutual mapping entry between an old and a new line number
func (m *LineMapping) Put(oldLine, newLine int) {
	m.OldToNew[oldLine] = newLine
	m.NewToOld[newLine] = oldLine
}

// OldForNew returns the old line number for a new one, if known
func (m *LineMapping) OldForNew(newLine int) (int, bool) {
	old, ok := m.NewToOld[newLine]
	return old, ok
}

// NewForOld returns the new line number for an old one, if known
func (m *LineMapping) NewForOld(oldLine int) (int, bool) {
	newLine, ok := m.OldToNew[oldLine]
	return newLine, ok
}
