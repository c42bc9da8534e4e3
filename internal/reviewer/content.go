package reviewer

import (
	"fmt"
	"path"
	"strings"

	"github.com/maxbolgarin/revy/internal/model"
)

const defaultMaxContentLines = 1000

// Paths that never benefit from full-content embedding: lock files, build
// artifacts, binaries, minified assets, generated docs and vendored trees.
var (
	skippedBasenames = map[string]bool{
		"package-lock.json": true,
		"yarn.lock":         true,
		"pnpm-lock.yaml":    true,
		"composer.lock":     true,
		"Gemfile.lock":      true,
		"Cargo.lock":        true,
		"poetry.lock":       true,
		"go.sum":            true,
	}

	skippedSuffixes = []string{
		".min.js", ".min.css", ".bundle.js", ".map", ".lock",
		".png", ".jpg", ".jpeg", ".gif", ".ico", ".svg", ".pdf",
		".woff", ".woff2", ".ttf", ".eot",
		".exe", ".dll", ".so", ".dylib", ".bin",
		".pb.go", ".generated.go",
	}

	skippedDirPrefixes = []string{
		"vendor/", "node_modules/", "third_party/",
		"dist/", "build/", "target/", "out/",
		".git/", ".idea/", ".vscode/",
		"testdata/", "__snapshots__/", "coverage/",
	}
)

// contentPolicy decides per file whether to embed numbered full "after"
// content in the prompt or fall back to diff-only context. It remembers the
// paths it already embedded, so duplicate diff entries for the same path
// (which the host API can emit for complex merges) are rendered once.
type contentPolicy struct {
	maxLines int
	embedded map[string]bool
}

func newContentPolicy(maxLines int) *contentPolicy {
	if maxLines <= 0 {
		maxLines = defaultMaxContentLines
	}
	return &contentPolicy{
		maxLines: maxLines,
		embedded: make(map[string]bool),
	}
}

// ShouldEmbed reports whether the file's full "after" content belongs in
// the prompt. Rules apply in order: deleted files never, oversized content
// never, non-meaningful paths never, already-embedded paths never.
func (p *contentPolicy) ShouldEmbed(fd *model.FileDiff, content string) bool {
	if fd == nil || fd.IsDeleted {
		return false
	}
	if content == "" {
		return false
	}
	if countLines(content) > p.maxLines {
		return false
	}
	if !isMeaningfulFile(fd.NewPath) {
		return false
	}
	if p.embedded[fd.NewPath] {
		return false
	}
	p.embedded[fd.NewPath] = true
	return true
}

// RenderContent renders the numbered "path: N: text" block for a file
func (p *contentPolicy) RenderContent(filePath, content string) string {
	var b strings.Builder
	b.WriteString("FULL FILE CONTENT (" + filePath + "):\n")
	for i, line := range strings.Split(strings.TrimSuffix(content, "\n"), "\n") {
		fmt.Fprintf(&b, "%d: %s\n", i+1, line)
	}
	return b.String()
}

// isMeaningfulFile reports whether a path is worth full-content context
func isMeaningfulFile(filePath string) bool {
	if filePath == "" {
		return false
	}

	if skippedBasenames[path.Base(filePath)] {
		return false
	}

	lower := strings.ToLower(filePath)
	for _, suffix := range skippedSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return false
		}
	}

	for _, prefix := range skippedDirPrefixes {
		if strings.HasPrefix(lower, prefix) || strings.Contains(lower, "/"+prefix) {
			return false
		}
	}

	return true
}
