package reviewer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/maxbolgarin/revy/internal/model"
)

// MergeStrategy selects how a custom per-project prompt is combined with
// the static review instructions.
type MergeStrategy string

const (
	StrategyAppend  MergeStrategy = "append"
	StrategyPrepend MergeStrategy = "prepend"
	StrategyReplace MergeStrategy = "replace"
)

// ProjectPrompt is one entry of the configured project -> prompt table
type ProjectPrompt struct {
	Prompt   string        `yaml:"prompt" env:"-"`
	Strategy MergeStrategy `yaml:"strategy" env:"-"`
}

// PromptMatch is the result of resolving a custom prompt for a project.
// Pure data: the caller decides what to log about the match.
type PromptMatch struct {
	Prompt   string
	Strategy MergeStrategy
	Matched  bool
	Rule     string // which rule matched: exact, normalized, substring, path-suffix
}

// ResolveProjectPrompt resolves the custom prompt for a project name against
// the configured table. Match order: exact name, normalized name, substring
// either direction, path suffix. Keys are scanned in sorted order so that
// resolution is deterministic when several entries match. Pure function,
// no side effects.
func ResolveProjectPrompt(projectName string, table map[string]ProjectPrompt) PromptMatch {
	if projectName == "" || len(table) == 0 {
		return PromptMatch{Strategy: StrategyAppend}
	}

	if entry, ok := table[projectName]; ok {
		return newPromptMatch(entry, "exact")
	}

	keys := make([]string, 0, len(table))
	for key := range table {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	normalized := normalizeProjectName(projectName)
	for _, key := range keys {
		if normalizeProjectName(key) == normalized {
			return newPromptMatch(table[key], "normalized")
		}
	}
	for _, key := range keys {
		keyNorm := normalizeProjectName(key)
		if strings.Contains(normalized, keyNorm) || strings.Contains(keyNorm, normalized) {
			return newPromptMatch(table[key], "substring")
		}
	}
	for _, key := range keys {
		if strings.HasSuffix(projectName, "/"+key) || strings.HasSuffix(key, "/"+projectName) {
			return newPromptMatch(table[key], "path-suffix")
		}
	}

	return PromptMatch{Strategy: StrategyAppend}
}

func newPromptMatch(entry ProjectPrompt, rule string) PromptMatch {
	strategy := entry.Strategy
	if strategy == "" {
		strategy = StrategyAppend
	}
	return PromptMatch{
		Prompt:   entry.Prompt,
		Strategy: strategy,
		Matched:  true,
		Rule:     rule,
	}
}

func normalizeProjectName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PromptRequest carries everything the assembler needs to compose one
// review prompt.
type PromptRequest struct {
	StaticInstructions string
	CustomPrompt       string
	Strategy           MergeStrategy

	MergeRequest     *model.MergeRequest
	DiffSection      string
	ExistingComments []*model.Comment
}

// BuildReviewPrompt composes the ordered prompt sections under the selected
// merge strategy. Empty sections are dropped before concatenation. Pure,
// deterministic string building with no side effects.
func BuildReviewPrompt(req PromptRequest) string {
	var instructions []string
	switch req.Strategy {
	case StrategyPrepend:
		instructions = []string{req.CustomPrompt, req.StaticInstructions}
	case StrategyReplace:
		instructions = []string{req.CustomPrompt}
	default: // append
		instructions = []string{req.StaticInstructions, req.CustomPrompt}
	}

	sections := append(instructions,
		buildMRDetailsSection(req.MergeRequest),
		req.DiffSection,
		buildExistingCommentsSection(req.ExistingComments),
	)

	nonEmpty := make([]string, 0, len(sections))
	for _, s := range sections {
		if strings.TrimSpace(s) != "" {
			nonEmpty = append(nonEmpty, strings.TrimSpace(s))
		}
	}

	return strings.Join(nonEmpty, "\n\n")
}

func buildMRDetailsSection(mr *model.MergeRequest) string {
	if mr == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("MERGE REQUEST DETAILS:\n")
	fmt.Fprintf(&b, "Title: %s\n", mr.Title)
	fmt.Fprintf(&b, "Author: %s\n", mr.Author.Username)
	fmt.Fprintf(&b, "Branches: %s -> %s\n", mr.SourceBranch, mr.TargetBranch)
	if mr.Description != "" {
		fmt.Fprintf(&b, "Description:\n%s\n", mr.Description)
	}
	return b.String()
}

func buildExistingCommentsSection(comments []*model.Comment) string {
	if len(comments) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("EXISTING REVIEW COMMENTS (do not repeat these):\n")
	for _, c := range comments {
		if c.FilePath != "" && c.Line > 0 {
			fmt.Fprintf(&b, "- %s:%d (%s): %s\n", c.FilePath, c.Line, c.Author.Username, c.Body)
		} else {
			fmt.Fprintf(&b, "- (%s): %s\n", c.Author.Username, c.Body)
		}
	}
	return b.String()
}
