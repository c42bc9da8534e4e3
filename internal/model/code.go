package model

import (
	"time"
)

// ProviderConfig represents provider-specific configuration
type ProviderConfig struct {
	BaseURL       string
	Token         string
	WebhookSecret string
	BotUsername   string
}

// User represents a user across different providers
type User struct {
	ID       string
	Username string
	Name     string
}

// MergeRequest represents a merge/pull request across different providers
type MergeRequest struct {
	ID           string
	IID          int
	Title        string
	Description  string
	SourceBranch string
	TargetBranch string
	Author       User
	Reviewers    []User
	URL          string
	State        string
	SHA          string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FileDiff represents changes in a single file.
// Hunks are filled by the diff parser and consumed read-only downstream.
type FileDiff struct {
	OldPath   string
	NewPath   string
	Diff      string
	IsNew     bool
	IsDeleted bool
	IsRenamed bool
	IsBinary  bool
	Hunks     []*Hunk
}

// DiffVersion holds the commit SHA triple of an MR's latest diff version,
// required by the host to anchor an inline comment position.
type DiffVersion struct {
	BaseSHA  string
	StartSHA string
	HeadSHA  string
}

// ApprovalStatus represents the approval state of a merge request
type ApprovalStatus struct {
	Approved          bool
	ApprovalsRequired int
	ApprovalsLeft     int
}

// Comment represents a code review comment fetched from the provider
type Comment struct {
	ID        string
	Body      string
	FilePath  string
	Line      int         // Line number in the new file (for line-specific comments)
	OldLine   int         // Line number in the old file (for context)
	Type      CommentType // Type of comment
	Author    User
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CommentType defines the type of comment
type CommentType string

const (
	CommentTypeGeneral CommentType = "general" // General MR comment
	CommentTypeInline  CommentType = "inline"  // Inline code comment
)

// MergeRequestFilter represents criteria for filtering merge requests
type MergeRequestFilter struct {
	State        []string
	AuthorID     string
	TargetBranch string
	SourceBranch string
	UpdatedAfter *time.Time
	CreatedAfter *time.Time
	Limit        int // Maximum number of results (0 = no limit)
	Page         int // Page number for pagination (0-based)
}

// CodeEvent represents a webhook event from the provider
type CodeEvent struct {
	Type         string
	Action       string
	ProjectID    string
	MergeRequest *MergeRequest
	User         *User
	Timestamp    time.Time
}
