package model

import (
	"strings"
)

// Severity ranks feedback items from most to least urgent
type Severity string

const (
	SeverityCritical   Severity = "critical"
	SeverityWarning    Severity = "warning"
	SeverityInfo       Severity = "info"
	SeveritySuggestion Severity = "suggestion"
)

// Rank returns the sort rank of a severity, lower is more urgent
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	case SeverityInfo:
		return 2
	case SeveritySuggestion:
		return 3
	default:
		return 2
	}
}

// ParseSeverity normalizes a model-reported severity string
func ParseSeverity(raw string) Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "critical", "error":
		return SeverityCritical
	case "warning":
		return SeverityWarning
	case "suggestion":
		return SeveritySuggestion
	default:
		return SeverityInfo
	}
}

// OverallRating is the model's verdict on the whole merge request
type OverallRating string

const (
	RatingApprove        OverallRating = "approve"
	RatingRequestChanges OverallRating = "request_changes"
	RatingComment        OverallRating = "comment"
)

// ParseOverallRating normalizes a model-reported rating string
func ParseOverallRating(raw string) OverallRating {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approve":
		return RatingApprove
	case "request_changes":
		return RatingRequestChanges
	default:
		return RatingComment
	}
}

// FeedbackStatus tracks an item through the posting state machine
type FeedbackStatus string

const (
	FeedbackStatusPending    FeedbackStatus = "pending"
	FeedbackStatusSubmitting FeedbackStatus = "submitting"
	FeedbackStatusSubmitted  FeedbackStatus = "submitted"
	FeedbackStatusError      FeedbackStatus = "error"
)

// FeedbackItem is one structured review finding.
// LineNumber is expressed in new-file coordinates for model-produced items;
// host-sourced items (IsExisting) carry whatever coordinate the host reported.
type FeedbackItem struct {
	ID          string
	FilePath    string
	LineNumber  int
	Severity    Severity
	Title       string
	Description string
	LineContent string
	Position    *Position
	Status      FeedbackStatus
	IsExisting  bool
}

// Position anchors a comment to a file+line in the host's coordinate system.
// Created only by the position resolver; immutable once attached.
type Position struct {
	BaseSHA  string
	StartSHA string
	HeadSHA  string
	OldPath  string
	NewPath  string
	OldLine  int
	NewLine  int
}

// ModelResponse is the parsed output of one model invocation
type ModelResponse struct {
	Summary       string
	OverallRating OverallRating
	Feedback      []*FeedbackItem
}

// ReviewResult represents the result of a code review process
type ReviewResult struct {
	IsSuccess       bool
	ProcessedFiles  int
	CommentsCreated int
	GeneralComments int
	Errors          []error
}
