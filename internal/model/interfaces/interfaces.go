package interfaces

import (
	"context"

	"github.com/maxbolgarin/revy/internal/model"
)

// CodeProvider defines the interface for VCS providers (GitLab-shaped)
type CodeProvider interface {
	// Webhook handling
	ValidateWebhook(payload []byte, authToken string) error
	ParseWebhookEvent(payload []byte) (*model.CodeEvent, error)
	IsMergeRequestEvent(event *model.CodeEvent) bool

	// MR operations
	GetMergeRequest(ctx context.Context, projectID string, mrIID int) (*model.MergeRequest, error)
	GetMergeRequestDiffs(ctx context.Context, projectID string, mrIID int) ([]*model.FileDiff, error)
	GetDiffVersion(ctx context.Context, projectID string, mrIID int) (*model.DiffVersion, error)
	GetApprovalStatus(ctx context.Context, projectID string, mrIID int) (*model.ApprovalStatus, error)
	ListMergeRequests(ctx context.Context, projectID string, filter *model.MergeRequestFilter) ([]*model.MergeRequest, error)

	// Repository content
	GetFileContent(ctx context.Context, projectID, filePath, ref string) (string, error)

	// Comments
	GetComments(ctx context.Context, projectID string, mrIID int) ([]*model.Comment, error)
	CreateComment(ctx context.Context, projectID string, mrIID int, comment *model.Comment, position *model.Position) error

	// User operations
	GetCurrentUser(ctx context.Context) (*model.User, error)
}

// AgentAPI is a single LLM backend: prompt in, raw text out
type AgentAPI interface {
	CallAPI(ctx context.Context, req model.APIRequest) (model.APIResponse, error)
}

// ReviewAgent generates review text from an assembled prompt. Retry and
// backoff policy live behind this interface, callers see one call.
type ReviewAgent interface {
	GenerateReview(ctx context.Context, prompt string) (string, error)
}
