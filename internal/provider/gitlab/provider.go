package gitlab

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/revy/internal/model"
	"github.com/maxbolgarin/revy/internal/model/interfaces"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

const (
	defaultBaseURL = "https://gitlab.com"
)

var _ interfaces.CodeProvider = (*Provider)(nil)

// Provider implements the CodeProvider interface for GitLab
type Provider struct {
	client *gitlab.Client
	config model.ProviderConfig
	logger logze.Logger
}

// New creates a new GitLab provider
func New(config model.ProviderConfig) (*Provider, error) {
	if config.Token == "" {
		return nil, errm.New("GitLab token is required")
	}
	logger := logze.With("provider", "gitlab", "component", "provider")

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client, err := gitlab.NewClient(config.Token, gitlab.WithBaseURL(baseURL))
	if err != nil {
		return nil, errm.Wrap(err, "failed to create GitLab client")
	}

	return &Provider{
		client: client,
		config: config,
		logger: logger,
	}, nil
}

// ValidateWebhook checks the X-Gitlab-Token header against the configured secret
func (p *Provider) ValidateWebhook(payload []byte, authToken string) error {
	if p.config.WebhookSecret == "" {
		return nil // No secret configured, skip validation
	}

	if authToken != p.config.WebhookSecret {
		return errm.New("invalid webhook token")
	}

	return nil
}

// ParseWebhookEvent parses a GitLab webhook event
func (p *Provider) ParseWebhookEvent(payload []byte) (*model.CodeEvent, error) {
	var gitlabPayload gitlabPayload
	if err := json.Unmarshal(payload, &gitlabPayload); err != nil {
		return nil, errm.Wrap(err, "failed to parse GitLab webhook payload")
	}

	var reviewers []model.User
	for _, reviewer := range gitlabPayload.Reviewers {
		reviewers = append(reviewers, model.User{
			ID:       strconv.Itoa(reviewer.ID),
			Username: reviewer.Username,
			Name:     reviewer.Name,
		})
	}

	event := &model.CodeEvent{
		Type:      gitlabPayload.ObjectKind,
		Action:    gitlabPayload.ObjectAttributes.Action,
		ProjectID: strconv.Itoa(gitlabPayload.Project.ID),
		User: &model.User{
			ID:       strconv.Itoa(gitlabPayload.User.ID),
			Username: gitlabPayload.User.Username,
			Name:     gitlabPayload.User.Name,
		},
		MergeRequest: &model.MergeRequest{
			ID:           strconv.Itoa(gitlabPayload.ObjectAttributes.IID),
			IID:          gitlabPayload.ObjectAttributes.IID,
			Title:        gitlabPayload.ObjectAttributes.Title,
			Description:  gitlabPayload.ObjectAttributes.Description,
			SourceBranch: gitlabPayload.ObjectAttributes.SourceBranch,
			TargetBranch: gitlabPayload.ObjectAttributes.TargetBranch,
			URL:          gitlabPayload.ObjectAttributes.URL,
			State:        gitlabPayload.ObjectAttributes.State,
			SHA:          gitlabPayload.ObjectAttributes.LastCommit.ID,
			Reviewers:    reviewers,
		},
	}

	return event, nil
}

// IsMergeRequestEvent determines if a webhook event is a merge request event that should be processed
func (p *Provider) IsMergeRequestEvent(event *model.CodeEvent) bool {
	if event.Type != "merge_request" {
		return false
	}

	relevantActions := []string{"open", "reopen", "update"}
	if !slices.Contains(relevantActions, event.Action) {
		return false
	}

	// Don't process events from the bot itself to avoid loops
	if event.User != nil && event.User.Username == p.config.BotUsername {
		return false
	}

	// Only review MRs where the bot is in the reviewers list
	if !p.isBotInReviewersList(event.MergeRequest) {
		p.logger.Debug("bot not in reviewers list, skipping review",
			"mr_iid", event.MergeRequest.IID,
			"bot_username", p.config.BotUsername,
			"reviewers_count", len(event.MergeRequest.Reviewers))
		return false
	}

	p.logger.Debug("merge request event should be processed",
		"action", event.Action, "mr_iid", event.MergeRequest.IID)
	return true
}

// isBotInReviewersList checks if the configured bot username is in the MR reviewers list
func (p *Provider) isBotInReviewersList(mr *model.MergeRequest) bool {
	if mr == nil || p.config.BotUsername == "" {
		return false
	}

	for _, reviewer := range mr.Reviewers {
		if reviewer.Username == p.config.BotUsername {
			return true
		}
	}

	return false
}

// GetMergeRequest retrieves detailed information about a merge request
func (p *Provider) GetMergeRequest(ctx context.Context, projectID string, mrIID int) (*model.MergeRequest, error) {
	projectIDInt, err := strconv.Atoi(projectID)
	if err != nil {
		return nil, errm.Wrap(err, "invalid project ID")
	}

	mr, resp, err := p.client.MergeRequests.GetMergeRequest(projectIDInt, mrIID, nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, errm.Wrap(err, "failed to get merge request from GitLab")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errm.New(fmt.Sprintf("GitLab API returned status %d", resp.StatusCode))
	}

	return p.convertMergeRequest(&mr.BasicMergeRequest), nil
}

// GetMergeRequestDiffs retrieves the file diffs for a merge request
func (p *Provider) GetMergeRequestDiffs(ctx context.Context, projectID string, mrIID int) ([]*model.FileDiff, error) {
	projectIDInt, err := strconv.Atoi(projectID)
	if err != nil {
		return nil, errm.Wrap(err, "invalid project ID")
	}

	var allDiffs []*gitlab.MergeRequestDiff
	page := 1

	// Fetch all pages of diffs
	for {
		opts := &gitlab.ListMergeRequestDiffsOptions{
			ListOptions: gitlab.ListOptions{
				Page: page,
			},
		}

		diffs, resp, err := p.client.MergeRequests.ListMergeRequestDiffs(projectIDInt, mrIID, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, errm.Wrap(err, "failed to list merge request diffs")
		}

		if resp.StatusCode != http.StatusOK {
			return nil, errm.New(fmt.Sprintf("GitLab API returned status %d", resp.StatusCode))
		}

		allDiffs = append(allDiffs, diffs...)

		if resp.NextPage == 0 {
			break
		}
		page = resp.NextPage
	}

	var fileDiffs []*model.FileDiff
	for _, diff := range allDiffs {
		fileDiff := &model.FileDiff{
			OldPath:   diff.OldPath,
			NewPath:   diff.NewPath,
			Diff:      diff.Diff,
			IsNew:     diff.NewFile,
			IsDeleted: diff.DeletedFile,
			IsRenamed: diff.RenamedFile,
			IsBinary:  diff.Diff == "" && !diff.DeletedFile && !diff.NewFile, // Heuristic for binary files
		}
		fileDiffs = append(fileDiffs, fileDiff)
	}

	return fileDiffs, nil
}

// GetDiffVersion retrieves the SHA triple of the latest diff version.
// Inline comment positions are only accepted by GitLab when they carry
// the exact base/start/head SHAs of the version they refer to.
func (p *Provider) GetDiffVersion(ctx context.Context, projectID string, mrIID int) (*model.DiffVersion, error) {
	projectIDInt, err := strconv.Atoi(projectID)
	if err != nil {
		return nil, errm.Wrap(err, "invalid project ID")
	}

	versions, _, err := p.client.MergeRequests.GetMergeRequestDiffVersions(projectIDInt, mrIID, nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, errm.Wrap(err, "failed to get merge request diff versions")
	}

	if len(versions) == 0 {
		return nil, errm.New("merge request has no diff versions")
	}

	// Versions are returned newest first
	latest := versions[0]

	return &model.DiffVersion{
		BaseSHA:  latest.BaseCommitSHA,
		StartSHA: latest.StartCommitSHA,
		HeadSHA:  latest.HeadCommitSHA,
	}, nil
}

// GetApprovalStatus retrieves the approval state of a merge request
func (p *Provider) GetApprovalStatus(ctx context.Context, projectID string, mrIID int) (*model.ApprovalStatus, error) {
	projectIDInt, err := strconv.Atoi(projectID)
	if err != nil {
		return nil, errm.Wrap(err, "invalid project ID")
	}

	approvals, _, err := p.client.MergeRequestApprovals.GetConfiguration(projectIDInt, mrIID, gitlab.WithContext(ctx))
	if err != nil {
		return nil, errm.Wrap(err, "failed to get merge request approvals")
	}

	return &model.ApprovalStatus{
		Approved:          approvals.Approved,
		ApprovalsRequired: approvals.ApprovalsRequired,
		ApprovalsLeft:     approvals.ApprovalsLeft,
	}, nil
}

// ListMergeRequests retrieves multiple merge requests based on filter criteria
func (p *Provider) ListMergeRequests(ctx context.Context, projectID string, filter *model.MergeRequestFilter) ([]*model.MergeRequest, error) {
	projectIDInt, err := strconv.Atoi(projectID)
	if err != nil {
		return nil, errm.Wrap(err, "invalid project ID")
	}

	opts := &gitlab.ListProjectMergeRequestsOptions{
		ListOptions: gitlab.ListOptions{
			Page:    filter.Page + 1, // GitLab uses 1-based pagination
			PerPage: filter.Limit,
		},
	}

	if len(filter.State) > 0 {
		// GitLab uses "opened", "closed", "merged"
		opts.State = &filter.State[0]
	}

	if filter.TargetBranch != "" {
		opts.TargetBranch = &filter.TargetBranch
	}

	if filter.SourceBranch != "" {
		opts.SourceBranch = &filter.SourceBranch
	}

	if filter.AuthorID != "" {
		authorIDInt, err := strconv.Atoi(filter.AuthorID)
		if err == nil {
			opts.AuthorID = &authorIDInt
		}
	}

	if filter.UpdatedAfter != nil {
		opts.UpdatedAfter = filter.UpdatedAfter
	}

	if filter.CreatedAfter != nil {
		opts.CreatedAfter = filter.CreatedAfter
	}

	mrs, _, err := p.client.MergeRequests.ListProjectMergeRequests(projectIDInt, opts, gitlab.WithContext(ctx))
	if err != nil {
		return nil, errm.Wrap(err, "failed to list merge requests")
	}

	var result []*model.MergeRequest
	for _, mr := range mrs {
		result = append(result, p.convertMergeRequest(mr))
	}

	return result, nil
}

// GetFileContent retrieves the content of a file at a specific ref
func (p *Provider) GetFileContent(ctx context.Context, projectID, filePath, ref string) (string, error) {
	projectIDInt, err := strconv.Atoi(projectID)
	if err != nil {
		return "", errm.Wrap(err, "invalid project ID")
	}

	fileOpts := &gitlab.GetFileOptions{
		Ref: &ref,
	}

	file, resp, err := p.client.RepositoryFiles.GetFile(projectIDInt, filePath, fileOpts, gitlab.WithContext(ctx))
	if err != nil {
		return "", errm.Wrap(err, "failed to get file content from GitLab")
	}

	if resp.StatusCode != http.StatusOK {
		return "", errm.New("GitLab API returned status %d", resp.StatusCode)
	}

	if file == nil {
		return "", errm.New("file content is nil")
	}

	if file.Encoding == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(file.Content)
		if err != nil {
			return "", errm.Wrap(err, "failed to decode file content")
		}
		return string(decoded), nil
	}

	return file.Content, nil
}

// GetComments retrieves all comments for a merge request
func (p *Provider) GetComments(ctx context.Context, projectID string, mrIID int) ([]*model.Comment, error) {
	projectIDInt, err := strconv.Atoi(projectID)
	if err != nil {
		return nil, errm.Wrap(err, "invalid project ID")
	}

	var allComments []*model.Comment
	page := 1

	for {
		opts := &gitlab.ListMergeRequestDiscussionsOptions{
			Page: page,
		}

		discussions, resp, err := p.client.Discussions.ListMergeRequestDiscussions(projectIDInt, mrIID, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, errm.Wrap(err, "failed to get discussions from GitLab")
		}

		for _, discussion := range discussions {
			for _, note := range discussion.Notes {
				comment := &model.Comment{
					ID:   strconv.Itoa(note.ID),
					Body: note.Body,
					Author: model.User{
						ID:       strconv.Itoa(note.Author.ID),
						Username: note.Author.Username,
						Name:     note.Author.Name,
					},
					CreatedAt: lang.Deref(note.CreatedAt),
					UpdatedAt: lang.Deref(note.UpdatedAt),
				}

				if note.Position != nil && note.Position.NewPath != "" {
					comment.Type = model.CommentTypeInline
					comment.FilePath = note.Position.NewPath
					comment.Line = note.Position.NewLine
					comment.OldLine = note.Position.OldLine
				} else {
					comment.Type = model.CommentTypeGeneral
				}

				allComments = append(allComments, comment)
			}
		}

		if resp.NextPage == 0 {
			break
		}
		page = resp.NextPage
	}

	return allComments, nil
}

// CreateComment creates a discussion on a merge request. A non-nil position
// makes it an inline comment anchored to a diff line; GitLab rejecting the
// position is reported as model.ErrInvalidPosition so the caller can fall
// back to a general comment.
func (p *Provider) CreateComment(ctx context.Context, projectID string, mrIID int, comment *model.Comment, position *model.Position) error {
	projectIDInt, err := strconv.Atoi(projectID)
	if err != nil {
		return errm.Wrap(err, "invalid project ID")
	}

	discussionOpts := &gitlab.CreateMergeRequestDiscussionOptions{
		Body: &comment.Body,
	}

	if position != nil {
		positionType := "text"
		positionOpts := &gitlab.PositionOptions{
			BaseSHA:      &position.BaseSHA,
			StartSHA:     &position.StartSHA,
			HeadSHA:      &position.HeadSHA,
			PositionType: &positionType,
			NewPath:      &position.NewPath,
		}
		if position.OldPath != "" {
			positionOpts.OldPath = &position.OldPath
		}
		if position.NewLine > 0 {
			positionOpts.NewLine = &position.NewLine
		}
		if position.OldLine > 0 {
			positionOpts.OldLine = &position.OldLine
		}
		discussionOpts.Position = positionOpts
	}

	discussion, resp, err := p.client.Discussions.CreateMergeRequestDiscussion(projectIDInt, mrIID, discussionOpts, gitlab.WithContext(ctx))
	if err != nil {
		if position != nil && resp != nil && resp.StatusCode == http.StatusBadRequest {
			// GitLab returns 400 when the position does not resolve to a
			// line of the current diff version
			return errm.Wrap(model.ErrInvalidPosition, err.Error())
		}
		return errm.Wrap(err, "failed to create merge request discussion")
	}

	comment.ID = discussion.ID
	return nil
}

// GetCurrentUser retrieves the authenticated user (the bot account)
func (p *Provider) GetCurrentUser(ctx context.Context) (*model.User, error) {
	user, _, err := p.client.Users.CurrentUser(gitlab.WithContext(ctx))
	if err != nil {
		return nil, errm.Wrap(err, "failed to get current user from GitLab")
	}

	return &model.User{
		ID:       strconv.Itoa(user.ID),
		Username: user.Username,
		Name:     user.Name,
	}, nil
}

func (p *Provider) convertMergeRequest(mr *gitlab.BasicMergeRequest) *model.MergeRequest {
	var reviewers []model.User
	for _, reviewer := range mr.Reviewers {
		reviewers = append(reviewers, model.User{
			ID:       strconv.Itoa(reviewer.ID),
			Username: reviewer.Username,
			Name:     reviewer.Name,
		})
	}

	return &model.MergeRequest{
		ID:           strconv.Itoa(mr.ID),
		IID:          mr.IID,
		Title:        mr.Title,
		Description:  mr.Description,
		SourceBranch: mr.SourceBranch,
		TargetBranch: mr.TargetBranch,
		URL:          mr.WebURL,
		State:        mr.State,
		SHA:          mr.SHA,
		Author: model.User{
			ID:       strconv.Itoa(mr.Author.ID),
			Username: mr.Author.Username,
			Name:     mr.Author.Name,
		},
		Reviewers: reviewers,
		CreatedAt: lang.Deref(mr.CreatedAt),
		UpdatedAt: lang.Deref(mr.UpdatedAt),
	}
}
