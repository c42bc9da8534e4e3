package reviewer

import (
	"context"
	"sync"

	"github.com/maxbolgarin/abstract"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/revy/internal/model"
	"github.com/maxbolgarin/revy/internal/model/interfaces"
	"github.com/panjf2000/ants/v2"
)

// Reviewer runs the whole review cycle for a merge request: fetch, parse,
// prompt, curate, resolve positions and post comments.
type Reviewer struct {
	provider interfaces.CodeProvider
	agent    interfaces.ReviewAgent
	pool     *ants.Pool

	cfg Config
	log logze.Logger
}

// New creates a new reviewer
func New(cfg Config, provider interfaces.CodeProvider, agent interfaces.ReviewAgent) (*Reviewer, error) {
	if err := cfg.PrepareAndValidate(); err != nil {
		return nil, errm.Wrap(err, "failed to prepare and validate config")
	}

	pool, err := ants.NewPool(defaultPoolSize)
	if err != nil {
		return nil, errm.Wrap(err, "failed to create ants pool")
	}

	return &Reviewer{
		provider: provider,
		agent:    agent,
		pool:     pool,
		cfg:      cfg,
		log:      logze.With("component", "reviewer"),
	}, nil
}

// HandleEvent processes incoming webhook events and routes them
func (s *Reviewer) HandleEvent(ctx context.Context, event *model.CodeEvent) error {
	log := s.log.WithFields(
		"event_type", event.Type,
		"action", event.Action,
		"project_id", event.ProjectID,
	)

	if !s.provider.IsMergeRequestEvent(event) {
		log.Debug("unhandled webhook event type")
		return nil
	}

	// The webhook request context dies when the handler returns, the
	// review must outlive it. Deadlines are reapplied per model call.
	reviewCtx := context.WithoutCancel(ctx)

	return s.pool.Submit(func() {
		if err := s.ReviewMergeRequest(reviewCtx, event.ProjectID, event.MergeRequest.IID); err != nil {
			log.Error("error processing merge request event", "error", err)
		}
	})
}

// mrData holds everything fetched for one review cycle. The fan-out
// branches write disjoint fields, so no locking is needed.
type mrData struct {
	mr       *model.MergeRequest
	diffs    []*model.FileDiff
	comments []*model.Comment
	version  *model.DiffVersion
	approval *model.ApprovalStatus
}

// ReviewMergeRequest runs one full review cycle
func (s *Reviewer) ReviewMergeRequest(ctx context.Context, projectID string, mrIID int) error {
	log := s.log.WithFields("project_id", projectID, "mr_iid", mrIID)
	timer := abstract.StartTimer()

	data, err := s.fetchMRData(ctx, projectID, mrIID, log)
	if err != nil {
		return errm.Wrap(err, "failed to fetch merge request data")
	}

	log = log.WithFields(
		"branch_from", data.mr.SourceBranch,
		"branch_to", data.mr.TargetBranch,
		"commit_sha", lang.TruncateString(data.mr.SHA, 8),
	)
	s.logFlow(log, "starting merge request review", "title", data.mr.Title)

	if data.approval != nil && data.approval.Approved {
		s.logFlow(log, "merge request already approved, skipping review")
		return nil
	}

	files := s.filterFilesForReview(data.diffs, log)
	if len(files) == 0 {
		s.logFlow(log, "no files to review")
		return nil
	}

	contents := s.fetchFileContents(ctx, projectID, data.mr.SHA, files, log)
	changes := ParseDiffsToHunks(files, contents, s.cfg.MaxContentLines)

	match := ResolveProjectPrompt(projectID, s.cfg.CustomPrompts)
	if match.Matched {
		s.logFlow(log, "using custom project prompt", "rule", match.Rule, "strategy", match.Strategy)
	}

	prompt := BuildReviewPrompt(PromptRequest{
		StaticInstructions: staticInstructions,
		CustomPrompt:       match.Prompt,
		Strategy:           match.Strategy,
		MergeRequest:       data.mr,
		DiffSection:        changes.PromptText,
		ExistingComments:   data.comments,
	})

	modelCtx, cancel := context.WithTimeout(ctx, s.cfg.ModelTimeout)
	raw, err := s.agent.GenerateReview(modelCtx, prompt)
	cancel()
	if err != nil {
		return errm.Wrap(err, "failed to generate review")
	}

	response := ParseModelResponse(raw, s.cfg.ResponseFormat)
	existing := existingFeedback(data.comments)
	feedback := CurateFeedback(response.Feedback, existing, s.cfg.MinDescriptionLength)

	result := s.postFeedback(ctx, projectID, mrIID, feedback, changes.FileDiffs, data.version, log)
	result.ProcessedFiles = len(files)
	result.IsSuccess = len(result.Errors) == 0

	log.Info("merge request review finished",
		"files", result.ProcessedFiles,
		"comments", result.CommentsCreated,
		"general_comments", result.GeneralComments,
		"errors", len(result.Errors),
		"rating", response.OverallRating,
		"elapsed", timer.ElapsedTime(),
	)

	if !result.IsSuccess {
		return errm.Errorf("review finished with %d failed comments", len(result.Errors))
	}
	return nil
}

// fetchMRData issues the independent fetches concurrently and joins them.
// MR metadata and the diff list are fatal on failure; discussions, diff
// version and approval status degrade to absent.
func (s *Reviewer) fetchMRData(ctx context.Context, projectID string, mrIID int, log logze.Logger) (*mrData, error) {
	data := &mrData{}

	waiterSet := abstract.NewWaiterSet(log)
	waiterSet.Add(ctx, func(ctx context.Context) error {
		mr, err := s.provider.GetMergeRequest(ctx, projectID, mrIID)
		if err != nil {
			return errm.Wrap(err, "failed to get merge request")
		}
		data.mr = mr
		return nil
	})
	waiterSet.Add(ctx, func(ctx context.Context) error {
		diffs, err := s.provider.GetMergeRequestDiffs(ctx, projectID, mrIID)
		if err != nil {
			return errm.Wrap(err, "failed to get merge request diffs")
		}
		data.diffs = diffs
		return nil
	})
	waiterSet.Add(ctx, func(ctx context.Context) error {
		comments, err := s.provider.GetComments(ctx, projectID, mrIID)
		if err != nil {
			log.Warn("failed to get existing comments, proceeding without them", "error", err)
			return nil
		}
		data.comments = comments
		return nil
	})
	waiterSet.Add(ctx, func(ctx context.Context) error {
		version, err := s.provider.GetDiffVersion(ctx, projectID, mrIID)
		if err != nil {
			log.Warn("failed to get diff version, inline comments disabled", "error", err)
			return nil
		}
		data.version = version
		return nil
	})
	waiterSet.Add(ctx, func(ctx context.Context) error {
		approval, err := s.provider.GetApprovalStatus(ctx, projectID, mrIID)
		if err != nil {
			log.Warn("failed to get approval status", "error", err)
			return nil
		}
		data.approval = approval
		return nil
	})

	if err := waiterSet.Await(ctx); err != nil {
		return nil, err
	}
	return data, nil
}

// fetchFileContents fetches the "after" content of every reviewable file
// concurrently, keyed by path. A single file's failure degrades that file
// to diff-only context, it is not fatal.
func (s *Reviewer) fetchFileContents(ctx context.Context, projectID, ref string, files []*model.FileDiff, log logze.Logger) map[string]string {
	var (
		mu       sync.Mutex
		contents = make(map[string]string, len(files))
	)

	waiterSet := abstract.NewWaiterSet(log)
	for _, fd := range files {
		if fd.IsDeleted || fd.IsBinary {
			continue
		}
		fd := fd
		waiterSet.Add(ctx, func(ctx context.Context) error {
			content, err := s.provider.GetFileContent(ctx, projectID, fd.NewPath, ref)
			if err != nil {
				log.Warn("failed to fetch file content, using diff-only context",
					"file", fd.NewPath, "error", err)
				return nil
			}
			mu.Lock()
			contents[fd.NewPath] = content
			mu.Unlock()
			return nil
		})
	}
	_ = waiterSet.Await(ctx)

	return contents
}

func (s *Reviewer) filterFilesForReview(diffs []*model.FileDiff, log logze.Logger) []*model.FileDiff {
	var (
		filtered  []*model.FileDiff
		totalSize int
	)
	for _, fd := range diffs {
		if fd.IsBinary {
			log.DebugIf(s.cfg.Verbose, "skipping binary file", "file", fd.NewPath)
			continue
		}
		if totalSize+len(fd.Diff) > s.cfg.MaxDiffBytes {
			log.Warn("diff size limit reached, skipping remaining files", "file", fd.NewPath)
			break
		}
		totalSize += len(fd.Diff)
		filtered = append(filtered, fd)
	}
	return filtered
}

// postFeedback resolves positions and drives every item through the
// posting state machine. Per-item failures are collected so other items
// still succeed.
func (s *Reviewer) postFeedback(ctx context.Context, projectID string, mrIID int, feedback []*model.FeedbackItem, fileDiffs []*model.FileDiff, version *model.DiffVersion, log logze.Logger) *model.ReviewResult {
	result := &model.ReviewResult{}

	for _, item := range feedback {
		item.Position = ResolvePosition(item, fileDiffs, version)

		outcome := s.postFeedbackItem(ctx, projectID, mrIID, item)
		switch {
		case outcome.Err != nil:
			log.Err(outcome.Err, "failed to post feedback item", "file", item.FilePath, "line", item.LineNumber)
			result.Errors = append(result.Errors, outcome.Err)
		case outcome.Inline:
			result.CommentsCreated++
		default:
			result.GeneralComments++
			result.CommentsCreated++
		}
	}

	return result
}

// existingFeedback converts host-sourced inline comments into feedback
// items for deduplication. Host positions may be old- or new-file
// coordinates depending on comment type; they are taken as reported.
func existingFeedback(comments []*model.Comment) []*model.FeedbackItem {
	var items []*model.FeedbackItem
	for _, c := range comments {
		if c.Type != model.CommentTypeInline {
			continue
		}
		items = append(items, &model.FeedbackItem{
			ID:          c.ID,
			FilePath:    c.FilePath,
			LineNumber:  c.Line,
			Title:       c.Body,
			Description: c.Body,
			Status:      model.FeedbackStatusSubmitted,
			IsExisting:  true,
		})
	}
	return items
}

func (s *Reviewer) logFlow(log logze.Logger, msg string, fields ...any) {
	if s.cfg.Verbose {
		log.Info(msg, fields...)
	} else {
		log.Debug(msg, fields...)
	}
}
