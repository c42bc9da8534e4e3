package reviewer

import (
	"context"
	"testing"
	"time"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/revy/internal/model"
	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAgent struct {
	generate func(ctx context.Context, prompt string) (string, error)
	prompts  []string
}

func (f *fakeAgent) GenerateReview(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.generate == nil {
		return "", errm.New("no response scripted")
	}
	return f.generate(ctx, prompt)
}

func newTestReviewer(t *testing.T, provider *fakeProvider, agent *fakeAgent) *Reviewer {
	t.Helper()
	cfg := Config{}
	require.NoError(t, cfg.PrepareAndValidate())
	return &Reviewer{
		provider: provider,
		agent:    agent,
		cfg:      cfg,
		log:      logze.With("component", "reviewer"),
	}
}

func sampleMR() *model.MergeRequest {
	return &model.MergeRequest{
		IID:          7,
		Title:        "Add retry to uploader",
		SourceBranch: "feature/retry",
		TargetBranch: "main",
		SHA:          "abcdef1234567890",
		Author:       model.User{Username: "dev"},
	}
}

const reviewDiff = "@@ -1,2 +1,3 @@\n ctx head\n+added line\n ctx tail\n"

const reviewModelJSON = `{
	"summary": "looks fine",
	"overall_rating": "comment",
	"feedback": [{
		"file_path": "a.go",
		"line": 2,
		"severity": "warning",
		"title": "Check error",
		"description": "The returned error from the call is silently dropped"
	}]
}`

func TestReviewMergeRequestDegradesOnOptionalFetchFailures(t *testing.T) {
	provider := &fakeProvider{
		getMergeRequest: func(ctx context.Context) (*model.MergeRequest, error) {
			return sampleMR(), nil
		},
		getMergeRequestDiffs: func(ctx context.Context) ([]*model.FileDiff, error) {
			return []*model.FileDiff{{OldPath: "a.go", NewPath: "a.go", Diff: reviewDiff}}, nil
		},
		getComments: func(ctx context.Context) ([]*model.Comment, error) {
			return nil, errm.New("discussions endpoint is down")
		},
		getDiffVersion: func(ctx context.Context) (*model.DiffVersion, error) {
			return nil, errm.New("versions endpoint is down")
		},
		getApprovalStatus: func(ctx context.Context) (*model.ApprovalStatus, error) {
			return nil, errm.New("approvals endpoint is down")
		},
		getFileContent: func(ctx context.Context, filePath string) (string, error) {
			return "", errm.New("file endpoint is down")
		},
	}
	agent := &fakeAgent{
		generate: func(ctx context.Context, prompt string) (string, error) {
			return reviewModelJSON, nil
		},
	}
	s := newTestReviewer(t, provider, agent)

	err := s.ReviewMergeRequest(context.Background(), "42", 7)
	require.NoError(t, err)

	// The model was still invoked with diff-only context
	require.Len(t, agent.prompts, 1)
	assert.Contains(t, agent.prompts[0], "+ 2: added line")
	assert.NotContains(t, agent.prompts[0], "FULL FILE CONTENT")

	// Without a diff version the finding degrades to a general comment
	require.Len(t, provider.calls, 1)
	assert.Nil(t, provider.calls[0])
}

func TestReviewMergeRequestFailsWhenDiffsUnavailable(t *testing.T) {
	provider := &fakeProvider{
		getMergeRequest: func(ctx context.Context) (*model.MergeRequest, error) {
			return sampleMR(), nil
		},
		getMergeRequestDiffs: func(ctx context.Context) ([]*model.FileDiff, error) {
			return nil, errm.New("diffs endpoint is down")
		},
	}
	agent := &fakeAgent{}
	s := newTestReviewer(t, provider, agent)

	err := s.ReviewMergeRequest(context.Background(), "42", 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch merge request data")

	assert.Empty(t, agent.prompts)
	assert.Empty(t, provider.calls)
}

func TestReviewMergeRequestFailsWhenMRUnavailable(t *testing.T) {
	provider := &fakeProvider{
		getMergeRequest: func(ctx context.Context) (*model.MergeRequest, error) {
			return nil, errm.New("merge request endpoint is down")
		},
		getMergeRequestDiffs: func(ctx context.Context) ([]*model.FileDiff, error) {
			return []*model.FileDiff{{NewPath: "a.go", Diff: reviewDiff}}, nil
		},
	}
	agent := &fakeAgent{}
	s := newTestReviewer(t, provider, agent)

	err := s.ReviewMergeRequest(context.Background(), "42", 7)
	require.Error(t, err)
	assert.Empty(t, agent.prompts)
}

func TestReviewMergeRequestSkipsApproved(t *testing.T) {
	provider := &fakeProvider{
		getMergeRequest: func(ctx context.Context) (*model.MergeRequest, error) {
			return sampleMR(), nil
		},
		getMergeRequestDiffs: func(ctx context.Context) ([]*model.FileDiff, error) {
			return []*model.FileDiff{{NewPath: "a.go", Diff: reviewDiff}}, nil
		},
		getApprovalStatus: func(ctx context.Context) (*model.ApprovalStatus, error) {
			return &model.ApprovalStatus{Approved: true}, nil
		},
	}
	agent := &fakeAgent{}
	s := newTestReviewer(t, provider, agent)

	err := s.ReviewMergeRequest(context.Background(), "42", 7)
	require.NoError(t, err)
	assert.Empty(t, agent.prompts)
	assert.Empty(t, provider.calls)
}

func TestHandleEventReviewOutlivesRequestContext(t *testing.T) {
	requestDone := make(chan struct{})
	fetched := make(chan error, 1)

	provider := &fakeProvider{
		isMergeRequestEvent: func(event *model.CodeEvent) bool { return true },
		getMergeRequest: func(ctx context.Context) (*model.MergeRequest, error) {
			<-requestDone
			fetched <- ctx.Err()
			return nil, errm.New("stop the cycle")
		},
	}

	pool, err := ants.NewPool(1)
	require.NoError(t, err)
	defer pool.Release()

	s := newTestReviewer(t, provider, &fakeAgent{})
	s.pool = pool

	ctx, cancel := context.WithCancel(context.Background())
	event := &model.CodeEvent{
		Type:         "merge_request",
		Action:       "open",
		ProjectID:    "42",
		MergeRequest: &model.MergeRequest{IID: 7},
	}
	require.NoError(t, s.HandleEvent(ctx, event))

	// The webhook handler returns and its context dies before the
	// submitted review gets to fetch anything
	cancel()
	close(requestDone)

	select {
	case ctxErr := <-fetched:
		assert.NoError(t, ctxErr)
	case <-time.After(2 * time.Second):
		t.Fatal("submitted review never ran")
	}
}
