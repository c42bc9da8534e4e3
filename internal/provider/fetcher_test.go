package provider

import (
	"context"
	"testing"
	"time"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/revy/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listProvider scripts ListMergeRequests; the other provider methods are
// inert stubs
type listProvider struct {
	list    func(filter *model.MergeRequestFilter) ([]*model.MergeRequest, error)
	filters []model.MergeRequestFilter
}

func (p *listProvider) ListMergeRequests(ctx context.Context, projectID string, filter *model.MergeRequestFilter) ([]*model.MergeRequest, error) {
	p.filters = append(p.filters, *filter)
	return p.list(filter)
}

func (p *listProvider) ValidateWebhook(payload []byte, authToken string) error { return nil }
func (p *listProvider) ParseWebhookEvent(payload []byte) (*model.CodeEvent, error) {
	return nil, nil
}
func (p *listProvider) IsMergeRequestEvent(event *model.CodeEvent) bool { return false }
func (p *listProvider) GetMergeRequest(ctx context.Context, projectID string, mrIID int) (*model.MergeRequest, error) {
	return nil, nil
}
func (p *listProvider) GetMergeRequestDiffs(ctx context.Context, projectID string, mrIID int) ([]*model.FileDiff, error) {
	return nil, nil
}
func (p *listProvider) GetDiffVersion(ctx context.Context, projectID string, mrIID int) (*model.DiffVersion, error) {
	return nil, nil
}
func (p *listProvider) GetApprovalStatus(ctx context.Context, projectID string, mrIID int) (*model.ApprovalStatus, error) {
	return nil, nil
}
func (p *listProvider) GetFileContent(ctx context.Context, projectID, filePath, ref string) (string, error) {
	return "", nil
}
func (p *listProvider) GetComments(ctx context.Context, projectID string, mrIID int) ([]*model.Comment, error) {
	return nil, nil
}
func (p *listProvider) CreateComment(ctx context.Context, projectID string, mrIID int, comment *model.Comment, position *model.Position) error {
	return nil
}
func (p *listProvider) GetCurrentUser(ctx context.Context) (*model.User, error) { return nil, nil }

func mrPage(iids ...int) []*model.MergeRequest {
	var mrs []*model.MergeRequest
	for _, iid := range iids {
		mrs = append(mrs, &model.MergeRequest{IID: iid})
	}
	return mrs
}

func TestFetchMRsToReviewWalksAllPages(t *testing.T) {
	pages := [][]*model.MergeRequest{mrPage(1, 2), mrPage(3)}
	provider := &listProvider{
		list: func(filter *model.MergeRequestFilter) ([]*model.MergeRequest, error) {
			require.Less(t, filter.Page, len(pages))
			return pages[filter.Page], nil
		},
	}

	mrs, err := NewFetcher(provider).FetchMRsToReview(context.Background(), "42", FetchOptions{Limit: 2})
	require.NoError(t, err)
	require.Len(t, mrs, 3)
	assert.Equal(t, 1, mrs[0].IID)
	assert.Equal(t, 3, mrs[2].IID)

	// A short page ends the walk, page numbers are sequential
	require.Len(t, provider.filters, 2)
	assert.Equal(t, 0, provider.filters[0].Page)
	assert.Equal(t, 1, provider.filters[1].Page)
	assert.Equal(t, []string{"opened"}, provider.filters[0].State)
}

func TestFetchOpenMRs(t *testing.T) {
	provider := &listProvider{
		list: func(filter *model.MergeRequestFilter) ([]*model.MergeRequest, error) {
			return mrPage(5), nil
		},
	}

	mrs, err := NewFetcher(provider).FetchOpenMRs(context.Background(), "42")
	require.NoError(t, err)
	require.Len(t, mrs, 1)

	require.Len(t, provider.filters, 1)
	filter := provider.filters[0]
	assert.Equal(t, []string{"opened"}, filter.State)
	assert.Equal(t, 50, filter.Limit)
	assert.Nil(t, filter.UpdatedAfter)
}

func TestFetchRecentMRs(t *testing.T) {
	provider := &listProvider{
		list: func(filter *model.MergeRequestFilter) ([]*model.MergeRequest, error) {
			return nil, nil
		},
	}

	_, err := NewFetcher(provider).FetchRecentMRs(context.Background(), "42", 24*time.Hour)
	require.NoError(t, err)

	require.Len(t, provider.filters, 1)
	updatedAfter := provider.filters[0].UpdatedAfter
	require.NotNil(t, updatedAfter)
	assert.WithinDuration(t, time.Now().Add(-24*time.Hour), *updatedAfter, time.Minute)
}

func TestBatchProcessMRsContinuesOnProcessorError(t *testing.T) {
	provider := &listProvider{
		list: func(filter *model.MergeRequestFilter) ([]*model.MergeRequest, error) {
			if filter.Page > 0 {
				return nil, nil
			}
			return mrPage(1, 2), nil
		},
	}

	var processed []int
	err := NewFetcher(provider).BatchProcessMRs(context.Background(), "42",
		&model.MergeRequestFilter{Limit: 2},
		func(mr *model.MergeRequest) error {
			processed = append(processed, mr.IID)
			if mr.IID == 1 {
				return errm.New("review blew up")
			}
			return nil
		})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, processed)
}

func TestBatchProcessMRsListError(t *testing.T) {
	provider := &listProvider{
		list: func(filter *model.MergeRequestFilter) ([]*model.MergeRequest, error) {
			return nil, errm.New("host is down")
		},
	}

	err := NewFetcher(provider).BatchProcessMRs(context.Background(), "42",
		&model.MergeRequestFilter{Limit: 2},
		func(mr *model.MergeRequest) error { return nil })

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch merge requests")
}
