package provider

import (
	"context"
	"time"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/revy/internal/model"
	"github.com/maxbolgarin/revy/internal/model/interfaces"
)

// FetchOptions defines options for fetching merge requests
type FetchOptions struct {
	TargetBranch string     // Filter by target branch (e.g., "main", "develop")
	UpdatedSince *time.Time // Only fetch MRs updated after this time
	CreatedSince *time.Time // Only fetch MRs created after this time
	Limit        int        // Maximum number of results (default: 50)
}

// SetDefaults sets default values for fetch options
func (o *FetchOptions) SetDefaults() {
	if o.Limit == 0 {
		o.Limit = 50
	}
}

// Fetcher provides utility methods for fetching merge requests from repositories
type Fetcher struct {
	provider interfaces.CodeProvider
	log      logze.Logger
}

// NewFetcher creates a new MR fetcher instance
func NewFetcher(provider interfaces.CodeProvider) *Fetcher {
	return &Fetcher{
		provider: provider,
		log:      logze.With("component", "fetcher"),
	}
}

// FetchOpenMRs retrieves all open merge requests from a repository
func (f *Fetcher) FetchOpenMRs(ctx context.Context, projectID string) ([]*model.MergeRequest, error) {
	return f.FetchMRsToReview(ctx, projectID, FetchOptions{})
}

// FetchRecentMRs retrieves open merge requests updated in the last specified duration
func (f *Fetcher) FetchRecentMRs(ctx context.Context, projectID string, since time.Duration) ([]*model.MergeRequest, error) {
	sinceTime := time.Now().Add(-since)
	return f.FetchMRsToReview(ctx, projectID, FetchOptions{UpdatedSince: &sinceTime})
}

// FetchMRsToReview retrieves open merge requests matching the options,
// walking all result pages.
func (f *Fetcher) FetchMRsToReview(ctx context.Context, projectID string, options FetchOptions) ([]*model.MergeRequest, error) {
	options.SetDefaults()

	filter := &model.MergeRequestFilter{
		State:        []string{"opened"},
		TargetBranch: options.TargetBranch,
		Limit:        options.Limit,
	}

	if options.UpdatedSince != nil {
		filter.UpdatedAfter = options.UpdatedSince
	}

	if options.CreatedSince != nil {
		filter.CreatedAfter = options.CreatedSince
	}

	var mrs []*model.MergeRequest
	err := f.BatchProcessMRs(ctx, projectID, filter, func(mr *model.MergeRequest) error {
		mrs = append(mrs, mr)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mrs, nil
}

// BatchProcessMRs processes multiple merge requests with a callback function
func (f *Fetcher) BatchProcessMRs(ctx context.Context, projectID string, filter *model.MergeRequestFilter, processor func(*model.MergeRequest) error) error {
	page := 0
	for {
		filter.Page = page
		mrs, err := f.provider.ListMergeRequests(ctx, projectID, filter)
		if err != nil {
			return errm.Wrap(err, "failed to fetch merge requests")
		}

		if len(mrs) == 0 {
			break // No more results
		}

		f.log.Debug("processing MR batch", "count", len(mrs), "page", page)

		for _, mr := range mrs {
			if err := processor(mr); err != nil {
				f.log.Error("failed to process merge request",
					"mr_id", mr.ID,
					"error", err)
				// Continue processing other MRs instead of failing
			}
		}

		// If we got fewer results than the limit, we've reached the end
		if len(mrs) < filter.Limit {
			break
		}

		page++
	}
	return nil
}
