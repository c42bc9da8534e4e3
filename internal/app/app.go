package app

import (
	"context"
	"time"

	"github.com/maxbolgarin/contem"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/revy/internal/agent"
	"github.com/maxbolgarin/revy/internal/config"
	"github.com/maxbolgarin/revy/internal/model"
	"github.com/maxbolgarin/revy/internal/model/interfaces"
	"github.com/maxbolgarin/revy/internal/provider"
	"github.com/maxbolgarin/revy/internal/reviewer"
	"github.com/maxbolgarin/revy/internal/server"
)

// Revy is the main service that orchestrates all components
type Revy struct {
	provider       interfaces.CodeProvider
	agent          *agent.Agent
	reviewer       *reviewer.Reviewer
	webhookHandler *server.Server
	fetcher        *provider.Fetcher

	cfg config.Config
	log logze.Logger
}

// New creates a new code review service
func New(ctx contem.Context, cfg config.Config) (*Revy, error) {
	service := &Revy{
		cfg: cfg,
		log: logze.With("component", "app"),
	}

	if err := service.init(ctx, cfg); err != nil {
		return nil, errm.Wrap(err, "failed to initialize service")
	}

	return service, nil
}

// StartWebhook starts the webhook server and blocks until it stops
func (s *Revy) StartWebhook(ctx context.Context) error {
	if err := s.webhookHandler.Start(ctx); err != nil {
		return errm.Wrap(err, "failed to start webhook handler")
	}
	return nil
}

// RunReview reviews open merge requests of a project once. A positive
// since duration narrows the set to MRs updated within that window.
func (s *Revy) RunReview(ctx context.Context, projectID string, since time.Duration) error {
	var (
		mrs []*model.MergeRequest
		err error
	)
	if since > 0 {
		mrs, err = s.fetcher.FetchRecentMRs(ctx, projectID, since)
	} else {
		mrs, err = s.fetcher.FetchOpenMRs(ctx, projectID)
	}
	if err != nil {
		return errm.Wrap(err, "failed to fetch open merge requests")
	}
	for _, mr := range mrs {
		err := s.reviewer.ReviewMergeRequest(ctx, projectID, mr.IID)
		if err != nil {
			return errm.Wrap(err, "failed to review merge request")
		}
	}
	return nil
}

func (s *Revy) init(ctx contem.Context, cfg config.Config) (err error) {

	// Create VCS provider
	s.provider, err = provider.NewProvider(cfg.Provider)
	if err != nil {
		return errm.Wrap(err, "failed to create VCS provider")
	}
	s.fetcher = provider.NewFetcher(s.provider)

	// Verify the token early, a broken one would only surface on the
	// first webhook otherwise
	user, err := s.provider.GetCurrentUser(ctx)
	if err != nil {
		return errm.Wrap(err, "failed to verify provider credentials")
	}
	s.log.Info("authenticated to VCS provider", "username", user.Username)

	// Create model agent
	s.agent, err = agent.New(ctx, cfg.Agent)
	if err != nil {
		return errm.Wrap(err, "failed to create agent")
	}

	// Create review service, the central orchestrator
	s.reviewer, err = reviewer.New(cfg.Reviewer, s.provider, s.agent)
	if err != nil {
		return errm.Wrap(err, "failed to create review service")
	}

	// Create webhook handler, just an event source
	s.webhookHandler, err = server.New(cfg.Server, s.provider, s.reviewer)
	if err != nil {
		return errm.Wrap(err, "failed to create webhook handler")
	}
	ctx.Add(s.webhookHandler.Stop)

	return nil
}
