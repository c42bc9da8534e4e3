package agent

import (
	"context"
	"time"

	"github.com/maxbolgarin/cliex"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/logze/v2"
	"github.com/maxbolgarin/revy/internal/agent/gemini"
	"github.com/maxbolgarin/revy/internal/agent/openai"
	"github.com/maxbolgarin/revy/internal/model"
	"github.com/maxbolgarin/revy/internal/model/interfaces"
)

// Agent is a provider-agnostic model invoker: prompt string in, raw text
// out. Rate-limit responses are retried with exponential backoff up to the
// configured attempt count, after which the error is surfaced.
type Agent struct {
	cfg Config
	log logze.Logger
	api interfaces.AgentAPI
}

// New creates a new agent for the configured backend
func New(ctx context.Context, cfg Config) (*Agent, error) {
	if err := cfg.PrepareAndValidate(); err != nil {
		return nil, errm.Wrap(err, "validate config")
	}

	agent := &Agent{
		cfg: cfg,
		log: logze.With("component", "agent", "type", string(cfg.Type)),
	}

	modelCfg := model.ModelConfig{
		APIKey:   cfg.APIKey,
		Model:    cfg.Model,
		URL:      cfg.BaseURL,
		ProxyURL: cfg.ProxyURL,
		IsTest:   cfg.IsTest,
	}

	var err error
	switch cfg.Type {
	case Gemini:
		agent.api, err = gemini.New(ctx, modelCfg)
	case OpenAI:
		cli, cliErr := cliex.NewWithConfig(cliex.Config{
			BaseURL:        cfg.BaseURL,
			UserAgent:      cfg.UserAgent,
			ProxyAddress:   cfg.ProxyURL,
			RequestTimeout: cfg.Timeout,
		})
		if cliErr != nil {
			return nil, errm.Wrap(cliErr, "failed to create HTTP client")
		}
		agent.api, err = openai.New(ctx, cli, modelCfg)
	default:
		return nil, errm.Errorf("unsupported agent type: %s", cfg.Type)
	}
	if err != nil {
		return nil, errm.Wrap(err, "failed to create agent")
	}

	return agent, nil
}

// GenerateReview sends one review prompt and returns the raw model text
func (a *Agent) GenerateReview(ctx context.Context, prompt string) (string, error) {
	return a.callWithRetry(ctx, model.APIRequest{
		Prompt:       prompt,
		MaxTokens:    a.cfg.MaxTokens,
		Temperature:  a.cfg.Temperature,
		ResponseType: "application/json",
	})
}

// callWithRetry retries the API call on rate-limit errors with exponential
// backoff. Other errors are returned immediately.
func (a *Agent) callWithRetry(ctx context.Context, req model.APIRequest) (string, error) {
	delay := a.cfg.RetryDelay

	var lastErr error
	for attempt := 1; attempt <= a.cfg.MaxRetries; attempt++ {
		response, err := a.api.CallAPI(ctx, req)
		if err == nil {
			if response.Content == "" {
				return "", errm.New("empty response from API")
			}
			return response.Content, nil
		}
		if !errm.Is(err, model.ErrRateLimited) {
			return "", errm.Wrap(err, "failed to call API")
		}

		lastErr = err
		if attempt == a.cfg.MaxRetries {
			break
		}
		a.log.Warn("model API rate limited, backing off",
			"attempt", attempt, "max_attempts", a.cfg.MaxRetries, "delay", delay)

		select {
		case <-ctx.Done():
			return "", errm.Wrap(ctx.Err(), "context cancelled during backoff")
		case <-time.After(delay):
		}
		delay *= 2
	}

	return "", errm.Wrap(lastErr, "rate limited after all retry attempts")
}
