package model

import "errors"

var (
	// ErrInvalidPosition is returned by providers when the host rejects an
	// inline comment position. Callers retry the comment as a general one.
	ErrInvalidPosition = errors.New("invalid comment position")

	// ErrRateLimited signals a provider or model rate-limit response.
	// The agent backs off and retries on it.
	ErrRateLimited = errors.New("rate limit exceeded")
)
