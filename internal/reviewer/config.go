package reviewer

import (
	"time"

	"github.com/maxbolgarin/lang"
)

const (
	defaultPoolSize     = 10
	defaultModelTimeout = 3 * time.Minute
	defaultMaxDiffBytes = 200_000
)

// Config configures the review flow
type Config struct {
	// MaxContentLines bounds full-content embedding per file
	MaxContentLines int `yaml:"max_content_lines" env:"REVIEW_MAX_CONTENT_LINES"`
	// MinDescriptionLength drops feedback items too short to act on
	MinDescriptionLength int `yaml:"min_description_length" env:"REVIEW_MIN_DESCRIPTION_LENGTH"`
	// MaxDiffBytes skips review of merge requests with huge diffs
	MaxDiffBytes int `yaml:"max_diff_bytes" env:"REVIEW_MAX_DIFF_BYTES"`
	// ModelTimeout bounds the model-invocation step only
	ModelTimeout time.Duration `yaml:"model_timeout" env:"REVIEW_MODEL_TIMEOUT"`

	// ResponseFormat selects the response parsing pipeline: json or markdown
	ResponseFormat ResponseFormat `yaml:"response_format" env:"REVIEW_RESPONSE_FORMAT"`

	// CustomPrompts maps project names to per-project prompt overrides
	CustomPrompts map[string]ProjectPrompt `yaml:"custom_prompts"`

	Verbose bool `yaml:"verbose" env:"REVIEW_VERBOSE"`
}

func (c *Config) PrepareAndValidate() error {
	c.MaxContentLines = lang.Check(c.MaxContentLines, defaultMaxContentLines)
	c.MinDescriptionLength = lang.Check(c.MinDescriptionLength, defaultMinDescriptionLength)
	c.MaxDiffBytes = lang.Check(c.MaxDiffBytes, defaultMaxDiffBytes)
	c.ModelTimeout = lang.Check(c.ModelTimeout, defaultModelTimeout)
	c.ResponseFormat = lang.Check(c.ResponseFormat, FormatJSON)
	return nil
}
