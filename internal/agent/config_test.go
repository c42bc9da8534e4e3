package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigPrepareAndValidate(t *testing.T) {
	cfg := Config{Type: Gemini, APIKey: "key"}

	require.NoError(t, cfg.PrepareAndValidate())

	assert.Equal(t, float32(0.2), cfg.Temperature)
	assert.Equal(t, 10000, cfg.MaxTokens)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.RetryDelay)
	assert.NotEmpty(t, cfg.UserAgent)
}

func TestConfigPrepareAndValidateKeepsExplicitValues(t *testing.T) {
	cfg := Config{
		Type:        OpenAI,
		APIKey:      "key",
		Temperature: 0.7,
		MaxTokens:   500,
		MaxRetries:  2,
	}

	require.NoError(t, cfg.PrepareAndValidate())

	assert.Equal(t, float32(0.7), cfg.Temperature)
	assert.Equal(t, 500, cfg.MaxTokens)
	assert.Equal(t, 2, cfg.MaxRetries)
}

func TestConfigPrepareAndValidateErrors(t *testing.T) {
	missingKey := Config{Type: Gemini}
	assert.Error(t, missingKey.PrepareAndValidate())

	badType := Config{Type: "unknown", APIKey: "key"}
	assert.Error(t, badType.PrepareAndValidate())

	noType := Config{APIKey: "key"}
	assert.Error(t, noType.PrepareAndValidate())
}
