package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediaagent/pkg/agent/resilience"
	"mediaagent/pkg/config"
)

func TestNewLLMClientPerProvider(t *testing.T) {
	tests := []struct {
		provider string
		model    string
	}{
		{config.ProviderGoogle, config.ModelGeminiFlash},
		{config.ProviderAnthropic, config.ModelClaudeSonnet},
		{config.ProviderOpenAI, config.ModelOpenAIGPT},
		{config.ProviderOllama, config.ModelOllamaLlama},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := config.Default()
			cfg.Provider = tt.provider
			cfg.Model = tt.model
			cfg.APIKey = "test-key"

			client, err := NewLLMClient(cfg)
			require.NoError(t, err)
			assert.IsType(t, &resilience.RetryableClient{}, client)
			assert.Equal(t, tt.model, client.GetModelName())
		})
	}
}

func TestNewLLMClientErrors(t *testing.T) {
	cfg := config.Default()
	cfg.APIKey = ""
	_, err := NewLLMClient(cfg)
	assert.ErrorContains(t, err, "no API key")

	cfg.Provider = "palm"
	cfg.APIKey = "k"
	_, err = NewLLMClient(cfg)
	assert.ErrorContains(t, err, "unsupported provider")
}
