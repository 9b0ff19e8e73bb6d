// Package agent builds the reasoning-model client used by every stage.
package agent

import (
	"fmt"

	"mediaagent/pkg/agent/internal/llmimpl/anthropic"
	"mediaagent/pkg/agent/internal/llmimpl/google"
	"mediaagent/pkg/agent/internal/llmimpl/ollama"
	"mediaagent/pkg/agent/internal/llmimpl/openaiofficial"
	"mediaagent/pkg/agent/llm"
	"mediaagent/pkg/agent/resilience"
	"mediaagent/pkg/config"
	"mediaagent/pkg/logx"
)

// NewLLMClient creates the raw provider client named by cfg and wraps it in
// the retry middleware.
func NewLLMClient(cfg *config.Config) (llm.LLMClient, error) {
	raw, err := newRawClient(cfg)
	if err != nil {
		return nil, err
	}
	logger := logx.NewLogger("llm")
	logger.Info("using %s model %s", cfg.Provider, raw.GetModelName())
	return resilience.NewRetryableClient(raw, logger.WithComponent("llm-retry")), nil
}

func newRawClient(cfg *config.Config) (llm.LLMClient, error) {
	if config.RequiresAPIKey(cfg.Provider) && cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key configured for provider %s", cfg.Provider)
	}

	switch cfg.Provider {
	case config.ProviderGoogle:
		return google.NewGeminiClientWithModel(cfg.APIKey, cfg.Model), nil
	case config.ProviderAnthropic:
		return anthropic.NewClaudeClientWithModel(cfg.APIKey, cfg.Model), nil
	case config.ProviderOpenAI:
		return openaiofficial.NewOfficialClientWithModel(cfg.APIKey, cfg.Model), nil
	case config.ProviderOllama:
		return ollama.NewOllamaClientWithModel(cfg.OllamaHost, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}
