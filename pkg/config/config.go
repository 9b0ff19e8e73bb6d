// Package config provides configuration loading, validation and API-key
// resolution for mediaagent. Configuration is loaded once by the CLI and
// passed explicitly into constructors.
package config

import (
	"time"
)

// Provider names.
const (
	ProviderGoogle    = "google"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
)

// Default models per provider.
const (
	ModelGeminiFlash  = "gemini-2.5-flash"
	ModelClaudeSonnet = "claude-sonnet-4-5"
	ModelOpenAIGPT    = "gpt-5-mini"
	ModelOllamaLlama  = "llama3.1"
)

// Defaults.
const (
	DefaultConfigFile        = "mediaagent.yaml"
	DefaultMaxAttempts       = 3
	DefaultMaxRepairs        = 2
	DefaultMaxClarifications = 3
	DefaultCommandTimeout    = 10 * time.Minute
	DefaultOutputCapBytes    = 16 * 1024
	DefaultScratchDir        = "temp"
	DefaultTranscriptDir     = "logs"
	DefaultMaxTokens         = 4096
	DefaultTemperature       = 0.3
	DefaultOllamaHost        = "http://localhost:11434"
)

// Env override names.
const (
	EnvProvider    = "MEDIAAGENT_PROVIDER"
	EnvModel       = "MEDIAAGENT_MODEL"
	EnvMaxAttempts = "MEDIAAGENT_MAX_ATTEMPTS"
)

// Config is the complete run configuration.
type Config struct {
	Provider          string        `yaml:"provider"`
	Model             string        `yaml:"model"`
	OllamaHost        string        `yaml:"ollama_host"`
	Temperature       float32       `yaml:"temperature"`
	MaxTokens         int           `yaml:"max_tokens"`
	PromptTokenBudget int           `yaml:"prompt_token_budget"` // 0 = unlimited
	MaxAttempts       int           `yaml:"max_attempts"`
	MaxRepairs        int           `yaml:"max_repairs"`
	MaxClarifications int           `yaml:"max_clarifications"`
	CommandTimeout    time.Duration `yaml:"command_timeout"`
	OutputCapBytes    int           `yaml:"output_cap_bytes"`
	ScratchDir        string        `yaml:"scratch_dir"`
	FFprobe           bool          `yaml:"ffprobe"`
	TranscriptDir     string        `yaml:"transcript_dir"` // empty disables the transcript
	MetricsAddr       string        `yaml:"metrics_addr"`
	Tools             []string      `yaml:"tools"`

	// APIKey is resolved at load time, never read from YAML.
	APIKey string `yaml:"-"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{TranscriptDir: DefaultTranscriptDir}
	applyDefaults(cfg)
	return cfg
}

// DefaultModelFor returns the default model for provider.
func DefaultModelFor(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return ModelClaudeSonnet
	case ProviderOpenAI:
		return ModelOpenAIGPT
	case ProviderOllama:
		return ModelOllamaLlama
	default:
		return ModelGeminiFlash
	}
}

// RequiresAPIKey reports whether provider needs a key.
func RequiresAPIKey(provider string) bool {
	return provider != ProviderOllama
}
