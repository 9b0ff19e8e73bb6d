package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads configuration from a YAML file with ${VAR} substitution, then
// applies env overrides, defaults, API-key resolution and validation.
// A missing file yields the defaults. The transcript is on unless the file
// sets transcript_dir to "".
func Load(configPath string) (*Config, error) {
	cfg := Config{TranscriptDir: DefaultTranscriptDir}

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := parse(data, &cfg); err != nil {
			return nil, err
		}
	case errors.Is(err, os.ErrNotExist):
		// Defaults only.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if RequiresAPIKey(cfg.Provider) {
		key, err := APIKeyFor(cfg.Provider)
		if err != nil {
			return nil, err
		}
		cfg.APIKey = key
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func parse(data []byte, cfg *Config) error {
	expanded := envVarRegex.ReplaceAllStringFunc(string(data), func(match string) string {
		envVar := match[2 : len(match)-1]
		if value := os.Getenv(envVar); value != "" {
			return value
		}
		return match
	})

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvProvider); v != "" {
		cfg.Provider = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv(EnvModel); v != "" {
		cfg.Model = strings.TrimSpace(v)
	}
	if v := os.Getenv(EnvMaxAttempts); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvMaxAttempts, v, err)
		}
		cfg.MaxAttempts = n
	}
	return nil
}

// applyDefaults sets default values for missing configuration.
func applyDefaults(cfg *Config) {
	if cfg.Provider == "" {
		cfg.Provider = ProviderGoogle
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModelFor(cfg.Provider)
	}
	if cfg.OllamaHost == "" {
		cfg.OllamaHost = DefaultOllamaHost
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.MaxRepairs == 0 {
		cfg.MaxRepairs = DefaultMaxRepairs
	}
	if cfg.MaxClarifications == 0 {
		cfg.MaxClarifications = DefaultMaxClarifications
	}
	if cfg.CommandTimeout == 0 {
		cfg.CommandTimeout = DefaultCommandTimeout
	}
	if cfg.OutputCapBytes == 0 {
		cfg.OutputCapBytes = DefaultOutputCapBytes
	}
	if cfg.ScratchDir == "" {
		cfg.ScratchDir = DefaultScratchDir
	}
	if len(cfg.Tools) == 0 {
		cfg.Tools = []string{"ffmpeg", "ffprobe"}
	}
}

// Validate checks a fully defaulted configuration.
func Validate(cfg *Config) error {
	switch cfg.Provider {
	case ProviderGoogle, ProviderAnthropic, ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	if cfg.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", cfg.MaxAttempts)
	}
	if cfg.MaxRepairs < 0 {
		return fmt.Errorf("max_repairs must not be negative, got %d", cfg.MaxRepairs)
	}
	if cfg.MaxClarifications < 0 {
		return fmt.Errorf("max_clarifications must not be negative, got %d", cfg.MaxClarifications)
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0.0 and 2.0, got %.2f", cfg.Temperature)
	}
	if cfg.MaxTokens < 1 {
		return fmt.Errorf("max_tokens must be positive, got %d", cfg.MaxTokens)
	}
	if cfg.PromptTokenBudget < 0 {
		return fmt.Errorf("prompt_token_budget must not be negative, got %d", cfg.PromptTokenBudget)
	}
	if cfg.CommandTimeout < 0 {
		return fmt.Errorf("command_timeout must not be negative, got %s", cfg.CommandTimeout)
	}
	if strings.Contains(cfg.ScratchDir, "..") {
		return fmt.Errorf("scratch_dir %q must stay inside the assets directory", cfg.ScratchDir)
	}
	if RequiresAPIKey(cfg.Provider) && cfg.APIKey == "" {
		return fmt.Errorf("no API key for provider %s", cfg.Provider)
	}
	return nil
}
