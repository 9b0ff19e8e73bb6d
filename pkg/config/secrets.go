package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/subosito/gotenv"
)

// DotEnvFile is read from the working directory by LoadDotEnv.
const DotEnvFile = ".env"

// apiKeyEnvs lists the env vars checked for each provider, in order.
//
//nolint:gochecknoglobals // static lookup table
var apiKeyEnvs = map[string][]string{
	ProviderGoogle:    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	ProviderAnthropic: {"ANTHROPIC_API_KEY"},
	ProviderOpenAI:    {"OPENAI_API_KEY"},
}

// APIKeyFor returns the API key for provider from the environment.
func APIKeyFor(provider string) (string, error) {
	names, ok := apiKeyEnvs[provider]
	if !ok {
		return "", fmt.Errorf("provider %s does not use an API key", provider)
	}
	for _, name := range names {
		if value := strings.TrimSpace(os.Getenv(name)); value != "" {
			return value, nil
		}
	}
	return "", fmt.Errorf("API key for %s not found; set %s in the environment or %s", provider, strings.Join(names, " or "), DotEnvFile)
}

// LoadDotEnv sets variables from a dotenv file. Non-empty variables
// already in the environment win. A missing file is not an error.
func LoadDotEnv(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	env, err := gotenv.StrictParse(f)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for key, value := range env {
		if existing, set := os.LookupEnv(key); set && existing != "" {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}
