package preflight

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"mediaagent/pkg/config"
	"mediaagent/pkg/exec"
)

const ollamaTimeout = 5 * time.Second

func checkCredentials(cfg *config.Config) CheckResult {
	result := CheckResult{Check: CheckCredentials}
	if strings.TrimSpace(cfg.APIKey) == "" {
		result.Message = fmt.Sprintf("No API key configured for %s", cfg.Provider)
		result.Error = fmt.Errorf("missing API key for %s", cfg.Provider)
		return result
	}
	result.Passed = true
	result.Message = fmt.Sprintf("API key for %s is set", cfg.Provider)
	return result
}

// checkOllama verifies the Ollama server answers a heartbeat.
func checkOllama(ctx context.Context, cfg *config.Config) CheckResult {
	result := CheckResult{Check: CheckOllama}

	base, err := url.Parse(cfg.OllamaHost)
	if err == nil && base.Host == "" {
		err = fmt.Errorf("no host in %q", cfg.OllamaHost)
	}
	if err != nil {
		result.Message = fmt.Sprintf("Invalid Ollama host %q", cfg.OllamaHost)
		result.Error = err
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, ollamaTimeout)
	defer cancel()
	client := api.NewClient(base, &http.Client{Timeout: ollamaTimeout})
	if err := client.Heartbeat(ctx); err != nil {
		result.Message = fmt.Sprintf("Cannot reach Ollama at %s", cfg.OllamaHost)
		result.Error = err
		return result
	}

	result.Passed = true
	result.Message = fmt.Sprintf("Ollama is running at %s", cfg.OllamaHost)
	return result
}

func checkAssets(assetsDir, scratchDir string) CheckResult {
	result := CheckResult{Check: CheckAssets}

	info, err := os.Stat(assetsDir)
	if err != nil || !info.IsDir() {
		result.Message = fmt.Sprintf("Assets directory %s does not exist", assetsDir)
		result.Error = fmt.Errorf("assets directory %s: not a directory", assetsDir)
		if err != nil {
			result.Error = err
		}
		return result
	}

	result.Passed = true
	result.Message = fmt.Sprintf("Assets in %s, outputs in %s", assetsDir, filepath.Join(assetsDir, scratchDir))
	return result
}

func checkTools(tools []string) CheckResult {
	result := CheckResult{Check: CheckTools, Advisory: true}

	found, missing := exec.LookupTools(tools)
	if len(missing) > 0 {
		result.Message = fmt.Sprintf("Not installed: %s", strings.Join(missing, ", "))
		result.Error = fmt.Errorf("missing tools: %v", missing)
		return result
	}

	result.Passed = true
	result.Message = fmt.Sprintf("Found %s", strings.Join(found, ", "))
	return result
}
