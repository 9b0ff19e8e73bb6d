// Package preflight validates, before a run starts, that the configured
// provider is usable, the assets folder exists and the media tools are
// installed.
package preflight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mediaagent/pkg/config"
)

// Check names a preflight check.
type Check string

// Check names.
const (
	CheckCredentials Check = "credentials"
	CheckOllama      Check = "ollama"
	CheckAssets      Check = "assets"
	CheckTools       Check = "tools"
)

// CheckResult represents the outcome of a single preflight check.
type CheckResult struct {
	Error   error
	Message string
	Check   Check
	Passed  bool

	// Advisory checks are reported but never fail the run. Missing tools are
	// advisory: the planner is told about them and may work around them.
	Advisory bool
}

// Results contains all preflight check results.
type Results struct {
	Summary string
	Checks  []CheckResult
	Passed  bool
}

// RequiredChecks determines which checks apply to cfg.
func RequiredChecks(cfg *config.Config) []Check {
	checks := []Check{CheckAssets, CheckTools}
	if cfg.Provider == config.ProviderOllama {
		return append(checks, CheckOllama)
	}
	return append(checks, CheckCredentials)
}

// Run executes all preflight checks for cfg against assetsDir.
func Run(ctx context.Context, cfg *config.Config, assetsDir string) *Results {
	required := RequiredChecks(cfg)
	results := &Results{
		Checks: make([]CheckResult, 0, len(required)),
		Passed: true,
	}

	failed := 0
	for _, check := range required {
		result := runCheck(ctx, check, cfg, assetsDir)
		results.Checks = append(results.Checks, result)
		if !result.Passed && !result.Advisory {
			results.Passed = false
			failed++
		}
	}

	if results.Passed {
		results.Summary = fmt.Sprintf("All %d preflight checks passed", len(results.Checks))
	} else {
		results.Summary = fmt.Sprintf("%d of %d preflight checks failed", failed, len(results.Checks))
	}
	return results
}

func runCheck(ctx context.Context, check Check, cfg *config.Config, assetsDir string) CheckResult {
	switch check {
	case CheckCredentials:
		return checkCredentials(cfg)
	case CheckOllama:
		return checkOllama(ctx, cfg)
	case CheckAssets:
		return checkAssets(assetsDir, cfg.ScratchDir)
	case CheckTools:
		return checkTools(cfg.Tools)
	default:
		return CheckResult{Check: check, Message: "Unknown check", Error: fmt.Errorf("unknown check: %s", check)}
	}
}

// Validate runs preflight checks and returns an error if any required
// check fails.
func Validate(ctx context.Context, cfg *config.Config, assetsDir string) error {
	results := Run(ctx, cfg, assetsDir)
	if results.Passed {
		return nil
	}

	var failedChecks []string
	for i := range results.Checks {
		if !results.Checks[i].Passed && !results.Checks[i].Advisory {
			failedChecks = append(failedChecks, FormatCheckError(&results.Checks[i]))
		}
	}
	return errors.New(strings.TrimRight(strings.Join(failedChecks, ""), "\n"))
}
