package preflight

import (
	"fmt"
	"strings"
)

// FormatCheckError formats a failed check result with actionable guidance.
func FormatCheckError(check *CheckResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "  %s: %s\n", check.Check, check.Message)
	fmt.Fprintf(&sb, "    %s\n", getGuidance(check.Check))
	return sb.String()
}

// FormatResults formats all preflight results for display.
func FormatResults(results *Results) string {
	var sb strings.Builder
	if results.Passed {
		sb.WriteString("Preflight checks passed\n")
	} else {
		sb.WriteString("Preflight checks failed\n")
	}
	for i := range results.Checks {
		c := &results.Checks[i]
		switch {
		case c.Passed:
			fmt.Fprintf(&sb, "  [PASS] %s: %s\n", c.Check, c.Message)
		case c.Advisory:
			fmt.Fprintf(&sb, "  [WARN] %s: %s\n", c.Check, c.Message)
		default:
			sb.WriteString(FormatCheckError(c))
		}
	}
	sb.WriteString(results.Summary)
	sb.WriteString("\n")
	return sb.String()
}

func getGuidance(check Check) string {
	switch check {
	case CheckCredentials:
		return "Set GEMINI_API_KEY, ANTHROPIC_API_KEY or OPENAI_API_KEY in the environment or in .env"
	case CheckOllama:
		return "Start Ollama with 'ollama serve' or set ollama_host in the config"
	case CheckAssets:
		return "Pass the folder holding the input files with -assets"
	case CheckTools:
		return "Install ffmpeg (includes ffprobe) and make sure it is on PATH"
	default:
		return "Check the configuration"
	}
}
