package proto

import (
	"fmt"
	"strings"
)

// HostFacts describes the machine the plan will run on.
type HostFacts struct {
	OS           string   `json:"os"`
	Shell        string   `json:"shell"`
	Tools        []string `json:"tools"`
	MissingTools []string `json:"missing_tools,omitempty"`
	AssetsDir    string   `json:"assets_dir"`
	ScratchDir   string   `json:"scratch_dir"`
}

// Render formats the facts for prompts.
func (h *HostFacts) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "OPERATING SYSTEM: %s (commands run with %s)\n", h.OS, h.Shell)
	if len(h.Tools) > 0 {
		fmt.Fprintf(&b, "AVAILABLE TOOLS: %s\n", strings.Join(h.Tools, ", "))
	} else {
		b.WriteString("AVAILABLE TOOLS: none detected\n")
	}
	if len(h.MissingTools) > 0 {
		fmt.Fprintf(&b, "NOT INSTALLED: %s\n", strings.Join(h.MissingTools, ", "))
	}
	fmt.Fprintf(&b, "WORKING FOLDER: %s (every command runs from here)\n", h.AssetsDir)
	fmt.Fprintf(&b, "SCRATCH FOLDER: %s (relative to the working folder)\n", h.ScratchDir)
	return b.String()
}
