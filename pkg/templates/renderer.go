// Package templates renders the stage prompts from embedded templates.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed *.tpl.md
var templateFS embed.FS

// TemplateData holds the data for template rendering.
type TemplateData struct {
	Requirements string `json:"requirements"`
	Inventory    string `json:"inventory"`
	Host         string `json:"host,omitempty"`
	ScratchDir   string `json:"scratch_dir,omitempty"`
	Feasibility  string `json:"feasibility,omitempty"`
	PriorVerdict string `json:"prior_verdict,omitempty"`
	PreviousPlan string `json:"previous_plan,omitempty"`
	Results      string `json:"results,omitempty"`
	Attempt      int    `json:"attempt,omitempty"`
	MaxAttempts  int    `json:"max_attempts,omitempty"`
	RepeatNote   bool   `json:"repeat_note,omitempty"`
}

// StateTemplate names one embedded template.
type StateTemplate string

const (
	// AnalyzerSystemTemplate is the analyzer's standing instructions.
	AnalyzerSystemTemplate StateTemplate = "analyzer_system.tpl.md"
	// AnalyzerTemplate carries requirements, inventory and host facts.
	AnalyzerTemplate StateTemplate = "analyzer.tpl.md"
	// PlannerSystemTemplate is the planner's standing instructions.
	PlannerSystemTemplate StateTemplate = "planner_system.tpl.md"
	// PlannerTemplate carries the analysis and any failure context from the previous attempt.
	PlannerTemplate StateTemplate = "planner.tpl.md"
	// QCSystemTemplate is the verifier's standing instructions.
	QCSystemTemplate StateTemplate = "qc_system.tpl.md"
	// QCTemplate carries execution results and the post-execution inventory.
	QCTemplate StateTemplate = "qc.tpl.md"
)

// Renderer handles template rendering for the stages.
type Renderer struct {
	templates map[StateTemplate]*template.Template
}

// NewRenderer creates a new template renderer.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{
		templates: make(map[StateTemplate]*template.Template),
	}

	templateNames := []StateTemplate{
		AnalyzerSystemTemplate,
		AnalyzerTemplate,
		PlannerSystemTemplate,
		PlannerTemplate,
		QCSystemTemplate,
		QCTemplate,
	}

	for _, name := range templateNames {
		content, err := templateFS.ReadFile(string(name))
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", name, err)
		}

		tmpl, err := template.New(string(name)).Option("missingkey=error").Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}

	return r, nil
}

// MustRenderer returns a renderer or panics; the templates are embedded, so
// a failure is a build defect.
func MustRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

// Render renders the specified template with the given data.
func (r *Renderer) Render(templateName StateTemplate, data *TemplateData) (string, error) {
	tmpl, exists := r.templates[templateName]
	if !exists {
		return "", fmt.Errorf("template %s not found", templateName)
	}
	if data == nil {
		data = &TemplateData{}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", templateName, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
