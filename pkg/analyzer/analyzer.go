// Package analyzer is the first stage: it decides whether the requirements
// can be delivered from the inventory and tools at hand.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mediaagent/pkg/contract"
	"mediaagent/pkg/logx"
	"mediaagent/pkg/proto"
	"mediaagent/pkg/templates"
)

// ErrEmptyRequirements means there is nothing to analyse.
var ErrEmptyRequirements = errors.New("requirements document is empty")

// Analyzer produces a FeasibilityVerdict.
type Analyzer struct {
	caller   *contract.Caller
	renderer *templates.Renderer
	host     proto.HostFacts
	logger   *logx.Logger
}

// New creates an analyzer.
func New(caller *contract.Caller, renderer *templates.Renderer, host proto.HostFacts) *Analyzer {
	return &Analyzer{
		caller:   caller,
		renderer: renderer,
		host:     host,
		logger:   logx.NewLogger("analyzer"),
	}
}

// Analyze asks the model for a verdict grounded in req and inv.
func (a *Analyzer) Analyze(ctx context.Context, req proto.RequirementsDocument, inv proto.FileInventory) (proto.FeasibilityVerdict, error) {
	if strings.TrimSpace(string(req)) == "" {
		return proto.FeasibilityVerdict{}, ErrEmptyRequirements
	}

	system, err := a.renderer.Render(templates.AnalyzerSystemTemplate, nil)
	if err != nil {
		return proto.FeasibilityVerdict{}, err
	}
	prompt, err := a.renderer.Render(templates.AnalyzerTemplate, &templates.TemplateData{
		Requirements: string(req),
		Inventory:    inv.Render(),
		Host:         a.host.Render(),
	})
	if err != nil {
		return proto.FeasibilityVerdict{}, err
	}

	verdict, err := contract.Invoke[proto.FeasibilityVerdict](ctx, a.caller, contract.RoleAnalyzer, contract.Request{
		Instructions: system,
		Prompt:       prompt,
	})
	if err != nil {
		return proto.FeasibilityVerdict{}, fmt.Errorf("feasibility analysis: %w", err)
	}

	if verdict.IsFeasible {
		a.logger.Info("requirements are feasible: %s", verdict.Rationale)
	} else {
		a.logger.Warn("requirements are not feasible: %s", strings.Join(verdict.BlockingIssues, "; "))
	}
	return verdict, nil
}
