// Package planner is the second stage: it turns analysed requirements into
// an ordered list of shell commands, and on a replan corrects the previous
// attempt using the verifier's discrepancies.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"mediaagent/pkg/agent/llm"
	"mediaagent/pkg/contract"
	"mediaagent/pkg/logx"
	"mediaagent/pkg/proto"
	"mediaagent/pkg/templates"
)

// ErrRepeatedPlan means the model kept proposing the plan that already failed.
var ErrRepeatedPlan = errors.New("replan repeats the previous plan")

// Input is everything the planner sees for one attempt.
type Input struct {
	Requirements proto.RequirementsDocument
	Feasibility  proto.FeasibilityVerdict
	Inventory    proto.FileInventory
	Attempt      int
	MaxAttempts  int

	// Prior and Previous are set on a replan.
	Prior    *proto.QCVerdict
	Previous *proto.Plan
}

// Planner produces a Plan.
type Planner struct {
	caller   *contract.Caller
	renderer *templates.Renderer
	host     proto.HostFacts
	logger   *logx.Logger
}

// New creates a planner.
func New(caller *contract.Caller, renderer *templates.Renderer, host proto.HostFacts) *Planner {
	return &Planner{
		caller:   caller,
		renderer: renderer,
		host:     host,
		logger:   logx.NewLogger("planner"),
	}
}

// Plan asks the model for a plan. A replan identical to in.Previous is
// re-requested once with an explicit note; a second repeat returns
// ErrRepeatedPlan.
func (p *Planner) Plan(ctx context.Context, in *Input) (proto.Plan, error) {
	plan, err := p.request(ctx, in, false)
	if err != nil {
		return proto.Plan{}, err
	}

	if in.Previous != nil && plan.Equal(in.Previous) {
		p.logger.Warn("attempt %d plan repeats the previous plan, re-prompting", in.Attempt)
		plan, err = p.request(ctx, in, true)
		if err != nil {
			return proto.Plan{}, err
		}
		if plan.Equal(in.Previous) {
			return proto.Plan{}, fmt.Errorf("attempt %d: %w", in.Attempt, ErrRepeatedPlan)
		}
	}

	p.logger.Info("attempt %d plan has %d steps", in.Attempt, len(plan.Steps))
	logx.Debug(logx.WithComponent(ctx, "planner"), "planner", "plan:\n%s", plan.Render())
	return plan, nil
}

func (p *Planner) request(ctx context.Context, in *Input, repeatNote bool) (proto.Plan, error) {
	system, err := p.renderer.Render(templates.PlannerSystemTemplate, nil)
	if err != nil {
		return proto.Plan{}, err
	}

	feasibility, err := json.MarshalIndent(in.Feasibility, "", "  ")
	if err != nil {
		return proto.Plan{}, fmt.Errorf("render feasibility verdict: %w", err)
	}

	data := &templates.TemplateData{
		Requirements: string(in.Requirements),
		Inventory:    in.Inventory.Render(),
		Host:         p.host.Render(),
		Feasibility:  string(feasibility),
		Attempt:      in.Attempt,
		MaxAttempts:  in.MaxAttempts,
		RepeatNote:   repeatNote,
	}
	if in.Prior != nil {
		data.PriorVerdict = in.Prior.Render()
	}
	if in.Previous != nil {
		data.PreviousPlan = in.Previous.Render()
	}

	prompt, err := p.renderer.Render(templates.PlannerTemplate, data)
	if err != nil {
		return proto.Plan{}, err
	}

	plan, err := contract.Invoke[proto.Plan](ctx, p.caller, contract.RolePlanner, contract.Request{
		Instructions: system,
		Prompt:       prompt,
		Temperature:  llm.TemperatureDeterministic,
	})
	if err != nil {
		return proto.Plan{}, fmt.Errorf("planning: %w", err)
	}
	return plan, nil
}
