// Package qc is the fourth stage: it judges an attempt against the
// requirements using the execution results and the post-execution inventory.
package qc

import (
	"context"
	"fmt"
	"strings"

	"mediaagent/pkg/contract"
	"mediaagent/pkg/logx"
	"mediaagent/pkg/proto"
	"mediaagent/pkg/templates"
	"mediaagent/pkg/utils"
)

// maxOutputTokens bounds each step's stdout/stderr in the prompt.
const maxOutputTokens = 512

// Input is everything the verifier sees for one attempt.
type Input struct {
	Requirements proto.RequirementsDocument
	Results      []proto.ExecutionResult
	Inventory    proto.FileInventory
	ScratchDir   string
	Attempt      int
	MaxAttempts  int
}

// Verifier produces a QCVerdict.
type Verifier struct {
	caller   *contract.Caller
	renderer *templates.Renderer
	counter  *utils.TokenCounter
	logger   *logx.Logger
}

// New creates a verifier. A nil counter falls back to a character estimate
// when trimming command output.
func New(caller *contract.Caller, renderer *templates.Renderer, counter *utils.TokenCounter) *Verifier {
	return &Verifier{
		caller:   caller,
		renderer: renderer,
		counter:  counter,
		logger:   logx.NewLogger("qc"),
	}
}

// Verify asks the model for a verdict. A "passed" verdict is downgraded when
// any step did not succeed, with one discrepancy per such step.
func (v *Verifier) Verify(ctx context.Context, in *Input) (proto.QCVerdict, error) {
	system, err := v.renderer.Render(templates.QCSystemTemplate, nil)
	if err != nil {
		return proto.QCVerdict{}, err
	}
	prompt, err := v.renderer.Render(templates.QCTemplate, &templates.TemplateData{
		Requirements: string(in.Requirements),
		Results:      RenderResults(in.Results, v.counter),
		Inventory:    in.Inventory.Render(),
		ScratchDir:   in.ScratchDir,
		Attempt:      in.Attempt,
		MaxAttempts:  in.MaxAttempts,
	})
	if err != nil {
		return proto.QCVerdict{}, err
	}

	verdict, err := contract.Invoke[proto.QCVerdict](ctx, v.caller, contract.RoleVerifier, contract.Request{
		Instructions: system,
		Prompt:       prompt,
	})
	if err != nil {
		return proto.QCVerdict{}, fmt.Errorf("quality check: %w", err)
	}

	verdict = Enforce(verdict, in.Results)
	if verdict.Passed {
		v.logger.Info("attempt %d passed quality check", in.Attempt)
	} else {
		v.logger.Warn("attempt %d failed quality check with %d discrepancies", in.Attempt, len(verdict.Discrepancies))
	}
	return verdict, nil
}

// Enforce applies the rule that partial success never passes.
func Enforce(verdict proto.QCVerdict, results []proto.ExecutionResult) proto.QCVerdict {
	if !verdict.Passed || proto.AllSucceeded(results) {
		return verdict
	}

	verdict.Passed = false
	for i := range results {
		r := &results[i]
		switch r.Status() {
		case proto.StepSkipped:
			verdict.Discrepancies = append(verdict.Discrepancies,
				fmt.Sprintf("step %d was skipped because a step it depends on failed: %s", i+1, r.Step.Description))
		case proto.StepFailed:
			verdict.Discrepancies = append(verdict.Discrepancies,
				fmt.Sprintf("step %d failed with exit code %d: %s", i+1, r.ExitCode, r.Step.Description))
		}
	}
	if verdict.SuggestedFix == "" {
		verdict.SuggestedFix = "fix the failing commands listed in the discrepancies"
	}
	return verdict
}

// RenderResults formats results for the prompt, tail-truncating output.
func RenderResults(results []proto.ExecutionResult, counter *utils.TokenCounter) string {
	if len(results) == 0 {
		return "(no steps were run)\n"
	}
	var b strings.Builder
	for i := range results {
		r := &results[i]
		fmt.Fprintf(&b, "Step %d [%s", i+1, r.Status())
		if !r.Skipped {
			fmt.Fprintf(&b, ", exit %d", r.ExitCode)
		}
		if r.TimedOut {
			b.WriteString(", timed out")
		}
		fmt.Fprintf(&b, "]: %s\n  $ %s\n", r.Step.Description, r.Step.Command)
		if r.Step.ExpectedEffect != "" {
			fmt.Fprintf(&b, "  expected: %s\n", r.Step.ExpectedEffect)
		}
		if out := tail(r.Stdout, counter); out != "" {
			fmt.Fprintf(&b, "  stdout: %s\n", out)
		}
		if errOut := tail(r.Stderr, counter); errOut != "" {
			fmt.Fprintf(&b, "  stderr: %s\n", errOut)
		}
	}
	return b.String()
}

func tail(s string, counter *utils.TokenCounter) string {
	s = counter.TruncateToTokenLimit(strings.TrimSpace(s), maxOutputTokens)
	return strings.ReplaceAll(s, "\n", "\n    ")
}
