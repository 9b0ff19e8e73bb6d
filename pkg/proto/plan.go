package proto

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// CommandStep is one shell command in a plan.
type CommandStep struct {
	Description    string `json:"description" jsonschema:"what this step does"`
	Command        string `json:"command" jsonschema:"a complete, self-contained shell command run from the assets directory"`
	ExpectedEffect string `json:"expected_effect" jsonschema:"the file state this step should leave behind"`
	DependsOn      []int  `json:"depends_on,omitempty" jsonschema:"1-based numbers of earlier steps whose output this step needs"`
}

// Plan is an ordered list of steps. Order is execution order.
type Plan struct {
	Steps    []CommandStep `json:"steps" jsonschema:"the steps in execution order"`
	Question string        `json:"question_to_user,omitempty" jsonschema:"a question for the operator when the brief leaves a choice open; still give your best plan"`
}

// QuestionToUser implements contract.Clarifier.
func (p *Plan) QuestionToUser() string {
	return p.Question
}

// Validate checks that the plan is runnable and dependencies point backwards.
func (p *Plan) Validate() error {
	if len(p.Steps) == 0 {
		return errors.New("plan must contain at least one step")
	}
	for i := range p.Steps {
		step := &p.Steps[i]
		if strings.TrimSpace(step.Command) == "" {
			return fmt.Errorf("step %d has an empty command", i+1)
		}
		for _, dep := range step.DependsOn {
			if dep < 1 || dep > i {
				return fmt.Errorf("step %d depends on step %d, which is not an earlier step", i+1, dep)
			}
		}
	}
	return nil
}

// Equal reports whether two plans contain the same commands in the same order.
func (p *Plan) Equal(other *Plan) bool {
	if p == nil || other == nil {
		return p == other
	}
	if len(p.Steps) != len(other.Steps) {
		return false
	}
	for i := range p.Steps {
		if strings.TrimSpace(p.Steps[i].Command) != strings.TrimSpace(other.Steps[i].Command) {
			return false
		}
	}
	return true
}

// Render formats the plan as a numbered list.
func (p *Plan) Render() string {
	var b strings.Builder
	for i := range p.Steps {
		s := &p.Steps[i]
		fmt.Fprintf(&b, "%d. %s\n   $ %s\n", i+1, s.Description, s.Command)
	}
	return b.String()
}

// StepStatus is the outcome of one step.
type StepStatus string

const (
	StepSucceeded StepStatus = "succeeded"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// ExecutionResult is what happened when a step ran, or why it did not.
type ExecutionResult struct {
	Step      CommandStep   `json:"step"`
	ExitCode  int           `json:"exit_code"`
	Stdout    string        `json:"stdout"`
	Stderr    string        `json:"stderr"`
	Succeeded bool          `json:"succeeded"`
	Skipped   bool          `json:"skipped,omitempty"`
	TimedOut  bool          `json:"timed_out,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
}

// Status classifies the result.
func (r *ExecutionResult) Status() StepStatus {
	switch {
	case r.Skipped:
		return StepSkipped
	case r.Succeeded:
		return StepSucceeded
	default:
		return StepFailed
	}
}

// AllSucceeded reports whether every result succeeded.
func AllSucceeded(results []ExecutionResult) bool {
	for i := range results {
		if !results[i].Succeeded {
			return false
		}
	}
	return true
}
