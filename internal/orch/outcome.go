package orch

import (
	"fmt"
	"strings"

	"mediaagent/pkg/proto"
)

// AttemptRecord is one Plan, Execute, Verify cycle.
type AttemptRecord struct {
	Attempt int                     `json:"attempt"`
	Plan    proto.Plan              `json:"plan"`
	Results []proto.ExecutionResult `json:"results"`
	Verdict proto.QCVerdict         `json:"verdict"`
}

// Outcome is the single terminal result of a run.
type Outcome struct {
	Kind  proto.OutcomeKind
	RunID string

	// Attempts is the number of attempts that reached planning.
	Attempts int

	Feasibility *proto.FeasibilityVerdict
	LastQC      *proto.QCVerdict

	// History holds every failed verdict in attempt order.
	History []proto.QCVerdict

	// Records holds the plan and results of every completed attempt.
	Records []AttemptRecord

	FinalInventory proto.FileInventory
	Err            error
	Transitions    []Transition
}

// Succeeded reports whether the run ended in SUCCESS.
func (o *Outcome) Succeeded() bool {
	return o.Kind == proto.OutcomeSuccess
}

// Summary names the terminating category and the most recent verdict.
func (o *Outcome) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s: %s", o.RunID, o.Kind)
	if o.Attempts > 0 {
		fmt.Fprintf(&b, " after %d attempt(s)", o.Attempts)
	}
	b.WriteString("\n")

	switch o.Kind {
	case proto.OutcomeSuccess:
		b.WriteString("final files:\n")
		b.WriteString(o.FinalInventory.Render())
	case proto.OutcomeInfeasible:
		if o.Feasibility != nil {
			fmt.Fprintf(&b, "rationale: %s\n", o.Feasibility.Rationale)
			for _, issue := range o.Feasibility.BlockingIssues {
				fmt.Fprintf(&b, "- %s\n", issue)
			}
		}
	case proto.OutcomeRetriesExhausted:
		if o.LastQC != nil {
			b.WriteString("last quality check:\n")
			b.WriteString(o.LastQC.Render())
		}
	default:
		if o.Err != nil {
			fmt.Fprintf(&b, "cause: %v\n", o.Err)
		}
		if o.LastQC != nil {
			b.WriteString("last quality check:\n")
			b.WriteString(o.LastQC.Render())
		} else if o.Feasibility != nil {
			fmt.Fprintf(&b, "feasibility: %s\n", o.Feasibility.Rationale)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
