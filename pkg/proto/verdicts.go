package proto

import (
	"errors"
	"fmt"
	"strings"
)

// FeasibilityVerdict is the Analyzer's answer to "can this be delivered from these files?".
type FeasibilityVerdict struct {
	IsFeasible     bool     `json:"is_feasible" jsonschema:"true only if every requirement can be met from the listed files and tools"`
	Rationale      string   `json:"rationale" jsonschema:"short explanation grounded in the listed files"`
	BlockingIssues []string `json:"blocking_issues" jsonschema:"one entry per issue preventing delivery; empty when feasible"`
	Question       string   `json:"question_to_user,omitempty" jsonschema:"a question for the operator when the brief is ambiguous"`
}

// Validate enforces the semantic rules the schema cannot express.
func (v *FeasibilityVerdict) Validate() error {
	if strings.TrimSpace(v.Rationale) == "" {
		return errors.New("rationale must not be empty")
	}
	if !v.IsFeasible && len(v.BlockingIssues) == 0 {
		return errors.New("an infeasible verdict must list at least one blocking issue")
	}
	return nil
}

// QuestionToUser implements contract.Clarifier.
func (v *FeasibilityVerdict) QuestionToUser() string {
	return v.Question
}

// QCVerdict is the Verifier's judgement of one attempt.
type QCVerdict struct {
	Passed        bool     `json:"passed" jsonschema:"true only if every requirement is satisfied by the files now present"`
	Discrepancies []string `json:"discrepancies" jsonschema:"one entry per unmet expectation; empty when passed"`
	SuggestedFix  string   `json:"suggested_fix,omitempty" jsonschema:"how the next plan should correct the discrepancies"`
	Question      string   `json:"question_to_user,omitempty" jsonschema:"a question for the operator when the requirements are unclear for this check; still give your verdict"`
}

// QuestionToUser implements contract.Clarifier.
func (v *QCVerdict) QuestionToUser() string {
	return v.Question
}

// Validate enforces the semantic rules the schema cannot express.
func (v *QCVerdict) Validate() error {
	if !v.Passed && len(v.Discrepancies) == 0 {
		return errors.New("a failed verdict must list at least one discrepancy")
	}
	for i, d := range v.Discrepancies {
		if strings.TrimSpace(d) == "" {
			return fmt.Errorf("discrepancy %d is empty", i+1)
		}
	}
	return nil
}

// Render formats the verdict for prompts and summaries.
func (v *QCVerdict) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "passed: %t\n", v.Passed)
	for _, d := range v.Discrepancies {
		fmt.Fprintf(&b, "- %s\n", d)
	}
	if v.SuggestedFix != "" {
		fmt.Fprintf(&b, "suggested fix: %s\n", v.SuggestedFix)
	}
	return b.String()
}
