package proto

// State is an orchestrator state.
type State string

const (
	StateAnalyzing                  State = "ANALYZING"
	StatePlanning                   State = "PLANNING"
	StateExecuting                  State = "EXECUTING"
	StateVerifying                  State = "VERIFYING"
	StateTerminatedSuccess          State = "TERMINATED_SUCCESS"
	StateTerminatedInfeasible       State = "TERMINATED_INFEASIBLE"
	StateTerminatedRetriesExhausted State = "TERMINATED_RETRIES_EXHAUSTED"
	StateTerminatedError            State = "TERMINATED_ERROR"
)

// IsTerminal reports whether no further stage runs from s.
func (s State) IsTerminal() bool {
	switch s {
	case StateTerminatedSuccess, StateTerminatedInfeasible, StateTerminatedRetriesExhausted, StateTerminatedError:
		return true
	default:
		return false
	}
}

// OutcomeKind names the category that terminated a run.
type OutcomeKind string

const (
	OutcomeSuccess          OutcomeKind = "SUCCESS"
	OutcomeInfeasible       OutcomeKind = "INFEASIBLE"
	OutcomeRetriesExhausted OutcomeKind = "RETRIES_EXHAUSTED"
	OutcomeError            OutcomeKind = "ERROR"
)

// OutcomeFor maps a terminal state to its outcome kind.
func OutcomeFor(s State) OutcomeKind {
	switch s {
	case StateTerminatedSuccess:
		return OutcomeSuccess
	case StateTerminatedInfeasible:
		return OutcomeInfeasible
	case StateTerminatedRetriesExhausted:
		return OutcomeRetriesExhausted
	default:
		return OutcomeError
	}
}
