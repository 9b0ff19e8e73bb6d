// Package orch drives one run through analysis, planning, execution and
// quality check, replanning on failed checks up to a fixed attempt ceiling.
package orch

import (
	"fmt"

	"mediaagent/pkg/proto"
)

// validTransitions defines the run state machine.
//
//nolint:gochecknoglobals // state machine definition
var validTransitions = map[proto.State][]proto.State{
	proto.StateAnalyzing: {
		proto.StatePlanning,
		proto.StateTerminatedInfeasible,
		proto.StateTerminatedError,
	},
	proto.StatePlanning: {
		proto.StateExecuting,
		proto.StateTerminatedError,
	},
	proto.StateExecuting: {
		proto.StateVerifying,
		proto.StateTerminatedError,
	},
	proto.StateVerifying: {
		proto.StateTerminatedSuccess,
		proto.StatePlanning, // replan
		proto.StateTerminatedRetriesExhausted,
		proto.StateTerminatedError,
	},
	proto.StateTerminatedSuccess:          {},
	proto.StateTerminatedInfeasible:       {},
	proto.StateTerminatedRetriesExhausted: {},
	proto.StateTerminatedError:            {},
}

// IsValidTransition checks if a state transition is allowed.
func IsValidTransition(from, to proto.State) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidNextStates returns the states reachable from a state.
func ValidNextStates(from proto.State) []proto.State {
	return validTransitions[from]
}

// Transition is one recorded state change.
type Transition struct {
	From    proto.State `json:"from"`
	To      proto.State `json:"to"`
	Attempt int         `json:"attempt"`
}

func (t Transition) String() string {
	return fmt.Sprintf("%s -> %s (attempt %d)", t.From, t.To, t.Attempt)
}
