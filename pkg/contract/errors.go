package contract

import (
	"errors"
	"fmt"
)

var (
	// ErrContractExhausted means every repair attempt produced an unusable reply.
	ErrContractExhausted = errors.New("output contract not satisfied")

	// ErrPromptTooLarge means the prompt exceeds the configured token budget.
	ErrPromptTooLarge = errors.New("prompt exceeds token budget")
)

// Validation phases.
const (
	PhaseParse    = "parse"
	PhaseSchema   = "schema"
	PhaseSemantic = "semantic"
)

// ValidationError reports a reply that does not conform to the declared shape.
type ValidationError struct {
	Role  Role
	Phase string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s reply failed %s validation: %v", e.Role, e.Phase, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// TransportError reports a failed round trip. Transport retries have
// already been spent by the time it is returned.
type TransportError struct {
	Role Role
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s model call failed: %v", e.Role, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
