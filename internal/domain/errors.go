package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput matches every *InputError via errors.Is.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoFeasibleTour matches every *SolverFailure via errors.Is.
	ErrNoFeasibleTour = errors.New("no feasible tour")
)

// InputError rejects a planning request before any clustering or splitting runs.
type InputError struct {
	Field  string
	Reason string
}

func NewInputError(field, reason string) *InputError {
	return &InputError{Field: field, Reason: reason}
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input error: %s: %s", e.Field, e.Reason)
}

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

// SolverFailure reports that no feasible tour exists for a single trip.
// It is local to that trip and never aborts the surrounding plan.
type SolverFailure struct {
	Reason string
}

func (e *SolverFailure) Error() string {
	return "solver failure: " + e.Reason
}

func (e *SolverFailure) Is(target error) bool { return target == ErrNoFeasibleTour }
