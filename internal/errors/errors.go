// Package errors provides domain-specific error types and sentinel errors
// for the recommendation engine and its chat surface.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for engine outcomes.
// Use errors.Is() to check these errors in your code.
var (
	// ErrRetrievalFailure indicates the embedding collaborator failed or
	// timed out; the current recommend/answer call is aborted and retryable.
	ErrRetrievalFailure = errors.New("retrieval failure")

	// ErrNoMatch indicates a well-formed query produced zero eligible
	// candidates. Not a failure; callers render an explicit empty result.
	ErrNoMatch = errors.New("no matching program")

	// ErrUnresolvedReference indicates a follow-up ("그건 …", "2번") could
	// not be mapped to any prior conversation context.
	ErrUnresolvedReference = errors.New("unresolved reference")

	// ErrUnknownProgram indicates a field question named no identifiable program.
	ErrUnknownProgram = errors.New("program not identified")

	// ErrUserNotFound indicates no stored profile exists for the user ID.
	ErrUserNotFound = errors.New("user profile not found")

	// ErrInvalidInput indicates the caller provided invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTimeout indicates a collaborator call exceeded its deadline.
	ErrTimeout = errors.New("operation timed out")
)

// CollaboratorError wraps a failure from an external embedding or
// generation provider with enough context to log and retry.
type CollaboratorError struct {
	Provider  string // "openai" or "gemini"
	Operation string // "embed" or "generate"
	Err       error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Provider, e.Operation, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// NewCollaboratorError creates a new collaborator error.
func NewCollaboratorError(provider, operation string, err error) *CollaboratorError {
	return &CollaboratorError{
		Provider:  provider,
		Operation: operation,
		Err:       err,
	}
}

// BlockWarning records a busy-timetable entry that had an unrecognized
// shape. It is logged and skipped, never propagated as a failure.
type BlockWarning struct {
	Index  int
	Reason string
}

func (w BlockWarning) String() string {
	return fmt.Sprintf("busy block %d skipped: %s", w.Index, w.Reason)
}
