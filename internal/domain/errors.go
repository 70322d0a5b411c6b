package domain

import "errors"

// Sentinel errors shared by the engine. Stores and services wrap these with
// context; handlers map them to HTTP status codes with errors.Is.
var (
	// ErrInvalidArgument marks malformed or out-of-domain input, e.g. an
	// unknown violation kind or a non-4-digit PIN.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound marks a referenced child, gig, room, or submission that
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a state-machine guard violation: double claim,
	// second open timeout, approving an already-decided claim.
	ErrConflict = errors.New("conflict")

	// ErrForbidden marks an ownership or role mismatch.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidState marks a transition that is not legal from the current
	// state, e.g. escalating a terminal submission.
	ErrInvalidState = errors.New("invalid state")

	// ErrUnavailable marks a failed call to an external collaborator. The
	// operation left no state change and may be retried.
	ErrUnavailable = errors.New("unavailable")
)
