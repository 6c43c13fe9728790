package engine

import "fmt"

// ValidationError indicates malformed input to an administrative or
// session call: an empty name, a nil rule set, an unregistered URI. It is
// surfaced synchronously to the caller and never retried internally.
type ValidationError struct {
	// Op is the operation that rejected the input.
	Op string

	// Message describes what was invalid.
	Message string
}

// Error returns the error message.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// SessionClosedError indicates an operation was attempted on a closed
// session. The caller must create a new session.
type SessionClosedError struct {
	// Op is the operation that was attempted.
	Op string

	// SessionID identifies the closed session.
	SessionID string
}

// Error returns the error message.
func (e *SessionClosedError) Error() string {
	return fmt.Sprintf("%s: session %s is closed", e.Op, e.SessionID)
}
