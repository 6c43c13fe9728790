package expr

import "fmt"

// SecurityError indicates an expression attempted an operation outside the
// sandbox allow-list (imports, code objects, anonymous callables, dunder
// attribute chains, and similar escapes).
//
// SecurityError is deliberately distinct from EvalError: callers treat a
// security violation as a reason to reject the whole rule document, while
// evaluation errors are isolated per rule.
type SecurityError struct {
	// Expression is the offending expression source.
	Expression string

	// Pattern is the deny-list pattern or construct that was matched.
	Pattern string

	// Message describes the violation.
	Message string
}

// Error returns the error message.
func (e *SecurityError) Error() string {
	if e.Pattern != "" {
		return fmt.Sprintf("security violation in expression %q: %s (pattern %q)", e.Expression, e.Message, e.Pattern)
	}
	return fmt.Sprintf("security violation in expression %q: %s", e.Expression, e.Message)
}

// SyntaxError indicates an expression could not be parsed for reasons other
// than a security violation.
type SyntaxError struct {
	// Expression is the expression source.
	Expression string

	// Pos is the byte offset of the error within the expression.
	Pos int

	// Message describes the parse failure.
	Message string
}

// Error returns the error message.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error in expression %q at offset %d: %s", e.Expression, e.Pos, e.Message)
}

// EvalError indicates a runtime failure while evaluating a well-formed
// expression: an undefined name, a type mismatch, division by zero, or a
// missing key. Evaluation errors are never fatal to a rule batch; the
// executor logs them and continues with the next rule.
type EvalError struct {
	// Expression is the expression source.
	Expression string

	// Message describes the failure.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error returns the error message.
func (e *EvalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("evaluation of %q failed: %s: %v", e.Expression, e.Message, e.Cause)
	}
	return fmt.Sprintf("evaluation of %q failed: %s", e.Expression, e.Message)
}

// Unwrap returns the underlying cause.
func (e *EvalError) Unwrap() error {
	return e.Cause
}
