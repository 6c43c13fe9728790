package loader

import (
	"fmt"
	"strings"
)

// RuleError records a per-rule load failure.
type RuleError struct {
	// Rule is the name of the rule that failed to load.
	Rule string

	// Err is the underlying compile error.
	Err error
}

// Error returns the error message.
func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %q: %v", e.Rule, e.Err)
}

// Unwrap returns the underlying error.
func (e *RuleError) Unwrap() error {
	return e.Err
}

// DocumentError aggregates per-rule failures from loading one document.
//
// When a load returns both a rule set and a DocumentError, the rule set
// contains the rules that compiled cleanly; the error lists the ones that
// were dropped. Callers choose whether partial rule sets are acceptable.
type DocumentError struct {
	// Document is the rule set name from the document.
	Document string

	// RuleErrors lists the rules that failed, in document order.
	RuleErrors []*RuleError
}

// Error returns the error message.
func (e *DocumentError) Error() string {
	msgs := make([]string, len(e.RuleErrors))
	for i, re := range e.RuleErrors {
		msgs[i] = re.Error()
	}
	return fmt.Sprintf("document %q: %d rule(s) failed to load: %s",
		e.Document, len(e.RuleErrors), strings.Join(msgs, "; "))
}
