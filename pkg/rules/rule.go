package rules

import "fmt"

// Fact is a structured input record evaluated against rule conditions.
// The engine never inspects its shape beyond what conditions and actions
// do.
type Fact = map[string]any

// Condition decides whether a rule applies to a fact. Conditions should be
// pure; a returned error is isolated per rule by the executor and never
// aborts a batch.
type Condition func(fact Fact) (bool, error)

// Action produces a rule's output for a matched fact. A nil result with a
// nil error means the rule contributes nothing for that fact.
type Action func(fact Fact) (any, error)

// Rule is a named (condition, action, priority) triple. Rules are
// immutable once constructed.
type Rule struct {
	// Name identifies the rule in logs and error reports. Must be
	// non-empty.
	Name string

	// Condition is the predicate deciding whether Action runs.
	Condition Condition

	// Action computes the rule's result for a matched fact.
	Action Action

	// Priority orders rules within a RuleSet; higher fires first.
	Priority int
}

// Validate reports whether the rule is well-formed.
func (r Rule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule name cannot be empty")
	}
	if r.Condition == nil {
		return fmt.Errorf("rule %q has no condition", r.Name)
	}
	if r.Action == nil {
		return fmt.Errorf("rule %q has no action", r.Name)
	}
	return nil
}

// String returns a short description for logs.
func (r Rule) String() string {
	return fmt.Sprintf("Rule(name=%s, priority=%d)", r.Name, r.Priority)
}
