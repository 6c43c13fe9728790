package rules

import (
	"fmt"
	"sort"
)

// ExecutionStrategy controls whether rule scanning stops at the first
// matching rule per fact.
type ExecutionStrategy string

const (
	// AllMatches evaluates every rule against every fact (default).
	AllMatches ExecutionStrategy = "ALL_MATCHES"

	// FirstMatch stops at the highest-priority matching rule per fact.
	FirstMatch ExecutionStrategy = "FIRST_MATCH"
)

// StrategyProperty is the RuleSet property key holding the execution
// strategy.
const StrategyProperty = "execution_strategy"

// RuleSet is an immutable, priority-ordered collection of rules. Rules are
// stored sorted by priority descending; equal priorities keep their input
// order (stable sort), which is part of the result-ordering contract.
type RuleSet struct {
	name       string
	rules      []Rule
	properties map[string]any
	strategy   ExecutionStrategy
}

// NewRuleSet builds a RuleSet from the given rules and properties. The
// input slice is copied and sorted; callers keep ownership of their slice.
//
// It fails when the name is empty, any rule is malformed, or the
// execution_strategy property holds an unknown value.
func NewRuleSet(name string, ruleList []Rule, properties map[string]any) (*RuleSet, error) {
	if name == "" {
		return nil, fmt.Errorf("rule set name cannot be empty")
	}
	for _, rule := range ruleList {
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("rule set %q: %w", name, err)
		}
	}

	strategy, err := strategyFromProperties(properties)
	if err != nil {
		return nil, fmt.Errorf("rule set %q: %w", name, err)
	}

	sorted := make([]Rule, len(ruleList))
	copy(sorted, ruleList)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	props := make(map[string]any, len(properties))
	for key, value := range properties {
		props[key] = value
	}

	return &RuleSet{
		name:       name,
		rules:      sorted,
		properties: props,
		strategy:   strategy,
	}, nil
}

// Name returns the rule set name.
func (rs *RuleSet) Name() string {
	return rs.name
}

// Rules returns the rules in priority-descending order. The returned slice
// is a copy; mutating it does not affect the rule set.
func (rs *RuleSet) Rules() []Rule {
	out := make([]Rule, len(rs.rules))
	copy(out, rs.rules)
	return out
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

// Strategy returns the execution strategy for this rule set.
func (rs *RuleSet) Strategy() ExecutionStrategy {
	return rs.strategy
}

// Description returns the description property, or "".
func (rs *RuleSet) Description() string {
	if desc, ok := rs.properties["description"].(string); ok {
		return desc
	}
	return ""
}

// Properties returns a snapshot copy of the property bag.
func (rs *RuleSet) Properties() map[string]any {
	out := make(map[string]any, len(rs.properties))
	for key, value := range rs.properties {
		out[key] = value
	}
	return out
}

// String returns a short description for logs.
func (rs *RuleSet) String() string {
	return fmt.Sprintf("RuleSet(name=%s, rules=%d, strategy=%s)", rs.name, len(rs.rules), rs.strategy)
}

func strategyFromProperties(properties map[string]any) (ExecutionStrategy, error) {
	raw, ok := properties[StrategyProperty]
	if !ok || raw == nil {
		return AllMatches, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("property %q must be a string, got %T", StrategyProperty, raw)
	}
	switch ExecutionStrategy(s) {
	case AllMatches:
		return AllMatches, nil
	case FirstMatch:
		return FirstMatch, nil
	}
	return "", fmt.Errorf("unknown execution strategy %q (want %q or %q)", s, AllMatches, FirstMatch)
}
