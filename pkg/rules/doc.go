// Package rules defines the immutable rule model: a Rule pairs a named
// condition predicate with an action transform and a priority, and a
// RuleSet is a priority-ordered collection of rules plus a property bag.
//
// RuleSets are constructed once and never mutated; "updating" a rule set
// means building a new one and re-registering it under the same name.
// That immutability is what lets sessions share RuleSet snapshots across
// goroutines without locking.
package rules
