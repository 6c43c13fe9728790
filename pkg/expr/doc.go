// Package expr implements the sandboxed expression language used by rule
// conditions and actions.
//
// Expressions are compiled once into an explicit syntax tree and evaluated
// by a tree-walking interpreter with no access to reflection, the file
// system, or process state. The grammar is an allow-list:
//
//   - literals: integers, floats, strings, True/False, None, lists, dicts
//   - identifiers resolved from the caller-supplied bindings
//   - arithmetic (+ - * / %), comparisons (== != < <= > >=), membership
//     (in, not in), boolean logic (and, or, not)
//   - indexing (fact["income"]) and attribute access on map data
//     (fact.income)
//   - method calls from a fixed accessor set (map.get, map.keys,
//     string.lower, ...) and a fixed builtin set (len, min, max, ...)
//
// Anything outside the grammar is rejected. Two independent layers enforce
// the same deny-list: a textual pre-filter (CheckSource) rejects known
// dangerous patterns before parsing, and the lexer/evaluator reject the
// same constructs structurally. Both layers fail with *SecurityError.
//
// # Basic Usage
//
//	prog, err := expr.Compile("fact.get('income', 0) > 100000")
//	if err != nil {
//	    // *SecurityError or *SyntaxError
//	}
//	result, err := prog.Run(map[string]any{"fact": map[string]any{"income": 150000}})
//
// Compiled programs are immutable and safe for concurrent Run calls.
package expr
