// Package loader turns external rule documents into RuleSets.
//
// Two formats are supported: YAML rule documents
//
//	name: "loan_rules"
//	description: "Loan categorization"
//	rules:
//	  - name: "high_income"
//	    condition: "fact.get('income', 0) > 100000"
//	    action: "{'category': 'high_income', 'discount': 0.1}"
//	    priority: 10
//
// and CSV decision tables with name/condition/action/priority columns.
//
// Condition and action sources are compiled through the expression
// sandbox. A security violation in any rule rejects the whole document;
// other per-rule compile failures are isolated so one malformed rule does
// not prevent the rest from loading (see DocumentError).
//
// The Watcher reloads documents from a directory on file change and
// atomically re-registers them with an Engine.
package loader
