package loader

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ruleworks/arbiter/pkg/expr"
	"ruleworks/arbiter/pkg/rules"
)

// Document is the external YAML shape of a rule set.
type Document struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Strategy    string         `yaml:"execution_strategy"`
	Rules       []RuleDocument `yaml:"rules"`
}

// RuleDocument is the external shape of a single rule.
type RuleDocument struct {
	Name      string `yaml:"name"`
	Condition string `yaml:"condition"`
	Action    string `yaml:"action"`
	Priority  int    `yaml:"priority"`
}

// FromYAMLFile loads a rule set from a YAML file.
func FromYAMLFile(path string) (*rules.RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule document %q: %w", path, err)
	}
	return FromYAML(data)
}

// FromYAML loads a rule set from YAML bytes.
func FromYAML(data []byte) (*rules.RuleSet, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse rule document: %w", err)
	}
	return FromDocument(&doc)
}

// FromDocument builds a RuleSet from a parsed document.
//
// Every condition and action source goes through the expression sandbox.
// A *expr.SecurityError in any rule rejects the entire document. Other
// compile failures drop only the offending rule: FromDocument then returns
// the rule set built from the remaining rules together with a
// *DocumentError listing what was dropped.
func FromDocument(doc *Document) (*rules.RuleSet, error) {
	if doc == nil {
		return nil, fmt.Errorf("rule document cannot be nil")
	}
	if doc.Name == "" {
		return nil, fmt.Errorf("rule document has no name")
	}

	var (
		loaded   []rules.Rule
		docError = &DocumentError{Document: doc.Name}
	)

	for i, rd := range doc.Rules {
		rule, err := buildRule(i, rd)
		if err != nil {
			var secErr *expr.SecurityError
			if errors.As(err, &secErr) {
				return nil, fmt.Errorf("document %q rejected: %w", doc.Name, err)
			}
			docError.RuleErrors = append(docError.RuleErrors, &RuleError{Rule: ruleName(i, rd), Err: err})
			continue
		}
		loaded = append(loaded, rule)
	}

	properties := map[string]any{
		"description": doc.Description,
		"source":      "yaml",
	}
	if doc.Strategy != "" {
		properties[rules.StrategyProperty] = doc.Strategy
	}

	rs, err := rules.NewRuleSet(doc.Name, loaded, properties)
	if err != nil {
		return nil, err
	}

	if len(docError.RuleErrors) > 0 {
		return rs, docError
	}
	return rs, nil
}

func buildRule(index int, rd RuleDocument) (rules.Rule, error) {
	name := ruleName(index, rd)
	if rd.Condition == "" {
		return rules.Rule{}, fmt.Errorf("rule %q has no condition", name)
	}
	if rd.Action == "" {
		return rules.Rule{}, fmt.Errorf("rule %q has no action", name)
	}

	condition, err := CompileCondition(rd.Condition)
	if err != nil {
		return rules.Rule{}, err
	}
	action, err := CompileAction(rd.Action)
	if err != nil {
		return rules.Rule{}, err
	}

	return rules.Rule{
		Name:      name,
		Condition: condition,
		Action:    action,
		Priority:  rd.Priority,
	}, nil
}

func ruleName(index int, rd RuleDocument) string {
	if rd.Name != "" {
		return rd.Name
	}
	return fmt.Sprintf("rule_%d", index)
}
