package loader

import (
	"fmt"

	"ruleworks/arbiter/pkg/expr"
	"ruleworks/arbiter/pkg/rules"
)

// factBinding is the name under which the current fact is visible to rule
// expressions.
const factBinding = "fact"

// CompileCondition compiles an expression source into a Condition. The
// expression sees the fact under the name "fact" and must evaluate to a
// boolean; any other result type is an evaluation error at runtime.
func CompileCondition(source string) (rules.Condition, error) {
	prog, err := expr.Compile(source)
	if err != nil {
		return nil, err
	}

	return func(fact rules.Fact) (bool, error) {
		out, err := prog.Run(map[string]any{factBinding: map[string]any(fact)})
		if err != nil {
			return false, err
		}
		matched, ok := out.(bool)
		if !ok {
			return false, fmt.Errorf("condition %q evaluated to %T, want bool", source, out)
		}
		return matched, nil
	}, nil
}

// CompileAction compiles an expression source into an Action. The
// expression sees the fact under the name "fact"; its value becomes the
// rule's result. An expression evaluating to None contributes no result.
func CompileAction(source string) (rules.Action, error) {
	prog, err := expr.Compile(source)
	if err != nil {
		return nil, err
	}

	return func(fact rules.Fact) (any, error) {
		return prog.Run(map[string]any{factBinding: map[string]any(fact)})
	}, nil
}
