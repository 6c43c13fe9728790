package expr

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Run evaluates the compiled program against the given bindings. Values in
// bindings (and inside any containers they hold) may use any Go integer or
// float width; they are normalized to int64/float64 during evaluation.
//
// Run returns *EvalError for runtime failures (undefined names, type
// mismatches, division by zero) and *SecurityError when the expression
// reaches a disallowed construct only detectable with runtime values.
func (p *Program) Run(bindings map[string]any) (any, error) {
	e := &evaluator{program: p, bindings: bindings}
	return e.eval(p.root)
}

type evaluator struct {
	program  *Program
	bindings map[string]any
}

func (e *evaluator) eval(n node) (any, error) {
	switch n := n.(type) {
	case *literalNode:
		return n.value, nil

	case *identNode:
		value, ok := e.bindings[n.name]
		if !ok {
			return nil, e.errorf("undefined name %q", n.name)
		}
		return normalize(value), nil

	case *listNode:
		list := make([]any, 0, len(n.elements))
		for _, element := range n.elements {
			value, err := e.eval(element)
			if err != nil {
				return nil, err
			}
			list = append(list, value)
		}
		return list, nil

	case *dictNode:
		dict := make(map[string]any, len(n.keys))
		for i, keyNode := range n.keys {
			key, err := e.eval(keyNode)
			if err != nil {
				return nil, err
			}
			keyStr, ok := key.(string)
			if !ok {
				return nil, e.errorf("dict keys must be strings, got %s", typeName(key))
			}
			value, err := e.eval(n.values[i])
			if err != nil {
				return nil, err
			}
			dict[keyStr] = value
		}
		return dict, nil

	case *unaryNode:
		return e.evalUnary(n)

	case *binaryNode:
		return e.evalBinary(n)

	case *indexNode:
		return e.evalIndex(n)

	case *attrNode:
		return e.evalAttr(n)

	case *callNode:
		return e.evalCall(n)
	}

	return nil, e.errorf("unknown expression node %T", n)
}

func (e *evaluator) evalUnary(n *unaryNode) (any, error) {
	operand, err := e.eval(n.operand)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case "not":
		b, ok := operand.(bool)
		if !ok {
			return nil, e.errorf("\"not\" requires a boolean operand, got %s", typeName(operand))
		}
		return !b, nil

	case "-":
		switch v := operand.(type) {
		case int64:
			return -v, nil
		case float64:
			return -v, nil
		}
		return nil, e.errorf("unary minus requires a number, got %s", typeName(operand))
	}

	return nil, e.errorf("unknown unary operator %q", n.op)
}

func (e *evaluator) evalBinary(n *binaryNode) (any, error) {
	// Boolean operators short-circuit; everything else evaluates both
	// sides first.
	if n.op == "and" || n.op == "or" {
		left, err := e.eval(n.left)
		if err != nil {
			return nil, err
		}
		lb, ok := left.(bool)
		if !ok {
			return nil, e.errorf("%q requires boolean operands, got %s", n.op, typeName(left))
		}
		if (n.op == "and" && !lb) || (n.op == "or" && lb) {
			return lb, nil
		}
		right, err := e.eval(n.right)
		if err != nil {
			return nil, err
		}
		rb, ok := right.(bool)
		if !ok {
			return nil, e.errorf("%q requires boolean operands, got %s", n.op, typeName(right))
		}
		return rb, nil
	}

	left, err := e.eval(n.left)
	if err != nil {
		return nil, err
	}
	right, err := e.eval(n.right)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case "+", "-", "*", "/", "%":
		return e.evalArithmetic(n.op, left, right)
	case "==":
		return valuesEqual(left, right), nil
	case "!=":
		return !valuesEqual(left, right), nil
	case "<", "<=", ">", ">=":
		return e.evalOrdered(n.op, left, right)
	case "in":
		return e.evalMembership(left, right)
	}

	return nil, e.errorf("unknown operator %q", n.op)
}

func (e *evaluator) evalArithmetic(op string, left, right any) (any, error) {
	// String and list concatenation.
	if op == "+" {
		if ls, ok := left.(string); ok {
			rs, ok := right.(string)
			if !ok {
				return nil, e.errorf("cannot add %s to string", typeName(right))
			}
			return ls + rs, nil
		}
		if ll, ok := left.([]any); ok {
			rl, ok := right.([]any)
			if !ok {
				return nil, e.errorf("cannot add %s to list", typeName(right))
			}
			out := make([]any, 0, len(ll)+len(rl))
			out = append(out, ll...)
			return append(out, rl...), nil
		}
	}

	li, lIsInt := left.(int64)
	ri, rIsInt := right.(int64)

	// Integer arithmetic stays integral except for division, which always
	// produces a float the way the source expressions expect.
	if lIsInt && rIsInt && op != "/" {
		switch op {
		case "+":
			return li + ri, nil
		case "-":
			return li - ri, nil
		case "*":
			return li * ri, nil
		case "%":
			if ri == 0 {
				return nil, e.errorf("modulo by zero")
			}
			return li % ri, nil
		}
	}

	lf, err := e.toFloat(left)
	if err != nil {
		return nil, err
	}
	rf, err := e.toFloat(right)
	if err != nil {
		return nil, err
	}

	switch op {
	case "+":
		return lf + rf, nil
	case "-":
		return lf - rf, nil
	case "*":
		return lf * rf, nil
	case "/":
		if rf == 0 {
			return nil, e.errorf("division by zero")
		}
		return lf / rf, nil
	case "%":
		if rf == 0 {
			return nil, e.errorf("modulo by zero")
		}
		return math.Mod(lf, rf), nil
	}

	return nil, e.errorf("unknown arithmetic operator %q", op)
}

func (e *evaluator) evalOrdered(op string, left, right any) (any, error) {
	if ls, ok := left.(string); ok {
		rs, ok := right.(string)
		if !ok {
			return nil, e.errorf("cannot compare string with %s", typeName(right))
		}
		switch op {
		case "<":
			return ls < rs, nil
		case "<=":
			return ls <= rs, nil
		case ">":
			return ls > rs, nil
		case ">=":
			return ls >= rs, nil
		}
	}

	lf, err := e.toFloat(left)
	if err != nil {
		return nil, err
	}
	rf, err := e.toFloat(right)
	if err != nil {
		return nil, err
	}

	switch op {
	case "<":
		return lf < rf, nil
	case "<=":
		return lf <= rf, nil
	case ">":
		return lf > rf, nil
	case ">=":
		return lf >= rf, nil
	}

	return nil, e.errorf("unknown comparison operator %q", op)
}

func (e *evaluator) evalMembership(needle, haystack any) (any, error) {
	switch container := haystack.(type) {
	case string:
		s, ok := needle.(string)
		if !ok {
			return nil, e.errorf("\"in\" on a string requires a string operand, got %s", typeName(needle))
		}
		return strings.Contains(container, s), nil

	case []any:
		for _, element := range container {
			if valuesEqual(needle, normalize(element)) {
				return true, nil
			}
		}
		return false, nil

	case map[string]any:
		key, ok := needle.(string)
		if !ok {
			return nil, e.errorf("\"in\" on a dict requires a string key, got %s", typeName(needle))
		}
		_, present := container[key]
		return present, nil
	}

	return nil, e.errorf("\"in\" requires a string, list, or dict, got %s", typeName(haystack))
}

func (e *evaluator) evalIndex(n *indexNode) (any, error) {
	target, err := e.eval(n.target)
	if err != nil {
		return nil, err
	}
	index, err := e.eval(n.index)
	if err != nil {
		return nil, err
	}

	switch container := target.(type) {
	case []any:
		i, ok := index.(int64)
		if !ok {
			return nil, e.errorf("list index must be an integer, got %s", typeName(index))
		}
		// Negative indices count from the end.
		if i < 0 {
			i += int64(len(container))
		}
		if i < 0 || i >= int64(len(container)) {
			return nil, e.errorf("list index %d out of range (length %d)", i, len(container))
		}
		return normalize(container[i]), nil

	case map[string]any:
		key, ok := index.(string)
		if !ok {
			return nil, e.errorf("dict key must be a string, got %s", typeName(index))
		}
		value, present := container[key]
		if !present {
			return nil, e.errorf("key %q not found", key)
		}
		return normalize(value), nil
	}

	return nil, e.errorf("cannot index %s", typeName(target))
}

// evalAttr resolves attribute access on data containers. Only map lookups
// are permitted; an underscore-prefixed name is a sandbox violation
// regardless of the target, since those chains are how interpreter
// internals are reached.
func (e *evaluator) evalAttr(n *attrNode) (any, error) {
	if strings.HasPrefix(n.name, "_") {
		return nil, &SecurityError{
			Expression: e.program.source,
			Pattern:    n.name,
			Message:    "underscore-prefixed attribute access is not permitted",
		}
	}

	target, err := e.eval(n.target)
	if err != nil {
		return nil, err
	}

	container, ok := target.(map[string]any)
	if !ok {
		return nil, e.errorf("attribute access requires a dict, got %s", typeName(target))
	}
	value, present := container[n.name]
	if !present {
		return nil, e.errorf("attribute %q not found", n.name)
	}
	return normalize(value), nil
}

func (e *evaluator) errorf(format string, args ...any) error {
	return &EvalError{
		Expression: e.program.source,
		Message:    fmt.Sprintf(format, args...),
	}
}

func (e *evaluator) toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	}
	return 0, e.errorf("expected a number, got %s", typeName(v))
}

// normalize converts arbitrary Go numeric widths into the evaluator's
// canonical int64/float64 representation. Containers are normalized lazily
// at access time, not eagerly copied.
func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case uint:
		return int64(n)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		return int64(n)
	case float32:
		return float64(n)
	}
	return v
}

// valuesEqual compares two evaluator values. Numbers compare across
// int/float; containers compare deeply.
func valuesEqual(a, b any) bool {
	a, b = normalize(a), normalize(b)

	af, aNum := asFloat(a)
	bf, bNum := asFloat(b)
	if aNum && bNum {
		return af == bf
	}

	return reflect.DeepEqual(a, b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "none"
	case bool:
		return "bool"
	case int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "string"
	case []any:
		return "list"
	case map[string]any:
		return "dict"
	}
	return fmt.Sprintf("%T", v)
}

// formatValue renders a value for the str() builtin.
func formatValue(v any) string {
	switch n := v.(type) {
	case nil:
		return "None"
	case bool:
		if n {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(n, 10)
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64)
	case string:
		return n
	}
	return fmt.Sprint(v)
}
