package expr

import (
	"math"
	"strconv"
	"strings"
)

// evalCall dispatches calls. The parser guarantees the callee is an
// identifier (builtin) or attribute (accessor method); anything not found
// in those tables is a sandbox violation, not an evaluation error, because
// an unknown call is how new behavior would be smuggled into a rule.
func (e *evaluator) evalCall(n *callNode) (any, error) {
	args := make([]any, 0, len(n.args))
	for _, arg := range n.args {
		value, err := e.eval(arg)
		if err != nil {
			return nil, err
		}
		args = append(args, value)
	}

	switch callee := n.callee.(type) {
	case *identNode:
		fn, ok := builtins[callee.name]
		if !ok {
			return nil, &SecurityError{
				Expression: e.program.source,
				Pattern:    callee.name,
				Message:    "call to a function outside the builtin allow-list",
			}
		}
		return fn(e, args)

	case *attrNode:
		if strings.HasPrefix(callee.name, "_") {
			return nil, &SecurityError{
				Expression: e.program.source,
				Pattern:    callee.name,
				Message:    "underscore-prefixed attribute access is not permitted",
			}
		}
		target, err := e.eval(callee.target)
		if err != nil {
			return nil, err
		}
		return e.callMethod(target, callee.name, args)
	}

	return nil, &SecurityError{
		Expression: e.program.source,
		Message:    "only allow-listed builtins and accessor methods may be called",
	}
}

// callMethod dispatches the safe accessor methods. The set is fixed: data
// lookups on dicts and pure string transforms. No method mutates its
// receiver.
func (e *evaluator) callMethod(target any, name string, args []any) (any, error) {
	switch container := target.(type) {
	case map[string]any:
		switch name {
		case "get":
			if len(args) < 1 || len(args) > 2 {
				return nil, e.errorf("get() takes 1 or 2 arguments, got %d", len(args))
			}
			key, ok := args[0].(string)
			if !ok {
				return nil, e.errorf("get() key must be a string, got %s", typeName(args[0]))
			}
			value, present := container[key]
			if !present {
				if len(args) == 2 {
					return args[1], nil
				}
				return nil, nil
			}
			return normalize(value), nil

		case "keys":
			if len(args) != 0 {
				return nil, e.errorf("keys() takes no arguments")
			}
			keys := make([]any, 0, len(container))
			for key := range container {
				keys = append(keys, key)
			}
			return keys, nil

		case "values":
			if len(args) != 0 {
				return nil, e.errorf("values() takes no arguments")
			}
			values := make([]any, 0, len(container))
			for _, value := range container {
				values = append(values, normalize(value))
			}
			return values, nil
		}

	case string:
		switch name {
		case "lower":
			if len(args) != 0 {
				return nil, e.errorf("lower() takes no arguments")
			}
			return strings.ToLower(container), nil
		case "upper":
			if len(args) != 0 {
				return nil, e.errorf("upper() takes no arguments")
			}
			return strings.ToUpper(container), nil
		case "strip":
			if len(args) != 0 {
				return nil, e.errorf("strip() takes no arguments")
			}
			return strings.TrimSpace(container), nil
		case "startswith":
			prefix, err := e.oneStringArg("startswith", args)
			if err != nil {
				return nil, err
			}
			return strings.HasPrefix(container, prefix), nil
		case "endswith":
			suffix, err := e.oneStringArg("endswith", args)
			if err != nil {
				return nil, err
			}
			return strings.HasSuffix(container, suffix), nil
		}
	}

	return nil, &SecurityError{
		Expression: e.program.source,
		Pattern:    name,
		Message:    "method is outside the safe accessor allow-list for " + typeName(target),
	}
}

func (e *evaluator) oneStringArg(method string, args []any) (string, error) {
	if len(args) != 1 {
		return "", e.errorf("%s() takes exactly 1 argument, got %d", method, len(args))
	}
	s, ok := args[0].(string)
	if !ok {
		return "", e.errorf("%s() argument must be a string, got %s", method, typeName(args[0]))
	}
	return s, nil
}

// builtins is the fixed set of callable functions. Everything here is a
// pure data accessor or conversion.
var builtins = map[string]func(*evaluator, []any) (any, error){
	"len":   builtinLen,
	"min":   builtinMin,
	"max":   builtinMax,
	"abs":   builtinAbs,
	"str":   builtinStr,
	"int":   builtinInt,
	"float": builtinFloat,
}

func builtinLen(e *evaluator, args []any) (any, error) {
	if len(args) != 1 {
		return nil, e.errorf("len() takes exactly 1 argument, got %d", len(args))
	}
	switch v := args[0].(type) {
	case string:
		return int64(len(v)), nil
	case []any:
		return int64(len(v)), nil
	case map[string]any:
		return int64(len(v)), nil
	}
	return nil, e.errorf("len() requires a string, list, or dict, got %s", typeName(args[0]))
}

func builtinMin(e *evaluator, args []any) (any, error) {
	return builtinExtreme(e, "min", args, func(candidate, best float64) bool { return candidate < best })
}

func builtinMax(e *evaluator, args []any) (any, error) {
	return builtinExtreme(e, "max", args, func(candidate, best float64) bool { return candidate > best })
}

func builtinExtreme(e *evaluator, name string, args []any, better func(candidate, best float64) bool) (any, error) {
	values := args
	if len(args) == 1 {
		list, ok := args[0].([]any)
		if !ok {
			return nil, e.errorf("%s() with one argument requires a list, got %s", name, typeName(args[0]))
		}
		values = list
	}
	if len(values) == 0 {
		return nil, e.errorf("%s() of empty sequence", name)
	}

	best := normalize(values[0])
	bestF, ok := asFloat(best)
	if !ok {
		return nil, e.errorf("%s() requires numbers, got %s", name, typeName(best))
	}
	for _, raw := range values[1:] {
		value := normalize(raw)
		f, ok := asFloat(value)
		if !ok {
			return nil, e.errorf("%s() requires numbers, got %s", name, typeName(value))
		}
		if better(f, bestF) {
			best, bestF = value, f
		}
	}
	return best, nil
}

func builtinAbs(e *evaluator, args []any) (any, error) {
	if len(args) != 1 {
		return nil, e.errorf("abs() takes exactly 1 argument, got %d", len(args))
	}
	switch v := args[0].(type) {
	case int64:
		if v < 0 {
			return -v, nil
		}
		return v, nil
	case float64:
		return math.Abs(v), nil
	}
	return nil, e.errorf("abs() requires a number, got %s", typeName(args[0]))
}

func builtinStr(e *evaluator, args []any) (any, error) {
	if len(args) != 1 {
		return nil, e.errorf("str() takes exactly 1 argument, got %d", len(args))
	}
	return formatValue(args[0]), nil
}

func builtinInt(e *evaluator, args []any) (any, error) {
	if len(args) != 1 {
		return nil, e.errorf("int() takes exactly 1 argument, got %d", len(args))
	}
	switch v := args[0].(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, e.errorf("int() cannot parse %q", v)
		}
		return n, nil
	}
	return nil, e.errorf("int() cannot convert %s", typeName(args[0]))
}

func builtinFloat(e *evaluator, args []any) (any, error) {
	if len(args) != 1 {
		return nil, e.errorf("float() takes exactly 1 argument, got %d", len(args))
	}
	switch v := args[0].(type) {
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, e.errorf("float() cannot parse %q", v)
		}
		return f, nil
	}
	return nil, e.errorf("float() cannot convert %s", typeName(args[0]))
}
