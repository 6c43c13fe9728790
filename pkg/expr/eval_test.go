package expr

import (
	"errors"
	"reflect"
	"testing"
)

// run compiles and evaluates source against bindings, failing the test on
// any error.
func run(t *testing.T, source string, bindings map[string]any) any {
	t.Helper()
	prog, err := Compile(source)
	if err != nil {
		t.Fatalf("Compile(%q) failed: %v", source, err)
	}
	out, err := prog.Run(bindings)
	if err != nil {
		t.Fatalf("Run(%q) failed: %v", source, err)
	}
	return out
}

func runErr(t *testing.T, source string, bindings map[string]any) error {
	t.Helper()
	prog, err := Compile(source)
	if err != nil {
		t.Fatalf("Compile(%q) failed: %v", source, err)
	}
	_, err = prog.Run(bindings)
	if err == nil {
		t.Fatalf("Run(%q) succeeded, want error", source)
	}
	return err
}

func TestRun_Arithmetic(t *testing.T) {
	tests := []struct {
		source string
		want   any
	}{
		{"1 + 2 * 3", int64(7)},
		{"(1 + 2) * 3", int64(9)},
		{"7 - 10", int64(-3)},
		{"-5 + 2", int64(-3)},
		{"7 % 3", int64(1)},
		{"10 / 4", 2.5},
		{"10 / 5", 2.0},
		{"1.5 + 1", 2.5},
		{"2 * 2.5", 5.0},
		{"'ab' + 'cd'", "abcd"},
	}

	for _, tt := range tests {
		got := run(t, tt.source, nil)
		if got != tt.want {
			t.Errorf("Run(%q) = %v (%T), want %v (%T)", tt.source, got, got, tt.want, tt.want)
		}
	}
}

func TestRun_ListConcatenation(t *testing.T) {
	got := run(t, "[1, 2] + [3]", nil)
	want := []any{int64(1), int64(2), int64(3)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Run() = %v, want %v", got, want)
	}
}

func TestRun_DivisionByZero(t *testing.T) {
	for _, source := range []string{"1 / 0", "1 % 0", "1.0 / 0"} {
		err := runErr(t, source, nil)
		var evalErr *EvalError
		if !errors.As(err, &evalErr) {
			t.Errorf("Run(%q) error = %T, want *EvalError", source, err)
		}
	}
}

func TestRun_Comparisons(t *testing.T) {
	tests := []struct {
		source string
		want   bool
	}{
		{"1 < 2", true},
		{"2 <= 2", true},
		{"3 > 4", false},
		{"4 >= 4", true},
		{"1 == 1", true},
		{"1 == 1.0", true},
		{"1 != 2", true},
		{"'a' < 'b'", true},
		{"'abc' == 'abc'", true},
		{"'a' == 1", false},
		{"None == None", true},
		{"[1, 2] == [1, 2]", true},
	}

	for _, tt := range tests {
		got := run(t, tt.source, nil)
		if got != tt.want {
			t.Errorf("Run(%q) = %v, want %v", tt.source, got, tt.want)
		}
	}
}

func TestRun_BooleanLogic(t *testing.T) {
	tests := []struct {
		source string
		want   bool
	}{
		{"True and True", true},
		{"True and False", false},
		{"False or True", true},
		{"False or False", false},
		{"not True", false},
		{"not False", true},
		{"not 1 == 2", true},
		{"1 < 2 and 2 < 3", true},
	}

	for _, tt := range tests {
		got := run(t, tt.source, nil)
		if got != tt.want {
			t.Errorf("Run(%q) = %v, want %v", tt.source, got, tt.want)
		}
	}
}

func TestRun_ShortCircuit(t *testing.T) {
	// The right side references an undefined name; short-circuiting means
	// it is never evaluated.
	if got := run(t, "False and missing", nil); got != false {
		t.Errorf("Run() = %v, want false", got)
	}
	if got := run(t, "True or missing", nil); got != true {
		t.Errorf("Run() = %v, want true", got)
	}
}

func TestRun_StrictBooleans(t *testing.T) {
	for _, source := range []string{"1 and True", "'x' or False", "not 0"} {
		err := runErr(t, source, nil)
		var evalErr *EvalError
		if !errors.As(err, &evalErr) {
			t.Errorf("Run(%q) error = %T, want *EvalError", source, err)
		}
	}
}

func TestRun_Membership(t *testing.T) {
	tests := []struct {
		source string
		want   bool
	}{
		{"2 in [1, 2, 3]", true},
		{"5 in [1, 2, 3]", false},
		{"'at' in 'cattle'", true},
		{"'dog' in 'cattle'", false},
		{"'k' in {'k': 1}", true},
		{"'v' in {'k': 1}", false},
		{"4 not in [1, 2, 3]", true},
		{"2 not in [1, 2, 3]", false},
	}

	for _, tt := range tests {
		got := run(t, tt.source, nil)
		if got != tt.want {
			t.Errorf("Run(%q) = %v, want %v", tt.source, got, tt.want)
		}
	}
}

func TestRun_Indexing(t *testing.T) {
	bindings := map[string]any{
		"items": []any{10, 20, 30},
		"table": map[string]any{"a": 1},
	}

	tests := []struct {
		source string
		want   any
	}{
		{"items[0]", int64(10)},
		{"items[2]", int64(30)},
		{"items[-1]", int64(30)},
		{"items[-3]", int64(10)},
		{"table['a']", int64(1)},
	}

	for _, tt := range tests {
		got := run(t, tt.source, bindings)
		if got != tt.want {
			t.Errorf("Run(%q) = %v, want %v", tt.source, got, tt.want)
		}
	}

	for _, source := range []string{"items[3]", "items[-4]", "table['b']", "items['x']", "1[0]"} {
		err := runErr(t, source, bindings)
		var evalErr *EvalError
		if !errors.As(err, &evalErr) {
			t.Errorf("Run(%q) error = %T, want *EvalError", source, err)
		}
	}
}

func TestRun_AttributeAccess(t *testing.T) {
	bindings := map[string]any{
		"fact": map[string]any{
			"amount": 250,
			"user":   map[string]any{"tier": "gold"},
		},
	}

	if got := run(t, "fact.amount", bindings); got != int64(250) {
		t.Errorf("fact.amount = %v, want 250", got)
	}
	if got := run(t, "fact.user.tier", bindings); got != "gold" {
		t.Errorf("fact.user.tier = %v, want %q", got, "gold")
	}

	err := runErr(t, "fact.missing", bindings)
	var evalErr *EvalError
	if !errors.As(err, &evalErr) {
		t.Errorf("fact.missing error = %T, want *EvalError", err)
	}
}

func TestRun_DictGet(t *testing.T) {
	bindings := map[string]any{
		"fact": map[string]any{"amount": 250},
	}

	if got := run(t, "fact.get('amount')", bindings); got != int64(250) {
		t.Errorf("get(present) = %v, want 250", got)
	}
	if got := run(t, "fact.get('missing')", bindings); got != nil {
		t.Errorf("get(missing) = %v, want nil", got)
	}
	if got := run(t, "fact.get('missing', 0)", bindings); got != int64(0) {
		t.Errorf("get(missing, default) = %v, want 0", got)
	}
	if got := run(t, "fact.get('amount', 0) > 100", bindings); got != true {
		t.Errorf("get in comparison = %v, want true", got)
	}
}

func TestRun_StringMethods(t *testing.T) {
	tests := []struct {
		source string
		want   any
	}{
		{"'Hello'.lower()", "hello"},
		{"'Hello'.upper()", "HELLO"},
		{"'  x  '.strip()", "x"},
		{"'golang'.startswith('go')", true},
		{"'golang'.endswith('xx')", false},
	}

	for _, tt := range tests {
		got := run(t, tt.source, nil)
		if got != tt.want {
			t.Errorf("Run(%q) = %v, want %v", tt.source, got, tt.want)
		}
	}
}

func TestRun_Builtins(t *testing.T) {
	tests := []struct {
		source string
		want   any
	}{
		{"len('abc')", int64(3)},
		{"len([1, 2])", int64(2)},
		{"len({'a': 1})", int64(1)},
		{"min(3, 1, 2)", int64(1)},
		{"min([3, 1, 2])", int64(1)},
		{"max(3, 1, 2)", int64(3)},
		{"max([1.5, 2.5])", 2.5},
		{"abs(-7)", int64(7)},
		{"abs(-1.5)", 1.5},
		{"str(42)", "42"},
		{"str(None)", "None"},
		{"str(True)", "True"},
		{"int('42')", int64(42)},
		{"int(3.9)", int64(3)},
		{"int(True)", int64(1)},
		{"float(2)", 2.0},
		{"float('1.5')", 1.5},
	}

	for _, tt := range tests {
		got := run(t, tt.source, nil)
		if got != tt.want {
			t.Errorf("Run(%q) = %v (%T), want %v (%T)", tt.source, got, got, tt.want, tt.want)
		}
	}
}

func TestRun_BuiltinErrors(t *testing.T) {
	for _, source := range []string{
		"len(1)",
		"min()",
		"min([])",
		"min('a', 'b')",
		"abs('x')",
		"int('not a number')",
		"float('nope')",
	} {
		err := runErr(t, source, nil)
		var evalErr *EvalError
		if !errors.As(err, &evalErr) {
			t.Errorf("Run(%q) error = %T, want *EvalError", source, err)
		}
	}
}

func TestRun_UndefinedName(t *testing.T) {
	err := runErr(t, "nonexistent > 1", nil)
	var evalErr *EvalError
	if !errors.As(err, &evalErr) {
		t.Fatalf("error = %T, want *EvalError", err)
	}
}

func TestRun_Literals(t *testing.T) {
	got := run(t, "{'name': 'x', 'tags': [1, 2]}", nil)
	want := map[string]any{
		"name": "x",
		"tags": []any{int64(1), int64(2)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Run() = %#v, want %#v", got, want)
	}
}

func TestRun_NumericWidthNormalization(t *testing.T) {
	// Facts decoded from YAML or JSON arrive with varying numeric widths.
	bindings := map[string]any{
		"a": int(3),
		"b": int32(4),
		"c": float32(0.5),
		"d": uint8(2),
	}

	if got := run(t, "a + b", bindings); got != int64(7) {
		t.Errorf("a + b = %v (%T), want int64(7)", got, got)
	}
	if got := run(t, "c * 2", bindings); got != 1.0 {
		t.Errorf("c * 2 = %v, want 1.0", got)
	}
	if got := run(t, "d == 2", bindings); got != true {
		t.Errorf("d == 2 = %v, want true", got)
	}
}

func TestRun_ConcurrentUse(t *testing.T) {
	prog, err := Compile("x * 2")
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}

	done := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func(n int64) {
			out, err := prog.Run(map[string]any{"x": n})
			if err == nil && out != n*2 {
				err = errors.New("wrong result")
			}
			done <- err
		}(int64(i))
	}
	for i := 0; i < 10; i++ {
		if err := <-done; err != nil {
			t.Errorf("concurrent Run failed: %v", err)
		}
	}
}
