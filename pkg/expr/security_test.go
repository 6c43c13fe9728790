package expr

import (
	"errors"
	"testing"
)

// dangerousExpressions must be rejected by BOTH sandbox layers: the
// textual pre-filter and the structural compiler. No input may pass one
// layer and rely on the other.
var dangerousExpressions = []string{
	"__import__('os').system('ls')",
	"import os",
	"().__class__.__bases__[0].__subclasses__()",
	"fact.__class__.__mro__",
	"lambda x: x",
	"compile('1 + 1')",
	"eval('1 + 1')",
	"exec('print(1)')",
	"open('/etc/passwd')",
	"getattr(fact, 'secret')",
	"setattr(fact, 'x', 1)",
	"globals()",
	"locals()",
	"vars()",
	"__builtins__",
	"fact.__dict__",
	"fact.__globals__",
}

func TestSandbox_RejectionSet_PreFilter(t *testing.T) {
	for _, source := range dangerousExpressions {
		err := CheckSource(source)
		if err == nil {
			t.Errorf("CheckSource(%q) passed, want rejection", source)
			continue
		}
		var secErr *SecurityError
		if !errors.As(err, &secErr) {
			t.Errorf("CheckSource(%q) error = %T, want *SecurityError", source, err)
		}
	}
}

func TestSandbox_RejectionSet_Compile(t *testing.T) {
	for _, source := range dangerousExpressions {
		_, err := Compile(source)
		if err == nil {
			t.Errorf("Compile(%q) succeeded, want rejection", source)
			continue
		}
		var secErr *SecurityError
		if !errors.As(err, &secErr) {
			t.Errorf("Compile(%q) error = %T, want *SecurityError", source, err)
		}
	}
}

func TestSandbox_LexerIndependentOfPreFilter(t *testing.T) {
	// The lexer consults the same deny-list on its own: feed it sources
	// directly, bypassing CheckSource.
	for _, source := range []string{"eval", "EVAL", "open", "getattr", "a__b"} {
		_, err := lex(source)
		if err == nil {
			t.Errorf("lex(%q) succeeded, want rejection", source)
			continue
		}
		var secErr *SecurityError
		if !errors.As(err, &secErr) {
			t.Errorf("lex(%q) error = %T, want *SecurityError", source, err)
		}
	}
}

func TestSandbox_WordBoundaries(t *testing.T) {
	// Deny-list words embedded inside longer identifiers are plain
	// identifiers, not sandbox violations.
	for _, source := range []string{
		"opened > 1",
		"evaluation == 'done'",
		"reopen and importance",
		"fact.get('opened')",
	} {
		if err := CheckSource(source); err != nil {
			t.Errorf("CheckSource(%q) = %v, want nil", source, err)
		}
		if _, err := Compile(source); err != nil {
			t.Errorf("Compile(%q) failed: %v", source, err)
		}
	}
}

func TestSandbox_CaseInsensitive(t *testing.T) {
	for _, source := range []string{"EVAL('1')", "Open('/tmp/x')", "LAMBDA"} {
		_, err := Compile(source)
		var secErr *SecurityError
		if !errors.As(err, &secErr) {
			t.Errorf("Compile(%q) error = %v, want *SecurityError", source, err)
		}
	}
}

func TestSandbox_UnknownFunctionCall(t *testing.T) {
	// "foo" is not deny-listed, so the call compiles; the evaluator
	// rejects it because it is outside the builtin allow-list.
	prog, err := Compile("foo(1)")
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	_, err = prog.Run(map[string]any{"foo": "value"})
	var secErr *SecurityError
	if !errors.As(err, &secErr) {
		t.Fatalf("Run() error = %v, want *SecurityError", err)
	}
}

func TestSandbox_UnknownMethod(t *testing.T) {
	prog, err := Compile("'abc'.encode()")
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	_, err = prog.Run(nil)
	var secErr *SecurityError
	if !errors.As(err, &secErr) {
		t.Fatalf("Run() error = %v, want *SecurityError", err)
	}
}

func TestSandbox_CallOnNonCallable(t *testing.T) {
	// Calling anything other than an identifier or attribute is rejected
	// at parse time.
	for _, source := range []string{"(1)(2)", "[1][0](3)", "'x'()"} {
		_, err := Compile(source)
		var secErr *SecurityError
		if !errors.As(err, &secErr) {
			t.Errorf("Compile(%q) error = %v, want *SecurityError", source, err)
		}
	}
}

func TestSandbox_UnderscoreAttribute(t *testing.T) {
	// A single leading underscore is not in the textual deny-list, but the
	// evaluator still refuses the access.
	prog, err := Compile("fact._secret")
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	_, err = prog.Run(map[string]any{"fact": map[string]any{"_secret": 1}})
	var secErr *SecurityError
	if !errors.As(err, &secErr) {
		t.Fatalf("Run() error = %v, want *SecurityError", err)
	}
}

func TestSecurityError_Fields(t *testing.T) {
	err := CheckSource("open('/etc/passwd')")
	var secErr *SecurityError
	if !errors.As(err, &secErr) {
		t.Fatalf("error = %T, want *SecurityError", err)
	}
	if secErr.Pattern != "open" {
		t.Errorf("Pattern = %q, want %q", secErr.Pattern, "open")
	}
	if secErr.Expression != "open('/etc/passwd')" {
		t.Errorf("Expression = %q", secErr.Expression)
	}
}
