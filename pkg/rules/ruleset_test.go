package rules

import (
	"testing"
)

func alwaysTrue(Fact) (bool, error) { return true, nil }
func noResult(Fact) (any, error)    { return nil, nil }

func namedRule(name string, priority int) Rule {
	return Rule{Name: name, Condition: alwaysTrue, Action: noResult, Priority: priority}
}

func TestNewRuleSet_PriorityOrdering(t *testing.T) {
	rs, err := NewRuleSet("ordering", []Rule{
		namedRule("low", 1),
		namedRule("high", 10),
		namedRule("mid", 5),
	}, nil)
	if err != nil {
		t.Fatalf("NewRuleSet() failed: %v", err)
	}

	got := rs.Rules()
	want := []string{"high", "mid", "low"}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("Rules()[%d].Name = %q, want %q", i, got[i].Name, name)
		}
	}
}

func TestNewRuleSet_StableTies(t *testing.T) {
	rs, err := NewRuleSet("ties", []Rule{
		namedRule("first", 5),
		namedRule("second", 5),
		namedRule("third", 5),
	}, nil)
	if err != nil {
		t.Fatalf("NewRuleSet() failed: %v", err)
	}

	got := rs.Rules()
	for i, name := range []string{"first", "second", "third"} {
		if got[i].Name != name {
			t.Errorf("Rules()[%d].Name = %q, want %q (equal priorities keep input order)", i, got[i].Name, name)
		}
	}
}

func TestNewRuleSet_Validation(t *testing.T) {
	if _, err := NewRuleSet("", nil, nil); err == nil {
		t.Error("NewRuleSet(empty name) succeeded, want error")
	}
	if _, err := NewRuleSet("x", []Rule{{Name: ""}}, nil); err == nil {
		t.Error("NewRuleSet(unnamed rule) succeeded, want error")
	}
	if _, err := NewRuleSet("x", []Rule{{Name: "r", Condition: alwaysTrue}}, nil); err == nil {
		t.Error("NewRuleSet(rule without action) succeeded, want error")
	}
}

func TestNewRuleSet_EmptyRules(t *testing.T) {
	rs, err := NewRuleSet("empty", nil, nil)
	if err != nil {
		t.Fatalf("NewRuleSet() failed: %v", err)
	}
	if rs.Len() != 0 {
		t.Errorf("Len() = %d, want 0", rs.Len())
	}
}

func TestNewRuleSet_Strategy(t *testing.T) {
	tests := []struct {
		name       string
		properties map[string]any
		want       ExecutionStrategy
		wantErr    bool
	}{
		{"default", nil, AllMatches, false},
		{"explicit all", map[string]any{StrategyProperty: "ALL_MATCHES"}, AllMatches, false},
		{"first match", map[string]any{StrategyProperty: "FIRST_MATCH"}, FirstMatch, false},
		{"nil value", map[string]any{StrategyProperty: nil}, AllMatches, false},
		{"unknown", map[string]any{StrategyProperty: "SOME_MATCHES"}, "", true},
		{"non-string", map[string]any{StrategyProperty: 42}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, err := NewRuleSet("s", []Rule{namedRule("r", 1)}, tt.properties)
			if tt.wantErr {
				if err == nil {
					t.Fatal("NewRuleSet() succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewRuleSet() failed: %v", err)
			}
			if rs.Strategy() != tt.want {
				t.Errorf("Strategy() = %q, want %q", rs.Strategy(), tt.want)
			}
		})
	}
}

func TestRuleSet_Immutability(t *testing.T) {
	input := []Rule{namedRule("a", 1), namedRule("b", 2)}
	properties := map[string]any{"description": "original"}

	rs, err := NewRuleSet("immutable", input, properties)
	if err != nil {
		t.Fatalf("NewRuleSet() failed: %v", err)
	}

	// Mutating the caller's inputs after construction changes nothing.
	input[0] = namedRule("mutated", 99)
	properties["description"] = "mutated"

	if rs.Rules()[0].Name != "b" {
		t.Errorf("Rules()[0].Name = %q, want %q", rs.Rules()[0].Name, "b")
	}
	if rs.Description() != "original" {
		t.Errorf("Description() = %q, want %q", rs.Description(), "original")
	}

	// Mutating returned snapshots changes nothing either.
	snapshot := rs.Rules()
	snapshot[0] = namedRule("again", 0)
	if rs.Rules()[0].Name != "b" {
		t.Error("mutating the returned rule slice affected the rule set")
	}

	props := rs.Properties()
	props["description"] = "again"
	if rs.Description() != "original" {
		t.Error("mutating the returned property map affected the rule set")
	}
}

func TestRule_Validate(t *testing.T) {
	valid := namedRule("ok", 1)
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestRuleSet_String(t *testing.T) {
	rs, err := NewRuleSet("fmt", []Rule{namedRule("r", 1)}, nil)
	if err != nil {
		t.Fatalf("NewRuleSet() failed: %v", err)
	}
	want := "RuleSet(name=fmt, rules=1, strategy=ALL_MATCHES)"
	if rs.String() != want {
		t.Errorf("String() = %q, want %q", rs.String(), want)
	}
}
