package expr

import (
	"testing"

	"github.com/goliatone/go-formwizard/pkg/visibility"
)

func TestEvaluatorStringComparison(t *testing.T) {
	t.Parallel()

	eval := New()

	cases := []struct {
		rule   string
		values map[string]any
		want   bool
	}{
		{`tier == "free"`, map[string]any{"tier": "free"}, true},
		{`tier == 'free'`, map[string]any{"tier": "free"}, true},
		{`tier == free`, map[string]any{"tier": "free"}, true},
		{`tier == "free"`, map[string]any{"tier": "gold"}, false},
		{`tier != "free"`, map[string]any{"tier": "gold"}, true},
		{`tier == "free"`, map[string]any{}, false},
	}

	for _, tc := range cases {
		got, err := eval.Eval("step2", tc.rule, visibility.Context{Values: tc.values})
		if err != nil {
			t.Fatalf("Eval(%q) returned error: %v", tc.rule, err)
		}
		if got != tc.want {
			t.Fatalf("Eval(%q, %v) = %v, want %v", tc.rule, tc.values, got, tc.want)
		}
	}
}

func TestEvaluatorTruthyAndNot(t *testing.T) {
	t.Parallel()

	eval := New()

	ok, err := eval.Eval("step", "category", visibility.Context{
		Values: map[string]any{"category": "Car"},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected non-empty string to be truthy")
	}

	ok, err = eval.Eval("step", "!category", visibility.Context{
		Values: map[string]any{"category": ""},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected !\"\" to be true")
	}
}

func TestEvaluatorCompositionAndExtras(t *testing.T) {
	t.Parallel()

	eval := New()

	ok, err := eval.Eval("step", `(tier == "free" || extras.preview == true) && category != null`, visibility.Context{
		Values: map[string]any{"tier": "gold", "category": "Car"},
		Extras: map[string]any{"preview": true},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected extras flag to include the step")
	}

	ok, err = eval.Eval("step", `step == 2 && tier == "free"`, visibility.Context{
		Values: map[string]any{"tier": "free", "step": 3},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if ok {
		t.Fatalf("expected numeric mismatch to exclude")
	}
}

func TestEvaluatorDotLookup(t *testing.T) {
	t.Parallel()

	ok, err := New().Eval("step", `listing.tier == "free"`, visibility.Context{
		Values: map[string]any{"listing": map[string]any{"tier": "free"}},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected nested lookup to match")
	}
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	for _, rule := range []string{`tier = "free"`, `tier == "free`, `(tier == "free"`, `tier & gold`, `== "free"`, `tier ==`} {
		if _, err := Compile(rule); err == nil {
			t.Fatalf("expected Compile(%q) to fail", rule)
		}
	}
}

func TestEmptyRuleIsAlwaysTrue(t *testing.T) {
	t.Parallel()

	program, err := Compile("   ")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	ok, err := program.Eval(visibility.Context{})
	if err != nil || !ok {
		t.Fatalf("expected empty rule to evaluate true, got %v %v", ok, err)
	}
}
