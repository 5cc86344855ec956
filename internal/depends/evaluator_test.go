package depends

import (
	"testing"

	"kairos-gateway/internal/metadata"
)

func TestEvaluate_NoExpressionsMatchesStaticFlags(t *testing.T) {
	e := NewEvaluator()
	cases := []metadata.Field{
		{Name: "a", Type: "Data"},
		{Name: "b", Type: "Data", Hidden: 1},
		{Name: "c", Type: "Data", Reqd: 1},
		{Name: "d", Type: "Data", ReadOnly: 1},
		{Name: "e", Type: "Int", Hidden: 1, Reqd: 1, ReadOnly: 1},
	}
	for _, f := range cases {
		got := e.Evaluate(f, map[string]any{"a": "x"})
		want := State{Visible: f.Hidden != 1, Required: f.Reqd == 1, ReadOnly: f.ReadOnly == 1}
		if got != want {
			t.Fatalf("field %s: got %+v, want %+v", f.Name, got, want)
		}
	}
}

func TestEvaluate_EvalExpression(t *testing.T) {
	e := NewEvaluator()
	f := metadata.Field{
		Name:               "guardian_email",
		Type:               "Data",
		DependsOn:          "eval:doc.has_guardian == 1",
		MandatoryDependsOn: "eval:doc.status === 'Active'",
	}

	st := e.Evaluate(f, map[string]any{"has_guardian": 0, "status": "Inactive"})
	if st.Visible || st.Required {
		t.Fatalf("expected hidden and optional, got %+v", st)
	}

	st = e.Evaluate(f, map[string]any{"has_guardian": 1, "status": "Active"})
	if !st.Visible || !st.Required {
		t.Fatalf("expected visible and required, got %+v", st)
	}
}

func TestEvaluate_BareFieldnameIsTruthiness(t *testing.T) {
	e := NewEvaluator()
	f := metadata.Field{Name: "reason", Type: "Small Text", DependsOn: "is_absent"}

	if e.Evaluate(f, map[string]any{"is_absent": 0}).Visible {
		t.Fatal("expected hidden when is_absent=0")
	}
	if !e.Evaluate(f, map[string]any{"is_absent": 1}).Visible {
		t.Fatal("expected visible when is_absent=1")
	}
	if e.Evaluate(f, map[string]any{}).Visible {
		t.Fatal("expected hidden when is_absent is missing")
	}
}

func TestEvaluate_BrokenExpressionFallsBackToStatic(t *testing.T) {
	e := NewEvaluator()
	f := metadata.Field{
		Name:              "notes",
		Type:              "Text",
		Hidden:            1,
		ReadOnly:          1,
		DependsOn:         "eval:in_list(['A','B'], doc.grade)",
		ReadOnlyDependsOn: "eval:doc.(",
	}

	st := e.Evaluate(f, map[string]any{"grade": "A"})
	if st.Visible {
		t.Fatal("unsupported helper must fall back to hidden=1")
	}
	if !st.ReadOnly {
		t.Fatal("syntax error must fall back to read_only=1")
	}
	// Cached failure takes the same path.
	if e.Evaluate(f, map[string]any{"grade": "B"}).Visible {
		t.Fatal("cached failure must still fall back")
	}
}

func TestEvaluateAll_DependentFieldTracksValues(t *testing.T) {
	e := NewEvaluator()
	s := &metadata.Schema{Name: "Student", Fields: []metadata.Field{
		{Name: "uses_transport", Type: "Check"},
		{Name: "sb", Type: "Section Break"},
		{Name: "bus_route", Type: "Link", Options: "Bus Route", DependsOn: "eval:doc.uses_transport"},
	}}

	states := e.EvaluateAll(s, map[string]any{"uses_transport": 0})
	if _, ok := states["sb"]; ok {
		t.Fatal("layout fields have no state")
	}
	if states["bus_route"].Visible {
		t.Fatal("expected bus_route hidden")
	}

	states = e.EvaluateAll(s, map[string]any{"uses_transport": 1})
	if !states["bus_route"].Visible {
		t.Fatal("expected bus_route visible after toggle")
	}
}
