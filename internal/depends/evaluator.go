// Package depends computes per-field visibility, requiredness and read-only
// state from the current form values.
package depends

import (
	"fmt"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"kairos-gateway/internal/metadata"
)

// State is the derived dependency state of one field.
type State struct {
	Visible  bool `json:"visible"`
	Required bool `json:"required"`
	ReadOnly bool `json:"read_only"`
}

// Static returns the state implied by the field's static flags alone.
func Static(f metadata.Field) State {
	return State{
		Visible:  !f.IsHidden(),
		Required: f.IsRequired(),
		ReadOnly: f.IsReadOnly(),
	}
}

// Evaluator evaluates conditional expressions with expr-lang/expr.
// Compiled programs (and compile failures) are cached by expression string.
type Evaluator struct {
	mu    sync.RWMutex
	cache map[string]compiled
}

type compiled struct {
	prog *vm.Program
	err  error
}

func NewEvaluator() *Evaluator {
	return &Evaluator{cache: make(map[string]compiled)}
}

// Evaluate returns the state of f for the given values. An axis without an
// expression uses the static flag; an expression that fails to compile or run
// also falls back to the static flag.
func (e *Evaluator) Evaluate(f metadata.Field, values map[string]any) State {
	st := Static(f)
	if v, ok := e.condition(f.DependsOn, values); ok {
		st.Visible = v
	}
	if v, ok := e.condition(f.MandatoryDependsOn, values); ok {
		st.Required = v
	}
	if v, ok := e.condition(f.ReadOnlyDependsOn, values); ok {
		st.ReadOnly = v
	}
	return st
}

// EvaluateAll recomputes the state of every non-layout field in the schema.
// Expressions may reference any field, so the whole value set is the input.
func (e *Evaluator) EvaluateAll(s *metadata.Schema, values map[string]any) map[string]State {
	states := make(map[string]State, len(s.Fields))
	for _, f := range s.Fields {
		if f.Kind().IsLayout() {
			continue
		}
		states[f.Name] = e.Evaluate(f, values)
	}
	return states
}

// condition evaluates one conditional expression. ok is false when the
// expression is absent or could not be evaluated.
func (e *Evaluator) condition(expression string, values map[string]any) (result bool, ok bool) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return false, false
	}

	code, isEval := strings.CutPrefix(expression, "eval:")
	if !isEval {
		// A bare fieldname means "that field has a truthy value".
		return Truthy(values[expression]), true
	}

	prog, err := e.compile(normalize(code))
	if err != nil {
		return false, false
	}

	out, err := expr.Run(prog, map[string]any{"doc": values})
	if err != nil {
		return false, false
	}
	return Truthy(out), true
}

func (e *Evaluator) compile(code string) (*vm.Program, error) {
	e.mu.RLock()
	c, ok := e.cache[code]
	e.mu.RUnlock()
	if ok {
		return c.prog, c.err
	}

	prog, err := expr.Compile(code, expr.AllowUndefinedVariables())
	if err != nil {
		err = fmt.Errorf("compile condition: %w", err)
	}

	e.mu.Lock()
	e.cache[code] = compiled{prog: prog, err: err}
	e.mu.Unlock()
	return prog, err
}

// normalize rewrites JavaScript strict comparisons into expr operators.
func normalize(code string) string {
	code = strings.TrimSpace(code)
	code = strings.ReplaceAll(code, "!==", "!=")
	code = strings.ReplaceAll(code, "===", "==")
	return code
}

// Truthy applies JavaScript-like truthiness to a form value.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	case []any:
		return len(x) > 0
	case []map[string]any:
		return len(x) > 0
	default:
		return true
	}
}
