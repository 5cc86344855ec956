package form

import (
	"fmt"
	"sync"

	"kairos-gateway/internal/depends"
	"kairos-gateway/internal/metadata"
	"kairos-gateway/internal/render"
)

// FieldError is a per-field validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Form is one assembled form instance. Hidden fields keep their values so a
// field that becomes visible again shows what was entered before.
type Form struct {
	schema   *metadata.Schema
	eval     *depends.Evaluator
	sections []Section

	mu     sync.RWMutex
	values map[string]any
	states map[string]depends.State
}

// Assemble builds a form from a schema and optional initial document data.
func Assemble(s *metadata.Schema, initial map[string]any, eval *depends.Evaluator) *Form {
	if eval == nil {
		eval = depends.NewEvaluator()
	}
	f := &Form{
		schema:   s,
		eval:     eval,
		sections: Group(s),
		values:   InitialValues(s, initial),
	}
	f.states = eval.EvaluateAll(s, f.values)
	return f
}

func (f *Form) Schema() *metadata.Schema { return f.schema }

// Sections returns the static layout.
func (f *Form) Sections() []Section { return f.sections }

// Set stores a normalized value and recomputes every field's state.
func (f *Form) Set(field string, raw any) error {
	def := f.schema.GetField(field)
	if def == nil || def.Kind().IsLayout() {
		return fmt.Errorf("unknown field %s in %s", field, f.schema.Name)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[field] = render.Normalize(def.Kind(), raw)
	f.states = f.eval.EvaluateAll(f.schema, f.values)
	return nil
}

// Apply sets several values and recomputes state once. Unknown keys are
// reported but do not stop the others from being applied.
func (f *Form) Apply(values map[string]any) []FieldError {
	var errs []FieldError
	f.mu.Lock()
	defer f.mu.Unlock()
	for name, raw := range values {
		def := f.schema.GetField(name)
		if def == nil || def.Kind().IsLayout() {
			errs = append(errs, FieldError{Field: name, Rule: "unknown", Message: fmt.Sprintf("Unknown field: %s", name)})
			continue
		}
		f.values[name] = render.Normalize(def.Kind(), raw)
	}
	f.states = f.eval.EvaluateAll(f.schema, f.values)
	return errs
}

// Value returns the current value of a field.
func (f *Form) Value(field string) any {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.values[field]
}

// States returns a copy of the current per-field dependency states.
func (f *Form) States() map[string]depends.State {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]depends.State, len(f.states))
	for k, v := range f.states {
		out[k] = v
	}
	return out
}

// Payload returns the full value set, including hidden fields.
func (f *Form) Payload() map[string]any {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]any, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// Validate reports visible required fields that are empty.
func (f *Form) Validate() []FieldError {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var errs []FieldError
	for _, def := range f.schema.DataFields() {
		if Denied[def.Name] {
			continue
		}
		st := f.states[def.Name]
		if !st.Visible || !st.Required {
			continue
		}
		if isEmpty(f.values[def.Name]) {
			errs = append(errs, FieldError{
				Field:   def.Name,
				Rule:    "required",
				Message: fmt.Sprintf("%s is required", def.DisplayLabel()),
			})
		}
	}
	return errs
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []any:
		return len(x) == 0
	}
	return false
}

// ViewColumn and ViewSection mirror the layout with only visible fields,
// described for rendering.
type ViewColumn struct {
	Fields []render.Descriptor `json:"fields"`
}

type ViewSection struct {
	Name    string       `json:"name,omitempty"`
	Label   string       `json:"label"`
	Columns []ViewColumn `json:"columns"`
}

// View returns the renderable form. Sections whose fields are all hidden are
// omitted.
func (f *Form) View() []ViewSection {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]ViewSection, 0, len(f.sections))
	for _, sec := range f.sections {
		vs := ViewSection{Name: sec.Name, Label: sec.Label}
		for _, col := range sec.Columns {
			var vc ViewColumn
			for _, def := range col.Fields {
				st := f.states[def.Name]
				if !st.Visible {
					continue
				}
				vc.Fields = append(vc.Fields, render.Describe(def, f.values[def.Name], st, f.schema.Child(def)))
			}
			if len(vc.Fields) > 0 {
				vs.Columns = append(vs.Columns, vc)
			}
		}
		if len(vs.Columns) > 0 {
			out = append(out, vs)
		}
	}
	return out
}
