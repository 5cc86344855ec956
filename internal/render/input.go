package render

import (
	"sync"

	"kairos-gateway/internal/metadata"
)

// ChangeFunc receives a committed, normalized field value.
type ChangeFunc func(field string, value any)

// Input is the headless model of a single field widget. Numeric kinds keep
// the typed text as a draft and commit on Blur; every other kind commits on
// each Change.
type Input struct {
	mu       sync.Mutex
	field    metadata.Field
	draft    any
	value    any
	onChange ChangeFunc
}

func NewInput(f metadata.Field, value any, onChange ChangeFunc) *Input {
	return &Input{field: f, draft: value, value: value, onChange: onChange}
}

// Change records raw input from the widget.
func (i *Input) Change(raw any) {
	i.mu.Lock()
	i.draft = raw
	if i.field.Kind().IsNumeric() {
		i.mu.Unlock()
		return
	}
	v := Normalize(i.field.Kind(), raw)
	i.value = v
	i.mu.Unlock()
	i.emit(v)
}

// Blur commits the current draft and returns the committed value.
func (i *Input) Blur() any {
	i.mu.Lock()
	v := Normalize(i.field.Kind(), i.draft)
	i.value = v
	i.draft = v
	i.mu.Unlock()
	i.emit(v)
	return v
}

// Value returns the last committed value.
func (i *Input) Value() any {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.value
}

func (i *Input) emit(v any) {
	if i.onChange != nil {
		i.onChange(i.field.Name, v)
	}
}
