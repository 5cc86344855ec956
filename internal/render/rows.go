package render

import (
	"fmt"

	"kairos-gateway/internal/depends"
	"kairos-gateway/internal/metadata"
)

// RowEditor edits the sub-documents of a Table field. Cells are normalized
// with the same per-kind rules as top-level fields.
type RowEditor struct {
	child *metadata.Schema
	rows  []map[string]any
}

// NewRowEditor wraps the current value of a Table field. Non-object entries
// are dropped.
func NewRowEditor(child *metadata.Schema, value any) *RowEditor {
	e := &RowEditor{child: child}
	for _, r := range asRows(value) {
		e.rows = append(e.rows, copyRow(r))
	}
	return e
}

// Append adds a row filled with child defaults and returns its index.
func (e *RowEditor) Append() int {
	row := map[string]any{}
	if e.child != nil {
		for _, f := range e.child.DataFields() {
			if f.Default != nil && f.Default != "" {
				row[f.Name] = Normalize(f.Kind(), f.Default)
			} else {
				row[f.Name] = Empty(f.Kind())
			}
		}
	}
	e.rows = append(e.rows, row)
	return len(e.rows) - 1
}

// Remove deletes the row at index i.
func (e *RowEditor) Remove(i int) error {
	if i < 0 || i >= len(e.rows) {
		return fmt.Errorf("row %d out of range (%d rows)", i, len(e.rows))
	}
	e.rows = append(e.rows[:i], e.rows[i+1:]...)
	return nil
}

// Set writes a cell value, normalized for the child field's kind.
func (e *RowEditor) Set(i int, field string, raw any) error {
	if i < 0 || i >= len(e.rows) {
		return fmt.Errorf("row %d out of range (%d rows)", i, len(e.rows))
	}
	kind := metadata.KindData
	if e.child != nil {
		f := e.child.GetField(field)
		if f == nil {
			return fmt.Errorf("unknown field %s in %s", field, e.child.Name)
		}
		kind = f.Kind()
	}
	e.rows[i][field] = Normalize(kind, raw)
	return nil
}

// Len returns the number of rows.
func (e *RowEditor) Len() int { return len(e.rows) }

// Rows returns the sub-documents with idx renumbered from 1.
func (e *RowEditor) Rows() []any {
	out := make([]any, len(e.rows))
	for i, r := range e.rows {
		row := copyRow(r)
		row["idx"] = i + 1
		out[i] = row
	}
	return out
}

// Cells describes row i in compact mode.
func (e *RowEditor) Cells(i int) []Descriptor {
	if i < 0 || i >= len(e.rows) || e.child == nil {
		return nil
	}
	cols := CompactColumns(e.child)
	for j := range cols {
		cols[j].Value = e.rows[i][cols[j].Field]
		if f := e.child.GetField(cols[j].Field); f != nil {
			st := depends.Static(*f)
			cols[j].Required = st.Required
			cols[j].ReadOnly = st.ReadOnly
		}
	}
	return cols
}

func asRows(value any) []map[string]any {
	switch v := value.(type) {
	case []map[string]any:
		return v
	case []any:
		rows := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				rows = append(rows, m)
			}
		}
		return rows
	}
	return nil
}

func copyRow(r map[string]any) map[string]any {
	c := make(map[string]any, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}
