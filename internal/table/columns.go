// Package table assembles list views: column definitions, sort state,
// column layout, pagination and per-type cell formatting.
package table

import (
	"kairos-gateway/internal/metadata"
)

// SelectionKey is the key of the synthetic checkbox column.
const SelectionKey = "__select"

// ModifiedKey is the implied last-modified column appended to every list.
const ModifiedKey = "modified"

const (
	DefaultWidth = 160
	MinWidth     = 60
)

// Column is one list column.
type Column struct {
	Key       string             `json:"key"`
	Label     string             `json:"label"`
	Type      string             `json:"type"`
	Kind      metadata.FieldKind `json:"-"`
	Sortable  bool               `json:"sortable"`
	Sticky    bool               `json:"sticky,omitempty"`
	Selection bool               `json:"selection,omitempty"`
	Width     int                `json:"width"`
	Align     string             `json:"align,omitempty"`
}

type Options struct {
	// Selectable adds the selection column in first position.
	Selectable bool
}

// Columns builds the columns of a list over s. Data columns come from the
// list-visible fields in schema order; a Modified column is appended when
// none of them is the modified timestamp.
func Columns(s *metadata.Schema, opts Options) []Column {
	fields := s.ListFields()
	cols := make([]Column, 0, len(fields)+2)

	if opts.Selectable {
		cols = append(cols, Column{
			Key:       SelectionKey,
			Type:      "selection",
			Sticky:    true,
			Selection: true,
			Width:     40,
		})
	}

	hasModified := false
	for _, f := range fields {
		if f.Name == ModifiedKey {
			hasModified = true
		}
		cols = append(cols, dataColumn(f))
	}

	if !hasModified {
		cols = append(cols, Column{
			Key:      ModifiedKey,
			Label:    "Modified",
			Type:     metadata.KindDatetime.String(),
			Kind:     metadata.KindDatetime,
			Sortable: true,
			Width:    DefaultWidth,
		})
	}
	return cols
}

func dataColumn(f metadata.Field) Column {
	c := Column{
		Key:      f.Name,
		Label:    f.DisplayLabel(),
		Type:     f.Type,
		Kind:     f.Kind(),
		Sortable: !f.Kind().IsMulti(),
		Width:    DefaultWidth,
	}
	if f.Kind().IsNumeric() {
		c.Align = "right"
	}
	if f.Kind() == metadata.KindCheck {
		c.Align = "center"
		c.Width = 90
	}
	return c
}

// DataKeys returns the backend field names needed to fill cols.
func DataKeys(cols []Column) []string {
	keys := []string{"name"}
	for _, c := range cols {
		if c.Selection || c.Key == "name" {
			continue
		}
		keys = append(keys, c.Key)
	}
	return keys
}

// ApplyView reorders and filters cols by a saved column order and visible
// set. Columns missing from order keep their relative position after the
// ordered ones. An empty visible set shows everything. The selection column
// stays first.
func ApplyView(cols []Column, order, visible []string) []Column {
	show := make(map[string]bool, len(visible))
	for _, k := range visible {
		show[k] = true
	}
	byKey := make(map[string]Column, len(cols))
	for _, c := range cols {
		byKey[c.Key] = c
	}

	out := make([]Column, 0, len(cols))
	used := make(map[string]bool, len(cols))
	keep := func(c Column) {
		if used[c.Key] {
			return
		}
		used[c.Key] = true
		if c.Selection || len(show) == 0 || show[c.Key] {
			out = append(out, c)
		}
	}

	for _, c := range cols {
		if c.Selection {
			keep(c)
		}
	}
	for _, k := range order {
		if c, ok := byKey[k]; ok {
			keep(c)
		}
	}
	for _, c := range cols {
		keep(c)
	}
	return out
}
