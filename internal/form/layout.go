// Package form assembles metadata-driven edit forms: layout grouping,
// default values, dependency state and the submit payload.
package form

import (
	"kairos-gateway/internal/metadata"
)

// Column holds the fields of one column in schema order.
type Column struct {
	Fields []metadata.Field `json:"fields"`
}

// Section is a labelled group of columns.
type Section struct {
	Name    string   `json:"name,omitempty"`
	Label   string   `json:"label"`
	Columns []Column `json:"columns"`
}

// Denied holds system field names that are never rendered, whatever the
// schema says.
var Denied = map[string]bool{
	"naming_series": true,
	"amended_from":  true,
	"docstatus":     true,
	"idx":           true,
	"owner":         true,
	"creation":      true,
	"modified":      true,
	"modified_by":   true,
	"parent":        true,
	"parentfield":   true,
	"parenttype":    true,
}

// Group splits schema fields into sections and columns. Section Break and
// Tab Break start a new section, Column Break a new column in the current
// section. Sections and columns left without fields are dropped.
func Group(s *metadata.Schema) []Section {
	var sections []Section
	cur := Section{Columns: []Column{{}}}

	flush := func() {
		var cols []Column
		for _, c := range cur.Columns {
			if len(c.Fields) > 0 {
				cols = append(cols, c)
			}
		}
		if len(cols) > 0 {
			cur.Columns = cols
			sections = append(sections, cur)
		}
	}

	for _, f := range s.Fields {
		switch f.Kind() {
		case metadata.KindSectionBreak, metadata.KindTabBreak:
			flush()
			cur = Section{Name: f.Name, Label: f.Label, Columns: []Column{{}}}
		case metadata.KindColumnBreak:
			cur.Columns = append(cur.Columns, Column{})
		default:
			if Denied[f.Name] {
				continue
			}
			last := len(cur.Columns) - 1
			cur.Columns[last].Fields = append(cur.Columns[last].Fields, f)
		}
	}
	flush()

	if sections == nil {
		sections = []Section{}
	}
	return sections
}
