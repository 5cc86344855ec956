package table

import (
	"fmt"
	"strings"
)

type Direction string

const (
	None Direction = ""
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection accepts asc/desc in any case; anything else is None.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc":
		return Asc
	case "desc":
		return Desc
	}
	return None
}

// Sort is the header sort state of a list. Only one column sorts at a time.
type Sort struct {
	Field     string    `json:"field,omitempty"`
	Direction Direction `json:"direction,omitempty"`
}

// Toggle advances the sort of field through asc, desc, none. Toggling a
// different field starts it at asc.
func (s Sort) Toggle(field string) Sort {
	if s.Field != field || s.Direction == None {
		return Sort{Field: field, Direction: Asc}
	}
	if s.Direction == Asc {
		return Sort{Field: field, Direction: Desc}
	}
	return Sort{}
}

func (s Sort) Active() bool {
	return s.Field != "" && s.Direction != None
}

// OrderBy renders the backend order_by clause, or fallback when unsorted.
func (s Sort) OrderBy(fallback string) string {
	if !s.Active() {
		return fallback
	}
	return fmt.Sprintf("%s %s", s.Field, s.Direction)
}

// ValidFor reports whether the sort targets a sortable column.
func (s Sort) ValidFor(cols []Column) bool {
	if !s.Active() {
		return true
	}
	for _, c := range cols {
		if c.Key == s.Field {
			return c.Sortable
		}
	}
	return s.Field == "name"
}
