package table

import (
	"fmt"
)

// Layout tracks user column order and widths.
type Layout struct {
	order  []string
	widths map[string]int
	fixed  string
}

func NewLayout(cols []Column) *Layout {
	l := &Layout{widths: make(map[string]int, len(cols))}
	for _, c := range cols {
		l.order = append(l.order, c.Key)
		l.widths[c.Key] = c.Width
		if c.Selection {
			l.fixed = c.Key
		}
	}
	return l
}

// Resize sets the width of col, clamped to MinWidth.
func (l *Layout) Resize(col string, width int) error {
	if _, ok := l.widths[col]; !ok {
		return fmt.Errorf("unknown column %s", col)
	}
	if col == l.fixed {
		return fmt.Errorf("column %s cannot be resized", col)
	}
	if width < MinWidth {
		width = MinWidth
	}
	l.widths[col] = width
	return nil
}

// Move places col at index to. The selection column never moves and nothing
// can be moved in front of it.
func (l *Layout) Move(col string, to int) error {
	from := -1
	for i, k := range l.order {
		if k == col {
			from = i
			break
		}
	}
	if from < 0 {
		return fmt.Errorf("unknown column %s", col)
	}
	if col == l.fixed {
		return fmt.Errorf("column %s cannot be moved", col)
	}

	lo := 0
	if l.fixed != "" {
		lo = 1
	}
	if to < lo {
		to = lo
	}
	if to > len(l.order)-1 {
		to = len(l.order) - 1
	}

	order := append(l.order[:from:from], l.order[from+1:]...)
	order = append(order[:to], append([]string{col}, order[to:]...)...)
	l.order = order
	return nil
}

// Order returns the current column keys in display order.
func (l *Layout) Order() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// Apply returns cols in layout order with layout widths.
func (l *Layout) Apply(cols []Column) []Column {
	byKey := make(map[string]Column, len(cols))
	for _, c := range cols {
		byKey[c.Key] = c
	}
	out := make([]Column, 0, len(cols))
	for _, k := range l.order {
		c, ok := byKey[k]
		if !ok {
			continue
		}
		if w, ok := l.widths[k]; ok {
			c.Width = w
		}
		out = append(out, c)
	}
	return out
}
