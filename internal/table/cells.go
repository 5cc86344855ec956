package table

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"kairos-gateway/internal/metadata"
)

// Row is one formatted list row keyed by column.
type Row struct {
	ID    string            `json:"id"`
	Cells map[string]string `json:"cells"`
	Raw   map[string]any    `json:"raw"`
}

// BuildRows formats docs for cols. The document name is the row id.
func BuildRows(cols []Column, docs []map[string]any) []Row {
	rows := make([]Row, 0, len(docs))
	for _, d := range docs {
		r := Row{
			ID:    FormatCell(metadata.KindData, d["name"]),
			Cells: make(map[string]string, len(cols)),
			Raw:   d,
		}
		for _, c := range cols {
			if c.Selection {
				continue
			}
			r.Cells[c.Key] = FormatCell(c.Kind, d[c.Key])
		}
		rows = append(rows, r)
	}
	return rows
}

var backendLayouts = []string{
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
}

// FormatCell renders a value for display according to its field kind.
func FormatCell(k metadata.FieldKind, v any) string {
	if v == nil {
		return ""
	}
	switch k {
	case metadata.KindCurrency:
		if f, ok := number(v); ok {
			return strconv.FormatFloat(f, 'f', 2, 64)
		}
	case metadata.KindPercent:
		if f, ok := number(v); ok {
			return strconv.FormatFloat(f, 'f', -1, 64) + "%"
		}
	case metadata.KindFloat:
		if f, ok := number(v); ok {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	case metadata.KindInt:
		if f, ok := number(v); ok {
			return strconv.FormatInt(int64(f), 10)
		}
	case metadata.KindCheck:
		if f, ok := number(v); ok {
			if f != 0 {
				return "Yes"
			}
			return "No"
		}
		if b, ok := v.(bool); ok {
			if b {
				return "Yes"
			}
			return "No"
		}
	case metadata.KindDate:
		if t, ok := parseTime(v); ok {
			return t.Format("2006-01-02")
		}
	case metadata.KindDatetime:
		if t, ok := parseTime(v); ok {
			return t.Format("2006-01-02 15:04")
		}
	case metadata.KindTable, metadata.KindTableMultiSelect:
		if rows, ok := v.([]any); ok {
			return fmt.Sprintf("%d rows", len(rows))
		}
	}

	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

func parseTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		for _, layout := range backendLayouts {
			if t, err := time.Parse(layout, x); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
