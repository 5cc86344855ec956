// Package render maps schema field kinds to input widgets and owns the value
// conventions every widget follows.
package render

import (
	"kairos-gateway/internal/depends"
	"kairos-gateway/internal/metadata"
)

// Widget names the input component the browser shell paints for a field.
type Widget string

const (
	WidgetNone        Widget = ""
	WidgetText        Widget = "text"
	WidgetTextarea    Widget = "textarea"
	WidgetEditor      Widget = "editor"
	WidgetSelect      Widget = "select"
	WidgetLink        Widget = "link"
	WidgetDynamicLink Widget = "dynamic_link"
	WidgetDate        Widget = "date"
	WidgetDatetime    Widget = "datetime"
	WidgetTime        Widget = "time"
	WidgetInt         Widget = "int"
	WidgetFloat       Widget = "float"
	WidgetCurrency    Widget = "currency"
	WidgetPercent     Widget = "percent"
	WidgetCheckbox    Widget = "checkbox"
	WidgetTable       Widget = "table"
	WidgetMultiSelect Widget = "multiselect"
	WidgetFile        Widget = "file"
	WidgetImage       Widget = "image"
)

// For returns the widget for a field kind. Layout kinds have no widget and
// unknown kinds fall back to plain text.
func For(k metadata.FieldKind) Widget {
	switch k {
	case metadata.KindSectionBreak, metadata.KindColumnBreak, metadata.KindTabBreak:
		return WidgetNone
	case metadata.KindData:
		return WidgetText
	case metadata.KindSmallText, metadata.KindText, metadata.KindLongText:
		return WidgetTextarea
	case metadata.KindTextEditor:
		return WidgetEditor
	case metadata.KindSelect:
		return WidgetSelect
	case metadata.KindLink:
		return WidgetLink
	case metadata.KindDynamicLink:
		return WidgetDynamicLink
	case metadata.KindDate:
		return WidgetDate
	case metadata.KindDatetime:
		return WidgetDatetime
	case metadata.KindTime:
		return WidgetTime
	case metadata.KindInt:
		return WidgetInt
	case metadata.KindFloat:
		return WidgetFloat
	case metadata.KindCurrency:
		return WidgetCurrency
	case metadata.KindPercent:
		return WidgetPercent
	case metadata.KindCheck:
		return WidgetCheckbox
	case metadata.KindTable:
		return WidgetTable
	case metadata.KindTableMultiSelect:
		return WidgetMultiSelect
	case metadata.KindAttach:
		return WidgetFile
	case metadata.KindAttachImage:
		return WidgetImage
	case metadata.KindUnknown:
		return WidgetText
	default:
		return WidgetText
	}
}

// Descriptor is everything a widget needs to paint one field.
type Descriptor struct {
	Field       string       `json:"field"`
	Widget      Widget       `json:"widget"`
	Label       string       `json:"label"`
	Value       any          `json:"value"`
	Required    bool         `json:"required"`
	ReadOnly    bool         `json:"read_only"`
	Description string       `json:"description,omitempty"`
	Options     []string     `json:"options,omitempty"`
	LinkDoctype string       `json:"link_doctype,omitempty"`
	Compact     bool         `json:"compact,omitempty"`
	Columns     []Descriptor `json:"columns,omitempty"`
}

// Describe builds the descriptor of f given its current value and state.
// child is the schema behind a Table field and may be nil.
func Describe(f metadata.Field, value any, st depends.State, child *metadata.Schema) Descriptor {
	d := Descriptor{
		Field:       f.Name,
		Widget:      For(f.Kind()),
		Label:       f.DisplayLabel(),
		Value:       value,
		Required:    st.Required,
		ReadOnly:    st.ReadOnly,
		Description: f.Description,
	}

	switch f.Kind() {
	case metadata.KindSelect:
		d.Options = f.SelectOptions()
	case metadata.KindLink, metadata.KindTableMultiSelect:
		d.LinkDoctype = f.Options
	case metadata.KindDynamicLink:
		// Options names the sibling field holding the target doctype.
		d.Options = []string{f.Options}
	case metadata.KindTable:
		d.Columns = CompactColumns(child)
	}
	return d
}

// CompactColumns describes the cells of a child table in compact mode. Fields
// flagged for list display are used when any are; otherwise all data fields.
func CompactColumns(child *metadata.Schema) []Descriptor {
	if child == nil {
		return nil
	}
	fields := child.ListFields()
	if len(fields) == 0 {
		fields = child.DataFields()
	}
	cols := make([]Descriptor, 0, len(fields))
	for _, f := range fields {
		d := Describe(f, nil, depends.Static(f), nil)
		d.Compact = true
		cols = append(cols, d)
	}
	return cols
}
