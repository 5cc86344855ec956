package metadata

import "strings"

// FieldKind is the closed set of field types the console knows how to lay out
// and render. Backend types outside this set parse to KindUnknown.
type FieldKind int

const (
	KindUnknown FieldKind = iota
	KindData
	KindSmallText
	KindText
	KindLongText
	KindTextEditor
	KindSelect
	KindLink
	KindDynamicLink
	KindDate
	KindDatetime
	KindTime
	KindInt
	KindFloat
	KindCurrency
	KindPercent
	KindCheck
	KindTable
	KindTableMultiSelect
	KindAttach
	KindAttachImage
	KindSectionBreak
	KindColumnBreak
	KindTabBreak
)

var kindNames = map[string]FieldKind{
	"Data":              KindData,
	"Small Text":        KindSmallText,
	"Text":              KindText,
	"Long Text":         KindLongText,
	"Text Editor":       KindTextEditor,
	"Select":            KindSelect,
	"Link":              KindLink,
	"Dynamic Link":      KindDynamicLink,
	"Date":              KindDate,
	"Datetime":          KindDatetime,
	"Time":              KindTime,
	"Int":               KindInt,
	"Float":             KindFloat,
	"Currency":          KindCurrency,
	"Percent":           KindPercent,
	"Check":             KindCheck,
	"Table":             KindTable,
	"Table MultiSelect": KindTableMultiSelect,
	"Attach":            KindAttach,
	"Attach Image":      KindAttachImage,
	"Section Break":     KindSectionBreak,
	"Column Break":      KindColumnBreak,
	"Tab Break":         KindTabBreak,
}

// ParseKind maps a backend fieldtype string to a FieldKind.
func ParseKind(fieldtype string) FieldKind {
	if k, ok := kindNames[fieldtype]; ok {
		return k
	}
	return KindUnknown
}

func (k FieldKind) String() string {
	for name, kind := range kindNames {
		if kind == k {
			return name
		}
	}
	return "Unknown"
}

// IsLayout reports whether the kind only segments the form and never holds a value.
func (k FieldKind) IsLayout() bool {
	return k == KindSectionBreak || k == KindColumnBreak || k == KindTabBreak
}

// IsNumeric reports whether the kind holds a number (or null when cleared).
func (k FieldKind) IsNumeric() bool {
	switch k {
	case KindInt, KindFloat, KindCurrency, KindPercent:
		return true
	}
	return false
}

// IsMulti reports whether the kind holds a list of sub-documents.
func (k FieldKind) IsMulti() bool {
	return k == KindTable || k == KindTableMultiSelect
}

// Field is one field descriptor as declared by the backend schema.
// Integer flags mirror the backend's 0/1 encoding.
type Field struct {
	Name               string `json:"fieldname"`
	Type               string `json:"fieldtype"`
	Label              string `json:"label,omitempty"`
	Reqd               int    `json:"reqd,omitempty"`
	ReadOnly           int    `json:"read_only,omitempty"`
	Hidden             int    `json:"hidden,omitempty"`
	Options            string `json:"options,omitempty"`
	Default            any    `json:"default,omitempty"`
	Description        string `json:"description,omitempty"`
	DependsOn          string `json:"depends_on,omitempty"`
	MandatoryDependsOn string `json:"mandatory_depends_on,omitempty"`
	ReadOnlyDependsOn  string `json:"read_only_depends_on,omitempty"`
	InListView         int    `json:"in_list_view,omitempty"`
}

func (f Field) Kind() FieldKind { return ParseKind(f.Type) }

func (f Field) IsRequired() bool { return f.Reqd == 1 }
func (f Field) IsReadOnly() bool { return f.ReadOnly == 1 }
func (f Field) IsHidden() bool   { return f.Hidden == 1 }
func (f Field) InList() bool     { return f.InListView == 1 }

// SelectOptions splits newline-separated Select options, dropping blanks.
func (f Field) SelectOptions() []string {
	if f.Kind() != KindSelect || f.Options == "" {
		return nil
	}
	var opts []string
	for _, o := range strings.Split(f.Options, "\n") {
		if o = strings.TrimSpace(o); o != "" {
			opts = append(opts, o)
		}
	}
	return opts
}

// DisplayLabel returns the label, or a title-cased fieldname when unset.
func (f Field) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	words := strings.Split(f.Name, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
