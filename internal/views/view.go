// Package views manages Saved View documents: persisted list filters, sort
// and column choices per doctype.
package views

import (
	"encoding/json"
	"fmt"
	"strings"

	"kairos-gateway/internal/frappe"
)

// Doctype is the backend doctype holding saved views.
const Doctype = "Saved View"

const (
	DefaultPageSize = 20
	MaxPageSize     = 500
)

type SavedView struct {
	Name           string          `json:"name,omitempty"`
	Title          string          `json:"title"`
	ForDoctype     string          `json:"for_doctype"`
	Filters        []frappe.Filter `json:"filters"`
	SortField      string          `json:"sort_field,omitempty"`
	SortOrder      string          `json:"sort_order,omitempty"`
	Columns        []string        `json:"columns"`
	VisibleColumns []string        `json:"visible_columns"`
	PageSize       int             `json:"page_size"`
	IsDefault      bool            `json:"is_default"`
	IsFavorite     bool            `json:"is_favorite"`
	FavoriteFolder string          `json:"favorite_folder,omitempty"`
	Owner          string          `json:"owner,omitempty"`
	Modified       string          `json:"modified,omitempty"`
}

// InvalidError reports a view field that cannot be saved.
type InvalidError struct {
	Field   string
	Message string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("saved view %s: %s", e.Field, e.Message)
}

// Normalize applies the storage rules: page size clamped to 1..MaxPageSize
// (DefaultPageSize when unset), sort order asc or desc, and no folder unless
// the view is a favorite.
func (v *SavedView) Normalize() {
	v.Title = strings.TrimSpace(v.Title)
	if v.PageSize <= 0 {
		v.PageSize = DefaultPageSize
	}
	if v.PageSize > MaxPageSize {
		v.PageSize = MaxPageSize
	}
	switch strings.ToLower(v.SortOrder) {
	case "asc":
		v.SortOrder = "asc"
	case "desc":
		v.SortOrder = "desc"
	default:
		v.SortOrder = ""
	}
	if !v.IsFavorite {
		v.FavoriteFolder = ""
	}
	if v.Filters == nil {
		v.Filters = []frappe.Filter{}
	}
}

func (v *SavedView) Validate() error {
	if v.Title == "" {
		return &InvalidError{Field: "title", Message: "Title is required"}
	}
	if v.ForDoctype == "" {
		return &InvalidError{Field: "for_doctype", Message: "For Doctype is required"}
	}
	if v.SortField != "" && v.SortOrder == "" {
		v.SortOrder = "desc"
	}
	return nil
}

// toDoc encodes the view as a backend document. List-valued fields are
// stored as JSON text.
func (v *SavedView) toDoc() (map[string]any, error) {
	filters, err := json.Marshal(v.Filters)
	if err != nil {
		return nil, fmt.Errorf("encode filters: %w", err)
	}
	columns, err := json.Marshal(nonNil(v.Columns))
	if err != nil {
		return nil, fmt.Errorf("encode columns: %w", err)
	}
	visible, err := json.Marshal(nonNil(v.VisibleColumns))
	if err != nil {
		return nil, fmt.Errorf("encode visible columns: %w", err)
	}
	return map[string]any{
		"title":           v.Title,
		"for_doctype":     v.ForDoctype,
		"filters":         string(filters),
		"sort_field":      v.SortField,
		"sort_order":      v.SortOrder,
		"columns":         string(columns),
		"visible_columns": string(visible),
		"page_size":       v.PageSize,
		"is_default":      flag(v.IsDefault),
		"is_favorite":     flag(v.IsFavorite),
		"favorite_folder": v.FavoriteFolder,
	}, nil
}

func fromDoc(doc map[string]any) SavedView {
	v := SavedView{
		Name:           str(doc["name"]),
		Title:          str(doc["title"]),
		ForDoctype:     str(doc["for_doctype"]),
		SortField:      str(doc["sort_field"]),
		SortOrder:      str(doc["sort_order"]),
		FavoriteFolder: str(doc["favorite_folder"]),
		Owner:          str(doc["owner"]),
		Modified:       str(doc["modified"]),
		PageSize:       int(num(doc["page_size"])),
		IsDefault:      num(doc["is_default"]) != 0,
		IsFavorite:     num(doc["is_favorite"]) != 0,
	}
	decodeJSON(doc["filters"], &v.Filters)
	decodeJSON(doc["columns"], &v.Columns)
	decodeJSON(doc["visible_columns"], &v.VisibleColumns)
	v.Normalize()
	return v
}

// decodeJSON accepts either JSON text or an already decoded value.
func decodeJSON(raw any, out any) {
	switch x := raw.(type) {
	case nil:
	case string:
		if x != "" {
			_ = json.Unmarshal([]byte(x), out)
		}
	default:
		if b, err := json.Marshal(x); err == nil {
			_ = json.Unmarshal(b, out)
		}
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func num(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case bool:
		if x {
			return 1
		}
	}
	return 0
}
