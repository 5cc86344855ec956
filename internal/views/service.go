package views

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"kairos-gateway/internal/frappe"
)

// Backend is the generic CRUD surface saved views are stored through.
type Backend interface {
	List(ctx context.Context, doctype string, q frappe.ListQuery) ([]map[string]any, error)
	Get(ctx context.Context, doctype, name string) (map[string]any, error)
	Insert(ctx context.Context, doctype string, doc map[string]any) (map[string]any, error)
	Update(ctx context.Context, doctype, name string, changes map[string]any) (map[string]any, error)
	Delete(ctx context.Context, doctype, name string) error
}

type Service struct {
	backend Backend
	logger  *zap.Logger
}

func NewService(backend Backend, logger *zap.Logger) *Service {
	return &Service{backend: backend, logger: logger.Named("Views")}
}

var viewFields = []string{
	"name", "title", "for_doctype", "filters", "sort_field", "sort_order",
	"columns", "visible_columns", "page_size", "is_default", "is_favorite",
	"favorite_folder", "owner", "modified",
}

// List returns the views of owner for doctype, default first then by title.
func (s *Service) List(ctx context.Context, doctype, owner string) ([]SavedView, error) {
	filters := []frappe.Filter{{Field: "for_doctype", Operator: "=", Value: doctype}}
	if owner != "" {
		filters = append(filters, frappe.Filter{Field: "owner", Operator: "=", Value: owner})
	}
	rows, err := s.backend.List(ctx, Doctype, frappe.ListQuery{
		Fields:     viewFields,
		Filters:    filters,
		OrderBy:    "is_default desc, title asc",
		PageLength: 500,
	})
	if err != nil {
		return nil, fmt.Errorf("list saved views for %s: %w", doctype, err)
	}
	out := make([]SavedView, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromDoc(row))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, name string) (*SavedView, error) {
	doc, err := s.backend.Get(ctx, Doctype, name)
	if err != nil {
		return nil, err
	}
	v := fromDoc(doc)
	return &v, nil
}

// Default returns owner's default view for doctype, or nil if none is set.
func (s *Service) Default(ctx context.Context, doctype, owner string) (*SavedView, error) {
	views, err := s.List(ctx, doctype, owner)
	if err != nil {
		return nil, err
	}
	for i := range views {
		if views[i].IsDefault {
			return &views[i], nil
		}
	}
	return nil, nil
}

// Save creates the view when it has no name and updates it otherwise.
// Saving a default view clears the default flag on owner's other views of
// the same doctype, one update at a time.
func (s *Service) Save(ctx context.Context, v SavedView, owner string) (*SavedView, error) {
	v.Normalize()
	if err := v.Validate(); err != nil {
		return nil, err
	}
	doc, err := v.toDoc()
	if err != nil {
		return nil, err
	}

	var stored map[string]any
	if v.Name == "" {
		stored, err = s.backend.Insert(ctx, Doctype, doc)
	} else {
		stored, err = s.backend.Update(ctx, Doctype, v.Name, doc)
	}
	if err != nil {
		return nil, err
	}
	saved := fromDoc(stored)

	if saved.IsDefault {
		s.clearOtherDefaults(ctx, saved, owner)
	}
	return &saved, nil
}

func (s *Service) clearOtherDefaults(ctx context.Context, saved SavedView, owner string) {
	if owner == "" {
		owner = saved.Owner
	}
	filters := []frappe.Filter{
		{Field: "for_doctype", Operator: "=", Value: saved.ForDoctype},
		{Field: "is_default", Operator: "=", Value: 1},
		{Field: "name", Operator: "!=", Value: saved.Name},
	}
	if owner != "" {
		filters = append(filters, frappe.Filter{Field: "owner", Operator: "=", Value: owner})
	}
	rows, err := s.backend.List(ctx, Doctype, frappe.ListQuery{Fields: []string{"name"}, Filters: filters, PageLength: 500})
	if err != nil {
		s.logger.Warn("list previous default views", zap.String("doctype", saved.ForDoctype), zap.Error(err))
		return
	}
	for _, row := range rows {
		name := str(row["name"])
		if name == "" || name == saved.Name {
			continue
		}
		if _, err := s.backend.Update(ctx, Doctype, name, map[string]any{"is_default": 0}); err != nil {
			s.logger.Warn("clear previous default view", zap.String("view", name), zap.Error(err))
		}
	}
}

func (s *Service) Delete(ctx context.Context, name string) error {
	return s.backend.Delete(ctx, Doctype, name)
}
