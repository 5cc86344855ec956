package views

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap"

	"kairos-gateway/internal/frappe"
)

// memBackend is an in-memory stand-in for generic document CRUD.
type memBackend struct {
	mu    sync.Mutex
	docs  map[string]map[string]any
	order []string
	seq   int
}

func newMemBackend() *memBackend {
	return &memBackend{docs: make(map[string]map[string]any)}
}

func (m *memBackend) List(_ context.Context, _ string, q frappe.ListQuery) ([]map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []map[string]any
	for _, name := range m.order {
		doc, ok := m.docs[name]
		if !ok || !matches(doc, q.Filters) {
			continue
		}
		out = append(out, copyDoc(doc))
	}
	return out, nil
}

func matches(doc map[string]any, filters []frappe.Filter) bool {
	for _, f := range filters {
		got := fmt.Sprint(doc[f.Field])
		want := fmt.Sprint(f.Value)
		switch f.Operator {
		case "=":
			if got != want {
				return false
			}
		case "!=":
			if got == want {
				return false
			}
		}
	}
	return true
}

func (m *memBackend) Get(_ context.Context, _ string, name string) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[name]
	if !ok {
		return nil, frappe.ErrNotFound
	}
	return copyDoc(doc), nil
}

func (m *memBackend) Insert(_ context.Context, _ string, doc map[string]any) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	name := fmt.Sprintf("SV-%04d", m.seq)
	d := copyDoc(doc)
	d["name"] = name
	d["owner"] = "asha@kairos.test"
	m.docs[name] = d
	m.order = append(m.order, name)
	return copyDoc(d), nil
}

func (m *memBackend) Update(_ context.Context, _ string, name string, changes map[string]any) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[name]
	if !ok {
		return nil, frappe.ErrNotFound
	}
	for k, v := range changes {
		doc[k] = v
	}
	return copyDoc(doc), nil
}

func (m *memBackend) Delete(_ context.Context, _ string, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, name)
	return nil
}

func copyDoc(d map[string]any) map[string]any {
	out := make(map[string]any, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

const owner = "asha@kairos.test"

func TestSave_SingleDefaultPerDoctype(t *testing.T) {
	svc := NewService(newMemBackend(), zap.NewNop())
	ctx := context.Background()

	first, err := svc.Save(ctx, SavedView{Title: "Active", ForDoctype: "Student", IsDefault: true}, owner)
	if err != nil {
		t.Fatalf("save first: %v", err)
	}
	other, err := svc.Save(ctx, SavedView{Title: "Guardians", ForDoctype: "Guardian", IsDefault: true}, owner)
	if err != nil {
		t.Fatalf("save other doctype: %v", err)
	}
	second, err := svc.Save(ctx, SavedView{Title: "Graduated", ForDoctype: "Student", IsDefault: true}, owner)
	if err != nil {
		t.Fatalf("save second: %v", err)
	}

	def, err := svc.Default(ctx, "Student", owner)
	if err != nil || def == nil || def.Name != second.Name {
		t.Fatalf("expected %s as default, got %+v (%v)", second.Name, def, err)
	}
	prev, _ := svc.Get(ctx, first.Name)
	if prev.IsDefault {
		t.Fatal("previous default must be cleared")
	}
	g, _ := svc.Get(ctx, other.Name)
	if !g.IsDefault {
		t.Fatal("defaults of other doctypes are untouched")
	}
}

func TestSave_NormalizesFields(t *testing.T) {
	svc := NewService(newMemBackend(), zap.NewNop())
	v, err := svc.Save(context.Background(), SavedView{
		Title:          "  All  ",
		ForDoctype:     "Student",
		PageSize:       9000,
		FavoriteFolder: "Admissions",
		SortField:      "modified",
		Filters:        []frappe.Filter{{Field: "enabled", Operator: "=", Value: 1.0}},
		Columns:        []string{"first_name", "program"},
	}, owner)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if v.PageSize != MaxPageSize {
		t.Fatalf("expected page size clamp, got %d", v.PageSize)
	}
	if v.FavoriteFolder != "" {
		t.Fatal("favorite folder must be cleared when not a favorite")
	}
	if v.Title != "All" || v.SortOrder != "desc" {
		t.Fatalf("unexpected title/sort %q %q", v.Title, v.SortOrder)
	}
	if len(v.Filters) != 1 || v.Filters[0].Field != "enabled" || len(v.Columns) != 2 {
		t.Fatalf("expected filters and columns to round-trip, got %+v", v)
	}

	v.IsFavorite = true
	v.FavoriteFolder = "Admissions"
	v.PageSize = 0
	updated, err := svc.Save(context.Background(), *v, owner)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.FavoriteFolder != "Admissions" || updated.PageSize != DefaultPageSize {
		t.Fatalf("unexpected update %+v", updated)
	}
}

func TestSave_Validation(t *testing.T) {
	svc := NewService(newMemBackend(), zap.NewNop())
	_, err := svc.Save(context.Background(), SavedView{ForDoctype: "Student"}, owner)
	ie, ok := err.(*InvalidError)
	if !ok || ie.Field != "title" {
		t.Fatalf("expected title error, got %v", err)
	}
}
