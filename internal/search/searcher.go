// Package search implements grouped global search across doctypes and the
// per-user recent items list.
package search

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"kairos-gateway/internal/frappe"
	"kairos-gateway/internal/instrument"
	"kairos-gateway/internal/metadata"
)

// Backend is the part of the frappe client search needs.
type Backend interface {
	GlobalSearch(ctx context.Context, text, doctype string, limit int) ([]frappe.GlobalHit, error)
	List(ctx context.Context, doctype string, q frappe.ListQuery) ([]map[string]any, error)
}

// Schemas resolves title fields for the fallback path. May be nil.
type Schemas interface {
	Get(ctx context.Context, doctype string) (*metadata.Schema, error)
}

type Result struct {
	Doctype string `json:"doctype"`
	Name    string `json:"name"`
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
}

// Group holds the results of one doctype, capped at the per-type limit.
type Group struct {
	Doctype string   `json:"doctype"`
	Results []Result `json:"results"`
}

type Searcher struct {
	backend      Backend
	schemas      Schemas
	doctypes     []string
	limitPerType int
	logger       *zap.Logger
}

func NewSearcher(backend Backend, schemas Schemas, doctypes []string, limitPerType int, logger *zap.Logger) *Searcher {
	if limitPerType <= 0 {
		limitPerType = 5
	}
	return &Searcher{
		backend:      backend,
		schemas:      schemas,
		doctypes:     doctypes,
		limitPerType: limitPerType,
		logger:       logger.Named("Search"),
	}
}

// Doctypes returns the default searchable doctypes.
func (s *Searcher) Doctypes() []string { return s.doctypes }

// Search queries the backend full-text index once per doctype, in parallel,
// so a doctype with many matches cannot crowd out the others. A doctype whose
// index query fails falls back to a list query; failures of those are logged
// and skipped.
func (s *Searcher) Search(ctx context.Context, query string, doctypes []string) ([]Group, error) {
	query = strings.TrimSpace(query)
	if len(doctypes) == 0 {
		doctypes = s.doctypes
	}
	if query == "" || len(doctypes) == 0 {
		return []Group{}, nil
	}

	ctx, span := instrument.GetInstrumenter(ctx).StartSpan(ctx, "search", "searcher", "search.global")
	defer span.End()
	span.SetMetadata("query", query)

	var (
		mu       sync.Mutex
		results  []Result
		fallback atomic.Int32
		g        errgroup.Group
	)
	for _, dt := range doctypes {
		g.Go(func() error {
			rs, err := s.searchDoctype(ctx, dt, query)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				fallback.Add(1)
				s.logger.Debug("global search failed, listing instead", zap.String("doctype", dt), zap.Error(err))
				if rs, err = s.listMatches(ctx, dt, query); err != nil {
					s.logger.Debug("fallback search failed", zap.String("doctype", dt), zap.Error(err))
					return nil
				}
			}
			mu.Lock()
			results = append(results, rs...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if n := fallback.Load(); n > 0 {
		s.logger.Warn("global search degraded to list queries", zap.String("query", query), zap.Int32("doctypes", n))
		span.SetMetadata("fallback", n)
	}
	return s.group(doctypes, results), nil
}

func (s *Searcher) searchDoctype(ctx context.Context, doctype, query string) ([]Result, error) {
	hits, err := s.backend.GlobalSearch(ctx, query, doctype, s.limitPerType)
	if err != nil {
		return nil, err
	}
	return fromHits(hits), nil
}

func fromHits(hits []frappe.GlobalHit) []Result {
	out := make([]Result, 0, len(hits))
	for _, h := range hits {
		title := h.Title
		if title == "" {
			title = h.Name
		}
		out = append(out, Result{Doctype: h.Doctype, Name: h.Name, Title: title, Content: h.Content})
	}
	return out
}

// group keeps doctypes order, drops empty groups and caps each group.
func (s *Searcher) group(doctypes []string, results []Result) []Group {
	byType := make(map[string][]Result, len(doctypes))
	for _, r := range results {
		if len(byType[r.Doctype]) < s.limitPerType {
			byType[r.Doctype] = append(byType[r.Doctype], r)
		}
	}
	groups := make([]Group, 0, len(doctypes))
	for _, dt := range doctypes {
		if rs := byType[dt]; len(rs) > 0 {
			groups = append(groups, Group{Doctype: dt, Results: rs})
		}
	}
	return groups
}

func (s *Searcher) listMatches(ctx context.Context, doctype, query string) ([]Result, error) {
	title := "name"
	if s.schemas != nil {
		if schema, err := s.schemas.Get(ctx, doctype); err == nil {
			title = schema.Title()
		}
	}

	like := "%" + query + "%"
	q := frappe.ListQuery{
		Fields:     []string{"name"},
		OrFilters:  []frappe.Filter{{Field: "name", Operator: "like", Value: like}},
		PageLength: s.limitPerType,
	}
	if title != "name" {
		q.Fields = append(q.Fields, title)
		q.OrFilters = append(q.OrFilters, frappe.Filter{Field: title, Operator: "like", Value: like})
	}

	rows, err := s.backend.List(ctx, doctype, q)
	if err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(rows))
	for _, row := range rows {
		name, _ := row["name"].(string)
		label, _ := row[title].(string)
		if label == "" {
			label = name
		}
		out = append(out, Result{Doctype: doctype, Name: name, Title: label})
	}
	return out, nil
}
