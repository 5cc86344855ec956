package metadata

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Fetcher retrieves a schema from the backend.
type Fetcher interface {
	FetchSchema(ctx context.Context, doctype string) (*Schema, error)
}

// Registry caches schemas by doctype name. Entries are never refreshed on
// their own; only Reload or Invalidate drops them.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
	fetcher Fetcher
	group   singleflight.Group
	logger  *zap.Logger
}

func NewRegistry(f Fetcher, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		schemas: make(map[string]*Schema),
		fetcher: f,
		logger:  logger.Named("Registry"),
	}
}

// Get returns the cached schema for doctype, fetching it on first use.
// Concurrent misses for the same doctype share a single fetch.
func (r *Registry) Get(ctx context.Context, doctype string) (*Schema, error) {
	if s := r.cached(doctype); s != nil {
		return s, nil
	}
	return r.fetch(ctx, doctype)
}

// Reload drops the cached schema and fetches it again.
func (r *Registry) Reload(ctx context.Context, doctype string) (*Schema, error) {
	r.Invalidate(doctype)
	return r.fetch(ctx, doctype)
}

// Invalidate drops the cached schema for doctype.
func (r *Registry) Invalidate(doctype string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.schemas, doctype)
}

// Put stores a schema directly. Used by tests and by callers that already
// hold a fetched schema.
func (r *Registry) Put(s *Schema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[s.Name] = s
}

// Cached returns the names of all cached doctypes.
func (r *Registry) Cached() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	return names
}

func (r *Registry) cached(doctype string) *Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.schemas[doctype]
}

// fetch shares one backend call among concurrent callers. The call is
// detached from any single caller's cancellation; each caller stops waiting
// when its own ctx ends.
func (r *Registry) fetch(ctx context.Context, doctype string) (*Schema, error) {
	shared := context.WithoutCancel(ctx)
	ch := r.group.DoChan(doctype, func() (any, error) {
		s, err := r.fetcher.FetchSchema(shared, doctype)
		if err != nil {
			return nil, err
		}
		if s.Name == "" {
			s.Name = doctype
		}
		r.Put(s)
		r.logger.Debug("schema cached", zap.String("doctype", doctype), zap.Int("fields", len(s.Fields)))
		return s, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch schema %s: %w", doctype, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("fetch schema %s: %w", doctype, res.Err)
		}
		return res.Val.(*Schema), nil
	}
}
