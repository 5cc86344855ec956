package frappe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Filter is one [field, operator, value] condition.
type Filter struct {
	Field    string
	Operator string
	Value    any
}

func (f Filter) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{f.Field, f.Operator, f.Value})
}

func (f *Filter) UnmarshalJSON(data []byte) error {
	var parts []any
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	// [doctype, field, op, value] is accepted as well.
	if len(parts) == 4 {
		parts = parts[1:]
	}
	if len(parts) != 3 {
		return fmt.Errorf("filter must have 3 elements, got %d", len(parts))
	}
	field, _ := parts[0].(string)
	op, _ := parts[1].(string)
	if field == "" || op == "" {
		return fmt.Errorf("filter field and operator must be strings")
	}
	f.Field, f.Operator, f.Value = field, op, parts[2]
	return nil
}

// ListQuery is the parameter set of a generic list request.
type ListQuery struct {
	Fields     []string
	Filters    []Filter
	OrFilters  []Filter
	OrderBy    string
	Start      int
	PageLength int
}

func (q ListQuery) values() (url.Values, error) {
	v := url.Values{}
	if len(q.Fields) > 0 {
		b, err := json.Marshal(q.Fields)
		if err != nil {
			return nil, err
		}
		v.Set("fields", string(b))
	}
	if len(q.Filters) > 0 {
		b, err := json.Marshal(q.Filters)
		if err != nil {
			return nil, err
		}
		v.Set("filters", string(b))
	}
	if len(q.OrFilters) > 0 {
		b, err := json.Marshal(q.OrFilters)
		if err != nil {
			return nil, err
		}
		v.Set("or_filters", string(b))
	}
	if q.OrderBy != "" {
		v.Set("order_by", q.OrderBy)
	}
	if q.Start > 0 {
		v.Set("limit_start", strconv.Itoa(q.Start))
	}
	if q.PageLength > 0 {
		v.Set("limit_page_length", strconv.Itoa(q.PageLength))
	}
	return v, nil
}

func resourcePath(doctype string, name ...string) string {
	p := "/api/resource/" + url.PathEscape(doctype)
	if len(name) > 0 && name[0] != "" {
		p += "/" + url.PathEscape(name[0])
	}
	return p
}

// List returns one page of documents.
func (c *Client) List(ctx context.Context, doctype string, q ListQuery) ([]map[string]any, error) {
	vals, err := q.values()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", doctype, err)
	}
	var rows []map[string]any
	if err := c.do(ctx, http.MethodGet, resourcePath(doctype), vals, nil, &rows); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return rows, nil
}

// Count returns the number of documents matching filters.
func (c *Client) Count(ctx context.Context, doctype string, filters []Filter) (int, error) {
	args := url.Values{"doctype": {doctype}}
	if len(filters) > 0 {
		b, err := json.Marshal(filters)
		if err != nil {
			return 0, fmt.Errorf("count %s: %w", doctype, err)
		}
		args.Set("filters", string(b))
	}
	var n int
	if err := c.Call(ctx, "frappe.client.get_count", args, &n); err != nil {
		return 0, err
	}
	return n, nil
}

func (c *Client) Get(ctx context.Context, doctype, name string) (map[string]any, error) {
	var doc map[string]any
	if err := c.do(ctx, http.MethodGet, resourcePath(doctype, name), nil, nil, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Insert creates a document and returns it as stored.
func (c *Client) Insert(ctx context.Context, doctype string, doc map[string]any) (map[string]any, error) {
	var out map[string]any
	if err := c.do(ctx, http.MethodPost, resourcePath(doctype), nil, doc, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update changes the given fields of a document and returns it as stored.
func (c *Client) Update(ctx context.Context, doctype, name string, changes map[string]any) (map[string]any, error) {
	var out map[string]any
	if err := c.do(ctx, http.MethodPut, resourcePath(doctype, name), nil, changes, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Delete(ctx context.Context, doctype, name string) error {
	return c.do(ctx, http.MethodDelete, resourcePath(doctype, name), nil, nil, nil)
}
