package table

const (
	DefaultPageSize = 20
	MaxPageSize     = 500
)

// Pagination reflects server-side paging. Rows are fetched by the caller
// for the current page; the table never slices them itself unless Total is
// unknown.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}

// NewPagination clamps page to >= 1 and size to 1..MaxPageSize, defaulting
// to DefaultPageSize.
func NewPagination(page, size, total int) Pagination {
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	if page < 1 {
		page = 1
	}
	return Pagination{Page: page, PageSize: size, Total: total}
}

// Offset is the limit_start sent to the backend.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func (p Pagination) TotalPages() int {
	if p.Total <= 0 || p.PageSize <= 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

func (p Pagination) HasNext() bool { return p.Page < p.TotalPages() }
func (p Pagination) HasPrev() bool { return p.Page > 1 }

// Slice pages rows locally. Only for lists whose rows are all held in
// memory; server-driven lists pass the fetched page straight through.
func Slice[T any](rows []T, p Pagination) []T {
	start := p.Offset()
	if start >= len(rows) {
		return []T{}
	}
	end := start + p.PageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}
