package shared

// Page size bounds for list queries
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Filter narrows and orders a list query
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
}

// DefaultFilter returns the first page, newest first
func DefaultFilter() Filter {
	return Filter{Page: 1, PageSize: DefaultPageSize, OrderBy: "created_at", OrderDir: "desc"}
}

// WithPage sets the page and page size. Non-positive values keep the
// current ones and the page size is capped at MaxPageSize.
func (f Filter) WithPage(page, pageSize int) Filter {
	if page > 0 {
		f.Page = page
	}
	if pageSize > 0 {
		f.PageSize = min(pageSize, MaxPageSize)
	}
	return f
}

// Offset is the number of rows before the filter's page
func (f Filter) Offset() int {
	return max(f.Page-1, 0) * f.PageSize
}

// Paginated is one page of a list result
type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginated wraps items as page of a result holding total rows
func NewPaginated[T any](items []T, total int64, page, pageSize int) Paginated[T] {
	p := Paginated[T]{Items: items, Total: total, Page: page, PageSize: pageSize}
	if pageSize > 0 {
		p.TotalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return p
}
