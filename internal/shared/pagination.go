package shared

import "math"

const (
	// DefaultPageSize applies when callers pass a non-positive page size.
	DefaultPageSize = 20
	// MaxPageSize caps page size requests.
	MaxPageSize = 200
)

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, pageSize, total int) Pagination {
	page, pageSize = NormalizePage(page, pageSize)
	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))
	return Pagination{Page: page, PageSize: pageSize, Total: total, TotalPages: totalPages}
}

// NormalizePage clamps page and page size to usable values.
func NormalizePage(page, pageSize int) (int, int) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if page <= 0 {
		page = 1
	}
	return page, pageSize
}

// Offset returns the row offset of the first item of the page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Page is one window of an offset-paginated listing.
type Page[T any] struct {
	Items []T `json:"items"`
	Pagination
}

// Paginate filters items with keep (nil keeps everything) and returns the requested window.
func Paginate[T any](items []T, page, pageSize int, keep func(T) bool) Page[T] {
	matched := items
	if keep != nil {
		matched = make([]T, 0, len(items))
		for _, item := range items {
			if keep(item) {
				matched = append(matched, item)
			}
		}
	}
	meta := NewPagination(page, pageSize, len(matched))
	start := meta.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + meta.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	window := make([]T, end-start)
	copy(window, matched[start:end])
	return Page[T]{Items: window, Pagination: meta}
}
