package store

import "math"

// DefaultPageSize is the dashboard page size.
const DefaultPageSize = 5

// MaxPageSize caps client supplied page sizes.
const MaxPageSize = 100

// PageParams selects a 1-based page.
type PageParams struct {
	Page     int
	PageSize int
}

// Normalize clamps the page to >= 1 and the size to 1..MaxPageSize,
// substituting DefaultPageSize for a non-positive size. Pages so large that
// their offset would overflow are pulled back to the last representable one,
// which is still past the end of any table.
func (p *PageParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	if maxPage := math.MaxInt / p.PageSize; p.Page > maxPage {
		p.Page = maxPage
	}
}

// Offset returns the number of rows skipped before this page.
func (p PageParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Page is one page of results. A page past the end has no items; it is not
// an error.
type Page[T any] struct {
	Items    []T  `json:"items"`
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	Total    int  `json:"total"`
	HasPrev  bool `json:"has_prev"`
	HasNext  bool `json:"has_next"`
}

// NewPage assembles a page from the rows fetched for params and the total row count.
func NewPage[T any](items []T, params PageParams, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:    items,
		Page:     params.Page,
		PageSize: params.PageSize,
		Total:    total,
		HasPrev:  params.Page > 1,
		HasNext:  params.Offset()+len(items) < total && len(items) > 0,
	}
}

// Pages returns the number of pages needed for total rows.
func (p Page[T]) Pages() int {
	if p.PageSize <= 0 || p.Total == 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}
