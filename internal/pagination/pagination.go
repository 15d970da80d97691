// Package pagination turns a total thread count and a requested 1-based page
// into clamped slice bounds and the page-index metadata the view needs.
package pagination

import (
	internal_errors "github.com/opchan-dev/opchan/internal/errors"
)

// Pages holds the computed bounds for one listing request.
type Pages struct {
	Offset      int
	Limit       int
	CurrentPage int
	TotalPages  int
}

type Engine struct {
	pageSize int
}

// New fails fast on a non-positive page size instead of producing
// divide-by-zero or infinite pages at request time.
func New(pageSize int) (*Engine, error) {
	if pageSize <= 0 {
		return nil, &internal_errors.ConfigError{Field: "page_size", Reason: "must be positive"}
	}
	return &Engine{pageSize: pageSize}, nil
}

func (e *Engine) PageSize() int {
	return e.pageSize
}

// Paginate clamps page into [1, TotalPages] and never errors: out-of-range
// requests (0, negative, beyond the last page) are silently constrained, which
// is all the view's Previous/Next links need. An empty store still reports
// page 1 of 1 so pagination controls render consistently.
func (e *Engine) Paginate(total, page int) Pages {
	totalPages := (total + e.pageSize - 1) / e.pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	if page < 1 {
		page = 1
	} else if page > totalPages {
		page = totalPages
	}

	return Pages{
		Offset:      (page - 1) * e.pageSize,
		Limit:       e.pageSize,
		CurrentPage: page,
		TotalPages:  totalPages,
	}
}
