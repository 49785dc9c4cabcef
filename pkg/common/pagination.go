package common

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

const (
	// DefaultPage is used when the request carries no page parameter
	DefaultPage = 1
	// DefaultPageSize is used when the request carries no page_size parameter
	DefaultPageSize = 20
	// MaxPageSize is the largest page size accepted by list endpoints
	MaxPageSize = 100
)

// PaginationParams represents raw list parameters taken from a request
type PaginationParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"q,omitempty"`
	Status   string `json:"status,omitempty"`
}

// DefaultPaginationParams returns default pagination parameters
func DefaultPaginationParams() PaginationParams {
	return PaginationParams{
		Page:     DefaultPage,
		PageSize: DefaultPageSize,
	}
}

// ExtractPaginationParams extracts list parameters from the request query string.
// Values are not range-checked here; a non-numeric page or page_size is an error.
func ExtractPaginationParams(r *http.Request) (PaginationParams, error) {
	params := DefaultPaginationParams()
	q := r.URL.Query()

	if page := strings.TrimSpace(q.Get("page")); page != "" {
		p, err := strconv.Atoi(page)
		if err != nil {
			return params, fmt.Errorf("page must be an integer, got %q", page)
		}
		params.Page = p
	}

	pageSize := strings.TrimSpace(q.Get("page_size"))
	if pageSize == "" {
		pageSize = strings.TrimSpace(q.Get("pageSize"))
	}
	if pageSize != "" {
		ps, err := strconv.Atoi(pageSize)
		if err != nil {
			return params, fmt.Errorf("page_size must be an integer, got %q", pageSize)
		}
		params.PageSize = ps
	}

	params.Search = q.Get("q")
	params.Status = q.Get("status")

	return params, nil
}

// CalculateTotalPages calculates the number of pages for a result set.
// An empty result set still has one (empty) page.
func CalculateTotalPages(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 1
	}
	pages := total / pageSize
	if total%pageSize > 0 {
		pages++
	}
	return pages
}

// ClampPage keeps page within [1, totalPages]
func ClampPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// PageBounds returns the half-open [start, end) slice bounds of page within total items
func PageBounds(page, pageSize, total int) (int, int) {
	start := (page - 1) * pageSize
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return start, end
}

// Paginate slices items into the requested page after clamping it.
// It returns the page slice, the effective page and the total page count.
func Paginate[T any](items []T, page, pageSize int) ([]T, int, int) {
	totalPages := CalculateTotalPages(len(items), pageSize)
	page = ClampPage(page, totalPages)
	start, end := PageBounds(page, pageSize, len(items))

	out := make([]T, end-start)
	copy(out, items[start:end])
	return out, page, totalPages
}

// BuildPaginationMeta builds pagination metadata
func BuildPaginationMeta(page, pageSize, total int) *PaginationInfo {
	totalPages := CalculateTotalPages(total, pageSize)

	return &PaginationInfo{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}
