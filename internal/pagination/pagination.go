// Package pagination normalizes page, limit and sort parameters and slices
// ordered result sets. Everything here is pure and never blocks.
package pagination

import (
	"strconv"
	"strings"
)

// DefaultLimit is used when the caller supplies no usable limit.
const DefaultLimit = 10

// Params describes the requested page. Upper bounds on Limit are the caller's concern.
type Params struct {
	Page  int
	Limit int
}

// Normalize clamps non-positive values to page 1 and DefaultLimit.
func Normalize(page, limit int) Params {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	return Params{Page: page, Limit: limit}
}

// ParseParams normalizes raw query-string values. Non-numeric input falls back to defaults.
func ParseParams(page, limit string) Params {
	p, err := strconv.Atoi(strings.TrimSpace(page))
	if err != nil {
		p = 1
	}
	l, err := strconv.Atoi(strings.TrimSpace(limit))
	if err != nil {
		l = DefaultLimit
	}
	return Normalize(p, l)
}

// Page is one slice of an ordered result set.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// Paginate returns the requested page of items. A page past the end yields an
// empty slice with the totals still populated.
func Paginate[T any](items []T, params Params) Page[T] {
	params = Normalize(params.Page, params.Limit)

	total := len(items)
	totalPages := total / params.Limit
	if total%params.Limit != 0 {
		totalPages++
	}

	out := Page[T]{
		Items:      []T{},
		Page:       params.Page,
		Limit:      params.Limit,
		TotalItems: total,
		TotalPages: totalPages,
	}

	// Checked before multiplying so huge pages cannot overflow the offset.
	if params.Page > totalPages {
		return out
	}

	offset := (params.Page - 1) * params.Limit
	end := total
	if params.Limit < total-offset {
		end = offset + params.Limit
	}
	out.Items = append(out.Items, items[offset:end]...)
	return out
}

// Sort is a single-field ordering.
type Sort struct {
	Field string
	Desc  bool
}

// FieldCreatedAt is the default sort field for every listing.
const FieldCreatedAt = "createdAt"

// DefaultSort orders by creation time, newest first.
var DefaultSort = Sort{Field: FieldCreatedAt, Desc: true}

// ParseSort validates sortBy against allowed and reads sortType as asc or desc.
// Unknown fields fall back to DefaultSort's field; any direction other than
// "asc" sorts descending.
func ParseSort(sortBy, sortType string, allowed ...string) Sort {
	s := DefaultSort

	field := strings.TrimSpace(sortBy)
	for _, candidate := range allowed {
		if strings.EqualFold(candidate, field) {
			s.Field = candidate
			break
		}
	}

	if strings.EqualFold(strings.TrimSpace(sortType), "asc") {
		s.Desc = false
	}
	return s
}
