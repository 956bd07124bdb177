// Package listing implements the shared list-query handling: pagination
// bounds, orderBy/order whitelisting and the filter expression plumbing.
package listing

import (
	"strconv"

	"github.com/commercekit/service-layer/internal/app/storage"
	"github.com/commercekit/service-layer/internal/validation"
)

// Pagination bounds shared by every entity listing.
const (
	MinPerPage = 20
	MaxPerPage = 50
)

// Request carries list parameters as they arrive from transport. Page and
// PerPage stay untyped so non-numeric input reaches validation intact.
type Request struct {
	Page    any
	PerPage any
	OrderBy string
	Order   string
	Filters string
}

// Model renders the request for validation. Unset parameters stay absent so
// the optional rules tolerate them.
func (r Request) Model() map[string]any {
	m := map[string]any{}
	if r.Page != nil {
		m["page"] = coerce(r.Page)
	}
	if r.PerPage != nil {
		m["perPage"] = coerce(r.PerPage)
	}
	if r.OrderBy != "" {
		m["orderBy"] = r.OrderBy
	}
	if r.Order != "" {
		m["order"] = r.Order
	}
	if r.Filters != "" {
		m["filters"] = r.Filters
	}
	return m
}

// coerce turns numeric strings into numbers and leaves everything else for
// the integer rule to reject.
func coerce(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil && n != 0 {
		return n
	}
	return v
}

// Schema builds the list-parameter schema around a per-entity orderBy
// whitelist and filter field schema.
func Schema(orderBy []any, filters validation.Schema) validation.Schema {
	return validation.Schema{
		"page":    {validation.Integer(), validation.Min(1)},
		"perPage": {validation.Integer(), validation.Min(MinPerPage), validation.Max(MaxPerPage)},
		"orderBy": {validation.String(), validation.In(orderBy...)},
		"order":   {validation.String(), validation.In("asc", "desc")},
		"filters": {validation.ListFilters(filters)},
	}
}

// Query converts a validated request into the storage query. The filter
// expression parses against the same field whitelist validation used.
func Query(r Request, filters validation.Schema) (storage.ListQuery, error) {
	q := storage.ListQuery{Page: 1, PerPage: MinPerPage, OrderBy: r.OrderBy, Order: r.Order}
	if n, ok := number(r.Page); ok {
		q.Page = int(n)
	}
	if n, ok := number(r.PerPage); ok {
		q.PerPage = int(n)
	}
	if r.Filters != "" {
		fields := make([]string, 0, len(filters))
		for field := range filters {
			fields = append(fields, field)
		}
		node, _, err := validation.ParseFilters(r.Filters, fields)
		if err != nil {
			return storage.ListQuery{}, err
		}
		q.Filters = node
	}
	return q, nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		return parsed, err == nil
	}
	return 0, false
}
