package model

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

type OrderRule string

const (
	OrderAsc  OrderRule = "asc"
	OrderDesc OrderRule = "desc"
)

// RangedFilter restricts Key to [Start, End].
type RangedFilter struct {
	Key   string  `json:"key"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// QueryParams describes a list request. It is sent to the backend as-is;
// the client never filters or sorts entries itself.
type QueryParams struct {
	Filters       map[string]any    `json:"filters,omitempty"`
	SearchFilters map[string]string `json:"searchFilters,omitempty"`
	RangedFilters []RangedFilter    `json:"rangedFilters,omitempty"`
	Page          int               `json:"page,omitempty"`
	Rows          int               `json:"rows,omitempty"`
	OrderKey      string            `json:"orderKey,omitempty"`
	OrderRule     OrderRule         `json:"orderRule,omitempty"`
}

// DefaultQuery mirrors the list page defaults: first page, 50 rows,
// newest first.
func DefaultQuery() QueryParams {
	return QueryParams{
		Page:      1,
		Rows:      50,
		OrderKey:  "createdAt",
		OrderRule: OrderDesc,
	}
}

// Values encodes p as query parameters. Structured fields are sent as
// compact JSON; zero fields are omitted.
func (p QueryParams) Values() (url.Values, error) {
	v := url.Values{}
	if len(p.Filters) > 0 {
		b, err := json.Marshal(p.Filters)
		if err != nil {
			return nil, fmt.Errorf("encode filters: %w", err)
		}
		v.Set("filters", string(b))
	}
	if len(p.SearchFilters) > 0 {
		b, err := json.Marshal(p.SearchFilters)
		if err != nil {
			return nil, fmt.Errorf("encode searchFilters: %w", err)
		}
		v.Set("searchFilters", string(b))
	}
	if len(p.RangedFilters) > 0 {
		b, err := json.Marshal(p.RangedFilters)
		if err != nil {
			return nil, fmt.Errorf("encode rangedFilters: %w", err)
		}
		v.Set("rangedFilters", string(b))
	}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Rows > 0 {
		v.Set("rows", strconv.Itoa(p.Rows))
	}
	if p.OrderKey != "" {
		v.Set("orderKey", p.OrderKey)
	}
	if p.OrderRule != "" {
		v.Set("orderRule", string(p.OrderRule))
	}
	return v, nil
}

// CacheKey is a deterministic serialisation of p (map keys are sorted by
// encoding/json).
func (p QueryParams) CacheKey() string {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Sprintf("%#v", p)
	}
	return string(b)
}

// StatusFilter selects done/undone todos through filters.isDone.
type StatusFilter string

const (
	StatusAll    StatusFilter = "all"
	StatusDone   StatusFilter = "done"
	StatusUndone StatusFilter = "undone"
)

// ParseStatusFilter accepts all, done or undone (case-insensitive).
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch f := StatusFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "", StatusAll:
		return StatusAll, nil
	case StatusDone, StatusUndone:
		return f, nil
	}
	return "", fmt.Errorf("unknown status filter %q (want all, done or undone)", s)
}

// Next cycles all -> done -> undone -> all.
func (f StatusFilter) Next() StatusFilter {
	switch f {
	case StatusAll:
		return StatusDone
	case StatusDone:
		return StatusUndone
	}
	return StatusAll
}

// WithStatus returns a copy of p filtered by f. Page is reset to 1.
func (p QueryParams) WithStatus(f StatusFilter) QueryParams {
	out := p.clone()
	delete(out.Filters, "isDone")
	if f != StatusAll && f != "" {
		if out.Filters == nil {
			out.Filters = map[string]any{}
		}
		out.Filters["isDone"] = f == StatusDone
	}
	if len(out.Filters) == 0 {
		out.Filters = nil
	}
	out.Page = 1
	return out
}

// Status reports the status filter currently set on p.
func (p QueryParams) Status() StatusFilter {
	done, ok := p.Filters["isDone"].(bool)
	switch {
	case !ok:
		return StatusAll
	case done:
		return StatusDone
	}
	return StatusUndone
}

// WithSearch returns a copy of p searching item text for term. An empty
// term removes the search. Page is reset to 1.
func (p QueryParams) WithSearch(term string) QueryParams {
	out := p.clone()
	delete(out.SearchFilters, "item")
	if term = strings.TrimSpace(term); term != "" {
		if out.SearchFilters == nil {
			out.SearchFilters = map[string]string{}
		}
		out.SearchFilters["item"] = term
	}
	if len(out.SearchFilters) == 0 {
		out.SearchFilters = nil
	}
	out.Page = 1
	return out
}

// Search returns the current item search term.
func (p QueryParams) Search() string {
	return p.SearchFilters["item"]
}

// WithPage returns a copy of p pointing at page n (minimum 1).
func (p QueryParams) WithPage(n int) QueryParams {
	out := p.clone()
	if n < 1 {
		n = 1
	}
	out.Page = n
	return out
}

func (p QueryParams) clone() QueryParams {
	out := p
	if p.Filters != nil {
		out.Filters = make(map[string]any, len(p.Filters))
		for k, v := range p.Filters {
			out.Filters[k] = v
		}
	}
	if p.SearchFilters != nil {
		out.SearchFilters = make(map[string]string, len(p.SearchFilters))
		for k, v := range p.SearchFilters {
			out.SearchFilters[k] = v
		}
	}
	if p.RangedFilters != nil {
		out.RangedFilters = append([]RangedFilter(nil), p.RangedFilters...)
	}
	return out
}
