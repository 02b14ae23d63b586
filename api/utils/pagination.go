package utils

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
)

const maxLimit = 500

type PaginationParams struct {
	Page         int `json:"page"`
	Limit        int `json:"limit"`
	Offset       int `json:"offset"`
	TotalRecords int `json:"total_records"`
	TotalPages   int `json:"total_pages"`
}

// ExtractPagination reads ?page and ?limit. ok is false when neither is
// given, in which case callers return everything.
func ExtractPagination(r *http.Request) (params PaginationParams, ok bool, err error) {
	q := r.URL.Query()
	if q.Get("page") == "" && q.Get("limit") == "" {
		return PaginationParams{}, false, nil
	}
	params = PaginationParams{Page: 1, Limit: 50}

	if p := q.Get("page"); p != "" {
		val, err := strconv.Atoi(p)
		if err != nil || val <= 0 {
			return PaginationParams{}, true, fmt.Errorf("invalid page parameter: %s", p)
		}
		params.Page = val
	}
	if l := q.Get("limit"); l != "" {
		val, err := strconv.Atoi(l)
		if err != nil || val <= 0 || val > maxLimit {
			return PaginationParams{}, true, fmt.Errorf("invalid limit parameter: %s", l)
		}
		params.Limit = val
	}
	params.Offset = (params.Page - 1) * params.Limit
	return params, true, nil
}

func (p *PaginationParams) SetPaginationStats(totalRecords int) {
	p.TotalRecords = totalRecords
	if totalRecords > 0 {
		p.TotalPages = int(math.Ceil(float64(totalRecords) / float64(p.Limit)))
	} else {
		p.TotalPages = 0
	}
}

// Bounds clamps the page window to a slice of n items.
func (p *PaginationParams) Bounds(n int) (start, end int) {
	start = p.Offset
	if start > n {
		start = n
	}
	end = start + p.Limit
	if end > n {
		end = n
	}
	return start, end
}
