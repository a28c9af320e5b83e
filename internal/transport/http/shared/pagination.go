package shared

import (
	"net/http"
	"strconv"
)

type Pagination struct {
	Limit  int
	Offset int
}

// ParsePagination reads limit and offset, or limit and a 1-based page when
// no offset is given. Bad values fall back to the defaults.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	q := r.URL.Query()
	p := Pagination{Limit: positive(q.Get("limit"), defaultLimit)}
	if maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}

	if raw := q.Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			p.Offset = v
		}
		return p
	}
	if page := positive(q.Get("page"), 1); page > 1 {
		p.Offset = (page - 1) * p.Limit
	}
	return p
}

func positive(raw string, fallback int) int {
	if v, err := strconv.Atoi(raw); err == nil && v > 0 {
		return v
	}
	return fallback
}
