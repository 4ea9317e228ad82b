// Package http exposes the REST API. Handlers decode and validate
// request DTOs, delegate to the service layer, and write the standard
// response envelope.
package http

import (
	"net/http"
	"strconv"
)

// maxBodyBytes caps request bodies at 1 MB.
const maxBodyBytes = 1 << 20

const (
	defaultPage    = 1
	defaultPerPage = 20
	maxPerPage     = 100
)

// pagination is the list metadata block returned alongside collections.
type pagination struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
}

// listResponse wraps a collection with its pagination metadata.
type listResponse struct {
	Items      any        `json:"items"`
	Pagination pagination `json:"pagination"`
}

func newListResponse(items any, page, perPage, total int) listResponse {
	return listResponse{
		Items:      items,
		Pagination: pagination{Page: page, PerPage: perPage, Total: total},
	}
}

// parsePagination reads page and per_page query parameters, clamping
// them to sane bounds.
func parsePagination(r *http.Request) (page, perPage int) {
	page = defaultPage
	perPage = defaultPerPage

	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			perPage = min(n, maxPerPage)
		}
	}
	return page, perPage
}
