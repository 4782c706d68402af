// Package service contains stateless typed facades over the HTTP transport,
// one method per backend endpoint. No retries, no caching, no business logic;
// transport errors propagate unchanged to the stores.
package service

import (
	"net/url"
	"strconv"
)

// listQuery shapes filters + page into query parameters.
func listQuery(filters map[string]string, page int) url.Values {
	q := url.Values{}
	for k, v := range filters {
		if v != "" {
			q.Set(k, v)
		}
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	return q
}

// created is the payload returned by create endpoints.
type created struct {
	ID int64 `json:"id"`
}
