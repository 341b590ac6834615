package domain

import (
	"net/url"
	"strings"
)

// QueryParam is one key/value pair of a provider query string.
type QueryParam struct {
	Key   QueryParameterType
	Value string
}

// BuildQuery appends params to base as "base?k1=v1&k2=v2", keeping the order
// in which params were given. An empty params list is an *InvalidQueryError.
func BuildQuery(base string, params ...QueryParam) (string, error) {
	if len(params) == 0 {
		return "", &InvalidQueryError{Reason: "at least one query parameter is required"}
	}

	var b strings.Builder
	b.WriteString(base)
	b.WriteByte('?')
	for i, p := range params {
		if p.Key == "" {
			return "", &InvalidQueryError{Reason: "empty query parameter name"}
		}
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(string(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String(), nil
}
