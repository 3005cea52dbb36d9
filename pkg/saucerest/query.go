package saucerest

import (
	"net/url"
	"strings"
)

// QueryParam is a single key/value query pair.
type QueryParam struct {
	Key   string
	Value string
}

// Query is an ordered list of query parameters. Unlike url.Values it encodes
// in insertion order, so "full=true&limit=20" stays exactly that.
type Query []QueryParam

// With returns a copy of q with key=value appended.
func (q Query) With(key, value string) Query {
	out := make(Query, len(q), len(q)+1)
	copy(out, q)
	return append(out, QueryParam{Key: key, Value: value})
}

// Encode renders q as a URL query string without the leading "?".
func (q Query) Encode() string {
	if len(q) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range q {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

func unescapeQuery(s string) string {
	if v, err := url.QueryUnescape(s); err == nil {
		return v
	}
	return s
}
