package httpclient

import (
	"context"
	"io"
	"strings"
)

// Request is a single outbound HTTP call. Body is optional and is consumed
// by the transport before the response is read.
type Request struct {
	Method string
	URL    string
	Header map[string]string
	Body   io.Reader
}

// Response is a minimal HTTP response contract. The caller that reads Body
// owns it and must close it.
type Response interface {
	StatusCode() int
	Body() io.ReadCloser
}

// Transport abstracts HTTP calls so callers can inject fakes or different transports.
type Transport interface {
	Do(ctx context.Context, req *Request) (Response, error)
}

// HeaderValue returns the header value for key using a case-insensitive match.
func (r *Request) HeaderValue(key string) string {
	if r == nil {
		return ""
	}
	if v, ok := r.Header[key]; ok {
		return v
	}
	for k, v := range r.Header {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
