package saucerest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	contentTypeJSON   = "application/json"
	contentTypeBinary = "application/octet-stream"
)

// Body is a request payload. Reader is called once per request.
type Body interface {
	ContentType() string
	Reader() (io.Reader, error)
}

type jsonBody struct {
	value any
}

// JSONBody serializes v as UTF-8 JSON.
func JSONBody(v any) Body { return jsonBody{value: v} }

func (jsonBody) ContentType() string { return contentTypeJSON }

func (b jsonBody) Reader() (io.Reader, error) {
	raw, err := json.Marshal(b.value)
	if err != nil {
		return nil, fmt.Errorf("encode json body: %w", err)
	}
	return bytes.NewReader(raw), nil
}

type streamBody struct {
	r io.Reader
}

// StreamBody passes r through to the transport without buffering it.
func StreamBody(r io.Reader) Body { return streamBody{r: r} }

func (streamBody) ContentType() string { return contentTypeBinary }

func (b streamBody) Reader() (io.Reader, error) {
	if b.r == nil {
		return http.NoBody, nil
	}
	return b.r, nil
}
