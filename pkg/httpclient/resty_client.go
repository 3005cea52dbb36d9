package httpclient

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultReadTimeout    = 60 * time.Second
)

// Options tunes the resty-backed transport.
type Options struct {
	// ConnectTimeout bounds dialing, TLS handshake included.
	ConnectTimeout time.Duration
	// ReadTimeout bounds the whole exchange, including reading the response body.
	ReadTimeout time.Duration
}

// RestyTransport adapts resty.Client to the httpclient.Transport interface.
// Each call uses a fresh connection; nothing is pooled across calls.
type RestyTransport struct {
	client *resty.Client
}

// NewRestyTransport creates a new RestyTransport with the specified timeouts.
func NewRestyTransport(opts Options) *RestyTransport {
	opts = normalizeOptions(opts)

	c := resty.New()
	c.SetTimeout(opts.ReadTimeout)
	c.SetTransport(newRoundTripper(opts))
	c.SetCloseConnection(true)
	return &RestyTransport{client: c}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	return c
}

func normalizeOptions(opts Options) Options {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = defaultReadTimeout
	}
	return opts
}

func newRoundTripper(opts Options) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout: opts.ConnectTimeout,
		}).DialContext,
		TLSHandshakeTimeout:   opts.ConnectTimeout,
		ResponseHeaderTimeout: opts.ReadTimeout,
		DisableKeepAlives:     true,
	}
}

// Do performs the request with the specified context. The response body is
// left unread; the caller must close it.
func (r *RestyTransport) Do(ctx context.Context, in *Request) (Response, error) {
	if in == nil {
		return nil, fmt.Errorf("nil request")
	}

	req := r.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true)
	if len(in.Header) > 0 {
		req.SetHeaders(in.Header)
	}
	if in.Body != nil {
		req.SetBody(in.Body)
	}

	resp, err := req.Execute(in.Method, in.URL)
	if err != nil {
		if resp != nil && resp.RawBody() != nil {
			resp.RawBody().Close()
		}
		return nil, err
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) StatusCode() int { return r.resp.StatusCode() }

func (r *restyResponseAdapter) Body() io.ReadCloser {
	if body := r.resp.RawBody(); body != nil {
		return body
	}
	return http.NoBody
}
