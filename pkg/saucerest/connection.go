package saucerest

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/samvad-hq/saucerest/pkg/httpclient"
)

var supportedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
}

// BuildConnection prepares an authenticated request for rawURL. No I/O
// happens here; Content-Type is set later from the body kind.
func (c *Client) BuildConnection(rawURL, method string) (*httpclient.Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &MalformedURLError{URL: rawURL, Err: err}
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, &MalformedURLError{URL: rawURL, Err: errors.New("url must be absolute")}
	}

	verb := strings.ToUpper(strings.TrimSpace(method))
	if !supportedMethods[verb] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}

	return &httpclient.Request{
		Method: verb,
		URL:    u.String(),
		Header: map[string]string{
			"Authorization": c.auth,
			"User-Agent":    c.cfg.UserAgent,
			"Accept":        contentTypeJSON,
		},
	}, nil
}

// URLFor resolves ep against the configured base URL.
func (c *Client) URLFor(ep Endpoint) string {
	raw := c.cfg.BaseURL + ep.Path
	if q := ep.Query.Encode(); q != "" {
		raw += "?" + q
	}
	return raw
}

// requestPath extracts the path of a request URL for error messages.
func requestPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.EscapedPath()
}
