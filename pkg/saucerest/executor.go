package saucerest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/samvad-hq/saucerest/pkg/httpclient"
)

// maxErrorBodyBytes caps how much of a non-2xx body is kept for diagnosis.
const maxErrorBodyBytes = 64 << 10

const outcomeTransportError = "transport_error"

// Execute sends req with an optional body and returns the 2xx response
// body. It makes exactly one network attempt and always closes the
// response body before returning.
func (c *Client) Execute(ctx context.Context, req *httpclient.Request, body Body) ([]byte, error) {
	var out []byte
	err := c.roundTrip(ctx, req, body, func(r io.Reader) error {
		raw, err := io.ReadAll(r)
		if err != nil {
			return &TransportError{Method: req.Method, Path: requestPath(req.URL), Err: err}
		}
		out = raw
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExecuteForText is Execute without a body, returning the response as a string.
func (c *Client) ExecuteForText(ctx context.Context, req *httpclient.Request) (string, error) {
	raw, err := c.Execute(ctx, req, nil)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// ExecuteJSON is Execute followed by decoding the response into Output.
// A 2xx body that does not decode yields a *DecodeError.
func ExecuteJSON[Output any](ctx context.Context, c *Client, req *httpclient.Request, body Body) (Output, error) {
	var out Output
	raw, err := c.Execute(ctx, req, body)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		var zero Output
		return zero, &DecodeError{Method: req.Method, Path: requestPath(req.URL), Err: err}
	}
	return out, nil
}

// roundTrip performs one exchange. On 2xx the body is handed to consume;
// otherwise it is classified into a typed error. The body is closed here
// exactly once on every path.
func (c *Client) roundTrip(ctx context.Context, req *httpclient.Request, body Body, consume func(io.Reader) error) (err error) {
	if req == nil {
		return fmt.Errorf("nil request")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	path := requestPath(req.URL)
	if req.Header == nil {
		req.Header = map[string]string{}
	}

	if body != nil {
		r, err := body.Reader()
		if err != nil {
			return fmt.Errorf("%s %s: %w", req.Method, path, err)
		}
		req.Body = r
		if ct := body.ContentType(); ct != "" {
			req.Header["Content-Type"] = ct
		}
	}

	start := time.Now()
	outcome := outcomeTransportError
	status := 0
	defer func() {
		elapsed := time.Since(start)
		c.observer.ObserveRequest(req.Method, outcome, elapsed)
		fields := map[string]any{
			"method":     req.Method,
			"path":       path,
			"status":     status,
			"outcome":    outcome,
			"elapsed_ms": elapsed.Milliseconds(),
		}
		if err != nil {
			fields["error"] = err.Error()
			c.log.WarnObj("saucerest request failed", "saucerest_request", fields)
			return
		}
		c.log.DebugObj("saucerest request completed", "saucerest_request", fields)
	}()

	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		return &TransportError{Method: req.Method, Path: path, Err: err}
	}
	rc := resp.Body()
	if rc == nil {
		rc = http.NoBody
	}
	defer rc.Close()

	status = resp.StatusCode()
	if status >= 200 && status <= 299 {
		outcome = OutcomeSuccess.String()
		if err := consume(rc); err != nil {
			outcome = outcomeTransportError
			return err
		}
		return nil
	}

	var raw []byte
	if status != http.StatusUnauthorized {
		raw, _ = io.ReadAll(io.LimitReader(rc, maxErrorBodyBytes))
	}
	res := Classify(status, raw)
	outcome = res.Outcome.String()
	return res.Err(req.Method, path)
}

// call runs ep against the configured base URL.
func (c *Client) call(ctx context.Context, ep Endpoint) ([]byte, error) {
	req, err := c.BuildConnection(c.URLFor(ep), ep.Method)
	if err != nil {
		return nil, err
	}
	return c.Execute(ctx, req, ep.Body)
}

// callRaw runs ep and returns the body as raw JSON for the caller to decode.
func (c *Client) callRaw(ctx context.Context, ep Endpoint) (json.RawMessage, error) {
	raw, err := c.call(ctx, ep)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

// Do executes an arbitrary endpoint, for operations not wrapped by a method.
func (c *Client) Do(ctx context.Context, ep Endpoint) ([]byte, error) {
	return c.call(ctx, ep)
}
