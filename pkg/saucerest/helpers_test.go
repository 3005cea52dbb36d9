package saucerest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/samvad-hq/saucerest/pkg/httpclient"
)

// fakeTransport records the last request and replays a canned response.
// It drains the request body before answering, like a real round trip.
type fakeTransport struct {
	mu       sync.Mutex
	status   int
	body     string
	reader   io.Reader
	err      error
	calls    int
	closes   int
	last     *httpclient.Request
	lastBody string
}

func (f *fakeTransport) Do(_ context.Context, req *httpclient.Request) (httpclient.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.last = req
	f.lastBody = ""
	if req.Body != nil {
		raw, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		f.lastBody = string(raw)
	}
	if f.err != nil {
		return nil, f.err
	}

	var r io.Reader = strings.NewReader(f.body)
	if f.reader != nil {
		r = f.reader
	}
	return &fakeResponse{status: f.status, body: &countingBody{r: r, onClose: f.countClose}}, nil
}

func (f *fakeTransport) countClose() { f.closes++ }

func (f *fakeTransport) lastURL(t *testing.T) *url.URL {
	t.Helper()
	if f.last == nil {
		t.Fatalf("transport was not called")
	}
	u, err := url.Parse(f.last.URL)
	if err != nil {
		t.Fatalf("parse request url %q: %v", f.last.URL, err)
	}
	return u
}

func (f *fakeTransport) lastJSON(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal([]byte(f.lastBody), &out); err != nil {
		t.Fatalf("request body %q is not a JSON object: %v", f.lastBody, err)
	}
	return out
}

type fakeResponse struct {
	status int
	body   io.ReadCloser
}

func (r *fakeResponse) StatusCode() int     { return r.status }
func (r *fakeResponse) Body() io.ReadCloser { return r.body }

type countingBody struct {
	r       io.Reader
	onClose func()
}

func (b *countingBody) Read(p []byte) (int, error) { return b.r.Read(p) }
func (b *countingBody) Close() error {
	b.onClose()
	return nil
}

// failingReader returns data then fails, simulating a dropped connection.
type failingReader struct {
	data []byte
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

var errConnReset = errors.New("connection reset by peer")

const (
	testUser = "fakeuser"
	testKey  = "fakekey"
)

func newTestClient(t *testing.T, ft *fakeTransport) *Client {
	t.Helper()
	c, err := New(Credentials{Username: testUser, AccessKey: testKey}, ClientConfig{BaseURL: "http://fake.site"}, WithTransport(ft))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}
