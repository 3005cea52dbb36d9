package saucerest

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestAuthorizationHeaderDecodesToCredentials(t *testing.T) {
	cases := []Credentials{
		{Username: "fakeuser", AccessKey: "fakekey"},
		{Username: "", AccessKey: ""},
		{Username: "user", AccessKey: ""},
		{Username: "", AccessKey: "key"},
		{Username: "ünïcode", AccessKey: "a:b:c"},
	}
	for _, creds := range cases {
		header := creds.AuthorizationHeader()
		token, ok := strings.CutPrefix(header, "Basic ")
		if !ok {
			t.Fatalf("header %q lacks Basic scheme", header)
		}
		raw, err := base64.StdEncoding.DecodeString(token)
		if err != nil {
			t.Fatalf("decode %q: %v", token, err)
		}
		if want := creds.Username + ":" + creds.AccessKey; string(raw) != want {
			t.Fatalf("decoded %q, want %q", raw, want)
		}
		if again := creds.AuthorizationHeader(); again != header {
			t.Fatalf("header not deterministic: %q vs %q", header, again)
		}
	}
}

func TestCredentialsStringMasksAccessKey(t *testing.T) {
	creds := Credentials{Username: "u", AccessKey: "secret"}
	for _, s := range []string{creds.String(), creds.GoString()} {
		if strings.Contains(s, "secret") {
			t.Fatalf("access key leaked in %q", s)
		}
	}
}

func TestBuildConnectionSetsHeaders(t *testing.T) {
	c := newTestClient(t, &fakeTransport{})

	req, err := c.BuildConnection("http://example.org/blah?x=1", "post")
	if err != nil {
		t.Fatalf("BuildConnection: %v", err)
	}
	if req.Method != http.MethodPost {
		t.Fatalf("method = %s", req.Method)
	}
	if req.URL != "http://example.org/blah?x=1" {
		t.Fatalf("url = %s", req.URL)
	}
	if got, want := req.HeaderValue("Authorization"), (Credentials{Username: testUser, AccessKey: testKey}).AuthorizationHeader(); got != want {
		t.Fatalf("Authorization = %q, want %q", got, want)
	}
	if got := req.HeaderValue("User-Agent"); got != c.UserAgent() || got == "" {
		t.Fatalf("User-Agent = %q", got)
	}
	if got := req.HeaderValue("Content-Type"); got != "" {
		t.Fatalf("Content-Type must be left to the body, got %q", got)
	}
	if req.Body != nil {
		t.Fatalf("no body expected before execution")
	}
}

func TestBuildConnectionIdenticalAuthAcrossRequests(t *testing.T) {
	c := newTestClient(t, &fakeTransport{})
	a, err := c.BuildConnection("http://example.org/a", http.MethodGet)
	if err != nil {
		t.Fatalf("BuildConnection: %v", err)
	}
	b, err := c.BuildConnection("http://example.org/b", http.MethodDelete)
	if err != nil {
		t.Fatalf("BuildConnection: %v", err)
	}
	if a.Header["Authorization"] != b.Header["Authorization"] {
		t.Fatalf("auth headers differ")
	}
}

func TestBuildConnectionRejectsMalformedURLs(t *testing.T) {
	c := newTestClient(t, &fakeTransport{})
	for _, raw := range []string{"/relative/path", "not a url", "http://[::1", "\t"} {
		_, err := c.BuildConnection(raw, http.MethodGet)
		if !errors.Is(err, ErrMalformedURL) {
			t.Fatalf("BuildConnection(%q) error = %v, want ErrMalformedURL", raw, err)
		}
		var mue *MalformedURLError
		if !errors.As(err, &mue) || mue.URL != raw {
			t.Fatalf("expected *MalformedURLError for %q, got %T", raw, err)
		}
	}
}

func TestBuildConnectionRejectsUnsupportedMethods(t *testing.T) {
	c := newTestClient(t, &fakeTransport{})
	for _, m := range []string{"PATCH", "HEAD", ""} {
		if _, err := c.BuildConnection("http://example.org/", m); !errors.Is(err, ErrUnsupportedMethod) {
			t.Fatalf("method %q: error = %v", m, err)
		}
	}
}

func TestUserAgentNeverContainsNull(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	for _, v := range []string{"", "null", "NULL", "(devel)", "v1.4.0"} {
		Version = v
		c, err := New(Credentials{}, ClientConfig{}, WithTransport(&fakeTransport{}))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		ua := c.UserAgent()
		if ua == "" || strings.Contains(ua, "/null") {
			t.Fatalf("Version=%q: bad user agent %q", v, ua)
		}
		if !strings.HasPrefix(ua, libraryName+"/") {
			t.Fatalf("user agent %q lacks library name", ua)
		}
	}

	Version = "v1.4.0"
	if got := DefaultUserAgent(); got != "saucerest-go/v1.4.0" {
		t.Fatalf("DefaultUserAgent = %q", got)
	}
}

func TestCustomUserAgentIsSanitized(t *testing.T) {
	c, err := New(Credentials{}, ClientConfig{UserAgent: "my-plugin/null"}, WithTransport(&fakeTransport{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.UserAgent(); got != "my-plugin/unknown" {
		t.Fatalf("UserAgent = %q", got)
	}
}

func TestNewValidatesBaseURL(t *testing.T) {
	for _, base := range []string{"saucelabs.com", "https://user:pw@saucelabs.com"} {
		if _, err := New(Credentials{}, ClientConfig{BaseURL: base}); !errors.Is(err, ErrMalformedURL) {
			t.Fatalf("BaseURL %q: error = %v", base, err)
		}
	}

	c, err := New(Credentials{}, ClientConfig{BaseURL: "https://eu-central-1.saucelabs.com/"}, WithTransport(&fakeTransport{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cfg := c.Config()
	if cfg.BaseURL != "https://eu-central-1.saucelabs.com" {
		t.Fatalf("BaseURL not trimmed: %q", cfg.BaseURL)
	}
	if cfg.ConnectTimeout <= 0 || cfg.ReadTimeout <= 0 {
		t.Fatalf("timeouts not defaulted: %+v", cfg)
	}
}
