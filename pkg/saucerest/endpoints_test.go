package saucerest

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEndpointCalls(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name      string
		call      func(c *Client) error
		method    string
		path      string
		query     string
		body      map[string]any
		emptyBody bool
	}{
		{
			name:   "get job info",
			call:   func(c *Client) error { _, err := c.GetJobInfo(ctx, "123"); return err },
			method: http.MethodGet, path: "/rest/v1/fakeuser/jobs/123", emptyBody: true,
		},
		{
			name: "update job info",
			call: func(c *Client) error {
				_, err := c.UpdateJobInfo(ctx, "12345", map[string]any{"public": "shared"})
				return err
			},
			method: http.MethodPut, path: "/rest/v1/fakeuser/jobs/12345",
			body: map[string]any{"public": "shared"},
		},
		{
			name:   "job passed",
			call:   func(c *Client) error { _, err := c.JobPassed(ctx, "1234"); return err },
			method: http.MethodPut, path: "/rest/v1/fakeuser/jobs/1234",
			body: map[string]any{"passed": true},
		},
		{
			name:   "job failed",
			call:   func(c *Client) error { _, err := c.JobFailed(ctx, "1234"); return err },
			method: http.MethodPut, path: "/rest/v1/fakeuser/jobs/1234",
			body: map[string]any{"passed": false},
		},
		{
			name:   "stop job",
			call:   func(c *Client) error { _, err := c.StopJob(ctx, "123"); return err },
			method: http.MethodPut, path: "/rest/v1/fakeuser/jobs/123/stop", emptyBody: true,
		},
		{
			name:   "delete job",
			call:   func(c *Client) error { _, err := c.DeleteJob(ctx, "123"); return err },
			method: http.MethodDelete, path: "/rest/v1/fakeuser/jobs/123", emptyBody: true,
		},
		{
			name:   "full jobs default limit",
			call:   func(c *Client) error { _, err := c.GetFullJobs(ctx); return err },
			method: http.MethodGet, path: "/rest/v1/fakeuser/jobs", query: "full=true&limit=20", emptyBody: true,
		},
		{
			name:   "full jobs explicit limit",
			call:   func(c *Client) error { _, err := c.GetFullJobs(ctx, 50); return err },
			method: http.MethodGet, path: "/rest/v1/fakeuser/jobs", query: "full=true&limit=50", emptyBody: true,
		},
		{
			name:   "build full jobs",
			call:   func(c *Client) error { _, err := c.GetBuildFullJobs(ctx, "fakePath"); return err },
			method: http.MethodGet, path: "/rest/v1/fakeuser/build/fakePath/jobs", query: "full=1", emptyBody: true,
		},
		{
			name:   "job assets",
			call:   func(c *Client) error { _, err := c.GetJobAssets(ctx, "9"); return err },
			method: http.MethodGet, path: "/rest/v1/fakeuser/jobs/9/assets", emptyBody: true,
		},
		{
			name:   "user",
			call:   func(c *Client) error { _, err := c.GetUser(ctx); return err },
			method: http.MethodGet, path: "/rest/v1/users/fakeuser", emptyBody: true,
		},
		{
			name:   "concurrency",
			call:   func(c *Client) error { _, err := c.GetConcurrency(ctx); return err },
			method: http.MethodGet, path: "/rest/v1/users/fakeuser/concurrency", emptyBody: true,
		},
		{
			name:   "activity",
			call:   func(c *Client) error { _, err := c.GetActivity(ctx); return err },
			method: http.MethodGet, path: "/rest/v1/fakeuser/activity", emptyBody: true,
		},
		{
			name:   "tunnels",
			call:   func(c *Client) error { _, err := c.GetTunnels(ctx); return err },
			method: http.MethodGet, path: "/rest/v1/fakeuser/tunnels", emptyBody: true,
		},
		{
			name: "tunnel information",
			call: func(c *Client) error {
				_, err := c.GetTunnelInformation(ctx, "1234-1234-1231-123-123")
				return err
			},
			method: http.MethodGet, path: "/rest/v1/fakeuser/tunnels/1234-1234-1231-123-123", emptyBody: true,
		},
		{
			name:   "delete tunnel",
			call:   func(c *Client) error { _, err := c.DeleteTunnel(ctx, "t1"); return err },
			method: http.MethodDelete, path: "/rest/v1/fakeuser/tunnels/t1", emptyBody: true,
		},
		{
			name:   "stored files",
			call:   func(c *Client) error { _, err := c.GetStoredFiles(ctx); return err },
			method: http.MethodGet, path: "/rest/v1/storage/fakeuser", emptyBody: true,
		},
		{
			name:   "supported platforms",
			call:   func(c *Client) error { _, err := c.GetSupportedPlatforms(ctx, "appium"); return err },
			method: http.MethodGet, path: "/rest/v1/info/platforms/appium", emptyBody: true,
		},
		{
			name:   "record ci",
			call:   func(c *Client) error { _, err := c.RecordCI(ctx, "jenkins", "1.1"); return err },
			method: http.MethodPost, path: "/rest/v1/stats/ci",
			body: map[string]any{"platform": "jenkins", "platform_version": "1.1"},
		},
		{
			name:   "retrieve results",
			call:   func(c *Client) error { _, err := c.RetrieveResults(ctx, "fakePath"); return err },
			method: http.MethodGet, path: "/rest/v1/fakePath", emptyBody: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ft := &fakeTransport{status: http.StatusOK, body: "{ }"}
			c := newTestClient(t, ft)

			if err := tc.call(c); err != nil {
				t.Fatalf("call: %v", err)
			}
			u := ft.lastURL(t)
			if ft.last.Method != tc.method {
				t.Fatalf("method = %s, want %s", ft.last.Method, tc.method)
			}
			if u.Path != tc.path {
				t.Fatalf("path = %s, want %s", u.Path, tc.path)
			}
			if u.RawQuery != tc.query {
				t.Fatalf("query = %q, want %q", u.RawQuery, tc.query)
			}
			if tc.body != nil {
				if diff := cmp.Diff(tc.body, ft.lastJSON(t)); diff != "" {
					t.Fatalf("body mismatch (-want +got):\n%s", diff)
				}
				if ct := ft.last.HeaderValue("Content-Type"); ct != "application/json" {
					t.Fatalf("Content-Type = %q", ct)
				}
			}
			if tc.emptyBody && ft.lastBody != "" {
				t.Fatalf("expected no request body, got %q", ft.lastBody)
			}
		})
	}
}

func TestGetConcurrencyReturnsBodyVerbatim(t *testing.T) {
	payload := `{"timestamp": 1447392030.111457, "concurrency": {"halkeye": {"current": {"overall": 0, "mac": 0, "manual": 0}, "remaining": {"overall": 100, "mac": 100, "manual": 5}}}}`
	ft := &fakeTransport{status: http.StatusOK, body: payload}
	c := newTestClient(t, ft)

	got, err := c.GetConcurrency(context.Background())
	if err != nil {
		t.Fatalf("GetConcurrency: %v", err)
	}
	if string(got) != payload {
		t.Fatalf("body was altered: %s", got)
	}
	if ft.lastURL(t).RawQuery != "" {
		t.Fatalf("unexpected query %q", ft.lastURL(t).RawQuery)
	}
}

func TestJobStatusBodyIsExact(t *testing.T) {
	ft := &fakeTransport{status: http.StatusOK, body: "{}"}
	c := newTestClient(t, ft)

	if _, err := c.JobPassed(context.Background(), "1234"); err != nil {
		t.Fatalf("JobPassed: %v", err)
	}
	if ft.lastBody != `{"passed":true}` {
		t.Fatalf("body = %s", ft.lastBody)
	}
	if _, err := c.JobFailed(context.Background(), "1234"); err != nil {
		t.Fatalf("JobFailed: %v", err)
	}
	if ft.lastBody != `{"passed":false}` {
		t.Fatalf("body = %s", ft.lastBody)
	}
}

func TestPathSegmentsAreEscaped(t *testing.T) {
	ep := NewEndpoints("user name").JobInfo("a/b")
	if ep.Path != "/rest/v1/user%20name/jobs/a%2Fb" {
		t.Fatalf("path = %s", ep.Path)
	}
}

func TestQueryKeepsInsertionOrder(t *testing.T) {
	q := Query{}.With("zeta", "1").With("alpha", "a b").With("mid", "x&y")
	if got := q.Encode(); got != "zeta=1&alpha=a+b&mid=x%26y" {
		t.Fatalf("Encode = %s", got)
	}
	if (Query{}).Encode() != "" {
		t.Fatalf("empty query must encode to empty string")
	}
}

func TestPublicJobLink(t *testing.T) {
	c := newTestClient(t, &fakeTransport{})
	// HMAC-MD5 of "1234" keyed with "fakeuser:fakekey".
	want := "http://fake.site/jobs/1234?auth=20756f0f64037426055610874a6a5ae4"
	if got := c.PublicJobLink("1234"); got != want {
		t.Fatalf("PublicJobLink = %s, want %s", got, want)
	}
	if c.PublicJobLink("1234") == c.PublicJobLink("1235") {
		t.Fatalf("tokens must differ per job")
	}
}
