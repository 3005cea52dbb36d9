package saucerest

import (
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	apiRoot = "/rest/v1"

	// DefaultFullJobsLimit is the page size used by GetFullJobs without a limit.
	DefaultFullJobsLimit = 20
)

// Job asset names served under /jobs/{id}/assets/.
const (
	AssetSeleniumLog = "selenium-server.log"
	AssetVideo       = "video.flv"
	AssetHAR         = "network.har"
)

// Endpoint is one call against the API: verb, path below the base URL,
// ordered query and optional body.
type Endpoint struct {
	Method string
	Path   string
	Query  Query
	Body   Body
}

// Endpoints maps operations to Endpoint values for one account.
type Endpoints struct {
	username string
}

// NewEndpoints creates the endpoint catalog for username.
func NewEndpoints(username string) Endpoints {
	return Endpoints{username: username}
}

// restPath joins escaped segments below /rest/v1.
func restPath(segments ...string) string {
	var b strings.Builder
	b.WriteString(apiRoot)
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

func (e Endpoints) userPath(segments ...string) string {
	return restPath(append([]string{e.username}, segments...)...)
}

// Jobs.

func (e Endpoints) JobInfo(jobID string) Endpoint {
	return Endpoint{Method: http.MethodGet, Path: e.userPath("jobs", jobID)}
}

func (e Endpoints) UpdateJobInfo(jobID string, updates map[string]any) Endpoint {
	if updates == nil {
		updates = map[string]any{}
	}
	return Endpoint{Method: http.MethodPut, Path: e.userPath("jobs", jobID), Body: JSONBody(updates)}
}

type jobStatus struct {
	Passed bool `json:"passed"`
}

// JobStatus marks a job passed or failed.
func (e Endpoints) JobStatus(jobID string, passed bool) Endpoint {
	return Endpoint{Method: http.MethodPut, Path: e.userPath("jobs", jobID), Body: JSONBody(jobStatus{Passed: passed})}
}

func (e Endpoints) StopJob(jobID string) Endpoint {
	return Endpoint{Method: http.MethodPut, Path: e.userPath("jobs", jobID, "stop")}
}

func (e Endpoints) DeleteJob(jobID string) Endpoint {
	return Endpoint{Method: http.MethodDelete, Path: e.userPath("jobs", jobID)}
}

// FullJobs lists jobs with full details. Non-positive limits use DefaultFullJobsLimit.
func (e Endpoints) FullJobs(limit int) Endpoint {
	if limit <= 0 {
		limit = DefaultFullJobsLimit
	}
	return Endpoint{
		Method: http.MethodGet,
		Path:   e.userPath("jobs"),
		Query:  Query{}.With("full", "true").With("limit", strconv.Itoa(limit)),
	}
}

func (e Endpoints) BuildFullJobs(buildID string) Endpoint {
	return Endpoint{
		Method: http.MethodGet,
		Path:   e.userPath("build", buildID, "jobs"),
		Query:  Query{}.With("full", "1"),
	}
}

func (e Endpoints) JobAssets(jobID string) Endpoint {
	return Endpoint{Method: http.MethodGet, Path: e.userPath("jobs", jobID, "assets")}
}

func (e Endpoints) JobAsset(jobID, asset string) Endpoint {
	return Endpoint{Method: http.MethodGet, Path: e.userPath("jobs", jobID, "assets", asset)}
}

// Account.

func (e Endpoints) User() Endpoint {
	return Endpoint{Method: http.MethodGet, Path: restPath("users", e.username)}
}

func (e Endpoints) Concurrency() Endpoint {
	return Endpoint{Method: http.MethodGet, Path: restPath("users", e.username, "concurrency")}
}

func (e Endpoints) Activity() Endpoint {
	return Endpoint{Method: http.MethodGet, Path: e.userPath("activity")}
}

// Tunnels.

func (e Endpoints) Tunnels() Endpoint {
	return Endpoint{Method: http.MethodGet, Path: e.userPath("tunnels")}
}

func (e Endpoints) TunnelInformation(tunnelID string) Endpoint {
	return Endpoint{Method: http.MethodGet, Path: e.userPath("tunnels", tunnelID)}
}

func (e Endpoints) DeleteTunnel(tunnelID string) Endpoint {
	return Endpoint{Method: http.MethodDelete, Path: e.userPath("tunnels", tunnelID)}
}

// Storage.

func (e Endpoints) StoredFiles() Endpoint {
	return Endpoint{Method: http.MethodGet, Path: restPath("storage", e.username)}
}

// Upload streams r to the storage area under name. overwrite is sent only when non-nil.
func (e Endpoints) Upload(name string, overwrite *bool, r io.Reader) Endpoint {
	ep := Endpoint{
		Method: http.MethodPost,
		Path:   restPath("storage", e.username, name),
		Body:   StreamBody(r),
	}
	if overwrite != nil {
		ep.Query = ep.Query.With("overwrite", strconv.FormatBool(*overwrite))
	}
	return ep
}

// Platforms and stats.

func (e Endpoints) SupportedPlatforms(automationAPI string) Endpoint {
	return Endpoint{Method: http.MethodGet, Path: restPath("info", "platforms", automationAPI)}
}

type ciRecord struct {
	Platform        string `json:"platform"`
	PlatformVersion string `json:"platform_version"`
}

func (e Endpoints) RecordCI(platform, platformVersion string) Endpoint {
	return Endpoint{
		Method: http.MethodPost,
		Path:   restPath("stats", "ci"),
		Body:   JSONBody(ciRecord{Platform: platform, PlatformVersion: platformVersion}),
	}
}

// Results fetches an arbitrary resource below /rest/v1. Slashes in
// resourcePath separate segments.
func (e Endpoints) Results(resourcePath string) Endpoint {
	resourcePath = strings.Trim(resourcePath, "/")
	if resourcePath == "" {
		return Endpoint{Method: http.MethodGet, Path: apiRoot}
	}
	return Endpoint{Method: http.MethodGet, Path: restPath(strings.Split(resourcePath, "/")...)}
}
