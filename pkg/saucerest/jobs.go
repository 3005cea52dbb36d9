package saucerest

import (
	"context"
	"crypto/hmac"
	"crypto/md5" //nolint:gosec // the job link token is defined as HMAC-MD5 by the service
	"encoding/hex"
	"encoding/json"
	"net/url"
)

// GetJobInfo returns the job document.
func (c *Client) GetJobInfo(ctx context.Context, jobID string) (json.RawMessage, error) {
	return c.callRaw(ctx, c.endpoints.JobInfo(jobID))
}

// UpdateJobInfo sends updates as the job's new attributes.
func (c *Client) UpdateJobInfo(ctx context.Context, jobID string, updates map[string]any) (json.RawMessage, error) {
	return c.callRaw(ctx, c.endpoints.UpdateJobInfo(jobID, updates))
}

// JobPassed marks the job as passed.
func (c *Client) JobPassed(ctx context.Context, jobID string) (json.RawMessage, error) {
	return c.callRaw(ctx, c.endpoints.JobStatus(jobID, true))
}

// JobFailed marks the job as failed.
func (c *Client) JobFailed(ctx context.Context, jobID string) (json.RawMessage, error) {
	return c.callRaw(ctx, c.endpoints.JobStatus(jobID, false))
}

// StopJob stops a running job.
func (c *Client) StopJob(ctx context.Context, jobID string) (json.RawMessage, error) {
	return c.callRaw(ctx, c.endpoints.StopJob(jobID))
}

// DeleteJob removes the job and its assets.
func (c *Client) DeleteJob(ctx context.Context, jobID string) (json.RawMessage, error) {
	return c.callRaw(ctx, c.endpoints.DeleteJob(jobID))
}

// GetFullJobs lists recent jobs with full details. The optional limit
// defaults to DefaultFullJobsLimit.
func (c *Client) GetFullJobs(ctx context.Context, limit ...int) (json.RawMessage, error) {
	n := DefaultFullJobsLimit
	if len(limit) > 0 {
		n = limit[0]
	}
	return c.callRaw(ctx, c.endpoints.FullJobs(n))
}

// GetBuildFullJobs lists the jobs of a build with full details.
func (c *Client) GetBuildFullJobs(ctx context.Context, buildID string) (json.RawMessage, error) {
	return c.callRaw(ctx, c.endpoints.BuildFullJobs(buildID))
}

// GetJobAssets lists the asset names of a job.
func (c *Client) GetJobAssets(ctx context.Context, jobID string) (json.RawMessage, error) {
	return c.callRaw(ctx, c.endpoints.JobAssets(jobID))
}

// DownloadLog saves the Selenium server log. When dest is a directory the
// file is named <jobID>.log inside it. The written path is returned.
func (c *Client) DownloadLog(ctx context.Context, jobID, dest string) (string, error) {
	return c.downloadAsset(ctx, jobID, AssetSeleniumLog, AssetDestination(dest, jobID, ".log"))
}

// DownloadVideo saves the job video (<jobID>.flv inside a directory dest).
func (c *Client) DownloadVideo(ctx context.Context, jobID, dest string) (string, error) {
	return c.downloadAsset(ctx, jobID, AssetVideo, AssetDestination(dest, jobID, ".flv"))
}

// DownloadHAR saves the network capture (<jobID>.har inside a directory dest).
func (c *Client) DownloadHAR(ctx context.Context, jobID, dest string) (string, error) {
	return c.downloadAsset(ctx, jobID, AssetHAR, AssetDestination(dest, jobID, ".har"))
}

func (c *Client) downloadAsset(ctx context.Context, jobID, asset, dest string) (string, error) {
	ep := c.endpoints.JobAsset(jobID, asset)
	if err := c.Download(ctx, ep.Path, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// PublicJobLink returns a shareable job URL authenticated by an HMAC-MD5
// token keyed with "username:accessKey". No request is made.
func (c *Client) PublicJobLink(jobID string) string {
	mac := hmac.New(md5.New, []byte(c.creds.Username+":"+c.creds.AccessKey))
	mac.Write([]byte(jobID))
	token := hex.EncodeToString(mac.Sum(nil))
	return c.cfg.BaseURL + "/jobs/" + url.PathEscape(jobID) + "?auth=" + token
}
