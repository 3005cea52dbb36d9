package saucerest

import (
	"context"
	"encoding/json"
)

func (c *Client) GetUser(ctx context.Context) (json.RawMessage, error) {
	return c.callRaw(ctx, c.endpoints.User())
}

func (c *Client) GetConcurrency(ctx context.Context) (json.RawMessage, error) {
	return c.callRaw(ctx, c.endpoints.Concurrency())
}

func (c *Client) GetActivity(ctx context.Context) (json.RawMessage, error) {
	return c.callRaw(ctx, c.endpoints.Activity())
}

func (c *Client) GetTunnels(ctx context.Context) (json.RawMessage, error) {
	return c.callRaw(ctx, c.endpoints.Tunnels())
}

func (c *Client) GetTunnelInformation(ctx context.Context, tunnelID string) (json.RawMessage, error) {
	return c.callRaw(ctx, c.endpoints.TunnelInformation(tunnelID))
}

func (c *Client) DeleteTunnel(ctx context.Context, tunnelID string) (json.RawMessage, error) {
	return c.callRaw(ctx, c.endpoints.DeleteTunnel(tunnelID))
}

// GetStoredFiles lists the files in the account's temporary storage.
func (c *Client) GetStoredFiles(ctx context.Context) (json.RawMessage, error) {
	return c.callRaw(ctx, c.endpoints.StoredFiles())
}

// GetSupportedPlatforms lists platforms for an automation API such as
// "webdriver" or "appium". It needs no authentication.
func (c *Client) GetSupportedPlatforms(ctx context.Context, automationAPI string) (json.RawMessage, error) {
	return c.callRaw(ctx, c.endpoints.SupportedPlatforms(automationAPI))
}

// RecordCI reports the CI platform in use to the stats endpoint.
func (c *Client) RecordCI(ctx context.Context, platform, platformVersion string) (json.RawMessage, error) {
	return c.callRaw(ctx, c.endpoints.RecordCI(platform, platformVersion))
}

// RetrieveResults fetches an arbitrary resource below /rest/v1.
func (c *Client) RetrieveResults(ctx context.Context, resourcePath string) (json.RawMessage, error) {
	return c.callRaw(ctx, c.endpoints.Results(resourcePath))
}
