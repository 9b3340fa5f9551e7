package api

import (
	"context"
	"fmt"
)

// GetSettings fetches the server-side settings document along with the keys
// the server refuses to let clients modify.
func (c *Client) GetSettings(ctx context.Context) (*SettingsResponse, error) {
	var result SettingsResponse
	r, err := c.restClient.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/settings")

	if err != nil {
		return nil, fmt.Errorf("failed to fetch settings: %w", err)
	}

	if r.IsError() {
		return nil, &Error{
			StatusCode: r.StatusCode(),
			Message:    r.String(),
		}
	}

	return &result, nil
}

// SaveSettings persists settings on the server.
func (c *Client) SaveSettings(ctx context.Context, settings AppSettings) error {
	r, err := c.restClient.R().
		SetContext(ctx).
		SetBody(settings).
		Post("/settings")

	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	if r.IsError() {
		return &Error{
			StatusCode: r.StatusCode(),
			Message:    r.String(),
		}
	}

	return nil
}

// CleanCache asks the server to delete its derived thumbnail/preview files.
func (c *Client) CleanCache(ctx context.Context) (*CleanupResponse, error) {
	var result CleanupResponse
	r, err := c.restClient.R().
		SetContext(ctx).
		SetResult(&result).
		Post("/cache/cleanup")

	if err != nil {
		return nil, fmt.Errorf("failed to run cache cleanup: %w", err)
	}

	if r.IsError() {
		return nil, &Error{
			StatusCode: r.StatusCode(),
			Message:    r.String(),
		}
	}

	return &result, nil
}
