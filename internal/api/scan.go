package api

import (
	"context"
	"fmt"
)

// GetScanStatus queries the server's background indexing state. Both wire
// revisions of the payload are accepted.
func (c *Client) GetScanStatus(ctx context.Context) (*ScanStatus, error) {
	var wire scanStatusWire
	r, err := c.restClient.R().
		SetContext(ctx).
		SetResult(&wire).
		Get("/scan-status")

	if err != nil {
		return nil, fmt.Errorf("failed to fetch scan status: %w", err)
	}

	if r.IsError() {
		return nil, &Error{
			StatusCode: r.StatusCode(),
			Message:    r.String(),
		}
	}

	return wire.toStatus(), nil
}
