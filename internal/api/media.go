package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// GetMediaPage fetches one page of gallery results for the given query.
// A non-2xx response whose body carries a scanning status is surfaced as
// *ScanInProgressError so callers can route to the scan-wait path.
func (c *Client) GetMediaPage(ctx context.Context, q MediaQuery) (*MediaPage, error) {
	var result MediaPage
	req := c.restClient.R().
		SetContext(ctx).
		SetQueryParam("sort", q.Sort).
		SetQueryParam("q", q.Query).
		SetQueryParam("page", strconv.Itoa(q.Page)).
		SetResult(&result)
	if q.GroupTag != "" {
		req.SetQueryParam("group", q.GroupTag)
	}

	r, err := req.Get("/media")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch media page %d: %w", q.Page, err)
	}

	if r.IsError() {
		if scanErr := parseScanError(r.Body()); scanErr != nil {
			return nil, scanErr
		}
		return nil, &Error{
			StatusCode: r.StatusCode(),
			Message:    r.String(),
		}
	}

	c.log.Debug().Int("page", result.Page).Int("items", len(result.Items)).Msg("fetched media page")
	return &result, nil
}

// GetRandomMedia fetches count randomly selected items.
func (c *Client) GetRandomMedia(ctx context.Context, count int) ([]MediaItem, error) {
	var result []MediaItem
	r, err := c.restClient.R().
		SetContext(ctx).
		SetQueryParam("count", strconv.Itoa(count)).
		SetResult(&result).
		Get("/random")

	if err != nil {
		return nil, fmt.Errorf("failed to fetch random media: %w", err)
	}

	if r.IsError() {
		if scanErr := parseScanError(r.Body()); scanErr != nil {
			return nil, scanErr
		}
		return nil, &Error{
			StatusCode: r.StatusCode(),
			Message:    r.String(),
		}
	}

	return result, nil
}

// DeleteMedia deletes a single item on the server.
func (c *Client) DeleteMedia(ctx context.Context, id int) error {
	var result DeleteResponse
	r, err := c.restClient.R().
		SetContext(ctx).
		SetResult(&result).
		Post(fmt.Sprintf("/delete/%d", id))

	if err != nil {
		return fmt.Errorf("failed to delete media %d: %w", id, err)
	}

	if r.IsError() {
		return &Error{
			StatusCode: r.StatusCode(),
			Message:    r.String(),
		}
	}

	// Group counts may have changed.
	invalidateGroups(c.baseURL)

	c.log.Debug().Int("id", id).Str("status", result.Status).Msg("deleted media item")
	return nil
}

// parseScanError returns a ScanInProgressError if the error body is a
// scanning-status payload, nil otherwise.
func parseScanError(body []byte) *ScanInProgressError {
	var wire scanStatusWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil
	}
	if wire.Status != "scanning" {
		return nil
	}
	return &ScanInProgressError{Progress: wire.Progress, Total: wire.Total}
}
