package api

import "fmt"

// Media bytes are never fetched through this client; rendering is delegated
// to whatever loader the caller uses. These helpers derive the URLs it needs.

// ThumbnailURL returns the grid thumbnail URL for an item.
func (c *Client) ThumbnailURL(item MediaItem) string {
	return fmt.Sprintf("%s/thumbnail/%d", c.baseURL, item.ID)
}

// PreviewURL returns the full-screen preview URL for an item.
func (c *Client) PreviewURL(item MediaItem) string {
	return fmt.Sprintf("%s/preview/%d", c.baseURL, item.ID)
}

// StreamURL returns the video stream URL for an item.
func (c *Client) StreamURL(item MediaItem) string {
	return fmt.Sprintf("%s/stream/%d", c.baseURL, item.ID)
}
