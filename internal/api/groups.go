package api

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	groupCacheSize = 16
	groupCacheTTL  = 30 * time.Second
)

type groupCacheEntry struct {
	groups    []GroupInfo
	fetchedAt time.Time
}

// groupCache memoizes group listings per endpoint. It is package level so a
// rebuilt Client after an endpoint switch still hits warm entries for
// endpoints seen earlier in the session.
var groupCache, _ = lru.New[string, groupCacheEntry](groupCacheSize)

// GetGroups returns the server's group buckets, served from a short-lived
// cache when possible so filter chips don't refetch on every page advance.
func (c *Client) GetGroups(ctx context.Context) ([]GroupInfo, error) {
	if entry, ok := groupCache.Get(c.baseURL); ok {
		if time.Since(entry.fetchedAt) < groupCacheTTL {
			return entry.groups, nil
		}
		groupCache.Remove(c.baseURL)
	}

	var result []GroupInfo
	r, err := c.restClient.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/groups")

	if err != nil {
		return nil, fmt.Errorf("failed to fetch groups: %w", err)
	}

	if r.IsError() {
		return nil, &Error{
			StatusCode: r.StatusCode(),
			Message:    r.String(),
		}
	}

	groupCache.Add(c.baseURL, groupCacheEntry{groups: result, fetchedAt: time.Now()})
	return result, nil
}

// invalidateGroups drops the cached group listing for an endpoint.
func invalidateGroups(baseURL string) {
	groupCache.Remove(baseURL)
}
