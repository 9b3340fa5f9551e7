package gallery

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vuvur/cli/internal/api"
	"github.com/vuvur/cli/pkg/config"
)

const defaultPollInterval = 2 * time.Second

// Controller owns a gallery session: it is the only writer of the session's
// phase, items and filters. Callers read through Snapshot.
//
// Every fetch is issued under the generation current at the time; resets and
// endpoint switches bump the generation, and a completing fetch whose
// generation no longer matches discards its result instead of merging it.
type Controller struct {
	sessionID  uuid.UUID
	log        zerolog.Logger
	newGateway GatewayFactory

	pollInterval time.Duration

	mu       sync.Mutex
	gateway  Gateway
	endpoint string
	zoom     float64
	phase    Phase
	filters  Filters
	fetching bool
	gen      uint64
	poller   *poller
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// WithPollInterval overrides the scan-status poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) { c.pollInterval = d }
}

// NewController creates a controller bound to the given endpoint. No fetch is
// issued until LoadPage or Refresh is called.
func NewController(endpoint string, zoom float64, factory GatewayFactory, opts ...Option) *Controller {
	c := &Controller{
		sessionID:    uuid.New(),
		log:          zerolog.Nop(),
		newGateway:   factory,
		pollInterval: defaultPollInterval,
		endpoint:     endpoint,
		zoom:         zoom,
		phase:        Initializing{},
		filters:      Filters{SortKey: DefaultSortKey},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().Str("session", c.sessionID.String()).Logger()
	c.gateway = factory(endpoint)
	return c
}

// Snapshot returns a read-only copy of the current phase.
func (c *Controller) Snapshot() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ready, ok := c.phase.(Ready); ok {
		items := make([]api.MediaItem, len(ready.Items))
		copy(items, ready.Items)
		groups := make([]api.GroupInfo, len(ready.Groups))
		copy(groups, ready.Groups)
		ready.Items = items
		ready.Groups = groups
		ready.FetchingNext = c.fetching
		return ready
	}
	return c.phase
}

// Filters returns the last-applied query parameters.
func (c *Controller) Filters() Filters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters
}

// LoadPage fetches the given page with the current filters. Page 1 is a
// reset fetch; higher pages append. A call while another fetch is in flight,
// or for a page beyond the known total, is dropped.
func (c *Controller) LoadPage(ctx context.Context, page int) error {
	return c.fetchPage(ctx, page, page == 1, false)
}

// ApplySearch sets the text filter and performs a reset fetch.
func (c *Controller) ApplySearch(ctx context.Context, query string) error {
	c.mu.Lock()
	c.filters.Query = query
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// ApplySort sets the sort key and performs a reset fetch.
func (c *Controller) ApplySort(ctx context.Context, key string) error {
	c.mu.Lock()
	c.filters.SortKey = key
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// ApplyGroupFilter sets the group filter and performs a reset fetch. An
// empty tag selects all groups.
func (c *Controller) ApplyGroupFilter(ctx context.Context, tag string) error {
	c.mu.Lock()
	c.filters.GroupTag = tag
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// ApplyFilters replaces all query parameters at once and performs a single
// reset fetch.
func (c *Controller) ApplyFilters(ctx context.Context, f Filters) error {
	if f.SortKey == "" {
		f.SortKey = DefaultSortKey
	}
	c.mu.Lock()
	c.filters = f
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// Refresh stops any active scan poll and performs a reset fetch of page 1
// with the current filters and endpoint.
func (c *Controller) Refresh(ctx context.Context) error {
	c.stopPolling()
	return c.fetchPage(ctx, 1, true, true)
}

// DeleteItem deletes one item on the server, best effort. On success the
// matching entry is removed from the session in place; on failure the
// session is left untouched and the error is returned to the caller only.
func (c *Controller) DeleteItem(ctx context.Context, id int) error {
	c.mu.Lock()
	gw := c.gateway
	c.mu.Unlock()

	if err := gw.DeleteMedia(ctx, id); err != nil {
		c.log.Warn().Err(err).Int("id", id).Msg("delete failed, session unchanged")
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if ready, ok := c.phase.(Ready); ok {
		kept := make([]api.MediaItem, 0, len(ready.Items))
		for _, item := range ready.Items {
			if item.ID != id {
				kept = append(kept, item)
			}
		}
		ready.Items = kept
		c.phase = ready
	}
	return nil
}

// SwitchEndpoint rebuilds the API binding for the new endpoint and refreshes.
// Results of fetches still in flight against the old endpoint are discarded
// via the generation bump.
func (c *Controller) SwitchEndpoint(ctx context.Context, endpoint string) error {
	c.mu.Lock()
	if endpoint == c.endpoint {
		c.mu.Unlock()
		return nil
	}
	c.endpoint = endpoint
	c.gateway = c.newGateway(endpoint)
	c.gen++
	c.log.Info().Str("endpoint", endpoint).Msg("switched endpoint")
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// SetZoomLevel updates the display zoom on the current session. No refetch;
// zoom is presentation-only.
func (c *Controller) SetZoomLevel(zoom float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zoom = zoom
	if ready, ok := c.phase.(Ready); ok {
		ready.ZoomLevel = zoom
		c.phase = ready
	}
}

// Run consumes config-store events until ctx is cancelled or the channel
// closes. Endpoint changes rebuild the gateway and refresh; zoom changes
// patch the session in place.
func (c *Controller) Run(ctx context.Context, events <-chan config.Event) {
	defer c.stopPolling()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Kind {
			case config.EndpointChanged:
				if err := c.SwitchEndpoint(ctx, ev.Endpoint); err != nil {
					c.log.Warn().Err(err).Msg("refresh after endpoint switch failed")
				}
			case config.ZoomChanged:
				c.SetZoomLevel(ev.Zoom)
			}
		}
	}
}

// fetchPage issues exactly one page fetch. A fetch is dropped while another
// is in flight unless bypassGuard is set (refresh and filter/endpoint
// resets must supersede an outstanding fetch rather than be dropped).
// Reset fetches bump the generation so the superseded fetch's result is
// discarded when it lands.
func (c *Controller) fetchPage(ctx context.Context, page int, reset, bypassGuard bool) error {
	c.mu.Lock()
	if c.fetching && !bypassGuard {
		c.mu.Unlock()
		return nil
	}
	if !reset {
		if ready, ok := c.phase.(Ready); ok && ready.TotalPages > 0 && page > ready.TotalPages {
			c.mu.Unlock()
			return nil
		}
	} else {
		c.gen++
		c.phase = Initializing{}
	}
	c.fetching = true
	gen := c.gen
	gw := c.gateway
	endpoint := c.endpoint
	zoom := c.zoom
	query := api.MediaQuery{
		Sort:     c.filters.SortKey,
		Query:    c.filters.Query,
		GroupTag: c.filters.GroupTag,
		Page:     page,
	}
	c.mu.Unlock()

	pageResp, fetchErr := gw.GetMediaPage(ctx, query)

	// Groups are auxiliary: a failure degrades to an empty list instead of
	// failing the reset.
	var groups []api.GroupInfo
	if fetchErr == nil && reset {
		var groupsErr error
		groups, groupsErr = gw.GetGroups(ctx)
		if groupsErr != nil {
			c.log.Warn().Err(groupsErr).Msg("groups fetch failed, continuing without")
			groups = nil
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		c.log.Debug().Uint64("gen", gen).Uint64("current", c.gen).Msg("discarding stale fetch result")
		return nil
	}
	c.fetching = false

	if fetchErr != nil {
		var scanErr *api.ScanInProgressError
		if errors.As(fetchErr, &scanErr) {
			c.phase = Scanning{Progress: scanErr.Progress, Total: scanErr.Total}
			c.startPollingLocked()
			return nil
		}
		c.phase = Failed{Message: fetchErr.Error()}
		return fetchErr
	}

	prev, wasReady := c.phase.(Ready)
	var items []api.MediaItem
	if !reset && wasReady {
		items = appendDeduped(prev.Items, pageResp.Items)
		groups = prev.Groups
	} else {
		items = appendDeduped(nil, pageResp.Items)
	}
	c.phase = Ready{
		Items:      items,
		Page:       pageResp.Page,
		TotalPages: pageResp.TotalPages,
		Endpoint:   endpoint,
		ZoomLevel:  zoom,
		Groups:     groups,
		GroupTag:   query.GroupTag,
	}
	return nil
}

// appendDeduped concatenates incoming onto existing, keeping the first-seen
// occurrence of each ID.
func appendDeduped(existing, incoming []api.MediaItem) []api.MediaItem {
	seen := make(map[int]struct{}, len(existing)+len(incoming))
	out := make([]api.MediaItem, 0, len(existing)+len(incoming))
	for _, item := range existing {
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}
	for _, item := range incoming {
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}
	return out
}
