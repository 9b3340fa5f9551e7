package gallery

import (
	"context"
	"time"
)

// poller is the handle for one scan-status poll loop. The controller holds
// at most one; startPollingLocked is a no-op while it is set.
type poller struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// startPollingLocked begins polling the server's scan status until the scan
// completes. Idempotent: a second call while a loop is active does nothing.
// Caller must hold c.mu.
func (c *Controller) startPollingLocked() {
	if c.poller != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &poller{cancel: cancel, done: make(chan struct{})}
	c.poller = p
	c.log.Debug().Msg("scan poll started")
	go c.pollScanStatus(ctx, p)
}

// stopPolling cancels the active poll loop, if any, and waits for it to
// exit so a poll tick can never write state after a manual refresh reset it.
func (c *Controller) stopPolling() {
	c.mu.Lock()
	p := c.poller
	c.poller = nil
	c.mu.Unlock()
	if p == nil {
		return
	}
	p.cancel()
	<-p.done
	c.log.Debug().Msg("scan poll stopped")
}

// pollScanStatus is the poll loop body. Status errors are treated as "still
// scanning" so transient network hiccups never abort the wait; the loop only
// ends on completion or cancellation. There is deliberately no retry ceiling
// or backoff: scan completion is assumed bounded but not time-boxed.
func (c *Controller) pollScanStatus(ctx context.Context, p *poller) {
	defer close(p.done)
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		c.mu.Lock()
		gw := c.gateway
		c.mu.Unlock()

		status, err := gw.GetScanStatus(ctx)
		if err != nil {
			c.log.Debug().Err(err).Msg("scan status poll failed, retrying")
			continue
		}

		if status.Scanning {
			c.mu.Lock()
			if c.poller == p {
				c.phase = Scanning{Progress: status.Progress, Total: status.Total}
			}
			c.mu.Unlock()
			continue
		}

		// Scan complete. Detach the handle first so the refresh below does
		// not wait on our own loop, then issue exactly one reset fetch.
		c.mu.Lock()
		active := c.poller == p
		if active {
			c.poller = nil
		}
		c.mu.Unlock()

		if active {
			c.log.Info().Msg("scan complete, refreshing gallery")
			if err := c.fetchPage(ctx, 1, true, true); err != nil {
				c.log.Warn().Err(err).Msg("refresh after scan completion failed")
			}
		}
		return
	}
}
