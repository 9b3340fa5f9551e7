package gallery

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/vuvur/cli/internal/api"
	"github.com/vuvur/cli/pkg/config"
)

// fakeGateway is a scriptable Gateway for controller tests.
type fakeGateway struct {
	mu          sync.Mutex
	pageFn      func(q api.MediaQuery) (*api.MediaPage, error)
	scanFn      func() (*api.ScanStatus, error)
	groups      []api.GroupInfo
	groupsErr   error
	deleteErr   error
	mediaCalls  []api.MediaQuery
	scanCalls   int
	deleteCalls []int
	block       chan struct{}
	started     chan struct{}
}

// newFakeGateway serves fixed pages; TotalPages is len(pages).
func newFakeGateway(pages map[int][]api.MediaItem) *fakeGateway {
	return &fakeGateway{
		pageFn: func(q api.MediaQuery) (*api.MediaPage, error) {
			items, ok := pages[q.Page]
			if !ok {
				return nil, &api.Error{StatusCode: 404, Message: "no such page"}
			}
			return &api.MediaPage{
				Page:       q.Page,
				TotalPages: len(pages),
				Items:      items,
			}, nil
		},
		scanFn: func() (*api.ScanStatus, error) {
			return &api.ScanStatus{Scanning: false}, nil
		},
	}
}

func (f *fakeGateway) GetMediaPage(ctx context.Context, q api.MediaQuery) (*api.MediaPage, error) {
	f.mu.Lock()
	f.mediaCalls = append(f.mediaCalls, q)
	block := f.block
	started := f.started
	f.started = nil
	pageFn := f.pageFn
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if block != nil {
		<-block
	}
	return pageFn(q)
}

func (f *fakeGateway) GetScanStatus(ctx context.Context) (*api.ScanStatus, error) {
	f.mu.Lock()
	f.scanCalls++
	scanFn := f.scanFn
	f.mu.Unlock()
	return scanFn()
}

func (f *fakeGateway) GetGroups(ctx context.Context) ([]api.GroupInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.groups, f.groupsErr
}

func (f *fakeGateway) DeleteMedia(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls = append(f.deleteCalls, id)
	return f.deleteErr
}

// setBlocking makes the next GetMediaPage calls wait until release. The
// returned channel is closed once a blocked call has started.
func (f *fakeGateway) setBlocking() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.block = make(chan struct{})
	f.started = make(chan struct{})
	return f.started
}

func (f *fakeGateway) release() {
	f.mu.Lock()
	block := f.block
	f.block = nil
	f.mu.Unlock()
	if block != nil {
		close(block)
	}
}

func (f *fakeGateway) mediaCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.mediaCalls)
}

func (f *fakeGateway) callsForPage(page int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, q := range f.mediaCalls {
		if q.Page == page {
			n++
		}
	}
	return n
}

func item(id int) api.MediaItem {
	return api.MediaItem{ID: id, Path: "media", Kind: "image"}
}

func items(ids ...int) []api.MediaItem {
	out := make([]api.MediaItem, len(ids))
	for i, id := range ids {
		out[i] = item(id)
	}
	return out
}

func itemIDs(list []api.MediaItem) []int {
	out := make([]int, len(list))
	for i, it := range list {
		out[i] = it.ID
	}
	return out
}

func equalIDs(a []int, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func newTestController(gw Gateway) *Controller {
	return NewController("http://a", 2.5, func(string) Gateway { return gw },
		WithPollInterval(5*time.Millisecond))
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func readyPhase(t *testing.T, c *Controller) Ready {
	t.Helper()
	ready, ok := c.Snapshot().(Ready)
	if !ok {
		t.Fatalf("expected Ready, got %T", c.Snapshot())
	}
	return ready
}

func TestLoadPageAppendsAndDedups(t *testing.T) {
	// Page 2 overlaps page 1 on id 3, as happens when the server's result
	// set shifts between page fetches.
	gw := newFakeGateway(map[int][]api.MediaItem{
		1: items(1, 2, 3),
		2: items(3, 4, 5),
	})
	c := newTestController(gw)
	ctx := context.Background()

	if err := c.LoadPage(ctx, 1); err != nil {
		t.Fatalf("LoadPage(1) failed: %v", err)
	}
	if err := c.LoadPage(ctx, 2); err != nil {
		t.Fatalf("LoadPage(2) failed: %v", err)
	}

	ready := readyPhase(t, c)
	if !equalIDs(itemIDs(ready.Items), []int{1, 2, 3, 4, 5}) {
		t.Errorf("expected ids [1 2 3 4 5] in first-seen order, got %v", itemIDs(ready.Items))
	}
	if ready.Page != 2 {
		t.Errorf("expected page cursor 2, got %d", ready.Page)
	}
}

func TestLoadPageBeyondTotalPagesIsNoop(t *testing.T) {
	gw := newFakeGateway(map[int][]api.MediaItem{1: items(1, 2)})
	c := newTestController(gw)
	ctx := context.Background()

	if err := c.LoadPage(ctx, 1); err != nil {
		t.Fatalf("LoadPage(1) failed: %v", err)
	}
	before := readyPhase(t, c)

	if err := c.LoadPage(ctx, 2); err != nil {
		t.Fatalf("LoadPage(2) should be a no-op, got %v", err)
	}

	if got := gw.mediaCallCount(); got != 1 {
		t.Errorf("expected no network call beyond total pages, got %d calls", got)
	}
	after := readyPhase(t, c)
	if !equalIDs(itemIDs(after.Items), itemIDs(before.Items)) || after.Page != before.Page {
		t.Error("state changed by an out-of-range page load")
	}
}

func TestApplySearchResetsItems(t *testing.T) {
	gw := newFakeGateway(nil)
	gw.pageFn = func(q api.MediaQuery) (*api.MediaPage, error) {
		if q.Query == "cat" {
			return &api.MediaPage{Page: 1, TotalPages: 1, Items: items(7, 8)}, nil
		}
		return &api.MediaPage{Page: q.Page, TotalPages: 2, Items: items(1, 2, 3)}, nil
	}
	c := newTestController(gw)
	ctx := context.Background()

	if err := c.LoadPage(ctx, 1); err != nil {
		t.Fatalf("LoadPage(1) failed: %v", err)
	}
	if err := c.ApplySearch(ctx, "cat"); err != nil {
		t.Fatalf("ApplySearch failed: %v", err)
	}

	ready := readyPhase(t, c)
	if !equalIDs(itemIDs(ready.Items), []int{7, 8}) {
		t.Errorf("expected only filtered ids [7 8], got %v", itemIDs(ready.Items))
	}

	gw.mu.Lock()
	last := gw.mediaCalls[len(gw.mediaCalls)-1]
	gw.mu.Unlock()
	if last.Page != 1 || last.Query != "cat" {
		t.Errorf("expected reset fetch of page 1 with query=cat, got page=%d query=%q", last.Page, last.Query)
	}
}

func TestConcurrentLoadPageSingleFlight(t *testing.T) {
	gw := newFakeGateway(map[int][]api.MediaItem{
		1: items(1, 2),
		2: items(3, 4),
		3: items(5, 6),
	})
	c := newTestController(gw)
	ctx := context.Background()

	if err := c.LoadPage(ctx, 1); err != nil {
		t.Fatalf("LoadPage(1) failed: %v", err)
	}

	started := gw.setBlocking()
	done := make(chan error, 1)
	go func() { done <- c.LoadPage(ctx, 2) }()
	<-started

	// Second call while the first is outstanding must be dropped, not queued.
	if err := c.LoadPage(ctx, 2); err != nil {
		t.Fatalf("dropped LoadPage returned error: %v", err)
	}

	gw.release()
	if err := <-done; err != nil {
		t.Fatalf("blocked LoadPage failed: %v", err)
	}

	if got := gw.callsForPage(2); got != 1 {
		t.Errorf("expected exactly one network call for page 2, got %d", got)
	}
	ready := readyPhase(t, c)
	if !equalIDs(itemIDs(ready.Items), []int{1, 2, 3, 4}) {
		t.Errorf("unexpected items after guarded fetch: %v", itemIDs(ready.Items))
	}
}

func TestScanningTransitionAndRecovery(t *testing.T) {
	gw := newFakeGateway(nil)
	var scriptMu sync.Mutex
	firstFetch := true
	gw.pageFn = func(q api.MediaQuery) (*api.MediaPage, error) {
		scriptMu.Lock()
		defer scriptMu.Unlock()
		if firstFetch {
			firstFetch = false
			return nil, &api.ScanInProgressError{Progress: 10, Total: 100}
		}
		return &api.MediaPage{Page: 1, TotalPages: 1, Items: items(1, 2)}, nil
	}
	scanned := false
	gw.scanFn = func() (*api.ScanStatus, error) {
		scriptMu.Lock()
		defer scriptMu.Unlock()
		if !scanned {
			scanned = true
			return &api.ScanStatus{Scanning: true, Progress: 50, Total: 100}, nil
		}
		return &api.ScanStatus{Scanning: false, Progress: 100, Total: 100}, nil
	}
	c := newTestController(gw)

	if err := c.LoadPage(context.Background(), 1); err != nil {
		t.Fatalf("scanning signal must not surface as error, got %v", err)
	}
	if scanning, ok := c.Snapshot().(Scanning); !ok {
		t.Fatalf("expected Scanning, got %T", c.Snapshot())
	} else if scanning.Progress != 10 || scanning.Total != 100 {
		t.Errorf("expected Scanning(10,100), got Scanning(%d,%d)", scanning.Progress, scanning.Total)
	}

	waitFor(t, "scan completion refresh", func() bool {
		_, ok := c.Snapshot().(Ready)
		return ok
	})

	ready := readyPhase(t, c)
	if !equalIDs(itemIDs(ready.Items), []int{1, 2}) {
		t.Errorf("expected fresh page after scan, got %v", itemIDs(ready.Items))
	}

	// The completion refresh must be issued exactly once.
	time.Sleep(50 * time.Millisecond)
	if got := gw.mediaCallCount(); got != 2 {
		t.Errorf("expected 2 page fetches (initial + one refresh), got %d", got)
	}
}

func TestDeleteItem(t *testing.T) {
	tests := []struct {
		name      string
		deleteID  int
		deleteErr error
		wantIDs   []int
		wantErr   bool
	}{
		{"present id removed in place", 2, nil, []int{1, 3}, false},
		{"absent id is a no-op", 99, nil, []int{1, 2, 3}, false},
		{"failed delete leaves session untouched", 2, &api.Error{StatusCode: 500, Message: "boom"}, []int{1, 2, 3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newFakeGateway(map[int][]api.MediaItem{1: items(1, 2, 3)})
			gw.deleteErr = tt.deleteErr
			c := newTestController(gw)
			ctx := context.Background()

			if err := c.LoadPage(ctx, 1); err != nil {
				t.Fatalf("LoadPage(1) failed: %v", err)
			}

			err := c.DeleteItem(ctx, tt.deleteID)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DeleteItem error = %v, wantErr = %v", err, tt.wantErr)
			}

			ready := readyPhase(t, c)
			if !equalIDs(itemIDs(ready.Items), tt.wantIDs) {
				t.Errorf("expected ids %v, got %v", tt.wantIDs, itemIDs(ready.Items))
			}
		})
	}
}

func TestEndpointSwitchDiscardsStaleFetch(t *testing.T) {
	gwA := newFakeGateway(map[int][]api.MediaItem{1: items(1, 2, 3)})
	gwB := newFakeGateway(map[int][]api.MediaItem{1: items(10)})
	gateways := map[string]Gateway{"http://a": gwA, "http://b": gwB}
	c := NewController("http://a", 2.5, func(endpoint string) Gateway { return gateways[endpoint] },
		WithPollInterval(5*time.Millisecond))
	ctx := context.Background()

	started := gwA.setBlocking()
	done := make(chan error, 1)
	go func() { done <- c.LoadPage(ctx, 1) }()
	<-started

	// Switch endpoints while A's fetch is still in flight.
	if err := c.SwitchEndpoint(ctx, "http://b"); err != nil {
		t.Fatalf("SwitchEndpoint failed: %v", err)
	}
	ready := readyPhase(t, c)
	if !equalIDs(itemIDs(ready.Items), []int{10}) {
		t.Fatalf("expected endpoint B items [10], got %v", itemIDs(ready.Items))
	}

	// A's stale result resolves now; it must be discarded, not merged.
	gwA.release()
	<-done
	time.Sleep(20 * time.Millisecond)

	ready = readyPhase(t, c)
	if !equalIDs(itemIDs(ready.Items), []int{10}) {
		t.Errorf("stale fetch leaked into session: %v", itemIDs(ready.Items))
	}
	if ready.Endpoint != "http://b" {
		t.Errorf("expected endpoint http://b, got %s", ready.Endpoint)
	}
}

func TestZoomChangePatchesWithoutRefetch(t *testing.T) {
	gw := newFakeGateway(map[int][]api.MediaItem{1: items(1)})
	c := newTestController(gw)

	if err := c.LoadPage(context.Background(), 1); err != nil {
		t.Fatalf("LoadPage(1) failed: %v", err)
	}
	calls := gw.mediaCallCount()

	c.SetZoomLevel(4.0)

	ready := readyPhase(t, c)
	if ready.ZoomLevel != 4.0 {
		t.Errorf("expected zoom 4.0, got %v", ready.ZoomLevel)
	}
	if !equalIDs(itemIDs(ready.Items), []int{1}) {
		t.Errorf("zoom change altered items: %v", itemIDs(ready.Items))
	}
	if gw.mediaCallCount() != calls {
		t.Error("zoom change triggered a refetch")
	}
}

func TestFetchErrorWhileReadyDemotesToFailed(t *testing.T) {
	gw := newFakeGateway(nil)
	gw.pageFn = func(q api.MediaQuery) (*api.MediaPage, error) {
		if q.Page == 1 {
			return &api.MediaPage{Page: 1, TotalPages: 3, Items: items(1, 2)}, nil
		}
		return nil, &api.Error{StatusCode: 502, Message: "bad gateway"}
	}
	c := newTestController(gw)
	ctx := context.Background()

	if err := c.LoadPage(ctx, 1); err != nil {
		t.Fatalf("LoadPage(1) failed: %v", err)
	}
	if err := c.LoadPage(ctx, 2); err == nil {
		t.Fatal("expected error from failing page fetch")
	}

	failed, ok := c.Snapshot().(Failed)
	if !ok {
		t.Fatalf("expected Failed, got %T", c.Snapshot())
	}
	if failed.Message == "" {
		t.Error("Failed phase carries no message")
	}
}

func TestGroupsFailureDegradesToEmpty(t *testing.T) {
	gw := newFakeGateway(map[int][]api.MediaItem{1: items(1)})
	gw.groupsErr = &api.Error{StatusCode: 500, Message: "groups broken"}
	c := newTestController(gw)

	if err := c.LoadPage(context.Background(), 1); err != nil {
		t.Fatalf("reset must tolerate a groups failure, got %v", err)
	}
	ready := readyPhase(t, c)
	if len(ready.Groups) != 0 {
		t.Errorf("expected empty groups on auxiliary failure, got %v", ready.Groups)
	}
}

func TestGroupsPopulatedOnReset(t *testing.T) {
	gw := newFakeGateway(map[int][]api.MediaItem{1: items(1), 2: items(2)})
	gw.groups = []api.GroupInfo{{Tag: "vacation", Count: 12}, {Tag: "pets", Count: 4}}
	c := newTestController(gw)
	ctx := context.Background()

	if err := c.LoadPage(ctx, 1); err != nil {
		t.Fatalf("LoadPage(1) failed: %v", err)
	}
	ready := readyPhase(t, c)
	if len(ready.Groups) != 2 || ready.Groups[0].Tag != "vacation" {
		t.Errorf("unexpected groups: %v", ready.Groups)
	}

	// Page appends keep the previously fetched groups.
	if err := c.LoadPage(ctx, 2); err != nil {
		t.Fatalf("LoadPage(2) failed: %v", err)
	}
	ready = readyPhase(t, c)
	if len(ready.Groups) != 2 {
		t.Errorf("append fetch dropped groups: %v", ready.Groups)
	}
}

func TestRunReactsToConfigEvents(t *testing.T) {
	gwA := newFakeGateway(map[int][]api.MediaItem{1: items(1)})
	gwB := newFakeGateway(map[int][]api.MediaItem{1: items(2)})
	gateways := map[string]Gateway{"http://a": gwA, "http://b": gwB}
	c := NewController("http://a", 2.5, func(endpoint string) Gateway { return gateways[endpoint] },
		WithPollInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan config.Event)
	go c.Run(ctx, events)

	if err := c.LoadPage(ctx, 1); err != nil {
		t.Fatalf("LoadPage(1) failed: %v", err)
	}

	events <- config.Event{Kind: config.ZoomChanged, Zoom: 3.0}
	waitFor(t, "zoom update", func() bool {
		ready, ok := c.Snapshot().(Ready)
		return ok && ready.ZoomLevel == 3.0
	})

	events <- config.Event{Kind: config.EndpointChanged, Endpoint: "http://b"}
	waitFor(t, "endpoint refresh", func() bool {
		ready, ok := c.Snapshot().(Ready)
		return ok && ready.Endpoint == "http://b" && equalIDs(itemIDs(ready.Items), []int{2})
	})
}
