package gallery

import "github.com/vuvur/cli/internal/api"

// Phase is the closed set of states a gallery session moves through. Each
// variant carries exactly the fields meaningful to it, so a session can
// never be "ready but also failed".
//
//	Initializing -> Ready     first page fetch succeeds
//	Initializing -> Scanning  first page fetch hits the scan-in-progress signal
//	Initializing -> Failed    first page fetch fails for any other reason
//	Scanning     -> Scanning  poll tick, progress updated
//	Scanning     -> Ready     poll reports completion, fresh page-1 fetch
//	Ready        -> Ready     page append or reset fetch
//	Ready        -> Failed    fetch error while ready
//
// Any reset (search/sort/group change, manual refresh, endpoint switch)
// returns the session to Initializing with accumulated items discarded.
type Phase interface {
	phase()
}

// Initializing is the state before the first page fetch has resolved.
type Initializing struct{}

// Scanning reports that the server is still indexing its library.
type Scanning struct {
	Progress int
	Total    int
}

// Failed carries the message of the error that ended the last fetch.
type Failed struct {
	Message string
}

// Ready holds the accumulated gallery content.
type Ready struct {
	Items        []api.MediaItem
	Page         int // highest successfully loaded page
	TotalPages   int
	FetchingNext bool
	Endpoint     string
	ZoomLevel    float64
	Groups       []api.GroupInfo
	GroupTag     string // active group filter, "" means all
}

func (Initializing) phase() {}
func (Scanning) phase()     {}
func (Failed) phase()       {}
func (Ready) phase()        {}

// Filters are the last-applied gallery query parameters. Empty query means
// no text filter; empty GroupTag means all groups.
type Filters struct {
	SortKey  string
	Query    string
	GroupTag string
}

// DefaultSortKey matches the server's default ordering.
const DefaultSortKey = "random"
