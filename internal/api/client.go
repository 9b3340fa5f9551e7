package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Error represents a non-2xx response from the server.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// ScanInProgressError is returned when the server refuses a gallery query
// because its background media scan has not finished yet. It is a routing
// signal, not a genuine failure.
type ScanInProgressError struct {
	Progress int
	Total    int
}

func (e *ScanInProgressError) Error() string {
	return fmt.Sprintf("server scan in progress (%d/%d)", e.Progress, e.Total)
}

// Client is a typed binding to the remote gallery API for a single endpoint.
// Endpoint switches build a fresh Client rather than mutating an existing one.
type Client struct {
	restClient *resty.Client
	baseURL    string
	log        zerolog.Logger
}

// Params configures a Client.
type Params struct {
	BaseURL string
	Token   string // optional bearer token, empty means unauthenticated
	Timeout time.Duration
	Logger  zerolog.Logger
}

// NewClient creates a Client bound to the given endpoint.
func NewClient(p Params) *Client {
	timeout := p.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	rc := resty.New().
		SetBaseURL(p.BaseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if p.Token != "" {
		rc.SetAuthToken(p.Token)
	}
	return &Client{
		restClient: rc,
		baseURL:    strings.TrimRight(p.BaseURL, "/"),
		log:        p.Logger.With().Str("component", "api").Str("endpoint", p.BaseURL).Logger(),
	}
}

// BaseURL returns the endpoint this client is bound to.
func (c *Client) BaseURL() string {
	return c.baseURL
}
