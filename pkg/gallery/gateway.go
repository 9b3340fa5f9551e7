package gallery

import (
	"context"

	"github.com/vuvur/cli/internal/api"
)

// Gateway is the slice of the remote API the controller depends on.
// *api.Client satisfies it; tests substitute fakes.
type Gateway interface {
	GetMediaPage(ctx context.Context, q api.MediaQuery) (*api.MediaPage, error)
	GetScanStatus(ctx context.Context) (*api.ScanStatus, error)
	GetGroups(ctx context.Context) ([]api.GroupInfo, error)
	DeleteMedia(ctx context.Context, id int) error
}

// GatewayFactory builds a Gateway bound to an endpoint. The controller calls
// it whenever the active endpoint changes; the old binding is discarded
// wholesale rather than mutated.
type GatewayFactory func(endpoint string) Gateway
