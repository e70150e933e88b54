package datasource

import (
	"context"
	"database/sql"
	"time"

	"github.com/ekaya-inc/ekaya-export/pkg/models"
)

// Connector opens a verified database handle for one endpoint.
// Implementations must return a handle that has already completed a login
// round trip, and must classify failures as *apperrors.ConnectionError.
type Connector interface {
	// Connect opens and pings a handle. timeout bounds the login handshake.
	Connect(ctx context.Context, endpoint models.Endpoint, creds models.Credentials, timeout time.Duration) (*sql.DB, error)
}

// Reachability is the outcome of a probe.
type Reachability int

const (
	Unreachable Reachability = iota
	// Reachable means a server answered, even if it rejected the credentials.
	Reachable
)

func (r Reachability) String() string {
	if r == Reachable {
		return "reachable"
	}
	return "unreachable"
}

// Prober classifies an endpoint as usable with a short connection attempt.
// Probe never fails: every error maps to Unreachable.
type Prober interface {
	Probe(ctx context.Context, endpoint models.Endpoint) Reachability
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, endpoint models.Endpoint) Reachability

func (f ProberFunc) Probe(ctx context.Context, endpoint models.Endpoint) Reachability {
	return f(ctx, endpoint)
}
