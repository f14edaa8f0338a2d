// Package providers contains the external data sources the resolver and
// price oracle draw from: live routing APIs, a commodity index feed, and the
// closed-form fallback that never fails.
package providers

import (
	"context"
	"time"

	"github.com/altfuel/shipcost-router/internal/geo"
	"github.com/altfuel/shipcost-router/internal/types"
)

// RouteRequest is the input every routing provider receives. Locations are
// pre-resolved by the gazetteer so providers only deal in coordinates.
type RouteRequest struct {
	Origin       *geo.Location
	Destination  *geo.Location
	Mode         types.TransportMode
	FuelType     types.FuelType
	VolumeTonnes float64
}

// RouteProvider is one element of a per-mode provider chain.
type RouteProvider interface {
	Name() string
	// Timeout bounds one FetchRoute call. The resolver wraps the context;
	// providers must honor cancellation.
	Timeout() time.Duration
	Supports(mode types.TransportMode) bool
	FetchRoute(ctx context.Context, req *RouteRequest) (*types.RouteQuote, error)
}

// PriceProvider fetches a reference commodity index (USD per gallon of
// retail diesel) from which alternative-fuel prices are derived.
type PriceProvider interface {
	Name() string
	Timeout() time.Duration
	FetchIndex(ctx context.Context) (float64, error)
}
