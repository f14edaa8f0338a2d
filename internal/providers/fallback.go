package providers

import (
	"context"
	"time"

	"github.com/altfuel/shipcost-router/internal/geo"
	"github.com/altfuel/shipcost-router/internal/types"
)

// FormulaProvider is the terminal element of every chain: a pure
// great-circle estimate scaled by the mode's circuity factor, rated from the
// fixed base-rate table. It performs no I/O and cannot fail, which is what
// lets the resolver promise a quote for every request.
type FormulaProvider struct{}

// NewFormulaProvider creates the mathematical fallback provider.
func NewFormulaProvider() *FormulaProvider {
	return &FormulaProvider{}
}

func (p *FormulaProvider) Name() string { return "formula_estimate" }

// Timeout is nominal; the computation is instantaneous.
func (p *FormulaProvider) Timeout() time.Duration { return time.Second }

func (p *FormulaProvider) Supports(types.TransportMode) bool { return true }

// FetchRoute computes the estimate. The context is accepted for interface
// symmetry only.
func (p *FormulaProvider) FetchRoute(_ context.Context, req *RouteRequest) (*types.RouteQuote, error) {
	direct := geo.Distance(req.Origin.Coords, req.Destination.Coords)
	distance := direct * CircuityFactor(req.Mode)

	return &types.RouteQuote{
		DistanceMiles:    distance,
		DurationMinutes:  distance / AverageSpeedMPH(req.Mode) * 60,
		RatePerTonneMile: RatePerTonneMile(req.Mode, req.FuelType),
		Mode:             req.Mode,
		Source:           p.Name(),
		Confidence:       FallbackConfidence(req.Mode),
		Timestamp:        time.Now(),
	}, nil
}
