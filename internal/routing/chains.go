package routing

import (
	"github.com/sirupsen/logrus"

	"github.com/altfuel/shipcost-router/internal/providers"
	"github.com/altfuel/shipcost-router/internal/types"
)

// ChainProviders bundles the live providers the default chains draw from.
// Any nil entry simply shortens the affected chains; the formula terminal is
// always present.
type ChainProviders struct {
	OSRM      providers.RouteProvider
	OpenRoute providers.RouteProvider
	SeaRoute  providers.RouteProvider
}

// RegisterDefaultChains wires the standard priority order:
//
//	truck:    osrm > openroute > formula
//	rail:     openroute > formula
//	ship:     searoute > formula
//	pipeline: formula
//
// Chains are plain data; inserting or reordering a provider is a
// registration change, not a control-flow change.
func RegisterDefaultChains(r *Resolver, p ChainProviders, logger *logrus.Logger) error {
	chains := map[types.TransportMode][]providers.RouteProvider{
		types.ModeTruck:    compact(p.OSRM, p.OpenRoute),
		types.ModeRail:     compact(p.OpenRoute),
		types.ModeShip:     compact(p.SeaRoute),
		types.ModePipeline: nil,
	}

	for mode, chain := range chains {
		if err := r.RegisterChain(mode, chain...); err != nil {
			return err
		}
	}

	logger.WithField("modes", len(chains)).Info("Default provider chains registered")
	return nil
}

func compact(chain ...providers.RouteProvider) []providers.RouteProvider {
	var out []providers.RouteProvider
	for _, p := range chain {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}
