package providers

import "github.com/altfuel/shipcost-router/internal/types"

// BaseRatePerTonneMile returns the fixed base freight rate for a mode, in
// USD per mile per tonne, before hazmat adjustment.
func BaseRatePerTonneMile(mode types.TransportMode) float64 {
	switch mode {
	case types.ModeTruck:
		return 0.18
	case types.ModeRail:
		return 0.055
	case types.ModeShip:
		return 0.012
	case types.ModePipeline:
		return 0.008
	default:
		return 0.18
	}
}

// CircuityFactor approximates real-world path length as a multiple of the
// great-circle distance for a mode.
func CircuityFactor(mode types.TransportMode) float64 {
	switch mode {
	case types.ModeTruck:
		return 1.22
	case types.ModeRail:
		return 1.15
	case types.ModeShip:
		return 1.18
	case types.ModePipeline:
		return 1.08
	default:
		return 1.22
	}
}

// AverageSpeedMPH is used to derive a duration estimate on the formula path.
func AverageSpeedMPH(mode types.TransportMode) float64 {
	switch mode {
	case types.ModeTruck:
		return 52
	case types.ModeRail:
		return 28
	case types.ModeShip:
		return 16
	case types.ModePipeline:
		return 4
	default:
		return 52
	}
}

// FallbackConfidence is the quote confidence when the mathematical estimate
// produced it. Pipelines are the most predictable paths, sea routes the
// least.
func FallbackConfidence(mode types.TransportMode) int {
	switch mode {
	case types.ModePipeline:
		return 70
	case types.ModeTruck:
		return 65
	case types.ModeRail:
		return 62
	case types.ModeShip:
		return 58
	default:
		return 55
	}
}

// RatePerTonneMile is the hazmat-adjusted rate every quote layer uses.
func RatePerTonneMile(mode types.TransportMode, fuel types.FuelType) float64 {
	return BaseRatePerTonneMile(mode) * fuel.HazmatMultiplier()
}
