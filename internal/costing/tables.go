// Package costing combines leg quotes and a price quote into a full
// itemized cost breakdown.
package costing

import "github.com/altfuel/shipcost-router/internal/types"

// Fee constants. Values are USD unless noted.
const (
	insuranceRate        = 0.015
	hubTransferPerTonne  = 18.0
	hazmatFeePerLeg      = 275.0
	customsBaseFee       = 850.0
	customsPerTonne      = 2.0
	carbonPricePerTonne  = 45.0
	inefficiencyRatio    = 2.2
)

// handlingRate is the per-tonne loading/storage fee, ordered by how hard
// the fuel is to keep contained.
func handlingRate(fuel types.FuelType) float64 {
	switch fuel {
	case types.FuelHydrogen:
		return 85
	case types.FuelAmmonia:
		return 55
	case types.FuelMethanol:
		return 35
	default:
		return 25
	}
}

// terminalFee is the fixed per-terminal charge for a mode.
func terminalFee(mode types.TransportMode) float64 {
	switch mode {
	case types.ModeTruck:
		return 350
	case types.ModeRail:
		return 650
	case types.ModeShip:
		return 2400
	case types.ModePipeline:
		return 500
	default:
		return 350
	}
}

// riskMultiplier scales the insurance premium per fuel.
func riskMultiplier(fuel types.FuelType) float64 {
	switch fuel {
	case types.FuelHydrogen:
		return 1.5
	case types.FuelAmmonia:
		return 1.35
	case types.FuelMethanol:
		return 1.2
	default:
		return 1.0
	}
}

// carbonIntensity is kg CO2e per tonne-mile for a mode.
func carbonIntensity(mode types.TransportMode) float64 {
	switch mode {
	case types.ModeTruck:
		return 0.161
	case types.ModeRail:
		return 0.035
	case types.ModeShip:
		return 0.016
	case types.ModePipeline:
		return 0.012
	default:
		return 0.161
	}
}

// tierFactor is the volume discount (or small-lot penalty) applied to the
// commodity price before multiplying by mass.
func tierFactor(tonnes float64) float64 {
	switch {
	case tonnes >= 1000:
		return 0.92
	case tonnes >= 500:
		return 0.95
	case tonnes >= 100:
		return 0.97
	case tonnes < 1:
		return 1.15
	default:
		return 1.0
	}
}
