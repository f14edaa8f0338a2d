package types

import "fmt"

// FuelType identifies a commodity handled by the system.
type FuelType string

const (
	FuelHydrogen   FuelType = "hydrogen"
	FuelMethanol   FuelType = "methanol"
	FuelAmmonia    FuelType = "ammonia"
	FuelNaturalGas FuelType = "natural_gas"
)

// ParseFuelType converts a wire string into a FuelType.
func ParseFuelType(s string) (FuelType, error) {
	switch FuelType(s) {
	case FuelHydrogen, FuelMethanol, FuelAmmonia, FuelNaturalGas:
		return FuelType(s), nil
	default:
		return "", fmt.Errorf("unknown fuel type: %q", s)
	}
}

// Shippable reports whether shipment requests may carry this fuel.
// natural_gas is priced by the oracle but is not transported.
func (f FuelType) Shippable() bool {
	switch f {
	case FuelHydrogen, FuelMethanol, FuelAmmonia:
		return true
	default:
		return false
	}
}

// HazmatMultiplier returns the hazardous-material cost scaling factor for
// the fuel. Hydrogen is the most demanding class to move.
func (f FuelType) HazmatMultiplier() float64 {
	switch f {
	case FuelHydrogen:
		return 1.4
	case FuelAmmonia:
		return 1.3
	case FuelMethanol:
		return 1.2
	default:
		return 1.0
	}
}

// TransportMode identifies a leg's carriage method.
type TransportMode string

const (
	ModeTruck    TransportMode = "truck"
	ModeRail     TransportMode = "rail"
	ModeShip     TransportMode = "ship"
	ModePipeline TransportMode = "pipeline"
)

// AllTransportModes lists every supported mode, in chain-registration order.
var AllTransportModes = []TransportMode{ModeTruck, ModeRail, ModeShip, ModePipeline}

// ParseTransportMode converts a wire string into a TransportMode.
func ParseTransportMode(s string) (TransportMode, error) {
	switch TransportMode(s) {
	case ModeTruck, ModeRail, ModeShip, ModePipeline:
		return TransportMode(s), nil
	default:
		return "", fmt.Errorf("unknown transport mode: %q", s)
	}
}

// VolumeUnit identifies the unit a request's volume is expressed in.
type VolumeUnit string

const (
	UnitTonnes    VolumeUnit = "tonnes"
	UnitKilograms VolumeUnit = "kg"
	UnitPounds    VolumeUnit = "lb"
)

// ToTonnes converts a volume expressed in the unit to metric tonnes.
func (u VolumeUnit) ToTonnes(volume float64) (float64, error) {
	switch u {
	case UnitTonnes, "":
		return volume, nil
	case UnitKilograms:
		return volume * 0.001, nil
	case UnitPounds:
		return volume * 0.000453592, nil
	default:
		return 0, fmt.Errorf("unknown volume unit: %q", u)
	}
}
