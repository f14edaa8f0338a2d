package types

import (
	"fmt"
	"time"
)

// ShipmentRequest describes one end-to-end shipment cost query. A request is
// owned by its caller for the duration of one calculation and is never
// mutated by the pipeline.
type ShipmentRequest struct {
	ID              string        `json:"id,omitempty"`
	FuelType        FuelType      `json:"fuel_type"`
	Volume          float64       `json:"volume"`
	VolumeUnit      VolumeUnit    `json:"volume_unit"`
	Origin          string        `json:"origin"`
	Destination     string        `json:"destination"`
	IntermediateHub string        `json:"intermediate_hub,omitempty"`
	TransportMode1  TransportMode `json:"transport_mode1"`
	TransportMode2  TransportMode `json:"transport_mode2,omitempty"`
	Timestamp       time.Time     `json:"timestamp,omitempty"`
}

// HasHub reports whether the request routes through an intermediate hub.
func (r *ShipmentRequest) HasHub() bool {
	return r.IntermediateHub != ""
}

// Validate checks structural invariants. Violations surface as
// *ValidationError so the HTTP layer can distinguish them from internal
// failures.
func (r *ShipmentRequest) Validate() error {
	if _, err := ParseFuelType(string(r.FuelType)); err != nil {
		return &ValidationError{Field: "fuel_type", Message: err.Error()}
	}
	if !r.FuelType.Shippable() {
		return &ValidationError{Field: "fuel_type", Message: fmt.Sprintf("%s is priced but not shippable", r.FuelType)}
	}
	if r.Volume <= 0 {
		return &ValidationError{Field: "volume", Message: "volume must be positive"}
	}
	if r.VolumeUnit != "" {
		if _, err := r.VolumeUnit.ToTonnes(1); err != nil {
			return &ValidationError{Field: "volume_unit", Message: err.Error()}
		}
	}
	if r.Origin == "" {
		return &ValidationError{Field: "origin", Message: "origin is required"}
	}
	if r.Destination == "" {
		return &ValidationError{Field: "destination", Message: "destination is required"}
	}
	if _, err := ParseTransportMode(string(r.TransportMode1)); err != nil {
		return &ValidationError{Field: "transport_mode1", Message: err.Error()}
	}
	if r.HasHub() {
		if r.TransportMode2 == "" {
			return &ValidationError{Field: "transport_mode2", Message: "transport_mode2 is required when intermediate_hub is set"}
		}
		if _, err := ParseTransportMode(string(r.TransportMode2)); err != nil {
			return &ValidationError{Field: "transport_mode2", Message: err.Error()}
		}
	} else if r.TransportMode2 != "" {
		return &ValidationError{Field: "transport_mode2", Message: "transport_mode2 requires intermediate_hub"}
	}
	return nil
}
