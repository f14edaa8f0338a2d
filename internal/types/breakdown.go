package types

import "time"

// LegDetail is the per-leg slice of a cost breakdown.
type LegDetail struct {
	Mode             TransportMode `json:"mode"`
	Origin           string        `json:"origin"`
	Destination      string        `json:"destination"`
	DistanceMiles    float64       `json:"distance_miles"`
	RatePerTonneMile float64       `json:"rate_per_tonne_mile"`
	Cost             float64       `json:"cost"`
	Source           string        `json:"source"`
	Confidence       int           `json:"confidence"`
}

// CostBreakdown is the full itemized result of one shipment calculation.
// Every monetary field is rounded to 2 decimals at the output boundary only;
// TotalCost always equals the sum of the commodity, transport and fee fields
// within rounding tolerance.
type CostBreakdown struct {
	RequestID    string   `json:"request_id"`
	FuelType     FuelType `json:"fuel_type"`
	VolumeTonnes float64  `json:"volume_tonnes"`

	CommodityCost      float64 `json:"commodity_cost"`
	TransportationCost float64 `json:"transportation_cost"`

	FuelHandlingFee float64 `json:"fuel_handling_fee"`
	TerminalFees    float64 `json:"terminal_fees"`
	HubTransferFee  float64 `json:"hub_transfer_fee"`
	InsuranceCost   float64 `json:"insurance_cost"`
	CarbonOffset    float64 `json:"carbon_offset"`
	HazmatFee       float64 `json:"hazmat_fee"`
	CustomsFees     float64 `json:"customs_fees"`

	TotalCost float64 `json:"total_cost"`

	DistanceMiles float64 `json:"distance_miles"`
	Confidence    int     `json:"confidence"`

	PricePerKg  float64    `json:"price_per_kg"`
	PriceSource string     `json:"price_source"`
	PriceTrend  PriceTrend `json:"price_trend,omitempty"`

	Legs []LegDetail `json:"legs"`

	InefficientRouting bool     `json:"inefficient_routing,omitempty"`
	Warnings           []string `json:"warnings,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Fees returns the sum of every itemized fee.
func (b *CostBreakdown) Fees() float64 {
	return b.FuelHandlingFee + b.TerminalFees + b.HubTransferFee +
		b.InsuranceCost + b.CarbonOffset + b.HazmatFee + b.CustomsFees
}
