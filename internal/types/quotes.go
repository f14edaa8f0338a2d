package types

import (
	"math"
	"time"
)

// RouteQuote is the normalized result of resolving one transport leg,
// whichever provider in the chain produced it.
type RouteQuote struct {
	DistanceMiles    float64       `json:"distance_miles"`
	DurationMinutes  float64       `json:"duration_minutes,omitempty"`
	RatePerTonneMile float64       `json:"rate_per_tonne_mile"`
	Mode             TransportMode `json:"mode"`
	Source           string        `json:"source"`
	Confidence       int           `json:"confidence"`
	// FuelSurcharge and DemandFactor are multiplicative adjustments supplied
	// by live providers. Zero means the provider did not report one.
	FuelSurcharge float64   `json:"fuel_surcharge,omitempty"`
	DemandFactor  float64   `json:"demand_factor,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Valid reports whether the quote is fully populated with physically
// meaningful numbers. A quote failing this check is discarded and the chain
// advances; it is never partially consumed.
func (q *RouteQuote) Valid() bool {
	if q == nil {
		return false
	}
	if math.IsNaN(q.DistanceMiles) || math.IsInf(q.DistanceMiles, 0) || q.DistanceMiles <= 0 {
		return false
	}
	if math.IsNaN(q.RatePerTonneMile) || math.IsInf(q.RatePerTonneMile, 0) || q.RatePerTonneMile <= 0 {
		return false
	}
	if q.DurationMinutes < 0 || math.IsNaN(q.DurationMinutes) {
		return false
	}
	return true
}

// PriceTrend labels the direction of the simulated or derived market.
type PriceTrend string

const (
	TrendRising  PriceTrend = "rising"
	TrendFalling PriceTrend = "falling"
	TrendStable  PriceTrend = "stable"
)

// MarketFactors carries the periodic adjustment terms behind a simulated
// price, so callers can audit how a quote was produced.
type MarketFactors struct {
	Seasonal       float64 `json:"seasonal"`
	Daily          float64 `json:"daily"`
	Weekly         float64 `json:"weekly"`
	TotalVariation float64 `json:"total_variation"`
}

// PriceQuote is a resolved commodity price for one fuel.
type PriceQuote struct {
	FuelType      FuelType       `json:"fuel_type"`
	PricePerKg    float64        `json:"price_per_kg"`
	Unit          string         `json:"unit"`
	Source        string         `json:"source"`
	Confidence    int            `json:"confidence"`
	Trend         PriceTrend     `json:"trend,omitempty"`
	MarketFactors *MarketFactors `json:"market_factors,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}
