package costing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/altfuel/shipcost-router/internal/geo"
	"github.com/altfuel/shipcost-router/internal/types"
)

// Composer turns resolved quotes into an itemized breakdown. It is
// stateless; all per-request data arrives through ComposeCost.
type Composer struct {
	logger *logrus.Logger
}

// NewComposer creates a cost composer.
func NewComposer(logger *logrus.Logger) *Composer {
	return &Composer{logger: logger}
}

// ComposeCost combines one or two leg quotes and a price quote into a full
// breakdown. The only error it returns is a validation failure (degenerate
// volume or a missing quote); with well-formed inputs a breakdown is always
// produced.
//
// Leg rates arrive already hazmat-adjusted from the provider chain, so the
// leg cost here is distance x rate x tonnes; applying the multiplier again
// would double-count it.
func (c *Composer) ComposeCost(req *types.ShipmentRequest, legs []*types.RouteQuote, price *types.PriceQuote, origin, destination *geo.Location, directDistanceMiles float64) (*types.CostBreakdown, error) {
	if len(legs) == 0 || len(legs) > 2 {
		return nil, &types.ValidationError{Field: "legs", Message: fmt.Sprintf("expected 1 or 2 legs, got %d", len(legs))}
	}
	if price == nil || price.PricePerKg <= 0 {
		return nil, &types.ValidationError{Field: "price", Message: "price quote is missing or non-positive"}
	}

	tonnes, err := req.VolumeUnit.ToTonnes(req.Volume)
	if err != nil {
		return nil, &types.ValidationError{Field: "volume_unit", Message: err.Error()}
	}
	if tonnes <= 0 {
		return nil, &types.ValidationError{Field: "volume", Message: "volume resolves to a non-positive mass"}
	}
	kg := tonnes * 1000

	commodityCost := kg * price.PricePerKg * tierFactor(tonnes)

	var transportationCost, totalDistance float64
	legDetails := make([]types.LegDetail, 0, len(legs))
	waypoints := c.waypoints(req)
	for i, leg := range legs {
		legCost := leg.DistanceMiles * leg.RatePerTonneMile * tonnes
		if leg.FuelSurcharge > 0 {
			legCost *= leg.FuelSurcharge
		}
		if leg.DemandFactor > 0 {
			legCost *= leg.DemandFactor
		}
		transportationCost += legCost
		totalDistance += leg.DistanceMiles

		legDetails = append(legDetails, types.LegDetail{
			Mode:             leg.Mode,
			Origin:           waypoints[i],
			Destination:      waypoints[i+1],
			DistanceMiles:    round2(leg.DistanceMiles),
			RatePerTonneMile: leg.RatePerTonneMile,
			Cost:             round2(legCost),
			Source:           leg.Source,
			Confidence:       leg.Confidence,
		})
	}

	fuelHandlingFee := handlingRate(req.FuelType) * tonnes
	terminalFees := c.terminalFees(req, legs)

	var hubTransferFee float64
	if req.HasHub() {
		hubTransferFee = hubTransferPerTonne * tonnes * req.FuelType.HazmatMultiplier()
	}

	insuranceCost := (commodityCost + transportationCost) * insuranceRate * riskMultiplier(req.FuelType)

	var carbonOffset float64
	for _, leg := range legs {
		carbonOffset += tonnes * leg.DistanceMiles * carbonIntensity(leg.Mode) / 1000 * carbonPricePerTonne
	}

	hazmatFee := hazmatFeePerLeg * float64(len(legs))

	var customsFees float64
	if origin != nil && destination != nil && origin.Country != destination.Country {
		customsFees = customsBaseFee + customsPerTonne*tonnes
	}

	breakdown := &types.CostBreakdown{
		RequestID:          req.ID,
		FuelType:           req.FuelType,
		VolumeTonnes:       tonnes,
		CommodityCost:      round2(commodityCost),
		TransportationCost: round2(transportationCost),
		FuelHandlingFee:    round2(fuelHandlingFee),
		TerminalFees:       round2(terminalFees),
		HubTransferFee:     round2(hubTransferFee),
		InsuranceCost:      round2(insuranceCost),
		CarbonOffset:       round2(carbonOffset),
		HazmatFee:          round2(hazmatFee),
		CustomsFees:        round2(customsFees),
		DistanceMiles:      round2(totalDistance),
		Confidence:         c.overallConfidence(legs, price),
		PricePerKg:         price.PricePerKg,
		PriceSource:        price.Source,
		PriceTrend:         price.Trend,
		Legs:               legDetails,
		Timestamp:          time.Now(),
	}

	// Total is the sum of the already-rounded components so the breakdown
	// stays exactly additive on the wire.
	breakdown.TotalCost = round2(breakdown.CommodityCost + breakdown.TransportationCost + breakdown.Fees())

	if req.HasHub() && directDistanceMiles > 0 && totalDistance > inefficiencyRatio*directDistanceMiles {
		breakdown.InefficientRouting = true
		breakdown.Warnings = append(breakdown.Warnings, fmt.Sprintf(
			"combined leg distance %.0f mi exceeds %.1fx the direct distance %.0f mi; consider a different hub",
			totalDistance, inefficiencyRatio, directDistanceMiles))
	}

	c.logger.WithFields(logrus.Fields{
		"fuel":       req.FuelType,
		"tonnes":     tonnes,
		"legs":       len(legs),
		"total":      breakdown.TotalCost,
		"confidence": breakdown.Confidence,
	}).Info("Cost composed")

	return breakdown, nil
}

// terminalFees charges the origin and destination terminals, plus the
// transfer terminal when a hub splits the route.
func (c *Composer) terminalFees(req *types.ShipmentRequest, legs []*types.RouteQuote) float64 {
	firstMode := legs[0].Mode
	lastMode := legs[len(legs)-1].Mode

	fees := terminalFee(firstMode) + terminalFee(lastMode)
	if req.HasHub() {
		hubFee := terminalFee(firstMode)
		if f := terminalFee(lastMode); f > hubFee {
			hubFee = f
		}
		fees += hubFee
	}
	return fees
}

// overallConfidence is the weakest link across leg and price quotes.
func (c *Composer) overallConfidence(legs []*types.RouteQuote, price *types.PriceQuote) int {
	confidence := price.Confidence
	for _, leg := range legs {
		if leg.Confidence < confidence {
			confidence = leg.Confidence
		}
	}
	return confidence
}

func (c *Composer) waypoints(req *types.ShipmentRequest) []string {
	if req.HasHub() {
		return []string{req.Origin, req.IntermediateHub, req.Destination}
	}
	return []string{req.Origin, req.Destination, req.Destination}
}

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
