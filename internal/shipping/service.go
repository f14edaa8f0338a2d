// Package shipping is the service facade: it validates a shipment request,
// resolves route legs and the fuel price concurrently, and hands the results
// to the cost composer.
package shipping

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/altfuel/shipcost-router/internal/costing"
	"github.com/altfuel/shipcost-router/internal/geo"
	"github.com/altfuel/shipcost-router/internal/pricing"
	"github.com/altfuel/shipcost-router/internal/routing"
	"github.com/altfuel/shipcost-router/internal/types"
)

// Service orchestrates one shipment cost calculation end to end.
type Service struct {
	resolver  *routing.Resolver
	oracle    *pricing.Oracle
	composer  *costing.Composer
	gazetteer geo.Gazetteer
	logger    *logrus.Logger
}

// NewService wires the calculation pipeline.
func NewService(resolver *routing.Resolver, oracle *pricing.Oracle, composer *costing.Composer, gazetteer geo.Gazetteer, logger *logrus.Logger) *Service {
	return &Service{
		resolver:  resolver,
		oracle:    oracle,
		composer:  composer,
		gazetteer: gazetteer,
		logger:    logger,
	}
}

// CalculateShipmentCost runs the full pipeline for one request. The only
// error class it returns is *types.ValidationError; once the request and its
// locations check out, the fallback chain guarantees a breakdown.
func (s *Service) CalculateShipmentCost(ctx context.Context, req *types.ShipmentRequest) (*types.CostBreakdown, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// The caller keeps ownership of req, so id and timestamp defaults go
	// into a shallow copy rather than the original.
	shipment := *req
	if shipment.ID == "" {
		shipment.ID = uuid.New().String()
	}
	if shipment.Timestamp.IsZero() {
		shipment.Timestamp = time.Now()
	}

	originLoc, err := s.gazetteer.Lookup(shipment.Origin)
	if err != nil {
		return nil, &types.ValidationError{Field: "origin", Message: err.Error()}
	}
	destLoc, err := s.gazetteer.Lookup(shipment.Destination)
	if err != nil {
		return nil, &types.ValidationError{Field: "destination", Message: err.Error()}
	}
	if shipment.HasHub() {
		if _, err := s.gazetteer.Lookup(shipment.IntermediateHub); err != nil {
			return nil, &types.ValidationError{Field: "intermediate_hub", Message: err.Error()}
		}
	}

	tonnes, err := shipment.VolumeUnit.ToTonnes(shipment.Volume)
	if err != nil {
		return nil, &types.ValidationError{Field: "volume_unit", Message: err.Error()}
	}

	s.logger.WithFields(logrus.Fields{
		"request_id": shipment.ID,
		"fuel":       shipment.FuelType,
		"tonnes":     tonnes,
		"origin":     shipment.Origin,
		"dest":       shipment.Destination,
		"hub":        shipment.IntermediateHub,
	}).Info("Shipment cost calculation started")

	// The legs and the price have no data dependency on each other, so the
	// three lookups run concurrently. Each branch cannot fail past this
	// point: route resolution ends at the formula estimate and the oracle
	// ends at the simulator.
	var (
		wg    sync.WaitGroup
		leg1  *types.RouteQuote
		leg2  *types.RouteQuote
		price *types.PriceQuote
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if shipment.HasHub() {
			leg1, _ = s.resolver.ResolveRoute(ctx, shipment.Origin, shipment.IntermediateHub, shipment.TransportMode1, shipment.FuelType, tonnes)
		} else {
			leg1, _ = s.resolver.ResolveRoute(ctx, shipment.Origin, shipment.Destination, shipment.TransportMode1, shipment.FuelType, tonnes)
		}
	}()

	if shipment.HasHub() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			leg2, _ = s.resolver.ResolveRoute(ctx, shipment.IntermediateHub, shipment.Destination, shipment.TransportMode2, shipment.FuelType, tonnes)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		price = s.oracle.GetCurrentPrice(ctx, shipment.FuelType)
	}()

	wg.Wait()

	legs := []*types.RouteQuote{leg1}
	if leg2 != nil {
		legs = append(legs, leg2)
	}

	directDistance := geo.Distance(originLoc.Coords, destLoc.Coords)
	return s.composer.ComposeCost(&shipment, legs, price, originLoc, destLoc, directDistance)
}

// GetFuelPrice exposes the oracle's current price for one fuel. Unknown fuel
// names are the only failure mode.
func (s *Service) GetFuelPrice(ctx context.Context, fuelName string) (*types.PriceQuote, error) {
	fuel, err := types.ParseFuelType(fuelName)
	if err != nil {
		return nil, &types.ValidationError{Field: "fuel", Message: err.Error()}
	}
	return s.oracle.GetCurrentPrice(ctx, fuel), nil
}

// LookupLocation resolves a gazetteer entry by name.
func (s *Service) LookupLocation(name string) (*geo.Location, error) {
	loc, err := s.gazetteer.Lookup(name)
	if err != nil {
		return nil, &types.ValidationError{Field: "name", Message: err.Error()}
	}
	return loc, nil
}

// ClearCaches drops every memoized route and price.
func (s *Service) ClearCaches() {
	s.resolver.ClearCache()
	s.oracle.ClearCache()
	s.logger.Info("Route and price caches cleared")
}
