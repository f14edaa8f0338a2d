package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/altfuel/shipcost-router/internal/types"
)

// OSRMConfig holds configuration for the OSRM road-routing provider.
type OSRMConfig struct {
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	Confidence    int           `yaml:"confidence"`
	FuelSurcharge float64       `yaml:"fuel_surcharge"`
}

// OSRMProvider resolves truck legs against an OSRM routing service.
type OSRMProvider struct {
	config *OSRMConfig
	client *http.Client
	logger *logrus.Logger
}

// NewOSRMProvider creates a new OSRM provider instance.
func NewOSRMProvider(config *OSRMConfig, logger *logrus.Logger) *OSRMProvider {
	if config.BaseURL == "" {
		config.BaseURL = "https://router.project-osrm.org"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Confidence == 0 {
		config.Confidence = 95
	}
	return &OSRMProvider{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}
}

func (p *OSRMProvider) Name() string { return "osrm" }

func (p *OSRMProvider) Timeout() time.Duration { return p.config.Timeout }

func (p *OSRMProvider) Supports(mode types.TransportMode) bool {
	return mode == types.ModeTruck
}

// osrmResponse mirrors the subset of the OSRM /route payload we consume.
type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		DistanceMeters  float64 `json:"distance"`
		DurationSeconds float64 `json:"duration"`
	} `json:"routes"`
}

// FetchRoute issues a bounded routing call and normalizes the payload.
func (p *OSRMProvider) FetchRoute(ctx context.Context, req *RouteRequest) (*types.RouteQuote, error) {
	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=false",
		p.config.BaseURL,
		req.Origin.Coords.Lng, req.Origin.Coords.Lat,
		req.Destination.Coords.Lng, req.Destination.Coords.Lat)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build osrm request: %w", err)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("osrm call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("osrm returned status %d", resp.StatusCode)
	}

	var payload osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("malformed osrm payload: %w", err)
	}
	if payload.Code != "Ok" || len(payload.Routes) == 0 {
		return nil, fmt.Errorf("osrm returned no routes (code %s)", payload.Code)
	}

	route := payload.Routes[0]
	quote := &types.RouteQuote{
		DistanceMiles:    route.DistanceMeters / 1609.344,
		DurationMinutes:  route.DurationSeconds / 60,
		RatePerTonneMile: RatePerTonneMile(req.Mode, req.FuelType),
		Mode:             req.Mode,
		Source:           p.Name(),
		Confidence:       p.config.Confidence,
		FuelSurcharge:    p.config.FuelSurcharge,
		Timestamp:        time.Now(),
	}

	p.logger.WithFields(logrus.Fields{
		"provider":       p.Name(),
		"distance_miles": quote.DistanceMiles,
	}).Debug("Route fetched")

	return quote, nil
}
