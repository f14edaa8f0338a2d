package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/altfuel/shipcost-router/internal/types"
)

// SeaRouteConfig holds configuration for the marine routing provider.
type SeaRouteConfig struct {
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"`
	Timeout      time.Duration `yaml:"timeout"`
	Confidence   int           `yaml:"confidence"`
	DemandFactor float64       `yaml:"demand_factor"`
}

// SeaRouteProvider resolves ship legs against a searoute-style marine
// routing service that returns port-to-port sailing distances.
type SeaRouteProvider struct {
	config *SeaRouteConfig
	client *http.Client
	logger *logrus.Logger
}

// NewSeaRouteProvider creates a new marine routing provider instance.
func NewSeaRouteProvider(config *SeaRouteConfig, logger *logrus.Logger) *SeaRouteProvider {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.searoutes.com"
	}
	if config.Timeout == 0 {
		config.Timeout = 12 * time.Second
	}
	if config.Confidence == 0 {
		config.Confidence = 90
	}
	return &SeaRouteProvider{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}
}

func (p *SeaRouteProvider) Name() string { return "searoute" }

func (p *SeaRouteProvider) Timeout() time.Duration { return p.config.Timeout }

func (p *SeaRouteProvider) Supports(mode types.TransportMode) bool {
	return mode == types.ModeShip
}

type seaRouteResponse struct {
	Features []struct {
		Properties struct {
			DistanceMeters  float64 `json:"distance"`
			DurationMillis  float64 `json:"duration"`
		} `json:"properties"`
	} `json:"features"`
}

// FetchRoute issues a bounded sea-route call and normalizes the payload.
func (p *SeaRouteProvider) FetchRoute(ctx context.Context, req *RouteRequest) (*types.RouteQuote, error) {
	q := url.Values{}
	q.Set("origin", fmt.Sprintf("%f,%f", req.Origin.Coords.Lng, req.Origin.Coords.Lat))
	q.Set("destination", fmt.Sprintf("%f,%f", req.Destination.Coords.Lng, req.Destination.Coords.Lat))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.config.BaseURL+"/route/v2/sea?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build searoute request: %w", err)
	}
	httpReq.Header.Set("x-api-key", p.config.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("searoute call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("searoute returned status %d", resp.StatusCode)
	}

	var payload seaRouteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("malformed searoute payload: %w", err)
	}
	if len(payload.Features) == 0 {
		return nil, fmt.Errorf("searoute returned no features")
	}

	props := payload.Features[0].Properties
	quote := &types.RouteQuote{
		DistanceMiles:    props.DistanceMeters / 1609.344,
		DurationMinutes:  props.DurationMillis / 1000 / 60,
		RatePerTonneMile: RatePerTonneMile(req.Mode, req.FuelType),
		Mode:             req.Mode,
		Source:           p.Name(),
		Confidence:       p.config.Confidence,
		DemandFactor:     p.config.DemandFactor,
		Timestamp:        time.Now(),
	}

	p.logger.WithFields(logrus.Fields{
		"provider":       p.Name(),
		"distance_miles": quote.DistanceMiles,
	}).Debug("Sea route fetched")

	return quote, nil
}
