package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/altfuel/shipcost-router/internal/types"
)

// OpenRouteConfig holds configuration for the openrouteservice provider.
type OpenRouteConfig struct {
	BaseURL       string        `yaml:"base_url"`
	APIKey        string        `yaml:"api_key"`
	Timeout       time.Duration `yaml:"timeout"`
	Confidence    int           `yaml:"confidence"`
	FuelSurcharge float64       `yaml:"fuel_surcharge"`
}

// OpenRouteProvider resolves truck and rail legs against the
// openrouteservice directions API. It serves as the secondary road source
// behind OSRM.
type OpenRouteProvider struct {
	config *OpenRouteConfig
	client *http.Client
	logger *logrus.Logger
}

// NewOpenRouteProvider creates a new openrouteservice provider instance.
func NewOpenRouteProvider(config *OpenRouteConfig, logger *logrus.Logger) *OpenRouteProvider {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openrouteservice.org"
	}
	if config.Timeout == 0 {
		config.Timeout = 8 * time.Second
	}
	if config.Confidence == 0 {
		config.Confidence = 88
	}
	return &OpenRouteProvider{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}
}

func (p *OpenRouteProvider) Name() string { return "openroute" }

func (p *OpenRouteProvider) Timeout() time.Duration { return p.config.Timeout }

func (p *OpenRouteProvider) Supports(mode types.TransportMode) bool {
	return mode == types.ModeTruck || mode == types.ModeRail
}

// openrouteservice has no rail profile; HGV geometry is the closest
// approximation of a rail corridor and such quotes get a reduced confidence
// in FetchRoute.
const orsProfile = "driving-hgv"

type openRouteResponse struct {
	Routes []struct {
		Summary struct {
			DistanceMeters  float64 `json:"distance"`
			DurationSeconds float64 `json:"duration"`
		} `json:"summary"`
	} `json:"routes"`
}

// FetchRoute issues a bounded directions call and normalizes the payload.
func (p *OpenRouteProvider) FetchRoute(ctx context.Context, req *RouteRequest) (*types.RouteQuote, error) {
	body, err := json.Marshal(map[string]any{
		"coordinates": [][]float64{
			{req.Origin.Coords.Lng, req.Origin.Coords.Lat},
			{req.Destination.Coords.Lng, req.Destination.Coords.Lat},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode openroute request: %w", err)
	}

	url := fmt.Sprintf("%s/v2/directions/%s", p.config.BaseURL, orsProfile)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build openroute request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", p.config.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openroute call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openroute returned status %d", resp.StatusCode)
	}

	var payload openRouteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("malformed openroute payload: %w", err)
	}
	if len(payload.Routes) == 0 {
		return nil, fmt.Errorf("openroute returned no routes")
	}

	confidence := p.config.Confidence
	if req.Mode == types.ModeRail {
		// Road geometry standing in for rail is a weaker estimate.
		confidence -= 8
	}

	summary := payload.Routes[0].Summary
	quote := &types.RouteQuote{
		DistanceMiles:    summary.DistanceMeters / 1609.344,
		DurationMinutes:  summary.DurationSeconds / 60,
		RatePerTonneMile: RatePerTonneMile(req.Mode, req.FuelType),
		Mode:             req.Mode,
		Source:           p.Name(),
		Confidence:       confidence,
		FuelSurcharge:    p.config.FuelSurcharge,
		Timestamp:        time.Now(),
	}

	p.logger.WithFields(logrus.Fields{
		"provider":       p.Name(),
		"mode":           req.Mode,
		"distance_miles": quote.DistanceMiles,
	}).Debug("Route fetched")

	return quote, nil
}
