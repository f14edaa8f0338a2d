package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// EIAConfig holds configuration for the EIA commodity index provider.
type EIAConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// EIAProvider fetches the US retail diesel index from the Energy Information
// Administration open-data API. Alternative-fuel prices are derived from the
// index by the oracle's fixed linear relationships.
type EIAProvider struct {
	config *EIAConfig
	client *http.Client
	logger *logrus.Logger
}

// NewEIAProvider creates a new EIA index provider instance.
func NewEIAProvider(config *EIAConfig, logger *logrus.Logger) *EIAProvider {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.eia.gov"
	}
	if config.Timeout == 0 {
		config.Timeout = 8 * time.Second
	}
	return &EIAProvider{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}
}

func (p *EIAProvider) Name() string { return "eia" }

func (p *EIAProvider) Timeout() time.Duration { return p.config.Timeout }

type eiaResponse struct {
	Response struct {
		Data []struct {
			Value float64 `json:"value"`
		} `json:"data"`
	} `json:"response"`
}

// FetchIndex returns the latest weekly US diesel retail price in USD/gallon.
func (p *EIAProvider) FetchIndex(ctx context.Context) (float64, error) {
	q := url.Values{}
	q.Set("api_key", p.config.APIKey)
	q.Set("frequency", "weekly")
	q.Set("data[0]", "value")
	q.Set("facets[product][]", "EPD2D")
	q.Set("sort[0][column]", "period")
	q.Set("sort[0][direction]", "desc")
	q.Set("length", "1")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.config.BaseURL+"/v2/petroleum/pri/gnd/data/?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build eia request: %w", err)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("eia call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("eia returned status %d", resp.StatusCode)
	}

	var payload eiaResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("malformed eia payload: %w", err)
	}
	if len(payload.Response.Data) == 0 {
		return 0, fmt.Errorf("eia returned no data points")
	}

	index := payload.Response.Data[0].Value
	if index <= 0 {
		return 0, fmt.Errorf("eia returned non-positive index %f", index)
	}

	p.logger.WithFields(logrus.Fields{
		"provider": p.Name(),
		"index":    index,
	}).Debug("Commodity index fetched")

	return index, nil
}
