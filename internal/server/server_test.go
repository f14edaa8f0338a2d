package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/altfuel/shipcost-router/internal/cache"
	"github.com/altfuel/shipcost-router/internal/costing"
	"github.com/altfuel/shipcost-router/internal/geo"
	"github.com/altfuel/shipcost-router/internal/pricing"
	"github.com/altfuel/shipcost-router/internal/routing"
	"github.com/altfuel/shipcost-router/internal/shipping"
	"github.com/altfuel/shipcost-router/internal/types"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	gazetteer := geo.NewStaticGazetteer()
	resolver := routing.NewResolver(gazetteer, cache.New[*types.RouteQuote](), logger)
	oracle := pricing.NewOracle(cache.New[*types.PriceQuote](), logger)
	composer := costing.NewComposer(logger)
	service := shipping.NewService(resolver, oracle, composer, gazetteer, logger)

	srv, err := NewServer(service, map[types.TransportMode][]string{}, &ServerConfig{
		Port:         "0",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}, logger)
	if err != nil {
		t.Fatalf("failed to build server: %v", err)
	}

	r, err := srv.setupRoutes()
	if err != nil {
		t.Fatalf("failed to set up routes: %v", err)
	}
	return r
}

func postJSON(t *testing.T, handler http.Handler, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func shipmentPayload() map[string]interface{} {
	return map[string]interface{}{
		"fuel_type":       "hydrogen",
		"volume":          8,
		"volume_unit":     "tonnes",
		"origin":          "Miami",
		"destination":     "Boston",
		"transport_mode1": "truck",
	}
}

func TestHandleShipmentCost(t *testing.T) {
	handler := newTestHandler(t)

	rec := postJSON(t, handler, "/v1/shipments/cost", shipmentPayload())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var breakdown types.CostBreakdown
	if err := json.Unmarshal(rec.Body.Bytes(), &breakdown); err != nil {
		t.Fatalf("failed to decode breakdown: %v", err)
	}
	if breakdown.TotalCost <= 0 {
		t.Errorf("expected positive total, got %f", breakdown.TotalCost)
	}
	if len(breakdown.Legs) != 1 {
		t.Errorf("expected 1 leg, got %d", len(breakdown.Legs))
	}
	if breakdown.RequestID == "" {
		t.Error("expected an assigned request id")
	}
}

func TestHandleShipmentCost_ValidationError(t *testing.T) {
	handler := newTestHandler(t)

	payload := shipmentPayload()
	payload["fuel_type"] = "natural_gas"

	rec := postJSON(t, handler, "/v1/shipments/cost", payload)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var response struct {
		Error struct {
			Type  string `json:"type"`
			Field string `json:"field"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if response.Error.Type != "validation_error" {
		t.Errorf("expected validation_error, got %s", response.Error.Type)
	}
	if response.Error.Field != "fuel_type" {
		t.Errorf("expected fuel_type field, got %s", response.Error.Field)
	}
}

func TestHandleShipmentCost_InvalidJSON(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest("POST", "/v1/shipments/cost", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleShipmentCost_WrongContentType(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest("POST", "/v1/shipments/cost", strings.NewReader("<xml/>"))
	req.Header.Set("Content-Type", "application/xml")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rec.Code)
	}
}

func TestHandleFuelPrice(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest("GET", "/v1/prices/hydrogen", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var quote types.PriceQuote
	if err := json.Unmarshal(rec.Body.Bytes(), &quote); err != nil {
		t.Fatalf("failed to decode quote: %v", err)
	}
	if quote.PricePerKg <= 0 {
		t.Errorf("expected positive price, got %f", quote.PricePerKg)
	}
}

func TestHandleFuelPrice_UnknownFuel(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest("GET", "/v1/prices/kerosene", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleLocation(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest("GET", "/v1/locations/houston", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var loc geo.Location
	if err := json.Unmarshal(rec.Body.Bytes(), &loc); err != nil {
		t.Fatalf("failed to decode location: %v", err)
	}
	if loc.Name != "Houston, TX" {
		t.Errorf("unexpected location %s", loc.Name)
	}

	req = httptest.NewRequest("GET", "/v1/locations/Atlantis", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown location, got %d", rec.Code)
	}
}

func TestHandleListProviders(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest("GET", "/v1/providers", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var response struct {
		Chains map[string][]string `json:"chains"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Chains) != 4 {
		t.Fatalf("expected 4 modes, got %d", len(response.Chains))
	}
	for mode, chain := range response.Chains {
		if len(chain) == 0 || chain[len(chain)-1] != "formula_estimate" {
			t.Errorf("mode %s chain must end in formula_estimate, got %v", mode, chain)
		}
	}
}

func TestHandleHealthCheck(t *testing.T) {
	handler := newTestHandler(t)

	for _, path := range []string{"/health", "/v1/health"} {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "healthy") {
			t.Errorf("%s: expected healthy status, got %s", path, rec.Body.String())
		}
	}
}

func TestHandleCacheClear(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest("POST", "/v1/admin/cache/clear", nil)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "cleared") {
		t.Errorf("expected cleared status, got %s", rec.Body.String())
	}
}

func TestGetBaseURL(t *testing.T) {
	req := httptest.NewRequest("GET", "/docs", nil)
	req.Host = "api.example.com"
	if got := getBaseURL(req); got != "http://api.example.com" {
		t.Errorf("unexpected base url %s", got)
	}

	req.Header.Set("X-Forwarded-Proto", "https")
	req.Header.Set("X-Forwarded-Host", "edge.example.com")
	if got := getBaseURL(req); got != "https://edge.example.com" {
		t.Errorf("unexpected forwarded base url %s", got)
	}
}
