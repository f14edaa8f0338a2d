// Package server exposes the shipment cost estimator over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/altfuel/shipcost-router/internal/middleware"
	"github.com/altfuel/shipcost-router/internal/shipping"
	"github.com/altfuel/shipcost-router/internal/types"
)

// Server is the HTTP front end over the shipping service.
type Server struct {
	service            *shipping.Service
	providerNames      map[types.TransportMode][]string
	httpServer         *http.Server
	logger             *logrus.Logger
	config             *ServerConfig
	securityMiddleware *middleware.SecurityMiddleware
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port           string                               `yaml:"port"`
	ReadTimeout    time.Duration                        `yaml:"read_timeout"`
	WriteTimeout   time.Duration                        `yaml:"write_timeout"`
	MaxHeaderBytes int                                  `yaml:"max_header_bytes"`
	Security       *middleware.SecurityMiddlewareConfig `yaml:"security"`
	Validation     *middleware.ValidationConfig         `yaml:"validation"`
}

// NewServer creates a server over the shipping service. providerNames is the
// registered chain per mode, surfaced on the providers endpoint.
func NewServer(service *shipping.Service, providerNames map[types.TransportMode][]string, config *ServerConfig, logger *logrus.Logger) (*Server, error) {
	server := &Server{
		service:       service,
		providerNames: providerNames,
		logger:        logger,
		config:        config,
	}

	if config.Security != nil {
		securityMiddleware, err := middleware.NewSecurityMiddleware(config.Security, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize security middleware: %w", err)
		}
		server.securityMiddleware = securityMiddleware
	}

	return server, nil
}

// Start starts the HTTP server, blocking until shutdown.
func (s *Server) Start() error {
	r, err := s.setupRoutes()
	if err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Addr:           ":" + s.config.Port,
		Handler:        r,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}

	s.logger.WithField("port", s.config.Port).Info("Starting shipment cost server")
	return s.httpServer.ListenAndServe()
}

// Stop stops the HTTP server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping shipment cost server")

	if s.securityMiddleware != nil {
		s.securityMiddleware.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) setupRoutes() (*mux.Router, error) {
	r := mux.NewRouter()

	if s.securityMiddleware != nil {
		r.Use(s.securityMiddleware.Handler())
	}

	if s.config.Validation != nil && s.config.Validation.Enabled {
		contractValidator, err := middleware.NewValidationMiddleware(s.config.Validation, s.logger)
		if err != nil {
			return nil, err
		}
		r.Use(contractValidator.Middleware)
	}

	r.Use(s.loggingMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.contentTypeMiddleware)

	api := r.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/shipments/cost", s.handleShipmentCost).Methods("POST")
	api.HandleFunc("/prices/{fuel}", s.handleFuelPrice).Methods("GET")
	api.HandleFunc("/locations/{name}", s.handleLocation).Methods("GET")
	api.HandleFunc("/providers", s.handleListProviders).Methods("GET")
	api.HandleFunc("/health", s.handleHealthCheck).Methods("GET")
	api.HandleFunc("/admin/cache/clear", s.handleCacheClear).Methods("POST")

	// Health check without the version prefix, for load balancers.
	r.HandleFunc("/health", s.handleHealthCheck).Methods("GET")

	s.setupSwaggerRoutes(r)

	return r, nil
}

// Middleware

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: 200}
		next.ServeHTTP(wrapped, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      wrapped.statusCode,
			"duration_ms": time.Since(start).Milliseconds(),
			"remote_addr": r.RemoteAddr,
		}).Info("HTTP request")
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) contentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			contentType := r.Header.Get("Content-Type")
			if contentType != "application/json" && contentType != "" {
				s.writeErrorResponse(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Handlers

// handleShipmentCost runs the full cost calculation pipeline for one request.
func (s *Server) handleShipmentCost(w http.ResponseWriter, r *http.Request) {
	var req types.ShipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %v", err))
		return
	}

	breakdown, err := s.service.CalculateShipmentCost(r.Context(), &req)
	if err != nil {
		s.writeValidationFailure(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(breakdown)
}

// handleFuelPrice returns the current oracle price for one fuel.
func (s *Server) handleFuelPrice(w http.ResponseWriter, r *http.Request) {
	fuel := mux.Vars(r)["fuel"]

	quote, err := s.service.GetFuelPrice(r.Context(), fuel)
	if err != nil {
		s.writeValidationFailure(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(quote)
}

// handleLocation resolves a gazetteer entry.
func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	loc, err := s.service.LookupLocation(name)
	if err != nil {
		s.writeErrorResponse(w, http.StatusNotFound, fmt.Sprintf("Location %s not found", name))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(loc)
}

// handleListProviders lists the registered provider chain per mode. Every
// chain implicitly ends in the formula estimate.
func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	chains := make(map[string][]string, len(s.providerNames))
	for _, mode := range types.AllTransportModes {
		names := append([]string{}, s.providerNames[mode]...)
		chains[string(mode)] = append(names, "formula_estimate")
	}

	response := map[string]interface{}{
		"chains":    chains,
		"timestamp": time.Now().Unix(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleHealthCheck reports liveness. The estimator has no hard external
// dependency: every lookup degrades to computation, so up means healthy.
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// handleCacheClear drops route and price caches.
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	s.service.ClearCaches()

	response := map[string]interface{}{
		"status":    "cleared",
		"timestamp": time.Now().Unix(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// Helper functions

// writeValidationFailure maps a pipeline error to a response. Validation
// errors carry the offending field; anything else is an internal failure.
func (s *Server) writeValidationFailure(w http.ResponseWriter, err error) {
	var verr *types.ValidationError
	if errors.As(err, &verr) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{
				"message": verr.Message,
				"type":    "validation_error",
				"field":   verr.Field,
				"code":    http.StatusBadRequest,
			},
			"timestamp": time.Now().Unix(),
		})
		return
	}
	s.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"message": message,
			"type":    "api_error",
			"code":    statusCode,
		},
		"timestamp": time.Now().Unix(),
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
