// Package config loads application configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/altfuel/shipcost-router/internal/middleware"
	"github.com/altfuel/shipcost-router/internal/providers"
	"github.com/altfuel/shipcost-router/internal/routing"
	"github.com/altfuel/shipcost-router/internal/security"
	"github.com/altfuel/shipcost-router/internal/server"
)

// Config represents the complete application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Resolver  ResolverConfig  `yaml:"resolver"`
	Providers ProvidersConfig `yaml:"providers"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
	Contract  ContractConfig  `yaml:"contract"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string        `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
}

// ResolverConfig holds route resolution and cache configuration.
type ResolverConfig struct {
	RouteCacheTTL time.Duration `yaml:"route_cache_ttl"`
	PriceCacheTTL time.Duration `yaml:"price_cache_ttl"`
}

// ProvidersConfig holds configuration for the live route and price
// providers. A nil section leaves that provider out of its chain; the
// formula estimate and the market simulator need no configuration.
type ProvidersConfig struct {
	OSRM      *providers.OSRMConfig      `yaml:"osrm"`
	OpenRoute *providers.OpenRouteConfig `yaml:"openroute"`
	SeaRoute  *providers.SeaRouteConfig  `yaml:"searoute"`
	EIA       *providers.EIAConfig       `yaml:"eia"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
	Output string `yaml:"output"` // "stdout", "stderr", or file path
}

// SecurityConfig holds security-related configuration.
type SecurityConfig struct {
	APIKeys      []string        `yaml:"api_keys"`
	RateLimiting RateLimitConfig `yaml:"rate_limiting"`
	CORS         CORSConfig      `yaml:"cors"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	Enabled        bool          `yaml:"enabled"`
	RequestsPerMin int           `yaml:"requests_per_minute"`
	BurstSize      int           `yaml:"burst_size"`
	WindowDuration time.Duration `yaml:"window_duration"`
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// ContractConfig enables OpenAPI request validation.
type ContractConfig struct {
	Enabled  bool   `yaml:"enabled"`
	SpecPath string `yaml:"spec_path"`
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	config.setDefaults()

	if configPath != "" {
		if err := config.loadFromFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	config.loadFromEnv()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default configuration values.
func (c *Config) setDefaults() {
	c.Server = ServerConfig{
		Port:           "8080",
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	c.Resolver = ResolverConfig{
		RouteCacheTTL: routing.DefaultRouteCacheTTL,
		PriceCacheTTL: 45 * time.Minute,
	}

	c.Logging = LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}

	c.Security = SecurityConfig{
		APIKeys: []string{},
		RateLimiting: RateLimitConfig{
			Enabled:        false,
			RequestsPerMin: 60,
			BurstSize:      10,
			WindowDuration: time.Minute,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization", "X-API-Key"},
		},
	}

	c.Contract = ContractConfig{
		Enabled:  false,
		SpecPath: "docs/openapi.yaml",
	}

	// Live providers default to the public endpoints without credentials.
	// Providers needing a key stay disabled until one arrives from the
	// environment or the config file.
	c.Providers = ProvidersConfig{
		OSRM: &providers.OSRMConfig{
			BaseURL: "https://router.project-osrm.org",
			Timeout: 10 * time.Second,
		},
	}
}

// loadFromFile loads configuration from a YAML file.
func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}

	return nil
}

// loadFromEnv loads configuration from environment variables.
func (c *Config) loadFromEnv() {
	if port := os.Getenv("SHIPCOST_PORT"); port != "" {
		c.Server.Port = port
	}

	if level := os.Getenv("SHIPCOST_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if format := os.Getenv("SHIPCOST_LOG_FORMAT"); format != "" {
		c.Logging.Format = format
	}

	// Provider API keys. A key arriving via environment enables the provider
	// even when the file leaves it out.
	if eiaKey := os.Getenv("EIA_API_KEY"); eiaKey != "" {
		if c.Providers.EIA == nil {
			c.Providers.EIA = &providers.EIAConfig{}
		}
		c.Providers.EIA.APIKey = eiaKey
	}
	if orKey := os.Getenv("OPENROUTE_API_KEY"); orKey != "" {
		if c.Providers.OpenRoute == nil {
			c.Providers.OpenRoute = &providers.OpenRouteConfig{}
		}
		c.Providers.OpenRoute.APIKey = orKey
	}
	if srKey := os.Getenv("SEAROUTE_API_KEY"); srKey != "" {
		if c.Providers.SeaRoute == nil {
			c.Providers.SeaRoute = &providers.SeaRouteConfig{}
		}
		c.Providers.SeaRoute.APIKey = srKey
	}
}

// validate validates the configuration.
func (c *Config) validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Resolver.RouteCacheTTL <= 0 {
		return fmt.Errorf("route cache TTL must be positive")
	}
	if c.Resolver.PriceCacheTTL <= 0 {
		return fmt.Errorf("price cache TTL must be positive")
	}

	// Providers requiring credentials must carry them when enabled.
	if c.Providers.OpenRoute != nil && c.Providers.OpenRoute.APIKey == "" {
		return fmt.Errorf("openrouteservice API key is required when the provider is enabled")
	}
	if c.Providers.EIA != nil && c.Providers.EIA.APIKey == "" {
		return fmt.Errorf("EIA API key is required when the provider is enabled")
	}

	if c.Contract.Enabled && c.Contract.SpecPath == "" {
		return fmt.Errorf("contract spec path cannot be empty when validation is enabled")
	}

	return nil
}

// ToServerConfig converts to server.ServerConfig.
func (c *Config) ToServerConfig() *server.ServerConfig {
	return &server.ServerConfig{
		Port:           c.Server.Port,
		ReadTimeout:    c.Server.ReadTimeout,
		WriteTimeout:   c.Server.WriteTimeout,
		MaxHeaderBytes: c.Server.MaxHeaderBytes,
		Security:       c.ToSecurityMiddlewareConfig(),
		Validation: &middleware.ValidationConfig{
			Enabled:  c.Contract.Enabled,
			SpecPath: c.Contract.SpecPath,
		},
	}
}

// ToSecurityMiddlewareConfig converts to middleware.SecurityMiddlewareConfig.
func (c *Config) ToSecurityMiddlewareConfig() *middleware.SecurityMiddlewareConfig {
	return &middleware.SecurityMiddlewareConfig{
		Auth: &security.Config{
			APIKeys:        c.Security.APIKeys,
			RequireAuth:    len(c.Security.APIKeys) > 0,
			AllowedOrigins: c.Security.CORS.AllowedOrigins,
		},
		RateLimit: &security.RateLimitConfig{
			Enabled:           c.Security.RateLimiting.Enabled,
			RequestsPerMinute: c.Security.RateLimiting.RequestsPerMin,
			BurstSize:         c.Security.RateLimiting.BurstSize,
			WindowDuration:    c.Security.RateLimiting.WindowDuration,
			CleanupInterval:   5 * time.Minute,
		},
		Validation: &security.ValidationConfig{
			AllowedMethods: c.Security.CORS.AllowedMethods,
		},
		Audit: &security.AuditConfig{
			Enabled:       true,
			BufferSize:    1000,
			FlushInterval: 10 * time.Second,
		},
	}
}

// SaveToFile saves the current configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetEnabledProviders returns the names of configured live providers.
func (c *Config) GetEnabledProviders() []string {
	var names []string

	if c.Providers.OSRM != nil {
		names = append(names, "osrm")
	}
	if c.Providers.OpenRoute != nil && c.Providers.OpenRoute.APIKey != "" {
		names = append(names, "openroute")
	}
	if c.Providers.SeaRoute != nil {
		names = append(names, "searoute")
	}
	if c.Providers.EIA != nil && c.Providers.EIA.APIKey != "" {
		names = append(names, "eia")
	}

	return names
}
