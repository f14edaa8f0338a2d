// Package middleware assembles the HTTP cross-cutting concerns: the
// security stack and OpenAPI contract validation.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/altfuel/shipcost-router/internal/security"
)

// SecurityMiddlewareConfig configures the combined security stack.
type SecurityMiddlewareConfig struct {
	Auth       *security.Config           `yaml:"auth"`
	RateLimit  *security.RateLimitConfig  `yaml:"rate_limit"`
	Validation *security.ValidationConfig `yaml:"validation"`
	Audit      *security.AuditConfig      `yaml:"audit"`
}

// SecurityMiddleware composes authentication, rate limiting, structural
// validation and audit logging into one handler chain.
type SecurityMiddleware struct {
	authProvider *security.DefaultAuthProvider
	rateLimiter  security.RateLimiter
	validator    *security.RequestValidator
	auditor      *security.AuditLogger
	logger       *logrus.Logger
}

// NewSecurityMiddleware builds the stack from whichever components are
// configured. A nil section disables that component.
func NewSecurityMiddleware(config *SecurityMiddlewareConfig, logger *logrus.Logger) (*SecurityMiddleware, error) {
	var authProvider *security.DefaultAuthProvider
	if config.Auth != nil {
		authProvider = security.NewDefaultAuthProvider(config.Auth, logger)
	}

	var rateLimiter security.RateLimiter
	if config.RateLimit != nil && config.RateLimit.Enabled {
		rateLimiter = security.NewInMemoryRateLimiter(config.RateLimit, logger)
	}

	var validator *security.RequestValidator
	var err error
	if config.Validation != nil {
		validator, err = security.NewRequestValidator(config.Validation, logger)
		if err != nil {
			return nil, err
		}
	}

	var auditor *security.AuditLogger
	if config.Audit != nil {
		auditor = security.NewAuditLogger(config.Audit, logger)
	}

	return &SecurityMiddleware{
		authProvider: authProvider,
		rateLimiter:  rateLimiter,
		validator:    validator,
		auditor:      auditor,
		logger:       logger,
	}, nil
}

// Handler creates the complete security middleware chain. Ordering from
// outermost in: audit, auth, rate limit, structural validation, headers.
func (s *SecurityMiddleware) Handler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		handler := next

		if s.auditor != nil {
			handler = s.auditor.AuditMiddleware()(handler)
		}
		if s.authProvider != nil {
			handler = s.authProvider.AuthMiddleware()(handler)
		}
		if s.rateLimiter != nil {
			handler = security.RateLimitMiddleware(s.rateLimiter, security.DefaultKeyExtractor)(handler)
		}
		if s.validator != nil {
			handler = s.validator.ValidationMiddleware()(handler)
		}
		handler = s.securityHeadersMiddleware()(handler)

		return handler
	}
}

// AuthenticationOnly returns just the authentication middleware.
func (s *SecurityMiddleware) AuthenticationOnly() func(http.Handler) http.Handler {
	if s.authProvider != nil {
		return s.authProvider.AuthMiddleware()
	}
	return func(next http.Handler) http.Handler { return next }
}

// RateLimitingOnly returns just the rate limiting middleware.
func (s *SecurityMiddleware) RateLimitingOnly() func(http.Handler) http.Handler {
	if s.rateLimiter != nil {
		return security.RateLimitMiddleware(s.rateLimiter, security.DefaultKeyExtractor)
	}
	return func(next http.Handler) http.Handler { return next }
}

func (s *SecurityMiddleware) securityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("Content-Security-Policy", "default-src 'self'")
			w.Header().Set("Server", "shipcost-router/1.0")
			w.Header().Set("X-API-Version", "1.0")

			next.ServeHTTP(w, r)
		})
	}
}

// Stop gracefully stops all middleware components.
func (s *SecurityMiddleware) Stop() {
	if s.auditor != nil {
		s.auditor.Stop()
	}
	if rateLimiter, ok := s.rateLimiter.(*security.InMemoryRateLimiter); ok {
		rateLimiter.Stop()
	}
}

// GetStats reports which components are active plus audit volume.
func (s *SecurityMiddleware) GetStats() map[string]interface{} {
	stats := map[string]interface{}{
		"rate_limiter_enabled":   s.rateLimiter != nil,
		"validation_enabled":     s.validator != nil,
		"authentication_enabled": s.authProvider != nil,
	}
	if s.auditor != nil {
		stats["audit_events_logged"] = s.auditor.GetEventCount()
	}
	return stats
}

// LogSecurityEvent records a security event through the audit logger.
func (s *SecurityMiddleware) LogSecurityEvent(ctx context.Context, eventType security.AuditEventType, message string, details map[string]interface{}) {
	if s.auditor != nil {
		s.auditor.LogEvent(ctx, eventType, message, details)
	}
}

// CORSMiddleware handles cross-origin requests against an allow-list.
func (s *SecurityMiddleware) CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			for _, allowedOrigin := range allowedOrigins {
				if allowedOrigin == "*" || allowedOrigin == origin {
					allowed = true
					break
				}
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
				w.Header().Set("Access-Control-Max-Age", "86400")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// APIKeyOnlyMiddleware accepts only API key credentials, for the admin
// surface.
func (s *SecurityMiddleware) APIKeyOnlyMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				http.Error(w, "API key required", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), "client_ip", clientIP(r))
			authInfo, err := s.authProvider.ValidateAPIKey(ctx, apiKey)
			if err != nil {
				http.Error(w, "Invalid API key", http.StatusUnauthorized)
				return
			}

			ctx = context.WithValue(r.Context(), "auth_info", authInfo)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	ip := r.RemoteAddr
	if colonIndex := strings.LastIndex(ip, ":"); colonIndex != -1 {
		ip = ip[:colonIndex]
	}
	return ip
}
