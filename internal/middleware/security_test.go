package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altfuel/shipcost-router/internal/security"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestNewSecurityMiddleware(t *testing.T) {
	config := &SecurityMiddlewareConfig{
		Auth: &security.Config{
			APIKeys:     []string{"test-key"},
			RequireAuth: true,
		},
		RateLimit: &security.RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 60,
			BurstSize:         10,
		},
		Validation: &security.ValidationConfig{
			MaxRequestSize: 1024,
			AllowedMethods: []string{"GET", "POST"},
		},
		Audit: &security.AuditConfig{
			Enabled: true,
		},
	}

	middleware, err := NewSecurityMiddleware(config, quietLogger())
	require.NoError(t, err)
	assert.NotNil(t, middleware)
	assert.NotNil(t, middleware.authProvider)
	assert.NotNil(t, middleware.rateLimiter)
	assert.NotNil(t, middleware.validator)
	assert.NotNil(t, middleware.auditor)

	middleware.Stop()
}

func TestSecurityMiddleware_Handler(t *testing.T) {
	config := &SecurityMiddlewareConfig{
		Auth: &security.Config{
			APIKeys:     []string{"valid-key"},
			RequireAuth: false,
		},
		RateLimit: &security.RateLimitConfig{
			Enabled: false,
		},
		Validation: &security.ValidationConfig{
			AllowedMethods: []string{"GET", "POST"},
		},
		Audit: &security.AuditConfig{
			Enabled: true,
		},
	}
	middleware, err := NewSecurityMiddleware(config, quietLogger())
	require.NoError(t, err)
	defer middleware.Stop()

	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("success"))
	})

	handler := middleware.Handler()(testHandler)

	req := httptest.NewRequest("GET", "/v1/providers", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", w.Body.String())

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "shipcost-router/1.0", w.Header().Get("Server"))
}

func TestSecurityMiddleware_Handler_InvalidMethod(t *testing.T) {
	config := &SecurityMiddlewareConfig{
		Auth: &security.Config{
			RequireAuth: false,
		},
		Validation: &security.ValidationConfig{
			AllowedMethods: []string{"GET", "POST"},
		},
	}
	middleware, err := NewSecurityMiddleware(config, quietLogger())
	require.NoError(t, err)
	defer middleware.Stop()

	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := middleware.Handler()(testHandler)

	req := httptest.NewRequest("DELETE", "/v1/providers", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_error")
}

func TestSecurityMiddleware_AuthenticationOnly(t *testing.T) {
	config := &SecurityMiddlewareConfig{
		Auth: &security.Config{
			APIKeys:     []string{"valid-key"},
			RequireAuth: true,
		},
	}
	middleware, err := NewSecurityMiddleware(config, quietLogger())
	require.NoError(t, err)
	defer middleware.Stop()

	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("authenticated"))
	})

	handler := middleware.AuthenticationOnly()(testHandler)

	req := httptest.NewRequest("GET", "/v1/prices/hydrogen", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest("GET", "/v1/prices/hydrogen", nil)
	req.Header.Set("X-API-Key", "valid-key")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "authenticated", w.Body.String())
}

func TestSecurityMiddleware_AuthSkipsHealth(t *testing.T) {
	config := &SecurityMiddlewareConfig{
		Auth: &security.Config{
			APIKeys:     []string{"valid-key"},
			RequireAuth: true,
		},
	}
	middleware, err := NewSecurityMiddleware(config, quietLogger())
	require.NoError(t, err)
	defer middleware.Stop()

	handler := middleware.AuthenticationOnly()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSecurityMiddleware_RateLimitingOnly(t *testing.T) {
	config := &SecurityMiddlewareConfig{
		RateLimit: &security.RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 2,
			BurstSize:         2,
		},
	}
	middleware, err := NewSecurityMiddleware(config, quietLogger())
	require.NoError(t, err)
	defer middleware.Stop()

	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := middleware.RateLimitingOnly()(testHandler)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("GET", "/v1/providers", nil)
		req.RemoteAddr = "192.168.1.100:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	req := httptest.NewRequest("GET", "/v1/providers", nil)
	req.RemoteAddr = "192.168.1.100:12345"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Rate limit exceeded")
}

func TestSecurityMiddleware_AuditCountsRequests(t *testing.T) {
	config := &SecurityMiddlewareConfig{
		Audit: &security.AuditConfig{Enabled: true},
	}
	middleware, err := NewSecurityMiddleware(config, quietLogger())
	require.NoError(t, err)
	defer middleware.Stop()

	handler := middleware.Handler()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/v1/providers", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	time.Sleep(50 * time.Millisecond)
	assert.Greater(t, middleware.auditor.GetEventCount(), int64(0))
}

func TestSecurityMiddleware_GetStats(t *testing.T) {
	config := &SecurityMiddlewareConfig{
		Auth:       &security.Config{APIKeys: []string{"test"}},
		RateLimit:  &security.RateLimitConfig{Enabled: true},
		Validation: &security.ValidationConfig{},
		Audit:      &security.AuditConfig{Enabled: true},
	}
	middleware, err := NewSecurityMiddleware(config, quietLogger())
	require.NoError(t, err)
	defer middleware.Stop()

	stats := middleware.GetStats()

	assert.Contains(t, stats, "audit_events_logged")
	assert.True(t, stats["rate_limiter_enabled"].(bool))
	assert.True(t, stats["validation_enabled"].(bool))
	assert.True(t, stats["authentication_enabled"].(bool))
}

func TestSecurityMiddleware_Stop(t *testing.T) {
	config := &SecurityMiddlewareConfig{
		Auth: &security.Config{APIKeys: []string{"test"}},
		RateLimit: &security.RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 60,
		},
		Audit: &security.AuditConfig{Enabled: true},
	}
	middleware, err := NewSecurityMiddleware(config, quietLogger())
	require.NoError(t, err)

	middleware.Stop()
	// Repeated stops must be safe.
	middleware.Stop()
}

func TestSecurityMiddleware_CORSMiddleware(t *testing.T) {
	middleware, err := NewSecurityMiddleware(&SecurityMiddlewareConfig{}, quietLogger())
	require.NoError(t, err)
	defer middleware.Stop()

	allowedOrigins := []string{"https://example.com"}
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := middleware.CORSMiddleware(allowedOrigins)(testHandler)

	req := httptest.NewRequest("GET", "/v1/providers", nil)
	req.Header.Set("Origin", "https://example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))

	req = httptest.NewRequest("OPTIONS", "/v1/providers", nil)
	req.Header.Set("Origin", "https://example.com")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest("GET", "/v1/providers", nil)
	req.Header.Set("Origin", "https://evil.example.org")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name         string
		setupRequest func() *http.Request
		expectedIP   string
	}{
		{
			name: "X-Forwarded-For header",
			setupRequest: func() *http.Request {
				req := httptest.NewRequest("GET", "/v1/providers", nil)
				req.Header.Set("X-Forwarded-For", "203.0.113.1, 192.168.1.1")
				req.RemoteAddr = "192.168.1.100:12345"
				return req
			},
			expectedIP: "203.0.113.1",
		},
		{
			name: "RemoteAddr fallback",
			setupRequest: func() *http.Request {
				req := httptest.NewRequest("GET", "/v1/providers", nil)
				req.RemoteAddr = "192.168.1.100:12345"
				return req
			},
			expectedIP: "192.168.1.100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedIP, clientIP(tt.setupRequest()))
		})
	}
}
