package security

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

// ValidationConfig holds structural request validation limits. Shipment
// payloads are small flat JSON objects, so the defaults are tight.
type ValidationConfig struct {
	MaxRequestSize int64    `yaml:"max_request_size"`
	AllowedMethods []string `yaml:"allowed_methods"`
	ContentTypes   []string `yaml:"allowed_content_types"`
	MaxJSONDepth   int      `yaml:"max_json_depth"`
	MaxFieldLength int      `yaml:"max_field_length"`
}

// RequestValidator enforces structural limits before a request reaches the
// handlers.
type RequestValidator struct {
	config *ValidationConfig
	logger *logrus.Logger
}

// ValidationResult collects the outcome of one request check.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// NewRequestValidator creates a request validator.
func NewRequestValidator(config *ValidationConfig, logger *logrus.Logger) (*RequestValidator, error) {
	if config.MaxRequestSize == 0 {
		config.MaxRequestSize = 64 * 1024
	}
	if config.MaxJSONDepth == 0 {
		config.MaxJSONDepth = 8
	}
	if config.MaxFieldLength == 0 {
		config.MaxFieldLength = 256
	}
	return &RequestValidator{config: config, logger: logger}, nil
}

// ValidateRequest checks method, size and content type.
func (v *RequestValidator) ValidateRequest(ctx context.Context, r *http.Request) (*ValidationResult, error) {
	result := &ValidationResult{Valid: true}

	if !v.isAllowedMethod(r.Method) {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Method %s not allowed", r.Method))
	}

	if r.ContentLength > v.config.MaxRequestSize {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Request size %d exceeds maximum %d", r.ContentLength, v.config.MaxRequestSize))
	}

	if r.Method == http.MethodPost || r.Method == http.MethodPut {
		contentType := r.Header.Get("Content-Type")
		if !v.isAllowedContentType(contentType) {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Content-Type %s not allowed", contentType))
		}
	}

	if !result.Valid {
		v.logger.WithFields(logrus.Fields{
			"method":    r.Method,
			"url":       r.URL.String(),
			"client_ip": getClientIPFromRequest(r),
			"errors":    result.Errors,
		}).Warn("Request validation failed")
	}

	return result, nil
}

// ValidateJSON checks a request body for structural sanity.
func (v *RequestValidator) ValidateJSON(ctx context.Context, body []byte) (*ValidationResult, error) {
	result := &ValidationResult{Valid: true}

	if !utf8.Valid(body) {
		result.Valid = false
		result.Errors = append(result.Errors, "Request body contains invalid UTF-8")
		return result, nil
	}

	var jsonData interface{}
	if err := json.Unmarshal(body, &jsonData); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return result, nil
	}

	if depth := jsonDepth(jsonData); depth > v.config.MaxJSONDepth {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("JSON depth %d exceeds maximum %d", depth, v.config.MaxJSONDepth))
	}

	if err := v.validateFields(jsonData); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
	}

	return result, nil
}

// ValidationMiddleware wraps a handler with structural request checks.
func (v *RequestValidator) ValidationMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result, err := v.ValidateRequest(r.Context(), r)
			if err != nil {
				http.Error(w, "Validation error", http.StatusInternalServerError)
				return
			}

			if !result.Valid {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				response := map[string]interface{}{
					"error": map[string]interface{}{
						"message": "Request validation failed",
						"type":    "validation_error",
						"code":    http.StatusBadRequest,
						"details": result.Errors,
					},
					"timestamp": time.Now().Unix(),
				}
				json.NewEncoder(w).Encode(response)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (v *RequestValidator) isAllowedMethod(method string) bool {
	if len(v.config.AllowedMethods) == 0 {
		return true
	}
	for _, allowed := range v.config.AllowedMethods {
		if strings.EqualFold(method, allowed) {
			return true
		}
	}
	return false
}

func (v *RequestValidator) isAllowedContentType(contentType string) bool {
	if len(v.config.ContentTypes) == 0 {
		return true
	}
	mainType := strings.TrimSpace(strings.Split(contentType, ";")[0])
	for _, allowed := range v.config.ContentTypes {
		if strings.EqualFold(mainType, allowed) {
			return true
		}
	}
	return false
}

func (v *RequestValidator) validateFields(data interface{}) error {
	switch d := data.(type) {
	case map[string]interface{}:
		for key, value := range d {
			if len(key) > v.config.MaxFieldLength {
				return fmt.Errorf("field key length exceeds maximum %d", v.config.MaxFieldLength)
			}
			if err := v.validateFields(value); err != nil {
				return err
			}
		}
	case []interface{}:
		for _, value := range d {
			if err := v.validateFields(value); err != nil {
				return err
			}
		}
	case string:
		if len(d) > v.config.MaxFieldLength {
			return fmt.Errorf("string field length exceeds maximum %d", v.config.MaxFieldLength)
		}
	}
	return nil
}

func jsonDepth(data interface{}) int {
	switch d := data.(type) {
	case map[string]interface{}:
		maxDepth := 0
		for _, value := range d {
			if depth := jsonDepth(value); depth > maxDepth {
				maxDepth = depth
			}
		}
		return maxDepth + 1
	case []interface{}:
		maxDepth := 0
		for _, value := range d {
			if depth := jsonDepth(value); depth > maxDepth {
				maxDepth = depth
			}
		}
		return maxDepth + 1
	default:
		return 1
	}
}
