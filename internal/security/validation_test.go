package security

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator(t *testing.T, config *ValidationConfig) *RequestValidator {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	validator, err := NewRequestValidator(config, logger)
	require.NoError(t, err)
	return validator
}

func TestNewRequestValidator_Defaults(t *testing.T) {
	v := newTestValidator(t, &ValidationConfig{})

	assert.Equal(t, int64(64*1024), v.config.MaxRequestSize)
	assert.Equal(t, 8, v.config.MaxJSONDepth)
	assert.Equal(t, 256, v.config.MaxFieldLength)
}

func TestValidateRequest_Method(t *testing.T) {
	v := newTestValidator(t, &ValidationConfig{
		AllowedMethods: []string{"GET", "POST"},
	})

	req := httptest.NewRequest("GET", "/v1/prices/hydrogen", nil)
	result, err := v.ValidateRequest(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.Valid)

	req = httptest.NewRequest("DELETE", "/v1/prices/hydrogen", nil)
	result, err = v.ValidateRequest(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.Valid)
}

func TestValidateRequest_ContentType(t *testing.T) {
	v := newTestValidator(t, &ValidationConfig{
		ContentTypes: []string{"application/json"},
	})

	req := httptest.NewRequest("POST", "/v1/shipments/cost", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	result, err := v.ValidateRequest(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.Valid)

	req = httptest.NewRequest("POST", "/v1/shipments/cost", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "text/xml")
	result, err = v.ValidateRequest(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.Valid)
}

func TestValidateRequest_Size(t *testing.T) {
	v := newTestValidator(t, &ValidationConfig{MaxRequestSize: 16})

	req := httptest.NewRequest("POST", "/v1/shipments/cost", strings.NewReader(strings.Repeat("x", 64)))
	req.ContentLength = 64
	result, err := v.ValidateRequest(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.Valid)
}

func TestValidateJSON(t *testing.T) {
	v := newTestValidator(t, &ValidationConfig{
		MaxJSONDepth:   3,
		MaxFieldLength: 32,
	})
	ctx := context.Background()

	tests := []struct {
		name  string
		body  string
		valid bool
	}{
		{name: "well-formed shipment", body: `{"fuel_type":"hydrogen","volume":8,"origin":"Miami","destination":"Boston"}`, valid: true},
		{name: "invalid json", body: `{"fuel_type":`, valid: false},
		{name: "too deep", body: `{"a":{"b":{"c":{"d":1}}}}`, valid: false},
		{name: "field too long", body: `{"origin":"` + strings.Repeat("x", 64) + `"}`, valid: false},
		{name: "invalid utf8", body: "{\"origin\":\"\xff\xfe\"}", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := v.ValidateJSON(ctx, []byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.valid, result.Valid, "errors: %v", result.Errors)
		})
	}
}

func TestJSONDepth(t *testing.T) {
	assert.Equal(t, 1, jsonDepth("flat"))
	assert.Equal(t, 2, jsonDepth(map[string]interface{}{"a": 1}))
	assert.Equal(t, 3, jsonDepth(map[string]interface{}{"a": []interface{}{1}}))
}
