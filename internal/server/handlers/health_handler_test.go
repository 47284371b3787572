package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		checks map[string]HealthCheck
		status string
	}{
		{
			name:   "no dependencies",
			checks: nil,
			status: "healthy",
		},
		{
			name: "all healthy",
			checks: map[string]HealthCheck{
				"weather_api": func(context.Context) error { return nil },
			},
			status: "healthy",
		},
		{
			name: "one failing",
			checks: map[string]HealthCheck{
				"weather_api": func(context.Context) error { return nil },
				"mongodb":     func(context.Context) error { return errors.New("connection refused") },
			},
			status: "degraded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler("agrisms", "test", tt.checks)
			r := gin.New()
			r.GET("/health", h.Health)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			require.Equal(t, http.StatusOK, rec.Code)

			var body struct {
				Status       string                       `json:"status"`
				Service      string                       `json:"service"`
				Dependencies map[string]map[string]string `json:"dependencies"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.status, body.Status)
			assert.Equal(t, "agrisms", body.Service)
			assert.Len(t, body.Dependencies, len(tt.checks))
		})
	}
}

func TestHealthReportsFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHealthHandler("agrisms", "test", map[string]HealthCheck{
		"advisory_api": func(context.Context) error { return errors.New("status 502") },
	})
	r := gin.New()
	r.GET("/health", h.Health)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Contains(t, rec.Body.String(), `"error":"status 502"`)
}

func TestDescribe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHealthHandler("agrisms", "1.2.3", nil)
	r := gin.New()
	r.GET("/", h.Describe)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Version   string            `json:"version"`
		Endpoints map[string]string `json:"endpoints"`
		Commands  []string          `json:"commands"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "1.2.3", body.Version)
	assert.Equal(t, "POST /at/sms", body.Endpoints["incoming_sms"])
	assert.Contains(t, body.Commands, "RAINHISTORY")
}
