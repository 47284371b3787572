package advisory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/agrisms/internal/config"
	"github.com/mamadbah2/agrisms/internal/domain/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.AdvisoryConfig{BaseURL: srv.URL}, nil)
}

func TestQuote(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/insurance/quote", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"premium":25,"coverage":500,"currency":"USD","risk_level":"low","valid_until":"2026-10-25"}`))
	})

	quote, err := client.Quote(context.Background(), models.QuoteRequest{Lat: -17.83, Lng: 31.05, Crop: "maize", Coverage: 500})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"latitude":        -17.83,
		"longitude":       31.05,
		"crop_type":       "MAIZE",
		"location_type":   "coordinates",
		"coverage_amount": 500.0,
	}, body)
	assert.Equal(t, "MAIZE", quote.Crop)
	assert.Equal(t, 25.0, *quote.Premium)
	assert.Equal(t, "low", quote.RiskLevel)
}

func TestQuoteOmitsZeroCoverage(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"crop_type":"SOYA","premium":10}`))
	})

	quote, err := client.Quote(context.Background(), models.QuoteRequest{Lat: -17.83, Lng: 31.05, Crop: "MAIZE"})
	require.NoError(t, err)
	assert.NotContains(t, body, "coverage_amount")
	assert.Equal(t, "SOYA", quote.Crop)
}

func TestQuoteError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"model not loaded"}`))
	})

	_, err := client.Quote(context.Background(), models.QuoteRequest{Crop: "MAIZE"})
	assert.ErrorContains(t, err, "code=500")
	assert.ErrorContains(t, err, "model not loaded")
}

func TestPlantingWindow(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/planting", r.URL.Path)
		assert.Equal(t, "-17.83", q.Get("lat"))
		assert.Equal(t, "31.05", q.Get("lng"))
		assert.Equal(t, "SOYA", q.Get("crop"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"optimal_start":"2026-11-15","optimal_end":"2026-11-30","risk_level":"good","rainfall_outlook":"above_normal","recommendation":"Plant after 25mm"}`))
	})

	window, err := client.PlantingWindow(context.Background(), -17.83, 31.05, "SOYA")
	require.NoError(t, err)
	assert.Equal(t, models.PlantingWindow{
		OptimalStart:    "2026-11-15",
		OptimalEnd:      "2026-11-30",
		RiskLevel:       "good",
		RainfallOutlook: "above_normal",
		Recommendation:  "Plant after 25mm",
	}, *window)
}

func TestPlantingWindowWithoutCrop(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("crop"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := client.PlantingWindow(context.Background(), -17.83, 31.05, "")
	require.NoError(t, err)
}

func TestHealthCheck(t *testing.T) {
	status := http.StatusOK
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(status)
	})

	assert.NoError(t, client.HealthCheck(context.Background()))

	status = http.StatusServiceUnavailable
	assert.ErrorContains(t, client.HealthCheck(context.Background()), "status 503")
}
