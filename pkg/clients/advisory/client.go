package advisory

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/mamadbah2/agrisms/internal/config"
	"github.com/mamadbah2/agrisms/internal/domain/models"
)

// Client talks to the agronomic advisory backend serving quotes and planting windows.
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient builds an advisory client.
func NewClient(cfg config.AdvisoryConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	restyClient := resty.New().
		SetTransport(otelhttp.NewTransport(http.DefaultTransport)).
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "agrisms/1.0").
		SetTimeout(timeout)

	return &Client{httpClient: restyClient, logger: logger}
}

type quoteRequest struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	CropType       string  `json:"crop_type"`
	LocationType   string  `json:"location_type"`
	CoverageAmount int     `json:"coverage_amount,omitempty"`
}

// Quote requests an insurance quote. A zero coverage lets the backend pick its default.
func (c *Client) Quote(ctx context.Context, req models.QuoteRequest) (*models.Quote, error) {
	payload := quoteRequest{
		Latitude:       req.Lat,
		Longitude:      req.Lng,
		CropType:       strings.ToUpper(string(req.Crop)),
		LocationType:   "coordinates",
		CoverageAmount: req.Coverage,
	}

	quote := new(models.Quote)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(quote).
		Post("/insurance/quote")
	if err != nil {
		return nil, fmt.Errorf("fetch insurance quote: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("advisory api error: code=%d, message=%s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	c.logger.Debug("insurance quote received",
		zap.String("crop", payload.CropType),
		zap.Int("coverage", payload.CoverageAmount),
		zap.Duration("duration", resp.Time()))

	if quote.Crop == "" {
		quote.Crop = payload.CropType
	}
	return quote, nil
}

// PlantingWindow requests the recommended planting window. crop may be empty.
func (c *Client) PlantingWindow(ctx context.Context, lat, lng float64, crop models.Crop) (*models.PlantingWindow, error) {
	window := new(models.PlantingWindow)
	req := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("lat", strconv.FormatFloat(lat, 'f', -1, 64)).
		SetQueryParam("lng", strconv.FormatFloat(lng, 'f', -1, 64)).
		SetResult(window)
	if crop != "" {
		req.SetQueryParam("crop", string(crop))
	}

	resp, err := req.Get("/planting")
	if err != nil {
		return nil, fmt.Errorf("fetch planting window: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("advisory api error: code=%d, message=%s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	return window, nil
}

// HealthCheck reports whether the backend answers its health endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	resp, err := c.httpClient.R().SetContext(ctx).Get("/health")
	if err != nil {
		return fmt.Errorf("advisory health: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("advisory health: status %d", resp.StatusCode())
	}
	return nil
}
