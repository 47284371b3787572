package openmeteo

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

const (
	forecastPath   = "/v1/forecast"
	forecastDays   = 7
	lookbackDays   = 7
	currentFields  = "temperature_2m,precipitation,wind_speed_10m,relative_humidity_2m"
	forecastFields = "temperature_2m_max,temperature_2m_min,precipitation_sum,precipitation_probability_max"
)

// Client wraps the Open-Meteo forecast API.
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient builds an Open-Meteo client.
func NewClient(cfg config.WeatherConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	restyClient := resty.New().
		SetTransport(otelhttp.NewTransport(http.DefaultTransport)).
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("User-Agent", "agrisms/1.0").
		SetTimeout(timeout)

	return &Client{httpClient: restyClient, logger: logger}
}

type apiError struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

type currentResponse struct {
	Current struct {
		Time          string   `json:"time"`
		Temperature   *float64 `json:"temperature_2m"`
		Precipitation *float64 `json:"precipitation"`
		WindSpeed     *float64 `json:"wind_speed_10m"`
		Humidity      *float64 `json:"relative_humidity_2m"`
	} `json:"current"`
}

type dailyResponse struct {
	Daily struct {
		Time            []string   `json:"time"`
		MaxTemp         []*float64 `json:"temperature_2m_max"`
		MinTemp         []*float64 `json:"temperature_2m_min"`
		Precipitation   []*float64 `json:"precipitation_sum"`
		RainProbability []*float64 `json:"precipitation_probability_max"`
	} `json:"daily"`
}

// CurrentWeather returns current conditions at the point.
func (c *Client) CurrentWeather(ctx context.Context, lat, lng float64) (*models.CurrentWeather, error) {
	var body currentResponse
	if err := c.get(ctx, lat, lng, map[string]string{"current": currentFields}, &body); err != nil {
		return nil, fmt.Errorf("fetch current weather: %w", err)
	}

	cur := body.Current
	return &models.CurrentWeather{
		Temperature:   cur.Temperature,
		Precipitation: cur.Precipitation,
		Humidity:      cur.Humidity,
		WindSpeed:     cur.WindSpeed,
		Time:          cur.Time,
	}, nil
}

// Forecast returns the daily forecast starting today.
func (c *Client) Forecast(ctx context.Context, lat, lng float64) (*models.Forecast, error) {
	var body dailyResponse
	params := map[string]string{
		"daily":         forecastFields,
		"forecast_days": strconv.Itoa(forecastDays),
	}
	if err := c.get(ctx, lat, lng, params, &body); err != nil {
		return nil, fmt.Errorf("fetch forecast: %w", err)
	}

	daily := body.Daily
	forecast := &models.Forecast{Days: make([]models.ForecastDay, 0, len(daily.Time))}
	for i, date := range daily.Time {
		forecast.Days = append(forecast.Days, models.ForecastDay{
			Date:            date,
			MaxTemp:         at(daily.MaxTemp, i),
			MinTemp:         at(daily.MinTemp, i),
			Precipitation:   at(daily.Precipitation, i),
			RainProbability: at(daily.RainProbability, i),
		})
	}

	return forecast, nil
}

// RainHistory returns daily rainfall for the past week, today excluded.
func (c *Client) RainHistory(ctx context.Context, lat, lng float64) (*models.RainHistory, error) {
	var body dailyResponse
	params := map[string]string{
		"daily":         "precipitation_sum",
		"past_days":     strconv.Itoa(lookbackDays),
		"forecast_days": "0",
	}
	if err := c.get(ctx, lat, lng, params, &body); err != nil {
		return nil, fmt.Errorf("fetch rain history: %w", err)
	}

	daily := body.Daily
	history := &models.RainHistory{Days: make([]models.DailyRain, 0, len(daily.Time))}
	var total float64
	for i, date := range daily.Time {
		rain := at(daily.Precipitation, i)
		if rain != nil {
			total += *rain
		}
		history.Days = append(history.Days, models.DailyRain{Date: date, Precipitation: rain})
	}
	history.Total = &total

	return history, nil
}

// HealthCheck performs a cheap lookup at a fixed point.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.CurrentWeather(ctx, -33.9, 18.4)
	return err
}

func (c *Client) get(ctx context.Context, lat, lng float64, params map[string]string, result any) error {
	apiErr := new(apiError)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("latitude", strconv.FormatFloat(lat, 'f', -1, 64)).
		SetQueryParam("longitude", strconv.FormatFloat(lng, 'f', -1, 64)).
		SetQueryParam("timezone", "auto").
		SetQueryParams(params).
		SetResult(result).
		SetError(apiErr).
		Get(forecastPath)
	if err != nil {
		return err
	}

	if resp.IsError() {
		c.logger.Warn("weather api error", zap.Int("status", resp.StatusCode()), zap.String("reason", apiErr.Reason))
		return fmt.Errorf("open-meteo api error: code=%d, message=%s", resp.StatusCode(), apiErr.Reason)
	}

	c.logger.Debug("weather api response", zap.Int("status", resp.StatusCode()), zap.Duration("duration", resp.Time()))
	return nil
}

func at(values []*float64, i int) *float64 {
	if i < len(values) {
		return values[i]
	}
	return nil
}
