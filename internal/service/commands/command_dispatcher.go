package commands

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/agrisms/internal/domain/models"
)

// ErrUnsupportedCommand indicates the command kind has no data lookup.
var ErrUnsupportedCommand = errors.New("unsupported command")

// ErrAdvisoryDisabled indicates quotes and planting windows are not configured.
var ErrAdvisoryDisabled = errors.New("advisory backend not configured")

const lookupTimeout = 20 * time.Second

// WeatherProvider defines the weather lookups required by the dispatcher.
type WeatherProvider interface {
	CurrentWeather(ctx context.Context, lat, lng float64) (*models.CurrentWeather, error)
	Forecast(ctx context.Context, lat, lng float64) (*models.Forecast, error)
	RainHistory(ctx context.Context, lat, lng float64) (*models.RainHistory, error)
}

// AdvisoryProvider defines the agronomic lookups required by the dispatcher.
type AdvisoryProvider interface {
	Quote(ctx context.Context, req models.QuoteRequest) (*models.Quote, error)
	PlantingWindow(ctx context.Context, lat, lng float64, crop models.Crop) (*models.PlantingWindow, error)
}

// ReplyFormatter renders lookup payloads into SMS text.
type ReplyFormatter interface {
	Format(cmd models.ParsedCommand, payload any) string
	Unavailable(kind models.CommandKind) string
}

// Dispatcher turns a parsed command into the reply text to send back.
type Dispatcher interface {
	Reply(ctx context.Context, cmd models.ParsedCommand) string
}

// Service implements the Dispatcher interface.
type Service struct {
	weather   WeatherProvider
	advisory  AdvisoryProvider
	formatter ReplyFormatter
	logger    *zap.Logger
}

// NewService constructs a command dispatcher. advisory may be nil.
func NewService(weather WeatherProvider, advisory AdvisoryProvider, formatter ReplyFormatter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		weather:   weather,
		advisory:  advisory,
		formatter: formatter,
		logger:    logger,
	}
}

// Reply looks up the data a command asks for and formats it. Lookup failures
// produce the kind's unavailable text, so the result is never empty.
func (s *Service) Reply(ctx context.Context, cmd models.ParsedCommand) string {
	s.logger.Debug("dispatching command",
		zap.String("command", string(cmd.Kind)),
		zap.String("crop", string(cmd.Crop)),
		zap.Int("coverage", cmd.Coverage),
		zap.String("period", string(cmd.Period)))

	if !cmd.Valid() || !cmd.Kind.RequiresCoordinates() {
		return s.formatter.Format(cmd, nil)
	}

	if cmd.Coordinates == nil {
		s.logger.Warn("command without coordinates", zap.String("command", string(cmd.Kind)))
		return s.formatter.Unavailable(cmd.Kind)
	}

	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	payload, err := s.lookup(ctx, cmd)
	if err != nil {
		s.logger.Warn("data lookup failed",
			zap.String("command", string(cmd.Kind)),
			zap.Stringer("coordinates", cmd.Coordinates),
			zap.Error(err))
		return s.formatter.Unavailable(cmd.Kind)
	}

	return s.formatter.Format(cmd, payload)
}

func (s *Service) lookup(ctx context.Context, cmd models.ParsedCommand) (any, error) {
	lat, lng := cmd.Coordinates.Lat, cmd.Coordinates.Lng

	switch cmd.Kind {
	case models.KindWeather:
		if cmd.Period == models.PeriodWeek || cmd.Period == models.PeriodForecast {
			return s.weather.Forecast(ctx, lat, lng)
		}
		return s.weather.CurrentWeather(ctx, lat, lng)
	case models.KindForecast:
		return s.weather.Forecast(ctx, lat, lng)
	case models.KindRainHistory:
		return s.weather.RainHistory(ctx, lat, lng)
	case models.KindQuote:
		if s.advisory == nil {
			return nil, ErrAdvisoryDisabled
		}
		return s.advisory.Quote(ctx, models.QuoteRequest{Lat: lat, Lng: lng, Crop: cmd.Crop, Coverage: cmd.Coverage})
	case models.KindPlanting:
		if s.advisory == nil {
			return nil, ErrAdvisoryDisabled
		}
		return s.advisory.PlantingWindow(ctx, lat, lng, cmd.Crop)
	default:
		return nil, ErrUnsupportedCommand
	}
}
