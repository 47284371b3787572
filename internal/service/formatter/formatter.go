// Package formatter renders lookup results into SMS replies that fit a single segment.
package formatter

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mamadbah2/agrisms/internal/domain/models"
)

const (
	defaultMaxLength     = 150
	defaultRainThreshold = 1.0
	defaultForecastDays  = 4
	maxForecastDays      = 7

	exampleCoordinates = "-17.83,31.05"
)

const helpMessage = "Commands:\n" +
	"WEATHER " + exampleCoordinates + "\n" +
	"FORECAST " + exampleCoordinates + "\n" +
	"RAINHISTORY " + exampleCoordinates + "\n" +
	"QUOTE MAIZE " + exampleCoordinates + "\n" +
	"PLANTING " + exampleCoordinates + "\n" +
	"Use your lat,lng"

// ErrorMessage is sent when nothing more specific can be said.
const ErrorMessage = "Service temporarily unavailable. Please try again in a few minutes."

var unavailableMessages = map[models.CommandKind]string{
	models.KindWeather:     "Weather data unavailable. Try again later.",
	models.KindForecast:    "Forecast unavailable. Try again later.",
	models.KindRainHistory: "Rainfall history unavailable. Try again later.",
	models.KindQuote:       "Insurance quote unavailable. Try again later.",
	models.KindPlanting:    "Planting window unavailable. Try again later.",
}

var errPayloadMissing = errors.New("payload missing")

// Options configures a Formatter. Zero values fall back to defaults.
type Options struct {
	MaxLength       int
	RainThresholdMM float64
	ForecastDays    int
	// Currencies maps currency codes to reply prefixes, e.g. USD -> $.
	Currencies map[string]string
}

// Formatter is immutable after construction and safe for concurrent use.
type Formatter struct {
	maxLength     int
	rainThreshold float64
	forecastDays  int
	currencies    map[string]string
	logger        *zap.Logger
	now           func() time.Time
}

// New builds a Formatter, copying the currency table.
func New(opts Options, logger *zap.Logger) *Formatter {
	if logger == nil {
		logger = zap.NewNop()
	}

	f := &Formatter{
		maxLength:     opts.MaxLength,
		rainThreshold: opts.RainThresholdMM,
		forecastDays:  opts.ForecastDays,
		currencies:    make(map[string]string, len(opts.Currencies)),
		logger:        logger,
		now:           time.Now,
	}
	if f.maxLength <= 0 {
		f.maxLength = defaultMaxLength
	}
	if f.rainThreshold <= 0 {
		f.rainThreshold = defaultRainThreshold
	}
	if f.forecastDays <= 0 || f.forecastDays > maxForecastDays {
		f.forecastDays = defaultForecastDays
	}
	for code, symbol := range opts.Currencies {
		f.currencies[strings.ToUpper(code)] = symbol
	}

	return f
}

// Format renders the lookup payload for cmd. It never panics and never
// returns an empty string; bad payloads yield the kind's unavailable text.
func (f *Formatter) Format(cmd models.ParsedCommand, payload any) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("formatter panic", zap.Any("panic", r), zap.String("command", string(cmd.Kind)))
			reply = f.Unavailable(cmd.Kind)
		}
	}()

	switch cmd.Kind {
	case models.KindHelp:
		return f.Help()
	case models.KindInvalid:
		return f.Invalid(cmd)
	}

	switch p := payload.(type) {
	case *models.CurrentWeather:
		return f.CurrentWeather(p)
	case *models.Forecast:
		if cmd.Kind == models.KindWeather || cmd.Kind == models.KindForecast {
			return f.Forecast(p)
		}
	case *models.RainHistory:
		return f.RainHistory(p)
	case *models.Quote:
		return f.Quote(cmd, p)
	case *models.PlantingWindow:
		return f.Planting(cmd, p)
	}

	f.logger.Debug("no renderer for payload", zap.String("command", string(cmd.Kind)), zap.String("payload", fmt.Sprintf("%T", payload)))
	return f.Unavailable(cmd.Kind)
}

// Help returns the fixed usage text.
func (f *Formatter) Help() string {
	return Truncate(helpMessage, f.maxLength)
}

// ErrorReply returns the generic apology.
func (f *Formatter) ErrorReply() string {
	return Truncate(ErrorMessage, f.maxLength)
}

// Unavailable returns the fixed per-kind text used when data cannot be shown.
func (f *Formatter) Unavailable(kind models.CommandKind) string {
	if msg, ok := unavailableMessages[kind]; ok {
		return Truncate(msg, f.maxLength)
	}
	return f.ErrorReply()
}

// Invalid explains a parse failure: coordinate problems get a targeted
// correction, anything else gets the full help text.
func (f *Formatter) Invalid(cmd models.ParsedCommand) string {
	example := exampleFor(cmd.Requested)

	switch {
	case errors.Is(cmd.Err, models.ErrOutsideRegion):
		return Truncate("Location outside our service area. Send your farm lat,lng e.g. "+example, f.maxLength)
	case errors.Is(cmd.Err, models.ErrCoordinatesOutOfRange):
		return Truncate("Invalid coordinates. Lat -90 to 90, lng -180 to 180. e.g. "+example, f.maxLength)
	case errors.Is(cmd.Err, models.ErrMissingCoordinates):
		return Truncate("Location missing. Send: "+example, f.maxLength)
	default:
		return f.Help()
	}
}

func exampleFor(kind models.CommandKind) string {
	switch kind {
	case models.KindQuote:
		return "QUOTE MAIZE " + exampleCoordinates
	case models.KindForecast, models.KindRainHistory, models.KindPlanting:
		return string(kind) + " " + exampleCoordinates
	default:
		return "WEATHER " + exampleCoordinates
	}
}

// render runs fn and converts any rendering error into the kind's unavailable text.
func (f *Formatter) render(kind models.CommandKind, fn func() (string, error)) string {
	msg, err := fn()
	if err != nil || msg == "" {
		f.logger.Debug("reply rendering failed", zap.String("command", string(kind)), zap.Error(err))
		return f.Unavailable(kind)
	}
	return msg
}

// oneDecimal rounds to one decimal place and drops a trailing ".0".
func oneDecimal(v float64) string {
	r := math.Round(v*10) / 10
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func displayName(s string) string {
	return cases.Title(language.English).String(strings.ToLower(strings.TrimSpace(s)))
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", value)
}
