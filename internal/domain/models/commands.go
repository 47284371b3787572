package models

import (
	"errors"
	"strconv"
)

// CommandKind enumerates the SMS intents the service understands.
type CommandKind string

const (
	KindWeather     CommandKind = "WEATHER"
	KindForecast    CommandKind = "FORECAST"
	KindRainHistory CommandKind = "RAINHISTORY"
	KindQuote       CommandKind = "QUOTE"
	KindPlanting    CommandKind = "PLANTING"
	KindHelp        CommandKind = "HELP"
	KindInvalid     CommandKind = "INVALID"
)

// RequiresCoordinates reports whether the kind needs a lat,lng pair to be served.
func (k CommandKind) RequiresCoordinates() bool {
	switch k {
	case KindHelp, KindInvalid:
		return false
	default:
		return true
	}
}

// Crop is an upper-case crop name from the configured vocabulary.
type Crop string

// TimePeriod is the optional modifier of a WEATHER request.
type TimePeriod string

const (
	PeriodUnset    TimePeriod = ""
	PeriodCurrent  TimePeriod = "current"
	PeriodWeek     TimePeriod = "7days"
	PeriodForecast TimePeriod = "forecast"
)

// Parse failures. The Invalid command wraps exactly one of these.
var (
	ErrEmptyMessage          = errors.New("empty message")
	ErrUnknownCommand        = errors.New("unrecognized command")
	ErrMissingCoordinates    = errors.New("missing or invalid coordinates")
	ErrCoordinatesOutOfRange = errors.New("coordinates out of range")
	ErrOutsideRegion         = errors.New("coordinates outside service region")
)

// IsCoordinateError reports whether err is one of the coordinate related parse failures.
func IsCoordinateError(err error) bool {
	return errors.Is(err, ErrMissingCoordinates) ||
		errors.Is(err, ErrCoordinatesOutOfRange) ||
		errors.Is(err, ErrOutsideRegion)
}

// ParsedCommand is the typed result of parsing one inbound SMS body.
// It is built once per message and never mutated afterwards. Requested holds
// the recognized keyword even when Kind is Invalid, so replies can show a
// matching correction example.
type ParsedCommand struct {
	Kind           CommandKind
	Requested      CommandKind
	Coordinates    *Coordinates
	Crop           Crop
	Coverage       int
	Period         TimePeriod
	RawText        string
	NormalizedText string
	Err            error
}

// Valid reports whether the command parsed into a servable kind.
func (c ParsedCommand) Valid() bool {
	return c.Kind != KindInvalid && c.Err == nil
}

// Reason returns the human-readable failure reason, or "" for valid commands.
func (c ParsedCommand) Reason() string {
	if c.Err == nil {
		return ""
	}
	return c.Err.Error()
}

// Coordinates is a WGS 84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// String renders the pair the way farmers type it, e.g. "-17.83,31.05".
func (c Coordinates) String() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}

// Bounds is an inclusive latitude/longitude bounding box.
type Bounds struct {
	MinLat float64 `yaml:"min_lat"`
	MaxLat float64 `yaml:"max_lat"`
	MinLng float64 `yaml:"min_lng"`
	MaxLng float64 `yaml:"max_lng"`
}

var (
	// GlobalBounds covers every valid WGS 84 coordinate.
	GlobalBounds = Bounds{MinLat: -90, MaxLat: 90, MinLng: -180, MaxLng: 180}
	// AfricaBounds is the default operating region of the service.
	AfricaBounds = Bounds{MinLat: -35, MaxLat: 37, MinLng: -20, MaxLng: 55}
)

// Contains reports whether the point lies inside the box, edges included.
func (b Bounds) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// BoundsPolicy selects how parsed coordinates are range-checked.
type BoundsPolicy string

const (
	BoundsGlobal   BoundsPolicy = "global"
	BoundsRegional BoundsPolicy = "regional"
)
