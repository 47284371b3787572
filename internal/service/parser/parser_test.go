package parser

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/agrisms/internal/config"
	"github.com/mamadbah2/agrisms/internal/domain/models"
)

var harare = &models.Coordinates{Lat: -17.83, Lng: 31.05}

func newTestParser(opts Options) *Parser {
	if opts.DefaultCrop == "" {
		opts.DefaultCrop = "MAIZE"
	}
	if opts.Crops == nil {
		opts.Crops = config.DefaultTables().Crops
	}
	return New(opts)
}

func TestParse(t *testing.T) {
	p := newTestParser(Options{})

	tests := []struct {
		name string
		text string
		want models.ParsedCommand
	}{
		{
			name: "weather lower case",
			text: "weather -17.83,31.05",
			want: models.ParsedCommand{Kind: models.KindWeather, Requested: models.KindWeather, Coordinates: harare},
		},
		{
			name: "weather with spacing and today",
			text: "  Weather   -17.83, 31.05   today ",
			want: models.ParsedCommand{Kind: models.KindWeather, Requested: models.KindWeather, Coordinates: harare, Period: models.PeriodCurrent},
		},
		{
			name: "weather week",
			text: "WEATHER 7DAYS -17.83,31.05",
			want: models.ParsedCommand{Kind: models.KindWeather, Requested: models.KindWeather, Coordinates: harare, Period: models.PeriodWeek},
		},
		{
			name: "weather keyword beats forecast keyword",
			text: "weather forecast -17.83,31.05",
			want: models.ParsedCommand{Kind: models.KindWeather, Requested: models.KindWeather, Coordinates: harare, Period: models.PeriodForecast},
		},
		{
			name: "forecast ignores period",
			text: "FORECAST -17.83,31.05 week",
			want: models.ParsedCommand{Kind: models.KindForecast, Requested: models.KindForecast, Coordinates: harare},
		},
		{
			name: "rain history two words",
			text: "rain history -17.83,31.05",
			want: models.ParsedCommand{Kind: models.KindRainHistory, Requested: models.KindRainHistory, Coordinates: harare},
		},
		{
			name: "history alias",
			text: "HISTORY -17.83,31.05",
			want: models.ParsedCommand{Kind: models.KindRainHistory, Requested: models.KindRainHistory, Coordinates: harare},
		},
		{
			name: "quote with crop and amount",
			text: "QUOTE MAIZE 500 -17.83,31.05",
			want: models.ParsedCommand{Kind: models.KindQuote, Requested: models.KindQuote, Coordinates: harare, Crop: "MAIZE", Coverage: 500},
		},
		{
			name: "quote with dollar amount",
			text: "quote tobacco $750 -17.83,31.05",
			want: models.ParsedCommand{Kind: models.KindQuote, Requested: models.KindQuote, Coordinates: harare, Crop: "TOBACCO", Coverage: 750},
		},
		{
			name: "quote with currency suffix",
			text: "QUOTE SOYA -17.83,31.05 1200USD",
			want: models.ParsedCommand{Kind: models.KindQuote, Requested: models.KindQuote, Coordinates: harare, Crop: "SOYA", Coverage: 1200},
		},
		{
			name: "quote defaults crop and ignores coordinate digits",
			text: "QUOTE -17.83,31.05",
			want: models.ParsedCommand{Kind: models.KindQuote, Requested: models.KindQuote, Coordinates: harare, Crop: "MAIZE"},
		},
		{
			name: "quote zero is not an amount",
			text: "QUOTE WHEAT 0 -17.83,31.05",
			want: models.ParsedCommand{Kind: models.KindQuote, Requested: models.KindQuote, Coordinates: harare, Crop: "WHEAT"},
		},
		{
			name: "planting with crop",
			text: "PLANTING COTTON -17.83,31.05",
			want: models.ParsedCommand{Kind: models.KindPlanting, Requested: models.KindPlanting, Coordinates: harare, Crop: "COTTON"},
		},
		{
			name: "plant alias without crop",
			text: "plant -17.83,31.05",
			want: models.ParsedCommand{Kind: models.KindPlanting, Requested: models.KindPlanting, Coordinates: harare},
		},
		{
			name: "help",
			text: "help",
			want: models.ParsedCommand{Kind: models.KindHelp},
		},
		{
			name: "question mark",
			text: "?",
			want: models.ParsedCommand{Kind: models.KindHelp},
		},
		{
			name: "help wins over command",
			text: "WEATHER INFO -17.83,31.05",
			want: models.ParsedCommand{Kind: models.KindHelp},
		},
		{
			name: "empty",
			text: "   \n\t ",
			want: models.ParsedCommand{Kind: models.KindInvalid, Err: models.ErrEmptyMessage},
		},
		{
			name: "unknown",
			text: "hello there",
			want: models.ParsedCommand{Kind: models.KindInvalid, Err: models.ErrUnknownCommand},
		},
		{
			name: "keyword must be a whole word",
			text: "WEATHERMAN -17.83,31.05",
			want: models.ParsedCommand{Kind: models.KindInvalid, Err: models.ErrUnknownCommand},
		},
		{
			name: "missing coordinates",
			text: "WEATHER",
			want: models.ParsedCommand{Kind: models.KindInvalid, Requested: models.KindWeather, Err: models.ErrMissingCoordinates},
		},
		{
			name: "single number is not a coordinate",
			text: "QUOTE MAIZE 500",
			want: models.ParsedCommand{Kind: models.KindInvalid, Requested: models.KindQuote, Err: models.ErrMissingCoordinates},
		},
		{
			name: "latitude out of range",
			text: "FORECAST 95,31",
			want: models.ParsedCommand{Kind: models.KindInvalid, Requested: models.KindForecast, Err: models.ErrCoordinatesOutOfRange},
		},
		{
			name: "longitude out of range",
			text: "FORECAST -17.83,181",
			want: models.ParsedCommand{Kind: models.KindInvalid, Requested: models.KindForecast, Err: models.ErrCoordinatesOutOfRange},
		},
		{
			name: "outside region",
			text: "WEATHER 51.5,-0.12",
			want: models.ParsedCommand{Kind: models.KindInvalid, Requested: models.KindWeather, Err: models.ErrOutsideRegion},
		},
		{
			name: "region edges are inclusive",
			text: "WEATHER -35,55",
			want: models.ParsedCommand{Kind: models.KindWeather, Requested: models.KindWeather, Coordinates: &models.Coordinates{Lat: -35, Lng: 55}},
		},
		{
			name: "quote with thousands separated amount",
			text: "QUOTE 1,000 -18.4,30.8",
			want: models.ParsedCommand{Kind: models.KindQuote, Requested: models.KindQuote, Coordinates: &models.Coordinates{Lat: -18.4, Lng: 30.8}, Crop: "MAIZE", Coverage: 1000},
		},
		{
			name: "thousands separated amount alone is not a location",
			text: "QUOTE MAIZE $2,500",
			want: models.ParsedCommand{Kind: models.KindInvalid, Requested: models.KindQuote, Err: models.ErrMissingCoordinates},
		},
		{
			name: "digits glued to letters are not coordinates",
			text: "WEATHER A1,2",
			want: models.ParsedCommand{Kind: models.KindInvalid, Requested: models.KindWeather, Err: models.ErrMissingCoordinates},
		},
		{
			name: "sign glued to keyword",
			text: "WEATHER-17.83,31.05",
			want: models.ParsedCommand{Kind: models.KindWeather, Requested: models.KindWeather, Coordinates: harare},
		},
		{
			name: "trailing dot and explicit plus",
			text: "WEATHER -17.,+31.05",
			want: models.ParsedCommand{Kind: models.KindWeather, Requested: models.KindWeather, Coordinates: &models.Coordinates{Lat: -17, Lng: 31.05}},
		},
	}

	opts := []cmp.Option{
		cmpopts.EquateErrors(),
		cmpopts.IgnoreFields(models.ParsedCommand{}, "RawText", "NormalizedText"),
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Parse(tt.text)
			if diff := cmp.Diff(tt.want, got, opts...); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
			assert.Equal(t, tt.text, got.RawText)
		})
	}
}

func TestParseInvalidCarriesHint(t *testing.T) {
	p := newTestParser(Options{})

	cmd := p.Parse("WEATHER")
	require.False(t, cmd.Valid())
	assert.Nil(t, cmd.Coordinates)
	assert.Contains(t, cmd.Reason(), "WEATHER -17.83,31.05")
	assert.True(t, models.IsCoordinateError(cmd.Err))

	cmd = p.Parse("hi")
	assert.False(t, models.IsCoordinateError(cmd.Err))
	assert.Contains(t, cmd.Reason(), "HELP")
}

func TestParseGlobalBounds(t *testing.T) {
	p := newTestParser(Options{BoundsPolicy: models.BoundsGlobal})

	cmd := p.Parse("WEATHER 51.5,-0.12")
	require.True(t, cmd.Valid(), cmd.Reason())
	assert.Equal(t, models.Coordinates{Lat: 51.5, Lng: -0.12}, *cmd.Coordinates)

	cmd = p.Parse("WEATHER 91,0")
	assert.ErrorIs(t, cmd.Err, models.ErrCoordinatesOutOfRange)
}

func TestParseCustomRegion(t *testing.T) {
	p := newTestParser(Options{Region: models.Bounds{MinLat: -23, MaxLat: -15, MinLng: 25, MaxLng: 34}})

	assert.True(t, p.Parse("WEATHER -17.83,31.05").Valid())
	assert.ErrorIs(t, p.Parse("WEATHER -1.29,36.82").Err, models.ErrOutsideRegion)
}

func TestParseAnchoredKeywords(t *testing.T) {
	anchored := newTestParser(Options{AnchorKeywords: true})
	loose := newTestParser(Options{})

	text := "please send weather -17.83,31.05"
	assert.ErrorIs(t, anchored.Parse(text).Err, models.ErrUnknownCommand)
	assert.Equal(t, models.KindWeather, loose.Parse(text).Kind)

	assert.Equal(t, models.KindForecast, anchored.Parse("FORECAST -17.83,31.05").Kind)
	assert.Equal(t, models.KindHelp, anchored.Parse("can you help").Kind)
}

func TestParseCustomCropVocabulary(t *testing.T) {
	p := newTestParser(Options{Crops: []models.Crop{"SORGHUM", "MAIZE"}})

	cmd := p.Parse("QUOTE SORGHUM -17.83,31.05")
	assert.Equal(t, models.Crop("SORGHUM"), cmd.Crop)

	cmd = p.Parse("QUOTE TOBACCO -17.83,31.05")
	assert.Equal(t, models.Crop("MAIZE"), cmd.Crop)
}

func TestParseIsDeterministicAcrossGoroutines(t *testing.T) {
	p := newTestParser(Options{})
	want := p.Parse("QUOTE MAIZE 500 -17.83,31.05")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := p.Parse("QUOTE MAIZE 500 -17.83,31.05")
			if got.Kind != want.Kind || got.Coverage != want.Coverage || *got.Coordinates != *want.Coordinates {
				t.Errorf("concurrent parse diverged: %+v", got)
			}
		}()
	}
	wg.Wait()
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "WEATHER -17.83, 31.05", Normalize("  weather\t-17.83,\n 31.05 "))
	assert.Equal(t, "", Normalize(" \r\n "))
}

func TestExtractAmount(t *testing.T) {
	tests := map[string]int{
		"QUOTE MAIZE 500": 500,
		"QUOTE $250":      250,
		"QUOTE USD300":    300,
		"QUOTE 400USD":    400,
		"QUOTE 12.5":      0,
		"QUOTE MAIZE":     0,
		"QUOTE ABC500":    0,
		"QUOTE 0 700":     700,
		"QUOTE 1,000":     1000,
		"QUOTE $12,500":   12500,
		"QUOTE 1,00":      0,
	}

	for text, want := range tests {
		assert.Equal(t, want, extractAmount(text), text)
	}

	assert.Zero(t, extractAmount("QUOTE 99999999999999999999"), "overflow")
}

func TestParseErrorsAreSentinels(t *testing.T) {
	p := newTestParser(Options{})
	for _, text := range []string{"", "xyz", "WEATHER", "WEATHER 100,0", "WEATHER 60,0"} {
		cmd := p.Parse(text)
		require.Equal(t, models.KindInvalid, cmd.Kind, text)
		matched := 0
		for _, sentinel := range []error{
			models.ErrEmptyMessage,
			models.ErrUnknownCommand,
			models.ErrMissingCoordinates,
			models.ErrCoordinatesOutOfRange,
			models.ErrOutsideRegion,
		} {
			if errors.Is(cmd.Err, sentinel) {
				matched++
			}
		}
		assert.Equal(t, 1, matched, text)
	}
}
