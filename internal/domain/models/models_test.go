package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInboundPayloadNormalize(t *testing.T) {
	production := InboundSMSPayload{From: "+263771234567", Text: "WEATHER -17.8,31.0", To: "12345", ID: "ATX1"}
	assert.Equal(t, InboundSMS{ID: "ATX1", From: "+263771234567", To: "12345", Text: "WEATHER -17.8,31.0"}, production.Normalize())

	sandbox := InboundSMSPayload{PhoneNumber: "263771234567", Text: "HELP", ShortCode: "12345", MessageID: "m-2"}
	assert.Equal(t, InboundSMS{ID: "m-2", From: "263771234567", To: "12345", Text: "HELP"}, sandbox.Normalize())
}

func TestBoundsContains(t *testing.T) {
	assert.True(t, AfricaBounds.Contains(-17.83, 31.05))
	assert.True(t, AfricaBounds.Contains(-35, 55), "edges are inclusive")
	assert.False(t, AfricaBounds.Contains(40.7, -74.0))
	assert.True(t, GlobalBounds.Contains(40.7, -74.0))
}

func TestCoordinatesString(t *testing.T) {
	assert.Equal(t, "-17.83,31.05", Coordinates{Lat: -17.83, Lng: 31.05}.String())
	assert.Equal(t, "0,30", Coordinates{Lat: 0, Lng: 30}.String())
}

func TestParsedCommand(t *testing.T) {
	valid := ParsedCommand{Kind: KindWeather}
	assert.True(t, valid.Valid())
	assert.Empty(t, valid.Reason())

	invalid := ParsedCommand{Kind: KindInvalid, Requested: KindQuote, Err: ErrOutsideRegion}
	assert.False(t, invalid.Valid())
	assert.Equal(t, "coordinates outside service region", invalid.Reason())
}

func TestIsCoordinateError(t *testing.T) {
	assert.True(t, IsCoordinateError(fmt.Errorf("parse: %w", ErrMissingCoordinates)))
	assert.True(t, IsCoordinateError(ErrCoordinatesOutOfRange))
	assert.False(t, IsCoordinateError(ErrUnknownCommand))
	assert.False(t, IsCoordinateError(errors.New("other")))
}

func TestRequiresCoordinates(t *testing.T) {
	for _, kind := range []CommandKind{KindWeather, KindForecast, KindRainHistory, KindQuote, KindPlanting} {
		assert.True(t, kind.RequiresCoordinates(), kind)
	}
	assert.False(t, KindHelp.RequiresCoordinates())
	assert.False(t, KindInvalid.RequiresCoordinates())
}

func TestDeliveryStats(t *testing.T) {
	stats := DeliveryStats{ByStatus: map[string]int{"Success": 4, "Failed": 1, "Rejected": 2, "Buffered": 3}}
	assert.Equal(t, 4, stats.Delivered())
	assert.Equal(t, 3, stats.Failed())

	assert.Zero(t, DeliveryStats{}.Delivered())
}
