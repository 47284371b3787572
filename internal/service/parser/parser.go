// Package parser turns free-form farmer SMS text into typed commands.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mamadbah2/agrisms/internal/domain/models"
)

const coordinateHint = "Format: COMMAND lat,lng (e.g. WEATHER -17.83,31.05)"

var (
	helpPattern       = regexp.MustCompile(`\b(?:HELP|INFO|COMMANDS)\b|\?`)
	coordinatePattern = regexp.MustCompile(`([+-]?\d+(?:\.\d*)?)\s*,\s*([+-]?\d+(?:\.\d*)?)`)
	thousandsPattern  = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+$`)
	amountPattern     = regexp.MustCompile(`^(?:\$|USD)?(\d{1,3}(?:,\d{3})+|\d+)(?:USD)?$`)
)

// commandKeywords is ordered: when several keywords appear, the first entry wins.
var commandKeywords = []struct {
	keyword string
	kind    models.CommandKind
}{
	{"WEATHER", models.KindWeather},
	{"FORECAST", models.KindForecast},
	{"RAINHISTORY", models.KindRainHistory},
	{"RAIN HISTORY", models.KindRainHistory},
	{"HISTORY", models.KindRainHistory},
	{"QUOTE", models.KindQuote},
	{"PLANTING", models.KindPlanting},
	{"PLANT", models.KindPlanting},
}

var periodKeywords = []struct {
	keywords []string
	period   models.TimePeriod
}{
	{[]string{"7DAYS", "WEEKLY", "WEEK"}, models.PeriodWeek},
	{[]string{"FORECAST", "FUTURE"}, models.PeriodForecast},
	{[]string{"TODAY", "NOW"}, models.PeriodCurrent},
}

// Options configures a Parser.
type Options struct {
	// AnchorKeywords requires the message to begin with the command keyword.
	AnchorKeywords bool
	BoundsPolicy   models.BoundsPolicy
	Region         models.Bounds
	DefaultCrop    models.Crop
	// Crops is the ordered crop vocabulary.
	Crops []models.Crop
}

type rule[T any] struct {
	pattern *regexp.Regexp
	result  T
}

// Parser is immutable after construction and safe for concurrent use.
type Parser struct {
	commands    []rule[models.CommandKind]
	periods     []rule[models.TimePeriod]
	crops       []rule[models.Crop]
	policy      models.BoundsPolicy
	region      models.Bounds
	defaultCrop models.Crop
}

// New compiles the keyword tables for the given options.
func New(opts Options) *Parser {
	p := &Parser{
		policy:      opts.BoundsPolicy,
		region:      opts.Region,
		defaultCrop: opts.DefaultCrop,
	}
	if p.policy == "" {
		p.policy = models.BoundsRegional
	}
	if p.policy == models.BoundsRegional && p.region == (models.Bounds{}) {
		p.region = models.AfricaBounds
	}

	for _, c := range commandKeywords {
		p.commands = append(p.commands, rule[models.CommandKind]{pattern: wordPattern(c.keyword, opts.AnchorKeywords), result: c.kind})
	}
	for _, group := range periodKeywords {
		for _, keyword := range group.keywords {
			p.periods = append(p.periods, rule[models.TimePeriod]{pattern: wordPattern(keyword, false), result: group.period})
		}
	}
	for _, crop := range opts.Crops {
		p.crops = append(p.crops, rule[models.Crop]{pattern: wordPattern(string(crop), false), result: crop})
	}

	return p
}

// Normalize trims, upper-cases and collapses whitespace runs to single spaces.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToUpper(text)), " ")
}

// Parse maps an SMS body to exactly one command. Failures come back as the
// Invalid kind with Err set; Parse itself never fails.
func (p *Parser) Parse(text string) models.ParsedCommand {
	normalized := Normalize(text)
	cmd := models.ParsedCommand{RawText: text, NormalizedText: normalized}

	if normalized == "" {
		return invalid(cmd, fmt.Errorf("%w. Send HELP for commands", models.ErrEmptyMessage))
	}

	if helpPattern.MatchString(normalized) {
		cmd.Kind = models.KindHelp
		return cmd
	}

	kind, ok := firstMatch(p.commands, normalized)
	if !ok {
		return invalid(cmd, fmt.Errorf("%w. Use WEATHER, FORECAST, RAINHISTORY, QUOTE, PLANTING or HELP", models.ErrUnknownCommand))
	}
	cmd.Requested = kind

	coords, span, err := p.extractCoordinates(normalized)
	if err != nil {
		return invalid(cmd, err)
	}

	cmd.Kind = kind
	cmd.Coordinates = &coords

	// Parameter scans must not see the coordinate digits.
	rest := normalized[:span[0]] + " " + normalized[span[1]:]

	switch kind {
	case models.KindQuote:
		crop, found := firstMatch(p.crops, rest)
		if !found {
			crop = p.defaultCrop
		}
		cmd.Crop = crop
		cmd.Coverage = extractAmount(rest)
	case models.KindPlanting:
		if crop, found := firstMatch(p.crops, rest); found {
			cmd.Crop = crop
		}
	case models.KindWeather:
		if period, found := firstMatch(p.periods, rest); found {
			cmd.Period = period
		}
	}

	return cmd
}

func (p *Parser) extractCoordinates(text string) (models.Coordinates, []int, error) {
	var match []int
	for _, candidate := range coordinatePattern.FindAllStringSubmatchIndex(text, -1) {
		// "1,000" is an amount, and "A1,2" is not a location.
		if gluedToWord(text, candidate[0]) || thousandsPattern.MatchString(text[candidate[0]:candidate[1]]) {
			continue
		}
		match = candidate
		break
	}
	if match == nil {
		return models.Coordinates{}, nil, fmt.Errorf("%w. %s", models.ErrMissingCoordinates, coordinateHint)
	}

	lat, latErr := parseNumber(text[match[2]:match[3]])
	lng, lngErr := parseNumber(text[match[4]:match[5]])
	if latErr != nil || lngErr != nil {
		return models.Coordinates{}, nil, fmt.Errorf("%w. %s", models.ErrMissingCoordinates, coordinateHint)
	}

	if !models.GlobalBounds.Contains(lat, lng) {
		return models.Coordinates{}, nil, fmt.Errorf("%w: latitude must be -90 to 90, longitude -180 to 180", models.ErrCoordinatesOutOfRange)
	}

	if p.policy == models.BoundsRegional && !p.region.Contains(lat, lng) {
		return models.Coordinates{}, nil, fmt.Errorf("%w: %s is not covered", models.ErrOutsideRegion, models.Coordinates{Lat: lat, Lng: lng})
	}

	return models.Coordinates{Lat: lat, Lng: lng}, match[:2], nil
}

func extractAmount(text string) int {
	for _, token := range strings.Fields(text) {
		m := amountPattern.FindStringSubmatch(token)
		if m == nil {
			continue
		}
		amount, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
		if err != nil || amount <= 0 {
			continue
		}
		return amount
	}
	return 0
}

// gluedToWord reports whether the number starting at start continues a word
// or another number. A leading sign may follow a letter, as in "WEATHER-17.8,31".
func gluedToWord(text string, start int) bool {
	if start == 0 {
		return false
	}
	prev, _ := utf8.DecodeLastRuneInString(text[:start])
	if prev == '.' || unicode.IsDigit(prev) {
		return true
	}
	if c := text[start]; c == '+' || c == '-' {
		return false
	}
	return unicode.IsLetter(prev)
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSuffix(s, "."), 64)
}

func firstMatch[T any](rules []rule[T], text string) (T, bool) {
	for _, r := range rules {
		if r.pattern.MatchString(text) {
			return r.result, true
		}
	}
	var zero T
	return zero, false
}

func wordPattern(keyword string, anchored bool) *regexp.Regexp {
	prefix := `\b`
	if anchored {
		prefix = `^`
	}
	return regexp.MustCompile(prefix + regexp.QuoteMeta(keyword) + `\b`)
}

func invalid(cmd models.ParsedCommand, err error) models.ParsedCommand {
	cmd.Kind = models.KindInvalid
	cmd.Coordinates = nil
	cmd.Err = err
	return cmd
}
