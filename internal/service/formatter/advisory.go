package formatter

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/mamadbah2/agrisms/internal/domain/models"
)

const maxRecommendationLength = 50

var quoteRiskTags = map[string]string{
	"low":      "Low Risk",
	"medium":   "Med Risk",
	"moderate": "Med Risk",
	"high":     "High Risk",
}

var plantingRiskTags = map[string]string{
	"optimal": "Optimal",
	"good":    "Good",
	"fair":    "Fair",
	"poor":    "Poor",
}

// Quote renders crop and premium first, then coverage, risk tag and validity.
func (f *Formatter) Quote(cmd models.ParsedCommand, q *models.Quote) string {
	return f.render(models.KindQuote, func() (string, error) {
		if q == nil || q.Premium == nil {
			return "", errPayloadMissing
		}
		if !finite(*q.Premium) {
			return "", errors.New("non-finite premium")
		}

		crop := q.Crop
		if crop == "" {
			crop = string(cmd.Crop)
		}
		if crop == "" {
			crop = "Crop"
		}

		currency := strings.ToUpper(strings.TrimSpace(q.Currency))
		if currency == "" {
			currency = "USD"
		}

		// Validity is checked up front so a bad date fails the whole reply.
		validDays := 0
		if q.ValidUntil != "" {
			until, err := parseDate(q.ValidUntil)
			if err != nil {
				return "", err
			}
			validDays = int(math.Ceil(until.Sub(f.now()).Hours() / 24))
		}

		reply := newBudget(f.maxLength)
		reply.must(fmt.Sprintf("%s insurance: %s premium", displayName(crop), f.money(*q.Premium, currency)))

		switch {
		case q.Coverage != nil && finite(*q.Coverage) && *q.Coverage > 0:
			reply.try(fmt.Sprintf(", %s cover", f.money(*q.Coverage, currency)))
		case cmd.Coverage > 0:
			reply.try(fmt.Sprintf(", %s cover", f.money(float64(cmd.Coverage), currency)))
		}

		if tag, ok := quoteRiskTags[strings.ToLower(strings.TrimSpace(q.RiskLevel))]; ok {
			reply.try(" (" + tag + ")")
		}

		if validDays > 0 {
			reply.try(fmt.Sprintf(" Valid %dd", validDays))
		}

		return reply.String(), nil
	})
}

// Planting renders the optimal window, then a risk tag, then one outlook line.
func (f *Formatter) Planting(cmd models.ParsedCommand, p *models.PlantingWindow) string {
	return f.render(models.KindPlanting, func() (string, error) {
		if p == nil || p.OptimalStart == "" || p.OptimalEnd == "" {
			return "", errPayloadMissing
		}

		start, err := parseDate(p.OptimalStart)
		if err != nil {
			return "", err
		}
		end, err := parseDate(p.OptimalEnd)
		if err != nil {
			return "", err
		}

		var window string
		if start.Month() == end.Month() && start.Year() == end.Year() {
			window = fmt.Sprintf("%s %d-%d", start.Format("Jan"), start.Day(), end.Day())
		} else {
			window = fmt.Sprintf("%s %d-%s %d", start.Format("Jan"), start.Day(), end.Format("Jan"), end.Day())
		}

		reply := newBudget(f.maxLength)
		if cmd.Crop != "" {
			reply.must(fmt.Sprintf("Planting %s: %s", displayName(string(cmd.Crop)), window))
		} else {
			reply.must("Planting: " + window)
		}

		if tag, ok := plantingRiskTags[strings.ToLower(strings.TrimSpace(p.RiskLevel))]; ok {
			reply.try(" (" + tag + ")")
		}

		recommendation := strings.TrimSpace(p.Recommendation)
		if recommendation != "" && utf8.RuneCountInString(recommendation) < maxRecommendationLength && reply.try(". "+recommendation) {
			return reply.String(), nil
		}
		if outlook := outlookPhrase(p.RainfallOutlook); outlook != "" {
			reply.try(". " + outlook)
		}

		return reply.String(), nil
	})
}

func outlookPhrase(outlook string) string {
	o := strings.ToLower(outlook)
	switch {
	case strings.Contains(o, "above"):
		return "Good rains expected"
	case strings.Contains(o, "below"):
		return "Low rains expected"
	case strings.Contains(o, "normal"):
		return "Normal rains expected"
	default:
		return ""
	}
}

// money prefixes amount with the currency symbol, or with the raw code when unknown.
func (f *Formatter) money(amount float64, currency string) string {
	prefix, ok := f.currencies[currency]
	if !ok {
		prefix = currency
	}

	if amount == math.Trunc(amount) && math.Abs(amount) < 1e15 {
		return fmt.Sprintf("%s%d", prefix, int64(amount))
	}
	return fmt.Sprintf("%s%.2f", prefix, amount)
}
