package formatter

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/mamadbah2/agrisms/internal/domain/models"
)

const maxRainDays = 3

// CurrentWeather renders temperature and rain first, then humidity and wind when they fit.
func (f *Formatter) CurrentWeather(w *models.CurrentWeather) string {
	return f.render(models.KindWeather, func() (string, error) {
		if w == nil {
			return "", errPayloadMissing
		}

		temp := valueOr(w.Temperature, 0)
		rain := valueOr(w.Precipitation, 0)
		if !finite(temp, rain) {
			return "", errors.New("non-finite reading")
		}

		reply := newBudget(f.maxLength)
		reply.must(fmt.Sprintf("Now: %d°C, %s", int(math.Round(temp)), rainPhrase(rain)))

		if w.Humidity != nil && finite(*w.Humidity) {
			reply.try(fmt.Sprintf(", humidity %d%%", int(math.Round(*w.Humidity))))
		}
		if w.WindSpeed != nil && finite(*w.WindSpeed) {
			reply.try(fmt.Sprintf(", wind %dkm/h", int(math.Round(*w.WindSpeed))))
		}

		return reply.String(), nil
	})
}

// Forecast renders the first days of the forecast as "<label> <rain>/<max>°C".
func (f *Formatter) Forecast(fc *models.Forecast) string {
	return f.render(models.KindForecast, func() (string, error) {
		if fc == nil || len(fc.Days) == 0 {
			return "", errPayloadMissing
		}

		days := fc.Days
		if len(days) > maxForecastDays {
			days = days[:maxForecastDays]
		}
		limit := min(f.forecastDays, len(days))

		reply := newBudget(f.maxLength)
		reply.must("Forecast: ")

		shown := 0
		for i := 0; i < limit; i++ {
			entry, err := forecastEntry(i, days[i])
			if err != nil {
				return "", err
			}
			if i > 0 {
				entry = ", " + entry
			}

			// Keep room for the ellipsis while later days remain.
			reserve := ""
			if i < len(days)-1 {
				reserve = ellipsis
			}
			if i > 0 && !reply.fits(entry+reserve) {
				break
			}
			reply.must(entry)
			shown++
		}

		if shown < len(days) {
			reply.try(ellipsis)
		}

		return reply.String(), nil
	})
}

func forecastEntry(index int, day models.ForecastDay) (string, error) {
	label, err := dayLabel(index, day.Date)
	if err != nil {
		return "", err
	}

	rain := valueOr(day.Precipitation, 0)
	if !finite(rain) {
		return "", errors.New("non-finite precipitation")
	}

	var b strings.Builder
	b.WriteString(label)
	b.WriteString(" ")
	if math.Round(rain*10) <= 0 {
		b.WriteString("dry")
	} else {
		b.WriteString(oneDecimal(rain) + "mm")
	}

	if day.MaxTemp != nil && finite(*day.MaxTemp) {
		fmt.Fprintf(&b, "/%d°C", int(math.Round(*day.MaxTemp)))
	}

	return b.String(), nil
}

func dayLabel(index int, date string) (string, error) {
	switch index {
	case 0:
		return "Today", nil
	case 1:
		return "Tomorrow", nil
	}

	t, err := parseDate(date)
	if err != nil {
		return "", err
	}
	return t.Weekday().String()[:3], nil
}

// RainHistory renders the window total, then up to three recent wet days.
func (f *Formatter) RainHistory(h *models.RainHistory) string {
	return f.render(models.KindRainHistory, func() (string, error) {
		if h == nil || (len(h.Days) == 0 && h.Total == nil) {
			return "", errPayloadMissing
		}

		total := 0.0
		if h.Total != nil {
			total = *h.Total
		} else {
			for _, d := range h.Days {
				total += valueOr(d.Precipitation, 0)
			}
		}
		if !finite(total) {
			return "", errors.New("non-finite total")
		}

		reply := newBudget(f.maxLength)
		if len(h.Days) > 0 {
			reply.must(fmt.Sprintf("Rain last %dd: %smm.", len(h.Days), oneDecimal(total)))
		} else {
			reply.must(fmt.Sprintf("Rain: %smm.", oneDecimal(total)))
		}

		var wet []string
		for i := len(h.Days) - 1; i >= 0 && len(wet) < maxRainDays; i-- {
			day := h.Days[i]
			rain := valueOr(day.Precipitation, 0)
			if !finite(rain) || rain <= f.rainThreshold {
				continue
			}
			t, err := parseDate(day.Date)
			if err != nil {
				return "", err
			}
			wet = append(wet, fmt.Sprintf("%s %smm", t.Format("Jan 2"), oneDecimal(rain)))
		}

		if len(wet) == 0 {
			reply.must(fmt.Sprintf(" Mostly dry, no day above %smm.", oneDecimal(f.rainThreshold)))
			return reply.String(), nil
		}

		reply.try(" Wet days: " + wet[0])
		for _, entry := range wet[1:] {
			if !reply.try(", " + entry) {
				break
			}
		}

		return reply.String(), nil
	})
}

func rainPhrase(mm float64) string {
	if math.Round(mm*10) <= 0 {
		return "dry"
	}
	return oneDecimal(mm) + "mm rain"
}
