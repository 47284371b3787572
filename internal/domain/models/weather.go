package models

// CurrentWeather holds the current conditions at a point.
// Nil fields were not reported by the upstream provider.
type CurrentWeather struct {
	Temperature   *float64 `json:"temperature"`
	Precipitation *float64 `json:"precipitation"`
	Humidity      *float64 `json:"humidity"`
	WindSpeed     *float64 `json:"wind_speed"`
	Time          string   `json:"time"`
}

// Forecast is a daily forecast, earliest day first.
type Forecast struct {
	Days []ForecastDay `json:"days"`
}

// ForecastDay is one forecast entry. Date uses the 2006-01-02 layout.
type ForecastDay struct {
	Date            string   `json:"date"`
	MaxTemp         *float64 `json:"max_temp"`
	MinTemp         *float64 `json:"min_temp"`
	Precipitation   *float64 `json:"precipitation"`
	RainProbability *float64 `json:"rain_probability"`
}

// RainHistory is the observed daily rainfall over a lookback window, oldest day first.
type RainHistory struct {
	Days  []DailyRain `json:"days"`
	Total *float64    `json:"total"`
}

// DailyRain is the precipitation total of a single day in millimetres.
type DailyRain struct {
	Date          string   `json:"date"`
	Precipitation *float64 `json:"precipitation"`
}

// Float is a small helper to take the address of a literal reading.
func Float(v float64) *float64 {
	return &v
}
