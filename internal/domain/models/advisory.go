package models

// QuoteRequest is the lookup key for an insurance quote.
type QuoteRequest struct {
	Lat      float64
	Lng      float64
	Crop     Crop
	Coverage int
}

// Quote is an insurance quote returned by the advisory backend.
type Quote struct {
	Crop       string   `json:"crop_type"`
	Premium    *float64 `json:"premium"`
	Coverage   *float64 `json:"coverage"`
	Currency   string   `json:"currency"`
	RiskLevel  string   `json:"risk_level"`
	ValidUntil string   `json:"valid_until"`
}

// PlantingWindow is a planting recommendation returned by the advisory backend.
type PlantingWindow struct {
	OptimalStart    string `json:"optimal_start"`
	OptimalEnd      string `json:"optimal_end"`
	RiskLevel       string `json:"risk_level"`
	RainfallOutlook string `json:"rainfall_outlook"`
	Recommendation  string `json:"recommendation"`
}
