package models

import "time"

// ForecastPoint is one predicted step in a forecast series. Advisory is the
// band of the predicted value, filled by the dashboard layer.
type ForecastPoint struct {
	Timestamp    time.Time `json:"timestamp"`
	PredictedAQI float64   `json:"predicted_aqi"`
	LowerBound   float64   `json:"lower_bound"`
	UpperBound   float64   `json:"upper_bound"`
	Advisory     Advisory  `json:"advisory"`
}

// ForecastSeries is an ordered fixed-horizon forecast, strictly increasing in
// time with a constant step. Produced fresh per request, never mutated.
type ForecastSeries struct {
	StationID string          `json:"station_id"`
	Horizon   int             `json:"horizon"`
	Interval  time.Duration   `json:"interval"`
	Points    []ForecastPoint `json:"points"`
	// BoundsAvailable is false when the model exposes no uncertainty
	// estimate; Lower/UpperBound then equal PredictedAQI and must not be
	// presented as confidence bounds.
	BoundsAvailable bool   `json:"bounds_available"`
	Model           string `json:"model"`
	// Calibrated is true when the series was anchored to a live reading.
	Calibrated bool `json:"calibrated"`
}
