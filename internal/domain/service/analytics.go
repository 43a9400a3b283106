package service

import (
	"context"

	"AirSight/internal/domain/models"
)

// SourceAttributor estimates per-pollutant contributions for a live reading.
type SourceAttributor interface {
	Attribute(ctx context.Context, reading models.Reading) (models.AttributionResult, error)
}

// AQIForecaster predicts a fixed-horizon AQI series from recent history.
type AQIForecaster interface {
	Forecast(ctx context.Context, history []models.Reading, horizon int) (models.ForecastSeries, error)
}

// AdvisoryClassifier maps an AQI value to its severity band.
type AdvisoryClassifier interface {
	Classify(aqi float64) (models.Advisory, error)
}
