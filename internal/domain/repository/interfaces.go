package repository

import (
	"context"
	"time"

	"AirSight/internal/domain/models"
)

// LiveDataSource fetches the current reading for a station query.
type LiveDataSource interface {
	Fetch(ctx context.Context, stationQuery string) (models.Reading, error)
}

// HistoryStore keeps a bounded, time-ordered window of recent readings per
// station. It is an in-memory buffer, not persistent storage.
type HistoryStore interface {
	Append(stationQuery string, r models.Reading)
	Recent(stationQuery string, n int) []models.Reading
	Len(stationQuery string) int
}

// Publisher emits sampled readings for downstream consumers.
type Publisher interface {
	PublishReading(ctx context.Context, r models.Reading) error
	Close() error
}

// Metrics records operational measurements.
type Metrics interface {
	RecordFetch(station, result string)
	RecordError(kind string)
	RecordLastAQI(station string, aqi float64)
	RecordLatency(op string, d time.Duration)
}
