package models

import "time"

// AttributionResult holds per-pollutant contribution scores for a reading.
// Scores are normalized to sum to one; each score is finite and non-negative.
type AttributionResult struct {
	StationID string
	Timestamp time.Time
	Scores    map[Pollutant]float64
	// Partial is true when one or more expected pollutants were missing from
	// the reading and a zero contribution was substituted.
	Partial bool
	// Missing lists the substituted pollutants, in model feature order.
	Missing []Pollutant
	Model   string
}

// SourceBucket groups pollutant contributions into a policy category.
type SourceBucket struct {
	Name    string  `json:"name"`
	Percent float64 `json:"percent"`
}

// Policy simulator bucket names. Fixed vocabulary shared between the
// attribution grouping and the simulator input.
const (
	BucketTraffic       = "traffic"       // NO2 + CO
	BucketDust          = "dust"          // PM2.5 + PM10
	BucketIndustry      = "industry"      // SO2
	BucketPhotochemical = "photochemical" // O3
)
