package models

import "time"

// LiveSnapshot is the consolidated dashboard view for one station: the live
// reading with its advisory band. Note: no transport concerns here.
type LiveSnapshot struct {
	Reading  Reading
	Advisory Advisory
}

// StationStatus is one row of the region overview.
type StationStatus struct {
	Station  string   `json:"station"`
	AQI      int      `json:"aqi"`
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	Advisory Advisory `json:"advisory"`
}

// Overview is the region-wide view, sorted by AQI descending. Stations whose
// fetch failed are listed in Unavailable so the presentation layer can render
// a degraded state instead of an error.
type Overview struct {
	Timestamp   time.Time       `json:"timestamp"`
	Stations    []StationStatus `json:"stations"`
	Unavailable []string        `json:"unavailable,omitempty"`
}

// PolicyImpact is the simulator output: projected AQI after applying the
// requested per-bucket emission reductions to the live baseline.
type PolicyImpact struct {
	Station      string         `json:"station"`
	BaselineAQI  float64        `json:"baseline_aqi"`
	ProjectedAQI float64        `json:"projected_aqi"`
	Reduction    float64        `json:"reduction_fraction"`
	Buckets      []SourceBucket `json:"buckets"`
	Advisory     Advisory       `json:"advisory"`
}
