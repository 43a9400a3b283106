package models

import "time"

// Pollutant identifies one measured pollutant species.
type Pollutant string

const (
	PM25 Pollutant = "PM2.5"
	PM10 Pollutant = "PM10"
	NO2  Pollutant = "NO2"
	SO2  Pollutant = "SO2"
	CO   Pollutant = "CO"
	O3   Pollutant = "O3"
)

// Reading is a single station observation. Immutable once fetched; callers
// must not mutate the Concentrations map after construction.
type Reading struct {
	StationID string
	Station   string
	Timestamp time.Time // UTC
	AQI       int
	// Concentrations maps pollutant to its sub-index/concentration value.
	// Pollutants the upstream omitted are simply absent.
	Concentrations map[Pollutant]float64
	Lat            float64
	Lon            float64
}

// Concentration returns the value for p and whether the station reported it.
func (r Reading) Concentration(p Pollutant) (float64, bool) {
	v, ok := r.Concentrations[p]
	return v, ok
}
