package advisory

import (
	"math"

	"AirSight/internal/domain/models"
	domsvc "AirSight/internal/domain/service"
)

// band is one row of the fixed severity table. Max is -1 for the open-ended
// top band.
type band struct {
	min, max       int
	level          models.AdvisoryLevel
	label          string
	recommendation string
	color          string
}

// Severity table following the Indian national AQI scale. Bounds are
// inclusive on both ends.
var bands = []band{
	{0, 50, models.LevelGood, "Good",
		"Air quality is satisfactory. Enjoy outdoor activities.", "#14c38e"},
	{51, 100, models.LevelSatisfactory, "Satisfactory",
		"Minor breathing discomfort possible for sensitive people.", "#e3c84e"},
	{101, 200, models.LevelModerate, "Moderate",
		"Sensitive groups should limit prolonged outdoor exertion.", "#f5a742"},
	{201, 300, models.LevelPoor, "Poor",
		"Wear an N95 mask outdoors and reduce outdoor activity.", "#ef5b5b"},
	{301, 400, models.LevelVeryPoor, "Very Poor",
		"Avoid outdoor activity; use air purifiers indoors.", "#8f6bf6"},
	{401, -1, models.LevelSevere, "Severe",
		"Health emergency. Stay indoors with purifiers running.", "#ff0000"},
}

// Classifier maps AQI values onto the fixed six-band severity table.
type Classifier struct{}

func NewClassifier() *Classifier { return &Classifier{} }

// Classify returns the band for aqi: the first band whose upper bound the
// value does not exceed, so 200.5 classifies as Poor. Negative or non-finite
// input is rejected.
func (c *Classifier) Classify(aqi float64) (models.Advisory, error) {
	if aqi < 0 || math.IsNaN(aqi) || math.IsInf(aqi, 0) {
		return models.Advisory{}, &models.InvalidInputError{
			Field:  "aqi",
			Detail: "must be a finite non-negative number",
		}
	}
	for _, b := range bands {
		if b.max == -1 || aqi <= float64(b.max) {
			return models.Advisory{
				Level:          b.level,
				Label:          b.label,
				Recommendation: b.recommendation,
				ColorHex:       b.color,
				MinAQI:         b.min,
				MaxAQI:         b.max,
			}, nil
		}
	}
	// Unreachable: the last band is open-ended.
	return models.Advisory{}, &models.InvalidInputError{Field: "aqi", Detail: "out of range"}
}

var _ domsvc.AdvisoryClassifier = (*Classifier)(nil)
