package models

// AdvisoryLevel is a discrete AQI severity band.
type AdvisoryLevel string

const (
	LevelGood         AdvisoryLevel = "good"
	LevelSatisfactory AdvisoryLevel = "satisfactory"
	LevelModerate     AdvisoryLevel = "moderate"
	LevelPoor         AdvisoryLevel = "poor"
	LevelVeryPoor     AdvisoryLevel = "very_poor"
	LevelSevere       AdvisoryLevel = "severe"
)

// Advisory is the classified severity for an AQI value together with the
// fixed recommendation and display color for its band.
type Advisory struct {
	Level          AdvisoryLevel `json:"level"`
	Label          string        `json:"label"`
	Recommendation string        `json:"recommendation"`
	ColorHex       string        `json:"color_hex"`
	// MinAQI/MaxAQI are the inclusive band bounds; MaxAQI is -1 for the
	// open-ended top band.
	MinAQI int `json:"min_aqi"`
	MaxAQI int `json:"max_aqi"`
}
