package models

// Requests for dashboard HTTP endpoints. Defined in domain for consistency and reuse.

type LiveRequest struct {
	Station string `query:"station" json:"station" validate:"required"`
}

type AttributionRequest struct {
	Station string `query:"station" json:"station" validate:"required"`
}

type ForecastRequest struct {
	Station   string `query:"station" json:"station" validate:"required"`
	Horizon   int    `query:"horizon" json:"horizon" default:"72" validate:"gte=1,lte=168"`
	Calibrate *bool  `query:"calibrate" json:"calibrate"`
}

type SummaryRequest struct {
	Station string `query:"station" json:"station" validate:"required"`
}

type AdvisoryRequest struct {
	AQI *float64 `query:"aqi" json:"aqi" validate:"required"`
}

// PolicySimRequest carries per-bucket emission reduction percentages.
type PolicySimRequest struct {
	Station       string  `json:"station" validate:"required"`
	Traffic       float64 `json:"traffic" validate:"gte=0,lte=60"`
	Dust          float64 `json:"dust" validate:"gte=0,lte=60"`
	Industry      float64 `json:"industry" validate:"gte=0,lte=60"`
	Photochemical float64 `json:"photochemical" validate:"gte=0,lte=60"`
}
