package advisory

import (
	"math"

	"AirSight/internal/domain/models"
)

// bucketMembers maps each policy bucket to the pollutants it aggregates.
var bucketMembers = map[string][]models.Pollutant{
	models.BucketTraffic:       {models.NO2, models.CO},
	models.BucketDust:          {models.PM25, models.PM10},
	models.BucketIndustry:      {models.SO2},
	models.BucketPhotochemical: {models.O3},
}

// bucketOrder fixes the presentation order of the buckets.
var bucketOrder = []string{
	models.BucketTraffic,
	models.BucketDust,
	models.BucketIndustry,
	models.BucketPhotochemical,
}

// Buckets folds per-pollutant attribution scores into the four policy
// buckets, expressed as percentages that sum to the same total as the input
// scores.
func Buckets(result models.AttributionResult) []models.SourceBucket {
	out := make([]models.SourceBucket, 0, len(bucketOrder))
	for _, name := range bucketOrder {
		share := 0.0
		for _, p := range bucketMembers[name] {
			share += result.Scores[p]
		}
		out = append(out, models.SourceBucket{Name: name, Percent: share * 100})
	}
	return out
}

// Simulator projects the AQI impact of per-bucket emission reductions against
// a live baseline. The model is linear: each bucket's contribution shrinks by
// its reduction fraction, so the projected AQI is
// baseline * (1 - sum(share_b * reduction_b)).
type Simulator struct {
	classifier *Classifier
}

func NewSimulator(classifier *Classifier) *Simulator {
	return &Simulator{classifier: classifier}
}

// Simulate applies the requested percentage reductions to the baseline AQI.
// reductions maps bucket name to a percentage in [0, 60]; absent buckets are
// left untouched. The projected AQI never drops below zero.
func (s *Simulator) Simulate(station string, baselineAQI float64, attribution models.AttributionResult, reductions map[string]float64) (models.PolicyImpact, error) {
	if baselineAQI < 0 || math.IsNaN(baselineAQI) || math.IsInf(baselineAQI, 0) {
		return models.PolicyImpact{}, &models.InvalidInputError{
			Field:  "baseline_aqi",
			Detail: "must be a finite non-negative number",
		}
	}
	for name, pct := range reductions {
		if _, ok := bucketMembers[name]; !ok {
			return models.PolicyImpact{}, &models.InvalidInputError{
				Field:  "reductions",
				Detail: "unknown bucket " + name,
			}
		}
		if pct < 0 || pct > 60 || math.IsNaN(pct) {
			return models.PolicyImpact{}, &models.InvalidInputError{
				Field:  name,
				Detail: "reduction must be between 0 and 60 percent",
			}
		}
	}

	buckets := Buckets(attribution)
	totalCut := 0.0
	for _, b := range buckets {
		totalCut += (b.Percent / 100) * (reductions[b.Name] / 100)
	}

	projected := baselineAQI * (1 - totalCut)
	if projected < 0 {
		projected = 0
	}
	adv, err := s.classifier.Classify(projected)
	if err != nil {
		return models.PolicyImpact{}, err
	}

	return models.PolicyImpact{
		Station:      station,
		BaselineAQI:  baselineAQI,
		ProjectedAQI: projected,
		Reduction:    totalCut,
		Buckets:      buckets,
		Advisory:     adv,
	}, nil
}
