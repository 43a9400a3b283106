package inference

import (
	"context"
	"math"

	"AirSight/internal/domain/models"
	domsvc "AirSight/internal/domain/service"
	"AirSight/internal/services/artifact"
)

// ModelSourceAttributor adapts a loaded attribution model to the domain
// SourceAttributor interface. The feature vector is always built in the
// model's embedded training-time order.
//
// Missing-pollutant policy: substitute zero for the missing feature and mark
// the result Partial, rather than failing the whole request. Only a reading
// with no expected pollutant at all is rejected.
type ModelSourceAttributor struct {
	model *artifact.AttributionModel
}

func NewModelSourceAttributor(m *artifact.AttributionModel) *ModelSourceAttributor {
	return &ModelSourceAttributor{model: m}
}

func (a *ModelSourceAttributor) Attribute(ctx context.Context, reading models.Reading) (models.AttributionResult, error) {
	if err := ctx.Err(); err != nil {
		return models.AttributionResult{}, err
	}

	features := a.model.Features()
	vector := make([]float64, len(features))
	var missing []models.Pollutant
	for i, p := range features {
		v, ok := reading.Concentration(p)
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			missing = append(missing, p)
			continue
		}
		if v < 0 {
			v = 0
		}
		vector[i] = v
	}
	if len(missing) == len(features) {
		return models.AttributionResult{}, &models.ShapeMismatchError{
			Expected: features,
			Missing:  missing,
		}
	}

	raw, err := a.model.Infer(vector)
	if err != nil {
		return models.AttributionResult{}, err
	}

	total := 0.0
	for _, r := range raw {
		total += r
	}
	if total <= 0 {
		// All reported concentrations were zero. Fall back to the bare
		// importance weights so the result still sums to one.
		raw = a.model.Weights()
		total = 0
		for _, r := range raw {
			total += r
		}
	}

	scores := make(map[models.Pollutant]float64, len(features))
	for i, p := range features {
		scores[p] = raw[i] / total
	}

	return models.AttributionResult{
		StationID: reading.StationID,
		Timestamp: reading.Timestamp,
		Scores:    scores,
		Partial:   len(missing) > 0,
		Missing:   missing,
		Model:     a.model.Name(),
	}, nil
}

var _ domsvc.SourceAttributor = (*ModelSourceAttributor)(nil)
