package inference

import (
	"context"
	"fmt"
	"math"
	"time"

	"AirSight/internal/domain/models"
	domsvc "AirSight/internal/domain/service"
	"AirSight/internal/services/artifact"
)

// z score for a 95% confidence interval.
const confidenceZ = 1.96

// ModelAQIForecaster adapts a loaded autoregressive forecaster to the domain
// AQIForecaster interface.
type ModelAQIForecaster struct {
	model *artifact.ForecastModel
}

func NewModelAQIForecaster(m *artifact.ForecastModel) *ModelAQIForecaster {
	return &ModelAQIForecaster{model: m}
}

func (f *ModelAQIForecaster) Forecast(ctx context.Context, history []models.Reading, horizon int) (models.ForecastSeries, error) {
	if err := ctx.Err(); err != nil {
		return models.ForecastSeries{}, err
	}
	if horizon <= 0 {
		return models.ForecastSeries{}, &models.InvalidInputError{Field: "horizon", Detail: "must be positive"}
	}
	interval := f.model.SamplingInterval()
	// Half an interval of jitter is tolerated; anything beyond that is a
	// hole the model was not trained to bridge.
	maxGap := interval + interval/2

	// Forecast from the newest contiguous run. An old hole or an
	// out-of-order pair only discards what came before it, so one missed
	// sample does not poison the window until it ages out.
	start := len(history) - 1
	for start > 0 {
		gap := history[start].Timestamp.Sub(history[start-1].Timestamp)
		if gap <= 0 || gap > maxGap {
			break
		}
		start--
	}
	run := history[start:]
	if len(run) < f.model.MinHistory() {
		histErr := &models.InsufficientHistoryError{
			Required: f.model.MinHistory(),
			Got:      len(run),
		}
		if start > 0 {
			histErr.Reason = fmt.Sprintf("only %d contiguous points at sampling interval %s since %s",
				len(run), interval, history[start].Timestamp.UTC().Format(time.RFC3339))
		}
		return models.ForecastSeries{}, histErr
	}

	values := make([]float64, len(run))
	for i, r := range run {
		values[i] = float64(r.AQI)
	}

	predicted := f.model.Predict(values, horizon)
	sigma := f.model.ResidualSigma()
	last := run[len(run)-1]

	points := make([]models.ForecastPoint, 0, horizon)
	for s, v := range predicted {
		if v < 0 {
			v = 0
		}
		pt := models.ForecastPoint{
			Timestamp:    last.Timestamp.Add(time.Duration(s+1) * interval),
			PredictedAQI: v,
			LowerBound:   v,
			UpperBound:   v,
		}
		if sigma > 0 {
			// Uncertainty widens with the forecast step.
			half := confidenceZ * sigma * math.Sqrt(float64(s+1))
			pt.LowerBound = math.Max(0, v-half)
			pt.UpperBound = v + half
		}
		points = append(points, pt)
	}

	return models.ForecastSeries{
		StationID:       last.StationID,
		Horizon:         horizon,
		Interval:        interval,
		Points:          points,
		BoundsAvailable: sigma > 0,
		Model:           f.model.Name(),
	}, nil
}

var _ domsvc.AQIForecaster = (*ModelAQIForecaster)(nil)
