package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"AirSight/internal/domain/models"
	"AirSight/internal/domain/repository"
	domsvc "AirSight/internal/domain/service"
	"AirSight/internal/services/advisory"
	"AirSight/pkg/logger"
)

// overviewConcurrency bounds the station fan-out for the region overview.
const overviewConcurrency = 4

// AttributionView pairs the raw per-pollutant scores with their policy
// bucket grouping.
type AttributionView struct {
	Result  models.AttributionResult `json:"result"`
	Buckets []models.SourceBucket    `json:"buckets"`
}

// Dashboard aggregates the live feed, the inference models and the advisory
// table into the operations the API serves.
type Dashboard struct {
	source     repository.LiveDataSource
	history    repository.HistoryStore
	attributor domsvc.SourceAttributor
	forecaster domsvc.AQIForecaster
	classifier domsvc.AdvisoryClassifier
	simulator  *advisory.Simulator
	stations   []string
	log        *logger.Logger
}

func NewDashboard(
	source repository.LiveDataSource,
	history repository.HistoryStore,
	attributor domsvc.SourceAttributor,
	forecaster domsvc.AQIForecaster,
	classifier domsvc.AdvisoryClassifier,
	simulator *advisory.Simulator,
	stations []string,
	log *logger.Logger,
) *Dashboard {
	return &Dashboard{
		source:     source,
		history:    history,
		attributor: attributor,
		forecaster: forecaster,
		classifier: classifier,
		simulator:  simulator,
		stations:   stations,
		log:        log,
	}
}

// Live returns the current reading for the station with its advisory band.
func (d *Dashboard) Live(ctx context.Context, station string) (models.LiveSnapshot, error) {
	reading, err := d.source.Fetch(ctx, station)
	if err != nil {
		return models.LiveSnapshot{}, err
	}
	adv, err := d.classifier.Classify(float64(reading.AQI))
	if err != nil {
		return models.LiveSnapshot{}, err
	}
	return models.LiveSnapshot{Reading: reading, Advisory: adv}, nil
}

// Attribution runs the source attribution model on the station's live
// reading and folds the scores into policy buckets.
func (d *Dashboard) Attribution(ctx context.Context, station string) (AttributionView, error) {
	reading, err := d.source.Fetch(ctx, station)
	if err != nil {
		return AttributionView{}, err
	}
	result, err := d.attributor.Attribute(ctx, reading)
	if err != nil {
		return AttributionView{}, err
	}
	return AttributionView{
		Result:  result,
		Buckets: advisory.Buckets(result),
	}, nil
}

// Forecast predicts the station's AQI over the horizon from sampled history.
// When calibrate is set the series is anchored to the live reading: the whole
// series shifts so its first step starts from the observed AQI. If the live
// fetch fails the uncalibrated series is served instead of an error.
func (d *Dashboard) Forecast(ctx context.Context, station string, horizon int, calibrate bool) (models.ForecastSeries, error) {
	history := d.history.Recent(station, 0)
	series, err := d.forecaster.Forecast(ctx, history, horizon)
	if err != nil {
		return models.ForecastSeries{}, err
	}

	if calibrate && len(series.Points) > 0 {
		reading, err := d.source.Fetch(ctx, station)
		if err != nil {
			d.log.Warn("live fetch failed, serving uncalibrated forecast",
				logger.String("station", station),
				logger.Error(err),
			)
		} else {
			delta := float64(reading.AQI) - series.Points[0].PredictedAQI
			for i := range series.Points {
				series.Points[i].PredictedAQI = clampNonNegative(series.Points[i].PredictedAQI + delta)
				series.Points[i].LowerBound = clampNonNegative(series.Points[i].LowerBound + delta)
				series.Points[i].UpperBound = clampNonNegative(series.Points[i].UpperBound + delta)
			}
			series.Calibrated = true
		}
	}

	for i := range series.Points {
		adv, err := d.classifier.Classify(series.Points[i].PredictedAQI)
		if err != nil {
			return models.ForecastSeries{}, err
		}
		series.Points[i].Advisory = adv
	}
	return series, nil
}

// defaultSummaryHorizon is the forecast horizon used by the combined view.
const defaultSummaryHorizon = 72

// StationSummary is the combined dashboard view for one station. Attribution
// and forecast are best-effort: when either fails its field is nil and the
// reason is recorded, so the live panel still renders.
type StationSummary struct {
	Live                models.LiveSnapshot    `json:"live"`
	Attribution         *AttributionView       `json:"attribution,omitempty"`
	AttributionError    string                 `json:"attribution_error,omitempty"`
	Forecast            *models.ForecastSeries `json:"forecast,omitempty"`
	ForecastUnavailable string                 `json:"forecast_unavailable,omitempty"`
}

// Summary builds the full per-station dashboard view. Attribution and the
// calibrated forecast run concurrently once the live reading is in hand,
// since neither depends on the other.
func (d *Dashboard) Summary(ctx context.Context, station string) (StationSummary, error) {
	snap, err := d.Live(ctx, station)
	if err != nil {
		return StationSummary{}, err
	}
	summary := StationSummary{Live: snap}

	var (
		wg       sync.WaitGroup
		attrView AttributionView
		attrErr  error
		series   models.ForecastSeries
		fcErr    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		var result models.AttributionResult
		result, attrErr = d.attributor.Attribute(ctx, snap.Reading)
		if attrErr == nil {
			attrView = AttributionView{Result: result, Buckets: advisory.Buckets(result)}
		}
	}()
	go func() {
		defer wg.Done()
		series, fcErr = d.Forecast(ctx, station, defaultSummaryHorizon, true)
	}()
	wg.Wait()

	if attrErr != nil {
		summary.AttributionError = attrErr.Error()
	} else {
		summary.Attribution = &attrView
	}
	if fcErr != nil {
		summary.ForecastUnavailable = fcErr.Error()
	} else {
		summary.Forecast = &series
	}
	return summary, nil
}

// Overview fetches all configured stations concurrently and returns them
// sorted by AQI descending. Failed stations land in Unavailable rather than
// failing the whole view.
func (d *Dashboard) Overview(ctx context.Context) (models.Overview, error) {
	type outcome struct {
		station string
		status  models.StationStatus
		err     error
	}

	results := make([]outcome, len(d.stations))
	sem := make(chan struct{}, overviewConcurrency)
	var wg sync.WaitGroup

	for i, station := range d.stations {
		wg.Add(1)
		go func(i int, station string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			snap, err := d.Live(ctx, station)
			if err != nil {
				results[i] = outcome{station: station, err: err}
				return
			}
			results[i] = outcome{station: station, status: models.StationStatus{
				Station:  snap.Reading.Station,
				AQI:      snap.Reading.AQI,
				Lat:      snap.Reading.Lat,
				Lon:      snap.Reading.Lon,
				Advisory: snap.Advisory,
			}}
		}(i, station)
	}
	wg.Wait()

	overview := models.Overview{Timestamp: time.Now().UTC()}
	for _, r := range results {
		if r.err != nil {
			d.log.Warn("station unavailable in overview",
				logger.String("station", r.station),
				logger.Error(r.err),
			)
			overview.Unavailable = append(overview.Unavailable, r.station)
			continue
		}
		overview.Stations = append(overview.Stations, r.status)
	}
	sort.SliceStable(overview.Stations, func(i, j int) bool {
		return overview.Stations[i].AQI > overview.Stations[j].AQI
	})
	return overview, nil
}

// Advisory classifies an arbitrary AQI value.
func (d *Dashboard) Advisory(aqi float64) (models.Advisory, error) {
	return d.classifier.Classify(aqi)
}

// SimulatePolicy projects the AQI impact of per-bucket emission reductions
// against the station's live baseline.
func (d *Dashboard) SimulatePolicy(ctx context.Context, station string, reductions map[string]float64) (models.PolicyImpact, error) {
	reading, err := d.source.Fetch(ctx, station)
	if err != nil {
		return models.PolicyImpact{}, err
	}
	attribution, err := d.attributor.Attribute(ctx, reading)
	if err != nil {
		return models.PolicyImpact{}, err
	}
	return d.simulator.Simulate(reading.Station, float64(reading.AQI), attribution, reductions)
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
