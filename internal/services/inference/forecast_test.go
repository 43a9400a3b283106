package inference

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"AirSight/internal/domain/models"
	"AirSight/internal/services/artifact"
)

func forecastDoc(sigma float64) string {
	return fmt.Sprintf(`{
  "schema_version": 1,
  "kind": "forecast",
  "name": "ar24-hourly-v2",
  "trained_at": "2026-05-01T00:00:00Z",
  "forecast": {
    "sampling_interval": "1h",
    "min_history": 24,
    "coefficients": [0.6, 0.3, 0.1],
    "intercept": 2.5,
    "residual_sigma": %g
  }
}`, sigma)
}

func loadForecaster(t *testing.T, sigma float64) *ModelAQIForecaster {
	t.Helper()
	path := filepath.Join(t.TempDir(), "forecast.json")
	if err := os.WriteFile(path, []byte(forecastDoc(sigma)), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	model, err := artifact.LoadForecast(path)
	if err != nil {
		t.Fatalf("load forecast model: %v", err)
	}
	return NewModelAQIForecaster(model)
}

func hourlyHistory(n int) []models.Reading {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Reading, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.Reading{
			StationID: "delhi",
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			AQI:       150 + i%10,
		})
	}
	return out
}

func TestForecastSeriesShape(t *testing.T) {
	fc := loadForecaster(t, 14.0)
	history := hourlyHistory(48)

	series, err := fc.Forecast(context.Background(), history, 72)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if len(series.Points) != 72 {
		t.Fatalf("got %d points, want 72", len(series.Points))
	}
	if !series.BoundsAvailable {
		t.Fatal("expected bounds with nonzero residual sigma")
	}
	last := history[len(history)-1].Timestamp
	for i, pt := range series.Points {
		want := last.Add(time.Duration(i+1) * time.Hour)
		if !pt.Timestamp.Equal(want) {
			t.Fatalf("point %d at %s, want %s", i, pt.Timestamp, want)
		}
		if pt.PredictedAQI < 0 {
			t.Fatalf("point %d predicted negative AQI %v", i, pt.PredictedAQI)
		}
		if pt.LowerBound > pt.PredictedAQI || pt.UpperBound < pt.PredictedAQI {
			t.Fatalf("point %d bounds [%v, %v] do not bracket %v", i, pt.LowerBound, pt.UpperBound, pt.PredictedAQI)
		}
		if pt.LowerBound < 0 {
			t.Fatalf("point %d lower bound %v below zero", i, pt.LowerBound)
		}
	}
	// Uncertainty must not shrink as the horizon extends.
	firstWidth := series.Points[0].UpperBound - series.Points[0].PredictedAQI
	lastWidth := series.Points[71].UpperBound - series.Points[71].PredictedAQI
	if lastWidth <= firstWidth {
		t.Fatalf("bound width did not widen: step 1 %v, step 72 %v", firstWidth, lastWidth)
	}
}

func TestForecastZeroSigmaDisablesBounds(t *testing.T) {
	fc := loadForecaster(t, 0)

	series, err := fc.Forecast(context.Background(), hourlyHistory(24), 6)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if series.BoundsAvailable {
		t.Fatal("expected bounds unavailable with zero residual sigma")
	}
	for i, pt := range series.Points {
		if pt.LowerBound != pt.PredictedAQI || pt.UpperBound != pt.PredictedAQI {
			t.Fatalf("point %d has bounds despite zero sigma", i)
		}
	}
}

func TestForecastInsufficientHistory(t *testing.T) {
	fc := loadForecaster(t, 14.0)

	_, err := fc.Forecast(context.Background(), hourlyHistory(10), 24)
	var histErr *models.InsufficientHistoryError
	if !errors.As(err, &histErr) {
		t.Fatalf("expected InsufficientHistoryError, got %v", err)
	}
	if histErr.Required != 24 || histErr.Got != 10 {
		t.Fatalf("unexpected error detail %+v", histErr)
	}
}

func TestForecastRejectsGappyHistory(t *testing.T) {
	fc := loadForecaster(t, 14.0)
	history := hourlyHistory(30)
	// Punch a three hour hole into otherwise hourly history. The ten
	// points after the hole are all that remains usable.
	for i := 20; i < len(history); i++ {
		history[i].Timestamp = history[i].Timestamp.Add(3 * time.Hour)
	}

	_, err := fc.Forecast(context.Background(), history, 24)
	var histErr *models.InsufficientHistoryError
	if !errors.As(err, &histErr) {
		t.Fatalf("expected InsufficientHistoryError for gappy history, got %v", err)
	}
	if histErr.Got != 10 {
		t.Fatalf("usable run = %d points, want 10", histErr.Got)
	}
}

func TestForecastRecoversFromOldGap(t *testing.T) {
	fc := loadForecaster(t, 14.0)
	history := hourlyHistory(60)
	// A hole at index 20 leaves a 40 point contiguous run, plenty for the
	// 24 point minimum. The forecast anchors on the run, not the hole.
	for i := 20; i < len(history); i++ {
		history[i].Timestamp = history[i].Timestamp.Add(3 * time.Hour)
	}

	series, err := fc.Forecast(context.Background(), history, 12)
	if err != nil {
		t.Fatalf("forecast with old gap: %v", err)
	}
	last := history[len(history)-1].Timestamp
	if !series.Points[0].Timestamp.Equal(last.Add(time.Hour)) {
		t.Fatalf("first point at %s, want %s", series.Points[0].Timestamp, last.Add(time.Hour))
	}
}

func TestForecastRejectsUnorderedHistory(t *testing.T) {
	fc := loadForecaster(t, 14.0)
	history := hourlyHistory(30)
	history[5], history[6] = history[6], history[5]

	var histErr *models.InsufficientHistoryError
	if _, err := fc.Forecast(context.Background(), history, 24); !errors.As(err, &histErr) {
		t.Fatalf("expected InsufficientHistoryError for unordered history, got %v", err)
	}
}

func TestForecastInvalidHorizon(t *testing.T) {
	fc := loadForecaster(t, 14.0)

	var inputErr *models.InvalidInputError
	if _, err := fc.Forecast(context.Background(), hourlyHistory(24), 0); !errors.As(err, &inputErr) {
		t.Fatalf("expected InvalidInputError, got %v", err)
	}
}

func TestForecastToleratesHalfIntervalJitter(t *testing.T) {
	fc := loadForecaster(t, 14.0)
	history := hourlyHistory(30)
	// 80 minute gap stays inside the interval-and-a-half tolerance.
	for i := 10; i < len(history); i++ {
		history[i].Timestamp = history[i].Timestamp.Add(20 * time.Minute)
	}

	if _, err := fc.Forecast(context.Background(), history, 12); err != nil {
		t.Fatalf("forecast with jittered history: %v", err)
	}
}
