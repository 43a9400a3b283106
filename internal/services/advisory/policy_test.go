package advisory

import (
	"errors"
	"math"
	"testing"

	"AirSight/internal/domain/models"
)

func sampleAttribution() models.AttributionResult {
	return models.AttributionResult{
		StationID: "delhi",
		Scores: map[models.Pollutant]float64{
			models.PM25: 0.35,
			models.PM10: 0.25,
			models.NO2:  0.15,
			models.SO2:  0.05,
			models.CO:   0.10,
			models.O3:   0.10,
		},
	}
}

func TestBucketsGrouping(t *testing.T) {
	buckets := Buckets(sampleAttribution())
	if len(buckets) != 4 {
		t.Fatalf("got %d buckets, want 4", len(buckets))
	}
	want := map[string]float64{
		models.BucketTraffic:       25, // NO2 + CO
		models.BucketDust:          60, // PM2.5 + PM10
		models.BucketIndustry:      5,  // SO2
		models.BucketPhotochemical: 10, // O3
	}
	total := 0.0
	for _, b := range buckets {
		if math.Abs(b.Percent-want[b.Name]) > 1e-9 {
			t.Fatalf("bucket %s = %v%%, want %v%%", b.Name, b.Percent, want[b.Name])
		}
		total += b.Percent
	}
	if math.Abs(total-100) > 1e-9 {
		t.Fatalf("bucket percentages sum to %v, want 100", total)
	}
}

func TestSimulateReducesAQI(t *testing.T) {
	sim := NewSimulator(NewClassifier())

	impact, err := sim.Simulate("delhi", 320, sampleAttribution(), map[string]float64{
		models.BucketDust:    50,
		models.BucketTraffic: 20,
	})
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	// cut = 0.60*0.50 + 0.25*0.20 = 0.35
	wantProjected := 320 * (1 - 0.35)
	if math.Abs(impact.ProjectedAQI-wantProjected) > 1e-9 {
		t.Fatalf("projected AQI %v, want %v", impact.ProjectedAQI, wantProjected)
	}
	if impact.ProjectedAQI >= impact.BaselineAQI {
		t.Fatal("projection did not reduce AQI")
	}
	if impact.Advisory.Level != models.LevelPoor {
		t.Fatalf("projected advisory %s, want poor", impact.Advisory.Level)
	}
}

func TestSimulateNoReductions(t *testing.T) {
	sim := NewSimulator(NewClassifier())

	impact, err := sim.Simulate("delhi", 180, sampleAttribution(), nil)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if impact.ProjectedAQI != 180 {
		t.Fatalf("projected %v with no reductions, want baseline 180", impact.ProjectedAQI)
	}
	if impact.Reduction != 0 {
		t.Fatalf("reduction fraction %v, want 0", impact.Reduction)
	}
}

func TestSimulateRejectsOutOfRangeReduction(t *testing.T) {
	sim := NewSimulator(NewClassifier())

	var inputErr *models.InvalidInputError
	_, err := sim.Simulate("delhi", 180, sampleAttribution(), map[string]float64{
		models.BucketDust: 75,
	})
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected InvalidInputError for 75%% reduction, got %v", err)
	}
}

func TestSimulateRejectsUnknownBucket(t *testing.T) {
	sim := NewSimulator(NewClassifier())

	var inputErr *models.InvalidInputError
	_, err := sim.Simulate("delhi", 180, sampleAttribution(), map[string]float64{
		"agriculture": 10,
	})
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected InvalidInputError for unknown bucket, got %v", err)
	}
}

func TestSimulateNeverNegative(t *testing.T) {
	sim := NewSimulator(NewClassifier())
	// Partial attribution concentrated in one bucket.
	attr := models.AttributionResult{
		Scores: map[models.Pollutant]float64{models.PM25: 1.0},
	}

	impact, err := sim.Simulate("delhi", 40, attr, map[string]float64{
		models.BucketDust: 60,
	})
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if impact.ProjectedAQI < 0 {
		t.Fatalf("projected AQI %v is negative", impact.ProjectedAQI)
	}
}
