package usecase

import (
	"os"
	"path/filepath"
	"testing"

	"AirSight/internal/services/artifact"
)

const testAttributionDoc = `{
  "schema_version": 1,
  "kind": "attribution",
  "name": "rf-importance-v3",
  "trained_at": "2026-05-01T00:00:00Z",
  "attribution": {
    "features": ["PM2.5", "PM10", "NO2", "SO2", "CO", "O3"],
    "weights": [0.32, 0.24, 0.16, 0.08, 0.12, 0.08]
  }
}`

const testForecastDoc = `{
  "schema_version": 1,
  "kind": "forecast",
  "name": "ar24-hourly-v2",
  "trained_at": "2026-05-01T00:00:00Z",
  "forecast": {
    "sampling_interval": "1h",
    "min_history": 24,
    "coefficients": [0.6, 0.3, 0.1],
    "intercept": 2.5,
    "residual_sigma": 14.0
  }
}`

func writeTestArtifact(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func loadTestAttribution(t *testing.T) (*artifact.AttributionModel, error) {
	t.Helper()
	return artifact.LoadAttribution(writeTestArtifact(t, "attribution.json", testAttributionDoc))
}

func loadTestForecast(t *testing.T) (*artifact.ForecastModel, error) {
	t.Helper()
	return artifact.LoadForecast(writeTestArtifact(t, "forecast.json", testForecastDoc))
}
