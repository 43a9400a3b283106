package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"AirSight/internal/domain/models"
)

const validAttribution = `{
  "schema_version": 1,
  "kind": "attribution",
  "name": "rf-importance-v3",
  "attribution": {
    "features": ["PM2.5", "PM10", "NO2", "SO2", "CO", "O3"],
    "weights": [0.32, 0.24, 0.16, 0.08, 0.12, 0.08]
  }
}`

const validForecast = `{
  "schema_version": 1,
  "kind": "forecast",
  "name": "ar24-hourly-v2",
  "forecast": {
    "sampling_interval": "1h",
    "min_history": 24,
    "coefficients": [0.6, 0.3, 0.1],
    "intercept": 2.5,
    "residual_sigma": 14.0
  }
}`

func writeArtifact(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return p
}

func TestLoadAttribution(t *testing.T) {
	m, err := LoadAttribution(writeArtifact(t, validAttribution))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Name() != "rf-importance-v3" {
		t.Fatalf("unexpected name %q", m.Name())
	}
	if len(m.Features()) != 6 {
		t.Fatalf("expected 6 features, got %d", len(m.Features()))
	}
	if i, ok := m.Index(models.NO2); !ok || i != 2 {
		t.Fatalf("expected NO2 at index 2, got %d ok=%v", i, ok)
	}
}

func TestLoadAttributionMissingFile(t *testing.T) {
	_, err := LoadAttribution(filepath.Join(t.TempDir(), "absent.json"))
	var mle *models.ModelLoadError
	if !errors.As(err, &mle) {
		t.Fatalf("expected ModelLoadError, got %T: %v", err, err)
	}
}

func TestLoadAttributionCorrupt(t *testing.T) {
	_, err := LoadAttribution(writeArtifact(t, "{not json"))
	var mle *models.ModelLoadError
	if !errors.As(err, &mle) {
		t.Fatalf("expected ModelLoadError, got %v", err)
	}
}

func TestLoadAttributionSchemaDrift(t *testing.T) {
	body := `{"schema_version": 2, "kind": "attribution", "attribution": {"features": ["PM2.5"], "weights": [1]}}`
	if _, err := LoadAttribution(writeArtifact(t, body)); err == nil {
		t.Fatalf("expected schema version mismatch error")
	}
}

func TestLoadAttributionWrongKind(t *testing.T) {
	if _, err := LoadAttribution(writeArtifact(t, validForecast)); err == nil {
		t.Fatalf("expected kind mismatch error")
	}
}

func TestLoadAttributionRejectsZeroWeightVector(t *testing.T) {
	body := `{"schema_version": 1, "kind": "attribution", "attribution": {"features": ["PM2.5", "PM10", "NO2", "SO2", "CO", "O3"], "weights": [0, 0, 0, 0, 0, 0]}}`
	var mle *models.ModelLoadError
	if _, err := LoadAttribution(writeArtifact(t, body)); !errors.As(err, &mle) {
		t.Fatalf("expected ModelLoadError for zero-sum weights, got %v", err)
	}
}

func TestLoadAttributionShapeMismatch(t *testing.T) {
	body := `{"schema_version": 1, "kind": "attribution", "attribution": {"features": ["PM2.5", "PM10"], "weights": [0.5]}}`
	if _, err := LoadAttribution(writeArtifact(t, body)); err == nil {
		t.Fatalf("expected weight/feature count mismatch error")
	}
}

func TestLoadForecast(t *testing.T) {
	m, err := LoadForecast(writeArtifact(t, validForecast))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.SamplingInterval() != time.Hour {
		t.Fatalf("unexpected interval %v", m.SamplingInterval())
	}
	if m.MinHistory() != 24 {
		t.Fatalf("unexpected min history %d", m.MinHistory())
	}
	if m.ResidualSigma() != 14.0 {
		t.Fatalf("unexpected sigma %v", m.ResidualSigma())
	}
}

func TestLoadForecastBadOrder(t *testing.T) {
	body := `{"schema_version": 1, "kind": "forecast", "forecast": {"sampling_interval": "1h", "min_history": 2, "coefficients": [0.5, 0.3, 0.2], "intercept": 0}}`
	if _, err := LoadForecast(writeArtifact(t, body)); err == nil {
		t.Fatalf("expected min_history below AR order error")
	}
}

func TestPredictLength(t *testing.T) {
	m, err := LoadForecast(writeArtifact(t, validForecast))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	history := make([]float64, 24)
	for i := range history {
		history[i] = 200
	}
	out := m.Predict(history, 72)
	if len(out) != 72 {
		t.Fatalf("expected 72 predictions, got %d", len(out))
	}
}

func TestNewRegistryLoadsBoth(t *testing.T) {
	dir := t.TempDir()
	ap := filepath.Join(dir, "a.json")
	fp := filepath.Join(dir, "f.json")
	if err := os.WriteFile(ap, []byte(validAttribution), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(fp, []byte(validForecast), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	reg, err := NewRegistry(ap, fp)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if reg.Attribution() == nil || reg.Forecast() == nil {
		t.Fatalf("expected both handles loaded")
	}
}
