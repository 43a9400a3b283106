package artifact

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"AirSight/internal/domain/models"
)

// AttributionModel is the loaded source-attribution artifact. Immutable after
// load; safe to share across concurrent callers.
type AttributionModel struct {
	name     string
	features []models.Pollutant
	weights  []float64
	index    map[models.Pollutant]int
}

// Name returns the model identifier from the artifact.
func (m *AttributionModel) Name() string { return m.name }

// Features returns the training-time feature order.
func (m *AttributionModel) Features() []models.Pollutant { return m.features }

// Index returns the vector position for a pollutant.
func (m *AttributionModel) Index(p models.Pollutant) (int, bool) {
	i, ok := m.index[p]
	return i, ok
}

// Infer runs one inference pass over a fixed-order feature vector and returns
// raw per-feature importance mass. The vector length must match Features().
func (m *AttributionModel) Infer(vector []float64) ([]float64, error) {
	if len(vector) != len(m.weights) {
		return nil, fmt.Errorf("vector length %d, model expects %d", len(vector), len(m.weights))
	}
	out := make([]float64, len(vector))
	for i, x := range vector {
		out[i] = m.weights[i] * x
	}
	return out, nil
}

// Weights returns a copy of the raw importance weights.
func (m *AttributionModel) Weights() []float64 {
	out := make([]float64, len(m.weights))
	copy(out, m.weights)
	return out
}

// ForecastModel is the loaded autoregressive forecaster. Immutable after load.
type ForecastModel struct {
	name          string
	interval      time.Duration
	minHistory    int
	coeffs        []float64
	intercept     float64
	residualSigma float64
}

func (m *ForecastModel) Name() string                    { return m.name }
func (m *ForecastModel) SamplingInterval() time.Duration { return m.interval }
func (m *ForecastModel) MinHistory() int                 { return m.minHistory }

// ResidualSigma returns the model's native uncertainty estimate, or 0 when the
// artifact exports none.
func (m *ForecastModel) ResidualSigma() float64 { return m.residualSigma }

// Predict rolls the autoregression forward `steps` points from the tail of
// history. History must hold at least MinHistory values, newest last.
func (m *ForecastModel) Predict(history []float64, steps int) []float64 {
	p := len(m.coeffs)
	window := make([]float64, p)
	// window[0] is lag 1 (newest)
	for i := 0; i < p; i++ {
		window[i] = history[len(history)-1-i]
	}

	out := make([]float64, 0, steps)
	for s := 0; s < steps; s++ {
		v := m.intercept
		for i, c := range m.coeffs {
			v += c * window[i]
		}
		out = append(out, v)
		copy(window[1:], window[:p-1])
		window[0] = v
	}
	return out
}

// Registry holds the process-wide model handles, loaded once at startup and
// never reloaded mid-run.
type Registry struct {
	attribution *AttributionModel
	forecast    *ForecastModel
}

// NewRegistry loads both artifacts. Any failure is fatal to startup.
func NewRegistry(attributionPath, forecastPath string) (*Registry, error) {
	am, err := LoadAttribution(attributionPath)
	if err != nil {
		return nil, err
	}
	fm, err := LoadForecast(forecastPath)
	if err != nil {
		return nil, err
	}
	return &Registry{attribution: am, forecast: fm}, nil
}

func (r *Registry) Attribution() *AttributionModel { return r.attribution }
func (r *Registry) Forecast() *ForecastModel       { return r.forecast }

// LoadAttribution loads and shape-validates the attribution artifact.
func LoadAttribution(path string) (*AttributionModel, error) {
	doc, err := readDocument(path, KindAttribution)
	if err != nil {
		return nil, err
	}
	p := doc.Attribution
	if p == nil {
		return nil, loadErr(path, fmt.Errorf("missing attribution payload"))
	}
	if len(p.Features) == 0 {
		return nil, loadErr(path, fmt.Errorf("empty feature list"))
	}
	if len(p.Weights) != len(p.Features) {
		return nil, loadErr(path, fmt.Errorf("%d weights for %d features", len(p.Weights), len(p.Features)))
	}

	m := &AttributionModel{
		name:     doc.Name,
		features: make([]models.Pollutant, 0, len(p.Features)),
		weights:  make([]float64, len(p.Weights)),
		index:    make(map[models.Pollutant]int, len(p.Features)),
	}
	copy(m.weights, p.Weights)
	for i, f := range p.Features {
		pol := models.Pollutant(f)
		if _, dup := m.index[pol]; dup {
			return nil, loadErr(path, fmt.Errorf("duplicate feature %q", f))
		}
		m.features = append(m.features, pol)
		m.index[pol] = i
	}
	var sum float64
	for i, w := range m.weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return nil, loadErr(path, fmt.Errorf("weight[%d]=%v is not a finite non-negative value", i, w))
		}
		sum += w
	}
	// A zero-sum vector would make every normalized score undefined.
	if sum <= 0 {
		return nil, loadErr(path, fmt.Errorf("weight vector sums to zero"))
	}
	return m, nil
}

// LoadForecast loads and shape-validates the forecast artifact.
func LoadForecast(path string) (*ForecastModel, error) {
	doc, err := readDocument(path, KindForecast)
	if err != nil {
		return nil, err
	}
	p := doc.Forecast
	if p == nil {
		return nil, loadErr(path, fmt.Errorf("missing forecast payload"))
	}
	interval, err := time.ParseDuration(p.SamplingInterval)
	if err != nil || interval <= 0 {
		return nil, loadErr(path, fmt.Errorf("invalid sampling_interval %q", p.SamplingInterval))
	}
	if len(p.Coefficients) == 0 {
		return nil, loadErr(path, fmt.Errorf("empty coefficient list"))
	}
	if p.MinHistory < len(p.Coefficients) {
		return nil, loadErr(path, fmt.Errorf("min_history %d below AR order %d", p.MinHistory, len(p.Coefficients)))
	}
	if p.ResidualSigma < 0 {
		return nil, loadErr(path, fmt.Errorf("negative residual_sigma"))
	}

	coeffs := make([]float64, len(p.Coefficients))
	copy(coeffs, p.Coefficients)
	return &ForecastModel{
		name:          doc.Name,
		interval:      interval,
		minHistory:    p.MinHistory,
		coeffs:        coeffs,
		intercept:     p.Intercept,
		residualSigma: p.ResidualSigma,
	}, nil
}

func readDocument(path string, want Kind) (*document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, loadErr(path, err)
	}
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, loadErr(path, fmt.Errorf("corrupt artifact: %w", err))
	}
	if doc.SchemaVersion != SchemaVersion {
		return nil, loadErr(path, fmt.Errorf("schema version %d, serving code expects %d", doc.SchemaVersion, SchemaVersion))
	}
	if doc.Kind != want {
		return nil, loadErr(path, fmt.Errorf("artifact kind %q, expected %q", doc.Kind, want))
	}
	return &doc, nil
}

func loadErr(path string, err error) *models.ModelLoadError {
	return &models.ModelLoadError{Path: path, Err: err}
}
