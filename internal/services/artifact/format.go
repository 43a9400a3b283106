package artifact

// Self-describing on-disk model format. The original training pipeline
// exported pickled estimators; serving uses a portable JSON document that
// embeds the feature order and expected shape so they can be validated at
// load time instead of failing silently at first inference.

// SchemaVersion is the artifact schema this build can load.
const SchemaVersion = 1

// Kind discriminates the two artifact types.
type Kind string

const (
	KindAttribution Kind = "attribution"
	KindForecast    Kind = "forecast"
)

type document struct {
	SchemaVersion int    `json:"schema_version"`
	Kind          Kind   `json:"kind"`
	Name          string `json:"name"`
	TrainedAt     string `json:"trained_at,omitempty"`

	Attribution *attributionPayload `json:"attribution,omitempty"`
	Forecast    *forecastPayload    `json:"forecast,omitempty"`
}

// attributionPayload carries per-feature importance weights. Feature order is
// the training-time order and is authoritative for vector construction.
type attributionPayload struct {
	Features []string  `json:"features"`
	Weights  []float64 `json:"weights"`
}

// forecastPayload carries an autoregressive forecaster: coefficients apply to
// the most recent observations (lag 1 first). ResidualSigma of zero means the
// model exports no uncertainty estimate.
type forecastPayload struct {
	SamplingInterval string    `json:"sampling_interval"`
	MinHistory       int       `json:"min_history"`
	Coefficients     []float64 `json:"coefficients"`
	Intercept        float64   `json:"intercept"`
	ResidualSigma    float64   `json:"residual_sigma"`
}
