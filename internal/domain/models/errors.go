package models

import "fmt"

// Error taxonomy for the request path. Startup failures (config, model load)
// abort initialization; everything else is returned to the caller as a typed
// error and must never crash the process.

// AuthError indicates the upstream rejected our access token.
type AuthError struct {
	Detail string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("upstream auth rejected: %s", e.Detail)
}

// NotFoundError indicates no station matched the query.
type NotFoundError struct {
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no station matches %q", e.Query)
}

// TransientError indicates a network-level or upstream 5xx failure. It is the
// only retryable error in the taxonomy.
type TransientError struct {
	Attempts int
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("upstream unavailable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// ModelLoadError indicates a model artifact is missing, corrupt, or
// incompatible with the serving code. Fatal at startup.
type ModelLoadError struct {
	Path string
	Err  error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("load model %s: %v", e.Path, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// ShapeMismatchError indicates the input could not be shaped into the model's
// expected feature vector.
type ShapeMismatchError struct {
	Expected []Pollutant
	Missing  []Pollutant
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("feature vector mismatch: missing %v of %v", e.Missing, e.Expected)
}

// InsufficientHistoryError indicates fewer history points than the forecast
// model requires, or a gap larger than its sampling interval.
type InsufficientHistoryError struct {
	Required int
	Got      int
	Reason   string
}

func (e *InsufficientHistoryError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("insufficient history: %s", e.Reason)
	}
	return fmt.Sprintf("insufficient history: need %d points, got %d", e.Required, e.Got)
}

// InvalidInputError indicates a caller-supplied value outside the valid domain.
type InvalidInputError struct {
	Field  string
	Detail string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Detail)
}
