package waqi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"AirSight/internal/domain/models"
	pkghttp "AirSight/pkg/http"
	"AirSight/pkg/logger"
)

type noopMetrics struct{}

func (noopMetrics) RecordFetch(string, string)          {}
func (noopMetrics) RecordError(string)                  {}
func (noopMetrics) RecordLastAQI(string, float64)       {}
func (noopMetrics) RecordLatency(string, time.Duration) {}

const delhiFeed = `{
  "status": "ok",
  "data": {
    "aqi": 182,
    "idx": 1451,
    "city": {"name": "Delhi", "geo": [28.6139, 77.2090]},
    "iaqi": {
      "pm25": {"v": 120},
      "pm10": {"v": 180},
      "no2": {"v": 42},
      "so2": {"v": 9},
      "co": {"v": 1.1},
      "o3": {"v": 31},
      "h": {"v": 60}
    },
    "time": {"s": "2026-06-01 12:00:00", "iso": "2026-06-01T12:00:00+05:30"}
  }
}`

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	return log
}

func newTestClient(t *testing.T, baseURL string, cacheTTL time.Duration) *Client {
	t.Helper()
	return NewClient(Config{
		BaseURL:  baseURL,
		Token:    "test-token",
		CacheTTL: cacheTTL,
		Retry: RetryPolicy{
			MaxAttempts:    3,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     5 * time.Millisecond,
		},
	}, pkghttp.NewClient(pkghttp.WithTimeout(2*time.Second)), testLogger(t), noopMetrics{})
}

func TestFetchParsesFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("token"); got != "test-token" {
			t.Errorf("token query param = %q, want test-token", got)
		}
		if r.URL.Path != "/feed/delhi/" {
			t.Errorf("path = %q, want /feed/delhi/", r.URL.Path)
		}
		fmt.Fprint(w, delhiFeed)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	reading, err := c.Fetch(context.Background(), "delhi")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if reading.AQI != 182 {
		t.Fatalf("aqi = %d, want 182", reading.AQI)
	}
	if reading.Station != "Delhi" {
		t.Fatalf("station = %q, want Delhi", reading.Station)
	}
	if len(reading.Concentrations) != 6 {
		t.Fatalf("got %d concentrations, want 6 (extraneous iaqi keys must be dropped)", len(reading.Concentrations))
	}
	if v, ok := reading.Concentration(models.PM25); !ok || v != 120 {
		t.Fatalf("pm2.5 = %v (present %v), want 120", v, ok)
	}
	if reading.Lat != 28.6139 || reading.Lon != 77.2090 {
		t.Fatalf("geo = (%v, %v)", reading.Lat, reading.Lon)
	}
	if !reading.Timestamp.Equal(time.Date(2026, 6, 1, 6, 30, 0, 0, time.UTC)) {
		t.Fatalf("timestamp = %s, want 2026-06-01T06:30:00Z", reading.Timestamp)
	}
}

func TestFetchServesFromCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, delhiFeed)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Minute)
	for i := 0; i < 3; i++ {
		if _, err := c.Fetch(context.Background(), "delhi"); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("upstream hit %d times, want 1", got)
	}

	// Case-insensitive cache key.
	if _, err := c.Fetch(context.Background(), "DELHI"); err != nil {
		t.Fatalf("fetch uppercase: %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("upstream hit %d times after case change, want 1", got)
	}
}

func TestFetchInvalidToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"error","data":"Invalid key"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	_, err := c.Fetch(context.Background(), "delhi")
	var authErr *models.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
}

func TestFetchUnknownStation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"error","data":"Unknown station"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	_, err := c.Fetch(context.Background(), "atlantis")
	var nfErr *models.NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nfErr.Query != "atlantis" {
		t.Fatalf("error query = %q, want atlantis", nfErr.Query)
	}
}

func TestFetchRetriesTransient(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, delhiFeed)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	reading, err := c.Fetch(context.Background(), "delhi")
	if err != nil {
		t.Fatalf("fetch after retries: %v", err)
	}
	if reading.AQI != 182 {
		t.Fatalf("aqi = %d, want 182", reading.AQI)
	}
	if got := hits.Load(); got != 3 {
		t.Fatalf("upstream hit %d times, want 3", got)
	}
}

func TestFetchExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	_, err := c.Fetch(context.Background(), "delhi")
	var transient *models.TransientError
	if !errors.As(err, &transient) {
		t.Fatalf("expected TransientError, got %v", err)
	}
	if transient.Attempts != 3 {
		t.Fatalf("attempts = %d, want 3", transient.Attempts)
	}
}

func TestFetchDoesNotRetryAuthError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	_, err := c.Fetch(context.Background(), "delhi")
	var authErr *models.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("upstream hit %d times, want 1", got)
	}
}

func TestFetchNoCurrentAQI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"ok","data":{"aqi":"-","city":{"name":"Ghost"},"iaqi":{},"time":{}}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	var nfErr *models.NotFoundError
	if _, err := c.Fetch(context.Background(), "ghost"); !errors.As(err, &nfErr) {
		t.Fatalf("expected NotFoundError for aqi \"-\", got %v", err)
	}
}

func TestFetchEmptyStation(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:0", 0)
	var inputErr *models.InvalidInputError
	if _, err := c.Fetch(context.Background(), "  "); !errors.As(err, &inputErr) {
		t.Fatalf("expected InvalidInputError, got %v", err)
	}
}
