package waqi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"AirSight/internal/domain/models"
	"AirSight/internal/domain/repository"
	svccache "AirSight/internal/service/cache"
	pkghttp "AirSight/pkg/http"
	"AirSight/pkg/logger"
	"AirSight/pkg/util"
)

// feedTimeLayout is the fallback layout for the feed's local "s" timestamp.
const feedTimeLayout = "2006-01-02 15:04:05"

// feedResponse mirrors the WAQI /feed/{station}/ JSON envelope. The data
// field is a string when status is "error", an object otherwise.
type feedResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type feedData struct {
	AQI  json.RawMessage `json:"aqi"`
	Idx  int             `json:"idx"`
	City struct {
		Name string    `json:"name"`
		Geo  []float64 `json:"geo"`
	} `json:"city"`
	IAQI map[string]struct {
		V float64 `json:"v"`
	} `json:"iaqi"`
	Time struct {
		S   string `json:"s"`
		ISO string `json:"iso"`
	} `json:"time"`
}

// iaqiKeys maps the feed's iaqi keys onto domain pollutants.
var iaqiKeys = map[string]models.Pollutant{
	"pm25": models.PM25,
	"pm10": models.PM10,
	"no2":  models.NO2,
	"so2":  models.SO2,
	"co":   models.CO,
	"o3":   models.O3,
}

// RetryPolicy controls the backoff loop around transient upstream failures.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Config holds the client settings.
type Config struct {
	BaseURL  string
	Token    string
	CacheTTL time.Duration
	Retry    RetryPolicy
}

// Client fetches live readings from the WAQI city feed API. Responses are
// cached per station for the configured TTL, transient failures are retried
// with exponential backoff, and a circuit breaker sheds load when the
// upstream is down. Implements repository.LiveDataSource.
type Client struct {
	cfg     Config
	http    *pkghttp.Client
	cache   *svccache.TTLCache
	breaker *gobreaker.CircuitBreaker
	log     *logger.Logger
	metrics repository.Metrics
}

func NewClient(cfg Config, httpClient *pkghttp.Client, log *logger.Logger, metrics repository.Metrics) *Client {
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if cfg.Retry.InitialBackoff <= 0 {
		cfg.Retry.InitialBackoff = 250 * time.Millisecond
	}
	if cfg.Retry.MaxBackoff <= 0 {
		cfg.Retry.MaxBackoff = 5 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "waqi",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		cfg:     cfg,
		http:    httpClient,
		cache:   svccache.NewTTLCache(),
		breaker: breaker,
		log:     log,
		metrics: metrics,
	}
}

// Fetch returns the current reading for stationQuery, serving from the TTL
// cache when fresh.
func (c *Client) Fetch(ctx context.Context, stationQuery string) (models.Reading, error) {
	stationQuery = strings.TrimSpace(stationQuery)
	if stationQuery == "" {
		return models.Reading{}, &models.InvalidInputError{Field: "station", Detail: "must not be empty"}
	}

	key := strings.ToLower(stationQuery)
	if v, ok := c.cache.Get(key); ok {
		c.metrics.RecordFetch(key, "cache_hit")
		return v.(models.Reading), nil
	}

	start := time.Now()
	reading, err := c.fetchWithRetry(ctx, stationQuery)
	c.metrics.RecordLatency("waqi_fetch", time.Since(start))
	if err != nil {
		c.metrics.RecordFetch(key, "error")
		return models.Reading{}, err
	}

	c.cache.Set(key, reading, c.cfg.CacheTTL)
	c.metrics.RecordFetch(key, "ok")
	c.metrics.RecordLastAQI(key, float64(reading.AQI))
	return reading, nil
}

// Invalidate drops the cached reading for stationQuery.
func (c *Client) Invalidate(stationQuery string) {
	c.cache.Delete(strings.ToLower(strings.TrimSpace(stationQuery)))
}

func (c *Client) fetchWithRetry(ctx context.Context, stationQuery string) (models.Reading, error) {
	backoff := c.cfg.Retry.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= c.cfg.Retry.MaxAttempts; attempt++ {
		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.fetchOnce(ctx, stationQuery)
		})
		if err == nil {
			return result.(models.Reading), nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return models.Reading{}, &models.TransientError{Attempts: attempt, Err: err}
		}

		var transient *models.TransientError
		if !errors.As(err, &transient) {
			// Auth, not-found and parse failures never heal on retry.
			return models.Reading{}, err
		}
		lastErr = transient.Err

		c.log.Warn("waqi fetch failed, retrying",
			logger.String("station", stationQuery),
			logger.Int("attempt", attempt),
			logger.Error(transient.Err),
		)

		if attempt == c.cfg.Retry.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return models.Reading{}, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > c.cfg.Retry.MaxBackoff {
			backoff = c.cfg.Retry.MaxBackoff
		}
	}

	return models.Reading{}, &models.TransientError{Attempts: c.cfg.Retry.MaxAttempts, Err: lastErr}
}

func (c *Client) fetchOnce(ctx context.Context, stationQuery string) (models.Reading, error) {
	resp, err := c.http.SendRequest(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    fmt.Sprintf("%s/feed/%s/", strings.TrimRight(c.cfg.BaseURL, "/"), stationQuery),
		QueryParams: map[string][]string{
			"token": {c.cfg.Token},
		},
	})
	if err != nil {
		return models.Reading{}, &models.TransientError{Attempts: 1, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return models.Reading{}, &models.AuthError{Detail: fmt.Sprintf("status %d", resp.StatusCode)}
	case resp.StatusCode == http.StatusNotFound:
		return models.Reading{}, &models.NotFoundError{Query: stationQuery}
	case resp.StatusCode >= 500:
		return models.Reading{}, &models.TransientError{Attempts: 1, Err: fmt.Errorf("upstream status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return models.Reading{}, fmt.Errorf("unexpected upstream status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Reading{}, &models.TransientError{Attempts: 1, Err: fmt.Errorf("read body: %w", err)}
	}

	var envelope feedResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return models.Reading{}, fmt.Errorf("decode feed response: %w", err)
	}
	if envelope.Status != "ok" {
		return models.Reading{}, c.classifyFeedError(stationQuery, envelope.Data)
	}

	var data feedData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return models.Reading{}, fmt.Errorf("decode feed data: %w", err)
	}
	return c.toReading(stationQuery, data)
}

// classifyFeedError maps the feed's status=error payloads onto the error
// taxonomy. The API reports token problems and unknown stations with HTTP 200
// and a string data field.
func (c *Client) classifyFeedError(stationQuery string, data json.RawMessage) error {
	var detail string
	if err := json.Unmarshal(data, &detail); err != nil {
		detail = string(data)
	}
	lower := strings.ToLower(detail)
	switch {
	case strings.Contains(lower, "invalid key") || strings.Contains(lower, "token"):
		return &models.AuthError{Detail: detail}
	case strings.Contains(lower, "unknown station") || strings.Contains(lower, "unknown city"):
		return &models.NotFoundError{Query: stationQuery}
	default:
		return &models.TransientError{Attempts: 1, Err: fmt.Errorf("upstream error: %s", detail)}
	}
}

func (c *Client) toReading(stationQuery string, data feedData) (models.Reading, error) {
	aqi, err := parseAQI(data.AQI)
	if err != nil {
		return models.Reading{}, &models.NotFoundError{Query: stationQuery}
	}

	concentrations := make(map[models.Pollutant]float64, len(iaqiKeys))
	for key, p := range iaqiKeys {
		if v, ok := data.IAQI[key]; ok {
			concentrations[p] = v.V
		}
	}

	r := models.Reading{
		StationID:      stationQuery,
		Station:        data.City.Name,
		Timestamp:      parseFeedTime(data.Time.ISO, data.Time.S),
		AQI:            aqi,
		Concentrations: concentrations,
	}
	if len(data.City.Geo) >= 2 {
		r.Lat = data.City.Geo[0]
		r.Lon = data.City.Geo[1]
	}
	return r, nil
}

// parseAQI handles the feed's loose aqi typing: usually a number, but "-"
// when the station has no current index.
func parseAQI(raw json.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("aqi missing")
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int(n), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("aqi has unexpected type: %s", raw)
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("station reports no current aqi: %q", s)
	}
	return v, nil
}

// parseFeedTime prefers the zoned iso timestamp, then the local "s" form
// (some stations publish unix seconds in iso, which ParseTime also covers).
func parseFeedTime(iso, local string) time.Time {
	if t, ok := util.ParseTime(iso); ok {
		return t.UTC()
	}
	if t, err := time.Parse(feedTimeLayout, local); err == nil {
		return t.UTC()
	}
	return time.Now().UTC()
}

var _ repository.LiveDataSource = (*Client)(nil)
