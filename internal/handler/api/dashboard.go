package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"AirSight/internal/domain/models"
	svcmetrics "AirSight/internal/service/metrics"
	"AirSight/internal/service/ratelimit"
	"AirSight/internal/usecase"
	"AirSight/pkg/cache"
	pkghttp "AirSight/pkg/http"
	"AirSight/pkg/logger"
)

const (
	// overviewCacheTTL bounds how stale the region overview may be served.
	overviewCacheTTL = 60 * time.Second

	// Per-client request budget: burst capacity and tokens restored per
	// second.
	rateCapacity     = 30
	rateRefillPerSec = 10
)

// DashboardHandler serves the dashboard API. Implements pkghttp.Handler.
type DashboardHandler struct {
	dashboard *usecase.Dashboard
	respCache cache.Service
	limiter   *ratelimit.Limiter
	log       *logger.Logger
}

func NewDashboardHandler(dashboard *usecase.Dashboard, respCache cache.Service, log *logger.Logger) *DashboardHandler {
	svcmetrics.Register()
	return &DashboardHandler{
		dashboard: dashboard,
		respCache: respCache,
		limiter:   ratelimit.New(),
		log:       log,
	}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api", h.rateLimit)
	g.GET("/live", h.Live)
	g.GET("/attribution", h.Attribution)
	g.GET("/forecast", h.Forecast)
	g.GET("/dashboard", h.Summary)
	g.GET("/overview", h.Overview)
	g.GET("/advisory", h.Advisory)
	g.POST("/policy/simulate", h.SimulatePolicy)

	e.GET("/healthz", h.Health)
}

// Live returns the station's current reading with its advisory band.
func (h *DashboardHandler) Live(c echo.Context) error {
	req := new(models.LiveRequest)
	if errs := pkghttp.ReadAndValidateRequest(c, req); errs != nil {
		return pkghttp.BadRequestResponse(c, errs)
	}

	snap, err := h.observe(c, "live", func(ctx context.Context) (interface{}, error) {
		return h.dashboard.Live(ctx, req.Station)
	})
	if err != nil {
		return h.errorResponse(c, "live", err)
	}
	return pkghttp.SuccessResponse(c, snap)
}

// Attribution returns per-pollutant contribution scores and policy buckets
// for the station's live reading.
func (h *DashboardHandler) Attribution(c echo.Context) error {
	req := new(models.AttributionRequest)
	if errs := pkghttp.ReadAndValidateRequest(c, req); errs != nil {
		return pkghttp.BadRequestResponse(c, errs)
	}

	view, err := h.observe(c, "attribution", func(ctx context.Context) (interface{}, error) {
		return h.dashboard.Attribution(ctx, req.Station)
	})
	if err != nil {
		return h.errorResponse(c, "attribution", err)
	}
	return pkghttp.SuccessResponse(c, view)
}

// Forecast returns the station's predicted AQI series. Calibration against
// the live reading is on unless the caller disables it.
func (h *DashboardHandler) Forecast(c echo.Context) error {
	req := new(models.ForecastRequest)
	if errs := pkghttp.ReadAndValidateRequest(c, req); errs != nil {
		return pkghttp.BadRequestResponse(c, errs)
	}
	calibrate := req.Calibrate == nil || *req.Calibrate

	series, err := h.observe(c, "forecast", func(ctx context.Context) (interface{}, error) {
		return h.dashboard.Forecast(ctx, req.Station, req.Horizon, calibrate)
	})
	if err != nil {
		return h.errorResponse(c, "forecast", err)
	}
	return pkghttp.SuccessResponse(c, series)
}

// Summary returns the combined per-station view: live snapshot plus
// best-effort attribution and calibrated forecast.
func (h *DashboardHandler) Summary(c echo.Context) error {
	req := new(models.SummaryRequest)
	if errs := pkghttp.ReadAndValidateRequest(c, req); errs != nil {
		return pkghttp.BadRequestResponse(c, errs)
	}

	summary, err := h.observe(c, "dashboard", func(ctx context.Context) (interface{}, error) {
		return h.dashboard.Summary(ctx, req.Station)
	})
	if err != nil {
		return h.errorResponse(c, "dashboard", err)
	}
	return pkghttp.SuccessResponse(c, summary)
}

// Overview returns all configured stations sorted by AQI, served from a
// short-lived cache.
func (h *DashboardHandler) Overview(c echo.Context) error {
	ctx := c.Request().Context()
	key := cache.Key("dashboard", "overview")

	if cached, err := cache.GetTyped[models.Overview](ctx, h.respCache, key); err == nil {
		svcmetrics.CacheHits.WithLabelValues("overview").Inc()
		return pkghttp.SuccessResponse(c, cached)
	}

	overview, err := h.observe(c, "overview", func(ctx context.Context) (interface{}, error) {
		return h.dashboard.Overview(ctx)
	})
	if err != nil {
		return h.errorResponse(c, "overview", err)
	}
	if err := h.respCache.Set(ctx, key, overview, overviewCacheTTL); err != nil {
		h.log.Warn("overview cache write failed", logger.Error(err))
	}
	return pkghttp.SuccessResponse(c, overview)
}

// Advisory classifies an arbitrary AQI value against the severity table.
func (h *DashboardHandler) Advisory(c echo.Context) error {
	req := new(models.AdvisoryRequest)
	if errs := pkghttp.ReadAndValidateRequest(c, req); errs != nil {
		return pkghttp.BadRequestResponse(c, errs)
	}

	adv, err := h.dashboard.Advisory(*req.AQI)
	if err != nil {
		return h.errorResponse(c, "advisory", err)
	}
	return pkghttp.SuccessResponse(c, adv)
}

// SimulatePolicy projects the AQI impact of per-bucket emission reductions.
func (h *DashboardHandler) SimulatePolicy(c echo.Context) error {
	req := new(models.PolicySimRequest)
	if errs := pkghttp.ReadAndValidateRequest(c, req); errs != nil {
		return pkghttp.BadRequestResponse(c, errs)
	}

	reductions := map[string]float64{
		models.BucketTraffic:       req.Traffic,
		models.BucketDust:          req.Dust,
		models.BucketIndustry:      req.Industry,
		models.BucketPhotochemical: req.Photochemical,
	}
	impact, err := h.observe(c, "policy_simulate", func(ctx context.Context) (interface{}, error) {
		return h.dashboard.SimulatePolicy(ctx, req.Station, reductions)
	})
	if err != nil {
		return h.errorResponse(c, "policy_simulate", err)
	}
	return pkghttp.SuccessResponse(c, impact)
}

// Health reports process liveness.
func (h *DashboardHandler) Health(c echo.Context) error {
	return pkghttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *DashboardHandler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !h.limiter.Allow(c.RealIP(), rateCapacity, rateRefillPerSec) {
			return pkghttp.DataResponse(c, http.StatusTooManyRequests, "rate limit exceeded")
		}
		return next(c)
	}
}

// observe wraps one dashboard call with latency metrics.
func (h *DashboardHandler) observe(c echo.Context, endpoint string, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	start := time.Now()
	v, err := fn(c.Request().Context())
	svcmetrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	return v, err
}

// errorResponse maps domain errors onto HTTP statuses: auth failures read as
// a broken upstream, transient failures as service unavailability, shape and
// input problems as caller errors.
func (h *DashboardHandler) errorResponse(c echo.Context, endpoint string, err error) error {
	svcmetrics.EndpointErrors.WithLabelValues(endpoint).Inc()

	var (
		authErr    *models.AuthError
		notFound   *models.NotFoundError
		transient  *models.TransientError
		shapeErr   *models.ShapeMismatchError
		historyErr *models.InsufficientHistoryError
		invalidErr *models.InvalidInputError
	)
	switch {
	case errors.As(err, &authErr):
		// Do not leak token details to callers.
		return pkghttp.AppErrorResponse(c, pkghttp.BadGatewayError("upstream rejected credentials").WithError(err))
	case errors.As(err, &notFound):
		return pkghttp.AppErrorResponse(c, pkghttp.NotFoundErrorf("no station matches %q", notFound.Query).WithError(err))
	case errors.As(err, &transient):
		return pkghttp.AppErrorResponse(c, pkghttp.UnavailableError("upstream temporarily unavailable").WithError(err))
	case errors.As(err, &historyErr):
		return pkghttp.AppErrorResponse(c, pkghttp.UnprocessableError(historyErr.Error()).WithError(err))
	case errors.As(err, &shapeErr):
		return pkghttp.AppErrorResponse(c, pkghttp.BadRequestError(shapeErr.Error()).WithError(err))
	case errors.As(err, &invalidErr):
		return pkghttp.AppErrorResponse(c, pkghttp.BadRequestError(invalidErr.Error()).WithError(err))
	default:
		h.log.Error("unhandled dashboard error",
			logger.String("endpoint", endpoint),
			logger.Error(err),
		)
		return pkghttp.InternalServerErrorResponse(c)
	}
}

var _ pkghttp.Handler = (*DashboardHandler)(nil)
