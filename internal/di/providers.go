package di

import (
	"AirSight/internal/domain/repository"
	domsvc "AirSight/internal/domain/service"
	"AirSight/internal/handler/api"
	insightrepo "AirSight/internal/repository"
	"AirSight/internal/service/waqi"
	"AirSight/internal/services/advisory"
	"AirSight/internal/services/artifact"
	"AirSight/internal/services/inference"
	"AirSight/internal/usecase"
	"AirSight/pkg/cache"
	"AirSight/pkg/config"
	pkghttp "AirSight/pkg/http"
	"AirSight/pkg/kafka"
	"AirSight/pkg/logger"
	pkgmetrics "AirSight/pkg/metrics"
	"AirSight/pkg/server"
)

func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

func ProvideMetrics() repository.Metrics {
	return pkgmetrics.New()
}

func ProvideHTTPClient(cfg *config.Config) *pkghttp.Client {
	return pkghttp.NewClient(pkghttp.WithTimeout(cfg.WAQI.RequestTimeout))
}

func ProvideLiveSource(cfg *config.Config, client *pkghttp.Client, log *logger.Logger, metrics repository.Metrics) repository.LiveDataSource {
	return waqi.NewClient(waqi.Config{
		BaseURL:  cfg.WAQI.BaseURL,
		Token:    cfg.WAQI.Token,
		CacheTTL: cfg.WAQI.CacheTTL,
		Retry: waqi.RetryPolicy{
			MaxAttempts:    cfg.WAQI.Retry.MaxAttempts,
			InitialBackoff: cfg.WAQI.Retry.InitialBackoff,
			MaxBackoff:     cfg.WAQI.Retry.MaxBackoff,
		},
	}, client, log, metrics)
}

func ProvideHistory(cfg *config.Config) repository.HistoryStore {
	return insightrepo.NewMemoryHistory(cfg.History.MaxPoints, cfg.History.MaxAge)
}

func ProvidePublisher(cfg *config.Config, log *logger.Logger) (repository.Publisher, error) {
	if !cfg.Firehose.Enabled {
		return insightrepo.NopPublisher{}, nil
	}
	producer, err := kafka.NewProducer(
		kafka.WithBrokers(cfg.Firehose.Brokers),
		kafka.WithRequiredAcks(cfg.Firehose.RequiredAcks),
		kafka.WithCompression(cfg.Firehose.Compression),
		kafka.WithMaxAttempts(cfg.Firehose.Producer.MaxAttempts),
		kafka.WithBatchSize(cfg.Firehose.Producer.BatchSize),
		kafka.WithBatchBytes(cfg.Firehose.Producer.BatchBytes),
		kafka.WithBatchTimeout(cfg.Firehose.Producer.Linger),
		kafka.WithTimeouts(cfg.Firehose.Producer.WriteTimeout, cfg.Firehose.Producer.ReadTimeout),
		kafka.WithAsync(cfg.Firehose.Producer.Async),
		kafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, err
	}
	log.Info("readings firehose enabled",
		logger.Strings("brokers", cfg.Firehose.Brokers),
		logger.String("topic", cfg.Firehose.Topic),
	)
	return insightrepo.NewKafkaPublisher(producer, cfg.Firehose.Topic), nil
}

func ProvideRegistry(cfg *config.Config) (*artifact.Registry, error) {
	return artifact.NewRegistry(cfg.Models.AttributionPath, cfg.Models.ForecastPath)
}

func ProvideAttributor(registry *artifact.Registry) domsvc.SourceAttributor {
	return inference.NewModelSourceAttributor(registry.Attribution())
}

func ProvideForecaster(registry *artifact.Registry) domsvc.AQIForecaster {
	return inference.NewModelAQIForecaster(registry.Forecast())
}

func ProvideClassifier() *advisory.Classifier {
	return advisory.NewClassifier()
}

func ProvideSimulator(classifier *advisory.Classifier) *advisory.Simulator {
	return advisory.NewSimulator(classifier)
}

func ProvideDashboard(
	cfg *config.Config,
	source repository.LiveDataSource,
	history repository.HistoryStore,
	attributor domsvc.SourceAttributor,
	forecaster domsvc.AQIForecaster,
	classifier *advisory.Classifier,
	simulator *advisory.Simulator,
	log *logger.Logger,
) *usecase.Dashboard {
	return usecase.NewDashboard(source, history, attributor, forecaster, classifier, simulator, cfg.WAQI.Stations, log)
}

func ProvideSampler(
	cfg *config.Config,
	source repository.LiveDataSource,
	history repository.HistoryStore,
	publisher repository.Publisher,
	metrics repository.Metrics,
	log *logger.Logger,
) *usecase.Sampler {
	return usecase.NewSampler(source, history, publisher, metrics, cfg.WAQI.Stations, cfg.Sampler.Interval, log)
}

// ProvideResponseCache builds the response cache: layered over Redis when
// enabled, in-process memory otherwise.
func ProvideResponseCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}
	redisCache, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, err
	}
	return cache.NewLayeredCache(redisCache), nil
}

func ProvideHandler(dashboard *usecase.Dashboard, respCache cache.Service, log *logger.Logger) *api.DashboardHandler {
	return api.NewDashboardHandler(dashboard, respCache, log)
}

func ProvideServer(cfg *config.Config, handler *api.DashboardHandler) *pkghttp.Server {
	opts := []pkghttp.ServerOption{
		pkghttp.WithPort(cfg.Server.Port),
		pkghttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Path != "" {
		opts = append(opts, pkghttp.WithMetricsPath(cfg.Metrics.Path))
	}
	return pkghttp.NewServer(handler, opts...)
}

func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	srv *pkghttp.Server,
	sampler *usecase.Sampler,
	publisher repository.Publisher,
) *server.App {
	return server.New(cfg, log, srv, sampler, publisher)
}
