package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"AirSight/internal/domain/repository"
	"AirSight/internal/usecase"
	"AirSight/pkg/config"
	pkghttp "AirSight/pkg/http"
	"AirSight/pkg/logger"
)

const defaultShutdownTimeout = 10 * time.Second

// App owns process lifecycle: it starts the sampler and the HTTP server,
// waits for a termination signal, then shuts everything down in reverse
// order.
type App struct {
	cfg       *config.Config
	log       *logger.Logger
	server    *pkghttp.Server
	sampler   *usecase.Sampler
	publisher repository.Publisher
}

func New(cfg *config.Config, log *logger.Logger, server *pkghttp.Server, sampler *usecase.Sampler, publisher repository.Publisher) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		server:    server,
		sampler:   sampler,
		publisher: publisher,
	}
}

// Run blocks until the process receives SIGINT or SIGTERM.
func (a *App) Run() error {
	a.log.Info("starting",
		logger.String("environment", a.cfg.Environment),
		logger.Int("port", a.cfg.Server.Port),
		logger.Strings("stations", a.cfg.WAQI.Stations),
	)

	if a.cfg.Sampler.Enabled {
		if err := a.sampler.Start(); err != nil {
			return err
		}
	}

	if err := a.server.Start(); err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	a.log.Info("shutting down", logger.String("signal", sig.String()))

	return a.shutdown()
}

func (a *App) shutdown() error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var firstErr error
	if err := a.server.Stop(ctx); err != nil {
		a.log.Error("http shutdown failed", logger.Error(err))
		firstErr = err
	}

	if a.cfg.Sampler.Enabled {
		a.sampler.Stop()
	}

	if err := a.publisher.Close(); err != nil {
		a.log.Error("publisher close failed", logger.Error(err))
		if firstErr == nil {
			firstErr = err
		}
	}

	a.log.Info("stopped")
	return firstErr
}
