//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"AirSight/pkg/config"
	"AirSight/pkg/server"
)

func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideHTTPClient,
		ProvideLiveSource,
		ProvideHistory,
		ProvidePublisher,
		ProvideRegistry,
		ProvideAttributor,
		ProvideForecaster,
		ProvideClassifier,
		ProvideSimulator,
		ProvideDashboard,
		ProvideSampler,
		ProvideResponseCache,
		ProvideHandler,
		ProvideServer,
		ProvideApp,
	)
	return nil, nil
}
