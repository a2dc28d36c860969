//go:build wireinject
// +build wireinject

package di

import (
	"DemandCast/internal/usecase"
	"DemandCast/pkg/config"
	"DemandCast/pkg/server"

	"github.com/google/wire"
)

var infraSet = wire.NewSet(
	ProvideLogger,
	ProvideRegistry,
	ProvideMetrics,
	ProvideClickHouseClient,
	ProvideKafkaProducer,
	ProvideEventPublisher,
	ProvideExportCache,
)

var forecastSet = wire.NewSet(
	ProvideResolver,
	ProvideIngestor,
	ProvideDataset,
	ProvideEngine,
	ProvideExporter,
	ProvideForecastUseCase,
)

// InitializeApp wires up all dependencies and returns the HTTP application.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		infraSet,
		forecastSet,
		ProvideRateLimiter,
		ProvideForecastHandler,
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeForecastUseCase wires the pipeline without the HTTP surface.
func InitializeForecastUseCase(cfg *config.Config) (*usecase.ForecastUseCase, func(), error) {
	wire.Build(
		infraSet,
		forecastSet,
	)
	return nil, nil, nil
}
