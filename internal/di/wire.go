//go:build wireinject
// +build wireinject

package di

import (
	"AlphaCast/pkg/config"
	"AlphaCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideCache,

		// Repositories
		ProvidePriceStore,
		ProvideForecastStore,
		ProvideTickStore,
		ProvidePublisher,
		ProvideLocker,
		ProvideMarketStream,

		// Domain services
		ProvideSentiment,
		ProvideOptimizer,

		// Use cases
		ProvideForecastRunner,
		ProvideStreamIngest,
		ProvideTicksHandler,

		// HTTP and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
