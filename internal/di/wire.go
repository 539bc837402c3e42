//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"SignalScan/pkg/config"
	"SignalScan/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(ctx context.Context, cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideLocation,

		// Infrastructure clients
		ProvideHTTPClient,
		ProvideRedisClient,
		ProvideBarCache,

		// Repositories
		ProvideStore,
		ProvideMarketData,
		ProvideHub,
		ProvideNotifier,

		// Domain services
		ProvideLedger,
		ProvideIndicatorEngine,

		// Use cases
		ProvidePublisher,
		ProvideScanner,
		ProvideScanService,

		// Application server
		ProvideHTTPServer,
		ProvideApp,
	)
	return &server.App{}, nil
}
